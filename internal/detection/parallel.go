package detection

import (
	"context"
	"runtime"
	"sync"

	"github.com/ironsheep/shape-finder-mcp/internal/geometry"
)

// contourJob is a single contour waiting for classification.
type contourJob struct {
	index   int
	contour geometry.Contour
}

// indexedResult is a match tagged with the index of its source contour.
type indexedResult struct {
	index  int
	result Result
	ok     bool
}

// ClassifyContoursParallel classifies contours on up to workers goroutines
// and returns exactly what ClassifyContours would, in the same order.
// workers <= 0 uses runtime.NumCPU(). Cancelling ctx stops the run and
// returns ctx.Err().
func (c *Classifier) ClassifyContoursParallel(ctx context.Context, contours []geometry.Contour, workers int) ([]Result, error) {
	matches, err := c.classifyIndexed(ctx, contours, workers)
	if err != nil {
		return nil, err
	}
	var out []Result
	for _, m := range matches {
		out = append(out, m.result)
	}
	return out, nil
}

// classifyIndexed returns the matches among contours in contour order.
func (c *Classifier) classifyIndexed(ctx context.Context, contours []geometry.Contour, workers int) ([]indexedResult, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(contours))

	if workers <= 1 {
		var out []indexedResult
		for i, ct := range contours {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if r, ok := c.Classify(ct); ok {
				out = append(out, indexedResult{index: i, result: r, ok: true})
			}
		}
		return out, nil
	}

	jobs := make(chan contourJob, workers)
	results := make(chan indexedResult, len(contours))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				r, ok := c.Classify(job.contour)
				results <- indexedResult{index: job.index, result: r, ok: ok}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, ct := range contours {
			select {
			case jobs <- contourJob{index: i, contour: ct}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	slots := make([]indexedResult, len(contours))
	for r := range results {
		slots[r.index] = r
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []indexedResult
	for _, r := range slots {
		if r.ok {
			out = append(out, r)
		}
	}
	return out, nil
}
