package detection

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/shape-finder-mcp/internal/geometry"
	"github.com/ironsheep/shape-finder-mcp/internal/imaging"
)

// MaskInfo identifies the mask a detection came from.
type MaskInfo struct {
	Channel   imaging.Channel  `json:"channel" yaml:"channel"`
	Level     int              `json:"level" yaml:"level"`
	Kind      imaging.MaskKind `json:"kind" yaml:"kind"`
	Threshold float64          `json:"threshold,omitempty" yaml:"threshold,omitempty"`
}

// Name returns the same identifier as imaging.Mask.Name.
func (m MaskInfo) Name() string {
	return imaging.Mask{Channel: m.Channel, Level: m.Level, Kind: m.Kind}.Name()
}

// Detection is a classified contour found in an image.
type Detection struct {
	Result       `yaml:",inline"`
	Centroid     geometry.Point `json:"centroid" yaml:"centroid"`
	Mask         MaskInfo       `json:"mask" yaml:"mask"`
	ContourIndex int            `json:"contour_index" yaml:"contour_index"`
}

// MaskRecorder is implemented by recorders that also track per-mask work.
type MaskRecorder interface {
	MaskScanned(mask MaskInfo, contours, matches int, elapsed time.Duration)
}

// FinderConfig controls mask generation and parallelism.
type FinderConfig struct {
	Masks imaging.MaskConfig
	// Workers bounds per-mask classification goroutines. Zero uses
	// runtime.NumCPU().
	Workers int
}

// DefaultFinderConfig returns the standard mask ladder with one worker per CPU.
func DefaultFinderConfig() FinderConfig {
	return FinderConfig{Masks: imaging.DefaultMaskConfig()}
}

// Finder runs a Classifier over every mask derived from an image.
type Finder struct {
	classifier *Classifier
	cfg        FinderConfig
}

// NewFinder returns a Finder. The configuration is validated up front.
func NewFinder(classifier *Classifier, cfg FinderConfig) (*Finder, error) {
	if classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	if err := cfg.Masks.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mask config: %w", err)
	}
	return &Finder{classifier: classifier, cfg: cfg}, nil
}

// Find scans img for shapes.
//
// This is the image-level entry point used by the CLI find command and the
// shapes_find tool.
//
// Parameters:
//   - ctx: Cancels the scan between masks.
//   - img: Source image. Sub-images are fine; their bounds need not start
//     at (0, 0).
//
// Returns:
//   - []Detection: Every match, ordered by channel, level and contour
//     index. Polygons and centroids are in img's coordinate space.
//   - error: A mask or toolkit failure, or ctx.Err() on cancellation.
//
// # Algorithm
//
//  1. Smoothing: optional pyramid down/up round trip
//  2. Masks: per channel, a dilated Canny edge map (level 0) followed by
//     Levels-1 intensity thresholds
//  3. Contours: Toolkit.ExtractContours on each mask
//  4. Classification: ClassifyContoursParallel with Workers goroutines
//
// # Limitations
//
//   - The same object is usually found on several masks; detections are
//     not merged
//   - Shapes touching the image border are traced along the border
func (f *Finder) Find(ctx context.Context, img image.Image) ([]Detection, error) {
	origin := img.Bounds().Min
	tk := f.classifier.toolkit
	mr, _ := f.classifier.recorder.(MaskRecorder)

	var out []Detection
	err := imaging.EachMask(ctx, img, f.cfg.Masks, func(m imaging.Mask) error {
		start := time.Now()
		info := MaskInfo{Channel: m.Channel, Level: m.Level, Kind: m.Kind, Threshold: m.Threshold}

		contours, err := tk.ExtractContours(m.Image)
		if err != nil {
			return fmt.Errorf("failed to extract contours from %s: %w", m.Name(), err)
		}
		matches, err := f.classifier.classifyIndexed(ctx, contours, f.cfg.Workers)
		if err != nil {
			return err
		}

		for _, r := range matches {
			poly := translate(r.result.Polygon, origin)
			out = append(out, Detection{
				Result:       Result{Label: r.result.Label, Polygon: poly},
				Centroid:     geometry.Centroid(poly),
				Mask:         info,
				ContourIndex: r.index,
			})
		}

		elapsed := time.Since(start)
		if mr != nil {
			mr.MaskScanned(info, len(contours), len(matches), elapsed)
		}
		f.classifier.log.WithFields(logrus.Fields{
			"mask":     m.Name(),
			"toolkit":  tk.Name(),
			"contours": len(contours),
			"matches":  len(matches),
			"elapsed":  elapsed,
		}).Debug("mask scanned")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindRegion runs Find on the part of img inside roi. Polygons are reported
// in img's coordinate space. roi must lie within img's bounds.
func (f *Finder) FindRegion(ctx context.Context, img image.Image, roi image.Rectangle) ([]Detection, error) {
	if roi == img.Bounds() {
		return f.Find(ctx, img)
	}
	cropped, err := imaging.CropROI(img, roi)
	if err != nil {
		return nil, err
	}
	dets, err := f.Find(ctx, cropped)
	if err != nil {
		return nil, err
	}
	for i := range dets {
		dets[i].Polygon = translate(dets[i].Polygon, roi.Min)
		dets[i].Centroid = geometry.Pt(dets[i].Centroid.X+float64(roi.Min.X), dets[i].Centroid.Y+float64(roi.Min.Y))
	}
	return dets, nil
}

// translate returns c shifted by (d.X, d.Y). Masks start at (0, 0), so
// polygons are moved back to the source image's origin.
func translate(c geometry.Contour, d image.Point) geometry.Contour {
	if d == (image.Point{}) {
		return c
	}
	out := make(geometry.Contour, len(c))
	for i, p := range c {
		out[i] = geometry.Pt(p.X+float64(d.X), p.Y+float64(d.Y))
	}
	return out
}

// Summary counts detections per label. Every label is present.
func Summary(dets []Detection) map[Shape]int {
	counts := make(map[Shape]int, len(Shapes))
	for _, s := range Shapes {
		counts[s] = 0
	}
	for _, d := range dets {
		counts[d.Label]++
	}
	return counts
}

// Overlays converts detections into annotation overlays, one colour per
// label, with labels anchored at the polygon centroid.
func Overlays(dets []Detection) []imaging.Overlay {
	out := make([]imaging.Overlay, 0, len(dets))
	for _, d := range dets {
		out = append(out, imaging.Overlay{
			Polygon: d.Polygon.ImagePoints(),
			Label:   string(d.Label),
			Anchor:  d.Centroid.ImagePoint(),
			Color:   LabelColor(d.Label),
		})
	}
	return out
}

// LabelColor returns the annotation colour for label.
func LabelColor(label Shape) color.RGBA {
	for i, s := range Shapes {
		if s == label {
			return imaging.PaletteColor(i)
		}
	}
	return imaging.PaletteColor(len(Shapes))
}
