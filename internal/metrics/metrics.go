// Package metrics counts classification outcomes with Prometheus
// collectors. A Recorder plugs into detection.Classifier through
// detection.WithRecorder and can be exported in the node_exporter textfile
// format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ironsheep/shape-finder-mcp/internal/detection"
)

const namespace = "shapefinder"

// Recorder implements detection.Recorder and detection.MaskRecorder.
type Recorder struct {
	registry *prometheus.Registry

	classified   *prometheus.CounterVec
	rejected     *prometheus.CounterVec
	maskMatches  *prometheus.CounterVec
	maskContours *prometheus.HistogramVec
	maskDuration *prometheus.HistogramVec
}

var (
	_ detection.Recorder     = (*Recorder)(nil)
	_ detection.MaskRecorder = (*Recorder)(nil)
)

// NewRecorder returns a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		classified: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "shapes_classified_total",
				Help:      "Contours classified, by shape",
			},
			[]string{"shape"},
		),
		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "contours_rejected_total",
				Help:      "Contours that matched no shape, by reason",
			},
			[]string{"reason"},
		),
		maskMatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mask_matches_total",
				Help:      "Shapes found per mask channel and kind",
			},
			[]string{"channel", "kind"},
		),
		maskContours: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "mask_contours",
				Help:      "Contours extracted per mask",
				Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
			},
			[]string{"kind"},
		),
		maskDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "mask_duration_seconds",
				Help:      "Time spent extracting and classifying one mask",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"kind"},
		),
	}
	r.registry.MustRegister(r.classified, r.rejected, r.maskMatches, r.maskContours, r.maskDuration)

	// Pre-create label sets so every series is exported, even at zero.
	for _, s := range detection.Shapes {
		r.classified.WithLabelValues(string(s))
	}
	return r
}

// Registry returns the registry holding the recorder's collectors.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

func (r *Recorder) Classified(label detection.Shape) {
	r.classified.WithLabelValues(string(label)).Inc()
}

func (r *Recorder) Rejected(reason detection.Reason) {
	r.rejected.WithLabelValues(string(reason)).Inc()
}

func (r *Recorder) MaskScanned(mask detection.MaskInfo, contours, matches int, elapsed time.Duration) {
	kind := string(mask.Kind)
	r.maskMatches.WithLabelValues(string(mask.Channel), kind).Add(float64(matches))
	r.maskContours.WithLabelValues(kind).Observe(float64(contours))
	r.maskDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// WriteTextfile writes the current values to path in the Prometheus text
// format. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
