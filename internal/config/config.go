package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/shape-finder-mcp/internal/detection"
	"github.com/ironsheep/shape-finder-mcp/internal/imaging"
)

// Config is the complete shapefinder configuration. It is loaded from a
// YAML file, SHAPEFINDER_* environment variables and command-line flags.
type Config struct {
	Classifier ClassifierConfig `mapstructure:"classifier" yaml:"classifier" json:"classifier"`
	Finder     FinderConfig     `mapstructure:"finder" yaml:"finder" json:"finder"`
	Canny      CannyConfig      `mapstructure:"canny" yaml:"canny" json:"canny"`
	Output     OutputConfig     `mapstructure:"output" yaml:"output" json:"output"`
	Log        LogConfig        `mapstructure:"log" yaml:"log" json:"log"`
	Metrics    MetricsConfig    `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
}

// ClassifierConfig holds the shape classification tolerances.
type ClassifierConfig struct {
	MinArea             float64 `mapstructure:"min_area" yaml:"min_area" json:"min_area"`
	ApproxEpsilon       float64 `mapstructure:"approx_epsilon" yaml:"approx_epsilon" json:"approx_epsilon"`
	RightAngleTolerance float64 `mapstructure:"right_angle_tolerance" yaml:"right_angle_tolerance" json:"right_angle_tolerance"`
	EllipseTolerance    float64 `mapstructure:"ellipse_tolerance" yaml:"ellipse_tolerance" json:"ellipse_tolerance"`
	EllipseMinFraction  float64 `mapstructure:"ellipse_min_fraction" yaml:"ellipse_min_fraction" json:"ellipse_min_fraction"`
	CircleAxisTolerance float64 `mapstructure:"circle_axis_tolerance" yaml:"circle_axis_tolerance" json:"circle_axis_tolerance"`
}

// FinderConfig controls mask generation and the contour backend.
type FinderConfig struct {
	Channels []string `mapstructure:"channels" yaml:"channels" json:"channels"`
	Levels   int      `mapstructure:"levels" yaml:"levels" json:"levels"`
	Workers  int      `mapstructure:"workers" yaml:"workers" json:"workers"`
	Backend  string   `mapstructure:"backend" yaml:"backend" json:"backend"`
	Smooth   bool     `mapstructure:"smooth" yaml:"smooth" json:"smooth"`
}

// CannyConfig configures the edge mask at level 0.
type CannyConfig struct {
	Low          float64 `mapstructure:"low" yaml:"low" json:"low"`
	High         float64 `mapstructure:"high" yaml:"high" json:"high"`
	Aperture     int     `mapstructure:"aperture" yaml:"aperture" json:"aperture"`
	DilateRadius float64 `mapstructure:"dilate_radius" yaml:"dilate_radius" json:"dilate_radius"`
}

// OutputConfig controls result rendering.
type OutputConfig struct {
	Format    string `mapstructure:"format" yaml:"format" json:"format"`
	Thickness int    `mapstructure:"thickness" yaml:"thickness" json:"thickness"`
	Labels    bool   `mapstructure:"labels" yaml:"labels" json:"labels"`
	// LabelColor is the label text colour as a hex string.
	LabelColor string `mapstructure:"label_color" yaml:"label_color" json:"label_color"`
}

// LogConfig selects log level and format.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// MetricsConfig enables the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile" yaml:"textfile" json:"textfile"`
}

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatText = "text"
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	cls := detection.DefaultConfig()
	masks := imaging.DefaultMaskConfig()
	anno := imaging.DefaultAnnotateOptions()

	channels := make([]string, len(masks.Channels))
	for i, ch := range masks.Channels {
		channels[i] = string(ch)
	}

	return Config{
		Classifier: ClassifierConfig{
			MinArea:             cls.MinArea,
			ApproxEpsilon:       cls.ApproxEpsilon,
			RightAngleTolerance: cls.RightAngleTolerance,
			EllipseTolerance:    cls.EllipseTolerance,
			EllipseMinFraction:  cls.EllipseMinFraction,
			CircleAxisTolerance: cls.CircleAxisTolerance,
		},
		Finder: FinderConfig{
			Channels: channels,
			Levels:   masks.Levels,
			Backend:  detection.BackendNative,
			Smooth:   masks.Smooth,
		},
		Canny: CannyConfig{
			Low:          masks.CannyLow,
			High:         masks.CannyHigh,
			Aperture:     masks.CannyAperture,
			DilateRadius: masks.DilateRadius,
		},
		Output: OutputConfig{
			Format:     FormatText,
			Thickness:  anno.Thickness,
			Labels:     anno.Labels,
			LabelColor: "#ffffff",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Validate checks every section and returns all problems found.
func (c Config) Validate() error {
	var errs []error

	if err := c.Detection().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("classifier: %w", err))
	}

	if _, err := c.Masks(); err != nil {
		errs = append(errs, fmt.Errorf("finder: %w", err))
	}
	if c.Finder.Workers < 0 {
		errs = append(errs, fmt.Errorf("finder: workers must not be negative, got %d", c.Finder.Workers))
	}
	switch strings.ToLower(c.Finder.Backend) {
	case "", detection.BackendNative, detection.BackendOpenCV:
	default:
		errs = append(errs, fmt.Errorf("finder: unknown backend %q", c.Finder.Backend))
	}

	switch strings.ToLower(c.Output.Format) {
	case FormatJSON, FormatYAML, FormatText:
	default:
		errs = append(errs, fmt.Errorf("output: unknown format %q", c.Output.Format))
	}
	if c.Output.Thickness < 1 {
		errs = append(errs, fmt.Errorf("output: thickness must be at least 1, got %d", c.Output.Thickness))
	}
	if _, err := c.Annotate(); err != nil {
		errs = append(errs, fmt.Errorf("output: %w", err))
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log: unknown format %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// Detection returns the classifier tolerances.
func (c Config) Detection() detection.Config {
	return detection.Config{
		MinArea:             c.Classifier.MinArea,
		ApproxEpsilon:       c.Classifier.ApproxEpsilon,
		RightAngleTolerance: c.Classifier.RightAngleTolerance,
		EllipseTolerance:    c.Classifier.EllipseTolerance,
		EllipseMinFraction:  c.Classifier.EllipseMinFraction,
		CircleAxisTolerance: c.Classifier.CircleAxisTolerance,
	}
}

// Masks returns the mask generation settings.
func (c Config) Masks() (imaging.MaskConfig, error) {
	channels, err := imaging.ParseChannels(c.Finder.Channels)
	if err != nil {
		return imaging.MaskConfig{}, err
	}
	m := imaging.MaskConfig{
		Channels:      channels,
		Levels:        c.Finder.Levels,
		CannyLow:      c.Canny.Low,
		CannyHigh:     c.Canny.High,
		CannyAperture: c.Canny.Aperture,
		DilateRadius:  c.Canny.DilateRadius,
		Smooth:        c.Finder.Smooth,
	}
	return m, m.Validate()
}

// FinderSettings returns the Finder configuration.
func (c Config) FinderSettings() (detection.FinderConfig, error) {
	masks, err := c.Masks()
	if err != nil {
		return detection.FinderConfig{}, err
	}
	return detection.FinderConfig{Masks: masks, Workers: c.Finder.Workers}, nil
}

// Annotate returns the rendering options for annotated output.
func (c Config) Annotate() (imaging.AnnotateOptions, error) {
	opts := imaging.DefaultAnnotateOptions()
	opts.Thickness = c.Output.Thickness
	opts.Labels = c.Output.Labels
	if c.Output.LabelColor != "" {
		fg, err := imaging.ParseHexColor(c.Output.LabelColor)
		if err != nil {
			return opts, err
		}
		opts.LabelColor = fg
	}
	return opts, nil
}
