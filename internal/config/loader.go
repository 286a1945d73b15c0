package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "shapefinder"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "SHAPEFINDER"
)

// Loader reads configuration from files, environment variables and bound
// flags.
type Loader struct {
	v *viper.Viper
}

// NewLoaderWith returns a loader on v.
func NewLoaderWith(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// Load reads configuration from the first shapefinder.yaml found on the
// search path, or from configFile when it is not empty, then applies
// environment overrides and validates the result. A missing default file
// is not an error.
func (l *Loader) Load(configFile string) (*Config, error) {
	cfg, err := l.LoadWithoutValidation(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadWithoutValidation is Load without the final Validate call.
func (l *Loader) LoadWithoutValidation(configFile string) (*Config, error) {
	l.setupEnvironmentVariables()
	l.setDefaults()

	if configFile != "" {
		if _, err := os.Stat(configFile); err != nil {
			return nil, fmt.Errorf("config file does not exist: %s", configFile)
		}
		l.v.SetConfigFile(configFile)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	} else {
		l.v.SetConfigName(ConfigFileName)
		l.v.SetConfigType("yaml")
		for _, p := range SearchPaths() {
			l.v.AddConfigPath(p)
		}
		if err := l.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// ConfigFileUsed returns the path of the file that was read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// WriteDefaults writes the default configuration to filename.
func (l *Loader) WriteDefaults(filename string) error {
	l.setDefaults()
	if filename == "" {
		filename = ConfigFileName + ".yaml"
	}
	return l.v.WriteConfigAs(filename)
}

// SearchPaths returns the directories searched for shapefinder.yaml, in
// order.
func SearchPaths() []string {
	paths := []string{"."}
	if configDir, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok && configDir != "" {
		paths = append(paths, filepath.Join(configDir, "shapefinder"))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "shapefinder"))
	}
	return append(paths, "/etc/shapefinder")
}

func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	l.v.AutomaticEnv()
}

// setDefaults registers every key so that AutomaticEnv and Unmarshal see
// it even when no file sets it.
func (l *Loader) setDefaults() {
	d := DefaultConfig()

	l.v.SetDefault("classifier.min_area", d.Classifier.MinArea)
	l.v.SetDefault("classifier.approx_epsilon", d.Classifier.ApproxEpsilon)
	l.v.SetDefault("classifier.right_angle_tolerance", d.Classifier.RightAngleTolerance)
	l.v.SetDefault("classifier.ellipse_tolerance", d.Classifier.EllipseTolerance)
	l.v.SetDefault("classifier.ellipse_min_fraction", d.Classifier.EllipseMinFraction)
	l.v.SetDefault("classifier.circle_axis_tolerance", d.Classifier.CircleAxisTolerance)

	l.v.SetDefault("finder.channels", d.Finder.Channels)
	l.v.SetDefault("finder.levels", d.Finder.Levels)
	l.v.SetDefault("finder.workers", d.Finder.Workers)
	l.v.SetDefault("finder.backend", d.Finder.Backend)
	l.v.SetDefault("finder.smooth", d.Finder.Smooth)

	l.v.SetDefault("canny.low", d.Canny.Low)
	l.v.SetDefault("canny.high", d.Canny.High)
	l.v.SetDefault("canny.aperture", d.Canny.Aperture)
	l.v.SetDefault("canny.dilate_radius", d.Canny.DilateRadius)

	l.v.SetDefault("output.format", d.Output.Format)
	l.v.SetDefault("output.thickness", d.Output.Thickness)
	l.v.SetDefault("output.labels", d.Output.Labels)
	l.v.SetDefault("output.label_color", d.Output.LabelColor)

	l.v.SetDefault("log.level", d.Log.Level)
	l.v.SetDefault("log.format", d.Log.Format)

	l.v.SetDefault("metrics.textfile", d.Metrics.Textfile)
}
