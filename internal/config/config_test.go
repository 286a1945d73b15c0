package config

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/shape-finder-mcp/internal/detection"
	"github.com/ironsheep/shape-finder-mcp/internal/imaging"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, detection.DefaultConfig(), cfg.Detection())

	masks, err := cfg.Masks()
	require.NoError(t, err)
	assert.Equal(t, imaging.DefaultMaskConfig(), masks)

	fc, err := cfg.FinderSettings()
	require.NoError(t, err)
	assert.Equal(t, 0, fc.Workers)
	assert.Equal(t, []imaging.Channel{imaging.ChannelBlue, imaging.ChannelGreen, imaging.ChannelRed}, fc.Masks.Channels)
}

func TestConfig_ValidateCollectsErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Classifier.ApproxEpsilon = 0
	cfg.Finder.Channels = []string{"ultraviolet"}
	cfg.Finder.Backend = "halcon"
	cfg.Output.Format = "xml"
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"classifier:", "ultraviolet", "halcon", "xml", "log:"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestConfig_ValidateSections(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero levels", func(c *Config) { c.Finder.Levels = 0 }},
		{"negative workers", func(c *Config) { c.Finder.Workers = -2 }},
		{"bad aperture", func(c *Config) { c.Canny.Aperture = 4 }},
		{"zero thickness", func(c *Config) { c.Output.Thickness = 0 }},
		{"bad label colour", func(c *Config) { c.Output.LabelColor = "#zzzzzz" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"negative min area", func(c *Config) { c.Classifier.MinArea = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_Annotate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.Thickness = 4
	cfg.Output.Labels = false
	cfg.Output.LabelColor = "ff0000"

	opts, err := cfg.Annotate()
	require.NoError(t, err)
	assert.Equal(t, 4, opts.Thickness)
	assert.False(t, opts.Labels)
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, opts.LabelColor)
}
