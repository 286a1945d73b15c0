package imaging

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/channel"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// Channel names a grayscale plane of a colour image.
type Channel string

const (
	ChannelRed   Channel = "red"
	ChannelGreen Channel = "green"
	ChannelBlue  Channel = "blue"
	ChannelGray  Channel = "gray"
)

// ParseChannel accepts a channel name or its first letter.
func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "red", "r":
		return ChannelRed, nil
	case "green", "g":
		return ChannelGreen, nil
	case "blue", "b":
		return ChannelBlue, nil
	case "gray", "grey", "luma", "y":
		return ChannelGray, nil
	}
	return "", fmt.Errorf("unknown channel %q", s)
}

// ParseChannels parses a list of channel names.
func ParseChannels(names []string) ([]Channel, error) {
	out := make([]Channel, 0, len(names))
	for _, n := range names {
		ch, err := ParseChannel(n)
		if err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, nil
}

// MaskKind distinguishes edge maps from threshold masks.
type MaskKind string

const (
	MaskEdges     MaskKind = "edges"
	MaskThreshold MaskKind = "threshold"
)

// MaskConfig controls mask generation.
type MaskConfig struct {
	// Channels are processed in order.
	Channels []Channel
	// Levels is the number of masks per channel: one edge map plus
	// Levels-1 thresholds.
	Levels int
	// CannyLow and CannyHigh are the hysteresis thresholds for level 0.
	CannyLow  float64
	CannyHigh float64
	// CannyAperture is the Sobel aperture, 3 or 5.
	CannyAperture int
	// DilateRadius thickens edge maps so broken outlines close. Zero
	// disables dilation.
	DilateRadius float64
	// Smooth enables the pyramid down/up round trip before splitting.
	Smooth bool
}

// DefaultMaskConfig returns the settings used by the shape finder.
func DefaultMaskConfig() MaskConfig {
	return MaskConfig{
		Channels:      []Channel{ChannelBlue, ChannelGreen, ChannelRed},
		Levels:        10,
		CannyLow:      10,
		CannyHigh:     30,
		CannyAperture: 5,
		DilateRadius:  1,
		Smooth:        true,
	}
}

// Validate reports the first invalid setting.
func (c MaskConfig) Validate() error {
	if len(c.Channels) == 0 {
		return errors.New("at least one channel is required")
	}
	if c.Levels < 1 {
		return fmt.Errorf("levels must be at least 1, got %d", c.Levels)
	}
	if c.CannyLow < 0 || c.CannyHigh < 0 {
		return errors.New("canny thresholds must not be negative")
	}
	if _, ok := sobelSmooth[c.CannyAperture]; !ok {
		return fmt.Errorf("canny aperture must be 3 or 5, got %d", c.CannyAperture)
	}
	if c.DilateRadius < 0 {
		return errors.New("dilate radius must not be negative")
	}
	return nil
}

// Mask is one binary image in the stack scanned for contours.
type Mask struct {
	Channel Channel
	Level   int
	Kind    MaskKind
	// Threshold is the minimum intensity kept by a threshold mask.
	Threshold float64
	Image     *image.Gray
}

// Name identifies the mask in logs, e.g. "red/edges" or "blue/level-4".
func (m Mask) Name() string {
	if m.Kind == MaskEdges {
		return string(m.Channel) + "/edges"
	}
	return fmt.Sprintf("%s/level-%d", m.Channel, m.Level)
}

// Coverage returns the fraction of non-zero pixels in the mask.
func (m Mask) Coverage() float64 {
	b := m.Image.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0
	}
	on := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := m.Image.Pix[m.Image.PixOffset(b.Min.X, y):m.Image.PixOffset(b.Max.X, y)]
		for _, v := range row {
			if v != 0 {
				on++
			}
		}
	}
	return float64(on) / float64(total)
}

// LevelThreshold returns the intensity threshold for level > 0 of an
// n-level ladder.
func LevelThreshold(level, n int) float64 {
	return float64((level+1)*255) / float64(n)
}

// PyramidSmooth halves img with a Gaussian filter and scales it back up,
// suppressing pixel noise while keeping object outlines in place.
func PyramidSmooth(img image.Image) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 2 || h < 2 {
		return imaging.Clone(img)
	}
	small := imaging.Resize(img, (w+1)/2, (h+1)/2, imaging.Gaussian)
	return imaging.Resize(small, w, h, imaging.Gaussian)
}

// ExtractChannel returns one plane of img as grayscale.
func ExtractChannel(img image.Image, ch Channel) (*image.Gray, error) {
	switch ch {
	case ChannelRed:
		return channel.Extract(img, channel.Red), nil
	case ChannelGreen:
		return channel.Extract(img, channel.Green), nil
	case ChannelBlue:
		return channel.Extract(img, channel.Blue), nil
	case ChannelGray:
		return channel.Extract(effect.Grayscale(img), channel.Red), nil
	}
	return nil, fmt.Errorf("unknown channel %q", ch)
}

// EdgeMask runs Canny on plane and dilates the result.
func EdgeMask(plane *image.Gray, cfg MaskConfig) (*image.Gray, error) {
	edges, err := Canny(plane, cfg.CannyLow, cfg.CannyHigh, cfg.CannyAperture)
	if err != nil {
		return nil, err
	}
	if cfg.DilateRadius <= 0 {
		return edges, nil
	}
	return channel.Extract(effect.Dilate(edges, cfg.DilateRadius), channel.Red), nil
}

// ThresholdMask keeps pixels of plane whose intensity is at least t.
func ThresholdMask(plane *image.Gray, t float64) *image.Gray {
	level := math.Ceil(t)
	bin := adjust.Apply(plane, func(c color.RGBA) color.RGBA {
		if float64(c.R) >= level {
			return color.RGBA{255, 255, 255, 255}
		}
		return color.RGBA{0, 0, 0, 255}
	})
	return channel.Extract(bin, channel.Red)
}

// EachMask generates the mask stack for img and passes each mask to fn in
// (channel, level) order. Generation stops at the first error from fn or
// when ctx is cancelled. Masks have their origin at (0, 0).
//
// For every channel in cfg.Channels:
//   - Level 0 is EdgeMask: Canny with the configured thresholds and
//     aperture, dilated by DilateRadius.
//   - Level l in 1..Levels-1 is ThresholdMask at LevelThreshold(l, Levels).
//
// Masks are produced one at a time, so only one is alive per call unless
// fn retains it.
func EachMask(ctx context.Context, img image.Image, cfg MaskConfig, fn func(Mask) error) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	var src image.Image
	if cfg.Smooth {
		src = PyramidSmooth(img)
	} else {
		src = imaging.Clone(img)
	}

	for _, ch := range cfg.Channels {
		plane, err := ExtractChannel(src, ch)
		if err != nil {
			return err
		}

		for level := 0; level < cfg.Levels; level++ {
			if err := ctx.Err(); err != nil {
				return err
			}

			m := Mask{Channel: ch, Level: level}
			if level == 0 {
				m.Kind = MaskEdges
				if m.Image, err = EdgeMask(plane, cfg); err != nil {
					return err
				}
			} else {
				m.Kind = MaskThreshold
				m.Threshold = LevelThreshold(level, cfg.Levels)
				m.Image = ThresholdMask(plane, m.Threshold)
			}

			if err := fn(m); err != nil {
				return err
			}
		}
	}
	return nil
}

// GenerateMasks collects the full mask stack for img.
func GenerateMasks(ctx context.Context, img image.Image, cfg MaskConfig) ([]Mask, error) {
	var out []Mask
	err := EachMask(ctx, img, cfg, func(m Mask) error {
		out = append(out, m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
