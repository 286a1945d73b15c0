package imaging

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
)

// redSquareImage returns a black size x size RGBA image with a pure red
// square covering r.
func redSquareImage(size int, r image.Rectangle) *image.RGBA {
	img := solidImage(size, size, color.RGBA{0, 0, 0, 255})
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	return img
}

func TestParseChannel(t *testing.T) {
	tests := []struct {
		in   string
		want Channel
		ok   bool
	}{
		{"red", ChannelRed, true},
		{"R", ChannelRed, true},
		{" green ", ChannelGreen, true},
		{"b", ChannelBlue, true},
		{"grey", ChannelGray, true},
		{"alpha", "", false},
	}
	for _, tt := range tests {
		got, err := ParseChannel(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseChannel(%q) error = %v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseChannel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := ParseChannels([]string{"r", "x"}); err == nil {
		t.Error("ParseChannels should reject unknown names")
	}
}

func TestLevelThreshold(t *testing.T) {
	if got := LevelThreshold(1, 10); got != 51 {
		t.Errorf("LevelThreshold(1, 10) = %v, want 51", got)
	}
	if got := LevelThreshold(9, 10); got != 255 {
		t.Errorf("LevelThreshold(9, 10) = %v, want 255", got)
	}
	if got := LevelThreshold(2, 10); got != 76.5 {
		t.Errorf("LevelThreshold(2, 10) = %v, want 76.5", got)
	}
}

func TestMaskConfig_Validate(t *testing.T) {
	if err := DefaultMaskConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	tests := []struct {
		name   string
		modify func(*MaskConfig)
	}{
		{"no channels", func(c *MaskConfig) { c.Channels = nil }},
		{"zero levels", func(c *MaskConfig) { c.Levels = 0 }},
		{"negative canny", func(c *MaskConfig) { c.CannyLow = -1 }},
		{"bad aperture", func(c *MaskConfig) { c.CannyAperture = 7 }},
		{"negative dilate", func(c *MaskConfig) { c.DilateRadius = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultMaskConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestExtractChannel(t *testing.T) {
	img := redSquareImage(20, image.Rect(5, 5, 15, 15))

	red, err := ExtractChannel(img, ChannelRed)
	if err != nil {
		t.Fatalf("ExtractChannel failed: %v", err)
	}
	if red.GrayAt(10, 10).Y != 255 || red.GrayAt(1, 1).Y != 0 {
		t.Errorf("red plane: inside=%d outside=%d", red.GrayAt(10, 10).Y, red.GrayAt(1, 1).Y)
	}

	blue, err := ExtractChannel(img, ChannelBlue)
	if err != nil {
		t.Fatalf("ExtractChannel failed: %v", err)
	}
	if blue.GrayAt(10, 10).Y != 0 {
		t.Errorf("blue plane inside square = %d, want 0", blue.GrayAt(10, 10).Y)
	}

	gray, err := ExtractChannel(img, ChannelGray)
	if err != nil {
		t.Fatalf("ExtractChannel failed: %v", err)
	}
	if v := gray.GrayAt(10, 10).Y; v < 70 || v > 85 {
		t.Errorf("gray plane inside square = %d, want about 77", v)
	}

	if _, err := ExtractChannel(img, Channel("alpha")); err == nil {
		t.Error("expected error for unknown channel")
	}
}

func TestThresholdMask(t *testing.T) {
	plane := image.NewGray(image.Rect(0, 0, 6, 1))
	plane.Pix = []uint8{10, 76, 77, 100, 128, 200}

	m := ThresholdMask(plane, 76.5)
	want := []uint8{0, 0, 255, 255, 255, 255}
	for i, v := range want {
		if m.Pix[i] != v {
			t.Errorf("pixel %d: got %d, want %d", i, m.Pix[i], v)
		}
	}

	empty := ThresholdMask(plane, 280.5)
	for i, v := range empty.Pix {
		if v != 0 {
			t.Errorf("pixel %d set above the intensity range", i)
		}
	}
}

func TestThresholdMask_ExactAtLevel(t *testing.T) {
	// 128 is one of the grey values a weighted-luma threshold rounds down.
	plane := image.NewGray(image.Rect(0, 0, 3, 1))
	plane.Pix = []uint8{127, 128, 129}

	m := ThresholdMask(plane, 128)
	want := []uint8{0, 255, 255}
	for i, v := range want {
		if m.Pix[i] != v {
			t.Errorf("pixel %d (%d): got %d, want %d", i, plane.Pix[i], m.Pix[i], v)
		}
	}
}

func TestMask_Coverage(t *testing.T) {
	plane := image.NewGray(image.Rect(0, 0, 4, 2))
	plane.Pix = []uint8{0, 255, 255, 0, 0, 0, 0, 255}
	m := Mask{Image: plane}
	if got := m.Coverage(); got != 3.0/8 {
		t.Errorf("Coverage() = %v, want %v", got, 3.0/8)
	}

	sub := Mask{Image: plane.SubImage(image.Rect(1, 0, 3, 1)).(*image.Gray)}
	if got := sub.Coverage(); got != 1 {
		t.Errorf("sub-image Coverage() = %v, want 1", got)
	}

	if got := (Mask{Image: image.NewGray(image.Rectangle{})}).Coverage(); got != 0 {
		t.Errorf("empty Coverage() = %v, want 0", got)
	}
}

func TestEdgeMask_Dilates(t *testing.T) {
	plane := squareGray(80, image.Rect(20, 20, 60, 60))
	cfg := DefaultMaskConfig()

	cfg.DilateRadius = 0
	thin, err := EdgeMask(plane, cfg)
	if err != nil {
		t.Fatalf("EdgeMask failed: %v", err)
	}
	cfg.DilateRadius = 1
	thick, err := EdgeMask(plane, cfg)
	if err != nil {
		t.Fatalf("EdgeMask failed: %v", err)
	}

	count := func(g *image.Gray) int {
		n := 0
		for _, v := range g.Pix {
			if v != 0 {
				n++
			}
		}
		return n
	}
	if count(thick) <= count(thin) {
		t.Errorf("dilated mask has %d pixels, undilated %d", count(thick), count(thin))
	}
	for i, v := range thin.Pix {
		if v != 0 && thick.Pix[i] == 0 {
			t.Fatalf("dilation removed edge pixel %d", i)
		}
	}
}

func TestGenerateMasks_Order(t *testing.T) {
	img := redSquareImage(64, image.Rect(16, 16, 48, 48))
	cfg := DefaultMaskConfig()
	cfg.Smooth = false

	masks, err := GenerateMasks(context.Background(), img, cfg)
	if err != nil {
		t.Fatalf("GenerateMasks failed: %v", err)
	}
	if len(masks) != 30 {
		t.Fatalf("got %d masks, want 30", len(masks))
	}

	if masks[0].Channel != ChannelBlue || masks[0].Kind != MaskEdges || masks[0].Name() != "blue/edges" {
		t.Errorf("first mask = %+v", masks[0])
	}
	if masks[1].Kind != MaskThreshold || masks[1].Level != 1 || masks[1].Threshold != 51 {
		t.Errorf("second mask = %+v", masks[1])
	}
	if masks[29].Channel != ChannelRed || masks[29].Level != 9 || masks[29].Name() != "red/level-9" {
		t.Errorf("last mask = %+v", masks[29])
	}

	// The red square survives every red threshold.
	for _, m := range masks[21:] {
		if m.Image.GrayAt(32, 32).Y == 0 {
			t.Errorf("%s: square centre not set", m.Name())
		}
		if m.Image.GrayAt(4, 4).Y != 0 {
			t.Errorf("%s: background set", m.Name())
		}
	}
	// And never appears in the blue thresholds.
	for _, m := range masks[1:10] {
		if m.Image.GrayAt(32, 32).Y != 0 {
			t.Errorf("%s: square centre set", m.Name())
		}
	}
}

func TestEachMask_StopsOnError(t *testing.T) {
	img := redSquareImage(32, image.Rect(8, 8, 24, 24))
	stop := errors.New("stop")
	calls := 0
	err := EachMask(context.Background(), img, DefaultMaskConfig(), func(Mask) error {
		calls++
		if calls == 3 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Errorf("got %v, want stop error", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestEachMask_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := EachMask(ctx, redSquareImage(16, image.Rect(4, 4, 12, 12)), DefaultMaskConfig(), func(Mask) error {
		t.Error("fn called after cancellation")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestPyramidSmooth_KeepsSize(t *testing.T) {
	for _, size := range [][2]int{{64, 48}, {33, 17}, {1, 5}} {
		img := solidImage(size[0], size[1], color.White)
		out := PyramidSmooth(img)
		if out.Bounds().Dx() != size[0] || out.Bounds().Dy() != size[1] {
			t.Errorf("%v: got %v", size, out.Bounds())
		}
	}
}
