package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestParseROI(t *testing.T) {
	bounds := image.Rect(0, 0, 200, 100)
	tests := []struct {
		expr    string
		want    image.Rectangle
		wantErr bool
	}{
		{"", bounds, false},
		{"full", bounds, false},
		{"top-left", image.Rect(0, 0, 100, 50), false},
		{"Bottom-Right", image.Rect(100, 50, 200, 100), false},
		{"center", image.Rect(50, 25, 150, 75), false},
		{"left-half", image.Rect(0, 0, 100, 100), false},
		{"10, 20, 110, 70", image.Rect(10, 20, 110, 70), false},
		{"0,0,201,10", image.Rectangle{}, true},
		{"50,50,50,60", image.Rectangle{}, true},
		{"1,2,3", image.Rectangle{}, true},
		{"a,b,c,d", image.Rectangle{}, true},
		{"middle", image.Rectangle{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ParseROI(tt.expr, bounds)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseROI(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseROI(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestParseROI_OffsetBounds(t *testing.T) {
	got, err := ParseROI("top-left", image.Rect(10, 10, 50, 30))
	if err != nil {
		t.Fatalf("ParseROI failed: %v", err)
	}
	if want := image.Rect(10, 10, 30, 20); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCropROI(t *testing.T) {
	img := solidImage(100, 100, color.RGBA{0, 0, 0, 255})
	img.Set(30, 40, color.RGBA{255, 255, 255, 255})

	out, err := CropROI(img, image.Rect(20, 30, 60, 50))
	if err != nil {
		t.Fatalf("CropROI failed: %v", err)
	}
	if out.Bounds() != image.Rect(0, 0, 40, 20) {
		t.Errorf("bounds = %v, want (0,0)-(40,20)", out.Bounds())
	}
	if r, _, _, _ := out.At(10, 10).RGBA(); r>>8 != 255 {
		t.Error("pixel (30,40) did not land at (10,10) in the crop")
	}

	if _, err := CropROI(img, image.Rect(90, 90, 110, 110)); err == nil {
		t.Error("expected error for region outside the image")
	}
}
