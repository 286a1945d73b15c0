package imaging

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
)

// namedRegions maps region names to rectangles for a w x h image.
var namedRegions = map[string]func(w, h int) image.Rectangle{
	"full":         func(w, h int) image.Rectangle { return image.Rect(0, 0, w, h) },
	"top-left":     func(w, h int) image.Rectangle { return image.Rect(0, 0, w/2, h/2) },
	"top-right":    func(w, h int) image.Rectangle { return image.Rect(w/2, 0, w, h/2) },
	"bottom-left":  func(w, h int) image.Rectangle { return image.Rect(0, h/2, w/2, h) },
	"bottom-right": func(w, h int) image.Rectangle { return image.Rect(w/2, h/2, w, h) },
	"top-half":     func(w, h int) image.Rectangle { return image.Rect(0, 0, w, h/2) },
	"bottom-half":  func(w, h int) image.Rectangle { return image.Rect(0, h/2, w, h) },
	"left-half":    func(w, h int) image.Rectangle { return image.Rect(0, 0, w/2, h) },
	"right-half":   func(w, h int) image.Rectangle { return image.Rect(w/2, 0, w, h) },
	"center":       func(w, h int) image.Rectangle { return image.Rect(w/4, h/4, w-w/4, h-h/4) },
}

// ParseROI resolves a region of interest against bounds. expr is either a
// region name ("top-left", "center", ...) or "x1,y1,x2,y2" in image
// coordinates with the max corner exclusive. An empty expr selects the
// whole image.
func ParseROI(expr string, bounds image.Rectangle) (image.Rectangle, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return bounds, nil
	}

	if f, ok := namedRegions[strings.ToLower(expr)]; ok {
		return f(bounds.Dx(), bounds.Dy()).Add(bounds.Min), nil
	}

	parts := strings.Split(expr, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("invalid region %q: want a region name or x1,y1,x2,y2", expr)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("invalid region %q: %w", expr, err)
		}
		v[i] = n
	}
	r := image.Rect(v[0], v[1], v[2], v[3])
	if err := checkRegion(r, bounds); err != nil {
		return image.Rectangle{}, err
	}
	return r, nil
}

func checkRegion(r, bounds image.Rectangle) error {
	if r.Empty() {
		return fmt.Errorf("region %v is empty", r)
	}
	if !r.In(bounds) {
		return fmt.Errorf("region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			r.Min.X, r.Min.Y, r.Max.X, r.Max.Y, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	return nil
}

// CropROI copies region r out of img. The result has its origin at (0, 0);
// add r.Min to map coordinates back to img.
func CropROI(img image.Image, r image.Rectangle) (*image.NRGBA, error) {
	if err := checkRegion(r, img.Bounds()); err != nil {
		return nil, err
	}
	return imaging.Crop(img, r), nil
}
