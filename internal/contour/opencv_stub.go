//go:build !gocv

package contour

import (
	"image"

	"github.com/ironsheep/shape-finder-mcp/internal/geometry"
)

// OpenCV is a placeholder when gocv is not compiled in. Every method fails
// or returns a zero value.
type OpenCV struct{}

// NewOpenCV always returns ErrOpenCVUnavailable in this build.
func NewOpenCV() (*OpenCV, error) {
	return nil, ErrOpenCVUnavailable
}

func (o *OpenCV) Name() string { return "opencv" }

func (o *OpenCV) ExtractContours(*image.Gray) ([]geometry.Contour, error) {
	return nil, ErrOpenCVUnavailable
}

func (o *OpenCV) ApproximatePolygon(c geometry.Contour, _ float64) geometry.Contour {
	return c.Clone()
}

func (o *OpenCV) Perimeter(geometry.Contour) float64 { return 0 }

func (o *OpenCV) Area(geometry.Contour) float64 { return 0 }

func (o *OpenCV) FitEllipse(geometry.Contour) (geometry.Ellipse, error) {
	return geometry.Ellipse{}, ErrOpenCVUnavailable
}
