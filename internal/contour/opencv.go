//go:build gocv

package contour

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/ironsheep/shape-finder-mcp/internal/geometry"
)

// OpenCV delegates contour primitives to OpenCV through gocv.
type OpenCV struct{}

// NewOpenCV returns the OpenCV toolkit.
func NewOpenCV() (*OpenCV, error) {
	return &OpenCV{}, nil
}

// Name identifies the toolkit in logs and results.
func (o *OpenCV) Name() string { return "opencv" }

// ExtractContours runs cv::findContours with RETR_LIST and
// CHAIN_APPROX_SIMPLE.
func (o *OpenCV) ExtractContours(mask *image.Gray) ([]geometry.Contour, error) {
	b := mask.Bounds()
	if b.Empty() {
		return nil, nil
	}

	buf := make([]byte, 0, b.Dx()*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		buf = append(buf, mask.Pix[y*mask.Stride:y*mask.Stride+b.Dx()]...)
	}
	mat, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC1, buf)
	if err != nil {
		return nil, fmt.Errorf("failed to convert mask: %w", err)
	}
	defer mat.Close()

	found := gocv.FindContours(mat, gocv.RetrievalList, gocv.ChainApproxSimple)
	defer found.Close()

	out := make([]geometry.Contour, 0, found.Size())
	for i := 0; i < found.Size(); i++ {
		pts := found.At(i).ToPoints()
		for j := range pts {
			pts[j] = pts[j].Add(b.Min)
		}
		out = append(out, geometry.FromImagePoints(pts))
	}
	return out, nil
}

// ApproximatePolygon runs cv::approxPolyDP on the closed contour.
func (o *OpenCV) ApproximatePolygon(c geometry.Contour, epsilon float64) geometry.Contour {
	pv := gocv.NewPointVectorFromPoints(c.ImagePoints())
	defer pv.Close()
	approx := gocv.ApproxPolyDP(pv, epsilon, true)
	defer approx.Close()
	return geometry.FromImagePoints(approx.ToPoints())
}

// Perimeter runs cv::arcLength on the closed contour.
func (o *OpenCV) Perimeter(c geometry.Contour) float64 {
	pv := gocv.NewPointVectorFromPoints(c.ImagePoints())
	defer pv.Close()
	return gocv.ArcLength(pv, true)
}

// Area runs cv::contourArea.
func (o *OpenCV) Area(c geometry.Contour) float64 {
	pv := gocv.NewPointVectorFromPoints(c.ImagePoints())
	defer pv.Close()
	return gocv.ContourArea(pv)
}

// FitEllipse fits c with geometry.FitEllipse. gocv's FitEllipse binding
// returns a RotatedRect with integer centre and axes, which would truncate
// the fit that the boundary test is measured against; the direct least
// squares fit is the same method cv::fitEllipse uses.
func (o *OpenCV) FitEllipse(c geometry.Contour) (geometry.Ellipse, error) {
	return geometry.FitEllipse(c)
}
