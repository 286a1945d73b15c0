package detection

import (
	"fmt"
	"image"
	"strings"

	"github.com/ironsheep/shape-finder-mcp/internal/contour"
	"github.com/ironsheep/shape-finder-mcp/internal/geometry"
)

// Toolkit supplies contour extraction and the polygon primitives the
// classifier relies on.
type Toolkit interface {
	Name() string
	// ExtractContours traces every border in a binary mask.
	ExtractContours(mask *image.Gray) ([]geometry.Contour, error)
	// ApproximatePolygon simplifies a closed contour so that no point lies
	// farther than epsilon from the result.
	ApproximatePolygon(c geometry.Contour, epsilon float64) geometry.Contour
	Perimeter(c geometry.Contour) float64
	Area(c geometry.Contour) float64
	FitEllipse(c geometry.Contour) (geometry.Ellipse, error)
}

// Backend names accepted by NewToolkit.
const (
	BackendNative = "native"
	BackendOpenCV = "opencv"
)

// NewToolkit returns the toolkit for backend. An empty name selects the
// native toolkit.
func NewToolkit(backend string) (Toolkit, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendNative:
		return contour.NewNative(), nil
	case BackendOpenCV:
		tk, err := contour.NewOpenCV()
		if err != nil {
			return nil, err
		}
		return tk, nil
	}
	return nil, fmt.Errorf("unknown toolkit backend %q (want %s or %s)", backend, BackendNative, BackendOpenCV)
}
