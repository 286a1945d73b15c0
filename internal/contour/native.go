package contour

import (
	"image"

	"github.com/ironsheep/shape-finder-mcp/internal/geometry"
)

// Native is the pure Go toolkit.
type Native struct {
	// Holes enables tracing of enclosed background regions in addition to
	// outer borders.
	Holes bool
}

// NewNative returns a Native toolkit that traces outer borders and holes.
func NewNative() *Native {
	return &Native{Holes: true}
}

// Name identifies the toolkit in logs and results.
func (n *Native) Name() string { return "native" }

// ExtractContours returns every border found in mask. Non-zero pixels are
// foreground. Outer borders come first in raster order of their topmost,
// leftmost pixel, followed by hole borders in the same order. Coordinates
// are in the mask's own coordinate space.
//
// # Algorithm
//
//  1. Labelling: 8-connected foreground components, then (with Holes)
//     4-connected background components that do not touch the image edge
//  2. Tracing: Moore neighbour tracing around each component from its
//     first pixel in raster order
//  3. Compression: straight horizontal, vertical and diagonal runs keep
//     only their end points
//
// The result is a flat list with no nesting information.
func (n *Native) ExtractContours(mask *image.Gray) ([]geometry.Contour, error) {
	g := newGrid(mask)
	if g.w == 0 || g.h == 0 {
		return nil, nil
	}

	var out []geometry.Contour
	fg := g.label(true, neighbours8)
	for _, comp := range fg.components {
		pts := traceBorder(g.w, g.h, fg.labels, comp.label, comp.start)
		out = append(out, g.toContour(compressChain(pts)))
	}

	if n.Holes {
		bg := g.label(false, neighbours4)
		for _, comp := range bg.components {
			if comp.touchesEdge {
				continue
			}
			pts := traceBorder(g.w, g.h, bg.labels, comp.label, comp.start)
			out = append(out, g.toContour(compressChain(pts)))
		}
	}
	return out, nil
}

// ApproximatePolygon simplifies c with closed Douglas-Peucker.
func (n *Native) ApproximatePolygon(c geometry.Contour, epsilon float64) geometry.Contour {
	return geometry.Simplify(c, epsilon)
}

// Perimeter returns the closed arc length of c.
func (n *Native) Perimeter(c geometry.Contour) float64 {
	return geometry.Perimeter(c, true)
}

// Area returns the unsigned shoelace area of c.
func (n *Native) Area(c geometry.Contour) float64 {
	return geometry.Area(c)
}

// FitEllipse fits a least-squares ellipse to c.
func (n *Native) FitEllipse(c geometry.Contour) (geometry.Ellipse, error) {
	return geometry.FitEllipse(c)
}
