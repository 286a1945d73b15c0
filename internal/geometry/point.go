package geometry

import (
	"image"
	"math"
)

// Point is a 2D coordinate in pixel space.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// FromImagePoint converts an integer pixel coordinate.
func FromImagePoint(p image.Point) Point {
	return Point{X: float64(p.X), Y: float64(p.Y)}
}

// ImagePoint rounds p to the nearest pixel.
func (p Point) ImagePoint() image.Point {
	return image.Point{X: int(math.Round(p.X)), Y: int(math.Round(p.Y))}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// cross returns the z component of (a - o) x (b - o).
func cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// Contour is an ordered, implicitly closed sequence of points.
type Contour []Point

// FromImagePoints converts a traced pixel chain into a Contour.
func FromImagePoints(pts []image.Point) Contour {
	c := make(Contour, len(pts))
	for i, p := range pts {
		c[i] = FromImagePoint(p)
	}
	return c
}

// ImagePoints rounds every point of c to the nearest pixel.
func (c Contour) ImagePoints() []image.Point {
	pts := make([]image.Point, len(c))
	for i, p := range c {
		pts[i] = p.ImagePoint()
	}
	return pts
}

// Clone returns a copy of c that does not share storage.
func (c Contour) Clone() Contour {
	return append(Contour(nil), c...)
}

// Bounds returns the smallest rectangle containing every point of c,
// with Max exclusive as in image.Rectangle.
func (c Contour) Bounds() image.Rectangle {
	if len(c) == 0 {
		return image.Rectangle{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range c {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Floor(maxX))+1, int(math.Floor(maxY))+1)
}
