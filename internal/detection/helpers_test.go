package detection

import (
	"errors"
	"image"
	"math"
	"sync"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ironsheep/shape-finder-mcp/internal/contour"
	"github.com/ironsheep/shape-finder-mcp/internal/geometry"
)

// regularPolygon returns n vertices on a circle of radius r around (cx, cy),
// starting at the top.
func regularPolygon(n int, cx, cy, r float64) geometry.Contour {
	c := make(geometry.Contour, n)
	for i := 0; i < n; i++ {
		t := -math.Pi/2 + 2*math.Pi*float64(i)/float64(n)
		c[i] = geometry.Pt(cx+r*math.Cos(t), cy+r*math.Sin(t))
	}
	return c
}

// sampledEllipse returns n points on an ellipse with semi-axes a and b
// rotated by theta.
func sampledEllipse(n int, cx, cy, a, b, theta float64) geometry.Contour {
	c := make(geometry.Contour, n)
	cs, sn := math.Cos(theta), math.Sin(theta)
	for i := 0; i < n; i++ {
		t := 2 * math.Pi * float64(i) / float64(n)
		u, v := a*math.Cos(t), b*math.Sin(t)
		c[i] = geometry.Pt(cx+u*cs-v*sn, cy+u*sn+v*cs)
	}
	return c
}

// fillPolygon sets every pixel whose centre lies inside the convex polygon
// poly.
func fillPolygon(m *image.Gray, poly geometry.Contour) {
	b := poly.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if insideConvex(poly, geometry.Pt(float64(x), float64(y))) {
				m.Pix[m.PixOffset(x, y)] = 255
			}
		}
	}
}

func insideConvex(poly geometry.Contour, p geometry.Point) bool {
	var pos, neg bool
	n := len(poly)
	for i := 0; i < n; i++ {
		a, b := poly[i], poly[(i+1)%n]
		z := (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
		if z > 0 {
			pos = true
		} else if z < 0 {
			neg = true
		}
	}
	return !(pos && neg)
}

func fillDisc(m *image.Gray, cx, cy, r int) {
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			if (x-cx)*(x-cx)+(y-cy)*(y-cy) <= r*r {
				m.Pix[m.PixOffset(x, y)] = 255
			}
		}
	}
}

// countingRecorder tallies outcomes.
type countingRecorder struct {
	mu         sync.Mutex
	classified map[Shape]int
	rejected   map[Reason]int
	masks      int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{classified: map[Shape]int{}, rejected: map[Reason]int{}}
}

func (r *countingRecorder) Classified(s Shape) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classified[s]++
}

func (r *countingRecorder) Rejected(reason Reason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected[reason]++
}

func (r *countingRecorder) MaskScanned(MaskInfo, int, int, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.masks++
}

// stubToolkit wraps the native toolkit and overrides ellipse fitting.
type stubToolkit struct {
	*contour.Native
	fit func(geometry.Contour) (geometry.Ellipse, error)
}

func (s stubToolkit) FitEllipse(c geometry.Contour) (geometry.Ellipse, error) {
	return s.fit(c)
}

var errToolkitBroken = errors.New("toolkit broken")

func newTestClassifier(t require.TestingT, opts ...Option) *Classifier {
	c, err := NewClassifier(DefaultConfig(), contour.NewNative(), opts...)
	require.NoError(t, err)
	return c
}
