package contour

import (
	"image"

	"github.com/ironsheep/shape-finder-mcp/internal/geometry"
)

var (
	neighbours4 = []image.Point{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	neighbours8 = []image.Point{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

// mooreRing lists the eight neighbours clockwise on screen, starting west.
var mooreRing = [8]image.Point{
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
}

// grid is a binarised copy of a mask with origin at (0, 0).
type grid struct {
	w, h   int
	origin image.Point
	fg     []bool
}

func newGrid(mask *image.Gray) *grid {
	b := mask.Bounds()
	g := &grid{w: b.Dx(), h: b.Dy(), origin: b.Min}
	g.fg = make([]bool, g.w*g.h)
	for y := 0; y < g.h; y++ {
		row := mask.Pix[y*mask.Stride : y*mask.Stride+g.w]
		for x, v := range row {
			g.fg[y*g.w+x] = v != 0
		}
	}
	return g
}

func (g *grid) toContour(pts []image.Point) geometry.Contour {
	c := make(geometry.Contour, len(pts))
	for i, p := range pts {
		c[i] = geometry.FromImagePoint(p.Add(g.origin))
	}
	return c
}

type component struct {
	label       int
	start       image.Point
	touchesEdge bool
}

type labeling struct {
	labels     []int
	components []component
}

// label assigns a positive label to every connected region of pixels whose
// foreground flag equals value. Labels are issued in raster order, so each
// component's start is its topmost, leftmost pixel.
func (g *grid) label(value bool, conn []image.Point) labeling {
	res := labeling{labels: make([]int, g.w*g.h)}
	var stack []image.Point

	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			idx := y*g.w + x
			if g.fg[idx] != value || res.labels[idx] != 0 {
				continue
			}

			comp := component{label: len(res.components) + 1, start: image.Pt(x, y)}
			res.labels[idx] = comp.label
			stack = append(stack[:0], image.Pt(x, y))

			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if p.X == 0 || p.Y == 0 || p.X == g.w-1 || p.Y == g.h-1 {
					comp.touchesEdge = true
				}
				for _, d := range conn {
					q := p.Add(d)
					if q.X < 0 || q.Y < 0 || q.X >= g.w || q.Y >= g.h {
						continue
					}
					qi := q.Y*g.w + q.X
					if g.fg[qi] == value && res.labels[qi] == 0 {
						res.labels[qi] = comp.label
						stack = append(stack, q)
					}
				}
			}
			res.components = append(res.components, comp)
		}
	}
	return res
}

// traceBorder walks the outer border of the component with the given label
// using Moore neighbour tracing. start must be the component's topmost,
// leftmost pixel, so its west neighbour is known to lie outside.
func traceBorder(w, h int, labels []int, label int, start image.Point) []image.Point {
	inside := func(p image.Point) bool {
		return p.X >= 0 && p.Y >= 0 && p.X < w && p.Y < h && labels[p.Y*w+p.X] == label
	}

	pts := []image.Point{start}
	cur, back := start, 0
	// Each border pixel is entered at most once from each of its 8 neighbours.
	for steps := 8 * w * h; steps > 0; steps-- {
		next, nextBack, ok := mooreStep(inside, cur, back)
		if !ok {
			break
		}
		if cur == start && len(pts) > 1 && next == pts[1] {
			break
		}
		pts = append(pts, next)
		cur, back = next, nextBack
	}

	if len(pts) > 1 && pts[len(pts)-1] == start {
		pts = pts[:len(pts)-1]
	}
	return pts
}

// mooreStep scans the ring around cur clockwise, beginning just after the
// backtrack direction, and returns the first inside pixel together with the
// direction from it to the last outside pixel examined.
func mooreStep(inside func(image.Point) bool, cur image.Point, back int) (image.Point, int, bool) {
	for k := 1; k <= 8; k++ {
		i := (back + k) % 8
		next := cur.Add(mooreRing[i])
		if inside(next) {
			prev := cur.Add(mooreRing[(back+k-1)%8])
			return next, ringIndex(prev.Sub(next)), true
		}
	}
	return cur, back, false
}

func ringIndex(d image.Point) int {
	for i, r := range mooreRing {
		if r == d {
			return i
		}
	}
	return 0
}

// compressChain keeps only the pixels where the chain changes direction.
// The chain is treated as closed.
func compressChain(pts []image.Point) []image.Point {
	n := len(pts)
	if n < 3 {
		return pts
	}
	out := make([]image.Point, 0, n)
	for i := 0; i < n; i++ {
		in := pts[i].Sub(pts[(i+n-1)%n])
		next := pts[(i+1)%n].Sub(pts[i])
		if in != next {
			out = append(out, pts[i])
		}
	}
	if len(out) == 0 {
		return pts[:1]
	}
	return out
}
