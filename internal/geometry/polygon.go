package geometry

import "math"

// convexityEpsilon is the tolerance for cross product comparisons.
// Values below it are treated as zero (collinear edges).
const convexityEpsilon = 1e-9

// SignedArea returns the shoelace area of the closed polygon c. The sign
// encodes the winding direction.
func SignedArea(c Contour) float64 {
	n := len(c)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		p := c[i]
		q := c[(i+1)%n]
		sum += p.X*q.Y - q.X*p.Y
	}
	return sum / 2
}

// Area returns the absolute area of the closed polygon c.
func Area(c Contour) float64 {
	return math.Abs(SignedArea(c))
}

// Perimeter returns the length of c. When closed is true the segment from
// the last point back to the first is included.
func Perimeter(c Contour, closed bool) float64 {
	n := len(c)
	if n < 2 {
		return 0
	}
	var total float64
	for i := 1; i < n; i++ {
		total += Distance(c[i-1], c[i])
	}
	if closed {
		total += Distance(c[n-1], c[0])
	}
	return total
}

// IsConvex reports whether the closed polygon c is convex.
//
// Every pair of consecutive edges must turn in the same direction. Collinear
// edges are permitted; a polygon with fewer than 3 points or with no turns at
// all is not convex.
func IsConvex(c Contour) bool {
	n := len(c)
	if n < 3 {
		return false
	}

	var positive, negative int
	for i := 0; i < n; i++ {
		z := cross(c[i], c[(i+1)%n], c[(i+2)%n])
		switch {
		case z > convexityEpsilon:
			positive++
		case z < -convexityEpsilon:
			negative++
		}
		if positive > 0 && negative > 0 {
			return false
		}
	}
	return positive > 0 || negative > 0
}

// Centroid returns the area centroid of the closed polygon c. Polygons with
// zero area fall back to the mean of their points.
func Centroid(c Contour) Point {
	if len(c) == 0 {
		return Point{}
	}
	a := SignedArea(c)
	if math.Abs(a) < convexityEpsilon {
		var sx, sy float64
		for _, p := range c {
			sx += p.X
			sy += p.Y
		}
		return Point{X: sx / float64(len(c)), Y: sy / float64(len(c))}
	}

	var cx, cy float64
	n := len(c)
	for i := 0; i < n; i++ {
		p := c[i]
		q := c[(i+1)%n]
		f := p.X*q.Y - q.X*p.Y
		cx += (p.X + q.X) * f
		cy += (p.Y + q.Y) * f
	}
	return Point{X: cx / (6 * a), Y: cy / (6 * a)}
}

// Simplify approximates the closed contour c with fewer vertices using the
// Douglas–Peucker algorithm.
//
// # Algorithm
//
// The contour is split at a near-diameter pair of points, found by
// hopping to the farthest point a few times starting from c[0]. Each half is
// simplified independently. A final pass then repeatedly removes the kept
// vertex closest to the chord joining its neighbours while that distance
// is at most epsilon, which drops split points that ended up in the
// middle of a straight edge.
//
// Vertices keep their order in c. Inputs of three points or fewer, and a
// non-positive epsilon, are returned as a copy.
//
// # Limitations
//
// The final pass may leave source points slightly farther than epsilon
// from the result, bounded by the sum of the removed vertex distances.
func Simplify(c Contour, epsilon float64) Contour {
	n := len(c)
	if n <= 3 || epsilon <= 0 {
		return c.Clone()
	}

	a, b := 0, farthestFrom(c, 0)
	for range 2 {
		next := farthestFrom(c, b)
		if next == a {
			break
		}
		a, b = b, next
	}
	if Distance(c[a], c[b]) == 0 {
		return Contour{c[0]}
	}

	// Open chain starting at a and closing back on it.
	chain := make(Contour, n+1)
	for i := range chain {
		chain[i] = c[(a+i)%n]
	}
	split := (b - a + n) % n
	keep := make([]bool, n+1)
	keep[0], keep[split], keep[n] = true, true, true
	simplifyChain(chain, 0, split, epsilon, keep)
	simplifyChain(chain, split, n, epsilon, keep)

	kept := make([]bool, n)
	for i := 0; i < n; i++ {
		if keep[i] {
			kept[(a+i)%n] = true
		}
	}
	out := make(Contour, 0, n)
	for i, k := range kept {
		if k {
			out = append(out, c[i])
		}
	}
	return dropNearChord(out, epsilon)
}

// farthestFrom returns the index of the point of c farthest from c[i].
func farthestFrom(c Contour, i int) int {
	far, best := i, -1.0
	for j := range c {
		if d := Distance(c[i], c[j]); d > best {
			far, best = j, d
		}
	}
	return far
}

// dropNearChord removes, one at a time, the vertex nearest the chord
// between its neighbours until every remaining vertex is farther than
// epsilon from it. At least three vertices are kept.
func dropNearChord(poly Contour, epsilon float64) Contour {
	for len(poly) > 3 {
		n := len(poly)
		idx, best := -1, epsilon
		for i := range poly {
			d := segmentDistance(poly[i], poly[(i+n-1)%n], poly[(i+1)%n])
			if d <= best {
				idx, best = i, d
			}
		}
		if idx < 0 {
			break
		}
		poly = append(poly[:idx], poly[idx+1:]...)
	}
	return poly
}

func simplifyChain(pts Contour, start, end int, eps float64, keep []bool) {
	if end <= start+1 {
		return
	}
	maxDist := -1.0
	index := -1
	for i := start + 1; i < end; i++ {
		if d := segmentDistance(pts[i], pts[start], pts[end]); d > maxDist {
			maxDist, index = d, i
		}
	}
	if maxDist > eps {
		keep[index] = true
		simplifyChain(pts, start, index, eps, keep)
		simplifyChain(pts, index, end, eps, keep)
	}
}

// segmentDistance returns the distance from p to the line through a and b,
// or to a when a and b coincide.
func segmentDistance(p, a, b Point) float64 {
	vx, vy := b.X-a.X, b.Y-a.Y
	if vx == 0 && vy == 0 {
		return Distance(p, a)
	}
	return math.Abs((p.X-a.X)*vy-(p.Y-a.Y)*vx) / math.Hypot(vx, vy)
}
