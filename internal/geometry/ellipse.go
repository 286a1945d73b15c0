package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrEllipseFit is returned when no ellipse can be fitted to a point set.
var ErrEllipseFit = errors.New("ellipse fit failed")

// minEllipsePoints is the smallest point set that determines a conic.
const minEllipsePoints = 5

// Ellipse is a rotated ellipse. Width and Height are full axis lengths;
// Angle is the rotation of the Width axis from +X, in radians.
type Ellipse struct {
	Center Point   `json:"center" yaml:"center"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
	Angle  float64 `json:"angle" yaml:"angle"`
}

// Eval returns the normalized ellipse equation value at p:
//
//	((Δx·cosθ + Δy·sinθ)² / a²) + ((Δx·sinθ − Δy·cosθ)² / b²)
//
// where Δ is p's offset from the centre, a = Width/2 and b = Height/2.
// Points on the boundary evaluate to 1.
func (e Ellipse) Eval(p Point) float64 {
	a := e.Width / 2
	b := e.Height / 2
	dx := p.X - e.Center.X
	dy := p.Y - e.Center.Y
	cs, sn := math.Cos(e.Angle), math.Sin(e.Angle)
	u := dx*cs + dy*sn
	v := dx*sn - dy*cs
	return u*u/(a*a) + v*v/(b*b)
}

// FitEllipse fits an ellipse to pts in the least-squares sense.
//
// Parameters:
//   - pts: At least five distinct, non-collinear points. Order does not
//     matter.
//
// Returns:
//   - Ellipse: Centre, full axis lengths and rotation in pixel space.
//   - error: Wraps ErrEllipseFit when pts is too small, degenerate, or
//     best described by a hyperbola or parabola.
//
// # Algorithm
//
// Direct least squares (Fitzgibbon, Pilu and Fisher), in the numerically
// stable form of Halíř and Flusser:
//
//  1. Normalisation: centre the points and scale them to unit RMS radius
//  2. Scatter: build the quadratic and linear blocks of the design matrix
//     scatter, S1, S2 and S3
//  3. Reduction: solve for the linear terms, leaving a 3x3 eigenproblem
//     constrained by 4ac - b² > 0
//  4. Selection: take the eigenvector that satisfies the constraint
//  5. Geometry: convert the conic coefficients to centre, axes and angle,
//     then undo the normalisation
//
// # Limitations
//
//   - Arcs covering a small part of an ellipse fit poorly
//   - Exactly collinear input returns an error rather than a flat ellipse
func FitEllipse(pts Contour) (Ellipse, error) {
	n := len(pts)
	if n < minEllipsePoints {
		return Ellipse{}, fmt.Errorf("%d points, need %d: %w", n, minEllipsePoints, ErrEllipseFit)
	}

	var mx, my float64
	for _, p := range pts {
		mx += p.X
		my += p.Y
	}
	mx /= float64(n)
	my /= float64(n)

	var spread float64
	for _, p := range pts {
		spread += (p.X-mx)*(p.X-mx) + (p.Y-my)*(p.Y-my)
	}
	scale := math.Sqrt(spread / float64(n))
	if scale == 0 {
		return Ellipse{}, fmt.Errorf("coincident points: %w", ErrEllipseFit)
	}

	d1 := mat.NewDense(n, 3, nil)
	d2 := mat.NewDense(n, 3, nil)
	for i, p := range pts {
		x := (p.X - mx) / scale
		y := (p.Y - my) / scale
		d1.SetRow(i, []float64{x * x, x * y, y * y})
		d2.SetRow(i, []float64{x, y, 1})
	}

	conic, err := fitConic(d1, d2)
	if err != nil {
		return Ellipse{}, err
	}
	e, err := conicToEllipse(conic)
	if err != nil {
		return Ellipse{}, err
	}

	e.Center = Point{X: e.Center.X*scale + mx, Y: e.Center.Y*scale + my}
	e.Width *= scale
	e.Height *= scale
	return e, nil
}

// fitConic solves for the conic coefficients [A B C D E F] of
// Ax² + Bxy + Cy² + Dx + Ey + F = 0 subject to 4AC - B² = 1.
func fitConic(d1, d2 *mat.Dense) ([6]float64, error) {
	var coeffs [6]float64

	var s1, s2, s3 mat.Dense
	s1.Mul(d1.T(), d1)
	s2.Mul(d1.T(), d2)
	s3.Mul(d2.T(), d2)

	var s3inv mat.Dense
	if err := s3inv.Inverse(&s3); err != nil {
		return coeffs, fmt.Errorf("singular scatter matrix: %v: %w", err, ErrEllipseFit)
	}

	// T maps the quadratic coefficients to the linear ones.
	var t mat.Dense
	t.Mul(&s3inv, s2.T())
	t.Scale(-1, &t)

	var reduced mat.Dense
	reduced.Mul(&s2, &t)
	reduced.Add(&s1, &reduced)

	// Premultiply by the inverse of the 3x3 constraint block.
	c1inv := mat.NewDense(3, 3, []float64{
		0, 0, 0.5,
		0, -1, 0,
		0.5, 0, 0,
	})
	var m mat.Dense
	m.Mul(c1inv, &reduced)

	var eig mat.Eigen
	if ok := eig.Factorize(&m, mat.EigenRight); !ok {
		return coeffs, fmt.Errorf("eigen decomposition did not converge: %w", ErrEllipseFit)
	}
	var vecs mat.CDense
	eig.VectorsTo(&vecs)

	best := -1
	bestCond := 0.0
	for j := 0; j < 3; j++ {
		a := real(vecs.At(0, j))
		b := real(vecs.At(1, j))
		c := real(vecs.At(2, j))
		if cond := 4*a*c - b*b; cond > bestCond {
			best, bestCond = j, cond
		}
	}
	if best < 0 {
		return coeffs, fmt.Errorf("no elliptical solution: %w", ErrEllipseFit)
	}

	a1 := [3]float64{real(vecs.At(0, best)), real(vecs.At(1, best)), real(vecs.At(2, best))}
	coeffs[0], coeffs[1], coeffs[2] = a1[0], a1[1], a1[2]
	for i := 0; i < 3; i++ {
		coeffs[3+i] = t.At(i, 0)*a1[0] + t.At(i, 1)*a1[1] + t.At(i, 2)*a1[2]
	}
	return coeffs, nil
}

// conicToEllipse converts general conic coefficients to centre, axes and
// rotation.
func conicToEllipse(k [6]float64) (Ellipse, error) {
	a, b, c, d, e, f := k[0], k[1], k[2], k[3], k[4], k[5]

	den := b*b - 4*a*c
	if den >= 0 {
		return Ellipse{}, fmt.Errorf("conic is not an ellipse: %w", ErrEllipseFit)
	}
	x0 := (2*c*d - b*e) / den
	y0 := (2*a*e - b*d) / den
	f0 := a*x0*x0 + b*x0*y0 + c*y0*y0 + d*x0 + e*y0 + f

	theta := 0.5 * math.Atan2(b, a-c)
	cs, sn := math.Cos(theta), math.Sin(theta)
	lu := a*cs*cs + b*sn*cs + c*sn*sn
	lv := a*sn*sn - b*sn*cs + c*cs*cs

	au := -f0 / lu
	av := -f0 / lv
	if au <= 0 || av <= 0 || math.IsNaN(au) || math.IsNaN(av) {
		return Ellipse{}, fmt.Errorf("imaginary ellipse: %w", ErrEllipseFit)
	}

	return Ellipse{
		Center: Point{X: x0, Y: y0},
		Width:  2 * math.Sqrt(au),
		Height: 2 * math.Sqrt(av),
		Angle:  theta,
	}, nil
}
