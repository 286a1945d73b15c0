// Package geometry provides the 2D primitives used by shape classification.
//
// Contours produced by the contour tracers are ordered, implicitly closed
// sequences of points: the last point connects back to the first. Every
// function in this package that treats a Contour as a polygon follows that
// convention, so callers never repeat the first point at the end.
//
// # Coordinate System
//
// Points use image coordinates: X grows rightward and Y grows downward. The
// sign of SignedArea therefore flips relative to a y-up plane; callers that
// only need magnitudes should use Area.
//
// # Numeric Safety
//
// Angle clamps its law-of-cosines argument to [-1, 1] before calling
// math.Acos, so rounding can never produce NaN. Inputs that do not define an
// angle (coincident or collinear points) return ErrDegenerateGeometry instead.
//
// # Ellipse Fitting
//
// FitEllipse performs a direct least-squares conic fit constrained to
// ellipses (Halíř & Flusser's numerically stable form of Fitzgibbon's method)
// using gonum for the eigen decomposition. Failures are reported as
// ErrEllipseFit.
package geometry
