package geometry

import (
	"errors"
	"fmt"
	"math"
)

// ErrDegenerateGeometry is returned when an angle is requested for points
// that do not define one: a zero-length edge or three collinear points.
var ErrDegenerateGeometry = errors.New("degenerate geometry")

// collinearTolerance bounds |sin(angle)| below which three points count as collinear.
const collinearTolerance = 1e-9

// Angle returns the interior angle at vertex b of the path a-b-c, in radians.
//
// The angle is computed with the law of cosines on the side lengths |AB|,
// |BC| and |AC|:
//
//	angle = acos((|AB|² + |BC|² - |AC|²) / (2·|AB|·|BC|))
//
// The cosine argument is clamped to [-1, 1] so the result always lies in
// [0, π]. Coincident or collinear points return ErrDegenerateGeometry.
func Angle(a, b, c Point) (float64, error) {
	ab := Distance(a, b)
	bc := Distance(b, c)
	if ab == 0 || bc == 0 {
		return 0, fmt.Errorf("angle at (%g, %g): zero-length edge: %w", b.X, b.Y, ErrDegenerateGeometry)
	}
	if math.Abs(cross(b, a, c)) <= collinearTolerance*ab*bc {
		return 0, fmt.Errorf("angle at (%g, %g): collinear points: %w", b.X, b.Y, ErrDegenerateGeometry)
	}

	ac := Distance(a, c)
	cosAngle := (ab*ab + bc*bc - ac*ac) / (2 * ab * bc)
	return math.Acos(clampUnit(cosAngle)), nil
}

// clampUnit restricts v to [-1, 1].
func clampUnit(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
