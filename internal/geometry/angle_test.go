package geometry

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAngle_EquilateralTriangle(t *testing.T) {
	side := 37.5
	a := Pt(10, 10)
	b := Pt(10+side, 10)
	c := Pt(10+side/2, 10+side*math.Sqrt(3)/2)

	tri := []Point{a, b, c}
	for i := range tri {
		got, err := Angle(tri[(i+2)%3], tri[i], tri[(i+1)%3])
		require.NoError(t, err)
		assert.InDelta(t, math.Pi/3, got, 1e-6, "vertex %d", i)
	}
}

func TestAngle_RightAngle(t *testing.T) {
	got, err := Angle(Pt(0, 10), Pt(0, 0), Pt(10, 0))
	require.NoError(t, err)
	assert.InDelta(t, math.Pi/2, got, 1e-12)
}

func TestAngle_Degenerate(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c Point
	}{
		{"coincident a and b", Pt(1, 1), Pt(1, 1), Pt(5, 2)},
		{"coincident b and c", Pt(0, 0), Pt(3, 4), Pt(3, 4)},
		{"all coincident", Pt(2, 2), Pt(2, 2), Pt(2, 2)},
		{"collinear straight", Pt(0, 0), Pt(5, 5), Pt(10, 10)},
		{"collinear folded back", Pt(0, 0), Pt(10, 0), Pt(4, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Angle(tt.a, tt.b, tt.c)
			require.ErrorIs(t, err, ErrDegenerateGeometry)
			assert.False(t, math.IsNaN(got))
		})
	}
}

func TestAngle_NearlyStraightStaysInDomain(t *testing.T) {
	// Large coordinates with a tiny deflection push the cosine argument
	// to the edge of [-1, 1].
	got, err := Angle(Pt(-1e6, 0), Pt(0, 0), Pt(1e6, 1e-2))
	require.NoError(t, err)
	assert.False(t, math.IsNaN(got))
	assert.LessOrEqual(t, got, math.Pi)
	assert.Greater(t, got, math.Pi-1e-6)
}

func TestAngle_RangeProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("angle is in [0, pi] or degenerate", prop.ForAll(
		func(ax, ay, bx, by, cx, cy float64) bool {
			got, err := Angle(Pt(ax, ay), Pt(bx, by), Pt(cx, cy))
			if err != nil {
				return got == 0
			}
			return got >= 0 && got <= math.Pi && !math.IsNaN(got)
		},
		gen.Float64Range(-500, 500),
		gen.Float64Range(-500, 500),
		gen.Float64Range(-500, 500),
		gen.Float64Range(-500, 500),
		gen.Float64Range(-500, 500),
		gen.Float64Range(-500, 500),
	))

	properties.TestingRun(t)
}

func TestAngle_SymmetricInEndpoints(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("swapping a and c keeps the angle", prop.ForAll(
		func(ax, ay, cx, cy int) bool {
			a, b, c := Pt(float64(ax), float64(ay)), Pt(0, 0), Pt(float64(cx), float64(cy))
			x, errX := Angle(a, b, c)
			y, errY := Angle(c, b, a)
			if errX != nil || errY != nil {
				return (errX != nil) == (errY != nil)
			}
			return math.Abs(x-y) < 1e-9
		},
		gen.IntRange(-100, 100),
		gen.IntRange(-100, 100),
		gen.IntRange(-100, 100),
		gen.IntRange(-100, 100),
	))

	properties.TestingRun(t)
}
