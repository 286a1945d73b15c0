package contour

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/shape-finder-mcp/internal/geometry"
)

func newMask(w, h int) *image.Gray {
	return image.NewGray(image.Rect(0, 0, w, h))
}

func fillRect(m *image.Gray, r image.Rectangle, v uint8) {
	draw.Draw(m, r, &image.Uniform{C: color.Gray{Y: v}}, image.Point{}, draw.Src)
}

func fillDisc(m *image.Gray, cx, cy, r int) {
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				m.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
}

func TestNative_FilledSquare(t *testing.T) {
	m := newMask(300, 300)
	fillRect(m, image.Rect(50, 50, 250, 250), 255)

	got, err := NewNative().ExtractContours(m)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, geometry.Contour{
		geometry.Pt(50, 50), geometry.Pt(249, 50), geometry.Pt(249, 249), geometry.Pt(50, 249),
	}, got[0])
}

func TestNative_EmptyMask(t *testing.T) {
	got, err := NewNative().ExtractContours(newMask(20, 20))
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = NewNative().ExtractContours(newMask(0, 0))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNative_SinglePixel(t *testing.T) {
	m := newMask(10, 10)
	m.SetGray(4, 6, color.Gray{Y: 1})

	got, err := NewNative().ExtractContours(m)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, geometry.Contour{geometry.Pt(4, 6)}, got[0])
}

func TestNative_DiagonalPixelsAreOneComponent(t *testing.T) {
	m := newMask(10, 10)
	m.SetGray(2, 2, color.Gray{Y: 255})
	m.SetGray(3, 3, color.Gray{Y: 255})
	m.SetGray(4, 4, color.Gray{Y: 255})

	got, err := NewNative().ExtractContours(m)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Contains(t, got[0], geometry.Pt(2, 2))
	assert.Contains(t, got[0], geometry.Pt(4, 4))
}

func TestNative_RasterOrder(t *testing.T) {
	m := newMask(100, 100)
	fillRect(m, image.Rect(60, 10, 80, 30), 255)
	fillRect(m, image.Rect(10, 50, 30, 70), 255)

	got, err := NewNative().ExtractContours(m)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, geometry.Pt(60, 10), got[0][0])
	assert.Equal(t, geometry.Pt(10, 50), got[1][0])
}

func TestNative_Holes(t *testing.T) {
	m := newMask(50, 50)
	fillRect(m, image.Rect(10, 10, 40, 40), 255)
	fillRect(m, image.Rect(20, 20, 30, 30), 0)

	got, err := NewNative().ExtractContours(m)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.ElementsMatch(t, geometry.Contour{
		geometry.Pt(10, 10), geometry.Pt(39, 10), geometry.Pt(39, 39), geometry.Pt(10, 39),
	}, got[0])
	assert.ElementsMatch(t, geometry.Contour{
		geometry.Pt(20, 20), geometry.Pt(29, 20), geometry.Pt(29, 29), geometry.Pt(20, 29),
	}, got[1])

	outerOnly, err := (&Native{}).ExtractContours(m)
	require.NoError(t, err)
	assert.Len(t, outerOnly, 1)
}

func TestNative_SubImageCoordinates(t *testing.T) {
	m := newMask(100, 100)
	fillRect(m, image.Rect(40, 40, 60, 60), 255)
	sub := m.SubImage(image.Rect(30, 30, 80, 80)).(*image.Gray)

	got, err := NewNative().ExtractContours(sub)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, geometry.Pt(40, 40), got[0][0])
	assert.Equal(t, image.Rect(40, 40, 60, 60), got[0].Bounds())
}

func TestNative_DiscBorderPixels(t *testing.T) {
	m := newMask(120, 120)
	fillDisc(m, 60, 60, 40)

	got, err := NewNative().ExtractContours(m)
	require.NoError(t, err)
	require.Len(t, got, 1)

	for _, p := range got[0] {
		x, y := int(p.X), int(p.Y)
		require.NotZero(t, m.GrayAt(x, y).Y, "point %v is not foreground", p)
		onBorder := m.GrayAt(x-1, y).Y == 0 || m.GrayAt(x+1, y).Y == 0 ||
			m.GrayAt(x, y-1).Y == 0 || m.GrayAt(x, y+1).Y == 0
		assert.True(t, onBorder, "point %v is interior", p)
	}

	area := geometry.Area(got[0])
	assert.InDelta(t, math.Pi*40*40, area, 0.05*math.Pi*40*40)
	assert.True(t, geometry.IsConvex(NewNative().ApproximatePolygon(got[0], 0.02*geometry.Perimeter(got[0], true))))
}

func TestNative_RectangleAreaProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("traced rectangles span pixel centres", prop.ForAll(
		func(x, y, w, h int) bool {
			m := newMask(128, 128)
			fillRect(m, image.Rect(x, y, x+w, y+h), 255)
			got, err := NewNative().ExtractContours(m)
			if err != nil || len(got) != 1 || len(got[0]) != 4 {
				return false
			}
			return geometry.Area(got[0]) == float64((w-1)*(h-1))
		},
		gen.IntRange(0, 60),
		gen.IntRange(0, 60),
		gen.IntRange(2, 60),
		gen.IntRange(2, 60),
	))

	properties.TestingRun(t)
}

func TestNative_Primitives(t *testing.T) {
	n := NewNative()
	sq := geometry.Contour{geometry.Pt(0, 0), geometry.Pt(10, 0), geometry.Pt(10, 10), geometry.Pt(0, 10)}
	assert.Equal(t, "native", n.Name())
	assert.InDelta(t, 40, n.Perimeter(sq), 1e-12)
	assert.InDelta(t, 100, n.Area(sq), 1e-12)

	_, err := n.FitEllipse(sq)
	assert.ErrorIs(t, err, geometry.ErrEllipseFit)
}

func TestCompressChain(t *testing.T) {
	line := []image.Point{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {3, 1}, {3, 2}, {2, 2}, {1, 2}, {0, 2}, {0, 1}}
	assert.Equal(t, []image.Point{{0, 0}, {3, 0}, {3, 2}, {0, 2}}, compressChain(line))

	// A two pixel run reverses direction at both ends.
	pair := []image.Point{{5, 5}, {6, 5}}
	assert.Equal(t, pair, compressChain(pair))
}
