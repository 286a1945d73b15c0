package imaging

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Overlay is one outlined polygon with an optional label.
type Overlay struct {
	Polygon []image.Point
	Label   string
	// Anchor is where the label is centred.
	Anchor image.Point
	Color  color.RGBA
}

// AnnotateOptions controls overlay rendering.
type AnnotateOptions struct {
	// Thickness is the outline width in pixels. Values below 1 draw 1.
	Thickness int
	// Labels enables text labels.
	Labels bool
	// LabelColor and LabelBackground style the label box.
	LabelColor      color.RGBA
	LabelBackground color.RGBA
}

// DefaultAnnotateOptions returns 2 pixel outlines with white on black labels.
func DefaultAnnotateOptions() AnnotateOptions {
	return AnnotateOptions{
		Thickness:       2,
		Labels:          true,
		LabelColor:      color.RGBA{255, 255, 255, 255},
		LabelBackground: color.RGBA{0, 0, 0, 180},
	}
}

// Annotate draws overlays on a copy of img and returns the copy.
//
// Each polygon is drawn closed with square pens of opts.Thickness pixels.
// When opts.Labels is set, the label text is drawn in basicfont 7x13 on a
// background box centred on the overlay's Anchor. Parts outside img's
// bounds are clipped. img itself is never modified.
func Annotate(img image.Image, overlays []Overlay, opts AnnotateOptions) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)

	thickness := max(opts.Thickness, 1)
	for _, o := range overlays {
		n := len(o.Polygon)
		switch n {
		case 0:
			continue
		case 1:
			drawDot(out, o.Polygon[0], thickness, o.Color)
		default:
			for i := 0; i < n; i++ {
				drawLine(out, o.Polygon[i], o.Polygon[(i+1)%n], thickness, o.Color)
			}
		}
	}

	if opts.Labels {
		for _, o := range overlays {
			if o.Label != "" {
				drawLabel(out, o.Anchor, o.Label, opts.LabelColor, opts.LabelBackground)
			}
		}
	}
	return out
}

// drawLine rasterises a segment with Bresenham's algorithm, stamping a
// square brush at every step.
func drawLine(img *image.RGBA, a, b image.Point, thickness int, c color.RGBA) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	e := dx + dy
	p := a
	for {
		drawDot(img, p, thickness, c)
		if p == b {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			p.X += sx
		}
		if e2 <= dx {
			e += dx
			p.Y += sy
		}
	}
}

func drawDot(img *image.RGBA, p image.Point, thickness int, c color.RGBA) {
	r := image.Rect(p.X-(thickness-1)/2, p.Y-(thickness-1)/2, p.X+thickness/2+1, p.Y+thickness/2+1)
	draw.Draw(img, r.Intersect(img.Bounds()), &image.Uniform{C: c}, image.Point{}, draw.Over)
}

// drawLabel renders text centred on anchor over a filled box.
func drawLabel(img *image.RGBA, anchor image.Point, text string, fg, bg color.RGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: &image.Uniform{C: fg}, Face: face}

	width := d.MeasureString(text).Ceil()
	height := face.Metrics().Height.Ceil()
	box := image.Rect(anchor.X-width/2-2, anchor.Y-height/2-1, anchor.X+width/2+3, anchor.Y+height/2+2)
	draw.Draw(img, box.Intersect(img.Bounds()), &image.Uniform{C: bg}, image.Point{}, draw.Over)

	d.Dot = fixed.P(anchor.X-width/2, anchor.Y-height/2+face.Metrics().Ascent.Ceil())
	d.DrawString(text)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
