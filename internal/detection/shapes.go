package detection

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/shape-finder-mcp/internal/geometry"
	"github.com/ironsheep/shape-finder-mcp/internal/logger"
)

// Shape is a classification label.
type Shape string

const (
	Triangle  Shape = "triangle"
	Rectangle Shape = "rectangle"
	Pentagon  Shape = "pentagon"
	Circle    Shape = "circle"
	Ellipse   Shape = "ellipse"
)

// Shapes lists every label in a fixed order.
var Shapes = []Shape{Triangle, Rectangle, Pentagon, Circle, Ellipse}

// Result is one classified contour. Polygon is the approximated polygon for
// triangles, rectangles and pentagons, and the original contour for circles
// and ellipses.
type Result struct {
	Label   Shape            `json:"label" yaml:"label"`
	Polygon geometry.Contour `json:"polygon" yaml:"polygon"`
}

// Config holds the classification tolerances. All lengths and areas are in
// pixels of the source image.
type Config struct {
	// MinArea is the exclusive lower bound on polygon area.
	MinArea float64
	// ApproxEpsilon is the approximation tolerance as a fraction of the
	// contour's closed perimeter.
	ApproxEpsilon float64
	// RightAngleTolerance is the allowed deviation, in radians, of a
	// quadrilateral's largest corner angle from π/2.
	RightAngleTolerance float64
	// EllipseTolerance is the allowed deviation of a contour point's
	// normalized ellipse equation value from 1.
	EllipseTolerance float64
	// EllipseMinFraction is the share of contour points that must fit.
	EllipseMinFraction float64
	// CircleAxisTolerance is the largest half axis difference still
	// reported as a circle.
	CircleAxisTolerance float64
}

// DefaultConfig returns the standard tolerances.
func DefaultConfig() Config {
	return Config{
		MinArea:             100,
		ApproxEpsilon:       0.02,
		RightAngleTolerance: 0.1,
		EllipseTolerance:    0.09,
		EllipseMinFraction:  0.5,
		CircleAxisTolerance: 2,
	}
}

// Validate reports the first invalid tolerance.
func (c Config) Validate() error {
	switch {
	case c.MinArea < 0:
		return fmt.Errorf("min area must not be negative, got %v", c.MinArea)
	case c.ApproxEpsilon <= 0:
		return fmt.Errorf("approximation epsilon must be positive, got %v", c.ApproxEpsilon)
	case c.RightAngleTolerance <= 0:
		return fmt.Errorf("right angle tolerance must be positive, got %v", c.RightAngleTolerance)
	case c.EllipseTolerance <= 0:
		return fmt.Errorf("ellipse tolerance must be positive, got %v", c.EllipseTolerance)
	case c.EllipseMinFraction <= 0 || c.EllipseMinFraction > 1:
		return fmt.Errorf("ellipse min fraction must be in (0, 1], got %v", c.EllipseMinFraction)
	case c.CircleAxisTolerance < 0:
		return fmt.Errorf("circle axis tolerance must not be negative, got %v", c.CircleAxisTolerance)
	}
	return nil
}

// Reason explains why a contour produced no result.
type Reason string

const (
	ReasonTooFewPoints  Reason = "too_few_points"
	ReasonNotConvex     Reason = "not_convex"
	ReasonSmallArea     Reason = "small_area"
	ReasonDegenerate    Reason = "degenerate"
	ReasonNotRectangle  Reason = "not_right_angled"
	ReasonEllipseFit    Reason = "ellipse_fit_failed"
	ReasonPoorEllipse   Reason = "poor_ellipse_fit"
	ReasonToolkitFailed Reason = "toolkit_failed"
)

// Recorder observes classification outcomes. Implementations must be safe
// for concurrent use.
type Recorder interface {
	Classified(label Shape)
	Rejected(reason Reason)
}

type nopRecorder struct{}

func (nopRecorder) Classified(Shape) {}
func (nopRecorder) Rejected(Reason)  {}

// Classifier labels closed contours as triangles, rectangles, pentagons,
// circles or ellipses.
//
// Polygon primitives (approximation, perimeter, area and ellipse fitting)
// come from a Toolkit, so the same rules run on the native tracer and on
// OpenCV. Every outcome is reported to the Recorder: one Classified call per
// match, one Rejected call with a Reason per contour that matched nothing.
//
// A Classifier holds no mutable state and is safe for concurrent use.
type Classifier struct {
	cfg      Config
	toolkit  Toolkit
	recorder Recorder
	log      logrus.FieldLogger
}

// Option customises a Classifier.
type Option func(*Classifier)

// WithRecorder routes outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(c *Classifier) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClassifier returns a classifier using tk for polygon primitives.
func NewClassifier(cfg Config, tk Toolkit, opts ...Option) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if tk == nil {
		return nil, errors.New("toolkit is required")
	}
	c := &Classifier{cfg: cfg, toolkit: tk, recorder: nopRecorder{}, log: logger.Logger}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Toolkit returns the classifier's toolkit.
func (c *Classifier) Toolkit() Toolkit { return c.toolkit }

// Accept reports whether poly passes the convexity and area gate.
func (c *Classifier) Accept(poly geometry.Contour) bool {
	return c.gate(poly) == ""
}

func (c *Classifier) gate(poly geometry.Contour) Reason {
	switch {
	case len(poly) < 3:
		return ReasonTooFewPoints
	case !geometry.IsConvex(poly):
		return ReasonNotConvex
	case math.Abs(c.toolkit.Area(poly)) <= c.cfg.MinArea:
		return ReasonSmallArea
	}
	return ""
}

// Classify labels a single contour.
//
// Parameters:
//   - contour: Closed boundary in pixel coordinates, as produced by
//     Toolkit.ExtractContours. The closing edge is implicit.
//
// Returns:
//   - Result: The label and its polygon. Triangles, rectangles and
//     pentagons carry the approximated polygon; circles and ellipses carry
//     a copy of contour.
//   - bool: False when the contour matches no shape. The reason has been
//     passed to the Recorder.
//
// # Algorithm
//
//  1. Approximation: Douglas-Peucker with epsilon = ApproxEpsilon times the
//     closed perimeter of contour
//  2. Gate: the approximation must have at least 3 vertices, be convex and
//     enclose more than MinArea
//  3. Labelling: ClassifyPolygon on the approximation, which falls back to
//     FitsEllipse on contour for 6 or more vertices
//
// # Limitations
//
//   - Concave outlines are always rejected, so stars and arrows never match
//   - Noisy outlines of small shapes may approximate to more vertices than
//     the real shape has and end up in the ellipse fallback
func (c *Classifier) Classify(contour geometry.Contour) (Result, bool) {
	if len(contour) < 3 {
		c.reject(ReasonTooFewPoints)
		return Result{}, false
	}

	eps := c.cfg.ApproxEpsilon * c.toolkit.Perimeter(contour)
	approx := c.toolkit.ApproximatePolygon(contour, eps)
	if reason := c.gate(approx); reason != "" {
		c.reject(reason)
		return Result{}, false
	}
	return c.ClassifyPolygon(approx, contour)
}

// ClassifyPolygon labels an approximated polygon that has already passed
// the gate. original is the contour approx was derived from; it is used
// for the ellipse fallback.
//
// Vertex counts map to labels as follows:
//   - 3: triangle
//   - 4: rectangle, if the largest corner angle is within
//     RightAngleTolerance of π/2; otherwise no match
//   - 5: pentagon
//   - 6 or more: the result of FitsEllipse(original)
//
// Only the largest corner of a quadrilateral is checked, so some kites
// and trapezoids are reported as rectangles.
func (c *Classifier) ClassifyPolygon(approx, original geometry.Contour) (Result, bool) {
	switch n := len(approx); {
	case n < 3:
		c.reject(ReasonTooFewPoints)
		return Result{}, false
	case n == 3:
		return c.accept(Triangle, approx.Clone()), true
	case n == 4:
		if reason := c.rightAngled(approx); reason != "" {
			c.reject(reason)
			return Result{}, false
		}
		return c.accept(Rectangle, approx.Clone()), true
	case n == 5:
		return c.accept(Pentagon, approx.Clone()), true
	}

	label, ok := c.FitsEllipse(original)
	if !ok {
		return Result{}, false
	}
	return c.accept(label, original.Clone()), true
}

// rightAngled checks that the largest corner of quad is close to π/2.
func (c *Classifier) rightAngled(quad geometry.Contour) Reason {
	maxAngle := 0.0
	for i := range quad {
		a, err := geometry.Angle(quad[(i+3)%4], quad[i], quad[(i+1)%4])
		if err != nil {
			c.log.WithError(err).Debug("quadrilateral corner rejected")
			return ReasonDegenerate
		}
		maxAngle = math.Max(maxAngle, a)
	}
	if math.Abs(maxAngle-math.Pi/2) < c.cfg.RightAngleTolerance {
		return ""
	}
	return ReasonNotRectangle
}

// FitsEllipse fits an ellipse to contour and reports whether enough of its
// points lie on it, and if so whether it is a circle or an ellipse.
//
// # Algorithm
//
//  1. Fit: Toolkit.FitEllipse, least squares over every point of contour
//  2. Agreement: a point fits when its normalized ellipse equation value
//     (x'/a)² + (y'/b)² is within EllipseTolerance of 1
//  3. Acceptance: at least EllipseMinFraction of the points must fit
//  4. Circle test: half the difference between the full axis lengths is
//     at most CircleAxisTolerance
//
// A failed fit is rejected with ReasonEllipseFit, or ReasonToolkitFailed
// when the toolkit itself errored.
func (c *Classifier) FitsEllipse(contour geometry.Contour) (Shape, bool) {
	if len(contour) == 0 {
		c.reject(ReasonTooFewPoints)
		return "", false
	}

	e, err := c.toolkit.FitEllipse(contour)
	if err != nil {
		c.log.WithError(err).WithField("points", len(contour)).Debug("ellipse fit failed")
		if errors.Is(err, geometry.ErrEllipseFit) {
			c.recorder.Rejected(ReasonEllipseFit)
		} else {
			c.recorder.Rejected(ReasonToolkitFailed)
		}
		return "", false
	}

	fitting := 0
	for _, p := range contour {
		if math.Abs(e.Eval(p)-1) < c.cfg.EllipseTolerance {
			fitting++
		}
	}
	if float64(fitting)/float64(len(contour)) < c.cfg.EllipseMinFraction {
		c.reject(ReasonPoorEllipse)
		return "", false
	}

	if math.Abs(e.Width-e.Height)/2 <= c.cfg.CircleAxisTolerance {
		return Circle, true
	}
	return Ellipse, true
}

// ClassifyContours classifies every contour in order and returns the
// matches, preserving input order. Each contour contributes at most one
// result and contours that match nothing are skipped, so the result may be
// shorter than the input. A nil or empty input returns nil.
//
// See ClassifyContoursParallel for a concurrent variant with the same
// output.
func (c *Classifier) ClassifyContours(contours []geometry.Contour) []Result {
	var out []Result
	for _, ct := range contours {
		if r, ok := c.Classify(ct); ok {
			out = append(out, r)
		}
	}
	return out
}

func (c *Classifier) accept(label Shape, poly geometry.Contour) Result {
	c.recorder.Classified(label)
	return Result{Label: label, Polygon: poly}
}

func (c *Classifier) reject(reason Reason) {
	c.recorder.Rejected(reason)
}
