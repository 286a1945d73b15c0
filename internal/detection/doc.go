// Package detection classifies closed contours as geometric primitives.
//
// # Classification
//
// Each contour is first approximated by a polygon whose tolerance is a fixed
// fraction of the contour's own perimeter. The polygon must then pass a gate:
// it needs at least three vertices, must be convex and must enclose more than
// MinArea square pixels. Gate survivors are labelled by vertex count:
//
//   - 3 vertices: triangle
//   - 4 vertices: rectangle, if the largest corner angle is within
//     RightAngleTolerance of π/2
//   - 5 vertices: pentagon
//   - 6 or more: the original contour is fitted with an ellipse and accepted
//     when at least EllipseMinFraction of its points satisfy the ellipse
//     equation to within EllipseTolerance. Nearly equal axes make it a
//     circle, otherwise an ellipse.
//
// Anything else is a silent no-match. Geometry failures (degenerate angles,
// failed ellipse fits) are never returned to the caller; they are counted
// through the Recorder and logged at debug level.
//
// Polygon-level primitives come from a Toolkit, so the same classifier runs
// on the pure Go tracer or on OpenCV.
//
// # Finding Shapes in Images
//
// Finder drives the classifier over the mask stack produced by
// imaging.EachMask: one edge map and a ladder of intensity thresholds per
// colour channel. Results from different masks are concatenated in
// (channel, level, contour) order. The same physical object is usually found
// on several masks; no de-duplication is performed.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
package detection
