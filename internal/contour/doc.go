// Package contour extracts object outlines from binary masks and provides
// the polygon primitives the classifier needs.
//
// Two toolkits are available. Native is pure Go and always present: it
// labels 8-connected foreground components, walks each outer border with
// Moore neighbour tracing, traces the borders of enclosed background holes
// the same way, and compresses straight runs so only direction changes
// remain. OpenCV wraps gocv and is only compiled with the gocv build tag;
// without the tag NewOpenCV returns ErrOpenCVUnavailable.
//
// Contours from both toolkits are listed without hierarchy, the way a
// flat retrieval mode would return them.
package contour
