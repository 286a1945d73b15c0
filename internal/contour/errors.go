package contour

import "errors"

// ErrOpenCVUnavailable is returned when the OpenCV toolkit is requested from
// a binary built without the gocv tag.
var ErrOpenCVUnavailable = errors.New("opencv toolkit not compiled in (build with -tags gocv)")
