// Package imaging prepares raster images for contour extraction and renders
// detection results back onto them.
//
// # Loading
//
// ImageCache decodes PNG, JPEG, GIF, BMP, TIFF and WebP files once and keeps
// them in memory, keyed by absolute path. Handlers that operate on the same
// file repeatedly share one decoded copy.
//
// # Masks
//
// GenerateMasks turns a colour image into the stack of binary masks that
// the shape finder scans:
//
//  1. The image is smoothed by a one-level Gaussian pyramid round trip
//     (half-size downsample, then upsample back).
//  2. Each configured channel is extracted as a grayscale plane.
//  3. Level 0 of every channel is a dilated Canny edge map.
//  4. Levels 1..N-1 threshold the plane at (level+1)·255/N.
//
// Masks are non-zero on foreground pixels and share the source image's
// bounds.
//
// # Rendering
//
// Annotate draws polygon outlines and text labels over a copy of an image.
// EncodePNG wraps any image as base64 PNG for transport in JSON responses.
package imaging
