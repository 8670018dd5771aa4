// Package imaging provides the image plumbing used by the leaf-area pipeline.
//
// This package covers everything that touches pixels but carries no
// measurement policy: decoding source photographs, converting them to the
// 8-bit HSV planes the segmenter thresholds against, simple planar geometry
// on pixel coordinates, drawing region outlines and index labels, and
// encoding annotated copies back to disk.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//
// Images returned by Load are normalized so that Bounds().Min is (0,0).
//
// # Color Representation
//
// HSV values follow the 8-bit convention used by most leaf-segmentation
// recipes:
//   - H: 0-179 (degrees divided by two)
//   - S: 0-255
//   - V: 0-255
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. All other functions are
// stateless and can be called concurrently on different images.
//
// # Error Handling
//
// Functions return errors for unreadable files, undecodable image data and
// encoding failures. Errors are wrapped so callers can use errors.Is against
// the underlying os and image errors.
package imaging
