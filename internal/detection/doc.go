// Package detection extracts leaf regions from a binary foreground mask.
//
// # Contour Hierarchy
//
// Extract traces every border in the mask with the Suzuki-Abe border
// following algorithm. Two kinds of border exist:
//   - Outer borders separate a foreground component from the background
//     that surrounds it.
//   - Hole borders separate a foreground component from a background
//     region it encloses.
//
// Every border records its immediate parent border, giving a parent-pointer
// forest stored as a flat slice (the Hierarchy arena) indexed by region ID.
// IDs follow discovery order, which is raster order (top to bottom, left to
// right) of each border's first pixel.
//
// # Filtering
//
// Filter keeps only top-level regions (no parent) whose polygon area is
// strictly greater than a minimum. Holes and anything nested inside a hole,
// such as vein artifacts or specks inside a leaf's silhouette, always have a
// parent and are therefore never reported as separate leaves.
//
// # Areas and Perimeters
//
// Region areas are polygon areas of the traced boundary, whose vertices are
// pixel centers. A filled w×h rectangle therefore measures (w-1)×(h-1), not
// w×h. Perimeters are the closed polyline length of the same vertices.
//
// # Backends
//
// The native backend is pure Go and always available. The "opencv" backend
// delegates tracing to OpenCV through gocv and is compiled only with the
// "gocv" build tag; it is useful to cross-check region ordering against
// OpenCV's own traversal.
package detection
