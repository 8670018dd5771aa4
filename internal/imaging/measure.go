package imaging

import (
	"image"

	"gonum.org/v1/gonum/floats"
)

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x" yaml:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y" yaml:"y"` // Vertical position (0 = topmost)
}

// Distance returns the Euclidean distance between a and b in pixels.
//
// Unlike the rounded values reported to users, the result is returned at full
// precision because it feeds the calibration ratio, which is later squared.
func Distance(a, b Point) float64 {
	return floats.Distance(
		[]float64{float64(a.X), float64(a.Y)},
		[]float64{float64(b.X), float64(b.Y)},
		2,
	)
}

// Centroid returns the area centroid of a closed polygon computed from its
// first-order moments.
//
// The boolean result is false when the polygon has zero area (m00 == 0), in
// which case no meaningful centroid exists. The polygon is implicitly closed;
// the first vertex must not be repeated at the end.
func Centroid(poly []image.Point) (image.Point, bool) {
	if len(poly) < 3 {
		return image.Point{}, false
	}

	var m00, m10, m01 float64
	for i := range poly {
		p := poly[i]
		q := poly[(i+1)%len(poly)]
		cross := float64(p.X*q.Y - q.X*p.Y)
		m00 += cross
		m10 += float64(p.X+q.X) * cross
		m01 += float64(p.Y+q.Y) * cross
	}
	m00 /= 2
	if m00 == 0 {
		return image.Point{}, false
	}
	m10 /= 6
	m01 /= 6

	// Truncation toward zero, like an int() cast of m10/m00.
	return image.Point{
		X: int(m10 / m00),
		Y: int(m01 / m00),
	}, true
}
