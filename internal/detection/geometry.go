package detection

import (
	"image"
	"math"
)

// PolygonArea returns the unsigned shoelace area of a closed polygon. The
// first vertex must not be repeated at the end.
func PolygonArea(poly []image.Point) float64 {
	if len(poly) < 3 {
		return 0
	}
	var sum int64
	for i := range poly {
		p := poly[i]
		q := poly[(i+1)%len(poly)]
		sum += int64(p.X)*int64(q.Y) - int64(q.X)*int64(p.Y)
	}
	return math.Abs(float64(sum)) / 2
}

// Perimeter returns the length of the closed polyline through poly.
func Perimeter(poly []image.Point) float64 {
	if len(poly) < 2 {
		return 0
	}
	var total float64
	for i := range poly {
		total += dist(poly[i], poly[(i+1)%len(poly)])
	}
	return total
}

// BoundingBox returns the smallest rectangle containing every vertex, with
// Max exclusive. An empty polygon yields the zero rectangle.
func BoundingBox(poly []image.Point) image.Rectangle {
	if len(poly) == 0 {
		return image.Rectangle{}
	}
	r := image.Rectangle{Min: poly[0], Max: poly[0]}
	for _, p := range poly[1:] {
		r.Min.X = min(r.Min.X, p.X)
		r.Min.Y = min(r.Min.Y, p.Y)
		r.Max.X = max(r.Max.X, p.X)
		r.Max.Y = max(r.Max.Y, p.Y)
	}
	r.Max = r.Max.Add(image.Pt(1, 1))
	return r
}

// Simplify approximates a closed polygon with fewer vertices using the
// Ramer-Douglas-Peucker algorithm: no original vertex lies farther than
// epsilon from the simplified outline.
//
// The polygon is split at its first vertex and the vertex farthest from it,
// and each half is simplified as an open chain. Non-positive epsilon or
// polygons with fewer than three vertices are returned unchanged (as a copy).
func Simplify(poly []image.Point, epsilon float64) []image.Point {
	n := len(poly)
	if n < 3 || epsilon <= 0 {
		return append([]image.Point(nil), poly...)
	}

	far, farDist := 0, -1.0
	for i, p := range poly {
		if d := dist(poly[0], p); d > farDist {
			far, farDist = i, d
		}
	}
	if far == 0 {
		return []image.Point{poly[0]}
	}

	// Closed ring as index chain 0..far..n (n wraps to 0).
	ring := append(append([]image.Point(nil), poly...), poly[0])
	first := simplifyOpen(ring[:far+1], epsilon)
	second := simplifyOpen(ring[far:], epsilon)

	out := make([]image.Point, 0, len(first)+len(second))
	out = append(out, first...)
	out = append(out, second[1:len(second)-1]...)
	return out
}

// simplifyOpen runs Ramer-Douglas-Peucker on an open chain, keeping both end
// points. It uses an explicit stack so long contours cannot overflow.
func simplifyOpen(chain []image.Point, epsilon float64) []image.Point {
	n := len(chain)
	if n <= 2 {
		return append([]image.Point(nil), chain...)
	}

	keep := make([]bool, n)
	keep[0], keep[n-1] = true, true

	type span struct{ lo, hi int }
	stack := []span{{0, n - 1}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		idx, maxD := -1, epsilon
		for i := s.lo + 1; i < s.hi; i++ {
			if d := segmentDistance(chain[i], chain[s.lo], chain[s.hi]); d > maxD {
				idx, maxD = i, d
			}
		}
		if idx < 0 {
			continue
		}
		keep[idx] = true
		stack = append(stack, span{s.lo, idx}, span{idx, s.hi})
	}

	out := make([]image.Point, 0, n)
	for i, k := range keep {
		if k {
			out = append(out, chain[i])
		}
	}
	return out
}

// segmentDistance returns the distance from p to the line through a and b,
// or to a itself when a and b coincide.
func segmentDistance(p, a, b image.Point) float64 {
	if a == b {
		return dist(p, a)
	}
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	cross := dx*float64(p.Y-a.Y) - dy*float64(p.X-a.X)
	return math.Abs(cross) / math.Hypot(dx, dy)
}

func dist(a, b image.Point) float64 {
	return math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y))
}
