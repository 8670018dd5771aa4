package detection

import (
	"image"

	"github.com/ironsheep/leaf-area-tools/internal/segment"
)

// Region is one traced border in a contour hierarchy.
type Region struct {
	// ID is the region's index in Hierarchy.Regions (discovery order).
	ID int `json:"id"`

	// Parent is the ID of the immediately enclosing border, or -1 for
	// top-level regions.
	Parent int `json:"parent"`

	// Hole is true for borders that enclose background.
	Hole bool `json:"hole"`

	// Contour holds the border vertices in tracing order. Runs of collinear
	// steps are compressed to their end points.
	Contour []image.Point `json:"-"`

	// Area is the polygon area of Contour in square pixels.
	Area float64 `json:"area"`

	// Perimeter is the closed length of Contour in pixels.
	Perimeter float64 `json:"perimeter"`

	// Bounds is the bounding box of Contour (Max exclusive).
	Bounds image.Rectangle `json:"bounds"`

	// Simplified is the polygon-approximated contour. It is filled in by
	// Filter for accepted regions only.
	Simplified []image.Point `json:"simplified,omitempty"`

	// Holes is the number of hole borders directly inside the region. It is
	// filled in by Filter for accepted regions only.
	Holes int `json:"holes"`
}

// TopLevel reports whether the region has no parent.
func (r *Region) TopLevel() bool {
	return r.Parent < 0
}

// Hierarchy is the arena of all regions traced from one mask.
type Hierarchy struct {
	Regions []Region `json:"regions"`
}

// Children returns the IDs of the regions whose parent is id.
func (h *Hierarchy) Children(id int) []int {
	var out []int
	for _, r := range h.Regions {
		if r.Parent == id {
			out = append(out, r.ID)
		}
	}
	return out
}

// Depth returns the nesting depth of region id (0 for top-level regions).
func (h *Hierarchy) Depth(id int) int {
	depth := 0
	for p := h.Regions[id].Parent; p >= 0; p = h.Regions[p].Parent {
		depth++
	}
	return depth
}

// neighbors lists the 8-neighborhood clockwise (y grows downward),
// starting east.
var neighbors = [8]image.Point{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

// direction returns the index into neighbors of the unit step d.
func direction(d image.Point) int {
	for i, n := range neighbors {
		if n == d {
			return i
		}
	}
	panic("detection: not a unit step")
}

type border struct {
	hole   bool
	parent int32
}

// Extract traces all borders of m and returns them with their hierarchy.
//
// Foreground is 8-connected and background 4-connected. The mask is treated
// as if surrounded by a one-pixel background frame, so components touching
// the image edge still get closed borders.
func Extract(m *segment.Mask) *Hierarchy {
	w, h := m.Width, m.Height
	pw := w + 2

	// Padded label image. 1 = unvisited foreground, ±n = on border n.
	f := make([]int32, pw*(h+2))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if m.Pix[y*w+x] {
				f[(y+1)*pw+x+1] = 1
			}
		}
	}

	// Indexed by border number; 0 is unused and 1 is the frame, which acts
	// as a hole border with no parent.
	borders := []border{{}, {hole: true}}
	nbd := int32(1)
	out := &Hierarchy{}

	for y := 1; y <= h; y++ {
		lnbd := int32(1)
		for x := 1; x <= w; x++ {
			i := y*pw + x
			v := f[i]
			if v == 0 {
				continue
			}

			var from image.Point
			hole := false
			started := true
			switch {
			case v == 1 && f[i-1] == 0:
				from = image.Pt(x-1, y)
			case v >= 1 && f[i+1] == 0:
				hole = true
				from = image.Pt(x+1, y)
				if v > 1 {
					lnbd = v
				}
			default:
				started = false
			}

			if started {
				nbd++
				prev := borders[lnbd]
				parent := lnbd
				if hole == prev.hole {
					parent = prev.parent
				}
				borders = append(borders, border{hole: hole, parent: parent})

				chain := follow(f, pw, image.Pt(x, y), from, nbd)
				out.Regions = append(out.Regions, newRegion(int(nbd)-2, int(parent)-2, hole, chain))
			}

			if f[i] != 1 {
				lnbd = f[i]
				if lnbd < 0 {
					lnbd = -lnbd
				}
			}
		}
	}
	return out
}

// follow traces one border starting at p0, whose background neighbor p2 is
// the pixel that triggered the border, labeling visited pixels with nbd. It
// returns the border pixels in unpadded coordinates.
func follow(f []int32, pw int, p0, p2 image.Point, nbd int32) []image.Point {
	at := func(p image.Point) int { return p.Y*pw + p.X }
	unpad := func(p image.Point) image.Point { return p.Sub(image.Pt(1, 1)) }

	// Look clockwise around p0, starting at p2, for any non-zero pixel.
	d0 := direction(p2.Sub(p0))
	found := -1
	for k := 0; k < 8; k++ {
		d := (d0 + k) % 8
		if f[at(p0.Add(neighbors[d]))] != 0 {
			found = d
			break
		}
	}
	if found < 0 {
		// Isolated pixel.
		f[at(p0)] = -nbd
		return []image.Point{unpad(p0)}
	}

	p1 := p0.Add(neighbors[found])
	p2 = p1
	p3 := p0
	var chain []image.Point

	for {
		// Examine counterclockwise around p3, starting just after p2.
		d := direction(p2.Sub(p3))
		eastZero := false
		var p4 image.Point
		for k := 1; k <= 8; k++ {
			dd := (d - k + 16) % 8
			q := p3.Add(neighbors[dd])
			if f[at(q)] != 0 {
				p4 = q
				break
			}
			if dd == 0 {
				eastZero = true
			}
		}

		if eastZero {
			f[at(p3)] = -nbd
		} else if f[at(p3)] == 1 {
			f[at(p3)] = nbd
		}
		chain = append(chain, unpad(p3))

		if p4 == p0 && p3 == p1 {
			return chain
		}
		p2, p3 = p3, p4
	}
}

func newRegion(id, parent int, hole bool, chain []image.Point) Region {
	if parent < 0 {
		parent = -1
	}
	contour := compress(chain)
	return Region{
		ID:        id,
		Parent:    parent,
		Hole:      hole,
		Contour:   contour,
		Area:      PolygonArea(contour),
		Perimeter: Perimeter(contour),
		Bounds:    BoundingBox(contour),
	}
}

// compress drops vertices whose incoming and outgoing steps are identical,
// keeping only the end points of straight horizontal, vertical and
// diagonal runs.
func compress(chain []image.Point) []image.Point {
	n := len(chain)
	if n <= 2 {
		return append([]image.Point(nil), chain...)
	}
	out := make([]image.Point, 0, n)
	for i, p := range chain {
		prev := chain[(i-1+n)%n]
		next := chain[(i+1)%n]
		if p.Sub(prev) == next.Sub(p) {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		// A closed chain cannot be entirely straight; keep it intact.
		return append([]image.Point(nil), chain...)
	}
	return out
}
