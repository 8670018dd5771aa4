package segment

import (
	"image"
	"testing"
)

func maskWithRect(w, h int, r image.Rectangle) *Mask {
	m := NewMask(w, h)
	m.FillRect(r, true)
	return m
}

func boundsOf(m *Mask) image.Rectangle {
	var r image.Rectangle
	first := true
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if !m.At(x, y) {
				continue
			}
			p := image.Rect(x, y, x+1, y+1)
			if first {
				r = p
				first = false
			} else {
				r = r.Union(p)
			}
		}
	}
	return r
}

func TestErode(t *testing.T) {
	m := maskWithRect(20, 20, image.Rect(5, 5, 10, 10))
	got := Erode(m, 3)
	if want := image.Rect(6, 6, 9, 9); boundsOf(got) != want || got.Count() != 9 {
		t.Errorf("Erode: bounds %v count %d, want %v count 9", boundsOf(got), got.Count(), want)
	}
	if m.Count() != 25 {
		t.Error("Erode modified its input")
	}
}

func TestErode_BorderIsIgnored(t *testing.T) {
	m := maskWithRect(10, 10, image.Rect(0, 0, 5, 5))
	got := Erode(m, 3)
	if want := image.Rect(0, 0, 4, 4); boundsOf(got) != want || got.Count() != 16 {
		t.Errorf("Erode at border: bounds %v count %d, want %v count 16", boundsOf(got), got.Count(), want)
	}
}

func TestDilate(t *testing.T) {
	tests := []struct {
		name  string
		size  int
		want  image.Rectangle
		count int
	}{
		{"size 1 is identity", 1, image.Rect(5, 5, 6, 6), 1},
		{"size 3", 3, image.Rect(4, 4, 7, 7), 9},
		{"size 5", 5, image.Rect(3, 3, 8, 8), 25},
		{"even size 4 acts as 5", 4, image.Rect(3, 3, 8, 8), 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMask(12, 12)
			m.Set(5, 5, true)
			got := Dilate(m, tt.size)
			if boundsOf(got) != tt.want || got.Count() != tt.count {
				t.Errorf("bounds %v count %d, want %v count %d", boundsOf(got), got.Count(), tt.want, tt.count)
			}
		})
	}
}

func TestOpen_RemovesSpecks(t *testing.T) {
	m := maskWithRect(40, 40, image.Rect(10, 10, 30, 30))
	m.FillRect(image.Rect(2, 2, 4, 4), true) // 2x2 speck
	m.Set(35, 35, true)

	got := Open(m, 5, 2)
	if got.At(2, 2) || got.At(35, 35) {
		t.Error("opening kept an isolated speck")
	}
	if !got.Equal(maskWithRect(40, 40, image.Rect(10, 10, 30, 30))) {
		t.Error("opening changed a large rectangle")
	}
}

func TestClose_BridgesGap(t *testing.T) {
	m := maskWithRect(60, 30, image.Rect(5, 5, 28, 25))
	m.FillRect(image.Rect(30, 5, 55, 25), true) // 2px gap at x=28,29

	if got := Close(m, 5, 0); !got.Equal(m) {
		t.Error("zero iterations should be the identity")
	}

	got := Close(m, 5, 1)
	for _, x := range []int{28, 29} {
		if !got.At(x, 15) {
			t.Errorf("closing did not fill gap pixel (%d,15)", x)
		}
	}
	if got.At(2, 15) || got.At(57, 15) {
		t.Error("closing grew the outer boundary")
	}
}

func TestMaskFromImage(t *testing.T) {
	m := maskWithRect(6, 4, image.Rect(1, 1, 4, 3))
	if got := MaskFromImage(m.Image()); !got.Equal(m) {
		t.Error("gray round trip changed the mask")
	}

	sub := m.Image().SubImage(image.Rect(1, 1, 4, 3))
	if got := MaskFromImage(sub); got.Width != 3 || got.Height != 2 || got.Count() != 6 {
		t.Errorf("sub-image: %dx%d with %d set, want 3x2 all set", got.Width, got.Height, got.Count())
	}
}

// Erosion and dilation must match a direct window scan with the window
// clipped at the image border.
func TestErodeDilate_MatchWindowScan(t *testing.T) {
	m := NewMask(23, 17)
	seed := uint32(7)
	for i := range m.Pix {
		seed = seed*1664525 + 1013904223
		m.Pix[i] = seed>>28 < 9
	}

	for _, size := range []int{3, 5, 7} {
		for _, erode := range []bool{true, false} {
			var got *Mask
			if erode {
				got = Erode(m, size)
			} else {
				got = Dilate(m, size)
			}
			want := windowScan(m, size, erode)
			if !got.Equal(want) {
				t.Errorf("size %d erode=%v: result differs from window scan", size, erode)
			}
		}
	}
}

func windowScan(m *Mask, size int, erode bool) *Mask {
	r := size / 2
	out := NewMask(m.Width, m.Height)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			all, some := true, false
			for dy := -r; dy <= r; dy++ {
				for dx := -r; dx <= r; dx++ {
					xx, yy := x+dx, y+dy
					if xx < 0 || yy < 0 || xx >= m.Width || yy >= m.Height {
						continue
					}
					v := m.At(xx, yy)
					all = all && v
					some = some || v
				}
			}
			if erode {
				out.Set(x, y, all)
			} else {
				out.Set(x, y, some)
			}
		}
	}
	return out
}
