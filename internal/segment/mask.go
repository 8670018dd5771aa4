// Package segment turns a leaf photograph into a binary foreground mask.
//
// Segmentation is color based: every pixel is converted to HSV and tested
// against a set of inclusive ColorRange criteria (green, dark green, brown,
// yellow by default). The per-range masks are unioned, then cleaned with a
// morphological opening (removes isolated specks) followed by a closing
// (bridges small gaps from mottled coloration) using a square structuring
// element.
package segment

import (
	"bytes"
	"image"
	"image/color"
)

// Mask is a binary image stored row-major; true marks foreground.
type Mask struct {
	Width  int
	Height int
	Pix    []bool
}

// NewMask returns an all-background mask.
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Pix: make([]bool, width*height)}
}

// At reports whether (x, y) is foreground. Coordinates outside the mask are
// background.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Pix[y*m.Width+x]
}

// Set marks (x, y) as foreground or background. Out-of-range writes are ignored.
func (m *Mask) Set(x, y int, v bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.Pix[y*m.Width+x] = v
}

// FillRect sets every pixel of r (clipped to the mask) to v.
func (m *Mask) FillRect(r image.Rectangle, v bool) {
	r = r.Intersect(image.Rect(0, 0, m.Width, m.Height))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := m.Pix[y*m.Width : (y+1)*m.Width]
		for x := r.Min.X; x < r.Max.X; x++ {
			row[x] = v
		}
	}
}

// Or sets m to the union of m and other. Both masks must have the same size.
func (m *Mask) Or(other *Mask) {
	for i, v := range other.Pix {
		if v {
			m.Pix[i] = true
		}
	}
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of m.
func (m *Mask) Clone() *Mask {
	c := NewMask(m.Width, m.Height)
	copy(c.Pix, m.Pix)
	return c
}

// Equal reports whether both masks have the same size and pixels.
func (m *Mask) Equal(other *Mask) bool {
	if m.Width != other.Width || m.Height != other.Height {
		return false
	}
	return bytes.Equal(m.Bytes(), other.Bytes())
}

// Bytes returns the mask as one byte per pixel, 255 for foreground and 0 for
// background, the layout expected by 8-bit single-channel image APIs.
func (m *Mask) Bytes() []byte {
	b := make([]byte, len(m.Pix))
	for i, v := range m.Pix {
		if v {
			b[i] = 255
		}
	}
	return b
}

// Image renders the mask as a grayscale image (white foreground).
func (m *Mask) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.Pix[y*m.Width+x] {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

// MaskFromImage thresholds img at mid-gray: pixels whose luminance is at
// least 128 become foreground. The mask covers img's bounds, shifted to
// start at (0,0).
func MaskFromImage(img image.Image) *Mask {
	b := img.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < m.Height; y++ {
			row := rgba.Pix[y*rgba.Stride:]
			for x := 0; x < m.Width; x++ {
				m.Pix[y*m.Width+x] = row[x*4] >= 128
			}
		}
		return m
	}
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			m.Pix[y*m.Width+x] = g.Y >= 128
		}
	}
	return m
}
