package segment

import "github.com/anthonynsimon/bild/effect"

// Morphology with a square structuring element of side size, centered on
// each pixel. Sizes are expected to be odd; an even size behaves like the
// next odd size.
//
// Erosion and dilation are bild's rank filters run on the mask rendered as a
// grayscale image. bild pads by extending the edge pixels, which for min and
// max filters is the same as ignoring pixels outside the image: foreground
// touching the border is not eroded by the border itself.

// Erode shrinks foreground: a pixel stays set only if every in-image pixel in
// its window is set.
func Erode(m *Mask, size int) *Mask {
	if size <= 1 || m.Count() == 0 {
		return m.Clone()
	}
	return MaskFromImage(effect.Erode(m.Image(), radius(size)))
}

// Dilate grows foreground: a pixel becomes set if any in-image pixel in its
// window is set.
func Dilate(m *Mask, size int) *Mask {
	if size <= 1 || m.Count() == 0 {
		return m.Clone()
	}
	return MaskFromImage(effect.Dilate(m.Image(), radius(size)))
}

// Open erodes iterations times, then dilates iterations times.
func Open(m *Mask, size, iterations int) *Mask {
	out := m.Clone()
	for i := 0; i < iterations; i++ {
		out = Erode(out, size)
	}
	for i := 0; i < iterations; i++ {
		out = Dilate(out, size)
	}
	return out
}

// Close dilates iterations times, then erodes iterations times.
func Close(m *Mask, size, iterations int) *Mask {
	out := m.Clone()
	for i := 0; i < iterations; i++ {
		out = Dilate(out, size)
	}
	for i := 0; i < iterations; i++ {
		out = Erode(out, size)
	}
	return out
}

// radius converts a window side into bild's radius, whose window is
// 2*radius+1 pixels wide.
func radius(size int) float64 {
	return float64(size / 2)
}
