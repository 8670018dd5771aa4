package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// HSV is a color in the 8-bit HSV convention.
//
//   - H: hue, 0-179 (degrees / 2; 0=red, 60=green, 120=blue)
//   - S: saturation, 0-255 (0=gray, 255=vivid)
//   - V: value, 0-255 (0=black, 255=brightest)
type HSV struct {
	H uint8 `json:"h" yaml:"h"`
	S uint8 `json:"s" yaml:"s"`
	V uint8 `json:"v" yaml:"v"`
}

// RGBToHSV converts 8-bit RGB components to the 8-bit HSV convention.
//
// The conversion is delegated to go-colorful on the normalized components,
// then rescaled: hue is halved and rounded (a rounded 180 wraps to 0),
// saturation and value are scaled to 0-255 and rounded.
func RGBToHSV(r, g, b uint8) HSV {
	c := colorful.Color{R: float64(r) / 255.0, G: float64(g) / 255.0, B: float64(b) / 255.0}
	h, s, v := c.Hsv()

	hh := int(math.Round(h / 2))
	if hh >= 180 {
		hh -= 180
	}
	return HSV{
		H: uint8(hh),
		S: uint8(math.Round(s * 255)),
		V: uint8(math.Round(v * 255)),
	}
}

// HSVImage holds one image converted to HSV as three row-major planes.
type HSVImage struct {
	Width  int
	Height int
	H      []uint8
	S      []uint8
	V      []uint8
}

// At returns the HSV triple at (x, y). No bounds checking is performed.
func (p *HSVImage) At(x, y int) HSV {
	i := y*p.Width + x
	return HSV{H: p.H[i], S: p.S[i], V: p.V[i]}
}

// ToHSV converts every pixel of img to HSV.
//
// Alpha is ignored: the color channels of non-premultiplied pixels are used
// as-is, so a transparent pixel is classified by its stored color. Results are
// cached per distinct RGB triple because photographs repeat colors heavily.
func ToHSV(img *image.NRGBA) *HSVImage {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := &HSVImage{
		Width:  w,
		Height: h,
		H:      make([]uint8, w*h),
		S:      make([]uint8, w*h),
		V:      make([]uint8, w*h),
	}

	memo := make(map[uint32]HSV)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			r, g, b := row[x*4], row[x*4+1], row[x*4+2]
			key := uint32(r)<<16 | uint32(g)<<8 | uint32(b)
			hsv, ok := memo[key]
			if !ok {
				hsv = RGBToHSV(r, g, b)
				memo[key] = hsv
			}
			i := y*w + x
			out.H[i], out.S[i], out.V[i] = hsv.H, hsv.S, hsv.V
		}
	}
	return out
}

// ParseHexColor parses a hex color string like "#FF0000" or "#FF000080".
// The leading '#' is optional.
func ParseHexColor(hex string) (color.NRGBA, error) {
	if len(hex) == 0 {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
		}
		r = uint8(val >> 16)
		g = uint8(val >> 8)
		b = uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
		}
		r = uint8(val >> 24)
		g = uint8(val >> 16)
		b = uint8(val >> 8)
		a = uint8(val)
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color length")
	}

	return color.NRGBA{R: r, G: g, B: b, A: a}, nil
}
