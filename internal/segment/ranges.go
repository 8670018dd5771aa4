package segment

import (
	"fmt"

	"github.com/ironsheep/leaf-area-tools/internal/imaging"
)

// ColorRange is an inclusive HSV box that classifies a pixel as leaf tissue.
type ColorRange struct {
	Name  string      `json:"name" yaml:"name"`
	Lower imaging.HSV `json:"lower" yaml:"lower"`
	Upper imaging.HSV `json:"upper" yaml:"upper"`
}

// Contains reports whether c lies within the range on all three channels.
func (r ColorRange) Contains(c imaging.HSV) bool {
	return c.H >= r.Lower.H && c.H <= r.Upper.H &&
		c.S >= r.Lower.S && c.S <= r.Upper.S &&
		c.V >= r.Lower.V && c.V <= r.Upper.V
}

// Validate checks that every lower bound is at most its upper bound and that
// hue stays within 0-179.
func (r ColorRange) Validate() error {
	if r.Lower.H > r.Upper.H || r.Lower.S > r.Upper.S || r.Lower.V > r.Upper.V {
		return fmt.Errorf("color range %q: lower bound %+v exceeds upper bound %+v", r.Name, r.Lower, r.Upper)
	}
	if r.Upper.H > 179 {
		return fmt.Errorf("color range %q: hue upper bound %d exceeds 179", r.Name, r.Upper.H)
	}
	return nil
}

// Names of the default color classes.
const (
	Green     = "green"
	DarkGreen = "dark_green"
	Brown     = "brown"
	Yellow    = "yellow"
)

// DefaultRanges returns the four leaf color classes: healthy green, dark or
// desaturated green, browning tissue and yellowing tissue.
func DefaultRanges() []ColorRange {
	return []ColorRange{
		{Name: Green, Lower: imaging.HSV{H: 25, S: 40, V: 40}, Upper: imaging.HSV{H: 90, S: 255, V: 255}},
		{Name: DarkGreen, Lower: imaging.HSV{H: 30, S: 15, V: 15}, Upper: imaging.HSV{H: 90, S: 255, V: 120}},
		{Name: Brown, Lower: imaging.HSV{H: 10, S: 40, V: 20}, Upper: imaging.HSV{H: 30, S: 255, V: 200}},
		{Name: Yellow, Lower: imaging.HSV{H: 15, S: 80, V: 120}, Upper: imaging.HSV{H: 35, S: 255, V: 255}},
	}
}

// RangeMask evaluates a single range against every pixel of hsv.
func RangeMask(hsv *imaging.HSVImage, r ColorRange) *Mask {
	m := NewMask(hsv.Width, hsv.Height)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			m.Pix[y*m.Width+x] = r.Contains(hsv.At(x, y))
		}
	}
	return m
}
