package segment

import (
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/leaf-area-tools/internal/imaging"
)

// Default morphology parameters.
const (
	DefaultKernelSize      = 5
	DefaultOpenIterations  = 2
	DefaultCloseIterations = 2
)

// Segmenter builds a cleaned foreground mask from a color image.
//
// A Segmenter holds configuration only; Segment has no side effects, so one
// value can be shared by concurrent callers.
type Segmenter struct {
	// Ranges are unioned; a pixel matching any of them is foreground.
	Ranges []ColorRange

	// KernelSize is the side of the square structuring element. It must be
	// odd so the element is centered on each pixel.
	KernelSize int

	// OpenIterations is the erosion/dilation count of the opening step.
	OpenIterations int

	// CloseIterations is the dilation/erosion count of the closing step.
	// Higher values fuse mottled leaves into one region at the cost of
	// filling genuine notches along the margin.
	CloseIterations int
}

// New returns a Segmenter with the default ranges and morphology.
func New() *Segmenter {
	return &Segmenter{
		Ranges:          DefaultRanges(),
		KernelSize:      DefaultKernelSize,
		OpenIterations:  DefaultOpenIterations,
		CloseIterations: DefaultCloseIterations,
	}
}

// Validate checks the configuration.
func (s *Segmenter) Validate() error {
	if len(s.Ranges) == 0 {
		return errors.New("segmenter: at least one color range is required")
	}
	for _, r := range s.Ranges {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("segmenter: %w", err)
		}
	}
	if s.KernelSize < 1 || s.KernelSize%2 == 0 {
		return fmt.Errorf("segmenter: kernel size %d must be odd and >= 1", s.KernelSize)
	}
	if s.OpenIterations < 0 || s.CloseIterations < 0 {
		return fmt.Errorf("segmenter: iteration counts must be >= 0 (open=%d, close=%d)",
			s.OpenIterations, s.CloseIterations)
	}
	return nil
}

// Segment converts img to HSV, unions the per-range masks and applies the
// opening then the closing.
func (s *Segmenter) Segment(img *image.NRGBA) *Mask {
	return s.SegmentHSV(imaging.ToHSV(img))
}

// SegmentHSV is Segment for an image already converted to HSV.
func (s *Segmenter) SegmentHSV(hsv *imaging.HSVImage) *Mask {
	combined := s.RawMask(hsv)
	cleaned := Open(combined, s.KernelSize, s.OpenIterations)
	return Close(cleaned, s.KernelSize, s.CloseIterations)
}

// RawMask returns the union of all range masks before morphology.
func (s *Segmenter) RawMask(hsv *imaging.HSVImage) *Mask {
	combined := NewMask(hsv.Width, hsv.Height)
	for _, r := range s.Ranges {
		combined.Or(RangeMask(hsv, r))
	}
	return combined
}
