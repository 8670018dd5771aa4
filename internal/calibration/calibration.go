// Package calibration converts two reference points, placed exactly one
// centimeter apart on a scale image, into a pixels-per-centimeter ratio.
//
// The ratio is derived once per batch and shared read-only by every image in
// it. Failure to calibrate is fatal for the batch: no image is measured
// without a valid ratio.
package calibration

import (
	"errors"
	"fmt"

	"github.com/ironsheep/leaf-area-tools/internal/imaging"
)

// RequiredPoints is the number of reference points a calibration needs.
const RequiredPoints = 2

// ReferenceLengthCm is the physical distance between the two reference
// points.
const ReferenceLengthCm = 1.0

var (
	// ErrPointCount is wrapped when anything other than two points is given.
	ErrPointCount = errors.New("exactly two reference points are required")

	// ErrZeroDistance is wrapped when both points coincide.
	ErrZeroDistance = errors.New("reference points must be distinct")
)

// Ratio is a pixels-per-centimeter scale. A valid Ratio is always positive.
type Ratio float64

// String formats the ratio the way it is reported after calibration.
func (r Ratio) String() string {
	return fmt.Sprintf("%.2f pixels = 1 cm", float64(r))
}

// Error reports a failed calibration.
type Error struct {
	Points int   // number of points that were supplied
	Err    error // underlying cause
}

func (e *Error) Error() string {
	return fmt.Sprintf("calibration failed with %d point(s): %v", e.Points, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Calibrate returns the ratio implied by two points one centimeter apart.
// Any other number of points, or two identical points, yields an *Error.
func Calibrate(points []imaging.Point) (Ratio, error) {
	if len(points) != RequiredPoints {
		return 0, &Error{Points: len(points), Err: ErrPointCount}
	}
	d := imaging.Distance(points[0], points[1])
	if d == 0 {
		return 0, &Error{Points: len(points), Err: ErrZeroDistance}
	}
	return Ratio(d / ReferenceLengthCm), nil
}
