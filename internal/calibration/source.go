package calibration

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ironsheep/leaf-area-tools/internal/imaging"
)

// PointSource acquires the calibration points for a reference image.
type PointSource interface {
	Points(ctx context.Context, ref image.Image) ([]imaging.Point, error)
}

// StaticSource returns a fixed set of points, typically from configuration.
type StaticSource []imaging.Point

// Points returns a copy of s. The reference image is not consulted.
func (s StaticSource) Points(ctx context.Context, _ image.Image) ([]imaging.Point, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]imaging.Point(nil), s...), nil
}

// PromptSource reads points as "x,y" lines from In, writing a prompt for each
// one to Out. Reading stops after two points or at end of input; a short
// read is reported later by Calibrate.
type PromptSource struct {
	In  io.Reader
	Out io.Writer // optional

	// Timeout bounds the whole exchange. Zero waits indefinitely.
	Timeout time.Duration
}

// Points prompts for and parses the reference points. Blank lines are
// ignored. Cancellation of ctx, or expiry of Timeout, ends the wait.
func (s *PromptSource) Points(ctx context.Context, ref image.Image) ([]imaging.Point, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	if s.Out != nil && ref != nil {
		b := ref.Bounds()
		fmt.Fprintf(s.Out, "Reference image is %dx%d. Enter two points 1 cm apart as x,y.\n", b.Dx(), b.Dy())
	}

	type result struct {
		points []imaging.Point
		err    error
	}
	done := make(chan result, 1)

	// The scanner cannot be interrupted; if ctx ends first the goroutine
	// finishes when In is closed or yields.
	go func() {
		var pts []imaging.Point
		sc := bufio.NewScanner(s.In)
		s.prompt(len(pts))
		for len(pts) < RequiredPoints && sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			p, err := ParsePoint(line)
			if err != nil {
				done <- result{err: err}
				return
			}
			pts = append(pts, p)
			if len(pts) < RequiredPoints {
				s.prompt(len(pts))
			}
		}
		if err := sc.Err(); err != nil {
			done <- result{err: fmt.Errorf("failed to read points: %w", err)}
			return
		}
		done <- result{points: pts}
	}()

	select {
	case r := <-done:
		return r.points, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for reference points: %w", ctx.Err())
	}
}

func (s *PromptSource) prompt(have int) {
	if s.Out != nil {
		fmt.Fprintf(s.Out, "point %d> ", have+1)
	}
}

// ParsePoint parses "x,y" (spaces allowed around either value) into a Point.
func ParsePoint(s string) (imaging.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return imaging.Point{}, fmt.Errorf("invalid point %q: want x,y", s)
	}
	x, errX := strconv.Atoi(strings.TrimSpace(xs))
	y, errY := strconv.Atoi(strings.TrimSpace(ys))
	if err := errors.Join(errX, errY); err != nil {
		return imaging.Point{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	return imaging.Point{X: x, Y: y}, nil
}

// FromSource acquires points for ref from src and calibrates them. Errors
// from the source are wrapped in *Error so callers can treat every failure
// the same way.
func FromSource(ctx context.Context, src PointSource, ref image.Image) (Ratio, error) {
	pts, err := src.Points(ctx, ref)
	if err != nil {
		return 0, &Error{Points: len(pts), Err: err}
	}
	return Calibrate(pts)
}
