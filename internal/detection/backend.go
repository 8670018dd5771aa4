package detection

import (
	"errors"
	"fmt"

	"github.com/ironsheep/leaf-area-tools/internal/segment"
)

// ErrBackendUnavailable is returned when a backend was not compiled in.
var ErrBackendUnavailable = errors.New("detection backend not available in this build")

// Backend names accepted by NewExtractor.
const (
	BackendNative = "native"
	BackendOpenCV = "opencv"
)

// Extractor traces a mask into a region hierarchy.
type Extractor interface {
	Extract(m *segment.Mask) (*Hierarchy, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(m *segment.Mask) (*Hierarchy, error)

// Extract calls f(m).
func (f ExtractorFunc) Extract(m *segment.Mask) (*Hierarchy, error) {
	return f(m)
}

// Native is the pure Go border-following backend.
var Native Extractor = ExtractorFunc(func(m *segment.Mask) (*Hierarchy, error) {
	return Extract(m), nil
})

// NewExtractor returns the named backend. The empty name selects the native
// backend.
func NewExtractor(name string) (Extractor, error) {
	switch name {
	case "", BackendNative:
		return Native, nil
	case BackendOpenCV:
		return newOpenCVExtractor()
	default:
		return nil, fmt.Errorf("unknown detection backend %q", name)
	}
}
