//go:build !gocv

package detection

import "fmt"

func newOpenCVExtractor() (Extractor, error) {
	return nil, fmt.Errorf("%w: rebuild with -tags gocv", ErrBackendUnavailable)
}
