package batch

import (
	"errors"
	"fmt"
)

// ErrNoReference is wrapped when the reference image cannot be loaded.
var ErrNoReference = errors.New("reference image not found")

// UnreadableImageError reports an image that could not be decoded. The batch
// skips the image and continues.
type UnreadableImageError struct {
	Path string
	Err  error
}

func (e *UnreadableImageError) Error() string {
	return fmt.Sprintf("could not read image %s: %v", e.Path, e.Err)
}

func (e *UnreadableImageError) Unwrap() error {
	return e.Err
}

// ImageError reports a failure after an image was decoded, such as a contour
// backend error or an annotated copy that could not be written.
type ImageError struct {
	Path  string
	Stage string
	Err   error
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("%s failed for %s: %v", e.Stage, e.Path, e.Err)
}

func (e *ImageError) Unwrap() error {
	return e.Err
}
