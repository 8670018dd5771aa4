// Package batch measures every leaf image in a directory against one
// calibration ratio.
//
// A failing image is logged and recorded but never stops the batch; only
// calibration failure is fatal, and it happens before any image is touched.
package batch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ironsheep/leaf-area-tools/internal/imaging"
)

// DefaultReference is the file name of the scale image in an input directory.
const DefaultReference = "scale_image.jpg"

// Enumerate lists the images in dir that should be measured, as full paths.
//
// Entries are returned in directory listing order (sorted by name). Only
// regular files with a supported extension, compared case-insensitively,
// are included; the reference image is excluded by exact name.
func Enumerate(dir, reference string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list input directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if name == reference || !imaging.IsSupported(name) {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	return paths, nil
}
