package imaging

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
)

// JPEGQuality is the quality used when writing annotated JPEG images.
const JPEGQuality = 95

// AnnotatedPath returns the path under outDir for the annotated copy of src.
//
// The name is the source file's stem followed by suffix and the source
// extension, e.g. "leaf01.jpg" with suffix "_contours" becomes
// "leaf01_contours.jpg". TIFF sources are written as PNG because annotated
// images are encoded as JPEG or PNG only.
func AnnotatedPath(outDir, src, suffix string) string {
	base := filepath.Base(src)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	switch strings.ToLower(ext) {
	case ".tif", ".tiff", "":
		ext = ".png"
	}
	return filepath.Join(outDir, stem+suffix+ext)
}

// Save encodes img to path, choosing the encoder from the path's extension.
//
// ".jpg" and ".jpeg" are written as JPEG at JPEGQuality, ".png" as PNG.
// Any other extension is rejected.
func Save(path string, img image.Image) error {
	var enc imgio.Encoder
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		enc = imgio.JPEGEncoder(JPEGQuality)
	case ".png":
		enc = imgio.PNGEncoder()
	default:
		return fmt.Errorf("unsupported output format: %s", filepath.Ext(path))
	}

	if err := imgio.Save(path, img, enc); err != nil {
		return fmt.Errorf("failed to save image %s: %w", path, err)
	}
	return nil
}
