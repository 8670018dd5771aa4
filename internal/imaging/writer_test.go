package imaging

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func TestAnnotatedPath(t *testing.T) {
	tests := []struct {
		src    string
		suffix string
		want   string
	}{
		{"/in/leaf01.jpg", "_contours", "/out/leaf01_contours.jpg"},
		{"/in/Leaf.JPEG", "-contours", "/out/Leaf-contours.JPEG"},
		{"/in/leaf.png", "_contours", "/out/leaf_contours.png"},
		{"/in/scan.tif", "_contours", "/out/scan_contours.png"},
		{"/in/scan.TIFF", "_contours", "/out/scan_contours.png"},
		{"/in/my.leaf.png", "", "/out/my.leaf.png"},
		{"leaf.png", "_contours", "/out/leaf_contours.png"},
		{"my.leaf.jpg", "_c", "/out/my.leaf_c.jpg"},
	}
	for _, tt := range tests {
		if got := AnnotatedPath("/out", tt.src, tt.suffix); got != filepath.FromSlash(tt.want) {
			t.Errorf("AnnotatedPath(%q, %q) = %q, want %q", tt.src, tt.suffix, got, tt.want)
		}
	}
}

func TestSave(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 6))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.SetNRGBA(2, 2, color.NRGBA{R: 255, A: 255})
	dir := t.TempDir()

	for _, name := range []string{"out.png", "out.jpg", "out.JPEG"} {
		path := filepath.Join(dir, name)
		if err := Save(path, img); err != nil {
			t.Fatalf("Save(%s): %v", name, err)
		}
		back, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%s): %v", name, err)
		}
		if back.Bounds().Size() != img.Bounds().Size() {
			t.Errorf("%s: size %v, want %v", name, back.Bounds().Size(), img.Bounds().Size())
		}
	}

	back, _ := Load(filepath.Join(dir, "out.png"))
	if c := back.NRGBAAt(2, 2); c != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("png is lossless: pixel %v", c)
	}
}

func TestSave_UnsupportedFormat(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	dir := t.TempDir()
	for _, name := range []string{"out.bmp", "out.tif"} {
		path := filepath.Join(dir, name)
		if err := Save(path, img); err == nil {
			t.Errorf("Save(%s): expected error", name)
		}
		if _, err := os.Stat(path); err == nil {
			t.Errorf("Save(%s) created a file for a rejected format", name)
		}
	}
}
