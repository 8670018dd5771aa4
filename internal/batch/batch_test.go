package batch

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/image/tiff"

	"github.com/ironsheep/leaf-area-tools/internal/calibration"
	"github.com/ironsheep/leaf-area-tools/internal/detection"
	"github.com/ironsheep/leaf-area-tools/internal/imaging"
	"github.com/ironsheep/leaf-area-tools/internal/measure"
	"github.com/ironsheep/leaf-area-tools/internal/segment"
)

var (
	background = color.NRGBA{200, 200, 200, 255}
	leafGreen  = color.NRGBA{40, 160, 40, 255}
)

// createLeafImage returns a gray canvas with one green rectangle per leaf.
func createLeafImage(w, h int, leaves ...image.Rectangle) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{background}, image.Point{}, draw.Src)
	for _, r := range leaves {
		draw.Draw(img, r, &image.Uniform{leafGreen}, image.Point{}, draw.Src)
	}
	return img
}

// createTestImageFile encodes img into dir/name using the extension's format.
func createTestImageFile(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	defer f.Close()

	switch filepath.Ext(name) {
	case ".png", ".PNG":
		err = png.Encode(f, img)
	case ".jpg", ".JPG", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 100})
	case ".tif", ".tiff":
		err = tiff.Encode(f, img, nil)
	default:
		_, err = f.WriteString("not an image")
	}
	if err != nil {
		t.Fatalf("encode %s: %v", name, err)
	}
	return path
}

func newTestRunner(dir string) *Runner {
	return NewRunner(DefaultOptions(dir), segment.New(), zerolog.Nop())
}

func TestEnumerate(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"leaf_c.tiff", "notes.txt", DefaultReference, "leaf_a.png", "leaf_b.JPG", "leaf_d.gif",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.png"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := Enumerate(dir, DefaultReference)
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	want := []string{
		filepath.Join(dir, "leaf_a.png"),
		filepath.Join(dir, "leaf_b.JPG"),
		filepath.Join(dir, "leaf_c.tiff"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Enumerate() = %v, want %v", got, want)
	}
}

func TestEnumerate_MissingDir(t *testing.T) {
	if _, err := Enumerate(filepath.Join(t.TempDir(), "absent"), DefaultReference); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestRun_SingleLeaf(t *testing.T) {
	dir := t.TempDir()
	// 251x201 pixels trace to a 250x200 polygon: 50000 px².
	createTestImageFile(t, dir, "leaf.png", createLeafImage(400, 300, image.Rect(50, 50, 301, 251)))

	res, err := newTestRunner(dir).Run(context.Background(), 100)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Failures) != 0 {
		t.Fatalf("unexpected failures: %v", res.Failures)
	}
	if len(res.Images) != 1 {
		t.Fatalf("measured %d images, want 1", len(res.Images))
	}

	sum := res.Images[0].Result.Summary
	if sum.Count != 1 {
		t.Fatalf("Count = %d, want 1", sum.Count)
	}
	if got := measure.Round2(sum.TotalCm2); got != 5.00 {
		t.Errorf("TotalCm2 = %v, want 5.00", got)
	}
	if got := measure.Round2(sum.AverageCm2); got != 5.00 {
		t.Errorf("AverageCm2 = %v, want 5.00", got)
	}

	annotated := filepath.Join(dir, DefaultOutputSubdir, "leaf_contours.png")
	if res.Images[0].Annotated != annotated {
		t.Errorf("Annotated = %q, want %q", res.Images[0].Annotated, annotated)
	}
	out, err := imaging.Load(annotated)
	if err != nil {
		t.Fatalf("annotated image unreadable: %v", err)
	}
	if out.Bounds().Size() != image.Pt(400, 300) {
		t.Errorf("annotated size %v, want 400x300", out.Bounds().Size())
	}
	if c := out.NRGBAAt(50, 150); c.R != 255 || c.G != 0 || c.B != 0 {
		t.Errorf("left edge pixel %v, want red outline", c)
	}
}

func TestRun_Directory(t *testing.T) {
	dir := t.TempDir()
	leaf := createLeafImage(200, 200, image.Rect(20, 20, 81, 81), image.Rect(120, 120, 171, 181))

	createTestImageFile(t, dir, DefaultReference, leaf)
	createTestImageFile(t, dir, "a.png", leaf)
	createTestImageFile(t, dir, "b.jpg", leaf)
	createTestImageFile(t, dir, "c.tif", leaf)
	createTestImageFile(t, dir, "readme.txt", nil)

	for _, workers := range []int{1, 3} {
		opts := DefaultOptions(dir)
		opts.OutputDir = filepath.Join(dir, "out")
		opts.Workers = workers
		r := NewRunner(opts, segment.New(), zerolog.Nop())

		res, err := r.Run(context.Background(), 10)
		if err != nil {
			t.Fatalf("workers=%d: Run: %v", workers, err)
		}
		if len(res.Failures) != 0 {
			t.Errorf("workers=%d: failures %v", workers, res.Failures)
		}

		var names []string
		for _, img := range res.Images {
			names = append(names, img.Name)
			if img.Result.Summary.Count != 2 {
				t.Errorf("workers=%d: %s has %d leaves, want 2", workers, img.Name, img.Result.Summary.Count)
			}
		}
		if want := []string{"a.png", "b.jpg", "c.tif"}; !reflect.DeepEqual(names, want) {
			t.Errorf("workers=%d: images %v, want %v", workers, names, want)
		}
		if len(res.Summaries()) != 3 || len(res.Records()) != 6 {
			t.Errorf("workers=%d: %d summaries, %d records", workers, len(res.Summaries()), len(res.Records()))
		}

		for _, name := range []string{"a_contours.png", "b_contours.jpg", "c_contours.png"} {
			if _, err := os.Stat(filepath.Join(opts.OutputDir, name)); err != nil {
				t.Errorf("workers=%d: annotated output: %v", workers, err)
			}
		}
	}
}

func TestRun_RerunIgnoresAnnotatedOutput(t *testing.T) {
	leaf := createLeafImage(100, 100, image.Rect(10, 10, 61, 61))

	tests := []struct {
		name   string
		outDir func(dir string) string
	}{
		{"default output dir", func(dir string) string { return filepath.Join(dir, DefaultOutputSubdir) }},
		{"output into input dir", func(dir string) string { return dir }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			createTestImageFile(t, dir, DefaultReference, leaf)
			for _, name := range []string{"a.png", "b.png", "c.png"} {
				createTestImageFile(t, dir, name, leaf)
			}
			createTestImageFile(t, dir, "notes.txt", nil)

			opts := DefaultOptions(dir)
			opts.OutputDir = tt.outDir(dir)
			r := NewRunner(opts, segment.New(), zerolog.Nop())

			for run := 1; run <= 2; run++ {
				res, err := r.Run(context.Background(), 10)
				if err != nil {
					t.Fatalf("run %d: %v", run, err)
				}
				var names []string
				for _, img := range res.Images {
					names = append(names, img.Name)
				}
				if want := []string{"a.png", "b.png", "c.png"}; !reflect.DeepEqual(names, want) {
					t.Errorf("run %d: images %v, want %v", run, names, want)
				}
			}
		})
	}
}

func TestRun_UnreadableImageIsSkipped(t *testing.T) {
	dir := t.TempDir()
	leaf := createLeafImage(100, 100, image.Rect(10, 10, 61, 61))
	createTestImageFile(t, dir, "a.png", leaf)
	if err := os.WriteFile(filepath.Join(dir, "b.png"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	createTestImageFile(t, dir, "c.png", leaf)

	res, err := newTestRunner(dir).Run(context.Background(), 10)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Images) != 2 || res.Images[0].Name != "a.png" || res.Images[1].Name != "c.png" {
		t.Errorf("measured images: %+v", res.Images)
	}
	if len(res.Failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(res.Failures))
	}
	var uerr *UnreadableImageError
	if !errors.As(res.Failures[0], &uerr) || filepath.Base(uerr.Path) != "b.png" {
		t.Errorf("failure = %v, want UnreadableImageError for b.png", res.Failures[0])
	}
}

func TestRun_NoLeaves(t *testing.T) {
	dir := t.TempDir()
	createTestImageFile(t, dir, "bare.png", createLeafImage(50, 50))

	res, err := newTestRunner(dir).Run(context.Background(), 10)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	sum := res.Images[0].Result.Summary
	if sum.Count != 0 || sum.TotalCm2 != 0 || sum.AverageCm2 != 0 {
		t.Errorf("summary = %+v, want zeros", sum)
	}
}

func TestRun_MinimumArea(t *testing.T) {
	dir := t.TempDir()
	// 11x11 square traces to exactly 100 px²; at ratio 10 that is 1.00 cm².
	createTestImageFile(t, dir, "small.png", createLeafImage(60, 60, image.Rect(20, 20, 31, 31)))

	tests := []struct {
		minCm2 float64
		want   int
	}{
		{0.99, 1},
		{1.00, 0},
	}
	for _, tt := range tests {
		opts := DefaultOptions(dir)
		opts.OutputDir = ""
		opts.MinLeafAreaCm2 = tt.minCm2
		res, err := NewRunner(opts, segment.New(), zerolog.Nop()).Run(context.Background(), 10)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if got := res.Images[0].Result.Summary.Count; got != tt.want {
			t.Errorf("min %.2f cm²: %d leaves, want %d", tt.minCm2, got, tt.want)
		}
	}
}

func TestRun_InvalidRatio(t *testing.T) {
	_, err := newTestRunner(t.TempDir()).Run(context.Background(), 0)
	var cerr *calibration.Error
	if !errors.As(err, &cerr) {
		t.Errorf("error = %v, want *calibration.Error", err)
	}
}

func TestRun_Cancelled(t *testing.T) {
	dir := t.TempDir()
	createTestImageFile(t, dir, "a.png", createLeafImage(20, 20))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newTestRunner(dir).Run(ctx, 10); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestRunner_Calibrate(t *testing.T) {
	dir := t.TempDir()
	createTestImageFile(t, dir, DefaultReference, createLeafImage(50, 50))
	r := newTestRunner(dir)

	ratio, err := r.Calibrate(context.Background(), calibration.StaticSource{{X: 0, Y: 0}, {X: 0, Y: 40}})
	if err != nil || ratio != 40 {
		t.Errorf("Calibrate = %v, %v; want 40", ratio, err)
	}

	_, err = r.Calibrate(context.Background(), calibration.StaticSource{{X: 0, Y: 0}})
	if !errors.Is(err, calibration.ErrPointCount) {
		t.Errorf("one point: error = %v, want ErrPointCount", err)
	}
}

func TestRunner_CalibrateMissingReference(t *testing.T) {
	r := newTestRunner(t.TempDir())

	_, err := r.Calibrate(context.Background(), calibration.StaticSource{{X: 0, Y: 0}, {X: 0, Y: 40}})
	var cerr *calibration.Error
	if !errors.As(err, &cerr) || !errors.Is(err, ErrNoReference) {
		t.Errorf("error = %v, want *calibration.Error wrapping ErrNoReference", err)
	}
}

func TestShapes(t *testing.T) {
	regions := []detection.Region{
		{Simplified: []image.Point{{0, 0}, {4, 0}, {4, 4}}},
		{Simplified: []image.Point{{9, 9}, {12, 9}, {12, 12}}},
	}
	shapes := Shapes(regions)
	if len(shapes) != 2 || shapes[0].Label != "1" || shapes[1].Label != "2" {
		t.Errorf("Shapes() = %+v", shapes)
	}
}
