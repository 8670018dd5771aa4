package batch

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ironsheep/leaf-area-tools/internal/calibration"
	"github.com/ironsheep/leaf-area-tools/internal/detection"
	"github.com/ironsheep/leaf-area-tools/internal/imaging"
	"github.com/ironsheep/leaf-area-tools/internal/measure"
	"github.com/ironsheep/leaf-area-tools/internal/segment"
)

// DefaultSuffix is appended to the stem of annotated image names.
const DefaultSuffix = "_contours"

// DefaultOutputSubdir is the directory, relative to the input directory,
// that receives annotated images unless another is configured.
const DefaultOutputSubdir = "output"

// Options configures a Runner.
type Options struct {
	InputDir  string
	Reference string // file name inside InputDir; excluded from measurement

	// OutputDir receives annotated images. Empty disables annotation. When it
	// is the input directory, files whose stem ends in Suffix are treated as
	// earlier output and not measured.
	OutputDir string
	Suffix    string

	MinLeafAreaCm2   float64
	SimplifyFraction float64
	Order            detection.Order

	// Workers is the number of images processed concurrently. Values below
	// 2 process sequentially.
	Workers int
}

// DefaultOptions returns options for dir with the stock thresholds.
func DefaultOptions(dir string) Options {
	return Options{
		InputDir:         dir,
		Reference:        DefaultReference,
		OutputDir:        filepath.Join(dir, DefaultOutputSubdir),
		Suffix:           DefaultSuffix,
		MinLeafAreaCm2:   measure.DefaultMinLeafAreaCm2,
		SimplifyFraction: detection.DefaultSimplifyFraction,
		Order:            detection.OrderDiscovery,
	}
}

// ImageResult is the outcome for one measured image.
type ImageResult struct {
	Path      string             `json:"path"`
	Name      string             `json:"name"`
	Regions   []detection.Region `json:"-"`
	Result    measure.Result     `json:"result"`
	Annotated string             `json:"annotated,omitempty"`
	Size      image.Point        `json:"-"`
}

// Result collects a whole batch. Images keeps enumeration order.
type Result struct {
	Ratio    calibration.Ratio `json:"ratio"`
	Images   []ImageResult     `json:"images"`
	Failures []error           `json:"-"`
}

// Summaries returns one summary per measured image, in order.
func (r *Result) Summaries() []measure.ImageSummary {
	out := make([]measure.ImageSummary, len(r.Images))
	for i, img := range r.Images {
		out[i] = img.Result.Summary
	}
	return out
}

// Records returns every leaf record of the batch, image by image.
func (r *Result) Records() []measure.LeafRecord {
	var out []measure.LeafRecord
	for _, img := range r.Images {
		out = append(out, img.Result.Records...)
	}
	return out
}

// Runner processes a directory of leaf images.
//
// Images share nothing but the ratio and the read-only configuration, so a
// Runner may process them concurrently.
type Runner struct {
	Options   Options
	Segmenter *segment.Segmenter
	Extractor detection.Extractor
	Style     imaging.AnnotateStyle
	Logger    zerolog.Logger
}

// NewRunner returns a Runner using the native contour backend and the
// default annotation style.
func NewRunner(opts Options, seg *segment.Segmenter, logger zerolog.Logger) *Runner {
	return &Runner{
		Options:   opts,
		Segmenter: seg,
		Extractor: detection.Native,
		Style:     imaging.DefaultAnnotateStyle(),
		Logger:    logger,
	}
}

// Calibrate loads the reference image and derives the batch ratio from src.
// Every failure is returned as a *calibration.Error.
func (r *Runner) Calibrate(ctx context.Context, src calibration.PointSource) (calibration.Ratio, error) {
	path := filepath.Join(r.Options.InputDir, r.Options.Reference)
	ref, err := imaging.Load(path)
	if err != nil {
		return 0, &calibration.Error{Err: fmt.Errorf("%w: %s: %w", ErrNoReference, path, err)}
	}
	ratio, err := calibration.FromSource(ctx, src, ref)
	if err != nil {
		return 0, err
	}
	r.Logger.Info().Float64("ratio", float64(ratio)).Msgf("Scale set: %s", ratio)
	return ratio, nil
}

// Run measures every image in the input directory. Per-image failures are
// collected in Result.Failures; the returned error is non-nil only when the
// directory cannot be listed or ctx is cancelled.
func (r *Runner) Run(ctx context.Context, ratio calibration.Ratio) (*Result, error) {
	if ratio <= 0 {
		return nil, &calibration.Error{Err: fmt.Errorf("ratio %v must be positive", float64(ratio))}
	}
	paths, err := Enumerate(r.Options.InputDir, r.Options.Reference)
	if err != nil {
		return nil, err
	}
	if sameDir(r.Options.OutputDir, r.Options.InputDir) {
		paths = r.skipAnnotated(paths)
	}
	if r.Options.OutputDir != "" {
		if err := os.MkdirAll(r.Options.OutputDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	outcomes, err := r.processAll(ctx, paths, ratio)
	if err != nil {
		return nil, err
	}

	res := &Result{Ratio: ratio, Images: make([]ImageResult, 0, len(paths))}
	for _, o := range outcomes {
		if o.measured {
			res.Images = append(res.Images, o.image)
		}
		res.Failures = append(res.Failures, o.errs...)
	}
	r.Logger.Info().
		Int("images", len(res.Images)).
		Int("failures", len(res.Failures)).
		Msg("batch complete")
	return res, nil
}

// skipAnnotated drops the annotated copies written by an earlier run into
// the input directory.
func (r *Runner) skipAnnotated(paths []string) []string {
	if r.Options.Suffix == "" {
		return paths
	}
	kept := paths[:0:0]
	for _, p := range paths {
		base := filepath.Base(p)
		if strings.HasSuffix(strings.TrimSuffix(base, filepath.Ext(base)), r.Options.Suffix) {
			r.Logger.Debug().Str("image", base).Msg("skipping annotated output")
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

func sameDir(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

type outcome struct {
	image    ImageResult
	measured bool
	errs     []error
}

// processAll runs process over paths with up to Options.Workers goroutines,
// returning outcomes in the order of paths.
func (r *Runner) processAll(ctx context.Context, paths []string, ratio calibration.Ratio) ([]outcome, error) {
	outcomes := make([]outcome, len(paths))

	workers := r.Options.Workers
	if workers < 2 {
		for i, p := range paths {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			outcomes[i] = r.process(p, ratio)
		}
		return outcomes, nil
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(workers, len(paths)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = r.process(paths[i], ratio)
			}
		}()
	}

dispatch:
	for i := range paths {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// process measures one image file and writes its annotated copy.
func (r *Runner) process(path string, ratio calibration.Ratio) outcome {
	name := filepath.Base(path)
	log := r.Logger.With().Str("image", name).Logger()
	log.Info().Msgf("Processing %s", name)

	img, err := imaging.Load(path)
	if err != nil {
		uerr := &UnreadableImageError{Path: path, Err: err}
		log.Warn().Err(err).Msg("skipping unreadable image")
		return outcome{errs: []error{uerr}}
	}

	regions, res, err := r.Measure(name, img, ratio)
	if err != nil {
		log.Error().Err(err).Msg("contour extraction failed")
		return outcome{errs: []error{&ImageError{Path: path, Stage: "contour extraction", Err: err}}}
	}
	out := outcome{
		measured: true,
		image: ImageResult{
			Path:    path,
			Name:    name,
			Regions: regions,
			Result:  res,
			Size:    img.Bounds().Size(),
		},
	}
	log.Debug().
		Int("leaves", res.Summary.Count).
		Float64("total_cm2", res.Summary.TotalCm2).
		Msg("measured")

	if r.Options.OutputDir == "" {
		return out
	}
	dst := imaging.AnnotatedPath(r.Options.OutputDir, path, r.Options.Suffix)
	if err := imaging.Save(dst, imaging.Annotate(img, Shapes(regions), r.Style)); err != nil {
		log.Error().Err(err).Msg("failed to write annotated image")
		out.errs = append(out.errs, &ImageError{Path: path, Stage: "annotation", Err: err})
		return out
	}
	out.image.Annotated = dst
	return out
}

// Measure segments img, extracts and filters its regions and converts them
// to physical areas.
func (r *Runner) Measure(name string, img *image.NRGBA, ratio calibration.Ratio) ([]detection.Region, measure.Result, error) {
	mask := r.Segmenter.Segment(img)
	h, err := r.Extractor.Extract(mask)
	if err != nil {
		return nil, measure.Result{}, err
	}
	regions := detection.Filter(h, detection.FilterOptions{
		MinPixelArea:     measure.MinPixelArea(r.Options.MinLeafAreaCm2, ratio),
		SimplifyFraction: r.Options.SimplifyFraction,
		Order:            r.Options.Order,
	})
	return regions, measure.Aggregate(name, regions, ratio), nil
}

// Shapes converts accepted regions into numbered outlines for annotation.
func Shapes(regions []detection.Region) []imaging.Shape {
	shapes := make([]imaging.Shape, len(regions))
	for i, reg := range regions {
		shapes[i] = imaging.Shape{Polygon: reg.Simplified, Label: strconv.Itoa(i + 1)}
	}
	return shapes
}
