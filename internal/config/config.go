// Package config holds the run configuration for leaf-area.
//
// A configuration file is optional: Load returns Default() when the file
// does not exist. Command-line flags are applied on top of whatever Load
// returned, and Validate is called once all sources have been merged.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/leaf-area-tools/internal/batch"
	"github.com/ironsheep/leaf-area-tools/internal/detection"
	"github.com/ironsheep/leaf-area-tools/internal/imaging"
	"github.com/ironsheep/leaf-area-tools/internal/measure"
	"github.com/ironsheep/leaf-area-tools/internal/segment"
)

// Default output file names.
const (
	DefaultSummaryCSV = "Leaf_Area_Results.csv"
	DefaultDetailCSV  = "Individual_Leaf_Areas.csv"
)

// Default annotation colors: red outlines, blue labels.
const (
	DefaultOutlineColor = "#FF0000"
	DefaultLabelColor   = "#0000FF"
)

// Config holds every tunable of a measurement run.
type Config struct {
	// Input
	InputDir        string          `yaml:"input_dir"`
	Reference       string          `yaml:"reference"`
	ReferencePoints []imaging.Point `yaml:"reference_points,omitempty"`
	PromptTimeout   time.Duration   `yaml:"prompt_timeout"`

	// Segmentation
	ColorRanges     []segment.ColorRange `yaml:"color_ranges"`
	KernelSize      int                  `yaml:"kernel_size"`
	OpenIterations  int                  `yaml:"open_iterations"`
	CloseIterations int                  `yaml:"close_iterations"`

	// Region filtering
	MinLeafAreaCm2   float64 `yaml:"min_leaf_area_cm2"`
	SimplifyFraction float64 `yaml:"simplify_fraction"`
	Order            string  `yaml:"order"`
	Backend          string  `yaml:"backend"`

	// Output
	OutputDir       string `yaml:"output_dir"`
	Annotate        bool   `yaml:"annotate"`
	AnnotatedSuffix string `yaml:"annotated_suffix"`
	OutlineColor    string `yaml:"outline_color"`
	LabelColor      string `yaml:"label_color"`
	SummaryCSV      string `yaml:"summary_csv"`
	DetailCSV       string `yaml:"detail_csv"`
	JSONReport      string `yaml:"json_report,omitempty"`

	Workers  int    `yaml:"workers"`
	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`
}

// Default returns a Config populated with the standard settings.
func Default() *Config {
	return &Config{
		InputDir:         ".",
		Reference:        batch.DefaultReference,
		ColorRanges:      segment.DefaultRanges(),
		KernelSize:       segment.DefaultKernelSize,
		OpenIterations:   segment.DefaultOpenIterations,
		CloseIterations:  segment.DefaultCloseIterations,
		MinLeafAreaCm2:   measure.DefaultMinLeafAreaCm2,
		SimplifyFraction: detection.DefaultSimplifyFraction,
		Order:            string(detection.OrderDiscovery),
		Backend:          detection.BackendNative,
		Annotate:         true,
		AnnotatedSuffix:  batch.DefaultSuffix,
		OutlineColor:     DefaultOutlineColor,
		LabelColor:       DefaultLabelColor,
		SummaryCSV:       DefaultSummaryCSV,
		DetailCSV:        DefaultDetailCSV,
		Workers:          1,
		LogLevel:         "info",
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.InputDir == "" {
		errs = append(errs, errors.New("input_dir is required"))
	}
	if c.Reference == "" {
		errs = append(errs, errors.New("reference is required"))
	}
	if n := len(c.ReferencePoints); n != 0 && n != 2 {
		errs = append(errs, fmt.Errorf("reference_points must hold 2 points, got %d", n))
	}
	if c.PromptTimeout < 0 {
		errs = append(errs, fmt.Errorf("prompt_timeout %v must not be negative", c.PromptTimeout))
	}
	if err := c.Segmenter().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.MinLeafAreaCm2 < 0 {
		errs = append(errs, fmt.Errorf("min_leaf_area_cm2 %v must not be negative", c.MinLeafAreaCm2))
	}
	if c.SimplifyFraction < 0 {
		errs = append(errs, fmt.Errorf("simplify_fraction %v must not be negative", c.SimplifyFraction))
	}
	if _, err := detection.ParseOrder(c.Order); err != nil {
		errs = append(errs, err)
	}
	switch c.Backend {
	case "", detection.BackendNative, detection.BackendOpenCV:
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}
	if _, err := c.AnnotateStyle(); err != nil {
		errs = append(errs, err)
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers %d must not be negative", c.Workers))
	}
	if c.SummaryCSV == "" || c.DetailCSV == "" {
		errs = append(errs, errors.New("summary_csv and detail_csv are required"))
	}
	return errors.Join(errs...)
}

// Load reads configuration from the YAML file at path. A missing file yields
// Default(); fields absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Segmenter returns a segmenter configured from c.
func (c *Config) Segmenter() *segment.Segmenter {
	return &segment.Segmenter{
		Ranges:          append([]segment.ColorRange(nil), c.ColorRanges...),
		KernelSize:      c.KernelSize,
		OpenIterations:  c.OpenIterations,
		CloseIterations: c.CloseIterations,
	}
}

// BatchOptions returns the batch options described by c. Annotated images go
// to ResolvedOutputDir; annotation is disabled when Annotate is false.
func (c *Config) BatchOptions() batch.Options {
	out := c.ResolvedOutputDir()
	if !c.Annotate {
		out = ""
	}
	order, _ := detection.ParseOrder(c.Order)
	return batch.Options{
		InputDir:         c.InputDir,
		Reference:        c.Reference,
		OutputDir:        out,
		Suffix:           c.AnnotatedSuffix,
		MinLeafAreaCm2:   c.MinLeafAreaCm2,
		SimplifyFraction: c.SimplifyFraction,
		Order:            order,
		Workers:          c.Workers,
	}
}

// NewRunner builds a batch runner for opts with c's segmenter, contour
// backend and annotation style.
func (c *Config) NewRunner(opts batch.Options, logger zerolog.Logger) (*batch.Runner, error) {
	ex, err := detection.NewExtractor(c.Backend)
	if err != nil {
		return nil, err
	}
	style, err := c.AnnotateStyle()
	if err != nil {
		return nil, err
	}
	r := batch.NewRunner(opts, c.Segmenter(), logger)
	r.Extractor = ex
	r.Style = style
	return r, nil
}

// AnnotateStyle returns the default annotation style with the configured
// colors. Empty color strings keep the default.
func (c *Config) AnnotateStyle() (imaging.AnnotateStyle, error) {
	style := imaging.DefaultAnnotateStyle()
	if c.OutlineColor != "" {
		col, err := imaging.ParseHexColor(c.OutlineColor)
		if err != nil {
			return style, fmt.Errorf("outline_color: %w", err)
		}
		style.Outline = col
	}
	if c.LabelColor != "" {
		col, err := imaging.ParseHexColor(c.LabelColor)
		if err != nil {
			return style, fmt.Errorf("label_color: %w", err)
		}
		style.LabelColor = col
	}
	return style, nil
}

// ResolvedOutputDir returns OutputDir, or the "output" subdirectory of
// InputDir when OutputDir is unset.
func (c *Config) ResolvedOutputDir() string {
	if c.OutputDir != "" {
		return c.OutputDir
	}
	return filepath.Join(c.InputDir, batch.DefaultOutputSubdir)
}

// ReportDir is the directory CSV and JSON reports are written to.
func (c *Config) ReportDir() string {
	return c.ResolvedOutputDir()
}
