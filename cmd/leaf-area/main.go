package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/ironsheep/leaf-area-tools/internal/calibration"
	"github.com/ironsheep/leaf-area-tools/internal/config"
	"github.com/ironsheep/leaf-area-tools/internal/imaging"
	"github.com/ironsheep/leaf-area-tools/internal/logging"
	"github.com/ironsheep/leaf-area-tools/internal/report"
	"github.com/ironsheep/leaf-area-tools/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// DefaultConfigFile is read from the working directory when -config is not given.
const DefaultConfigFile = "leaf-area.yaml"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := "run"
	if len(args) > 0 {
		switch args[0] {
		case "--version", "-v", "version":
			fmt.Fprintf(stdout, "leaf-area %s\n", Version)
			fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
			return 0
		case "--help", "-h", "help":
			printUsage(stdout)
			return 0
		case "run", "serve":
			cmd, args = args[0], args[1:]
		}
	}

	cfg, err := loadConfig(cmd, args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "leaf-area: %v\n", err)
		return 2
	}

	logger, err := logging.Setup(cfg.LogLevel, cfg.LogJSON)
	if err != nil {
		fmt.Fprintf(stderr, "leaf-area: %v\n", err)
		return 2
	}
	logger.Debug().Str("version", Version).Str("built", BuildTime).Str("commit", GitCommit).Msg("starting")

	if cmd == "serve" {
		srv := server.New(cfg, logger)
		srv.Version = Version
		if err := srv.Run(ctx, stdin, stdout); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("server error")
			return 1
		}
		return 0
	}

	if err := measureDirectory(ctx, cfg, logger, stdin, stdout); err != nil {
		logger.Error().Err(err).Msg("run failed")
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "leaf-area - measure leaf surface area from photographs")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  leaf-area [run] [flags]   Calibrate on the scale image, then measure every image in -dir")
	fmt.Fprintln(w, "  leaf-area serve [flags]   Serve the measurement tools over MCP on stdin/stdout")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  --version, -v    Print version information")
	fmt.Fprintln(w, "  --help, -h       Print this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'leaf-area run -h' for the full flag list.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintf(w, "  %s=debug    Enable debug logging\n", logging.LevelEnv)
}

// loadConfig reads the configuration file and applies the flags that were
// explicitly set on the command line.
func loadConfig(cmd string, args []string, stderr io.Writer) (*config.Config, error) {
	fs := flag.NewFlagSet("leaf-area "+cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		cfgPath    = fs.String("config", DefaultConfigFile, "YAML configuration file (optional)")
		dir        = fs.String("dir", "", "directory of leaf images")
		out        = fs.String("out", "", "directory for annotated images and reports (default: <dir>/output)")
		reference  = fs.String("reference", "", "file name of the scale image inside -dir")
		points     = fs.String("points", "", `reference points 1 cm apart as "x1,y1;x2,y2" (prompted when empty)`)
		timeout    = fs.Duration("prompt-timeout", 0, "give up waiting for typed reference points after this long")
		kernel     = fs.Int("kernel", 0, "morphology kernel size in pixels")
		openIter   = fs.Int("open", 0, "opening iterations")
		closeIter  = fs.Int("close", 0, "closing iterations (3-7 fuses mottled leaves)")
		minArea    = fs.Float64("min-area", 0, "minimum leaf area in cm² (exclusive)")
		order      = fs.String("order", "", "leaf numbering: discovery or position")
		backend    = fs.String("backend", "", "contour backend: native or opencv")
		workers    = fs.Int("workers", 0, "images processed concurrently")
		suffix     = fs.String("suffix", "", "annotated image name suffix")
		noAnnotate = fs.Bool("no-annotate", false, "do not write annotated images")
		outline    = fs.String("outline-color", "", "annotated outline color as #RRGGBB")
		labelColor = fs.String("label-color", "", "annotated label color as #RRGGBB")
		jsonReport = fs.String("json", "", "also write a JSON report to this file")
		logLevel   = fs.String("log-level", "", "debug, info, warn or error")
		logJSON    = fs.Bool("log-json", false, "log as JSON instead of console text")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return nil, err
	}

	var perr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dir":
			cfg.InputDir = *dir
		case "out":
			cfg.OutputDir = *out
		case "reference":
			cfg.Reference = *reference
		case "points":
			cfg.ReferencePoints, perr = parsePoints(*points)
		case "prompt-timeout":
			cfg.PromptTimeout = *timeout
		case "kernel":
			cfg.KernelSize = *kernel
		case "open":
			cfg.OpenIterations = *openIter
		case "close":
			cfg.CloseIterations = *closeIter
		case "min-area":
			cfg.MinLeafAreaCm2 = *minArea
		case "order":
			cfg.Order = *order
		case "backend":
			cfg.Backend = *backend
		case "workers":
			cfg.Workers = *workers
		case "suffix":
			cfg.AnnotatedSuffix = *suffix
		case "no-annotate":
			cfg.Annotate = !*noAnnotate
		case "json":
			cfg.JSONReport = *jsonReport
		case "log-level":
			cfg.LogLevel = *logLevel
		case "outline-color":
			cfg.OutlineColor = *outline
		case "label-color":
			cfg.LabelColor = *labelColor
		case "log-json":
			cfg.LogJSON = *logJSON
		}
	})
	if perr != nil {
		return nil, perr
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// parsePoints parses "x1,y1;x2,y2".
func parsePoints(s string) ([]imaging.Point, error) {
	var pts []imaging.Point
	for _, part := range strings.Split(s, ";") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		p, err := calibration.ParsePoint(part)
		if err != nil {
			return nil, err
		}
		pts = append(pts, p)
	}
	return pts, nil
}

// measureDirectory calibrates on the reference image, measures every image
// and writes the reports.
func measureDirectory(ctx context.Context, cfg *config.Config, logger zerolog.Logger, stdin io.Reader, stdout io.Writer) error {
	runner, err := cfg.NewRunner(cfg.BatchOptions(), logging.Component(logger, "batch"))
	if err != nil {
		return err
	}

	var src calibration.PointSource = &calibration.PromptSource{In: stdin, Out: stdout, Timeout: cfg.PromptTimeout}
	if len(cfg.ReferencePoints) > 0 {
		src = calibration.StaticSource(cfg.ReferencePoints)
	}
	ratio, err := runner.Calibrate(ctx, src)
	if err != nil {
		return err
	}

	res, err := runner.Run(ctx, ratio)
	if err != nil {
		return err
	}
	for _, ferr := range res.Failures {
		logger.Warn().Err(ferr).Msg("image skipped")
	}

	dir := cfg.ReportDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	summaryPath := filepath.Join(dir, cfg.SummaryCSV)
	if err := report.WriteFile(summaryPath, func(w io.Writer) error {
		return report.WriteSummary(w, res.Summaries())
	}); err != nil {
		return err
	}
	detailPath := filepath.Join(dir, cfg.DetailCSV)
	if err := report.WriteFile(detailPath, func(w io.Writer) error {
		return report.WriteDetail(w, res.Records())
	}); err != nil {
		return err
	}
	logger.Info().Str("path", summaryPath).Msg("Results saved")
	logger.Info().Str("path", detailPath).Msg("Individual leaf areas saved")

	if cfg.JSONReport != "" {
		jsonPath := cfg.JSONReport
		if !filepath.IsAbs(jsonPath) {
			jsonPath = filepath.Join(dir, jsonPath)
		}
		doc := report.NewDocument(float64(ratio), res.Summaries(), res.Records(), res.Failures)
		if err := report.WriteFile(jsonPath, func(w io.Writer) error {
			return report.WriteJSON(w, doc)
		}); err != nil {
			return err
		}
		logger.Info().Str("path", jsonPath).Msg("JSON report saved")
	}
	if cfg.Annotate {
		logger.Info().Str("dir", cfg.BatchOptions().OutputDir).Msg("Annotated images saved")
	}
	return nil
}
