package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/ironsheep/leaf-area-tools/internal/batch"
	"github.com/ironsheep/leaf-area-tools/internal/calibration"
	"github.com/ironsheep/leaf-area-tools/internal/config"
	"github.com/ironsheep/leaf-area-tools/internal/imaging"
	"github.com/ironsheep/leaf-area-tools/internal/measure"
	"github.com/ironsheep/leaf-area-tools/internal/report"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "leaf_measure").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn().Str("tool", params.Name).Err(err).Msg("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Merges optional overrides onto the server configuration
//  3. Loads images from cache as needed
//  4. Runs the segmentation/measurement pipeline
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(args)
	case "image_unload":
		return s.handleImageUnload(args)
	case "leaf_calibrate":
		return s.handleLeafCalibrate(args)
	case "leaf_segment":
		return s.handleLeafSegment(args)
	case "leaf_measure":
		return s.handleLeafMeasure(args)
	case "leaf_batch":
		return s.handleLeafBatch(ctx, args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Overrides ===

// segmentationArgs are optional per-call overrides of the configured
// morphology. Nil fields keep the configured value.
type segmentationArgs struct {
	KernelSize      *int `json:"kernel_size"`
	OpenIterations  *int `json:"open_iterations"`
	CloseIterations *int `json:"close_iterations"`
}

type filterArgs struct {
	MinLeafAreaCm2 *float64 `json:"min_leaf_area_cm2"`
	Order          string   `json:"order"`
}

// annotationArgs override the configured annotation colors.
type annotationArgs struct {
	OutlineColor string `json:"outline_color"`
	LabelColor   string `json:"label_color"`
}

// settings returns a copy of the server configuration with the overrides
// applied and validated.
func (s *Server) settings(seg segmentationArgs, f filterArgs, ann annotationArgs) (*config.Config, error) {
	cfg := *s.cfg
	if ann.OutlineColor != "" {
		cfg.OutlineColor = ann.OutlineColor
	}
	if ann.LabelColor != "" {
		cfg.LabelColor = ann.LabelColor
	}
	if seg.KernelSize != nil {
		cfg.KernelSize = *seg.KernelSize
	}
	if seg.OpenIterations != nil {
		cfg.OpenIterations = *seg.OpenIterations
	}
	if seg.CloseIterations != nil {
		cfg.CloseIterations = *seg.CloseIterations
	}
	if f.MinLeafAreaCm2 != nil {
		cfg.MinLeafAreaCm2 = *f.MinLeafAreaCm2
	}
	if f.Order != "" {
		cfg.Order = f.Order
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// runner builds a batch runner for cfg using the configured contour backend
// and annotation colors.
func (s *Server) runner(cfg *config.Config, opts batch.Options) (*batch.Runner, error) {
	return cfg.NewRunner(opts, s.logger)
}

func checkRatio(ratio float64) (calibration.Ratio, error) {
	if ratio <= 0 {
		return 0, fmt.Errorf("ratio must be positive, got %v", ratio)
	}
	return calibration.Ratio(ratio), nil
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

type imageUnloadArgs struct {
	Path string `json:"path"`
	All  bool   `json:"all"`
}

// UnloadResult is returned by image_unload.
type UnloadResult struct {
	Cached int `json:"cached"`
}

func (s *Server) handleImageUnload(args json.RawMessage) (interface{}, error) {
	var a imageUnloadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	switch {
	case a.All:
		s.cache.Clear()
	case a.Path != "":
		s.cache.Evict(a.Path)
	default:
		return nil, fmt.Errorf("path or all is required")
	}
	return &UnloadResult{Cached: s.cache.Len()}, nil
}

// === Calibration Handlers ===

type leafCalibrateArgs struct {
	Points []imaging.Point `json:"points"`
}

// CalibrateResult is returned by leaf_calibrate.
type CalibrateResult struct {
	Ratio   float64 `json:"ratio_px_per_cm"`
	Message string  `json:"message"`
}

func (s *Server) handleLeafCalibrate(args json.RawMessage) (interface{}, error) {
	var a leafCalibrateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	ratio, err := calibration.Calibrate(a.Points)
	if err != nil {
		return nil, err
	}
	return &CalibrateResult{
		Ratio:   float64(ratio),
		Message: fmt.Sprintf("Scale set: %s", ratio),
	}, nil
}

// === Segmentation Handlers ===

type leafSegmentArgs struct {
	Path        string `json:"path"`
	IncludeMask bool   `json:"include_mask"`
	segmentationArgs
}

// SegmentResult is returned by leaf_segment.
type SegmentResult struct {
	Width              int     `json:"width"`
	Height             int     `json:"height"`
	ForegroundPixels   int     `json:"foreground_pixels"`
	ForegroundFraction float64 `json:"foreground_fraction"`
	MaskPNGBase64      string  `json:"mask_png_base64,omitempty"`
}

func (s *Server) handleLeafSegment(args json.RawMessage) (interface{}, error) {
	var a leafSegmentArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	cfg, err := s.settings(a.segmentationArgs, filterArgs{}, annotationArgs{})
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	mask := cfg.Segmenter().Segment(img)
	res := &SegmentResult{
		Width:            mask.Width,
		Height:           mask.Height,
		ForegroundPixels: mask.Count(),
	}
	if n := mask.Width * mask.Height; n > 0 {
		res.ForegroundFraction = float64(res.ForegroundPixels) / float64(n)
	}
	if a.IncludeMask {
		res.MaskPNGBase64, err = imaging.EncodePNGBase64(mask.Image())
		if err != nil {
			return nil, fmt.Errorf("failed to encode mask: %w", err)
		}
	}
	return res, nil
}

// === Measurement Handlers ===

type leafMeasureArgs struct {
	Path          string  `json:"path"`
	Ratio         float64 `json:"ratio"`
	AnnotatedPath string  `json:"annotated_path"`
	segmentationArgs
	filterArgs
	annotationArgs
}

// MeasureResult is returned by leaf_measure. Areas are rounded to two
// decimals.
type MeasureResult struct {
	report.Document
	Annotated string `json:"annotated,omitempty"`
}

func (s *Server) handleLeafMeasure(args json.RawMessage) (interface{}, error) {
	var a leafMeasureArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	ratio, err := checkRatio(a.Ratio)
	if err != nil {
		return nil, err
	}
	cfg, err := s.settings(a.segmentationArgs, a.filterArgs, a.annotationArgs)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	r, err := s.runner(cfg, cfg.BatchOptions())
	if err != nil {
		return nil, err
	}

	name := filepath.Base(a.Path)
	regions, res, err := r.Measure(name, img, ratio)
	if err != nil {
		return nil, err
	}

	out := &MeasureResult{Document: report.NewDocument(float64(ratio), []measure.ImageSummary{res.Summary}, res.Records, nil)}
	if a.AnnotatedPath != "" {
		if err := imaging.Save(a.AnnotatedPath, imaging.Annotate(img, batch.Shapes(regions), r.Style)); err != nil {
			return nil, err
		}
		out.Annotated = a.AnnotatedPath
	}
	return out, nil
}

type leafBatchArgs struct {
	Dir       string  `json:"dir"`
	Ratio     float64 `json:"ratio"`
	Reference string  `json:"reference"`
	OutputDir string  `json:"output_dir"`
	Workers   int     `json:"workers"`
	segmentationArgs
	filterArgs
	annotationArgs
}

// BatchResult is returned by leaf_batch.
type BatchResult struct {
	report.Document
	SummaryCSV string `json:"summary_csv,omitempty"`
	DetailCSV  string `json:"detail_csv,omitempty"`
}

func (s *Server) handleLeafBatch(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a leafBatchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	ratio, err := checkRatio(a.Ratio)
	if err != nil {
		return nil, err
	}
	cfg, err := s.settings(a.segmentationArgs, a.filterArgs, a.annotationArgs)
	if err != nil {
		return nil, err
	}

	opts := cfg.BatchOptions()
	opts.InputDir = a.Dir
	opts.OutputDir = a.OutputDir
	if a.Reference != "" {
		opts.Reference = a.Reference
	}
	if a.Workers > 0 {
		opts.Workers = a.Workers
	}

	r, err := s.runner(cfg, opts)
	if err != nil {
		return nil, err
	}
	res, err := r.Run(ctx, ratio)
	if err != nil {
		return nil, err
	}

	out := &BatchResult{Document: report.NewDocument(float64(ratio), res.Summaries(), res.Records(), res.Failures)}
	if a.OutputDir == "" {
		return out, nil
	}

	out.SummaryCSV = filepath.Join(a.OutputDir, cfg.SummaryCSV)
	if err := report.WriteFile(out.SummaryCSV, func(w io.Writer) error {
		return report.WriteSummary(w, res.Summaries())
	}); err != nil {
		return nil, err
	}
	out.DetailCSV = filepath.Join(a.OutputDir, cfg.DetailCSV)
	if err := report.WriteFile(out.DetailCSV, func(w io.Writer) error {
		return report.WriteDetail(w, res.Records())
	}); err != nil {
		return nil, err
	}
	return out, nil
}
