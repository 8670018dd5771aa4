package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// pathProperty is the schema shared by every tool that reads an image file.
var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the image file",
}

// segmentationProperties are the optional overrides of the configured
// segmentation settings.
func segmentationProperties() map[string]interface{} {
	return map[string]interface{}{
		"kernel_size": map[string]interface{}{
			"type":        "integer",
			"description": "Side of the square morphology kernel in pixels, odd. Defaults to the server configuration (5).",
		},
		"open_iterations": map[string]interface{}{
			"type":        "integer",
			"description": "Erode/dilate passes of the opening step. Defaults to the server configuration (2).",
		},
		"close_iterations": map[string]interface{}{
			"type":        "integer",
			"description": "Dilate/erode passes of the closing step; raise to 3-7 to fuse mottled leaves. Defaults to the server configuration (2).",
		},
	}
}

// filterProperties are the optional overrides of region filtering.
func filterProperties() map[string]interface{} {
	return map[string]interface{}{
		"min_leaf_area_cm2": map[string]interface{}{
			"type":        "number",
			"description": "Regions must be strictly larger than this to count as leaves. Default 0.5.",
		},
		"order": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"discovery", "position"},
			"description": "Leaf numbering: tracing order or top-to-bottom, left-to-right by bounding box.",
		},
	}
}

// annotationProperties override the configured annotation colors.
func annotationProperties() map[string]interface{} {
	return map[string]interface{}{
		"outline_color": map[string]interface{}{
			"type":        "string",
			"description": "Leaf outline color as #RRGGBB or #RRGGBBAA. Defaults to the server configuration (#FF0000).",
		},
		"label_color": map[string]interface{}{
			"type":        "string",
			"description": "Leaf number color as #RRGGBB or #RRGGBBAA. Defaults to the server configuration (#0000FF).",
		},
	}
}

func merge(maps ...map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{}
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

var ratioProperty = map[string]interface{}{
	"type":        "number",
	"description": "Calibration ratio in pixels per centimeter, as returned by leaf_calibrate.",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format and size. The decoded image is cached for subsequent leaf_* calls on the same path.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_unload",
			Description: "Drop a cached image so the next call re-reads it from disk, e.g. after the file was replaced. With all=true the whole cache is cleared.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"all": map[string]interface{}{
						"type":        "boolean",
						"description": "Clear every cached image. Default false.",
					},
				},
			},
		},
		{
			Name:        "leaf_calibrate",
			Description: "Convert two points placed exactly 1 cm apart on a scale image into a pixels-per-centimeter ratio.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"points": map[string]interface{}{
						"type":        "array",
						"minItems":    2,
						"maxItems":    2,
						"description": "The two reference points in pixel coordinates",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x": map[string]interface{}{"type": "integer"},
								"y": map[string]interface{}{"type": "integer"},
							},
							"required": []string{"x", "y"},
						},
					},
				},
				"required": []string{"points"},
			},
		},
		{
			Name:        "leaf_segment",
			Description: "Classify leaf-colored pixels (green, dark green, brown, yellow in HSV) and clean the mask with morphological opening then closing. Returns foreground statistics and optionally the mask as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": merge(map[string]interface{}{
					"path": pathProperty,
					"include_mask": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the cleaned mask as a base64-encoded PNG. Default false.",
					},
				}, segmentationProperties()),
				"required": []string{"path"},
			},
		},
		{
			Name:        "leaf_measure",
			Description: "Measure every leaf in one image: segment, trace contours, reject holes and specks, and convert areas to cm². Optionally writes an annotated copy with numbered outlines.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": merge(map[string]interface{}{
					"path":  pathProperty,
					"ratio": ratioProperty,
					"annotated_path": map[string]interface{}{
						"type":        "string",
						"description": "Where to write the annotated image (.png or .jpg). Omit to skip annotation.",
					},
				}, segmentationProperties(), filterProperties(), annotationProperties()),
				"required": []string{"path", "ratio"},
			},
		},
		{
			Name:        "leaf_batch",
			Description: "Measure every image in a directory (jpg, jpeg, png, tif, tiff), skipping the scale image. Returns per-image summaries and per-leaf areas; can write annotated images and the two CSV reports.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": merge(map[string]interface{}{
					"dir": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the directory of leaf images",
					},
					"ratio": ratioProperty,
					"reference": map[string]interface{}{
						"type":        "string",
						"description": "File name of the scale image to skip. Default scale_image.jpg.",
					},
					"output_dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory for annotated images and CSV files. Omit to skip writing files.",
					},
					"workers": map[string]interface{}{
						"type":        "integer",
						"description": "Images processed concurrently. Results keep directory order.",
					},
				}, segmentationProperties(), filterProperties(), annotationProperties()),
				"required": []string{"dir", "ratio"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
