package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

func roiProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Optional region of interest: a named region (top-left, top-right, bottom-left, bottom-right, top-half, bottom-half, left-half, right-half, center) or \"x1,y1,x2,y2\" with the max corner exclusive. Defaults to the whole image.",
	}
}

// finderProperties are the per-call overrides shared by the image tools.
func finderProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": pathProperty(),
		"roi":  roiProperty(),
		"channels": map[string]interface{}{
			"type":        "array",
			"items":       map[string]interface{}{"type": "string", "enum": []string{"red", "green", "blue", "gray"}},
			"description": "Colour planes to scan, in order. Default blue, green, red.",
		},
		"levels": map[string]interface{}{
			"type":        "integer",
			"description": "Masks per channel: one edge map plus levels-1 thresholds. Default 10.",
			"minimum":     1,
		},
		"min_area": map[string]interface{}{
			"type":        "number",
			"description": "Polygons with area at or below this many square pixels are ignored. Default 100.",
		},
		"smooth": map[string]interface{}{
			"type":        "boolean",
			"description": "Apply pyramid smoothing before splitting channels. Default true.",
		},
	}
}

func withProps(base map[string]interface{}, extra map[string]interface{}) map[string]interface{} {
	for k, v := range extra {
		base[k] = v
	}
	return base
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. The decoded image is cached for the other tools.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "shapes_find",
			Description: "Find triangles, rectangles, pentagons, circles and ellipses in an image. Every colour channel is split into an edge mask and a ladder of threshold masks; each closed contour is classified. The same object is usually reported once per mask that contains it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProps(finderProperties(), map[string]interface{}{
					"include_polygons": map[string]interface{}{
						"type":        "boolean",
						"description": "Include polygon vertices in each detection. Default true.",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "shapes_classify",
			Description: "Classify contours given as point lists. Each contour is approximated, checked for convexity and minimum area, then labelled by vertex count or ellipse fit.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"contours": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "array",
							"items": map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"x": map[string]interface{}{"type": "number"},
									"y": map[string]interface{}{"type": "number"},
								},
								"required": []string{"x", "y"},
							},
						},
						"description": "Closed contours in pixel coordinates",
					},
					"min_area": map[string]interface{}{
						"type":        "number",
						"description": "Area gate in square pixels. Default 100.",
					},
				},
				"required": []string{"contours"},
			},
		},
		{
			Name:        "shapes_annotate",
			Description: "Run shapes_find and draw every detection on a copy of the image with its label at the polygon centroid. Returns the annotated image as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProps(finderProperties(), map[string]interface{}{
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to also write the annotated PNG to",
					},
					"labels": map[string]interface{}{
						"type":        "boolean",
						"description": "Draw text labels. Default true.",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "shapes_masks",
			Description: "List the binary masks the shape finder scans for an image, with their thresholds and foreground coverage. Optionally returns one mask as base64-encoded PNG for inspection.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProps(finderProperties(), map[string]interface{}{
					"mask": map[string]interface{}{
						"type":        "string",
						"description": "Mask to return as an image, e.g. \"red/edges\" or \"blue/level-4\"",
					},
				}),
				"required": []string{"path"},
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
