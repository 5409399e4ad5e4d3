package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func imageSourceProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the image file",
		},
		"image_base64": map[string]interface{}{
			"type":        "string",
			"description": "Base64-encoded image bytes, used when path is not given",
		},
	}
}

func runProperties() map[string]interface{} {
	props := imageSourceProperties()
	props["confidence_threshold"] = map[string]interface{}{
		"type":        "number",
		"description":      "Minimum detector confidence, greater than 0 and at most 1. Omit to use the config value, normally 0.3",
		"exclusiveMinimum": 0,
		"maximum":          1,
	}
	props["input_size"] = map[string]interface{}{
		"type":        "integer",
		"description": "Detector input resolution in pixels. Default from config, normally 1024",
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	recognizeProps := runProperties()
	recognizeProps["max_candidates"] = map[string]interface{}{
		"type":        "integer",
		"description": "Classification candidates returned per item. Default 3",
		"default":     3,
	}
	recognizeProps["verbose"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Log each pipeline step at info level",
		"default":     false,
	}
	recognizeProps["include_detections"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Also return every detection before merging",
		"default":     false,
	}

	annotateProps := runProperties()
	annotateProps["max_candidates"] = recognizeProps["max_candidates"]

	return []Tool{
		// Recognition
		{
			Name:        "food_recognize",
			Description: "Detect food items in an image, classify each one with its category model and return one entry per distinct food label with ranked candidates.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": recognizeProps,
				"required":   []string{},
			},
		},
		{
			Name:        "food_detect",
			Description: "Run only the detector and return the raw detections (class, confidence, bounding box) without classification.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": runProperties(),
				"required":   []string{},
			},
		},
		{
			Name:        "food_annotate",
			Description: "Recognize food items and return the image with a numbered, colour-coded box drawn around each item as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": annotateProps,
				"required":   []string{},
			},
		},
		{
			Name:        "food_groups",
			Description: "List the category groups, the detector classes routed to each and whether its classifier is loaded.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},

		// Image Inspection
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_crop",
			Description: "Crop a rectangular region from an image and return it as base64-encoded PNG. Use this to inspect a detected item more closely.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"x1": map[string]interface{}{
						"type":        "integer",
						"description": "Left edge X coordinate (0-based)",
					},
					"y1": map[string]interface{}{
						"type":        "integer",
						"description": "Top edge Y coordinate (0-based)",
					},
					"x2": map[string]interface{}{
						"type":        "integer",
						"description": "Right edge X coordinate (exclusive)",
					},
					"y2": map[string]interface{}{
						"type":        "integer",
						"description": "Bottom edge Y coordinate (exclusive)",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path", "x1", "y1", "x2", "y2"},
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
