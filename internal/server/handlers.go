package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/food-vision-mcp/internal/detection"
	"github.com/ironsheep/food-vision-mcp/internal/imaging"
	"github.com/ironsheep/food-vision-mcp/internal/recognition"
)

var errNoPipeline = errors.New("recognition pipeline not configured")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "food_recognize", "image_crop").
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
		s.log.WithField("tool", params.Name).WithError(err).Warn("tool failed")
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
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Recognition
	case "food_recognize":
		return s.handleFoodRecognize(ctx, args)
	case "food_detect":
		return s.handleFoodDetect(args)
	case "food_annotate":
		return s.handleFoodAnnotate(ctx, args)
	case "food_groups":
		return s.handleFoodGroups()

	// Image Inspection
	case "image_load":
		return s.handleImageLoad(args)
	case "image_crop":
		return s.handleImageCrop(args)

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
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return nil
	}
	return json.Unmarshal(args, v)
}

// === Recognition Handlers ===

type imageSource struct {
	Path        string `json:"path"`
	ImageBase64 string `json:"image_base64"`
}

// load returns the decoded image and a name for it. Decode failures are
// reported as *recognition.ImageLoadError.
func (src imageSource) load(cache *imaging.ImageCache) (image.Image, string, error) {
	switch {
	case src.Path != "":
		img, err := cache.Load(src.Path)
		if err != nil {
			return nil, src.Path, &recognition.ImageLoadError{Source: src.Path, Err: err}
		}
		return img, src.Path, nil
	case src.ImageBase64 != "":
		data, err := base64.StdEncoding.DecodeString(src.ImageBase64)
		if err != nil {
			return nil, "upload", &recognition.ImageLoadError{Source: "upload", Err: err}
		}
		img, _, err := imaging.DecodeBytes(data)
		if err != nil {
			return nil, "upload", &recognition.ImageLoadError{Source: "upload", Err: err}
		}
		return img, "upload", nil
	default:
		return nil, "", errors.New("path or image_base64 is required")
	}
}

type runArgs struct {
	imageSource
	ConfidenceThreshold *float64 `json:"confidence_threshold"`
	InputSize           int     `json:"input_size"`
	MaxCandidates       int     `json:"max_candidates"`
	Verbose             bool    `json:"verbose"`
	IncludeDetections   bool    `json:"include_detections"`
}

func (a runArgs) options() recognition.RunOptions {
	opts := recognition.RunOptions{
		InputSize: a.InputSize,
		Verbose:   a.Verbose,
	}
	if a.ConfidenceThreshold != nil {
		opts.ConfidenceThreshold = *a.ConfidenceThreshold
	}
	return opts
}

func (a runArgs) validate() error {
	// Zero is reserved for "use the configured threshold", so an explicit
	// value must be positive.
	if c := a.ConfidenceThreshold; c != nil && (*c <= 0 || *c > 1) {
		return fmt.Errorf("confidence_threshold must be in (0, 1], got %v", *c)
	}
	if a.InputSize < 0 {
		return fmt.Errorf("input_size must be positive, got %d", a.InputSize)
	}
	if a.MaxCandidates < 0 {
		return fmt.Errorf("max_candidates must be positive, got %d", a.MaxCandidates)
	}
	return nil
}

func (a runArgs) maxCandidates() int {
	if a.MaxCandidates == 0 {
		return recognition.DefaultRecordCandidates
	}
	return a.MaxCandidates
}

type recognizeResult struct {
	RunID      string               `json:"run_id"`
	Width      int                  `json:"width"`
	Height     int                  `json:"height"`
	Count      int                  `json:"count"`
	Items      []recognition.Record `json:"items"`
	Detections []recognition.Record `json:"detections,omitempty"`
}

// run decodes the request image once and runs the pipeline on it. The
// decoded image is returned for handlers that draw on it.
func (s *Server) run(ctx context.Context, args json.RawMessage) (*recognition.Result, image.Image, runArgs, error) {
	var a runArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, nil, a, err
	}
	if err := a.validate(); err != nil {
		return nil, nil, a, err
	}
	if s.pipeline == nil {
		return nil, nil, a, errNoPipeline
	}

	img, source, err := a.load(s.cache)
	if err != nil {
		return nil, nil, a, err
	}
	res, err := s.pipeline.RunImage(ctx, img, source, a.options())
	return res, img, a, err
}

func (s *Server) handleFoodRecognize(ctx context.Context, args json.RawMessage) (interface{}, error) {
	res, _, a, err := s.run(ctx, args)
	if err != nil {
		return nil, err
	}

	out := &recognizeResult{
		RunID:  res.RunID,
		Width:  res.Width,
		Height: res.Height,
		Items:  res.Records(a.maxCandidates()),
	}
	out.Count = len(out.Items)
	if a.IncludeDetections {
		out.Detections = res.DetectionRecords(a.maxCandidates())
	}
	return out, nil
}

type detectResult struct {
	Width      int                   `json:"width"`
	Height     int                   `json:"height"`
	Count      int                   `json:"count"`
	Detections []detection.Detection `json:"detections"`
}

func (s *Server) handleFoodDetect(args json.RawMessage) (interface{}, error) {
	var a runArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	if s.pipeline == nil {
		return nil, errNoPipeline
	}

	img, _, err := a.load(s.cache)
	if err != nil {
		return nil, err
	}
	dets, err := s.pipeline.Detect(img, a.options())
	if err != nil {
		return nil, err
	}
	for i := range dets {
		dets[i].Confidence = detection.Round(dets[i].Confidence, 4)
	}
	return &detectResult{
		Width:      img.Bounds().Dx(),
		Height:     img.Bounds().Dy(),
		Count:      len(dets),
		Detections: dets,
	}, nil
}

type annotateResult struct {
	RunID string `json:"run_id"`
	*imaging.AnnotateResult
	Items []recognition.Record `json:"items"`
}

func (s *Server) handleFoodAnnotate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	res, img, a, err := s.run(ctx, args)
	if err != nil {
		return nil, err
	}

	items := res.Final.Items()
	annotations := make([]imaging.Annotation, len(items))
	for i, d := range items {
		annotations[i] = imaging.Annotation{
			Box:   d.Box,
			Label: d.Label(),
			Muted: len(d.Candidates) == 0,
		}
	}
	ann, err := imaging.Annotate(img, annotations)
	if err != nil {
		return nil, err
	}
	return &annotateResult{
		RunID:          res.RunID,
		AnnotateResult: ann,
		Items:          res.Records(a.maxCandidates()),
	}, nil
}

type groupInfo struct {
	Name             string   `json:"name"`
	Classes          []string `json:"classes"`
	ClassifierLoaded bool     `json:"classifier_loaded"`
	Error            string   `json:"error,omitempty"`
}

func (s *Server) handleFoodGroups() (interface{}, error) {
	if s.pipeline == nil {
		return nil, errNoPipeline
	}

	status := make(map[string]recognition.GroupStatus)
	for _, st := range s.pipeline.Pool().Status() {
		status[st.Name] = st
	}

	router := s.pipeline.Router()
	groups := make([]groupInfo, 0, len(router.Groups()))
	for _, name := range router.Groups() {
		info := groupInfo{Name: name, Classes: router.Members(name)}
		if st, ok := status[name]; ok {
			info.ClassifierLoaded = st.Available
			info.Error = st.Error
		} else {
			info.Error = "no classifier configured"
		}
		groups = append(groups, info)
	}
	return map[string]interface{}{"groups": groups}, nil
}

// === Image Inspection Handlers ===

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

type imageCropArgs struct {
	Path  string  `json:"path"`
	X1    int     `json:"x1"`
	Y1    int     `json:"y1"`
	X2    int     `json:"x2"`
	Y2    int     `json:"y2"`
	Scale float64 `json:"scale"`
}

func (s *Server) handleImageCrop(args json.RawMessage) (interface{}, error) {
	var a imageCropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.Crop(img, detection.Bounds{X1: a.X1, Y1: a.Y1, X2: a.X2, Y2: a.Y2}, a.Scale)
}
