package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"

	"github.com/ironsheep/shape-finder-mcp/internal/detection"
	"github.com/ironsheep/shape-finder-mcp/internal/geometry"
	"github.com/ironsheep/shape-finder-mcp/internal/imaging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "shapes_find").
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
		s.log.WithError(err).WithField("tool", params.Name).Info("tool call failed")
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
	case "image_load":
		return s.handleImageLoad(args)
	case "shapes_find":
		return s.handleShapesFind(ctx, args)
	case "shapes_classify":
		return s.handleShapesClassify(ctx, args)
	case "shapes_annotate":
		return s.handleShapesAnnotate(ctx, args)
	case "shapes_masks":
		return s.handleShapesMasks(ctx, args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	e := &MCPError{Code: code, Message: message}
	if data != "" {
		e.Data = data
	}
	return &MCPResponse{JSONRPC: "2.0", ID: id, Error: e}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// === Image Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

// handleImageLoad caches the image at path and reports its dimensions and
// format.
func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// === Shape Handlers ===

// finderArgs are shared by the tools that scan an image. Pointer fields
// distinguish "not given" from zero.
type finderArgs struct {
	Path     string   `json:"path"`
	ROI      string   `json:"roi"`
	Channels []string `json:"channels"`
	Levels   *int     `json:"levels"`
	MinArea  *float64 `json:"min_area"`
	Smooth   *bool    `json:"smooth"`
}

// finderConfig applies the per-call overrides in a to the server defaults.
func (s *Server) finderConfig(a finderArgs) (detection.FinderConfig, error) {
	fc := s.opts.Finder
	if len(a.Channels) > 0 {
		chs, err := imaging.ParseChannels(a.Channels)
		if err != nil {
			return fc, err
		}
		fc.Masks.Channels = chs
	}
	if a.Levels != nil {
		fc.Masks.Levels = *a.Levels
	}
	if a.Smooth != nil {
		fc.Masks.Smooth = *a.Smooth
	}
	return fc, fc.Masks.Validate()
}

func (s *Server) classifier(minArea *float64) (*detection.Classifier, error) {
	cfg := s.opts.Classifier
	if minArea != nil {
		cfg.MinArea = *minArea
	}
	return detection.NewClassifier(cfg, s.toolkit,
		detection.WithRecorder(s.opts.Recorder),
		detection.WithLogger(s.log),
	)
}

func (s *Server) finder(a finderArgs) (*detection.Finder, error) {
	fc, err := s.finderConfig(a)
	if err != nil {
		return nil, err
	}
	c, err := s.classifier(a.MinArea)
	if err != nil {
		return nil, err
	}
	return detection.NewFinder(c, fc)
}

// loadRegion loads a.Path and resolves a.ROI against it.
func (s *Server) loadRegion(a finderArgs) (image.Image, image.Rectangle, error) {
	if a.Path == "" {
		return nil, image.Rectangle{}, fmt.Errorf("path is required")
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, image.Rectangle{}, err
	}
	roi, err := imaging.ParseROI(a.ROI, img.Bounds())
	if err != nil {
		return nil, image.Rectangle{}, err
	}
	return img, roi, nil
}

// Region is a rectangle in image coordinates, max corner exclusive.
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

func regionOf(r image.Rectangle) Region {
	return Region{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X, Y2: r.Max.Y}
}

// FindResult is returned by shapes_find.
type FindResult struct {
	Width      int                     `json:"width"`
	Height     int                     `json:"height"`
	Region     Region                  `json:"region"`
	Toolkit    string                  `json:"toolkit"`
	Count      int                     `json:"count"`
	Summary    map[detection.Shape]int `json:"summary"`
	Detections []detection.Detection   `json:"detections"`
}

type shapesFindArgs struct {
	finderArgs
	IncludePolygons *bool `json:"include_polygons"`
}

// find loads the image, scans the requested region with a Finder built
// from the server defaults plus the call's overrides, and assembles the
// shared result. The loaded image is returned for annotation.
func (s *Server) find(ctx context.Context, a finderArgs) (image.Image, *FindResult, error) {
	img, roi, err := s.loadRegion(a)
	if err != nil {
		return nil, nil, err
	}
	f, err := s.finder(a)
	if err != nil {
		return nil, nil, err
	}
	dets, err := f.FindRegion(ctx, img, roi)
	if err != nil {
		return nil, nil, err
	}
	if dets == nil {
		dets = []detection.Detection{}
	}
	b := img.Bounds()
	return img, &FindResult{
		Width:      b.Dx(),
		Height:     b.Dy(),
		Region:     regionOf(roi),
		Toolkit:    s.toolkit.Name(),
		Count:      len(dets),
		Summary:    detection.Summary(dets),
		Detections: dets,
	}, nil
}

// handleShapesFind runs the shape finder over an image or region.
//
// Arguments:
//   - path (required): Image to scan.
//   - roi: Named region ("center", "top-left", ...) or "x1,y1,x2,y2".
//   - channels, levels, smooth, min_area: Override the server's
//     configured finder settings for this call only.
//   - include_polygons: Set to false to omit vertex lists from the result.
//
// Detections are reported per mask, so one object usually appears several
// times. Summary counts every detection.
func (s *Server) handleShapesFind(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a shapesFindArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	_, res, err := s.find(ctx, a.finderArgs)
	if err != nil {
		return nil, err
	}
	if a.IncludePolygons != nil && !*a.IncludePolygons {
		for i := range res.Detections {
			res.Detections[i].Polygon = nil
		}
	}
	return res, nil
}

type shapesClassifyArgs struct {
	Contours []geometry.Contour `json:"contours"`
	MinArea  *float64           `json:"min_area"`
}

// ClassifiedContour is one shapes_classify match.
type ClassifiedContour struct {
	Index int `json:"index"`
	detection.Result
}

// ClassifyResult is returned by shapes_classify.
type ClassifyResult struct {
	Count   int                     `json:"count"`
	Summary map[detection.Shape]int `json:"summary"`
	Results []ClassifiedContour     `json:"results"`
}

// handleShapesClassify classifies caller-supplied contours without touching
// an image. Each result carries the index of its source contour; contours
// that match nothing are omitted.
func (s *Server) handleShapesClassify(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a shapesClassifyArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	c, err := s.classifier(a.MinArea)
	if err != nil {
		return nil, err
	}

	res := &ClassifyResult{Summary: detection.Summary(nil), Results: []ClassifiedContour{}}
	for i, ct := range a.Contours {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, ok := c.Classify(ct)
		if !ok {
			continue
		}
		res.Results = append(res.Results, ClassifiedContour{Index: i, Result: r})
		res.Summary[r.Label]++
	}
	res.Count = len(res.Results)
	return res, nil
}

type shapesAnnotateArgs struct {
	finderArgs
	OutputPath string `json:"output_path"`
	Labels     *bool  `json:"labels"`
}

// AnnotateResult is returned by shapes_annotate.
type AnnotateResult struct {
	Count      int                     `json:"count"`
	Summary    map[detection.Shape]int `json:"summary"`
	OutputPath string                  `json:"output_path,omitempty"`
	*imaging.EncodedImage
}

// handleShapesAnnotate runs the same scan as shapes_find and draws every
// detection on a copy of the image, one colour per label. The annotated
// PNG is returned base64 encoded, and also written to output_path when
// given.
func (s *Server) handleShapesAnnotate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a shapesAnnotateArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, res, err := s.find(ctx, a.finderArgs)
	if err != nil {
		return nil, err
	}

	opts := s.opts.Annotate
	if a.Labels != nil {
		opts.Labels = *a.Labels
	}
	out := imaging.Annotate(img, detection.Overlays(res.Detections), opts)

	if a.OutputPath != "" {
		if err := imaging.SavePNG(out, a.OutputPath); err != nil {
			return nil, err
		}
	}
	enc, err := imaging.EncodePNG(out)
	if err != nil {
		return nil, err
	}
	return &AnnotateResult{
		Count:        res.Count,
		Summary:      res.Summary,
		OutputPath:   a.OutputPath,
		EncodedImage: enc,
	}, nil
}

type shapesMasksArgs struct {
	finderArgs
	Mask string `json:"mask"`
}

// MaskSummary describes one generated mask.
type MaskSummary struct {
	Name      string           `json:"name"`
	Channel   imaging.Channel  `json:"channel"`
	Level     int              `json:"level"`
	Kind      imaging.MaskKind `json:"kind"`
	Threshold float64          `json:"threshold,omitempty"`
	Coverage  float64          `json:"coverage"`
}

// MasksResult is returned by shapes_masks.
type MasksResult struct {
	Region Region                `json:"region"`
	Masks  []MaskSummary         `json:"masks"`
	Image  *imaging.EncodedImage `json:"image,omitempty"`
}

// handleShapesMasks lists the masks the finder would scan, with their
// coverage. Naming one in mask also returns that mask as a PNG.
func (s *Server) handleShapesMasks(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a shapesMasksArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, roi, err := s.loadRegion(a.finderArgs)
	if err != nil {
		return nil, err
	}
	fc, err := s.finderConfig(a.finderArgs)
	if err != nil {
		return nil, err
	}

	src := img
	if roi != img.Bounds() {
		if src, err = imaging.CropROI(img, roi); err != nil {
			return nil, err
		}
	}

	res := &MasksResult{Region: regionOf(roi)}
	err = imaging.EachMask(ctx, src, fc.Masks, func(m imaging.Mask) error {
		res.Masks = append(res.Masks, MaskSummary{
			Name:      m.Name(),
			Channel:   m.Channel,
			Level:     m.Level,
			Kind:      m.Kind,
			Threshold: m.Threshold,
			Coverage:  m.Coverage(),
		})
		if a.Mask != "" && m.Name() == a.Mask {
			enc, err := imaging.EncodePNG(m.Image)
			if err != nil {
				return err
			}
			res.Image = enc
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if a.Mask != "" && res.Image == nil {
		return nil, fmt.Errorf("no mask named %q", a.Mask)
	}
	return res, nil
}
