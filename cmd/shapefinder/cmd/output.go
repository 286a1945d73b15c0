package cmd

import (
	"encoding/json"
	"fmt"
	"image"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/shape-finder-mcp/internal/config"
	"github.com/ironsheep/shape-finder-mcp/internal/detection"
)

// writeReport renders v in format. Text output is delegated to text.
func writeReport(w io.Writer, format string, v interface{}, text func(io.Writer) error) error {
	switch strings.ToLower(format) {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			_ = enc.Close()
			return err
		}
		return enc.Close()
	case config.FormatText, "":
		return text(w)
	}
	return fmt.Errorf("invalid output format: %s (must be one of: text, json, yaml)", format)
}

// formatSummary renders counts as "triangle=0 rectangle=3 ..." in label
// order.
func formatSummary(counts map[detection.Shape]int) string {
	parts := make([]string, 0, len(detection.Shapes))
	for _, s := range detection.Shapes {
		parts = append(parts, fmt.Sprintf("%s=%d", s, counts[s]))
	}
	return strings.Join(parts, " ")
}

// formatRegion renders r in the x1,y1,x2,y2 form accepted by --roi.
func formatRegion(r image.Rectangle) string {
	return fmt.Sprintf("%d,%d,%d,%d", r.Min.X, r.Min.Y, r.Max.X, r.Max.Y)
}
