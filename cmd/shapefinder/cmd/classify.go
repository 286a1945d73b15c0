package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/shape-finder-mcp/internal/config"
	"github.com/ironsheep/shape-finder-mcp/internal/detection"
	"github.com/ironsheep/shape-finder-mcp/internal/geometry"
	"github.com/ironsheep/shape-finder-mcp/internal/metrics"
)

// classifiedContour is one match in a classify report.
type classifiedContour struct {
	Index   int              `json:"index" yaml:"index"`
	Label   detection.Shape  `json:"label" yaml:"label"`
	Polygon geometry.Contour `json:"polygon" yaml:"polygon"`
}

// classifyReport is the output of the classify command.
type classifyReport struct {
	Contours int                      `json:"contours" yaml:"contours"`
	Count    int                      `json:"count" yaml:"count"`
	Summary  map[detection.Shape]int  `json:"summary" yaml:"summary"`
	Rejected map[detection.Reason]int `json:"rejected" yaml:"rejected"`
	Results  []classifiedContour      `json:"results" yaml:"results"`
}

func (r *classifyReport) writeText(w io.Writer) error {
	if len(r.Results) > 0 {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "CONTOUR\tSHAPE\tVERTICES")
		for _, c := range r.Results {
			_, _ = fmt.Fprintf(tw, "%d\t%s\t%d\n", c.Index, c.Label, len(c.Polygon))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "classified %d of %d contours: %s\n",
		r.Count, r.Contours, formatSummary(r.Summary)); err != nil {
		return err
	}
	if len(r.Rejected) == 0 {
		return nil
	}
	reasons := make([]string, 0, len(r.Rejected))
	for reason, n := range r.Rejected {
		reasons = append(reasons, fmt.Sprintf("%s=%d", reason, n))
	}
	sort.Strings(reasons)
	_, err := fmt.Fprintf(w, "rejected: %s\n", strings.Join(reasons, " "))
	return err
}

// rejectionTally counts rejections by reason and forwards every outcome
// to next.
type rejectionTally struct {
	mu       sync.Mutex
	next     detection.Recorder
	rejected map[detection.Reason]int
}

func newRejectionTally(next detection.Recorder) *rejectionTally {
	return &rejectionTally{next: next, rejected: make(map[detection.Reason]int)}
}

func (t *rejectionTally) Classified(label detection.Shape) {
	t.next.Classified(label)
}

func (t *rejectionTally) Rejected(reason detection.Reason) {
	t.mu.Lock()
	t.rejected[reason]++
	t.mu.Unlock()
	t.next.Rejected(reason)
}

func newClassifyCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify [file]",
		Short: "Classify contours read from a YAML or JSON file",
		Long: `Classify contours that were traced elsewhere.

The input is a YAML or JSON document holding a list of contours, either at
the top level or under a "contours" key. A point is written as {x: 1, y: 2}
or as a pair [1, 2]. With no file, or with "-", contours are read from
stdin.

Examples:
  shapefinder classify contours.yaml
  shapefinder classify contours.json --format json --min-area 20
  cat contours.yaml | shapefinder classify -`,
		Args:    cobra.MaximumNArgs(1),
		PreRunE: a.preRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "-"
			if len(args) == 1 {
				name = args[0]
			}
			data, err := readInput(cmd, name)
			if err != nil {
				return err
			}
			contours, err := parseContours(data)
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", inputName(name), err)
			}

			rec := metrics.NewRecorder()
			tally := newRejectionTally(rec)
			cls, err := a.newClassifier(tally)
			if err != nil {
				return err
			}

			report := &classifyReport{
				Contours: len(contours),
				Summary:  detection.Summary(nil),
				Results:  []classifiedContour{},
			}
			for i, c := range contours {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				r, ok := cls.Classify(c)
				if !ok {
					continue
				}
				report.Results = append(report.Results, classifiedContour{Index: i, Label: r.Label, Polygon: r.Polygon})
				report.Summary[r.Label]++
			}
			report.Count = len(report.Results)
			report.Rejected = tally.rejected

			a.log.WithFields(logrus.Fields{
				"contours": len(contours),
				"matches":  report.Count,
			}).Info("contours classified")
			if err := a.writeMetrics(rec); err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), a.cfg.Output.Format, report, report.writeText)
		},
	}

	cmd.Flags().String("backend", config.DefaultConfig().Finder.Backend, "contour backend used for ellipse fitting (native, opencv)")
	addClassifierFlags(cmd)
	addFormatFlag(cmd)
	return cmd
}

func inputName(name string) string {
	if name == "-" {
		return "stdin"
	}
	return name
}

func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read contours: %w", err)
	}
	return data, nil
}

// inputPoint decodes either {x: 1, y: 2} or [1, 2].
type inputPoint geometry.Point

func (p *inputPoint) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var xy []float64
		if err := node.Decode(&xy); err != nil {
			return err
		}
		if len(xy) != 2 {
			return fmt.Errorf("line %d: point needs 2 coordinates, got %d", node.Line, len(xy))
		}
		*p = inputPoint{X: xy[0], Y: xy[1]}
		return nil
	case yaml.MappingNode:
		var pt geometry.Point
		if err := node.Decode(&pt); err != nil {
			return err
		}
		*p = inputPoint(pt)
		return nil
	}
	return fmt.Errorf("line %d: point must be a mapping or a pair", node.Line)
}

var errNoContours = errors.New("no contours found")

// parseContours reads a contour list from YAML or JSON.
func parseContours(data []byte) ([]geometry.Contour, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errNoContours
	}
	root := doc.Content[0]

	var raw [][]inputPoint
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&raw); err != nil {
			return nil, err
		}
	case yaml.MappingNode:
		var wrapped struct {
			Contours [][]inputPoint `yaml:"contours"`
		}
		if err := root.Decode(&wrapped); err != nil {
			return nil, err
		}
		raw = wrapped.Contours
	default:
		return nil, fmt.Errorf("line %d: expected a list of contours", root.Line)
	}
	if len(raw) == 0 {
		return nil, errNoContours
	}

	out := make([]geometry.Contour, len(raw))
	for i, pts := range raw {
		c := make(geometry.Contour, len(pts))
		for j, p := range pts {
			c[j] = geometry.Point(p)
		}
		out[i] = c
	}
	return out, nil
}
