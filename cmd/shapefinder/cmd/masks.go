package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ironsheep/shape-finder-mcp/internal/imaging"
)

// maskEntry describes one generated mask.
type maskEntry struct {
	Name      string           `json:"name" yaml:"name"`
	Channel   imaging.Channel  `json:"channel" yaml:"channel"`
	Level     int              `json:"level" yaml:"level"`
	Kind      imaging.MaskKind `json:"kind" yaml:"kind"`
	Threshold float64          `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Coverage  float64          `json:"coverage" yaml:"coverage"`
	File      string           `json:"file,omitempty" yaml:"file,omitempty"`
}

// masksReport is the output of the masks command.
type masksReport struct {
	Image  string      `json:"image" yaml:"image"`
	Region string      `json:"region" yaml:"region"`
	Masks  []maskEntry `json:"masks" yaml:"masks"`
}

func (r *masksReport) writeText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s: region %s, %d masks\n", r.Image, r.Region, len(r.Masks)); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "MASK\tTHRESHOLD\tCOVERAGE\tFILE")
	for _, m := range r.Masks {
		threshold := "-"
		if m.Kind == imaging.MaskThreshold {
			threshold = fmt.Sprintf("%.1f", m.Threshold)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%.2f%%\t%s\n", m.Name, threshold, 100*m.Coverage, m.File)
	}
	return tw.Flush()
}

// maskFileName turns a mask name such as "red/level-3" into a file name.
func maskFileName(name string) string {
	return strings.ReplaceAll(name, "/", "-") + ".png"
}

func newMasksCommand(a *app) *cobra.Command {
	var (
		roi    string
		outDir string
		only   []string
	)

	cmd := &cobra.Command{
		Use:   "masks <image>",
		Short: "Show the binary masks scanned for shapes",
		Long: `Generate the mask stack that "find" scans and report how much of each
mask is set. With --out every mask is written as a PNG, named after the
mask (gray-edges.png, gray-level-2.png, ...).

Examples:
  shapefinder masks shapes.png
  shapefinder masks shapes.png --channels gray --levels 4 --out masks/
  shapefinder masks shapes.png --mask red/edges --out masks/`,
		Args:    cobra.ExactArgs(1),
		PreRunE: a.preRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			img, err := imaging.NewImageCache().Load(path)
			if err != nil {
				return err
			}
			region, err := imaging.ParseROI(roi, img.Bounds())
			if err != nil {
				return err
			}
			src := img
			if region != img.Bounds() {
				if src, err = imaging.CropROI(img, region); err != nil {
					return err
				}
			}
			mc, err := a.cfg.Masks()
			if err != nil {
				return err
			}
			if outDir != "" {
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
			}

			wanted := make(map[string]bool, len(only))
			for _, name := range only {
				wanted[name] = true
			}

			report := &masksReport{Image: path, Region: formatRegion(region), Masks: []maskEntry{}}
			err = imaging.EachMask(cmd.Context(), src, mc, func(m imaging.Mask) error {
				if len(wanted) > 0 && !wanted[m.Name()] {
					return nil
				}
				entry := maskEntry{
					Name:      m.Name(),
					Channel:   m.Channel,
					Level:     m.Level,
					Kind:      m.Kind,
					Threshold: m.Threshold,
					Coverage:  m.Coverage(),
				}
				if outDir != "" {
					entry.File = filepath.Join(outDir, maskFileName(m.Name()))
					if err := imaging.SavePNG(m.Image, entry.File); err != nil {
						return err
					}
				}
				report.Masks = append(report.Masks, entry)
				return nil
			})
			if err != nil {
				return err
			}
			for _, m := range report.Masks {
				delete(wanted, m.Name)
			}
			for _, name := range only {
				if wanted[name] {
					return fmt.Errorf("no mask named %q", name)
				}
			}

			a.log.WithField("masks", len(report.Masks)).Info("masks generated")
			return writeReport(cmd.OutOrStdout(), a.cfg.Output.Format, report, report.writeText)
		},
	}

	cmd.Flags().StringVar(&roi, "roi", "", "region of interest: a name (top-left, center, ...) or x1,y1,x2,y2")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "directory to write mask PNGs to")
	cmd.Flags().StringSliceVar(&only, "mask", nil, "only report these masks, e.g. gray/edges")
	addMaskFlags(cmd)
	addFormatFlag(cmd)
	return cmd
}
