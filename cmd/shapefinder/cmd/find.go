package cmd

import (
	"fmt"
	"image"
	"io"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ironsheep/shape-finder-mcp/internal/detection"
	"github.com/ironsheep/shape-finder-mcp/internal/imaging"
	"github.com/ironsheep/shape-finder-mcp/internal/metrics"
)

// findReport is the output of the find command.
type findReport struct {
	Image      string                  `json:"image" yaml:"image"`
	Format     string                  `json:"format" yaml:"format"`
	Width      int                     `json:"width" yaml:"width"`
	Height     int                     `json:"height" yaml:"height"`
	Region     string                  `json:"region" yaml:"region"`
	Toolkit    string                  `json:"toolkit" yaml:"toolkit"`
	Count      int                     `json:"count" yaml:"count"`
	Summary    map[detection.Shape]int `json:"summary" yaml:"summary"`
	Detections []detection.Detection   `json:"detections" yaml:"detections"`
	Annotated  string                  `json:"annotated,omitempty" yaml:"annotated,omitempty"`
}

func (r *findReport) writeText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s: %dx%d %s, region %s, toolkit %s\n",
		r.Image, r.Width, r.Height, r.Format, r.Region, r.Toolkit); err != nil {
		return err
	}
	if len(r.Detections) > 0 {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "MASK\tCONTOUR\tSHAPE\tVERTICES\tCENTROID")
		for _, d := range r.Detections {
			vertices := "-"
			if len(d.Polygon) > 0 {
				vertices = fmt.Sprint(len(d.Polygon))
			}
			_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%.1f,%.1f\n",
				d.Mask.Name(), d.ContourIndex, d.Label, vertices, d.Centroid.X, d.Centroid.Y)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	if r.Annotated != "" {
		if _, err := fmt.Fprintf(w, "annotated image written to %s\n", r.Annotated); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "found %d shapes: %s\n", r.Count, formatSummary(r.Summary))
	return err
}

func newFindCommand(a *app) *cobra.Command {
	var (
		roi      string
		annotate string
		polygons bool
	)

	cmd := &cobra.Command{
		Use:   "find <image>",
		Short: "Find shapes in an image",
		Long: `Find triangles, rectangles, pentagons, circles and ellipses in an image.

Every selected colour channel is turned into an edge map and a ladder of
threshold masks; each mask is traced and its contours are classified. A
shape that survives several masks is reported once per mask.

Supported formats: PNG, JPEG, GIF, BMP, TIFF, WebP

Examples:
  shapefinder find shapes.png
  shapefinder find shapes.png --roi top-left --format json
  shapefinder find shapes.png --channels gray --levels 4 --annotate found.png`,
		Args:    cobra.ExactArgs(1),
		PreRunE: a.preRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			cache := imaging.NewImageCache()
			info, err := imaging.LoadImageInfo(cache, path)
			if err != nil {
				return err
			}
			img, err := cache.Load(path)
			if err != nil {
				return err
			}
			region, err := imaging.ParseROI(roi, img.Bounds())
			if err != nil {
				return err
			}

			rec := metrics.NewRecorder()
			finder, tk, err := a.newFinder(rec)
			if err != nil {
				return err
			}

			start := time.Now()
			dets, err := finder.FindRegion(cmd.Context(), img, region)
			if err != nil {
				return err
			}
			a.log.WithFields(logrus.Fields{
				"image":   path,
				"region":  formatRegion(region),
				"shapes":  len(dets),
				"elapsed": time.Since(start),
			}).Info("shapes found")

			report := newFindReport(info, region, tk.Name(), dets)
			if annotate != "" {
				if err := a.saveAnnotated(img, dets, annotate); err != nil {
					return err
				}
				report.Annotated = annotate
			}
			if !polygons {
				for i := range report.Detections {
					report.Detections[i].Polygon = nil
				}
			}

			if err := a.writeMetrics(rec); err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), a.cfg.Output.Format, report, report.writeText)
		},
	}

	cmd.Flags().StringVar(&roi, "roi", "", "region of interest: a name (top-left, center, ...) or x1,y1,x2,y2")
	cmd.Flags().StringVarP(&annotate, "annotate", "a", "", "write a PNG with the detected shapes outlined")
	cmd.Flags().BoolVar(&polygons, "polygons", true, "include polygon vertices in json and yaml output")
	addAnnotateFlags(cmd)
	addDetectionFlags(cmd)
	addFormatFlag(cmd)
	return cmd
}

func newFindReport(info *imaging.ImageInfo, region image.Rectangle, toolkit string, dets []detection.Detection) *findReport {
	if dets == nil {
		dets = []detection.Detection{}
	}
	return &findReport{
		Image:      info.Path,
		Format:     info.Format,
		Width:      info.Width,
		Height:     info.Height,
		Region:     formatRegion(region),
		Toolkit:    toolkit,
		Count:      len(dets),
		Summary:    detection.Summary(dets),
		Detections: dets,
	}
}

// newFinder builds a Finder from the loaded configuration.
func (a *app) newFinder(rec detection.Recorder) (*detection.Finder, detection.Toolkit, error) {
	cls, err := a.newClassifier(rec)
	if err != nil {
		return nil, nil, err
	}
	fc, err := a.cfg.FinderSettings()
	if err != nil {
		return nil, nil, err
	}
	f, err := detection.NewFinder(cls, fc)
	if err != nil {
		return nil, nil, err
	}
	return f, cls.Toolkit(), nil
}

func (a *app) newClassifier(rec detection.Recorder) (*detection.Classifier, error) {
	tk, err := detection.NewToolkit(a.cfg.Finder.Backend)
	if err != nil {
		return nil, err
	}
	return detection.NewClassifier(a.cfg.Detection(), tk,
		detection.WithRecorder(rec),
		detection.WithLogger(a.log),
	)
}

func (a *app) saveAnnotated(img image.Image, dets []detection.Detection, path string) error {
	opts, err := a.cfg.Annotate()
	if err != nil {
		return err
	}
	out := imaging.Annotate(img, detection.Overlays(dets), opts)
	if err := imaging.SavePNG(out, path); err != nil {
		return err
	}
	a.log.WithField("path", path).Debug("annotated image written")
	return nil
}
