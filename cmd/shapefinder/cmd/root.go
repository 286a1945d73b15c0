// Package cmd implements the shapefinder command line.
package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ironsheep/shape-finder-mcp/internal/config"
	"github.com/ironsheep/shape-finder-mcp/internal/logger"
	"github.com/ironsheep/shape-finder-mcp/internal/metrics"
)

// BuildInfo is the version information stamped in at link time.
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (built %s, commit %s)", b.Version, b.BuildTime, b.GitCommit)
}

// app is the state shared by one command tree.
type app struct {
	build   BuildInfo
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	log     logrus.FieldLogger
}

// flagKeys maps command-line flags to configuration keys. Each command
// binds the flags it defines.
var flagKeys = map[string]string{
	"log-level":    "log.level",
	"log-format":   "log.format",
	"format":       "output.format",
	"thickness":    "output.thickness",
	"labels":       "output.labels",
	"channels":     "finder.channels",
	"levels":       "finder.levels",
	"workers":      "finder.workers",
	"backend":      "finder.backend",
	"smooth":       "finder.smooth",
	"min-area":     "classifier.min_area",
	"epsilon":      "classifier.approx_epsilon",
	"metrics-file": "metrics.textfile",
}

// NewRootCommand returns the shapefinder command tree. Every call gets its
// own configuration state.
func NewRootCommand(build BuildInfo) *cobra.Command {
	a := &app{build: build, v: viper.New()}
	d := config.DefaultConfig()

	root := &cobra.Command{
		Use:   "shapefinder",
		Short: "Find triangles, rectangles, pentagons, circles and ellipses in images",
		Long: `shapefinder detects simple geometric shapes in raster images.

Each image is split into colour planes, every plane is turned into a stack
of binary masks (an edge map plus threshold levels) and the outline of
every blob is classified as a triangle, rectangle, pentagon, circle or
ellipse.

The same tools are available to MCP clients through "shapefinder serve".

Examples:
  shapefinder find shapes.png
  shapefinder find shapes.png --format json --annotate found.png
  shapefinder classify contours.yaml
  shapefinder masks shapes.png --out masks/
  shapefinder serve`,
		Version:      build.String(),
		SilenceUsage: true,
	}
	root.SetVersionTemplate("shapefinder {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is shapefinder.yaml in ., $XDG_CONFIG_HOME/shapefinder, /etc/shapefinder)")
	pf.BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	pf.String("log-level", d.Log.Level, "log level (trace, debug, info, warn, error)")
	pf.String("log-format", d.Log.Format, "log format (text, json)")

	root.AddCommand(
		newFindCommand(a),
		newClassifyCommand(a),
		newMasksCommand(a),
		newServeCommand(a),
		newConfigCommand(a),
		newVersionCommand(a),
	)
	return root
}

// setup binds cmd's flags, loads the configuration and configures logging.
// Commands call it from PreRunE.
func (a *app) setup(cmd *cobra.Command) error {
	for flag, key := range flagKeys {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			continue
		}
		if err := a.v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}

	cfg, err := config.NewLoaderWith(a.v).Load(a.cfgFile)
	if err != nil {
		return err
	}

	level := cfg.Log.Level
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	if err := logger.Configure(logger.Options{
		Level:  level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	}); err != nil {
		return err
	}

	a.cfg = cfg
	a.log = logger.WithField("command", cmd.Name())
	if used := a.v.ConfigFileUsed(); used != "" {
		a.log.WithField("file", used).Debug("configuration loaded")
	}
	return nil
}

func (a *app) preRun(cmd *cobra.Command, _ []string) error {
	return a.setup(cmd)
}

// writeMetrics exports rec when a metrics textfile is configured.
func (a *app) writeMetrics(rec *metrics.Recorder) error {
	path := a.cfg.Metrics.Textfile
	if path == "" {
		return nil
	}
	if err := rec.WriteTextfile(path); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	a.log.WithField("path", path).Debug("metrics written")
	return nil
}

// addDetectionFlags adds the classifier and mask flags shared by the
// commands that scan images.
func addDetectionFlags(cmd *cobra.Command) {
	d := config.DefaultConfig()
	addMaskFlags(cmd)
	cmd.Flags().Int("workers", d.Finder.Workers, "classification workers per mask (0 = one per CPU)")
	cmd.Flags().String("backend", d.Finder.Backend, "contour backend (native, opencv)")
	addClassifierFlags(cmd)
}

func addMaskFlags(cmd *cobra.Command) {
	d := config.DefaultConfig()
	f := cmd.Flags()
	f.StringSlice("channels", d.Finder.Channels, "colour planes to scan (red, green, blue, gray)")
	f.Int("levels", d.Finder.Levels, "masks per channel: one edge map plus levels-1 thresholds")
	f.Bool("smooth", d.Finder.Smooth, "smooth the image with a pyramid round trip before splitting")
}

func addClassifierFlags(cmd *cobra.Command) {
	d := config.DefaultConfig()
	f := cmd.Flags()
	f.Float64("min-area", d.Classifier.MinArea, "smallest polygon area accepted, in pixels (exclusive)")
	f.Float64("epsilon", d.Classifier.ApproxEpsilon, "polygon approximation tolerance as a fraction of the perimeter")
	f.String("metrics-file", "", "write Prometheus metrics to this textfile")
}

func addAnnotateFlags(cmd *cobra.Command) {
	d := config.DefaultConfig()
	cmd.Flags().Int("thickness", d.Output.Thickness, "outline width of annotated shapes, in pixels")
	cmd.Flags().Bool("labels", d.Output.Labels, "label annotated shapes")
}

func addFormatFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", config.DefaultConfig().Output.Format, "output format (text, json, yaml)")
}
