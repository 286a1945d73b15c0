package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ironsheep/shape-finder-mcp/internal/metrics"
	"github.com/ironsheep/shape-finder-mcp/internal/server"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdin and stdout",
		Long: `Run a Model Context Protocol server that speaks JSON-RPC over stdin and
stdout. Logs go to stderr.

Tools:
  image_load       - Load an image and report its dimensions
  shapes_find      - Find shapes in an image or a region of it
  shapes_classify  - Classify caller-supplied contours
  shapes_annotate  - Draw the detected shapes onto the image
  shapes_masks     - Inspect the binary masks scanned for shapes

The flags set server-wide defaults; most tools accept per-call overrides.

Examples:
  shapefinder serve
  shapefinder serve --channels gray --levels 6 --log-level debug`,
		Args:    cobra.NoArgs,
		PreRunE: a.preRun,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := a.serverOptions()
			if err != nil {
				return err
			}
			rec := metrics.NewRecorder()
			opts.Recorder = rec

			srv, err := server.New(opts)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.log.WithFields(logrus.Fields{
				"version": a.build.Version,
				"backend": opts.Backend,
			}).Info("MCP server starting")

			err = srv.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
			if errors.Is(err, context.Canceled) {
				err = nil
			}
			a.log.Info("MCP server stopped")

			if merr := a.writeMetrics(rec); merr != nil && err == nil {
				err = merr
			}
			return err
		},
	}

	addDetectionFlags(cmd)
	addAnnotateFlags(cmd)
	return cmd
}

// serverOptions maps the loaded configuration onto the MCP server.
func (a *app) serverOptions() (server.Options, error) {
	fc, err := a.cfg.FinderSettings()
	if err != nil {
		return server.Options{}, err
	}
	anno, err := a.cfg.Annotate()
	if err != nil {
		return server.Options{}, err
	}
	return server.Options{
		Classifier: a.cfg.Detection(),
		Finder:     fc,
		Backend:    a.cfg.Finder.Backend,
		Annotate:   anno,
		Version:    a.build.Version,
	}, nil
}
