package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/shape-finder-mcp/internal/config"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}
	cmd.AddCommand(newConfigShowCommand(a), newConfigInitCommand())
	return cmd
}

func newConfigShowCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults, the config file, SHAPEFINDER_*
environment variables and flags have been applied. Text output is YAML.`,
		Args:    cobra.NoArgs,
		PreRunE: a.preRun,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if used := a.v.ConfigFileUsed(); used != "" {
				a.log.WithField("file", used).Info("using config file")
			}
			return writeReport(cmd.OutOrStdout(), a.cfg.Output.Format, a.cfg, func(w io.Writer) error {
				out, err := yaml.Marshal(a.cfg)
				if err != nil {
					return err
				}
				_, err = w.Write(out)
				return err
			})
		},
	}
	addFormatFlag(cmd)
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Write the default configuration to a file",
		Long: `Write the built-in defaults to a YAML file, shapefinder.yaml in the current
directory unless a file is given. An existing file is only replaced with
--force.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.ConfigFileName + ".yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.NewLoaderWith(viper.New()).WriteDefaults(path); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote default configuration to %s\n", path)
			return err
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
