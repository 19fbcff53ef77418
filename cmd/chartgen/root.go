package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/iafilius/FixtureCharts/src/config"
	"github.com/iafilius/FixtureCharts/src/logging"
)

// cliFlags holds the persistent flags shared by every subcommand.
type cliFlags struct {
	configPath string
	logLevel   string
	logFormat  string
	outputDir  string
}

func newRootCmd() *cobra.Command {
	flags := &cliFlags{}
	cfg := &config.Config{}

	root := &cobra.Command{
		Use:          "chartgen",
		Short:        "Generate watermarked charts from synthetic fixture records",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flags.configPath != "" {
				os.Setenv(config.ConfigPathEnvVar, flags.configPath)
			}
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				loaded.Logging.Level = flags.logLevel
			}
			if cmd.Flags().Changed("log-format") {
				loaded.Logging.Format = flags.logFormat
			}
			if flags.outputDir != "" {
				loaded.Output.Dir = flags.outputDir
			}
			logging.Init(logging.Config{Level: loaded.Logging.Level, Format: loaded.Logging.Format, Output: cmd.ErrOrStderr()})
			*cfg = *loaded
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Path to a YAML config file (overrides CONFIG_PATH)")
	pf.StringVar(&flags.logLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	pf.StringVar(&flags.logFormat, "log-format", "console", "Log format (console|json)")
	pf.StringVar(&flags.outputDir, "output-dir", "", "Chart output directory (skips candidate resolution)")

	root.AddCommand(newGenerateCmd(cfg), newListCmd(cfg), newServeCmd(cfg), newTokenCmd(cfg))
	return root
}
