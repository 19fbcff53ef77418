package main

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/iafilius/FixtureCharts/src/config"
	"github.com/iafilius/FixtureCharts/src/types"
)

var errBatchFailed = errors.New("chart generation failed")

func newGenerateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Run one generation batch and print the result as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer a.close()

			res := a.gen.Run()
			b, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			if res.Status == types.StatusError {
				return fmt.Errorf("%w: %s", errBatchFailed, res.Message)
			}
			return nil
		},
	}
}

func newListCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the known charts present in the output directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			l := listCharts(cfg)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total charts: %d\n", l.Total)
			for _, name := range l.Charts {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}
}
