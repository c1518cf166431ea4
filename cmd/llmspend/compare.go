package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/davidbz/llmspend/internal/config"
	"github.com/davidbz/llmspend/internal/report"
)

func newCompareCmd() *cobra.Command {
	var (
		forceRefresh bool
		outputFormat string
		savePath     string
	)

	cmd := &cobra.Command{
		Use:   "compare <scenario.json> <scenario.json>...",
		Short: "Run multiple scenarios and rank them by monthly cost",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := report.ParseFormat(outputFormat)
			if err != nil {
				return err
			}

			sim := buildSimulator(config.Load())

			comparison, err := sim.RunPaths(context.Background(), args, forceRefresh)
			if err != nil {
				return err
			}

			output, err := report.NewReporter().RenderComparison(comparison, format)
			if err != nil {
				return err
			}

			return emit(output, savePath)
		},
	}

	cmd.Flags().BoolVar(&forceRefresh, "refresh", false, "force refresh price data from the feed")
	cmd.Flags().StringVar(&outputFormat, "output", "text", "output format: text, json, markdown or html")
	cmd.Flags().StringVar(&savePath, "save", "", "save results to a file")

	return cmd
}
