package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/davidbz/llmspend/internal/config"
	"github.com/davidbz/llmspend/internal/report"
)

func newRunCmd() *cobra.Command {
	var (
		runAll       bool
		forceRefresh bool
		outputFormat string
		savePath     string
	)

	cmd := &cobra.Command{
		Use:   "run [scenario.json]",
		Short: "Run a spend simulation for one scenario file, or --all for the whole directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !runAll && len(args) == 0 {
				return errors.New("provide a scenario file or --all")
			}

			format, err := report.ParseFormat(outputFormat)
			if err != nil {
				return err
			}

			ctx := context.Background()
			sim := buildSimulator(config.Load())
			reporter := report.NewReporter()

			var output string
			if runAll {
				comparison, runErr := sim.RunAll(ctx, forceRefresh)
				if runErr != nil {
					return runErr
				}
				output, err = reporter.RenderComparison(comparison, format)
			} else {
				result, runErr := sim.RunFile(ctx, args[0], forceRefresh)
				if runErr != nil {
					return runErr
				}
				output, err = reporter.Render(result, format)
			}
			if err != nil {
				return err
			}

			return emit(output, savePath)
		},
	}

	cmd.Flags().BoolVar(&runAll, "all", false, "run every scenario in the scenarios directory")
	cmd.Flags().BoolVar(&forceRefresh, "refresh", false, "force refresh price data from the feed")
	cmd.Flags().StringVar(&outputFormat, "output", "text", "output format: text, json, markdown or html")
	cmd.Flags().StringVar(&savePath, "save", "", "save results to a file")

	return cmd
}
