package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/davidbz/llmspend/internal/catalog"
	"github.com/davidbz/llmspend/internal/config"
)

func newModelsCmd() *cobra.Command {
	var (
		topN         int
		forceRefresh bool
	)

	cmd := &cobra.Command{
		Use:   "models",
		Short: "Show the top models per vendor from the current price table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sim := buildSimulator(config.Load())

			table, err := sim.Prices(context.Background(), forceRefresh)
			if err != nil {
				return err
			}

			top := catalog.TopPerVendor(table, topN)

			fmt.Println(strings.Repeat("=", 80))
			fmt.Println("TOP MODELS PER VENDOR")
			fmt.Println(strings.Repeat("=", 80))

			for _, vendor := range catalog.Vendors(table) {
				picks := top[vendor]
				if len(picks) == 0 {
					continue
				}

				fmt.Printf("\n%s:\n", vendor)
				for _, model := range picks {
					fmt.Printf("  %-40s tier %d  $%.2f in / $%.2f out per 1M\n",
						model.Price.ID, model.Tier,
						model.Price.InputPerMillion, model.Price.OutputPerMillion)
				}
			}

			fmt.Printf("\n%d models in table, updated %s\n",
				len(table.Models), table.UpdatedAt.Format("2006-01-02"))
			return nil
		},
	}

	cmd.Flags().IntVar(&topN, "top", 2, "models to select per vendor")
	cmd.Flags().BoolVar(&forceRefresh, "refresh", false, "force refresh price data from the feed")

	return cmd
}
