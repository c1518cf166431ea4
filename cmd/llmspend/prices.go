package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/davidbz/llmspend/internal/config"
	"github.com/davidbz/llmspend/internal/domain"
)

func newPricesCmd() *cobra.Command {
	var (
		forceRefresh bool
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "prices",
		Short: "Show the resolved price table (feed + cache + overrides)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sim := buildSimulator(config.Load())

			table, err := sim.Prices(context.Background(), forceRefresh)
			if err != nil {
				return err
			}

			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(table)
			}

			models := make([]domain.ModelPrice, 0, len(table.Models))
			for _, price := range table.Models {
				models = append(models, price)
			}
			sort.Slice(models, func(i, j int) bool {
				if models[i].Vendor != models[j].Vendor {
					return models[i].Vendor < models[j].Vendor
				}
				return models[i].ID < models[j].ID
			})

			fmt.Println(strings.Repeat("=", 80))
			fmt.Printf("MODEL PRICES (USD per 1M tokens, updated %s)\n",
				table.UpdatedAt.Format("2006-01-02"))
			fmt.Println(strings.Repeat("=", 80))
			fmt.Printf("%-30s %-12s %10s %10s %10s\n", "Model", "Vendor", "Input", "Output", "Cached")
			fmt.Println(strings.Repeat("-", 80))

			for _, price := range models {
				cachedCol := "-"
				if price.CachedInputPerMillion != nil {
					cachedCol = fmt.Sprintf("%.3f", *price.CachedInputPerMillion)
				}
				fmt.Printf("%-30s %-12s %10.3f %10.3f %10s\n",
					price.ID, price.Vendor,
					price.InputPerMillion, price.OutputPerMillion, cachedCol)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&forceRefresh, "refresh", false, "force refresh price data from the feed")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the raw table as JSON")

	return cmd
}
