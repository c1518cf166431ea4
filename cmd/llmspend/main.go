package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/davidbz/llmspend/internal/observability"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "llmspend",
		Short:   "llmspend — monthly LLM API spend estimation from scenario files",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := observability.InitLogger()
			return err
		},
		SilenceUsage: true,
	}

	root.AddCommand(
		newRunCmd(),
		newCompareCmd(),
		newModelsCmd(),
		newPricesCmd(),
		newServeCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
