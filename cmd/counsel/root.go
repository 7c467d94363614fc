package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bufetemejia/counsel/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "counsel",
	Short: "Counsel is a tool-augmented legal drafting assistant",
	Long: `Counsel drives multi-turn conversations against a reasoning runtime,
grounding answers in statute excerpts retrieved from a legal corpus.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "counsel.yaml", "Path to the configuration file")
}

// loadConfig reads the configuration named by the persistent --config flag.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}
