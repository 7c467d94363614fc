package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bufetemejia/counsel"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of counsel",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("counsel version %s\n", strings.TrimSpace(counsel.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
