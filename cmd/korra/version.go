package main

import (
	"fmt"
	"strings"

	"github.com/korralabs/korra"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of korra",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("korra version %s\n", strings.TrimSpace(korra.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
