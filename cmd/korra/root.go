package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "korra",
	Short: "Korra is an agent execution and attestation engine",
	Long:  `Korra runs agents in sandboxes, attaches tamper-evident execution proofs to their results, and aggregates proofs from weighted validator nodes into trust verdicts.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "korra.yaml", "Path to the configuration file")
}
