package main

import (
	"fmt"
	"os"

	"github.com/korralabs/korra/pkg/proof"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify an execution proof against raw input and output",
	Long:  `Recomputes every hash of a stored proof from the supplied agent id, input file, and output file, and reports whether the proof is authentic.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		proofPath, _ := cmd.Flags().GetString("proof")
		agentID, _ := cmd.Flags().GetString("agent-id")
		inputPath, _ := cmd.Flags().GetString("input")
		outputPath, _ := cmd.Flags().GetString("output")

		data, err := os.ReadFile(proofPath)
		if err != nil {
			return err
		}
		p, err := proof.FromJSON(data)
		if err != nil {
			return err
		}

		input, err := os.ReadFile(inputPath)
		if err != nil {
			return err
		}
		output, err := os.ReadFile(outputPath)
		if err != nil {
			return err
		}

		if !p.Verify(agentID, input, output) {
			return fmt.Errorf("proof %s does not match the supplied execution", p.ProofHash)
		}
		fmt.Printf("proof %s verified for agent %s\n", p.ProofHash, agentID)
		return nil
	},
}

func init() {
	verifyCmd.Flags().String("proof", "", "Path to the proof JSON file")
	verifyCmd.Flags().String("agent-id", "", "Agent identifier the proof claims")
	verifyCmd.Flags().String("input", "", "Path to the raw input")
	verifyCmd.Flags().String("output", "", "Path to the raw output")
	for _, f := range []string{"proof", "agent-id", "input", "output"} {
		_ = verifyCmd.MarkFlagRequired(f)
	}
	rootCmd.AddCommand(verifyCmd)
}
