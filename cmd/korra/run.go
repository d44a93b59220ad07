package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/korralabs/korra/internal/config"
	"github.com/korralabs/korra/internal/logging"
	"github.com/korralabs/korra/pkg/adapters/local"
	"github.com/korralabs/korra/pkg/agent"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a configured agent once",
	Long:  `Builds the named agent from the configuration file, runs it over the given input, writes the raw output to stdout, and the execution proof JSON to stderr or a file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		name, _ := cmd.Flags().GetString("agent")
		inputPath, _ := cmd.Flags().GetString("input")
		proofPath, _ := cmd.Flags().GetString("proof-out")

		return runAgent(cmd.Context(), configPath, name, inputPath, proofPath)
	},
}

func init() {
	runCmd.Flags().String("agent", "", "Agent name from the configuration file")
	runCmd.Flags().String("input", "-", "Input file, or - for stdin")
	runCmd.Flags().String("proof-out", "", "Write the execution proof JSON to this file instead of stderr")
	_ = runCmd.MarkFlagRequired("agent")
	rootCmd.AddCommand(runCmd)
}

func runAgent(ctx context.Context, configPath, name, inputPath, proofPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(logging.ParseLevel(cfg.LogLevel))

	agentCfg, ok := cfg.Agents[name]
	if !ok {
		return fmt.Errorf("agent %q not found in %s", name, configPath)
	}

	ag, err := buildAgent(agentCfg, logger)
	if err != nil {
		return err
	}

	input, err := readInput(inputPath)
	if err != nil {
		return err
	}

	output, err := ag.Execute(ctx, input)
	if err != nil {
		return err
	}

	if _, err := os.Stdout.Write(output); err != nil {
		return err
	}

	proofJSON, err := ag.LastProof().ToJSON()
	if err != nil {
		return err
	}
	if proofPath != "" {
		return os.WriteFile(proofPath, proofJSON, 0o644)
	}
	fmt.Fprintln(os.Stderr, string(proofJSON))
	return nil
}

// buildAgent wires the sandbox: process-backed when a module path is
// configured, the deterministic echo fallback for custom agents without one.
func buildAgent(agentCfg config.AgentConfig, logger *slog.Logger) (*agent.Agent, error) {
	opts := []agent.Option{agent.WithLogger(logger)}
	if _, ok := agentCfg.Config["module_path"]; !ok && agentCfg.Type == "custom" {
		opts = append(opts, agent.WithSandbox(local.New(local.Echo("echo: "))))
	}
	return agent.New(agentCfg.Type, agentCfg.Config, opts...)
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
