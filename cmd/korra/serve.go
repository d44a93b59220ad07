package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/korralabs/korra/internal/adapters/http"
	redisarchive "github.com/korralabs/korra/internal/adapters/redis"
	"github.com/korralabs/korra/internal/config"
	"github.com/korralabs/korra/internal/logging"
	"github.com/korralabs/korra/internal/observability"
	"github.com/korralabs/korra/pkg/agent"
	"github.com/korralabs/korra/pkg/consensus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start a validator node HTTP server",
	Long:  `Starts a validator node: seeds the roster from the configuration file, then serves proof ingestion, consensus queries, hosted agent execution, and metrics over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		return serve(configPath)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(logging.ParseLevel(cfg.LogLevel))

	validator := consensus.NewValidator(cfg.Consensus.Threshold, consensus.WithLogger(logger))
	for _, n := range cfg.Consensus.Nodes {
		validator.AddNode(n.ID, n.Weight)
	}

	serverOpts := []httpadapter.Option{
		httpadapter.WithLogger(logger),
		httpadapter.WithMetrics(observability.New()),
	}

	if cfg.Redis != nil {
		archiveOpts := []redisarchive.Option{}
		if cfg.Redis.ArchiveCap > 0 {
			archiveOpts = append(archiveOpts, redisarchive.WithCap(cfg.Redis.ArchiveCap))
		}
		archive := redisarchive.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, archiveOpts...)
		defer archive.Close()
		serverOpts = append(serverOpts, httpadapter.WithArchive(archive))
		logger.Info("proof archive enabled", "addr", cfg.Redis.Addr)
	}

	if len(cfg.Agents) > 0 {
		agents := make(map[string]*agent.Agent, len(cfg.Agents))
		for name, agentCfg := range cfg.Agents {
			ag, err := buildAgent(agentCfg, logger)
			if err != nil {
				return fmt.Errorf("agent %q: %w", name, err)
			}
			agents[name] = ag
			logger.Info("hosting agent", "name", name, "id", ag.ID(), "type", ag.Type())
		}
		serverOpts = append(serverOpts, httpadapter.WithAgents(agents))
	}

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: httpadapter.NewHandler(validator, serverOpts...),
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info("starting validator node", "addr", srv.Addr, "threshold", validator.Threshold())
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt or terminate signals.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info("starting shutdown", "signal", sig.String())

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown did not complete", "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("could not stop server: %w", err)
			}
		}
	}
	return nil
}
