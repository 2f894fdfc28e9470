package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	httpserver "github.com/ptit-hub/study-assistant/internal/interface/http"
	"github.com/ptit-hub/study-assistant/internal/interface/http/handlers"
)

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /chat and the health probes",
		Args:  cobra.NoArgs,
		RunE:  c.runServe,
	}
}

func (c *cli) runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, log := c.cfg, c.logger

	log.Info("starting study assistant", "env", cfg.App.Environment, "timezone", cfg.App.Timezone)

	comps, err := build(ctx, cfg, log, buildOptions{turnLog: true, waitForDeps: true})
	if err != nil {
		return err
	}
	defer comps.close()

	checker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	comps.healthChecks(checker)

	srvCfg := httpserver.DefaultConfig()
	srvCfg.Host = cfg.HTTP.Host
	srvCfg.Port = cfg.HTTP.Port
	srvCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	srvCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	srvCfg.MaxBodyBytes = cfg.HTTP.MaxBodyBytes
	srvCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute

	srv := httpserver.NewServer(srvCfg, httpserver.Dependencies{
		Chat:          comps.engine,
		HealthChecker: checker,
		Version:       cfg.App.Version,
		Logger:        log,
	})

	errCh := srv.StartAsync()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if comps.turns != nil {
		if n := comps.turns.Dropped(); n > 0 {
			log.Warn("turn log dropped turns while running", "dropped", n)
		}
	}
	log.Info("shutdown completed")
	return nil
}
