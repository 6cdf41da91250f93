package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mpatel/patminer/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the A2A agent server",
	Long: `Serve exposes the pattern miner as an A2A agent: skill dispatch at
/a2a/execute, fire-and-forget mining at /api/mine, a health endpoint, and
the agent card at /.well-known/agent.json.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	c, err := initComponents(cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing components: %w", err)
	}
	defer c.Store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Single mining runner: fire-and-forget requests from the boundary are
	// consumed sequentially, keeping outbound request concurrency bounded.
	requests := c.Broker.Subscribe(ctx)
	go func() {
		for req := range requests {
			c.Analyze.Mine(ctx, req)
		}
	}()

	srv := server.New(server.Config{
		Registry:     c.Registry,
		Store:        c.Store,
		Broker:       c.Broker,
		AgentURL:     cfg.Server.AgentURL,
		DefaultRepos: cfg.Repos,
		Logger:       logger,
	})

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("A2A agent listening",
			"port", cfg.Server.Port,
			"skills", c.Registry.IDs(),
			"store_mode", c.Store.Mode(),
		)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
