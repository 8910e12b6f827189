package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/digiheadway/sales-crm/internal/config"
	"github.com/digiheadway/sales-crm/internal/mcp"
	"github.com/digiheadway/sales-crm/internal/mockapi"
)

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Run a local mock of the upstream CRM API",
	Long: `Run a local mock of the upstream CRM API with a small seeded dataset.

Point the client at it with:
  crm config set api.base_url http://127.0.0.1:7070`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		port := cfg.Mock.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}
		empty, _ := cmd.Flags().GetBool("empty")

		api := mockapi.New()
		if !empty {
			api.SeedDefault()
		}

		addr := fmt.Sprintf("127.0.0.1:%d", port)
		srv := &http.Server{Addr: addr, Handler: api.Handler()}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			fmt.Fprintf(os.Stderr, "mock CRM API listening on %s\n", addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "shutting down...")
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve lead and todo tools over MCP (stdio transport)",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newStore()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		stdioSrv := server.NewStdioServer(mcp.NewServer(store))
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("MCP stdio server error", "error", err)
			return err
		}
		return nil
	},
}

func init() {
	mockCmd.Flags().Int("port", 0, "listen port (default from config)")
	mockCmd.Flags().Bool("empty", false, "start with no seeded data")
}
