package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/codeguardian-ai/codeguardian/internal/ai"
	"github.com/codeguardian-ai/codeguardian/internal/config"
	"github.com/codeguardian-ai/codeguardian/internal/database"
	"github.com/codeguardian-ai/codeguardian/internal/events"
	"github.com/codeguardian-ai/codeguardian/internal/gateway"
	"github.com/codeguardian-ai/codeguardian/internal/notify"
	"github.com/codeguardian-ai/codeguardian/internal/policy"
	"github.com/codeguardian-ai/codeguardian/internal/scan"
	"github.com/codeguardian-ai/codeguardian/internal/store"
	"github.com/spf13/cobra"
)

var gatewayPort int

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Start the codeguardian gateway daemon",
	Long: `Starts the codeguardian gateway: the long-running daemon that accepts
scan triggers, runs the AI analysis pipeline, and streams progress to
connected clients.

Quick API reference:
  GET  /health                                   liveness check
  GET  /api/status                               engine status snapshot
  POST /api/repositories/{id}/scan               trigger a scan
  GET  /api/repositories/{id}/scans              list a repository's scans
  GET  /api/repositories/{id}/vulnerabilities    list findings
  GET  /api/repositories/{id}/stats              aggregate statistics
  GET  /api/scans/{id}                           scan record with summary
  POST /api/webhooks/github                      GitHub push webhook receiver
  GET  /ws                                       websocket event stream

Websocket clients subscribe to channels after connecting:
  {"action":"subscribe","channel":"user:<id>"}
  {"action":"subscribe","channel":"repository:<id>"}`,
	RunE: runGateway,
}

func init() {
	gatewayCmd.Flags().IntVar(&gatewayPort, "port", 0,
		"HTTP port to listen on (default 8080, overrides config)")
}

func runGateway(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		fmt.Println("\nShutting down gateway gracefully...")
		cancel()
	}()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if gatewayPort > 0 {
		cfg.Gateway.Port = gatewayPort
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	provider, err := ai.New(cfg.AI)
	if err != nil {
		return fmt.Errorf("configuring AI provider: %w", err)
	}

	pol, err := policy.Load(cfg.Scanner.PolicyPath)
	if err != nil {
		return fmt.Errorf("loading scan policy: %w", err)
	}

	st := store.New(db)
	hub := events.NewHub()
	notifier := notify.NewDispatcher(cfg.Notify)
	orch := scan.NewOrchestrator(st, provider, hub, notifier, pol, cfg.Scanner, cfg.Git)

	fmt.Printf("codeguardian gateway starting\n")
	fmt.Printf("  AI provider : %s\n", provider.Name())
	fmt.Printf("  Database    : %s\n", db.Driver())
	fmt.Printf("  API         : http://127.0.0.1:%d\n", cfg.Gateway.Port)
	fmt.Printf("  Events      : ws://127.0.0.1:%d/ws\n\n", cfg.Gateway.Port)
	fmt.Println("Press Ctrl+C to stop gracefully.")

	return gateway.New(cfg, st, orch, hub).Start(ctx)
}
