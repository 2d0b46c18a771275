// ABOUTME: Entry point for the hassle-chat client core server
// ABOUTME: Serves the session API, the event stream, and the backend proxy

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/hassle-hq/hassle-chat/internal/attachment"
	"github.com/hassle-hq/hassle-chat/internal/chat"
	"github.com/hassle-hq/hassle-chat/internal/config"
	"github.com/hassle-hq/hassle-chat/internal/dispatch"
	"github.com/hassle-hq/hassle-chat/internal/proxy"
	"github.com/hassle-hq/hassle-chat/internal/store"
	"github.com/hassle-hq/hassle-chat/internal/web"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
 _                    _                 _           _
| |__   __ _ ___ ___ | | ___        ___| |__   __ _| |_
| '_ \ / _' / __/ __|| |/ _ \_____ / __| '_ \ / _' | __|
| | | | (_| \__ \__ \| |  __/_____| (__| | | | (_| | |_
|_| |_|\__,_|___/___/|_|\___|      \___|_| |_|\__,_|\__|
`

// getConfigPath returns the path to the config file.
// Priority: HASSLE_CONFIG env var > XDG_CONFIG_HOME/hassle/chat.yaml > ~/.config/hassle/chat.yaml
func getConfigPath() string {
	if envPath := os.Getenv("HASSLE_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "chat.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "hassle", "chat.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: hassle-chat <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve     Start the chat client server")
		fmt.Println("  health    Check server health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	if cfg.Upstream.ChatURL != "" {
		fmt.Printf("Upstream:  %s\n", cfg.Upstream.ChatURL)
	} else {
		fmt.Printf("Upstream:  (none - local responder)\n")
	}
	fmt.Println()

	// Durable store
	var kv store.KV
	if cfg.Database.Ephemeral {
		logger.Warn("running ephemeral: state will not survive a restart")
		kv = store.NewMockKV()
	} else {
		sqliteKV, err := store.NewSQLiteKV(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		kv = sqliteKV
	}
	defer kv.Close()

	// Core wiring: state store -> repository -> dispatcher -> web API
	stateStore := store.NewStateStore(kv, logger)
	events := chat.NewEventBroadcaster(logger)
	defer events.Close()
	repo := chat.NewRepository(stateStore, events, logger)

	attachments := attachment.New(cfg.Attachments.TTL, cfg.Attachments.MaxCount)
	defer attachments.Close()

	var exchanger dispatch.Exchanger
	if cfg.Upstream.ChatURL != "" {
		exchanger = dispatch.NewHTTPExchanger(cfg.Upstream.ChatURL, cfg.Upstream.Timeout)
	} else {
		exchanger = &dispatch.LocalResponder{Delay: cfg.Upstream.ThinkingDelay}
	}
	dispatcher := dispatch.New(repo, exchanger, attachments, logger)

	mux := http.NewServeMux()
	api := web.New(repo, dispatcher, attachments, events, logger)
	api.Routes(mux)
	if cfg.Upstream.ChatURL != "" {
		// Same-origin proxy for browser clients that talk to the backend
		// directly instead of through the send-message endpoint.
		mux.Handle("POST /api/proxy", proxy.New(cfg.Upstream.ChatURL, cfg.Upstream.Timeout, logger))
	}

	server := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Server.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func runHealth(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/healthz", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	fmt.Println("ok")
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
