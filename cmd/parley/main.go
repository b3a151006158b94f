// parley is a plugin-driven Telegram chat bot. The start command runs the
// long-poll loop; watch attaches a live terminal monitor to a running bot.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/parleybot/parley/internal/api"
	"github.com/parleybot/parley/internal/config"
	"github.com/parleybot/parley/internal/dispatch"
	"github.com/parleybot/parley/internal/doctor"
	"github.com/parleybot/parley/internal/events"
	"github.com/parleybot/parley/internal/ledger"
	"github.com/parleybot/parley/internal/lock"
	"github.com/parleybot/parley/internal/log"
	"github.com/parleybot/parley/internal/plugin"
	"github.com/parleybot/parley/internal/plugins/currency"
	"github.com/parleybot/parley/internal/plugins/pasta"
	"github.com/parleybot/parley/internal/storage"
	"github.com/parleybot/parley/internal/telegram"
	"github.com/parleybot/parley/internal/tui/watch"
)

var version = "dev"

func main() {
	// Allow TELEGRAM_TOKEN etc. to live in a local .env file.
	_ = godotenv.Load()

	cmd := "start"
	args := os.Args[1:]
	if len(args) > 0 && args[0][0] != '-' {
		cmd = args[0]
		args = args[1:]
	}

	switch cmd {
	case "start":
		os.Exit(runStart(args))
	case "check":
		os.Exit(runCheck(args))
	case "watch":
		os.Exit(runWatch(args))
	case "version":
		fmt.Printf("parley version %s\n", version)
		os.Exit(0)
	case "help", "--help", "-h":
		printUsage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`Usage: parley <command> [flags]

Commands:
  start    Run the bot (default)
  check    Validate configuration and exit
  watch    Live terminal monitor for a running bot
  version  Print version

Flags for start:
  -config  Path to configuration file (default ./config.yaml)

Flags for watch:
  -api     Admin API base URL (default http://127.0.0.1:8130)
  -key     Admin API key
`)
}

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configPath := fs.String("config", "./config.yaml", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel, cfg.Service.LogFormat)
	logger := log.WithComponent("main")
	logger.Info("parley starting", "version", version, "config", *configPath)

	pidLock, err := lock.Acquire(pidLockPath(cfg))
	if err != nil {
		logger.Error("failed to acquire instance lock", "error", err)
		return 1
	}
	defer pidLock.Release()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := storage.OpenSQLite(ctx, cfg.State.Path)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.State.Path, "error", err)
		return 1
	}
	defer db.Close()
	logger.Info("database opened", "path", cfg.State.Path)

	led, err := ledger.Open(ctx, db)
	if err != nil {
		logger.Error("failed to load ledger", "error", err)
		return 1
	}
	pool := ledger.NewBettingPool(0)

	registry := plugin.NewRegistry()
	if cfg.Plugins.Pasta.Enabled {
		if err := registry.Register(pasta.Factory(cfg.Plugins.Pasta.Dir)); err != nil {
			logger.Error("failed to register pasta plugin", "error", err)
			return 1
		}
	}
	if cfg.Plugins.Currency.Enabled {
		factory := currency.Factory(led, pool, db, currency.Config{
			Operators: cfg.Plugins.Currency.Operators,
			Admin:     cfg.Plugins.Currency.Admin,
			Grubstake: cfg.Plugins.Currency.Grubstake,
			Name:      cfg.Plugins.Currency.Name,
		})
		if err := registry.Register(factory); err != nil {
			logger.Error("failed to register currency plugin", "error", err)
			return 1
		}
	}
	logger.Info("plugins registered", "count", len(registry.Describe()))

	client := telegram.NewClient(cfg.Telegram.Token, cfg.Telegram.APIBase)
	me, err := client.GetMe(ctx)
	if err != nil {
		logger.Error("telegram authentication failed", "error", err)
		return 1
	}
	logger.Info("authenticated", "bot", me.Username, "id", me.ID)

	hub := events.NewHub(256)
	dispatcher := dispatch.New(registry, client, hub, cfg.Service.CommandPrefix[0])
	poller := dispatch.NewPoller(client, dispatcher, hub, cfg.Service.PollTimeout)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 2)

	go func() {
		if err := poller.Run(ctx); err != nil && err != context.Canceled {
			errCh <- fmt.Errorf("poller: %w", err)
		}
	}()

	if cfg.API.Enabled {
		apiServer := api.New(api.Config{
			Listen: cfg.API.Listen,
			APIKey: cfg.API.APIKey,
		}, registry, led, dispatcher, hub)
		go func() {
			if err := apiServer.Start(ctx); err != nil && err != context.Canceled {
				errCh <- fmt.Errorf("api: %w", err)
			}
		}()
		logger.Info("admin API enabled", "listen", cfg.API.Listen)
	}

	logger.Info("parley running (press Ctrl+C to stop)")

	exit := 0
	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		logger.Error("component failed", "error", err)
		exit = 1
	}
	cancel()

	if dispatcher.Drain(cfg.Service.DrainTimeout) {
		logger.Info("all dispatches completed")
	} else {
		logger.Warn("drain timeout, abandoning in-flight dispatches", "in_flight", dispatcher.InFlight())
	}

	logger.Info("parley stopped")
	return exit
}

func pidLockPath(cfg *config.Config) string {
	return filepath.Join(filepath.Dir(cfg.State.Path), "parley.pid")
}

func runCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", "./config.yaml", "Path to configuration file")
	asJSON := fs.Bool("json", false, "Emit the result as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	result := doctor.New(cfg).Validate()
	fmt.Print(result.Render(*asJSON))
	if !result.Valid {
		return 1
	}
	return 0
}

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	apiURL := fs.String("api", "http://127.0.0.1:8130", "Admin API base URL")
	apiKey := fs.String("key", os.Getenv("PARLEY_API_KEY"), "Admin API key")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	if err := watch.Run(*apiURL, *apiKey); err != nil {
		fmt.Fprintf(os.Stderr, "watch failed: %v\n", err)
		return 1
	}
	return 0
}
