package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/coursetide/coursetide/internal/config"
	"github.com/coursetide/coursetide/internal/logging"
	"github.com/coursetide/coursetide/internal/tui"
	"github.com/coursetide/coursetide/pkg/api"
	"github.com/coursetide/coursetide/pkg/session"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "version", "-v":
			fmt.Println("coursetide " + version)
			return nil
		case "help", "--help", "-h":
			printHelp()
			return nil
		case "logout":
			return runLogout()
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
			printHelp()
			return fmt.Errorf("unknown command %q", os.Args[1])
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	store, err := session.NewStore()
	if err != nil {
		return err
	}
	mgr := session.NewManager(store)
	client := api.New(cfg.APIURL, store)

	logger.Info("starting",
		zap.String("version", version),
		zap.String("api_url", cfg.APIURL),
	)

	app := tui.NewApp(client, mgr)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Error("tui exited", zap.Error(err))
		return fmt.Errorf("tui error: %w", err)
	}
	logger.Info("exited")
	return nil
}

func runLogout() error {
	store, err := session.NewStore()
	if err != nil {
		return err
	}
	if store.Token() == "" {
		fmt.Println("Already logged out.")
		return nil
	}
	if err := store.Clear(); err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}

func printHelp() {
	fmt.Println(`coursetide — terminal client for the coursetide course service

Usage:
  coursetide            launch the TUI
  coursetide logout     forget the saved credential
  coursetide version    print the version
  coursetide help       show this help

Configuration is read from ~/.coursetide/config.yaml; COURSETIDE_API_URL,
COURSETIDE_LOG_FILE, COURSETIDE_LOG_LEVEL and COURSETIDE_TOKEN override it.`)
}
