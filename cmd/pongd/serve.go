package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/pong-arena/internal/config"
	"github.com/vovakirdan/pong-arena/internal/server"
)

var (
	flagAddr     string
	flagConfig   string
	flagDBPath   string
	flagLogLevel string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the game server",
	Long: `Start the WebSocket game server.

Configuration is read from the embedded defaults, then ./configs/pongd.yaml
or the file given with --config, then overridden by flags.

Examples:
  pongd serve
  pongd serve --addr :8080 --log-level debug
  pongd serve --db ./matches.db`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (host:port)")
	serveCmd.Flags().StringVar(&flagConfig, "config", "", "Path to config file")
	serveCmd.Flags().StringVar(&flagDBPath, "db", "", "Path to match history database")
	serveCmd.Flags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flagAddr != "" {
		cfg.Server.Addr = flagAddr
	}
	if flagDBPath != "" {
		cfg.Server.DBPath = flagDBPath
	}
	if flagLogLevel != "" {
		cfg.Server.LogLevel = flagLogLevel
	}

	level, err := log.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "pongd",
		Level:           level,
		ReportTimestamp: true,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(cfg, logger).Run(ctx)
}
