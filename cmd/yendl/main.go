package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/datallboy/yencore/internal/config"
	"github.com/datallboy/yencore/internal/history"
	"github.com/datallboy/yencore/internal/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "yendl",
	Short: "yendl drives the yencore decoder against a real Usenet feed",
	Long:  "A lightweight, concurrent NNTP downloader built on a streaming yEnc/UUEncode decoder.",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the config file")
	rootCmd.AddCommand(getCmd, historyCmd, encodeCmd)
}

// loadAll loads the config and builds the logger from it, the way every
// subcommand that touches the network or the ledger needs them. It does
// not open the history ledger.
func loadAll() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("config error: %w", err)
	}

	log, err := logger.New(cfg.Log.Path, logger.ParseLevel(cfg.Log.Level), cfg.Log.IncludeStdout)
	if err != nil {
		return nil, nil, fmt.Errorf("logger error: %w", err)
	}

	return cfg, log, nil
}

// shutdownContext returns a context cancelled on SIGINT/SIGTERM so a
// download in flight can unwind cleanly instead of being killed mid-write.
func shutdownContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			fmt.Println("\n[!] Interrupt received. Shutting down gracefully...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// configOnly loads config for subcommands that don't touch the network
// and so don't need a logger wired up.
func configOnly() (*config.Config, error) {
	return config.Load(configPath)
}

func openHistory(cfg *config.Config) (*history.Store, error) {
	if cfg.History.SQLitePath == "" {
		return nil, nil
	}
	return history.Open(cfg.History.SQLitePath)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
