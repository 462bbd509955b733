package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/datallboy/yencore/internal/downloader"
	"github.com/datallboy/yencore/internal/nntp"
	"github.com/datallboy/yencore/internal/nzb"
)

var nzbPath string

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Download every file described by an NZB",
	RunE: func(cmd *cobra.Command, args []string) error {
		if nzbPath == "" {
			return fmt.Errorf("--file is required")
		}
		return runGet()
	},
}

func init() {
	getCmd.Flags().StringVarP(&nzbPath, "file", "f", "", "Path to the NZB file (required)")
}

func runGet() error {
	cfg, log, err := loadAll()
	if err != nil {
		return err
	}

	hist, err := openHistory(cfg)
	if err != nil {
		return fmt.Errorf("history error: %w", err)
	}
	if hist != nil {
		defer hist.Close()
	}

	mgr, err := nntp.NewManager(cfg.Servers, log)
	if err != nil {
		return fmt.Errorf("failed to initialize providers: %w", err)
	}

	svc := downloader.NewService(cfg, mgr, log, hist)

	raw, err := os.ReadFile(nzbPath)
	if err != nil {
		return fmt.Errorf("failed to open nzb file: %w", err)
	}

	hash, err := nzb.HashContents(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to hash nzb file: %w", err)
	}
	log.Info("Queuing %s (sha256=%s)", nzbPath, hash)

	model, err := nzb.NewParser().Parse(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to parse nzb: %w", err)
	}

	ctx, cancel := shutdownContext()
	defer cancel()

	if err := svc.Download(ctx, model); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println("Download cancelled by user.")
			return nil
		}
		return fmt.Errorf("download failed: %w", err)
	}

	fmt.Println("Download complete.")
	return nil
}
