package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent decode outcomes from the history ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistory()
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of rows to show")
}

func runHistory() error {
	cfg, err := configOnly()
	if err != nil {
		return err
	}

	hist, err := openHistory(cfg)
	if err != nil {
		return fmt.Errorf("history error: %w", err)
	}
	if hist == nil {
		fmt.Println("No history.sqlite_path configured.")
		return nil
	}
	defer hist.Close()

	entries, err := hist.Recent(context.Background(), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No decode history recorded yet.")
		return nil
	}

	fmt.Printf("%-36s %-20s %-10s %10s %10s %10s\n",
		"decoder", "message-id", "status", "bytes", "crc32", "expected")
	for _, e := range entries {
		fmt.Printf("%-36s %-20s %-10s %10d %10x %10x\n",
			e.DecoderID, e.MessageID, e.Status, e.BytesDecoded, e.CRC32, e.CRCExpected)
	}

	return nil
}
