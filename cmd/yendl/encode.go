package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/datallboy/yencore/internal/yenc"
)

var encodeOut string

var encodeCmd = &cobra.Command{
	Use:   "encode <file>",
	Short: "One-shot yEnc-encode a single file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEncode(args[0])
	},
}

func init() {
	encodeCmd.Flags().StringVarP(&encodeOut, "out", "o", "", "Output path (default: <file>.ntx)")
}

func runEncode(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	out, crc := yenc.Encode(data)

	dest := encodeOut
	if dest == "" {
		dest = path + ".ntx"
	}

	if err := os.WriteFile(dest, out, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}

	fmt.Printf("Encoded %s -> %s (crc32=%08x, %d -> %d bytes)\n",
		filepath.Base(path), dest, crc, len(data), len(out))
	return nil
}
