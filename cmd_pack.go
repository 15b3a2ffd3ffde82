package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ossyrian/wolfarc/internal/darc/archive"
	"github.com/ossyrian/wolfarc/internal/logging"
)

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Pack a directory tree into a DXA/WOLF archive",
	RunE:  runPack,
}

func init() {
	rootCmd.AddCommand(packCmd)

	packCmd.Flags().StringP("input", "i", "", "directory to pack (required)")
	packCmd.Flags().StringP("output", "o", "", "path to write the archive to (required)")
	packCmd.Flags().String("version", "v8-chacha", "archive version: v5, v6, v8-classic, v8-chacha")
	packCmd.Flags().String("key", "", "hex-encoded or plain-text key")
	packCmd.Flags().Bool("no-key", false, "write the archive unencrypted")
	packCmd.Flags().Bool("compress", true, "LZSS-compress file payloads")
	packCmd.Flags().Bool("always-huffman", false, "apply the entropy tail to every file regardless of extension")
	packCmd.Flags().Int("huffman-threshold", 8, "size in KB of the entropy-coded tail region (0..255)")
	packCmd.Flags().Int("workers", 1, "number of workers to shard per-file compression across")

	packCmd.MarkFlagRequired("input")
	packCmd.MarkFlagRequired("output")

	viper.BindPFlag("input", packCmd.Flags().Lookup("input"))
	viper.BindPFlag("output", packCmd.Flags().Lookup("output"))
	viper.BindPFlag("version", packCmd.Flags().Lookup("version"))
	viper.BindPFlag("key", packCmd.Flags().Lookup("key"))
	viper.BindPFlag("no_key", packCmd.Flags().Lookup("no-key"))
	viper.BindPFlag("compress", packCmd.Flags().Lookup("compress"))
	viper.BindPFlag("always_huffman", packCmd.Flags().Lookup("always-huffman"))
	viper.BindPFlag("huffman_threshold", packCmd.Flags().Lookup("huffman-threshold"))
	viper.BindPFlag("workers", packCmd.Flags().Lookup("workers"))
}

func runPack(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogOutputDir); err != nil {
		return fmt.Errorf("could not set up logging: %w", err)
	}

	tag, err := parseVersionTag(cfg.Version)
	if err != nil {
		return err
	}
	if !cfg.NoKey && cfg.Key == "" && tag != archive.V5 {
		slog.Warn("no key given, writing an unencrypted archive")
		cfg.NoKey = true
	}

	slog.Info("packing archive", "input", cfg.InputPath, "output", cfg.OutputDir, "version", tag)

	opts := archive.EncodeOptions{
		Profile:            tag,
		Compress:           cfg.Compress,
		AlwaysHuffman:      cfg.AlwaysHuffman,
		HuffmanThresholdKB: cfg.HuffmanThresholdKB,
		Key:                parseKey(cfg.Key),
		NoKey:              cfg.NoKey,
		Workers:            cfg.Workers,
	}

	if err := archive.Encode(context.Background(), cfg.OutputDir, cfg.InputPath, opts); err != nil {
		return fmt.Errorf("pack failed: %w", err)
	}

	return nil
}
