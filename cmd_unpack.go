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

var unpackCmd = &cobra.Command{
	Use:   "unpack",
	Short: "Extract a DXA/WOLF archive into a directory",
	RunE:  runUnpack,
}

func init() {
	rootCmd.AddCommand(unpackCmd)

	unpackCmd.Flags().StringP("input", "i", "", "archive file to extract (required)")
	unpackCmd.Flags().StringP("output", "o", "", "directory to extract into (defaults to alongside the input)")
	unpackCmd.Flags().String("key", "", "hex-encoded or plain-text key")
	unpackCmd.Flags().Bool("auto", false, "try the fixed keys shipped with known editor releases instead of --key")

	unpackCmd.MarkFlagRequired("input")

	viper.BindPFlag("input", unpackCmd.Flags().Lookup("input"))
	viper.BindPFlag("output", unpackCmd.Flags().Lookup("output"))
	viper.BindPFlag("key", unpackCmd.Flags().Lookup("key"))
	viper.BindPFlag("auto", unpackCmd.Flags().Lookup("auto"))
}

func runUnpack(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogOutputDir); err != nil {
		return fmt.Errorf("could not set up logging: %w", err)
	}

	slog.Info("unpacking archive", "input", cfg.InputPath, "output", cfg.OutputDir, "auto", cfg.Auto)

	var report *archive.Report
	if cfg.Auto {
		report, err = archive.DecodeAuto(context.Background(), cfg.InputPath, cfg.OutputDir, nil)
	} else {
		report, err = archive.Decode(context.Background(), cfg.InputPath, cfg.OutputDir, parseKey(cfg.Key))
	}
	if err != nil {
		return fmt.Errorf("unpack failed: %w", err)
	}

	slog.Info("unpack complete", "extracted", len(report.Extracted), "failed", len(report.Failed), "profile", report.Profile.Tag)
	for _, f := range report.Failed {
		slog.Warn("entry failed to extract", "path", f.RelPath, "error", f.Err)
	}

	return nil
}
