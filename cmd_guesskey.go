package main

import (
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ossyrian/wolfarc/internal/darc/archive"
	"github.com/ossyrian/wolfarc/internal/logging"
)

var guessKeyCmd = &cobra.Command{
	Use:   "guess-key",
	Short: "Reconstruct a pre-v5 archive's classic cipher key from its header bytes",
	RunE:  runGuessKey,
}

func init() {
	rootCmd.AddCommand(guessKeyCmd)

	guessKeyCmd.Flags().StringP("input", "i", "", "archive file to inspect (required)")
	guessKeyCmd.MarkFlagRequired("input")

	viper.BindPFlag("input", guessKeyCmd.Flags().Lookup("input"))
}

func runGuessKey(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogOutputDir); err != nil {
		return fmt.Errorf("could not set up logging: %w", err)
	}

	key, err := archive.GuessLegacyKey(cfg.InputPath)
	if err != nil {
		return fmt.Errorf("guess-key failed: %w", err)
	}

	slog.Info("guessed key", "input", cfg.InputPath, "key", hex.EncodeToString(key[:]))
	fmt.Println(hex.EncodeToString(key[:]))

	return nil
}
