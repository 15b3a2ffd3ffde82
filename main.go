package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ossyrian/wolfarc/internal/config"
	"github.com/ossyrian/wolfarc/internal/darc/archive"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd represents the base command; the actual work lives in the
// pack/unpack/guess-key subcommands registered by their own init()s.
var rootCmd = &cobra.Command{
	Use:   "wolfarc",
	Short: "Pack and unpack DXA/WOLF archives used by the Wolf RPG Editor",
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-output-dir", "", "directory to write log files (if set, logs are written to both stdout and file)")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_output_dir", rootCmd.PersistentFlags().Lookup("log-output-dir"))
}

// initConfig reads in config file and environment variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "wolfarc"))
		}
		viper.AddConfigPath("/etc/wolfarc")
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
	}

	viper.SetEnvPrefix("WOLFARC")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig unmarshals viper's current state into a fresh Config, shared
// by every subcommand's RunE.
func loadConfig() (*config.Config, error) {
	c := &config.Config{}
	if err := viper.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

// parseVersionTag maps the --version flag's string form to an
// archive.Tag.
func parseVersionTag(s string) (archive.Tag, error) {
	switch strings.ToLower(s) {
	case "v5", "5":
		return archive.V5, nil
	case "v6", "6":
		return archive.V6, nil
	case "v8", "v8-classic", "8-classic":
		return archive.V8Classic, nil
	case "v8-chacha", "8-chacha", "chacha":
		return archive.V8ChaCha, nil
	default:
		return 0, fmt.Errorf("unknown archive version %q (want v5, v6, v8-classic, or v8-chacha)", s)
	}
}

// parseKey accepts either a hex-encoded string or a plain UTF-8 password;
// hex is tried first since raw keys are rarely valid hex themselves.
func parseKey(s string) []byte {
	if s == "" {
		return nil
	}
	if decoded, err := hex.DecodeString(s); err == nil && len(decoded) > 0 {
		return decoded
	}
	return []byte(s)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
