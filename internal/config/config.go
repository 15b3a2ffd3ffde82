package config

// Config holds app configuration shared across the pack/unpack/guess-key
// subcommands. Not every field applies to every subcommand; each command's
// RunE reads only the fields it needs.
type Config struct {
	InputPath string `mapstructure:"input"`
	OutputDir string `mapstructure:"output"`

	Version string `mapstructure:"version"`
	Key     string `mapstructure:"key"`
	NoKey   bool   `mapstructure:"no_key"`

	Compress           bool `mapstructure:"compress"`
	AlwaysHuffman      bool `mapstructure:"always_huffman"`
	HuffmanThresholdKB int  `mapstructure:"huffman_threshold"`
	Workers            int  `mapstructure:"workers"`

	Auto bool `mapstructure:"auto"`

	LogLevel     string `mapstructure:"log_level"`
	LogOutputDir string `mapstructure:"log_output_dir"`
}
