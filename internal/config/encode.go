package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// Output formats of the encode command.
const (
	FormatRecord = "record"
	FormatRLP    = "rlp"
)

// EncodeConfig holds configuration for the encode command.
type EncodeConfig struct {
	In       string
	Out      string
	Format   string
	LogLevel string
}

// LoadEncode merges config file, environment variables, and flags into EncodeConfig.
func LoadEncode(cfgFile string, flags *pflag.FlagSet) (EncodeConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"out":       "./data/encoded_logs.jsonl",
		"format":    FormatRecord,
		"log-level": "info",
	})
	if err != nil {
		return EncodeConfig{}, err
	}

	cfg := EncodeConfig{
		In:       v.GetString("in"),
		Out:      v.GetString("out"),
		Format:   strings.ToLower(strings.TrimSpace(v.GetString("format"))),
		LogLevel: v.GetString("log-level"),
	}
	if cfg.Format != FormatRecord && cfg.Format != FormatRLP {
		return EncodeConfig{}, fmt.Errorf("unsupported format %q (want %s or %s)", cfg.Format, FormatRecord, FormatRLP)
	}
	return cfg, nil
}
