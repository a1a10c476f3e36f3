package config

import "github.com/spf13/pflag"

// DecodeConfig holds configuration for the decode command.
type DecodeConfig struct {
	In          string
	Out         string
	Errors      string
	PGDSN       string
	DBBatchSize int
	MetricsAddr string
	LogLevel    string
}

// LoadDecode merges config file, environment variables, and flags into DecodeConfig.
func LoadDecode(cfgFile string, flags *pflag.FlagSet) (DecodeConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"out":           "./data/rebase_events.jsonl",
		"errors":        "./data/decode_errors.jsonl",
		"db-batch-size": 500,
		"log-level":     "info",
	})
	if err != nil {
		return DecodeConfig{}, err
	}

	return DecodeConfig{
		In:          v.GetString("in"),
		Out:         v.GetString("out"),
		Errors:      v.GetString("errors"),
		PGDSN:       v.GetString("pg-dsn"),
		DBBatchSize: v.GetInt("db-batch-size"),
		MetricsAddr: v.GetString("metrics-addr"),
		LogLevel:    v.GetString("log-level"),
	}, nil
}
