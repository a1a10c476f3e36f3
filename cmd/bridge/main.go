package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"rebaseBridge/internal/config"
)

func main() {
	root := &cobra.Command{
		Use:          "bridge",
		Short:        "Rebase event codec for the token bridge",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch Rebase logs from the chain",
		RunE:  runFetch,
	}

	fetchCmd.Flags().String("rpc", "", "RPC URL")
	fetchCmd.Flags().Uint64("from", 0, "start block (inclusive)")
	fetchCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest")
	fetchCmd.Flags().StringSlice("address", nil, "rebaser contract addresses (comma-separated)")
	fetchCmd.Flags().Uint64("batch-size", 2000, "blocks per batch")
	fetchCmd.Flags().String("out", "./data/logs.jsonl", "output JSONL path")
	fetchCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	fetchCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	fetchCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	fetchCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	fetchCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(fetchCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode raw logs into Rebase events",
		RunE:  runDecode,
	}

	decodeCmd.Flags().String("in", "", "input raw logs JSONL")
	decodeCmd.Flags().String("out", "./data/rebase_events.jsonl", "output typed events JSONL")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	decodeCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for decoded events")
	decodeCmd.Flags().Int("db-batch-size", 500, "batch size for DB writes")
	decodeCmd.Flags().String("metrics-addr", "", "optional listen address for Prometheus metrics (e.g. :9090)")
	decodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(decodeCmd)

	encodeCmd := &cobra.Command{
		Use:   "encode",
		Short: "Re-encode Rebase events into raw logs",
		RunE:  runEncode,
	}

	encodeCmd.Flags().String("in", "", "input typed events JSONL")
	encodeCmd.Flags().String("out", "./data/encoded_logs.jsonl", "output path")
	encodeCmd.Flags().String("format", config.FormatRecord, "output format (record, rlp)")
	encodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(encodeCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
