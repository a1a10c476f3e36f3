package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rebaseBridge/internal/bridge"
	"rebaseBridge/internal/config"
	"rebaseBridge/internal/metrics"
	"rebaseBridge/internal/model"
	"rebaseBridge/internal/storage"
)

type encodeWriter interface {
	lineWriter
	WriteLine(line []byte) error
}

type encodeStats struct {
	Total   int
	Encoded int
	Failed  int
}

func runEncode(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadEncode(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}

	inputFile, err := os.Open(cfg.In)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer inputFile.Close()

	outWriter, err := storage.NewJSONLWriter(cfg.Out, false)
	if err != nil {
		return err
	}
	defer outWriter.Close()

	logger.Info("encode start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("format", cfg.Format),
	)

	stats, err := encodeEvents(inputFile, outWriter, cfg.Format, logger)
	if err != nil {
		return err
	}

	logger.Info("encode complete",
		zap.Int("total", stats.Total),
		zap.Int("encoded", stats.Encoded),
		zap.Int("failed", stats.Failed),
	)
	return nil
}

// encodeEvents re-encodes TypedEvent (or bare RebaseEvent) lines from input.
// Lines that cannot be encoded are logged and skipped.
func encodeEvents(input io.Reader, out encodeWriter, format string, logger *zap.Logger) (encodeStats, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var stats encodeStats
	err := storage.ScanLines(input, func(line []byte) error {
		stats.Total++

		event, err := parseEventLine(line)
		if err != nil {
			stats.Failed++
			logger.Warn("invalid event line", zap.Int("line", stats.Total), zap.Error(err))
			return nil
		}

		switch format {
		case config.FormatRLP:
			data, err := bridge.EncodeRebaseRLP(event.Decoded)
			if err != nil {
				stats.Failed++
				logger.Warn("encode failed", zap.String("tx_hash", event.TxHash), zap.Error(err))
				return nil
			}
			if err := out.WriteLine([]byte(hexutil.Encode(data))); err != nil {
				return err
			}
		default:
			record, err := bridge.EncodeTypedEvent(event)
			if err != nil {
				stats.Failed++
				logger.Warn("encode failed", zap.String("tx_hash", event.TxHash), zap.Error(err))
				return nil
			}
			if err := out.Write(record); err != nil {
				return err
			}
		}

		stats.Encoded++
		metrics.EventsEncoded.WithLabelValues(event.EventName).Inc()
		return nil
	})
	return stats, err
}

func parseEventLine(line []byte) (model.TypedEvent, error) {
	var probe struct {
		Decoded json.RawMessage `json:"decoded"`
	}
	if err := json.Unmarshal(line, &probe); err != nil {
		return model.TypedEvent{}, err
	}

	if probe.Decoded == nil {
		var decoded model.RebaseEvent
		if err := json.Unmarshal(line, &decoded); err != nil {
			return model.TypedEvent{}, err
		}
		return model.TypedEvent{EventName: bridge.RebaseEventName, Decoded: decoded}, nil
	}

	var event model.TypedEvent
	if err := json.Unmarshal(line, &event); err != nil {
		return model.TypedEvent{}, err
	}
	if event.EventName == "" {
		event.EventName = bridge.RebaseEventName
	}
	if event.EventName != bridge.RebaseEventName {
		return model.TypedEvent{}, fmt.Errorf("unsupported event %q", event.EventName)
	}
	return event, nil
}
