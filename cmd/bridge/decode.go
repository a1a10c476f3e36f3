package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rebaseBridge/internal/bridge"
	"rebaseBridge/internal/config"
	"rebaseBridge/internal/metrics"
	"rebaseBridge/internal/model"
	"rebaseBridge/internal/storage"
	"rebaseBridge/internal/storage/postgres"
)

type lineWriter interface {
	Write(value interface{}) error
}

type eventStore interface {
	UpsertRebaseEvents(ctx context.Context, events []model.TypedEvent) error
}

type decodeStats struct {
	Total   int
	Decoded int
	Skipped int
	Failed  int
}

func runDecode(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDecode(cfgFile, cmd.Flags())
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
	if cfg.Errors == "" {
		return fmt.Errorf("errors path is required")
	}

	ctx, stop := signalContext()
	defer stop()

	decoder, err := bridge.NewRebaseDecoder()
	if err != nil {
		return err
	}

	var store eventStore
	if cfg.PGDSN != "" {
		pgStore, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pgStore.Close()
		if err := pgStore.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		store = pgStore
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

	errWriter, err := storage.NewJSONLWriter(cfg.Errors, false)
	if err != nil {
		return err
	}
	defer errWriter.Close()

	logger.Info("decode start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.String("metrics_addr", cfg.MetricsAddr),
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	if cfg.MetricsAddr != "" {
		serveMetrics(gctx, g, cfg.MetricsAddr, logger)
	}

	var stats decodeStats
	g.Go(func() error {
		defer cancel()
		var err error
		stats, err = decodeLogs(gctx, inputFile, decoder, outWriter, errWriter, store, cfg.DBBatchSize, logger)
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("decode complete",
		zap.Int("total", stats.Total),
		zap.Int("decoded", stats.Decoded),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
	)
	return nil
}

// decodeLogs decodes LogRecord lines from input. Decoded events go to out and,
// when store is set, to the store in batches; failures go to errs.
func decodeLogs(ctx context.Context, input io.Reader, decoder bridge.Decoder, out, errs lineWriter, store eventStore, batchSize int, logger *zap.Logger) (decodeStats, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if batchSize <= 0 {
		batchSize = 500
	}

	var stats decodeStats
	pending := make([]model.TypedEvent, 0, batchSize)
	flush := func() error {
		if store == nil || len(pending) == 0 {
			return nil
		}
		if err := store.UpsertRebaseEvents(ctx, pending); err != nil {
			return fmt.Errorf("store events: %w", err)
		}
		pending = pending[:0]
		return nil
	}

	fail := func(record model.LogRecord, err error) error {
		kind := bridge.ErrorKind(err)
		stats.Failed++
		metrics.DecodeFailures.WithLabelValues(kind).Inc()
		logger.Debug("decode failed",
			zap.String("tx_hash", record.TxHash),
			zap.Uint64("log_index", record.LogIndex),
			zap.String("kind", kind),
			zap.Error(err),
		)
		return errs.Write(model.NewDecodeError(record, kind, err))
	}

	err := storage.ScanLines(input, func(line []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Total++
		metrics.RecordsRead.Inc()

		var record model.LogRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return fail(model.LogRecord{}, fmt.Errorf("%w: %v", bridge.ErrMalformedLog, err))
		}
		if len(record.Topics) == 0 {
			return fail(record, fmt.Errorf("%w: missing topic0", bridge.ErrMalformedLog))
		}
		if !decoder.CanDecode(record.Topic0()) {
			stats.Skipped++
			metrics.RecordsSkipped.Inc()
			return nil
		}

		event, err := decoder.Decode(record)
		if err != nil {
			return fail(record, err)
		}
		if err := out.Write(event); err != nil {
			return err
		}
		stats.Decoded++
		metrics.EventsDecoded.WithLabelValues(event.EventName).Inc()

		if store != nil {
			pending = append(pending, *event)
			if len(pending) >= batchSize {
				return flush()
			}
		}
		return nil
	})
	if err != nil {
		return stats, err
	}
	return stats, flush()
}

// serveMetrics exposes /metrics on addr until ctx is done.
func serveMetrics(ctx context.Context, g *errgroup.Group, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		logger.Debug("metrics listening", zap.String("addr", addr))
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()
		err := server.Shutdown(context.Background())
		logger.Debug("metrics server stopped")
		return err
	})
}
