package indexer

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"rebaseBridge/internal/model"
	"rebaseBridge/internal/storage"
)

// LogSource supplies raw chain logs. *chain.Client implements it.
type LogSource interface {
	GetChainID(ctx context.Context) (*big.Int, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 common.Hash) ([]types.Log, error)
}

// RunConfig holds runtime settings for the indexer.
type RunConfig struct {
	FromBlock         uint64
	ToBlock           uint64
	Addresses         []common.Address
	Topic0            common.Hash
	BatchSize         uint64
	CheckpointPath    string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration

	// Check, when set, drops logs it rejects instead of storing them.
	Check func(model.RawLogEntry) error
}

// Stats summarizes a run.
type Stats struct {
	Batches  int
	Stored   int
	Rejected int
	Skipped  int
}

// Runner streams event logs from the chain and writes them to storage.
type Runner struct {
	cfg        RunConfig
	source     LogSource
	storage    storage.Storage
	logger     *zap.Logger
	retry      retryPolicy
	seen       map[string]struct{}
	checkpoint *CheckpointStore
	stats      Stats
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, source LogSource, storageSink storage.Storage, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		source:     source,
		storage:    storageSink,
		logger:     logger,
		retry:      newRetryPolicy(cfg.MaxRetries, cfg.RetryBackoff, logger),
		seen:       make(map[string]struct{}),
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled, filterKey(cfg)),
	}
}

// Stats returns counters of the last run.
func (r *Runner) Stats() Stats {
	return r.stats
}

// Run executes the indexing loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.source == nil {
		return fmt.Errorf("log source is nil")
	}
	if r.storage == nil {
		return fmt.Errorf("storage is nil")
	}
	if len(r.cfg.Addresses) == 0 {
		return fmt.Errorf("at least one address is required")
	}

	var chainID *big.Int
	if err := r.retry.do(ctx, "chain_id", func(ctx context.Context) error {
		var err error
		chainID, err = r.source.GetChainID(ctx)
		return err
	}); err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}

	from, to, err := r.blockWindow(ctx, chainID.Uint64())
	if err != nil {
		return err
	}
	if from > to {
		r.logger.Info("nothing to sync", zap.Uint64("from", from), zap.Uint64("to", to))
		return nil
	}

	ranges, err := Batches(from, to, r.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, blockRange := range ranges {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.syncRange(ctx, chainID.Uint64(), blockRange); err != nil {
			return err
		}
		if err := r.checkpoint.Save(chainID.Uint64(), blockRange.To); err != nil {
			return err
		}
		r.stats.Batches++
	}

	r.logger.Info("sync complete",
		zap.Int("batches", r.stats.Batches),
		zap.Int("stored", r.stats.Stored),
		zap.Int("rejected", r.stats.Rejected),
		zap.Int("skipped", r.stats.Skipped),
	)
	return nil
}

func (r *Runner) blockWindow(ctx context.Context, chainID uint64) (uint64, uint64, error) {
	from := r.cfg.FromBlock
	to := r.cfg.ToBlock
	if to == 0 {
		if err := r.retry.do(ctx, "latest_block", func(ctx context.Context) error {
			var err error
			to, err = r.source.LatestBlockNumber(ctx)
			return err
		}); err != nil {
			return 0, 0, fmt.Errorf("get latest block: %w", err)
		}
	}

	last, ok, err := r.checkpoint.Load(chainID)
	if err != nil {
		return 0, 0, err
	}
	if ok && last >= from {
		from = last + 1
		r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", last), zap.Uint64("from", from))
	}
	return from, to, nil
}

func (r *Runner) syncRange(ctx context.Context, chainID uint64, blockRange BlockRange) error {
	r.logger.Debug("fetch logs", zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))

	var logs []types.Log
	if err := r.retry.do(ctx, "filter_logs", func(ctx context.Context) error {
		var err error
		logs, err = r.source.FilterLogs(ctx, blockRange.From, blockRange.To, r.cfg.Addresses, r.cfg.Topic0)
		return err
	}); err != nil {
		return fmt.Errorf("filter logs %d-%d: %w", blockRange.From, blockRange.To, err)
	}

	ingestedAt := time.Now().UTC()
	records := make([]model.LogRecord, 0, len(logs))
	for _, log := range logs {
		if r.isDuplicate(log) {
			r.stats.Skipped++
			continue
		}
		if r.cfg.Check != nil {
			if err := r.cfg.Check(RawLogEntry(log)); err != nil {
				r.stats.Rejected++
				r.logger.Warn("log rejected",
					zap.Uint64("block_number", log.BlockNumber),
					zap.String("tx_hash", log.TxHash.Hex()),
					zap.Uint("log_index", log.Index),
					zap.Error(err),
				)
				continue
			}
		}

		var ts uint64
		if err := r.retry.do(ctx, "block_timestamp", func(ctx context.Context) error {
			var err error
			ts, err = r.source.BlockTimestamp(ctx, log.BlockNumber)
			return err
		}); err != nil {
			return fmt.Errorf("block timestamp %d: %w", log.BlockNumber, err)
		}
		records = append(records, buildLogRecord(chainID, log, ts, ingestedAt))
	}

	if err := r.storage.PutLogBatch(records); err != nil {
		return fmt.Errorf("store logs: %w", err)
	}
	r.stats.Stored += len(records)

	r.logger.Info("batch complete", zap.Int("logs", len(records)), zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))
	return nil
}

func (r *Runner) isDuplicate(log types.Log) bool {
	id := fmt.Sprintf("%d:%s:%d", log.BlockNumber, log.TxHash.Hex(), log.Index)
	if _, ok := r.seen[id]; ok {
		return true
	}
	r.seen[id] = struct{}{}
	return false
}

// filterKey identifies the log filter a checkpoint belongs to.
func filterKey(cfg RunConfig) string {
	addresses := make([]string, 0, len(cfg.Addresses))
	for _, addr := range cfg.Addresses {
		addresses = append(addresses, strings.ToLower(addr.Hex()))
	}
	sort.Strings(addresses)
	return cfg.Topic0.Hex() + ":" + strings.Join(addresses, ",")
}
