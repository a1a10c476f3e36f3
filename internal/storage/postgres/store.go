package postgres

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rebaseBridge/internal/metrics"
	"rebaseBridge/internal/model"
)

const rebaseEventsTable = "rebase_events"

// Schema creates the tables used by Store.
const Schema = `
CREATE TABLE IF NOT EXISTS rebase_events (
	chain_id             BIGINT      NOT NULL,
	block_number         BIGINT      NOT NULL,
	block_hash           TEXT        NOT NULL,
	tx_hash              TEXT        NOT NULL,
	log_index            BIGINT      NOT NULL,
	rebaser_address      TEXT        NOT NULL,
	token                TEXT        NOT NULL,
	sender               TEXT        NOT NULL,
	epoch                NUMERIC(39) NOT NULL,
	requested_adjustment NUMERIC(39) NOT NULL,
	block_timestamp      BIGINT      NOT NULL,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (chain_id, tx_hash, log_index)
)`

// Store provides Postgres persistence for decoded events.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates missing tables.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema)
	return err
}

// UpsertRebaseEvents inserts or updates decoded Rebase events.
func (s *Store) UpsertRebaseEvents(ctx context.Context, events []model.TypedEvent) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, event := range events {
		batch.Queue(`
			INSERT INTO rebase_events (
				chain_id, block_number, block_hash, tx_hash, log_index, rebaser_address,
				token, sender, epoch, requested_adjustment, block_timestamp, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::numeric, $10::numeric, $11, now(), now())
			ON CONFLICT (chain_id, tx_hash, log_index)
			DO UPDATE SET
				block_number = EXCLUDED.block_number,
				block_hash = EXCLUDED.block_hash,
				rebaser_address = EXCLUDED.rebaser_address,
				token = EXCLUDED.token,
				sender = EXCLUDED.sender,
				epoch = EXCLUDED.epoch,
				requested_adjustment = EXCLUDED.requested_adjustment,
				block_timestamp = EXCLUDED.block_timestamp,
				updated_at = now()
		`, rebaseEventArgs(event)...)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			metrics.DBErrors.WithLabelValues(rebaseEventsTable).Inc()
			return err
		}
	}
	metrics.DBInserts.WithLabelValues(rebaseEventsTable).Add(float64(len(events)))
	return nil
}

func rebaseEventArgs(event model.TypedEvent) []interface{} {
	decoded := event.Decoded
	return []interface{}{
		int64(event.ChainID),
		int64(event.BlockNumber),
		event.BlockHash,
		event.TxHash,
		int64(event.LogIndex),
		common.Bytes2Hex(decoded.RebaserAddress.Bytes()),
		decoded.Token,
		decoded.Sender,
		decoded.Epoch.ToBig().String(),
		decoded.RequestedAdjustment.ToBig().String(),
		int64(event.Timestamp),
	}
}
