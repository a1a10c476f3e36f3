package indexer

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"rebaseBridge/internal/model"
)

// RawLogEntry strips the chain position from log.
func RawLogEntry(log types.Log) model.RawLogEntry {
	return model.RawLogEntry{
		Address: log.Address,
		Topics:  append([]common.Hash(nil), log.Topics...),
		Data:    append([]byte(nil), log.Data...),
	}
}

func buildLogRecord(chainID uint64, log types.Log, timestamp uint64, ingestedAt time.Time) model.LogRecord {
	return model.LogRecord{
		ChainID:     chainID,
		BlockNumber: log.BlockNumber,
		BlockHash:   log.BlockHash.Hex(),
		TxHash:      log.TxHash.Hex(),
		TxIndex:     uint64(log.TxIndex),
		LogIndex:    uint64(log.Index),
		Removed:     log.Removed,
		Timestamp:   timestamp,
		IngestedAt:  ingestedAt.UTC().Format(time.RFC3339Nano),
	}.WithRawLog(RawLogEntry(log))
}
