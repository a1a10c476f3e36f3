package model

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// LogRecord is the normalized representation of a chain log for storage.
type LogRecord struct {
	ChainID     uint64   `json:"chain_id"`
	BlockNumber uint64   `json:"block_number"`
	BlockHash   string   `json:"block_hash"`
	TxHash      string   `json:"tx_hash"`
	TxIndex     uint64   `json:"tx_index"`
	LogIndex    uint64   `json:"log_index"`
	Address     string   `json:"address"`
	Topics      []string `json:"topics"`
	Data        string   `json:"data"`
	Removed     bool     `json:"removed"`
	Timestamp   uint64   `json:"timestamp"`
	IngestedAt  string   `json:"ingested_at,omitempty"`
}

// Topic0 returns the first topic or an empty string.
func (lr LogRecord) Topic0() string {
	if len(lr.Topics) == 0 {
		return ""
	}
	return lr.Topics[0]
}

// RawLogEntry parses the hex fields of the record into a RawLogEntry.
func (lr LogRecord) RawLogEntry() (RawLogEntry, error) {
	if !common.IsHexAddress(lr.Address) {
		return RawLogEntry{}, fmt.Errorf("invalid address: %s", lr.Address)
	}

	topics := make([]common.Hash, 0, len(lr.Topics))
	for _, topic := range lr.Topics {
		raw, err := hexutil.Decode(topic)
		if err != nil {
			return RawLogEntry{}, fmt.Errorf("invalid topic %q: %w", topic, err)
		}
		if len(raw) != common.HashLength {
			return RawLogEntry{}, fmt.Errorf("topic length %d", len(raw))
		}
		topics = append(topics, common.BytesToHash(raw))
	}

	var data []byte
	if lr.Data != "" {
		var err error
		data, err = hexutil.Decode(lr.Data)
		if err != nil {
			return RawLogEntry{}, fmt.Errorf("invalid data: %w", err)
		}
	}

	return RawLogEntry{
		Address: common.HexToAddress(lr.Address),
		Topics:  topics,
		Data:    data,
	}, nil
}

// WithRawLog returns a copy of the record carrying the entry's address, topics and data.
func (lr LogRecord) WithRawLog(entry RawLogEntry) LogRecord {
	topics := make([]string, 0, len(entry.Topics))
	for _, topic := range entry.Topics {
		topics = append(topics, topic.Hex())
	}
	lr.Address = entry.Address.Hex()
	lr.Topics = topics
	lr.Data = hexutil.Encode(entry.Data)
	return lr
}
