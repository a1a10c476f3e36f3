package model

// TypedEvent is a decoded Rebase event with its chain position.
type TypedEvent struct {
	ChainID     uint64      `json:"chain_id"`
	BlockNumber uint64      `json:"block_number"`
	BlockHash   string      `json:"block_hash"`
	TxHash      string      `json:"tx_hash"`
	LogIndex    uint64      `json:"log_index"`
	Address     string      `json:"address"`
	EventName   string      `json:"event_name"`
	Timestamp   uint64      `json:"timestamp"`
	Decoded     RebaseEvent `json:"decoded"`
	Raw         *RawLogRef  `json:"raw,omitempty"`
}

// RawLogRef keeps a minimal raw reference for traceability.
type RawLogRef struct {
	Topic0 string `json:"topic0"`
	Data   string `json:"data"`
}

// LogRecord returns the chain position of the event as an empty-payload LogRecord.
func (te TypedEvent) LogRecord() LogRecord {
	return LogRecord{
		ChainID:     te.ChainID,
		BlockNumber: te.BlockNumber,
		BlockHash:   te.BlockHash,
		TxHash:      te.TxHash,
		LogIndex:    te.LogIndex,
		Address:     te.Address,
		Timestamp:   te.Timestamp,
	}
}
