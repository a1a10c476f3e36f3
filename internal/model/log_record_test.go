package model

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestLogRecordJSONRoundTrip(t *testing.T) {
	original := LogRecord{
		ChainID:     1,
		BlockNumber: 18000000,
		BlockHash:   "0xabc123",
		TxHash:      "0xdef456",
		TxIndex:     7,
		LogIndex:    12,
		Address:     "0x1111111111111111111111111111111111111111",
		Topics:      []string{"0xaaa", "0xbbb"},
		Data:        "0xdeadbeef",
		Removed:     false,
		Timestamp:   1700000000,
		IngestedAt:  "2024-01-01T00:00:00Z",
	}

	b, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded LogRecord
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !reflect.DeepEqual(original, decoded) {
		t.Fatalf("round-trip mismatch: %+v != %+v", original, decoded)
	}
}

func TestLogRecordRawLogEntry(t *testing.T) {
	entry := RawLogEntry{
		Address: common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Topics: []common.Hash{
			common.HexToHash("0x01"),
			common.HexToHash("0x02"),
		},
		Data: []byte{0xde, 0xad, 0xbe, 0xef},
	}

	record := LogRecord{ChainID: 1, TxHash: "0xdef"}.WithRawLog(entry)
	if record.ChainID != 1 || record.TxHash != "0xdef" {
		t.Fatalf("metadata lost: %+v", record)
	}
	if record.Data != "0xdeadbeef" {
		t.Fatalf("data mismatch: %s", record.Data)
	}
	if record.Topic0() != common.HexToHash("0x01").Hex() {
		t.Fatalf("topic0 mismatch: %s", record.Topic0())
	}

	parsed, err := record.RawLogEntry()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.Equal(entry) {
		t.Fatalf("entry mismatch: %+v != %+v", parsed, entry)
	}
}

func TestLogRecordRawLogEntryInvalid(t *testing.T) {
	base := LogRecord{
		Address: "0x1111111111111111111111111111111111111111",
		Topics:  []string{common.HexToHash("0x01").Hex()},
		Data:    "0x",
	}

	if _, err := base.RawLogEntry(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	badAddress := base
	badAddress.Address = "0x1234"
	if _, err := badAddress.RawLogEntry(); err == nil {
		t.Fatalf("expected error for short address")
	}

	shortTopic := base
	shortTopic.Topics = []string{"0x01"}
	if _, err := shortTopic.RawLogEntry(); err == nil {
		t.Fatalf("expected error for short topic")
	}

	badData := base
	badData.Data = "deadbeef"
	if _, err := badData.RawLogEntry(); err == nil {
		t.Fatalf("expected error for data without prefix")
	}
}
