package main

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"rebaseBridge/internal/bridge"
	"rebaseBridge/internal/model"
)

type memoryWriter struct {
	values []interface{}
	lines  []string
}

func (m *memoryWriter) Write(value interface{}) error {
	m.values = append(m.values, value)
	return nil
}

func (m *memoryWriter) WriteLine(line []byte) error {
	m.lines = append(m.lines, string(line))
	return nil
}

type memoryStore struct {
	batches [][]model.TypedEvent
}

func (m *memoryStore) UpsertRebaseEvents(_ context.Context, events []model.TypedEvent) error {
	m.batches = append(m.batches, append([]model.TypedEvent(nil), events...))
	return nil
}

func sampleRecord(t *testing.T) model.LogRecord {
	t.Helper()
	entry, err := bridge.EncodeRebase(model.RebaseEvent{
		RebaserAddress:      common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Token:               "6b175474e89094c44da98b954eedeac495271d0f",
		Sender:              "00005474e89094c44da98b954eedeac495271d0f",
		Epoch:               *uint256.NewInt(10),
		RequestedAdjustment: *uint256.NewInt(1000),
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return model.LogRecord{
		ChainID:     56,
		BlockNumber: 100,
		BlockHash:   common.HexToHash("0xb1").Hex(),
		TxHash:      common.HexToHash("0xa1").Hex(),
		LogIndex:    3,
		Timestamp:   1700000000,
	}.WithRawLog(entry)
}

func jsonLines(t *testing.T, values ...interface{}) string {
	t.Helper()
	var b strings.Builder
	for _, value := range values {
		if line, ok := value.(string); ok {
			b.WriteString(line)
		} else {
			data, err := json.Marshal(value)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			b.Write(data)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func TestDecodeLogs(t *testing.T) {
	valid := sampleRecord(t)

	foreign := valid
	foreign.Topics = append([]string{common.HexToHash("0x01").Hex()}, valid.Topics[1:]...)

	truncated := valid
	truncated.Data = valid.Data[:len(valid.Data)-2]

	input := jsonLines(t, valid, foreign, truncated, "not json", "")

	decoder, err := bridge.NewRebaseDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	out := &memoryWriter{}
	errs := &memoryWriter{}
	store := &memoryStore{}

	stats, err := decodeLogs(context.Background(), strings.NewReader(input), decoder, out, errs, store, 1, nil)
	if err != nil {
		t.Fatalf("decode logs: %v", err)
	}
	if stats != (decodeStats{Total: 4, Decoded: 1, Skipped: 1, Failed: 2}) {
		t.Fatalf("stats mismatch: %+v", stats)
	}

	if len(out.values) != 1 {
		t.Fatalf("expected 1 event, got %d", len(out.values))
	}
	event, ok := out.values[0].(*model.TypedEvent)
	if !ok {
		t.Fatalf("unexpected output type %T", out.values[0])
	}
	if event.EventName != bridge.RebaseEventName || event.Decoded.Epoch.Uint64() != 10 {
		t.Fatalf("event mismatch: %+v", event)
	}
	if event.TxHash != valid.TxHash || event.LogIndex != valid.LogIndex {
		t.Fatalf("chain position not kept: %+v", event)
	}

	if len(errs.values) != 2 {
		t.Fatalf("expected 2 decode errors, got %d", len(errs.values))
	}
	for _, value := range errs.values {
		decodeErr := value.(model.DecodeError)
		if decodeErr.Kind != "malformed_log" {
			t.Fatalf("unexpected error kind: %+v", decodeErr)
		}
	}
	if errs.values[0].(model.DecodeError).TxHash != valid.TxHash {
		t.Fatalf("decode error should carry the record position")
	}

	if len(store.batches) != 1 || len(store.batches[0]) != 1 {
		t.Fatalf("expected one stored batch, got %+v", store.batches)
	}
}

func TestDecodeThenEncodeRestoresRecord(t *testing.T) {
	record := sampleRecord(t)
	decoder, err := bridge.NewRebaseDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	decoded := &memoryWriter{}
	if _, err := decodeLogs(context.Background(), strings.NewReader(jsonLines(t, record)), decoder, decoded, &memoryWriter{}, nil, 0, nil); err != nil {
		t.Fatalf("decode logs: %v", err)
	}
	if len(decoded.values) != 1 {
		t.Fatalf("expected one decoded event")
	}

	encoded := &memoryWriter{}
	stats, err := encodeEvents(strings.NewReader(jsonLines(t, decoded.values[0])), encoded, "record", nil)
	if err != nil {
		t.Fatalf("encode events: %v", err)
	}
	if stats.Encoded != 1 || stats.Failed != 0 {
		t.Fatalf("stats mismatch: %+v", stats)
	}

	got := encoded.values[0].(model.LogRecord)
	if !reflect.DeepEqual(got, record) {
		t.Fatalf("record mismatch:\n%+v\n%+v", got, record)
	}
}
