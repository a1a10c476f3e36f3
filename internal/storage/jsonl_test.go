package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"rebaseBridge/internal/model"
)

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "logs.jsonl")
	store := NewJsonlStorage(path)

	first := model.LogRecord{ChainID: 1, BlockNumber: 10, TxHash: "0x01", Topics: []string{"0xaa"}, Data: "0x"}
	second := model.LogRecord{ChainID: 1, BlockNumber: 11, TxHash: "0x02", Topics: []string{"0xbb"}, Data: "0x"}

	if err := store.PutLogBatch([]model.LogRecord{first}); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	if err := store.PutLogBatch([]model.LogRecord{second}); err != nil {
		t.Fatalf("second batch: %v", err)
	}
	if err := store.PutLogBatch(nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()

	var got []model.LogRecord
	err = ScanLines(file, func(line []byte) error {
		var record model.LogRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return err
		}
		got = append(got, record)
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	want := []model.LogRecord{first, second}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("records mismatch: %+v != %+v", got, want)
	}
}

func TestScanLinesSkipsBlankLines(t *testing.T) {
	input := "{\"a\":1}\n\n   \n{\"a\":2}\n"
	var lines []string
	err := ScanLines(strings.NewReader(input), func(line []byte) error {
		lines = append(lines, string(line))
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(lines) != 2 || lines[1] != "{\"a\":2}" {
		t.Fatalf("lines mismatch: %q", lines)
	}
}

func TestJSONLWriterTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	if err := os.WriteFile(path, []byte("stale\n"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	writer, err := NewJSONLWriter(path, false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := writer.WriteLine([]byte("0x01")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "0x01\n" {
		t.Fatalf("content mismatch: %q", data)
	}
}
