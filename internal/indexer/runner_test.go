package indexer

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"rebaseBridge/internal/bridge"
	"rebaseBridge/internal/model"
)

type fakeSource struct {
	latest uint64
	logs   []types.Log
	calls  int
}

func (f *fakeSource) GetChainID(context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (f *fakeSource) LatestBlockNumber(context.Context) (uint64, error) {
	return f.latest, nil
}

func (f *fakeSource) BlockTimestamp(_ context.Context, number uint64) (uint64, error) {
	return 1700000000 + number, nil
}

func (f *fakeSource) FilterLogs(_ context.Context, fromBlock, toBlock uint64, _ []common.Address, _ common.Hash) ([]types.Log, error) {
	f.calls++
	var out []types.Log
	for _, log := range f.logs {
		if log.BlockNumber >= fromBlock && log.BlockNumber <= toBlock {
			out = append(out, log)
		}
	}
	return out, nil
}

type memoryStorage struct {
	records []model.LogRecord
}

func (m *memoryStorage) PutLogBatch(logs []model.LogRecord) error {
	m.records = append(m.records, logs...)
	return nil
}

func rebaseLog(t *testing.T, emitter common.Address, block uint64, index uint, epoch uint64) types.Log {
	t.Helper()
	entry, err := bridge.EncodeRebase(model.RebaseEvent{
		RebaserAddress:      emitter,
		Token:               "6b175474e89094c44da98b954eedeac495271d0f",
		Sender:              "00005474e89094c44da98b954eedeac495271d0f",
		Epoch:               *uint256.NewInt(epoch),
		RequestedAdjustment: *uint256.NewInt(1000),
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return types.Log{
		Address:     entry.Address,
		Topics:      entry.Topics,
		Data:        entry.Data,
		BlockNumber: block,
		TxHash:      common.BigToHash(new(big.Int).SetUint64(block)),
		Index:       index,
	}
}

func TestRunnerStoresCheckedLogsAndResumes(t *testing.T) {
	codec, err := bridge.RebaseCodec()
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	emitter := common.HexToAddress("0x1111111111111111111111111111111111111111")

	valid := rebaseLog(t, emitter, 10, 0, 1)
	truncated := rebaseLog(t, emitter, 12, 1, 2)
	truncated.Data = truncated.Data[:31]
	later := rebaseLog(t, emitter, 15, 0, 3)

	source := &fakeSource{
		latest: 20,
		logs:   []types.Log{valid, valid, truncated, later},
	}
	sink := &memoryStorage{}
	cfg := RunConfig{
		FromBlock:         10,
		Addresses:         []common.Address{emitter},
		Topic0:            codec.Topic0(),
		BatchSize:         4,
		CheckpointPath:    filepath.Join(t.TempDir(), "checkpoint.json"),
		CheckpointEnabled: true,
		Check: func(entry model.RawLogEntry) error {
			_, err := bridge.DecodeRebase(entry)
			return err
		},
	}

	runner := NewRunner(cfg, source, sink, zap.NewNop())
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	stats := runner.Stats()
	if stats.Batches != 3 || stats.Stored != 2 || stats.Rejected != 1 || stats.Skipped != 1 {
		t.Fatalf("stats mismatch: %+v", stats)
	}
	if len(sink.records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(sink.records))
	}

	first := sink.records[0]
	if first.ChainID != 1 || first.BlockNumber != 10 || first.Timestamp != 1700000010 {
		t.Fatalf("record metadata mismatch: %+v", first)
	}
	entry, err := first.RawLogEntry()
	if err != nil {
		t.Fatalf("raw entry: %v", err)
	}
	decoded, err := bridge.DecodeRebase(entry)
	if err != nil {
		t.Fatalf("decode stored record: %v", err)
	}
	if decoded.RebaserAddress != emitter || decoded.Epoch.Uint64() != 1 {
		t.Fatalf("decoded mismatch: %+v", decoded)
	}

	resumed := NewRunner(cfg, source, sink, zap.NewNop())
	callsBefore := source.calls
	if err := resumed.Run(context.Background()); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if source.calls != callsBefore || len(sink.records) != 2 {
		t.Fatalf("resumed run should have nothing to sync")
	}
}

func TestRunnerRequiresAddresses(t *testing.T) {
	runner := NewRunner(RunConfig{BatchSize: 1}, &fakeSource{}, &memoryStorage{}, nil)
	if err := runner.Run(context.Background()); err == nil {
		t.Fatalf("expected error without addresses")
	}
}

func TestFilterKeyIgnoresAddressOrder(t *testing.T) {
	a := common.HexToAddress("0x1111111111111111111111111111111111111111")
	b := common.HexToAddress("0x2222222222222222222222222222222222222222")
	left := filterKey(RunConfig{Addresses: []common.Address{a, b}})
	right := filterKey(RunConfig{Addresses: []common.Address{b, a}})
	if left != right {
		t.Fatalf("filter key depends on address order: %s != %s", left, right)
	}
}
