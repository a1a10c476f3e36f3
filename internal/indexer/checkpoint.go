package indexer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Progress is the last fully stored block of one log filter.
type Progress struct {
	ChainID   uint64 `json:"chain_id"`
	LastBlock uint64 `json:"last_block"`
	UpdatedAt string `json:"updated_at"`
}

// CheckpointStore keeps per-filter progress in a single JSON file, so runs with
// different emitter sets can share one checkpoint path.
type CheckpointStore struct {
	path    string
	enabled bool
	filter  string
}

func NewCheckpointStore(path string, enabled bool, filter string) *CheckpointStore {
	return &CheckpointStore{path: path, enabled: enabled, filter: filter}
}

// Load returns the last stored block for the store's filter on chainID.
func (c *CheckpointStore) Load(chainID uint64) (uint64, bool, error) {
	if !c.enabled {
		return 0, false, nil
	}
	entries, err := c.read()
	if err != nil {
		return 0, false, err
	}
	progress, ok := entries[c.filter]
	if !ok || progress.ChainID != chainID {
		return 0, false, nil
	}
	return progress.LastBlock, true, nil
}

// Save records lastBlock for the store's filter, keeping other filters' entries.
func (c *CheckpointStore) Save(chainID, lastBlock uint64) error {
	if !c.enabled {
		return nil
	}
	entries, err := c.read()
	if err != nil {
		return err
	}
	entries[c.filter] = Progress{
		ChainID:   chainID,
		LastBlock: lastBlock,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	return writeFileAtomic(c.path, data)
}

func (c *CheckpointStore) read() (map[string]Progress, error) {
	entries := make(map[string]Progress)
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse checkpoint %s: %w", c.path, err)
	}
	return entries, nil
}

func writeFileAtomic(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create checkpoint dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename checkpoint: %w", err)
	}
	return nil
}
