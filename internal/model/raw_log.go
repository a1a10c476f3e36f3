package model

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// RawLogEntry is a log entry as emitted on chain: the emitting contract,
// the topic words and the opaque data blob.
type RawLogEntry struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte
}

// ParseRawLogEntry decodes the RLP form [address, [topics...], data].
func ParseRawLogEntry(data []byte) (RawLogEntry, error) {
	var entry RawLogEntry
	if err := rlp.DecodeBytes(data, &entry); err != nil {
		return RawLogEntry{}, err
	}
	return entry, nil
}

// RLPBytes returns the RLP form of the entry, the same layout receipts use.
func (e RawLogEntry) RLPBytes() ([]byte, error) {
	return rlp.EncodeToBytes(&e)
}

// Equal reports whether both entries carry identical bytes.
func (e RawLogEntry) Equal(other RawLogEntry) bool {
	if e.Address != other.Address || len(e.Topics) != len(other.Topics) {
		return false
	}
	for i := range e.Topics {
		if e.Topics[i] != other.Topics[i] {
			return false
		}
	}
	return bytes.Equal(e.Data, other.Data)
}
