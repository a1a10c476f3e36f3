package bridge

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"rebaseBridge/internal/model"
)

// Decoder defines a stored-log decoder.
type Decoder interface {
	CanDecode(topic0 string) bool
	Decode(record model.LogRecord) (*model.TypedEvent, error)
}

// RebaseDecoder decodes stored Rebase log records.
type RebaseDecoder struct {
	topic0 string
}

// NewRebaseDecoder builds a Rebase decoder.
func NewRebaseDecoder() (*RebaseDecoder, error) {
	codec, err := RebaseCodec()
	if err != nil {
		return nil, err
	}
	return &RebaseDecoder{topic0: strings.ToLower(codec.Topic0().Hex())}, nil
}

// CanDecode checks if the topic0 is the Rebase signature.
func (d *RebaseDecoder) CanDecode(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	return strings.ToLower(topic0) == d.topic0
}

// Decode converts a LogRecord into a TypedEvent.
func (d *RebaseDecoder) Decode(record model.LogRecord) (*model.TypedEvent, error) {
	entry, err := record.RawLogEntry()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedLog, err)
	}
	decoded, err := DecodeRebase(entry)
	if err != nil {
		return nil, err
	}

	return &model.TypedEvent{
		ChainID:     record.ChainID,
		BlockNumber: record.BlockNumber,
		BlockHash:   record.BlockHash,
		TxHash:      record.TxHash,
		LogIndex:    record.LogIndex,
		Address:     entry.Address.Hex(),
		EventName:   RebaseEventName,
		Timestamp:   record.Timestamp,
		Decoded:     decoded,
		Raw:         &model.RawLogRef{Topic0: record.Topic0(), Data: hexutil.Encode(entry.Data)},
	}, nil
}

// EncodeTypedEvent re-encodes a typed event into the LogRecord it was decoded from.
// The emitter is taken from the decoded payload.
func EncodeTypedEvent(event model.TypedEvent) (model.LogRecord, error) {
	entry, err := EncodeRebase(event.Decoded)
	if err != nil {
		return model.LogRecord{}, err
	}
	return event.LogRecord().WithRawLog(entry), nil
}
