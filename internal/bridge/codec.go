package bridge

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"rebaseBridge/internal/model"
)

const wordSize = 32

// Codec converts between raw log entries and schema-ordered values for one event kind.
// A Codec is immutable and safe for concurrent use.
type Codec struct {
	schema     EventSchema
	event      abi.Event
	indexed    abi.Arguments
	nonIndexed abi.Arguments
}

// NewCodec builds a codec for the schema.
func NewCodec(schema EventSchema) (*Codec, error) {
	params := make([]EventParam, len(schema.Params))
	copy(params, schema.Params)
	schema.Params = params

	event, err := schema.abiEvent()
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", schema.Name, err)
	}

	return &Codec{
		schema:     schema,
		event:      event,
		indexed:    indexedArguments(event.Inputs),
		nonIndexed: event.Inputs.NonIndexed(),
	}, nil
}

// Topic0 returns the event signature hash.
func (c *Codec) Topic0() common.Hash {
	return c.event.ID
}

// Signature returns the canonical event signature.
func (c *Codec) Signature() string {
	return c.event.Sig
}

// DecodeValues validates entry against the schema and returns one value per param,
// in declaration order.
func (c *Codec) DecodeValues(entry model.RawLogEntry) ([]Value, error) {
	if want := len(c.indexed) + 1; len(entry.Topics) != want {
		return nil, fmt.Errorf("%w: expected %d topics, got %d", ErrMalformedLog, want, len(entry.Topics))
	}
	if want := len(c.nonIndexed) * wordSize; len(entry.Data) != want {
		return nil, fmt.Errorf("%w: expected %d data bytes, got %d", ErrMalformedLog, want, len(entry.Data))
	}
	if entry.Topics[0] != c.event.ID {
		return nil, fmt.Errorf("%w: topic0 %s, expected %s", ErrSignatureMismatch, entry.Topics[0].Hex(), c.event.ID.Hex())
	}
	if err := c.checkAddressPadding(entry); err != nil {
		return nil, err
	}

	topicValues := make(map[string]interface{}, len(c.indexed))
	if err := abi.ParseTopicsIntoMap(topicValues, c.indexed, entry.Topics[1:]); err != nil {
		return nil, fmt.Errorf("%w: parse topics: %v", ErrMalformedLog, err)
	}

	var dataValues []interface{}
	if len(c.nonIndexed) > 0 {
		var err error
		dataValues, err = c.nonIndexed.Unpack(entry.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: unpack %s: %v", ErrMalformedLog, c.event.Name, err)
		}
		if len(dataValues) != len(c.nonIndexed) {
			return nil, fmt.Errorf("%w: unexpected %s values: %d", ErrMalformedLog, c.event.Name, len(dataValues))
		}
	}

	values := make([]Value, 0, len(c.schema.Params))
	next := 0
	for _, p := range c.schema.Params {
		var raw interface{}
		if p.Indexed {
			raw = topicValues[p.Name]
		} else {
			raw = dataValues[next]
			next++
		}
		value, err := valueFromABI(p, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedLog, err)
		}
		values = append(values, value)
	}
	return values, nil
}

// EncodeValues packs values, one per param in declaration order, into a new log entry
// emitted by emitter.
func (c *Codec) EncodeValues(emitter common.Address, values []Value) (model.RawLogEntry, error) {
	if len(values) != len(c.schema.Params) {
		return model.RawLogEntry{}, fmt.Errorf("expected %d values, got %d", len(c.schema.Params), len(values))
	}

	topics := make([]common.Hash, 0, len(c.indexed)+1)
	topics = append(topics, c.event.ID)
	packed := make([]interface{}, 0, len(c.nonIndexed))

	for i, p := range c.schema.Params {
		if values[i].Kind != kindOf(p.Type) {
			return model.RawLogEntry{}, fmt.Errorf("%s: expected %s, got %s", p.Name, p.Type, values[i].Kind)
		}
		raw, err := values[i].abiValue(p.Name)
		if err != nil {
			return model.RawLogEntry{}, err
		}
		if !p.Indexed {
			packed = append(packed, raw)
			continue
		}
		hashes, err := abi.MakeTopics([]interface{}{raw})
		if err != nil {
			return model.RawLogEntry{}, fmt.Errorf("make topic %s: %w", p.Name, err)
		}
		topics = append(topics, hashes[0][0])
	}

	data, err := c.nonIndexed.Pack(packed...)
	if err != nil {
		return model.RawLogEntry{}, fmt.Errorf("pack %s: %w", c.event.Name, err)
	}

	return model.RawLogEntry{
		Address: emitter,
		Topics:  topics,
		Data:    data,
	}, nil
}

// checkAddressPadding rejects address words with non-zero high bytes; the abi
// decoder would drop them and re-encoding would not reproduce the entry.
func (c *Codec) checkAddressPadding(entry model.RawLogEntry) error {
	topic, word := 1, 0
	for _, p := range c.schema.Params {
		var w []byte
		if p.Indexed {
			w = entry.Topics[topic][:]
			topic++
		} else {
			w = entry.Data[word*wordSize : (word+1)*wordSize]
			word++
		}
		if p.Type != TypeAddress {
			continue
		}
		for _, b := range w[:wordSize-common.AddressLength] {
			if b != 0 {
				return fmt.Errorf("%w: %s is not a left-padded address", ErrMalformedLog, p.Name)
			}
		}
	}
	return nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}
