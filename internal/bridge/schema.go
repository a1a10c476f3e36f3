package bridge

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ABI types supported by the codec.
const (
	TypeAddress = "address"
	TypeUint256 = "uint256"
)

// RebaseEventName is the Solidity name of the Rebase event.
const RebaseEventName = "Rebase"

// EventParam is one field of an event.
type EventParam struct {
	Name    string
	Type    string
	Indexed bool
}

// EventSchema is the fixed field layout of one event kind. Indexed params
// map to topics 1..n, the rest to 32-byte data words, both in declaration order.
type EventSchema struct {
	Name   string
	Params []EventParam
}

// RebaseSchema returns the field layout of the Rebase event.
func RebaseSchema() EventSchema {
	return EventSchema{
		Name: RebaseEventName,
		Params: []EventParam{
			{Name: "token", Type: TypeAddress, Indexed: true},
			{Name: "sender", Type: TypeAddress, Indexed: true},
			{Name: "epoch", Type: TypeUint256, Indexed: true},
			{Name: "requested_adjustment", Type: TypeUint256, Indexed: false},
		},
	}
}

// Signature returns the canonical signature, e.g. Rebase(address,address,uint256,uint256).
func (s EventSchema) Signature() string {
	types := make([]string, 0, len(s.Params))
	for _, p := range s.Params {
		types = append(types, p.Type)
	}
	return fmt.Sprintf("%s(%s)", s.Name, strings.Join(types, ","))
}

// IndexedCount returns the number of params carried in topics.
func (s EventSchema) IndexedCount() int {
	n := 0
	for _, p := range s.Params {
		if p.Indexed {
			n++
		}
	}
	return n
}

func (s EventSchema) abiEvent() (abi.Event, error) {
	if s.Name == "" {
		return abi.Event{}, fmt.Errorf("event name is required")
	}
	inputs := make(abi.Arguments, 0, len(s.Params))
	for _, p := range s.Params {
		if p.Type != TypeAddress && p.Type != TypeUint256 {
			return abi.Event{}, fmt.Errorf("unsupported type %q for %s", p.Type, p.Name)
		}
		typ, err := abi.NewType(p.Type, "", nil)
		if err != nil {
			return abi.Event{}, fmt.Errorf("abi type %s: %w", p.Type, err)
		}
		inputs = append(inputs, abi.Argument{Name: p.Name, Type: typ, Indexed: p.Indexed})
	}
	return abi.NewEvent(s.Name, s.Name, false, inputs), nil
}
