package bridge

import (
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"rebaseBridge/internal/model"
)

// magnitudeBits is the width of RebaseEvent magnitudes.
const magnitudeBits = 128

var (
	rebaseCodec     *Codec
	rebaseCodecOnce sync.Once
	rebaseCodecErr  error
)

// RebaseCodec returns the shared codec for the Rebase event.
func RebaseCodec() (*Codec, error) {
	rebaseCodecOnce.Do(func() {
		rebaseCodec, rebaseCodecErr = NewCodec(RebaseSchema())
	})
	return rebaseCodec, rebaseCodecErr
}

// DecodeRebase decodes a Rebase log entry. The emitter is taken from entry.Address.
func DecodeRebase(entry model.RawLogEntry) (model.RebaseEvent, error) {
	codec, err := RebaseCodec()
	if err != nil {
		return model.RebaseEvent{}, err
	}
	values, err := codec.DecodeValues(entry)
	if err != nil {
		return model.RebaseEvent{}, err
	}

	token, err := hexAddress("token", values[0])
	if err != nil {
		return model.RebaseEvent{}, err
	}
	sender, err := hexAddress("sender", values[1])
	if err != nil {
		return model.RebaseEvent{}, err
	}
	epoch, err := uint128FromValue("epoch", values[2])
	if err != nil {
		return model.RebaseEvent{}, err
	}
	adjustment, err := uint128FromValue("requested_adjustment", values[3])
	if err != nil {
		return model.RebaseEvent{}, err
	}

	return model.RebaseEvent{
		RebaserAddress:      entry.Address,
		Token:               token,
		Sender:              sender,
		Epoch:               epoch,
		RequestedAdjustment: adjustment,
	}, nil
}

// EncodeRebase builds the log entry the rebaser contract emits for event.
func EncodeRebase(event model.RebaseEvent) (model.RawLogEntry, error) {
	codec, err := RebaseCodec()
	if err != nil {
		return model.RawLogEntry{}, err
	}

	token, err := addressFromHex("token", event.Token)
	if err != nil {
		return model.RawLogEntry{}, err
	}
	sender, err := addressFromHex("sender", event.Sender)
	if err != nil {
		return model.RawLogEntry{}, err
	}
	epoch, err := uint128ToValue("epoch", &event.Epoch)
	if err != nil {
		return model.RawLogEntry{}, err
	}
	adjustment, err := uint128ToValue("requested_adjustment", &event.RequestedAdjustment)
	if err != nil {
		return model.RawLogEntry{}, err
	}

	return codec.EncodeValues(event.RebaserAddress, []Value{
		AddressValue(token),
		AddressValue(sender),
		epoch,
		adjustment,
	})
}

// DecodeRebaseRLP decodes the RLP form of a Rebase log entry.
func DecodeRebaseRLP(data []byte) (model.RebaseEvent, error) {
	entry, err := model.ParseRawLogEntry(data)
	if err != nil {
		return model.RebaseEvent{}, fmt.Errorf("%w: rlp: %v", ErrMalformedLog, err)
	}
	return DecodeRebase(entry)
}

// EncodeRebaseRLP returns the RLP form of the log entry for event.
func EncodeRebaseRLP(event model.RebaseEvent) ([]byte, error) {
	entry, err := EncodeRebase(event)
	if err != nil {
		return nil, err
	}
	return entry.RLPBytes()
}

func hexAddress(name string, v Value) (string, error) {
	if v.Kind != KindAddress {
		return "", fmt.Errorf("%s: expected address, got %s", name, v.Kind)
	}
	return common.Bytes2Hex(v.Address.Bytes()), nil
}

func addressFromHex(name, input string) (common.Address, error) {
	if len(input) != 2*common.AddressLength {
		return common.Address{}, fmt.Errorf("%w: %s has %d characters", ErrInvalidHexAddress, name, len(input))
	}
	raw, err := hex.DecodeString(input)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %s: %v", ErrInvalidHexAddress, name, err)
	}
	return common.BytesToAddress(raw), nil
}

func uint128FromValue(name string, v Value) (uint256.Int, error) {
	if v.Kind != KindUint256 || v.Uint == nil {
		return uint256.Int{}, fmt.Errorf("%s: expected uint256, got %s", name, v.Kind)
	}
	if v.Uint.Sign() < 0 || v.Uint.BitLen() > magnitudeBits {
		return uint256.Int{}, fmt.Errorf("%w: %s=%s exceeds %d bits", ErrValueOutOfRange, name, v.Uint, magnitudeBits)
	}
	out, _ := uint256.FromBig(v.Uint)
	return *out, nil
}

func uint128ToValue(name string, v *uint256.Int) (Value, error) {
	if v.BitLen() > magnitudeBits {
		return Value{}, fmt.Errorf("%w: %s=%s exceeds %d bits", ErrValueOutOfRange, name, v.ToBig(), magnitudeBits)
	}
	return Uint256Value(v.ToBig()), nil
}
