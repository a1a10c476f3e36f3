package bridge

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindAddress Kind = iota + 1
	KindUint256
)

func (k Kind) String() string {
	switch k {
	case KindAddress:
		return TypeAddress
	case KindUint256:
		return TypeUint256
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

func kindOf(abiType string) Kind {
	switch abiType {
	case TypeAddress:
		return KindAddress
	case TypeUint256:
		return KindUint256
	default:
		return 0
	}
}

// Value is a decoded ABI word: an address or a uint256.
type Value struct {
	Kind    Kind
	Address common.Address
	Uint    *big.Int
}

// AddressValue wraps an address.
func AddressValue(addr common.Address) Value {
	return Value{Kind: KindAddress, Address: addr}
}

// Uint256Value wraps a copy of v.
func Uint256Value(v *big.Int) Value {
	return Value{Kind: KindUint256, Uint: new(big.Int).Set(v)}
}

// abiValue returns the Go value the abi packer expects for the variant.
func (v Value) abiValue(name string) (interface{}, error) {
	switch v.Kind {
	case KindAddress:
		return v.Address, nil
	case KindUint256:
		if v.Uint == nil || v.Uint.Sign() < 0 || v.Uint.BitLen() > 256 {
			return nil, fmt.Errorf("%w: %s is not a uint256", ErrValueOutOfRange, name)
		}
		// MakeTopics normalizes big ints in place.
		return new(big.Int).Set(v.Uint), nil
	default:
		return nil, fmt.Errorf("%s: unsupported value kind %s", name, v.Kind)
	}
}

func valueFromABI(param EventParam, raw interface{}) (Value, error) {
	switch kindOf(param.Type) {
	case KindAddress:
		addr, err := asAddress(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%s: %w", param.Name, err)
		}
		return AddressValue(addr), nil
	case KindUint256:
		n, err := asBigInt(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%s: %w", param.Name, err)
		}
		return Value{Kind: KindUint256, Uint: n}, nil
	default:
		return Value{}, fmt.Errorf("%s: unsupported type %q", param.Name, param.Type)
	}
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}
