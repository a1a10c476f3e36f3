package model

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// RebaseEvent is the decoded Rebase event payload.
//
// Token and Sender are 40-character lowercase hex strings without a 0x prefix.
// Epoch and RequestedAdjustment always fit in 128 bits.
type RebaseEvent struct {
	RebaserAddress      common.Address
	Token               string
	Sender              string
	Epoch               uint256.Int
	RequestedAdjustment uint256.Int
}

type rebaseEventJSON struct {
	RebaserAddress      common.Address `json:"rebaser_address"`
	Token               string         `json:"token"`
	Sender              string         `json:"sender"`
	Epoch               string         `json:"epoch"`
	RequestedAdjustment string         `json:"requested_adjustment"`
}

func (e RebaseEvent) String() string {
	return fmt.Sprintf("token: %s; sender: %s; epoch: %s; adjustment: %s;",
		e.Token, e.Sender, e.Epoch.ToBig().String(), e.RequestedAdjustment.ToBig().String())
}

// MarshalJSON encodes magnitudes as decimal strings.
func (e RebaseEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(rebaseEventJSON{
		RebaserAddress:      e.RebaserAddress,
		Token:               e.Token,
		Sender:              e.Sender,
		Epoch:               e.Epoch.ToBig().String(),
		RequestedAdjustment: e.RequestedAdjustment.ToBig().String(),
	})
}

// UnmarshalJSON decodes a RebaseEvent from JSON.
func (e *RebaseEvent) UnmarshalJSON(data []byte) error {
	var raw rebaseEventJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	epoch, err := parseDecimal(raw.Epoch)
	if err != nil {
		return fmt.Errorf("epoch: %w", err)
	}
	adjustment, err := parseDecimal(raw.RequestedAdjustment)
	if err != nil {
		return fmt.Errorf("requested_adjustment: %w", err)
	}
	*e = RebaseEvent{
		RebaserAddress:      raw.RebaserAddress,
		Token:               raw.Token,
		Sender:              raw.Sender,
		Epoch:               epoch,
		RequestedAdjustment: adjustment,
	}
	return nil
}

func parseDecimal(input string) (uint256.Int, error) {
	value, ok := new(big.Int).SetString(input, 10)
	if !ok {
		return uint256.Int{}, fmt.Errorf("invalid decimal %q", input)
	}
	if value.Sign() < 0 {
		return uint256.Int{}, fmt.Errorf("negative value %s", input)
	}
	out, overflow := uint256.FromBig(value)
	if overflow {
		return uint256.Int{}, fmt.Errorf("value exceeds 256 bits: %s", input)
	}
	return *out, nil
}
