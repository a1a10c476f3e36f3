package bridge

import "errors"

var (
	// ErrMalformedLog is returned when topic or data counts do not match the schema.
	ErrMalformedLog = errors.New("bridge: malformed log")

	// ErrSignatureMismatch is returned when topic 0 is not the expected event signature.
	ErrSignatureMismatch = errors.New("bridge: event signature mismatch")

	// ErrValueOutOfRange is returned when an integer does not fit the record field.
	ErrValueOutOfRange = errors.New("bridge: value out of range")

	// ErrInvalidHexAddress is returned when a record holds a malformed address string.
	ErrInvalidHexAddress = errors.New("bridge: invalid hex address")
)

// ErrorKind returns a stable label for err, used in error records and metrics.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedLog):
		return "malformed_log"
	case errors.Is(err, ErrSignatureMismatch):
		return "signature_mismatch"
	case errors.Is(err, ErrValueOutOfRange):
		return "value_out_of_range"
	case errors.Is(err, ErrInvalidHexAddress):
		return "invalid_hex_address"
	default:
		return "other"
	}
}
