package codec

import (
	"errors"
	"fmt"
)

// ErrDecode is matched by every *DecodeError.
var ErrDecode = errors.New("decode failed")

// DecodeError reports why a source value could not be decoded.
type DecodeError struct {
	// Target names the type being decoded, e.g. "ipv4".
	Target string

	// Reason is a short description of the mismatch.
	Reason string

	// Err is the underlying parse error, if any.
	Err error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode %s: %s: %v", e.Target, e.Reason, e.Err)
	}
	return fmt.Sprintf("decode %s: %s", e.Target, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is makes every DecodeError match ErrDecode.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// Fail builds a DecodeError. It is exported for codecs built on this package.
func Fail(target, reason string) error {
	return &DecodeError{Target: target, Reason: reason}
}

// FailWrap builds a DecodeError around a cause.
func FailWrap(target, reason string, err error) error {
	return &DecodeError{Target: target, Reason: reason, Err: err}
}
