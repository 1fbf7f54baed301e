// Package codec converts typed domain values to and from ir.IRValue.
//
// Every function is pure. Encoders return a fresh value; decoders return
// (T, error) and never a partially decoded T: on failure the result is the
// zero value and the error satisfies errors.Is(err, ErrDecode).
//
// Conversions that need a date/time formatter live in the datetime
// subpackage so that callers without one never link it.
package codec
