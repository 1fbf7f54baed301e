// Package datetime holds the value conversions that depend on a date/time
// provider: instants as epoch seconds or canonical text, and local
// date/times as {epochSeconds, offsetMinutes} objects.
package datetime

import (
	"fmt"
	"math"
	"time"

	"github.com/roach88/kvdoc/internal/codec"
	"github.com/roach88/kvdoc/internal/ir"
)

// Wire field names of an encoded LocalDateTime.
const (
	FieldEpochSeconds  = "epochSeconds"
	FieldOffsetMinutes = "offsetMinutes"
)

const (
	targetInstant = "instant"
	targetText    = "instant text"
	targetLocal   = "local datetime"
)

// LocalDateTime is an absolute instant plus the offset in minutes at which
// it was observed.
type LocalDateTime struct {
	UTC           time.Time
	OffsetMinutes int
}

// Local returns the wall-clock time in a fixed zone of OffsetMinutes.
func (l LocalDateTime) Local() time.Time {
	return l.UTC.In(time.FixedZone("", l.OffsetMinutes*60))
}

// FromTime captures t's instant and its zone offset.
func FromTime(t time.Time) LocalDateTime {
	_, offset := t.Zone()
	return LocalDateTime{UTC: t.UTC(), OffsetMinutes: offset / 60}
}

// EncodeEpoch writes t as whole seconds since the Unix epoch.
func EncodeEpoch(t time.Time) ir.IRValue {
	return codec.EncodeEpochSeconds(t.Unix())
}

// DecodeEpoch reads epoch seconds and returns the instant in UTC.
func DecodeEpoch(src ir.IRValue) (time.Time, error) {
	secs, err := codec.DecodeEpochSeconds(src)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(secs, 0).UTC(), nil
}

// EncodeText renders t through f.
func EncodeText(t time.Time, f Formatter) (ir.IRValue, error) {
	if f == nil {
		return nil, ErrNoFormatter
	}
	s, err := f.FormatUTC(t)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", targetText, err)
	}
	return ir.IRString(s), nil
}

// DecodeText accepts only a non-empty string that f can parse.
func DecodeText(src ir.IRValue, f Formatter) (time.Time, error) {
	if f == nil {
		return time.Time{}, ErrNoFormatter
	}
	s, ok := src.(ir.IRString)
	if !ok {
		return time.Time{}, codec.Fail(targetText, fmt.Sprintf("expected string, got %s", ir.KindOf(src)))
	}
	if s == "" {
		return time.Time{}, codec.Fail(targetText, "empty string")
	}
	t, err := f.ParseUTC(string(s))
	if err != nil {
		return time.Time{}, codec.FailWrap(targetText, "unparseable timestamp", err)
	}
	return t, nil
}

// EncodeLocal writes {epochSeconds, offsetMinutes}.
func EncodeLocal(v LocalDateTime) ir.IRValue {
	return ir.IRObject{
		FieldEpochSeconds:  EncodeEpoch(v.UTC),
		FieldOffsetMinutes: ir.IRInt(v.OffsetMinutes),
	}
}

// DecodeLocal requires an object carrying both fields. Both are decoded into
// locals and the result is built only once each has been checked.
func DecodeLocal(src ir.IRValue) (LocalDateTime, error) {
	obj, ok := src.(ir.IRObject)
	if !ok {
		return LocalDateTime{}, codec.Fail(targetLocal, fmt.Sprintf("expected object, got %s", ir.KindOf(src)))
	}
	if !obj.Has(FieldEpochSeconds) || !obj.Has(FieldOffsetMinutes) {
		return LocalDateTime{}, codec.Fail(targetLocal, "missing epochSeconds or offsetMinutes")
	}

	utc, err := DecodeEpoch(obj[FieldEpochSeconds])
	if err != nil {
		return LocalDateTime{}, err
	}

	offset, ok := obj[FieldOffsetMinutes].(ir.IRInt)
	if !ok {
		return LocalDateTime{}, codec.Fail(targetLocal, fmt.Sprintf("offsetMinutes: expected int, got %s", ir.KindOf(obj[FieldOffsetMinutes])))
	}
	if offset < math.MinInt32 || offset > math.MaxInt32 {
		return LocalDateTime{}, codec.Fail(targetLocal, fmt.Sprintf("offsetMinutes %d overflows a 32-bit int", offset))
	}

	return LocalDateTime{UTC: utc, OffsetMinutes: int(offset)}, nil
}
