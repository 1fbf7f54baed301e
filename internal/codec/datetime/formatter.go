package datetime

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoFormatter is returned by the textual conversions when no Formatter
// is supplied.
var ErrNoFormatter = errors.New("datetime: no formatter available")

// Formatter renders and parses instants as text. It is the date/time
// provider the textual conversions depend on.
type Formatter interface {
	FormatUTC(t time.Time) (string, error)
	ParseUTC(s string) (time.Time, error)
}

// ISOLayout is the canonical textual form written by ISO8601.
const ISOLayout = "2006-01-02T15:04:05Z"

// ISO8601 formats instants as ISOLayout in UTC and parses any RFC 3339
// timestamp, normalizing it to UTC at whole-second precision.
type ISO8601 struct {
	// MaxLen caps the rendered length; zero means unlimited.
	MaxLen int
}

// FormatUTC renders t in UTC. It fails when the result would exceed MaxLen
// or the year falls outside [0,9999].
func (f ISO8601) FormatUTC(t time.Time) (string, error) {
	u := t.UTC()
	if y := u.Year(); y < 0 || y > 9999 {
		return "", fmt.Errorf("format %v: year %d outside [0,9999]", t, y)
	}
	s := u.Format(ISOLayout)
	if f.MaxLen > 0 && len(s) > f.MaxLen {
		return "", fmt.Errorf("format %v: %d bytes exceeds limit %d", t, len(s), f.MaxLen)
	}
	return s, nil
}

// ParseUTC parses an RFC 3339 timestamp.
func (ISO8601) ParseUTC(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC().Truncate(time.Second), nil
}
