package ir

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// ErrInvalidUTF8 is returned when a string or key is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("invalid UTF-8")

// MarshalCanonical produces RFC 8785 style canonical JSON. It is the
// serialization used for persisted document bodies, and it is lossless:
// strings are written exactly as given.
//
// Differences from json.Marshal:
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping, and U+2028/U+2029 are emitted literally
//  3. Invalid UTF-8 is rejected instead of replaced with U+FFFD
//  4. Floats always carry a fraction or exponent, so they reload as floats
//
// Plain Go values accepted by FromAny are converted first.
func MarshalCanonical(v any) ([]byte, error) {
	return marshalCanonical(v, false)
}

// MarshalCanonicalNFC is MarshalCanonical with every string and key NFC
// normalized, so canonically equivalent text serializes identically.
// Hash uses it; stored bodies must not.
func MarshalCanonicalNFC(v any) ([]byte, error) {
	return marshalCanonical(v, true)
}

func marshalCanonical(v any, nfc bool) ([]byte, error) {
	val, err := FromAny(v)
	if err != nil {
		return nil, err
	}
	w := canonicalWriter{nfc: nfc}
	if err := w.write(val); err != nil {
		return nil, err
	}
	return w.buf.Bytes(), nil
}

type canonicalWriter struct {
	buf bytes.Buffer
	nfc bool
}

func (w *canonicalWriter) write(v IRValue) error {
	buf := &w.buf
	switch val := v.(type) {
	case nil, IRNull:
		buf.WriteString("null")
	case IRBool:
		buf.WriteString(strconv.FormatBool(bool(val)))
	case IRInt:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case IRFloat:
		out, err := formatFloat(float64(val))
		if err != nil {
			return err
		}
		buf.Write(out)
	case IRString:
		return w.writeString(string(val))
	case IRArray:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := w.write(elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case IRObject:
		buf.WriteByte('{')
		keys := val.SortedKeys()
		if w.nfc {
			slices.SortStableFunc(keys, func(a, b string) int {
				return compareKeysRFC8785(norm.NFC.String(a), norm.NFC.String(b))
			})
		}
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := w.writeString(k); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
			buf.WriteByte(':')
			if err := w.write(val[k]); err != nil {
				return fmt.Errorf("value for key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

// writeString escapes only quote, backslash and control characters.
func (w *canonicalWriter) writeString(s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("string %q: %w", s, ErrInvalidUTF8)
	}
	if w.nfc {
		s = norm.NFC.String(s)
	}

	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	out := bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'})
	w.buf.Write(unescapeLineSeparators(out))
	return nil
}

// unescapeLineSeparators turns the U+2028 and U+2029 escapes that
// encoding/json always emits back into literal characters. An escape that
// follows an odd run of backslashes is literal text and is left alone.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	backslashes := 0
	for i := 0; i < len(data); i++ {
		c := data[i]
		if c == '\\' && backslashes%2 == 0 && i+5 < len(data) &&
			data[i+1] == 'u' && data[i+2] == '2' && data[i+3] == '0' && data[i+4] == '2' &&
			(data[i+5] == '8' || data[i+5] == '9') {
			if data[i+5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			backslashes = 0
			continue
		}
		if c == '\\' {
			backslashes++
		} else {
			backslashes = 0
		}
		out = append(out, c)
	}
	return out
}
