package codec

import (
	"fmt"
	"net/netip"

	"github.com/roach88/kvdoc/internal/ir"
)

const targetIPv4 = "ipv4"

// EncodeIPString renders addr in dotted-decimal form.
// Fails only if addr is not an IPv4 address.
func EncodeIPString(addr netip.Addr) (ir.IRValue, error) {
	if !addr.Is4() {
		return nil, fmt.Errorf("encode ipv4: %v is not an IPv4 address", addr)
	}
	return ir.IRString(addr.String()), nil
}

// EncodeIPArray renders addr as a fresh 4-element array of octets.
// Fails only if addr is not an IPv4 address.
func EncodeIPArray(addr netip.Addr) (ir.IRValue, error) {
	if !addr.Is4() {
		return nil, fmt.Errorf("encode ipv4: %v is not an IPv4 address", addr)
	}
	octets := addr.As4()
	arr := make(ir.IRArray, len(octets))
	for i, o := range octets {
		arr[i] = ir.IRInt(o)
	}
	return arr, nil
}

// DecodeIPString parses a non-empty dotted-decimal string.
// IPv6 and IPv4-mapped IPv6 text are rejected.
func DecodeIPString(src ir.IRValue) (netip.Addr, error) {
	s, ok := src.(ir.IRString)
	if !ok {
		return netip.Addr{}, Fail(targetIPv4, fmt.Sprintf("expected string, got %s", ir.KindOf(src)))
	}
	if s == "" {
		return netip.Addr{}, Fail(targetIPv4, "empty string")
	}
	addr, err := netip.ParseAddr(string(s))
	if err != nil {
		return netip.Addr{}, FailWrap(targetIPv4, "invalid dotted-decimal address", err)
	}
	if !addr.Is4() {
		return netip.Addr{}, Fail(targetIPv4, fmt.Sprintf("%q is not an IPv4 address", s))
	}
	return addr, nil
}

// DecodeIPArray accepts exactly four integers, each in [0,255].
func DecodeIPArray(src ir.IRValue) (netip.Addr, error) {
	arr, ok := src.(ir.IRArray)
	if !ok {
		return netip.Addr{}, Fail(targetIPv4, fmt.Sprintf("expected array, got %s", ir.KindOf(src)))
	}
	if len(arr) != 4 {
		return netip.Addr{}, Fail(targetIPv4, fmt.Sprintf("expected 4 octets, got %d", len(arr)))
	}

	var octets [4]byte
	for i, elem := range arr {
		n, ok := elem.(ir.IRInt)
		if !ok {
			return netip.Addr{}, Fail(targetIPv4, fmt.Sprintf("octet %d: expected int, got %s", i, ir.KindOf(elem)))
		}
		if n < 0 || n > 255 {
			return netip.Addr{}, Fail(targetIPv4, fmt.Sprintf("octet %d: %d out of range [0,255]", i, n))
		}
		octets[i] = byte(n)
	}
	return netip.AddrFrom4(octets), nil
}

// DecodeIP accepts either wire form, trying the string form first.
func DecodeIP(src ir.IRValue) (netip.Addr, error) {
	if addr, err := DecodeIPString(src); err == nil {
		return addr, nil
	} else if _, isString := src.(ir.IRString); isString {
		return netip.Addr{}, err
	}
	return DecodeIPArray(src)
}
