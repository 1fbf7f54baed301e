package codec

import (
	"fmt"

	"github.com/roach88/kvdoc/internal/ir"
)

const targetEpoch = "epoch seconds"

// EncodeEpochSeconds writes the instant as an integer.
func EncodeEpochSeconds(epochSeconds int64) ir.IRValue {
	return ir.IRInt(epochSeconds)
}

// DecodeEpochSeconds accepts only integer nodes. Null, floats (even
// integral ones) and non-numeric nodes fail.
func DecodeEpochSeconds(src ir.IRValue) (int64, error) {
	n, ok := src.(ir.IRInt)
	if !ok {
		return 0, Fail(targetEpoch, fmt.Sprintf("expected int, got %s", ir.KindOf(src)))
	}
	return int64(n), nil
}
