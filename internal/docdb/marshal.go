package docdb

import (
	"fmt"

	"github.com/roach88/kvdoc/internal/ir"
)

// marshalBody converts a document to canonical JSON TEXT for storage.
func marshalBody(body ir.IRObject) (string, error) {
	if body == nil {
		body = ir.IRObject{}
	}
	data, err := ir.MarshalCanonical(body)
	if err != nil {
		return "", fmt.Errorf("marshal body: %w", err)
	}
	return string(data), nil
}

// unmarshalBody parses stored JSON TEXT back to a document. Integers larger
// than 2^53 survive because decoding goes through json.Number.
func unmarshalBody(data string) (ir.IRObject, error) {
	v, err := ir.UnmarshalIRValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal body: %w", err)
	}
	obj, ok := v.(ir.IRObject)
	if !ok {
		return nil, fmt.Errorf("unmarshal body: expected object, got %s", ir.KindOf(v))
	}
	return obj, nil
}
