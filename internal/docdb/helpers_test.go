package docdb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/kvdoc/internal/ir"
)

// createTestDB opens a fresh database in a temp directory.
func createTestDB(t *testing.T, opts ...Option) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := Open(path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

// recordSchema is the shape the keyed store registers.
var recordSchema = Schema{Fields: []Field{
	{Name: "key", Type: TypeString, Required: true},
	{Name: "value", Type: TypeAny},
}}

func record(key string, value ir.IRValue) ir.IRObject {
	return ir.IRObject{"key": ir.IRString(key), "value": value}
}
