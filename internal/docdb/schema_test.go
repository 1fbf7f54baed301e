package docdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kvdoc/internal/ir"
	"github.com/roach88/kvdoc/internal/status"
)

func TestSchema_Validate(t *testing.T) {
	tests := []struct {
		name   string
		schema Schema
		errMsg string
	}{
		{"empty", Schema{}, ""},
		{"record", recordSchema, ""},
		{"empty name", Schema{Fields: []Field{{Type: TypeString}}}, "empty name"},
		{"duplicate", Schema{Fields: []Field{{Name: "a", Type: TypeInt}, {Name: "a", Type: TypeBool}}}, "declared twice"},
		{"unknown type", Schema{Fields: []Field{{Name: "a", Type: "date"}}}, "unknown type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestSchema_FingerprintIgnoresFieldOrder(t *testing.T) {
	reversed := Schema{Fields: []Field{recordSchema.Fields[1], recordSchema.Fields[0]}}

	a, err := recordSchema.Fingerprint()
	require.NoError(t, err)
	b, err := reversed.Fingerprint()
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestSchema_FingerprintDistinguishesRequired(t *testing.T) {
	optionalKey := Schema{Fields: []Field{
		{Name: "key", Type: TypeString},
		{Name: "value", Type: TypeAny},
	}}

	assert.NotEqual(t, ir.MustHash(ir.DomainSchema, recordSchema.Descriptor()),
		ir.MustHash(ir.DomainSchema, optionalKey.Descriptor()))
}

func TestSchema_DescriptorRoundTrip(t *testing.T) {
	back, err := schemaFromDescriptor(recordSchema.Descriptor())
	require.NoError(t, err)
	assert.Equal(t, recordSchema, back)
}

func TestRegisterSchema_Idempotent(t *testing.T) {
	d := createTestDB(t)
	ctx := context.Background()

	require.NoError(t, d.RegisterSchema(ctx, "settings", recordSchema))
	require.NoError(t, d.RegisterSchema(ctx, "settings", recordSchema))

	var n int
	require.NoError(t, d.db.QueryRow(`SELECT COUNT(*) FROM schemas`).Scan(&n))
	assert.Equal(t, 1, n)

	fp, err := d.SchemaFingerprint(ctx, "settings")
	require.NoError(t, err)
	want, err := recordSchema.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, want, fp)
}

func TestRegisterSchema_Replaces(t *testing.T) {
	d := createTestDB(t)
	ctx := context.Background()

	require.NoError(t, d.RegisterSchema(ctx, "settings", recordSchema))
	strict := Schema{Fields: []Field{
		{Name: "key", Type: TypeString, Required: true},
		{Name: "value", Type: TypeInt, Required: true},
	}}
	require.NoError(t, d.RegisterSchema(ctx, "settings", strict))

	fp, err := d.SchemaFingerprint(ctx, "settings")
	require.NoError(t, err)
	want, err := strict.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, want, fp)

	_, err = d.Insert(ctx, "settings", record("k", ir.IRString("not an int")))
	assert.Equal(t, status.CodeSchemaViolation, status.CodeOf(err))
}

func TestRegisterSchema_Invalid(t *testing.T) {
	d := createTestDB(t)
	ctx := context.Background()

	err := d.RegisterSchema(ctx, "", recordSchema)
	assert.True(t, status.IsInvalidArgument(err))

	err = d.RegisterSchema(ctx, "c", Schema{Fields: []Field{{Name: "a", Type: "nope"}}})
	assert.True(t, status.IsInvalidArgument(err))
}

func TestSchemaFingerprint_NotRegistered(t *testing.T) {
	d := createTestDB(t)

	_, err := d.SchemaFingerprint(context.Background(), "none")
	assert.True(t, status.IsNotFound(err))
}

func TestSchemaValidation(t *testing.T) {
	d := createTestDB(t)
	ctx := context.Background()

	typed := Schema{Fields: []Field{
		{Name: "key", Type: TypeString, Required: true},
		{Name: "count", Type: TypeInt},
		{Name: "ratio", Type: TypeFloat},
		{Name: "on", Type: TypeBool},
		{Name: "tags", Type: TypeArray},
		{Name: "meta", Type: TypeObject},
		{Name: "value", Type: TypeAny},
	}}
	require.NoError(t, d.RegisterSchema(ctx, "c", typed))

	tests := []struct {
		name  string
		doc   ir.IRObject
		valid bool
	}{
		{"minimal", ir.IRObject{"key": ir.IRString("k")}, true},
		{"all fields", ir.IRObject{
			"key":   ir.IRString("k"),
			"count": ir.IRInt(3),
			"ratio": ir.IRFloat(0.5),
			"on":    ir.IRBool(true),
			"tags":  ir.IRArray{ir.IRString("x")},
			"meta":  ir.IRObject{"a": ir.IRInt(1)},
			"value": ir.IRNull{},
		}, true},
		{"integral ratio", ir.IRObject{"key": ir.IRString("k"), "ratio": ir.IRInt(1)}, true},
		{"extra field", ir.IRObject{"key": ir.IRString("k"), "other": ir.IRInt(1)}, true},
		{"missing key", ir.IRObject{"value": ir.IRInt(1)}, false},
		{"key not string", ir.IRObject{"key": ir.IRInt(1)}, false},
		{"count is float", ir.IRObject{"key": ir.IRString("k"), "count": ir.IRFloat(1.5)}, false},
		{"on is int", ir.IRObject{"key": ir.IRString("k"), "on": ir.IRInt(1)}, false},
		{"tags is object", ir.IRObject{"key": ir.IRString("k"), "tags": ir.IRObject{}}, false},
		{"meta is array", ir.IRObject{"key": ir.IRString("k"), "meta": ir.IRArray{}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Insert(ctx, "c", tt.doc)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, status.CodeSchemaViolation, status.CodeOf(err))
		})
	}
}

func TestSchemaValidation_UpdateChecksMergedDocument(t *testing.T) {
	d := createTestDB(t)
	ctx := context.Background()
	require.NoError(t, d.RegisterSchema(ctx, "c", recordSchema))

	filter := ir.IRObject{"key": ir.IRString("k")}
	require.NoError(t, d.UpdateOne(ctx, "c", filter, ir.IRObject{"value": ir.IRInt(1)}, true))

	err := d.UpdateOne(ctx, "c", filter, ir.IRObject{"key": ir.IRInt(7)}, false)
	assert.Equal(t, status.CodeSchemaViolation, status.CodeOf(err))

	got, err := d.FindOne(ctx, "c", filter)
	require.NoError(t, err)
	assert.Equal(t, ir.IRInt(1), got["value"], "rejected update rolled back")
}

func TestSchemaSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	d, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, d.RegisterSchema(ctx, "c", recordSchema))
	require.NoError(t, d.Close())

	d, err = Open(path)
	require.NoError(t, err)
	defer d.Close()

	_, err = d.Insert(ctx, "c", ir.IRObject{"value": ir.IRInt(1)})
	assert.Equal(t, status.CodeSchemaViolation, status.CodeOf(err))

	fp, err := d.SchemaFingerprint(ctx, "c")
	require.NoError(t, err)
	want, err := recordSchema.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, want, fp)
}

func TestUnregisteredCollectionAcceptsAnything(t *testing.T) {
	d := createTestDB(t)

	_, err := d.Insert(context.Background(), "free", ir.IRObject{"anything": ir.IRArray{}})
	assert.NoError(t, err)
}
