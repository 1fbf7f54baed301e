package docdb

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cuelang.org/go/cue"

	"github.com/roach88/kvdoc/internal/ir"
	"github.com/roach88/kvdoc/internal/status"
)

// FieldType constrains the JSON kind of a schema field.
type FieldType string

const (
	TypeString FieldType = "string"
	TypeInt    FieldType = "int"
	TypeFloat  FieldType = "float" // any number, integral or not
	TypeBool   FieldType = "bool"
	TypeArray  FieldType = "array"
	TypeObject FieldType = "object"
	TypeAny    FieldType = "any"
)

// cueTypes maps each FieldType to its CUE constraint.
var cueTypes = map[FieldType]string{
	TypeString: "string",
	TypeInt:    "int",
	TypeFloat:  "number",
	TypeBool:   "bool",
	TypeArray:  "[...]",
	TypeObject: "{...}",
	TypeAny:    "_",
}

// Field describes one top-level document field.
type Field struct {
	Name     string
	Type     FieldType
	Required bool
}

// Schema describes the documents a collection accepts. Fields not listed
// are allowed and unchecked, since CUE structs are open.
type Schema struct {
	Fields []Field
}

// Validate checks that every field has a unique, non-empty name and a known
// type.
func (s Schema) Validate() error {
	seen := make(map[string]bool, len(s.Fields))
	for i, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("field %d: empty name", i)
		}
		if seen[f.Name] {
			return fmt.Errorf("field %q: declared twice", f.Name)
		}
		seen[f.Name] = true
		if _, ok := cueTypes[f.Type]; !ok {
			return fmt.Errorf("field %q: unknown type %q", f.Name, f.Type)
		}
	}
	return nil
}

// Descriptor returns the schema as a semi-structured value with fields
// sorted by name, so field order does not affect the fingerprint.
func (s Schema) Descriptor() ir.IRObject {
	byName := make(ir.IRObject, len(s.Fields))
	for _, f := range s.Fields {
		byName[f.Name] = ir.IRObject{
			"type":     ir.IRString(f.Type),
			"required": ir.IRBool(f.Required),
		}
	}
	fields := make(ir.IRArray, 0, len(s.Fields))
	for _, name := range byName.SortedKeys() {
		entry := byName[name].(ir.IRObject)
		entry["name"] = ir.IRString(name)
		fields = append(fields, entry)
	}
	return ir.IRObject{"fields": fields}
}

// Fingerprint returns the domain-separated hash of the descriptor.
func (s Schema) Fingerprint() (string, error) {
	return ir.Hash(ir.DomainSchema, s.Descriptor())
}

// cueSource renders the schema as a CUE struct. Required fields are
// regular fields, so a missing one leaves the value incomplete; optional
// fields use "?".
func (s Schema) cueSource() (string, error) {
	var b strings.Builder
	b.WriteString("{\n")
	for _, f := range s.Fields {
		label, err := json.Marshal(f.Name)
		if err != nil {
			return "", err
		}
		marker := "?"
		if f.Required {
			marker = ""
		}
		fmt.Fprintf(&b, "\t%s%s: %s\n", label, marker, cueTypes[f.Type])
	}
	b.WriteString("}\n")
	return b.String(), nil
}

// schemaFromDescriptor rebuilds a Schema from its stored descriptor.
func schemaFromDescriptor(desc ir.IRObject) (Schema, error) {
	fields, ok := desc["fields"].(ir.IRArray)
	if !ok {
		return Schema{}, fmt.Errorf("descriptor has no fields array")
	}
	var s Schema
	for i, elem := range fields {
		obj, ok := elem.(ir.IRObject)
		if !ok {
			return Schema{}, fmt.Errorf("field %d: not an object", i)
		}
		name, _ := obj["name"].(ir.IRString)
		typ, _ := obj["type"].(ir.IRString)
		req, _ := obj["required"].(ir.IRBool)
		s.Fields = append(s.Fields, Field{Name: string(name), Type: FieldType(typ), Required: bool(req)})
	}
	return s, s.Validate()
}

// compiledSchema is a registered schema ready for validation.
type compiledSchema struct {
	schema      Schema
	fingerprint string
	value       cue.Value
}

// compile builds the CUE value for s.
func (d *DB) compile(s Schema, fingerprint string) (*compiledSchema, error) {
	src, err := s.cueSource()
	if err != nil {
		return nil, err
	}

	d.cueMu.Lock()
	defer d.cueMu.Unlock()

	v := d.cue.CompileString(src, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &compiledSchema{schema: s, fingerprint: fingerprint, value: v}, nil
}

// RegisterSchema associates schema with collection. Registering the
// descriptor already stored is a no-op; a different descriptor replaces it.
// Documents already stored are not re-validated.
func (d *DB) RegisterSchema(ctx context.Context, collection string, schema Schema) (err error) {
	defer d.observe("register_schema", time.Now(), &err)

	if err := requireCollection(collection); err != nil {
		return err
	}
	if err := schema.Validate(); err != nil {
		return status.Wrap(status.CodeInvalidArgument, "invalid schema", err).WithCollection(collection)
	}

	fingerprint, err := schema.Fingerprint()
	if err != nil {
		return status.Wrap(status.CodeInvalidArgument, "fingerprint schema", err).WithCollection(collection)
	}

	if cached, ok := d.schemas.Load(collection); ok && cached.fingerprint == fingerprint {
		return nil
	}

	compiled, err := d.compile(schema, fingerprint)
	if err != nil {
		return status.Wrap(status.CodeInvalidArgument, "invalid schema", err).WithCollection(collection)
	}

	descriptor, err := marshalBody(schema.Descriptor())
	if err != nil {
		return status.Wrap(status.CodeInvalidArgument, "marshal schema", err).WithCollection(collection)
	}

	res, err := d.db.ExecContext(ctx, `
		INSERT INTO schemas (collection, descriptor, fingerprint)
		VALUES (?, ?, ?)
		ON CONFLICT(collection) DO UPDATE
		SET descriptor = excluded.descriptor, fingerprint = excluded.fingerprint
		WHERE schemas.fingerprint != excluded.fingerprint
	`, collection, descriptor, fingerprint)
	if err != nil {
		return ioError("register schema", err).WithCollection(collection)
	}

	d.schemas.Store(collection, compiled)

	if n, _ := res.RowsAffected(); n > 0 {
		d.log.Debug("schema registered", "collection", collection, "fingerprint", fingerprint)
	}
	return nil
}

// SchemaFingerprint returns the fingerprint registered for collection, or
// NOT_FOUND.
func (d *DB) SchemaFingerprint(ctx context.Context, collection string) (string, error) {
	compiled, err := d.schemaFor(ctx, d.db, collection)
	if err != nil {
		return "", err
	}
	if compiled == nil {
		return "", status.New(status.CodeNotFound, "no schema registered").WithCollection(collection)
	}
	return compiled.fingerprint, nil
}

// schemaFor returns the compiled schema for collection, loading it from
// disk on a cache miss. A collection without a schema yields nil.
func (d *DB) schemaFor(ctx context.Context, q querier, collection string) (*compiledSchema, error) {
	if cached, ok := d.schemas.Load(collection); ok {
		return cached, nil
	}

	rows, err := q.QueryContext(ctx, `SELECT descriptor, fingerprint FROM schemas WHERE collection = ?`, collection)
	if err != nil {
		return nil, ioError("load schema", err).WithCollection(collection)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, ioError("load schema", err).WithCollection(collection)
		}
		return nil, nil
	}

	var descriptor, fingerprint string
	if err := rows.Scan(&descriptor, &fingerprint); err != nil {
		return nil, ioError("load schema", err).WithCollection(collection)
	}

	desc, err := unmarshalBody(descriptor)
	if err != nil {
		return nil, corruptError(collection, "stored schema descriptor", err)
	}
	schema, err := schemaFromDescriptor(desc)
	if err != nil {
		return nil, corruptError(collection, "stored schema descriptor", err)
	}
	compiled, err := d.compile(schema, fingerprint)
	if err != nil {
		return nil, corruptError(collection, "stored schema descriptor", err)
	}

	actual, _ := d.schemas.LoadOrStore(collection, compiled)
	return actual, nil
}

// validateDocument checks body against the collection's schema, if any.
func (d *DB) validateDocument(ctx context.Context, q querier, collection string, canonical string) error {
	compiled, err := d.schemaFor(ctx, q, collection)
	if err != nil || compiled == nil {
		return err
	}

	d.cueMu.Lock()
	defer d.cueMu.Unlock()

	doc := d.cue.CompileString(canonical, cue.Filename("document.json"))
	if err := doc.Err(); err != nil {
		return corruptError(collection, "document does not load as CUE", err)
	}
	if err := compiled.value.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return status.Wrap(status.CodeSchemaViolation, "document rejected by schema", err).WithCollection(collection)
	}
	return nil
}
