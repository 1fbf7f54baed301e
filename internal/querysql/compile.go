// Package querysql compiles queryir queries to parameterized SQLite SQL over
// the docdb documents table.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/kvdoc/internal/ir"
	"github.com/roach88/kvdoc/internal/queryir"
)

// DefaultTable is the table docdb keeps documents in.
const DefaultTable = "documents"

// SQLCompiler compiles QueryIR to parameterized SQL for SQLite.
//
// Every query is ordered by insertion sequence with the document id as
// tiebreaker, and every value is passed as a parameter, never interpolated.
type SQLCompiler struct {
	// Table holds documents with columns seq, id, collection and body.
	Table string
}

// NewSQLCompiler creates a compiler for DefaultTable.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{Table: DefaultTable}
}

// Compile converts a QueryIR query to parameterized SQL selecting
// (id, body). Returns (sql, params, error).
//
// Only the portable fragment compiles: null, array and object literals are
// rejected, since json_extract cannot compare them faithfully. Callers
// check queryir.Validate first and fall back to a collection scan.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	switch query := q.(type) {
	case nil:
		return "", nil, fmt.Errorf("cannot compile nil query")
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		return c.compileSelect(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	if q.From == "" {
		return "", nil, fmt.Errorf("select requires a collection")
	}

	where := "collection = ?"
	params := []any{q.From}

	if q.Filter != nil {
		filterSQL, filterParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		if filterSQL != "" {
			where += " AND " + filterSQL
			params = append(params, filterParams...)
		}
	}

	sql := fmt.Sprintf("SELECT id, body FROM %s WHERE %s ORDER BY %s",
		c.table(), where, stableOrderKey())

	return sql, params, nil
}

func (c *SQLCompiler) table() string {
	if c.Table == "" {
		return DefaultTable
	}
	return c.Table
}

// stableOrderKey returns the ORDER BY clause shared by every query.
// COLLATE BINARY keeps text ordering identical across SQLite builds.
func stableOrderKey() string {
	return "seq ASC, id COLLATE BINARY ASC"
}

// compilePredicate returns an empty fragment for predicates that are always
// true.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "", nil, nil
	case queryir.Equals:
		return c.compileEquals(pred)
	case *queryir.Equals:
		return c.compileEquals(*pred)
	case queryir.And:
		return c.compileAnd(pred)
	case *queryir.And:
		return c.compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileEquals compiles an Equals predicate to "json_extract(body, ?) = ?".
// Both the path and the value are parameters.
func (c *SQLCompiler) compileEquals(eq queryir.Equals) (string, []any, error) {
	path, err := JSONPath(eq.Field)
	if err != nil {
		return "", nil, err
	}
	param, err := irValueToParam(eq.Value)
	if err != nil {
		return "", nil, fmt.Errorf("field %q: %w", eq.Field, err)
	}
	return "json_extract(body, ?) = ?", []any{path, param}, nil
}

func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	var sqlParts []string
	var allParams []any

	for _, pred := range and.Predicates {
		sql, params, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		if sql == "" {
			continue
		}
		sqlParts = append(sqlParts, sql)
		allParams = append(allParams, params...)
	}

	if len(sqlParts) > 1 {
		for i, part := range sqlParts {
			if strings.Contains(part, " AND ") {
				sqlParts[i] = "(" + part + ")"
			}
		}
	}

	return strings.Join(sqlParts, " AND "), allParams, nil
}

// JSONPath returns the SQLite JSON path for a top-level field, quoting the
// name so dots and brackets are taken literally.
func JSONPath(field string) (string, error) {
	if field == "" {
		return "", fmt.Errorf("empty field name")
	}
	if strings.ContainsRune(field, '"') {
		return "", fmt.Errorf("field %q contains a double quote", field)
	}
	return `$."` + field + `"`, nil
}

// irValueToParam converts a scalar ir.IRValue to a Go native type for a SQL
// parameter. json_extract yields 1/0 for JSON booleans, and go-sqlite3 binds
// bool the same way.
func irValueToParam(v ir.IRValue) (any, error) {
	switch val := v.(type) {
	case ir.IRString:
		return string(val), nil
	case ir.IRInt:
		return int64(val), nil
	case ir.IRFloat:
		return float64(val), nil
	case ir.IRBool:
		return bool(val), nil
	case nil, ir.IRNull:
		return nil, fmt.Errorf("null cannot be compared with json_extract")
	case ir.IRArray:
		return nil, fmt.Errorf("IRArray cannot be used as SQL parameter directly")
	case ir.IRObject:
		return nil, fmt.Errorf("IRObject cannot be used as SQL parameter directly")
	default:
		return nil, fmt.Errorf("unsupported IRValue type for SQL parameter: %T", v)
	}
}
