package queryir

import (
	"fmt"
	"strings"

	"github.com/roach88/kvdoc/internal/ir"
)

// ValidationResult contains portability analysis of a query.
//
// A portable query can be compiled entirely into SQL by querysql.
// Non-portable queries are still answered, by scanning the collection and
// filtering with Match.
type ValidationResult struct {
	// IsPortable indicates if the query uses only portable fragment features.
	IsPortable bool

	// Warnings lists non-portable features used in the query.
	// Empty when IsPortable is true.
	Warnings []string
}

// Validate checks if a query conforms to the portable fragment rules:
//  1. From names a collection
//  2. Field names are non-empty and contain no double quote
//  3. Literals are scalars (string, int, float, bool), never null
//
// Validate is a pure function with no side effects.
func Validate(query Query) ValidationResult {
	v := &validator{
		warnings: []string{},
	}
	v.validateQuery(query)

	return ValidationResult{
		IsPortable: len(v.warnings) == 0,
		Warnings:   v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings []string
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case nil:
		v.addWarning("nil query - portable fragment requires valid query nodes")
	case Select:
		v.validateSelect(query)
	case *Select:
		v.validateSelect(*query)
	default:
		v.addWarning("Unknown query type: %T - portability cannot be verified", q)
	}
}

func (v *validator) validateSelect(sel Select) {
	if sel.From == "" {
		v.addWarning("Empty collection name")
	}
	if sel.Filter != nil {
		v.validatePredicate(sel.Filter)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
	case Equals:
		v.validateEquals(pred)
	case *Equals:
		v.validateEquals(*pred)
	case And:
		v.validateAnd(pred)
	case *And:
		v.validateAnd(*pred)
	default:
		v.addWarning("Unknown predicate type: %T - portability cannot be verified", p)
	}
}

func (v *validator) validateEquals(eq Equals) {
	if eq.Field == "" {
		v.addWarning("Empty field name")
	} else if strings.ContainsRune(eq.Field, '"') {
		v.addWarning("Field %q contains a double quote - cannot be used in a JSON path", eq.Field)
	}

	switch kind := ir.KindOf(eq.Value); kind {
	case ir.KindNull:
		v.addWarning("Field '%s' compared to NULL - json_extract cannot tell null from missing", eq.Field)
	case ir.KindArray, ir.KindObject:
		v.addWarning("Field '%s' compared to %s - portable fragment requires scalar values", eq.Field, kind)
	}
}

func (v *validator) validateAnd(and And) {
	for _, sub := range and.Predicates {
		v.validatePredicate(sub)
	}
}
