package queryir

import "github.com/roach88/kvdoc/internal/ir"

// Query represents an abstract query in the QueryIR.
//
// This is a sealed interface - only types in this package implement it.
type Query interface {
	queryNode() // Marker method - seals interface to this package
}

// Predicate represents a filter condition in the QueryIR.
//
// This is a sealed interface - only types in this package implement it.
//
// Predicate types:
//   - Equals: field = literal_value
//   - And: all predicates must be true
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Select represents access to one collection with filtering.
//
// Semantics:
//
//	SELECT documents FROM <from> WHERE <filter>
//
// Example:
//
//	Select{
//	  From: "settings",
//	  Filter: And{Predicates: []Predicate{
//	    Equals{Field: "key", Value: ir.IRString("wifi")},
//	  }},
//	}
//
// Results are whole documents in insertion order.
type Select struct {
	From   string    // Collection name
	Filter Predicate // WHERE conditions (nil = every document)
}

func (Select) queryNode() {}

// Equals represents a top-level-field-equals-literal predicate.
//
// A document matches when it carries Field and the stored value is
// structurally equal to Value (ir.Equal): kinds must agree, so IRInt(1)
// does not match IRFloat(1) or IRBool(true). An IRNull literal matches
// only an explicit null, never a missing field.
type Equals struct {
	Field string     // Top-level field name
	Value ir.IRValue // Literal value
}

func (Equals) predicateNode() {}

// And represents a conjunction of predicates (all must be true).
// An empty And is always true.
type And struct {
	Predicates []Predicate // All must be true (empty = always true)
}

func (And) predicateNode() {}

// FromObject builds a Select whose filter is the conjunction of one Equals
// per field of filter, in canonical key order. An empty or nil filter
// selects every document in the collection.
func FromObject(collection string, filter ir.IRObject) Select {
	keys := filter.SortedKeys()
	if len(keys) == 0 {
		return Select{From: collection}
	}
	preds := make([]Predicate, 0, len(keys))
	for _, k := range keys {
		preds = append(preds, Equals{Field: k, Value: filter[k]})
	}
	return Select{From: collection, Filter: And{Predicates: preds}}
}

// Match evaluates p against doc in process. A nil predicate matches
// everything.
func Match(p Predicate, doc ir.IRObject) bool {
	switch pred := p.(type) {
	case nil:
		return true
	case Equals:
		return matchEquals(pred, doc)
	case *Equals:
		return matchEquals(*pred, doc)
	case And:
		return matchAnd(pred, doc)
	case *And:
		return matchAnd(*pred, doc)
	default:
		return false
	}
}

func matchEquals(eq Equals, doc ir.IRObject) bool {
	got, ok := doc[eq.Field]
	return ok && ir.Equal(got, eq.Value)
}

func matchAnd(and And, doc ir.IRObject) bool {
	for _, sub := range and.Predicates {
		if !Match(sub, doc) {
			return false
		}
	}
	return true
}
