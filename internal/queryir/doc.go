// Package queryir provides an abstract query intermediate representation (IR)
// for document lookups.
//
// QueryIR is the boundary between callers that describe documents by
// field equality and the backend that finds them:
//
//	[filter object] → [Query IR] → [SQL backend (querysql)]
//	                             → [in-process matcher (Match)]
//
// PORTABLE FRAGMENT:
//
// The portable fragment is what the SQL backend can push down into
// json_extract comparisons:
//   - Select(from, filter) - collection access with filtering
//   - Predicates: Equals, And
//   - Scalar literals only (string, int, float, bool)
//   - Field names that are safe inside a quoted JSON path
//
// Filters outside the fragment (null, array or object literals) are still
// answered correctly: the backend scans the collection and evaluates them
// with Match. Every backend result is re-checked with Match, so SQLite's
// loose comparison rules (true = 1) never leak into results.
//
// SEALED INTERFACES:
//
// Query and Predicate are sealed interfaces using the marker method pattern.
// Only types in this package can implement them, which keeps type switches
// in backends exhaustive:
//
//	switch p := pred.(type) {
//	case Equals:
//	    // field = literal
//	case And:
//	    // conjunction
//	}
package queryir
