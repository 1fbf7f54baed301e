// Package ir provides the semi-structured value type exchanged between the
// keyed store, the value codec and the document database.
//
// IRValue is a closed tagged variant: IRNull, IRBool, IRInt, IRFloat,
// IRString, IRArray and IRObject. Decoders dispatch on the tag with a type
// switch or KindOf; nothing outside this package can add a variant.
//
// This package imports nothing internal. Key constraints:
//   - All integers are int64; floats are a separate tag and never compare
//     equal to integers
//   - Persisted bodies use MarshalCanonical, which keeps strings byte for
//     byte; fingerprints hash MarshalCanonicalNFC
//   - A nil IRValue behaves as IRNull
package ir
