// Package keyed provides a typed façade that keeps exactly one value per
// (collection, key) in a document database.
//
// A Store is either unbound or bound. Init binds it to a database handle, a
// collection and a key, and registers the record schema
//
//	{ key: string (required), value: any (optional) }
//
// with the database. While bound, Get/Set/Clear operate on the single
// record whose key field equals the bound key. Deinit returns the store to
// the unbound state and forgets its default.
//
// Every operation other than Init, InitCollection, SetDefault and Deinit
// fails with INVALID_ARGUMENT while the store is unbound, without touching
// the database.
//
// A Store is not safe for concurrent use.
package keyed
