// Package testutil provides test doubles shared across packages.
package testutil

import (
	"context"
	"sync"

	"github.com/roach88/kvdoc/internal/docdb"
	"github.com/roach88/kvdoc/internal/ir"
	"github.com/roach88/kvdoc/internal/queryir"
	"github.com/roach88/kvdoc/internal/status"
)

// Method names recorded by MemDB.
const (
	MethodRegisterSchema = "RegisterSchema"
	MethodFindOne        = "FindOne"
	MethodUpdateOne      = "UpdateOne"
	MethodRemoveMany     = "RemoveMany"
	MethodSyncNow        = "SyncNow"
)

// Call is one recorded MemDB invocation.
type Call struct {
	Method     string
	Collection string
}

// MemDB is an in-memory document database that records every call and can
// be told to fail. It mirrors docdb semantics closely enough for keyed store
// tests: earliest match wins, upsert overlays filter with patch, results
// are private copies.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type MemDB struct {
	mu      sync.Mutex
	docs    map[string][]ir.IRObject
	schemas map[string]docdb.Schema
	calls   []Call
	fail    map[string]error
}

// NewMemDB creates an empty MemDB.
func NewMemDB() *MemDB {
	return &MemDB{
		docs:    make(map[string][]ir.IRObject),
		schemas: make(map[string]docdb.Schema),
		fail:    make(map[string]error),
	}
}

// FailOn makes every later call to method return err. A nil err clears it.
func (m *MemDB) FailOn(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, method)
		return
	}
	m.fail[method] = err
}

// Calls returns a copy of the recorded calls.
func (m *MemDB) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// CallCount returns how many calls of method were recorded, or of any
// method when method is empty.
func (m *MemDB) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if method == "" {
		return len(m.calls)
	}
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// ResetCalls forgets recorded calls.
func (m *MemDB) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Put appends doc to collection directly, bypassing recording.
func (m *MemDB) Put(collection string, doc ir.IRObject) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[collection] = append(m.docs[collection], doc.Clone())
}

// Docs returns copies of every document in collection.
func (m *MemDB) Docs(collection string) []ir.IRObject {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ir.IRObject, 0, len(m.docs[collection]))
	for _, doc := range m.docs[collection] {
		out = append(out, doc.Clone())
	}
	return out
}

// Schema returns the schema registered for collection.
func (m *MemDB) Schema(collection string) (docdb.Schema, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schemas[collection]
	return s, ok
}

// record logs the call and returns the injected failure, if any.
// Caller holds m.mu.
func (m *MemDB) record(method, collection string) error {
	m.calls = append(m.calls, Call{Method: method, Collection: collection})
	return m.fail[method]
}

func (m *MemDB) RegisterSchema(_ context.Context, collection string, schema docdb.Schema) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(MethodRegisterSchema, collection); err != nil {
		return err
	}
	m.schemas[collection] = schema
	return nil
}

func (m *MemDB) FindOne(_ context.Context, collection string, filter ir.IRObject) (ir.IRObject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(MethodFindOne, collection); err != nil {
		return nil, err
	}
	if i := m.indexOf(collection, filter); i >= 0 {
		return m.docs[collection][i].Clone(), nil
	}
	return nil, status.New(status.CodeNotFound, "no matching document").WithCollection(collection)
}

func (m *MemDB) UpdateOne(_ context.Context, collection string, filter, patch ir.IRObject, upsert bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(MethodUpdateOne, collection); err != nil {
		return err
	}

	if i := m.indexOf(collection, filter); i >= 0 {
		doc := m.docs[collection][i]
		for k, v := range patch {
			doc[k] = ir.Clone(v)
		}
		return nil
	}
	if !upsert {
		return status.New(status.CodeNotFound, "no matching document").WithCollection(collection)
	}

	doc := filter.Clone()
	if doc == nil {
		doc = ir.IRObject{}
	}
	for k, v := range patch {
		doc[k] = ir.Clone(v)
	}
	m.docs[collection] = append(m.docs[collection], doc)
	return nil
}

func (m *MemDB) RemoveMany(_ context.Context, collection string, match func(ir.IRObject) bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(MethodRemoveMany, collection); err != nil {
		return 0, err
	}

	kept := m.docs[collection][:0]
	removed := 0
	for _, doc := range m.docs[collection] {
		if match(doc.Clone()) {
			removed++
			continue
		}
		kept = append(kept, doc)
	}
	m.docs[collection] = kept
	return removed, nil
}

func (m *MemDB) SyncNow(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record(MethodSyncNow, "")
}

// indexOf returns the position of the first document matching filter.
// Caller holds m.mu.
func (m *MemDB) indexOf(collection string, filter ir.IRObject) int {
	sel := queryir.FromObject(collection, filter)
	for i, doc := range m.docs[collection] {
		if queryir.Match(sel.Filter, doc) {
			return i
		}
	}
	return -1
}
