package keyed

import (
	"context"
	"io"
	"log/slog"

	"github.com/roach88/kvdoc/internal/docdb"
	"github.com/roach88/kvdoc/internal/ir"
	"github.com/roach88/kvdoc/internal/status"
)

// Record field names.
const (
	FieldKey   = "key"
	FieldValue = "value"
)

// RecordSchema is registered for every collection a Store binds to.
var RecordSchema = docdb.Schema{Fields: []docdb.Field{
	{Name: FieldKey, Type: docdb.TypeString, Required: true},
	{Name: FieldValue, Type: docdb.TypeAny},
}}

// DB is the document database a Store delegates to. *docdb.DB satisfies it.
type DB interface {
	RegisterSchema(ctx context.Context, collection string, schema docdb.Schema) error
	FindOne(ctx context.Context, collection string, filter ir.IRObject) (ir.IRObject, error)
	UpdateOne(ctx context.Context, collection string, filter, patch ir.IRObject, upsert bool) error
	RemoveMany(ctx context.Context, collection string, match func(ir.IRObject) bool) (int, error)
	SyncNow(ctx context.Context) error
}

var _ DB = (*docdb.DB)(nil)

// Error messages.
const (
	msgNotInitialized    = "store not initialized"
	msgInvalidCollection = "invalid collection"
	msgInvalidKey        = "invalid key"
	msgValueMissing      = "stored value missing"
)

// Store keeps one value per (collection, key). The zero value is an
// unbound store that logs nothing.
type Store struct {
	db         DB
	collection string
	key        string

	def    ir.IRValue
	hasDef bool

	log *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// New creates an unbound Store.
func New(opts ...Option) *Store {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) logger() *slog.Logger {
	if s.log == nil {
		s.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s.log
}

// Init binds the store to db, collection and key and registers the record
// schema. It may be called on a bound store to rebind it; the default is
// kept.
//
// A nil db (including a nil *docdb.DB) or empty collection fails with
// "invalid collection", an empty key with "invalid key". If schema registration fails, its error is
// returned unchanged. In every failure case the store ends unbound.
func (s *Store) Init(ctx context.Context, db DB, collection, key string) error {
	s.unbind()

	if isNilDB(db) || collection == "" {
		return status.New(status.CodeInvalidArgument, msgInvalidCollection).WithCollection(collection)
	}
	if key == "" {
		return status.New(status.CodeInvalidArgument, msgInvalidKey).WithCollection(collection)
	}

	if err := db.RegisterSchema(ctx, collection, RecordSchema); err != nil {
		s.logger().Warn("register schema failed", "collection", collection, "error", err)
		return err
	}

	s.db = db
	s.collection = collection
	s.key = key
	s.logger().Debug("store bound", "collection", collection, "key", key)
	return nil
}

// InitCollection binds the store using the collection name as the key.
func (s *Store) InitCollection(ctx context.Context, db DB, collection string) error {
	return s.Init(ctx, db, collection, collection)
}

// Deinit unbinds the store and forgets its default. It is idempotent.
func (s *Store) Deinit() {
	if s.IsBound() {
		s.logger().Debug("store unbound", "collection", s.collection, "key", s.key)
	}
	s.unbind()
	s.def = nil
	s.hasDef = false
}

// isNilDB reports a nil interface or a nil *docdb.DB inside one.
// Other implementations must not be passed as typed nils.
func isNilDB(db DB) bool {
	if db == nil {
		return true
	}
	d, ok := db.(*docdb.DB)
	return ok && d == nil
}

func (s *Store) unbind() {
	s.db = nil
	s.collection = ""
	s.key = ""
}

// SetDefault stores a deep copy of v as the value GetOr falls back to.
// Allowed in any state.
func (s *Store) SetDefault(v ir.IRValue) {
	s.def = ir.Clone(v)
	s.hasDef = true
}

// IsBound reports whether Init has succeeded since the last Deinit.
func (s *Store) IsBound() bool {
	return s.db != nil
}

// Collection returns the bound collection, or "".
func (s *Store) Collection() string {
	return s.collection
}

// Key returns the bound key, or "".
func (s *Store) Key() string {
	return s.key
}

// HasDefault reports whether a default is set.
func (s *Store) HasDefault() bool {
	return s.hasDef
}

func (s *Store) checkBound() error {
	if !s.IsBound() {
		return status.New(status.CodeInvalidArgument, msgNotInitialized)
	}
	return nil
}

func (s *Store) filter() ir.IRObject {
	return ir.IRObject{FieldKey: ir.IRString(s.key)}
}

// Get returns a deep copy of the stored value. A record with no value, or
// a null one, is NOT_FOUND; collaborator errors pass through.
func (s *Store) Get(ctx context.Context) (ir.IRValue, error) {
	if err := s.checkBound(); err != nil {
		return nil, err
	}

	doc, err := s.db.FindOne(ctx, s.collection, s.filter())
	if err != nil {
		if !status.IsNotFound(err) {
			s.logger().Warn("find failed", "collection", s.collection, "key", s.key, "error", err)
		}
		return nil, err
	}

	v, ok := doc[FieldValue]
	if !ok || ir.IsNull(v) {
		return nil, status.New(status.CodeNotFound, msgValueMissing).WithCollection(s.collection)
	}
	return ir.Clone(v), nil
}

// GetOr is Get with the configured default as fallback. Without a default
// it behaves exactly like Get.
func (s *Store) GetOr(ctx context.Context) (v ir.IRValue, usedDefault bool, err error) {
	if !s.hasDef {
		v, err = s.Get(ctx)
		return v, false, err
	}
	return s.GetOrFallback(ctx, s.def)
}

// GetOrFallback returns the stored value, or a copy of fallback when the
// value is NOT_FOUND. Other errors pass through with usedDefault false.
func (s *Store) GetOrFallback(ctx context.Context, fallback ir.IRValue) (v ir.IRValue, usedDefault bool, err error) {
	v, err = s.Get(ctx)
	switch {
	case err == nil:
		return v, false, nil
	case status.IsNotFound(err):
		s.logger().Debug("default value used", "collection", s.collection, "key", s.key)
		return ir.Clone(fallback), true, nil
	default:
		return nil, false, err
	}
}

// Set stores v under the bound key, creating the record if needed.
func (s *Store) Set(ctx context.Context, v ir.IRValue) error {
	if err := s.checkBound(); err != nil {
		return err
	}

	patch := ir.IRObject{
		FieldKey:   ir.IRString(s.key),
		FieldValue: ir.Clone(v),
	}
	if err := s.db.UpdateOne(ctx, s.collection, s.filter(), patch, true); err != nil {
		s.logger().Warn("update failed", "collection", s.collection, "key", s.key, "error", err)
		return err
	}
	return nil
}

// Clear removes every record carrying the bound key.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.checkBound(); err != nil {
		return err
	}

	key := ir.IRString(s.key)
	removed, err := s.db.RemoveMany(ctx, s.collection, func(doc ir.IRObject) bool {
		return ir.Equal(doc[FieldKey], key)
	})
	if err != nil {
		s.logger().Warn("remove failed", "collection", s.collection, "key", s.key, "error", err)
		return err
	}
	s.logger().Debug("store cleared", "collection", s.collection, "key", s.key, "removed", removed)
	return nil
}

// SyncNow asks the database to persist pending writes.
func (s *Store) SyncNow(ctx context.Context) error {
	if err := s.checkBound(); err != nil {
		return err
	}
	return s.db.SyncNow(ctx)
}
