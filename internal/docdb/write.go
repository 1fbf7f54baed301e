package docdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/kvdoc/internal/ir"
	"github.com/roach88/kvdoc/internal/queryir"
	"github.com/roach88/kvdoc/internal/status"
)

// UpdateOne applies patch to the earliest document matching filter, in one
// transaction. Each patch field replaces the document's field of the same
// name; other fields are kept.
//
// When nothing matches and upsert is set, a new document is inserted made
// of the filter fields overlaid with the patch. Without upsert, NOT_FOUND
// is returned.
//
// The resulting document is validated against the collection's schema.
func (d *DB) UpdateOne(ctx context.Context, collection string, filter, patch ir.IRObject, upsert bool) (err error) {
	defer d.observe("update_one", time.Now(), &err)

	if err := requireCollection(collection); err != nil {
		return err
	}

	return d.withTx(ctx, "update", collection, func(tx *sql.Tx) error {
		docs, err := d.find(ctx, tx, queryir.FromObject(collection, filter), 1)
		if err != nil {
			return err
		}

		if len(docs) == 1 {
			merged := overlay(docs[0].Body, patch)
			body, err := d.prepareBody(ctx, tx, collection, merged)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `UPDATE documents SET body = ? WHERE id = ?`, body, docs[0].ID); err != nil {
				return ioError("update document", err).WithCollection(collection)
			}
			return nil
		}

		if !upsert {
			return status.New(status.CodeNotFound, "no matching document").WithCollection(collection)
		}

		body, err := d.prepareBody(ctx, tx, collection, overlay(filter, patch))
		if err != nil {
			return err
		}
		id := newDocumentID()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents (id, collection, body) VALUES (?, ?, ?)`,
			id, collection, body,
		); err != nil {
			return ioError("insert document", err).WithCollection(collection)
		}
		d.log.Debug("document inserted", "collection", collection, "id", id)
		return nil
	})
}

// Insert adds doc as a new document and returns its id.
func (d *DB) Insert(ctx context.Context, collection string, doc ir.IRObject) (id string, err error) {
	defer d.observe("insert", time.Now(), &err)

	if err := requireCollection(collection); err != nil {
		return "", err
	}

	err = d.withTx(ctx, "insert", collection, func(tx *sql.Tx) error {
		body, err := d.prepareBody(ctx, tx, collection, doc)
		if err != nil {
			return err
		}
		id = newDocumentID()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents (id, collection, body) VALUES (?, ?, ?)`,
			id, collection, body,
		); err != nil {
			return ioError("insert document", err).WithCollection(collection)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// RemoveMany deletes every document of collection for which match returns
// true, in one transaction, and returns how many were deleted. match sees
// a private copy of each document.
func (d *DB) RemoveMany(ctx context.Context, collection string, match func(ir.IRObject) bool) (removed int, err error) {
	defer d.observe("remove_many", time.Now(), &err)

	if err := requireCollection(collection); err != nil {
		return 0, err
	}
	if match == nil {
		return 0, invalidArgument(collection, "nil match predicate")
	}

	err = d.withTx(ctx, "remove", collection, func(tx *sql.Tx) error {
		docs, err := d.find(ctx, tx, queryir.Select{From: collection}, 0)
		if err != nil {
			return err
		}
		for _, doc := range docs {
			if !match(doc.Body) {
				continue
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, doc.ID); err != nil {
				return ioError("delete document", err).WithCollection(collection)
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		d.log.Debug("documents removed", "collection", collection, "count", removed)
	}
	return removed, nil
}

// withTx runs fn in a transaction, committing only if fn succeeds.
func (d *DB) withTx(ctx context.Context, op, collection string, fn func(tx *sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return ioError(fmt.Sprintf("%s: begin tx", op), err).WithCollection(collection)
	}
	defer tx.Rollback() // No-op if committed

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return ioError(fmt.Sprintf("%s: commit", op), err).WithCollection(collection)
	}
	return nil
}

// prepareBody serializes doc and validates it against the collection schema.
func (d *DB) prepareBody(ctx context.Context, q querier, collection string, doc ir.IRObject) (string, error) {
	body, err := marshalBody(doc)
	if err != nil {
		return "", status.Wrap(status.CodeInvalidArgument, "unserializable document", err).WithCollection(collection)
	}
	if err := d.validateDocument(ctx, q, collection, body); err != nil {
		return "", err
	}
	return body, nil
}

// overlay returns a deep copy of base with every field of patch replaced.
func overlay(base, patch ir.IRObject) ir.IRObject {
	out := base.Clone()
	if out == nil {
		out = make(ir.IRObject, len(patch))
	}
	for k, v := range patch {
		out[k] = ir.Clone(v)
	}
	return out
}

// newDocumentID returns a UUIDv7, so ids sort by creation time.
func newDocumentID() string {
	return uuid.Must(uuid.NewV7()).String()
}
