package docdb

import (
	"context"
	"time"

	"github.com/roach88/kvdoc/internal/ir"
	"github.com/roach88/kvdoc/internal/queryir"
	"github.com/roach88/kvdoc/internal/status"
)

// Document is a stored document with its identity.
type Document struct {
	ID   string
	Body ir.IRObject
}

// FindOne returns the earliest inserted document of collection whose fields
// equal every field of filter. Returns NOT_FOUND when nothing matches.
// The result is a private copy.
func (d *DB) FindOne(ctx context.Context, collection string, filter ir.IRObject) (_ ir.IRObject, err error) {
	defer d.observe("find_one", time.Now(), &err)

	if err := requireCollection(collection); err != nil {
		return nil, err
	}

	docs, err := d.find(ctx, d.db, queryir.FromObject(collection, filter), 1)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, status.New(status.CodeNotFound, "no matching document").WithCollection(collection)
	}
	return docs[0].Body, nil
}

// Find returns every matching document in insertion order. An empty filter
// matches the whole collection.
func (d *DB) Find(ctx context.Context, collection string, filter ir.IRObject) (_ []Document, err error) {
	defer d.observe("find", time.Now(), &err)

	if err := requireCollection(collection); err != nil {
		return nil, err
	}
	return d.find(ctx, d.db, queryir.FromObject(collection, filter), 0)
}

// Count returns the number of documents in collection.
func (d *DB) Count(ctx context.Context, collection string) (n int, err error) {
	defer d.observe("count", time.Now(), &err)

	if err := requireCollection(collection); err != nil {
		return 0, err
	}
	row := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE collection = ?`, collection)
	if err := row.Scan(&n); err != nil {
		return 0, ioError("count documents", err).WithCollection(collection)
	}
	return n, nil
}

// find runs sel and returns up to limit matches (0 = all). Portable filters
// are pushed down to SQL; others scan the collection. Either way every row
// is re-checked with queryir.Match.
func (d *DB) find(ctx context.Context, q querier, sel queryir.Select, limit int) ([]Document, error) {
	pushdown := sel
	if res := queryir.Validate(sel); !res.IsPortable {
		d.log.Debug("filter not portable, scanning collection",
			"collection", sel.From, "warnings", res.Warnings)
		pushdown = queryir.Select{From: sel.From}
	}

	query, params, err := d.compiler.Compile(pushdown)
	if err != nil {
		return nil, status.Wrap(status.CodeInvalidArgument, "compile filter", err).WithCollection(sel.From)
	}

	rows, err := q.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, ioError("query documents", err).WithCollection(sel.From)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, ioError("scan document", err).WithCollection(sel.From)
		}
		obj, err := unmarshalBody(body)
		if err != nil {
			return nil, corruptError(sel.From, "document "+id, err)
		}
		if !queryir.Match(sel.Filter, obj) {
			continue
		}
		docs = append(docs, Document{ID: id, Body: obj})
		if limit > 0 && len(docs) == limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, ioError("iterate documents", err).WithCollection(sel.From)
	}

	return docs, nil
}
