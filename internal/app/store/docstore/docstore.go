// internal/app/store/docstore/docstore.go

// Package docstore defines the narrow document-collection contract the
// content, audit and leads stores are written against, and a MongoDB
// implementation of it.
//
// Only four primitives are needed: find-one with sort, replace-one with
// upsert, insert-one, and find with sort and limit.
package docstore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned by FindOne when no document matches.
var ErrNotFound = errors.New("docstore: no matching document")

// ReplaceResult reports what a ReplaceOne call did.
type ReplaceResult struct {
	Matched  int64
	Modified int64
	Upserted int64
}

// Changed is true when a document was inserted or actually modified.
func (r ReplaceResult) Changed() bool {
	return r.Upserted > 0 || r.Modified > 0
}

// Collection is one logical collection of documents.
type Collection interface {
	// FindOne decodes the first document matching filter (after sorting)
	// into out. Returns ErrNotFound when nothing matches.
	FindOne(ctx context.Context, filter bson.M, sort bson.D, out any) error

	// ReplaceOne replaces the first document matching filter with doc,
	// inserting doc when nothing matches.
	ReplaceOne(ctx context.Context, filter bson.M, doc any) (ReplaceResult, error)

	// InsertOne appends doc.
	InsertOne(ctx context.Context, doc any) error

	// Find decodes up to limit matching documents (0 = no limit), in sort
	// order, into out, which must be a pointer to a slice.
	Find(ctx context.Context, filter bson.M, sort bson.D, limit int64, out any) error
}

// Mongo adapts a *mongo.Collection to Collection.
type Mongo struct {
	c *mongo.Collection
}

// NewMongo wraps c.
func NewMongo(c *mongo.Collection) *Mongo {
	return &Mongo{c: c}
}

// Name returns the underlying collection name.
func (m *Mongo) Name() string {
	return m.c.Name()
}

func (m *Mongo) FindOne(ctx context.Context, filter bson.M, sort bson.D, out any) error {
	opts := options.FindOne()
	if len(sort) > 0 {
		opts.SetSort(sort)
	}
	err := m.c.FindOne(ctx, filter, opts).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func (m *Mongo) ReplaceOne(ctx context.Context, filter bson.M, doc any) (ReplaceResult, error) {
	res, err := m.c.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return ReplaceResult{}, err
	}
	out := ReplaceResult{
		Matched:  res.MatchedCount,
		Modified: res.ModifiedCount,
		Upserted: res.UpsertedCount,
	}
	if out.Upserted == 0 && res.UpsertedID != nil {
		out.Upserted = 1
	}
	return out, nil
}

func (m *Mongo) InsertOne(ctx context.Context, doc any) error {
	_, err := m.c.InsertOne(ctx, doc)
	return err
}

func (m *Mongo) Find(ctx context.Context, filter bson.M, sort bson.D, limit int64, out any) error {
	opts := options.Find()
	if len(sort) > 0 {
		opts.SetSort(sort)
	}
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := m.c.Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)
	return cur.All(ctx, out)
}
