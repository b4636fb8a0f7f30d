package docstore_test

import (
	"testing"
	"time"

	"github.com/dalemusser/stratacms/internal/app/store/docstore"
	"github.com/dalemusser/stratacms/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestMongo_ReplaceOneUpsertsPerSlot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	c := docstore.NewMongo(db.Collection("content"))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	filter := bson.M{"type": "site_content", "is_draft": false}
	doc := bson.M{"type": "site_content", "is_draft": false, "updated_at": time.Now().UTC().Truncate(time.Millisecond)}

	res, err := c.ReplaceOne(ctx, filter, doc)
	if err != nil || !res.Changed() {
		t.Fatalf("ReplaceOne() = %+v, %v; want an upsert", res, err)
	}
	res, err = c.ReplaceOne(ctx, filter, doc)
	if err != nil || res.Matched != 1 || res.Changed() {
		t.Errorf("identical ReplaceOne() = %+v, %v; want matched, unchanged", res, err)
	}
}

func TestMongo_OnePublishedRevision(t *testing.T) {
	db := testutil.SetupTestDB(t)
	c := docstore.NewMongo(db.Collection("content"))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	published := bson.M{"type": "site_content", "is_draft": false}
	if err := c.InsertOne(ctx, published); err != nil {
		t.Fatalf("InsertOne(published) error = %v", err)
	}
	if err := c.InsertOne(ctx, bson.M{"type": "site_content", "is_draft": true}); err != nil {
		t.Fatalf("InsertOne(draft) error = %v", err)
	}

	err := c.InsertOne(ctx, bson.M{"type": "site_content", "is_draft": false})
	if !mongo.IsDuplicateKeyError(err) {
		t.Errorf("second published revision error = %v, want duplicate key", err)
	}

	// The unique index only covers site content documents.
	for i := 0; i < 2; i++ {
		if err := c.InsertOne(ctx, bson.M{"type": "other", "is_draft": false}); err != nil {
			t.Errorf("InsertOne(other #%d) error = %v", i, err)
		}
	}
}
