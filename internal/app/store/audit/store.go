// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"github.com/dalemusser/stratacms/internal/app/store/docstore"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CollectionName is the MongoDB collection holding audit entries.
const CollectionName = "audit_logs"

// Entry categories
const (
	CategoryAuth  = "auth"
	CategoryAdmin = "admin"
)

// Auth actions
const (
	ActionLoginSuccess     = "login_success"
	ActionLoginFailed      = "login_failed"
	ActionLoginRateLimited = "login_rate_limited"
)

// Admin actions
const (
	ActionContentSaved       = "content_saved"
	ActionContentPublished   = "content_published"
	ActionCategoryDeleted    = "category_deleted"
	ActionCategoriesAssigned = "categories_assigned"
)

// Entry is one append-only audit record.
type Entry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"timestamp"`

	Category string `bson:"category,omitempty" json:"category,omitempty"`
	Action   string `bson:"action" json:"action"`
	User     string `bson:"user" json:"user"`

	// Request context
	IP        string `bson:"ip,omitempty" json:"ip,omitempty"`
	UserAgent string `bson:"user_agent,omitempty" json:"user_agent,omitempty"`

	Success       bool   `bson:"success" json:"success"`
	FailureReason string `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`

	Details map[string]any `bson:"details,omitempty" json:"details,omitempty"`
}

// QueryFilter narrows Query results. Zero values match everything.
type QueryFilter struct {
	Category string
	Action   string
	User     string
	Limit    int64
}

// Store manages audit entries. Entries are never updated or deleted.
type Store struct {
	c docstore.Collection
}

// New creates a Store over the audit_logs collection of db.
func New(db *mongo.Database) *Store {
	return NewWithCollection(docstore.NewMongo(db.Collection(CollectionName)))
}

// NewWithCollection creates a Store over an arbitrary collection.
func NewWithCollection(c docstore.Collection) *Store {
	return &Store{c: c}
}

// Log appends an entry, filling ID and CreatedAt when unset.
func (s *Store) Log(ctx context.Context, e Entry) error {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return s.c.InsertOne(ctx, e)
}

// Query returns matching entries, newest first. Limit defaults to 100.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Action != "" {
		query["action"] = filter.Action
	}
	if filter.User != "" {
		query["user"] = filter.User
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var entries []Entry
	sort := bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	if err := s.c.Find(ctx, query, sort, limit, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}
