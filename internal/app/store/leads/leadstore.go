// internal/app/store/leads/leadstore.go
package leadstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratacms/internal/app/store/docstore"
	"github.com/dalemusser/stratacms/internal/app/system/normalize"
	"github.com/dalemusser/stratacms/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CollectionName is the MongoDB collection holding leads.
const CollectionName = "leads"

// ErrMissingContact is returned by Create when the lead has no email.
var ErrMissingContact = errors.New("lead has no email address")

// Store persists leads. Leads are append-only.
type Store struct {
	c docstore.Collection
}

// New creates a Store over the leads collection of db.
func New(db *mongo.Database) *Store {
	return NewWithCollection(docstore.NewMongo(db.Collection(CollectionName)))
}

// NewWithCollection creates a Store over an arbitrary collection.
func NewWithCollection(c docstore.Collection) *Store {
	return &Store{c: c}
}

// Create stores a lead and returns it with ID and CreatedAt set.
func (s *Store) Create(ctx context.Context, lead models.Lead) (models.Lead, error) {
	lead.Email = normalize.Email(lead.Email)
	if lead.Email == "" {
		return models.Lead{}, ErrMissingContact
	}
	if lead.ID.IsZero() {
		lead.ID = primitive.NewObjectID()
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	if err := s.c.InsertOne(ctx, lead); err != nil {
		return models.Lead{}, err
	}
	return lead, nil
}

// Recent returns up to limit leads, newest first. An empty courseSlug
// matches every course.
func (s *Store) Recent(ctx context.Context, courseSlug string, limit int64) ([]models.Lead, error) {
	filter := bson.M{}
	if courseSlug != "" {
		filter["course_slug"] = courseSlug
	}
	if limit <= 0 {
		limit = 100
	}
	var out []models.Lead
	sort := bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	if err := s.c.Find(ctx, filter, sort, limit, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Lead{}
	}
	return out, nil
}
