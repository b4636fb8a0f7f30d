// internal/app/store/content/contentstore.go

// Package contentstore is the only reader and writer of the site content
// document.
//
// Reads never fail: an empty collection or a storage error yields a minimal
// empty-but-valid document. Writes never fail either: storage errors are
// logged and reported as a false return. Neither direction retries.
//
// The document is replaced wholesale on every save. There is no version
// check, so two concurrent saves race and the later one wins in full. The
// published and draft revisions are ordered by updated_at, then revision.
package contentstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dalemusser/stratacms/internal/app/store/audit"
	"github.com/dalemusser/stratacms/internal/app/store/docstore"
	"github.com/dalemusser/stratacms/internal/app/system/timeouts"
	"github.com/dalemusser/stratacms/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// CollectionName is the MongoDB collection holding site content documents.
const CollectionName = "content"

// DefaultAuditLimit is used by GetAuditLogs when limit is not positive.
const DefaultAuditLimit = 50

// ErrNoDraft is returned by PublishDraft when there is no draft newer than
// the published revision.
var ErrNoDraft = errors.New("no unpublished draft")

var latestFirst = bson.D{
	{Key: "updated_at", Value: -1},
	{Key: "revision", Value: -1},
}

// Store reads and writes the site content document and its audit trail.
type Store struct {
	c             docstore.Collection
	audit         *audit.Store
	logger        *zap.Logger
	instituteName string
	now           func() time.Time

	mu        sync.Mutex
	lastRev   int64
	lastDraft bool
}

// Option configures a Store.
type Option func(*Store)

// WithInstituteName sets the institute name used in the empty document.
func WithInstituteName(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.instituteName = name
		}
	}
}

// WithClock overrides time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a Store over the content and audit_logs collections of db.
func New(db *mongo.Database, logger *zap.Logger, opts ...Option) *Store {
	return NewWithCollections(
		docstore.NewMongo(db.Collection(CollectionName)),
		audit.New(db),
		logger,
		opts...,
	)
}

// NewWithCollections creates a Store over arbitrary collections.
func NewWithCollections(c docstore.Collection, auditStore *audit.Store, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		c:             c,
		audit:         auditStore,
		logger:        logger,
		instituteName: models.DefaultInstituteName,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetContent returns the most recently updated revision, draft or not.
func (s *Store) GetContent(ctx context.Context) *models.SiteContent {
	return s.latest(ctx, bson.M{"type": models.SiteContentType})
}

// GetPublishedContent returns the most recently updated non-draft revision.
// Every public read goes through here.
func (s *Store) GetPublishedContent(ctx context.Context) *models.SiteContent {
	return s.latest(ctx, bson.M{"type": models.SiteContentType, "is_draft": false})
}

// Exists reports whether any site content revision has been stored. Unlike
// the reads above it surfaces storage errors.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Read(), s.logger, "site content exists")
	defer cancel()

	var doc models.SiteContent
	err := s.c.FindOne(ctx, bson.M{"type": models.SiteContentType}, nil, &doc)
	if errors.Is(err, docstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Empty returns the document served when nothing has been stored.
func (s *Store) Empty() *models.SiteContent {
	return models.EmptySiteContent(s.instituteName)
}

func (s *Store) latest(ctx context.Context, filter bson.M) *models.SiteContent {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Read(), s.logger, "site content read")
	defer cancel()

	var doc models.SiteContent
	err := s.c.FindOne(ctx, filter, latestFirst, &doc)
	if errors.Is(err, docstore.ErrNotFound) {
		return s.Empty()
	}
	if err != nil {
		s.logger.Error("failed to load site content; serving empty content", zap.Error(err))
		return s.Empty()
	}
	doc.Normalize()
	return &doc
}

// SaveContent replaces the revision selected by isDraft with content,
// stamping updated_at, user and is_draft. It reports true only when a
// document was inserted or modified. The caller's value is not mutated.
func (s *Store) SaveContent(ctx context.Context, content *models.SiteContent, user string, isDraft bool) bool {
	if content == nil {
		s.logger.Warn("refusing to save nil site content", zap.String("user", user))
		return false
	}

	doc := content.Clone()
	doc.ID = primitive.NilObjectID
	doc.Type = models.SiteContentType
	now := s.now().UTC()
	doc.UpdatedAt = now.Truncate(time.Millisecond)
	doc.Revision = s.nextRevision(now, isDraft)
	doc.User = user
	doc.IsDraft = isDraft
	doc.Normalize()

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Write(), s.logger, "site content save")
	defer cancel()

	filter := bson.M{"type": models.SiteContentType, "is_draft": isDraft}
	res, err := s.c.ReplaceOne(ctx, filter, doc)
	if err != nil {
		s.logger.Error("failed to save site content",
			zap.String("user", user),
			zap.Bool("is_draft", isDraft),
			zap.Error(err))
		return false
	}
	if !res.Changed() {
		s.logger.Warn("site content save matched but modified nothing",
			zap.String("user", user),
			zap.Bool("is_draft", isDraft))
		return false
	}

	s.logger.Info("site content saved",
		zap.String("user", user),
		zap.Bool("is_draft", isDraft),
		zap.Int("courses", len(doc.Courses)),
		zap.Int("categories", len(doc.CourseCategories)),
		zap.Bool("inserted", res.Upserted > 0))
	return true
}

// nextRevision returns the clock in nanoseconds, raised past the last
// revision this store wrote to the other slot. A repeat save to the same
// slot keeps its revision so an identical save still modifies nothing.
func (s *Store) nextRevision(now time.Time, isDraft bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	rev := now.UnixNano()
	if rev <= s.lastRev {
		rev = s.lastRev
		if isDraft != s.lastDraft {
			rev++
		}
	}
	s.lastRev = rev
	s.lastDraft = isDraft
	return rev
}

// PublishDraft copies the current draft revision over the published one.
// Storage errors are reported as (false, nil), like SaveContent.
func (s *Store) PublishDraft(ctx context.Context, user string) (bool, error) {
	draft, published, err := s.revisions(ctx)
	if err != nil {
		return false, nil
	}
	if draft == nil {
		return false, ErrNoDraft
	}
	if published != nil && !draft.NewerThan(published) {
		return false, ErrNoDraft
	}
	return s.SaveContent(ctx, draft, user, false), nil
}

// revisions loads the draft and published documents; either is nil when
// absent.
func (s *Store) revisions(ctx context.Context) (draft, published *models.SiteContent, err error) {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Read(), s.logger, "site content revisions read")
	defer cancel()

	load := func(isDraft bool) (*models.SiteContent, error) {
		var doc models.SiteContent
		err := s.c.FindOne(ctx, bson.M{"type": models.SiteContentType, "is_draft": isDraft}, latestFirst, &doc)
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			s.logger.Error("failed to load site content revision", zap.Bool("is_draft", isDraft), zap.Error(err))
			return nil, err
		}
		return &doc, nil
	}

	if draft, err = load(true); err != nil || draft == nil {
		return nil, nil, err
	}
	if published, err = load(false); err != nil {
		return nil, nil, err
	}
	return draft, published, nil
}

// AddAuditLog appends an audit entry. Failures are logged and reported as
// false.
func (s *Store) AddAuditLog(ctx context.Context, action, user string, details map[string]any) bool {
	return s.AppendAudit(ctx, audit.Entry{
		Category: audit.CategoryAdmin,
		Action:   action,
		User:     user,
		Success:  true,
		Details:  details,
	})
}

// AppendAudit appends a fully populated audit entry.
func (s *Store) AppendAudit(ctx context.Context, e audit.Entry) bool {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC().Truncate(time.Millisecond)
	}
	if err := s.audit.Log(ctx, e); err != nil {
		s.logger.Error("failed to store audit entry",
			zap.String("action", e.Action),
			zap.String("user", e.User),
			zap.Error(err))
		return false
	}
	return true
}

// GetAuditLogs returns the most recent limit entries, newest first. Storage
// errors yield an empty list.
func (s *Store) GetAuditLogs(ctx context.Context, limit int64) []audit.Entry {
	return s.FindAuditLogs(ctx, audit.QueryFilter{Limit: limit})
}

// FindAuditLogs is GetAuditLogs narrowed by category, action and user.
func (s *Store) FindAuditLogs(ctx context.Context, f audit.QueryFilter) []audit.Entry {
	if f.Limit <= 0 {
		f.Limit = DefaultAuditLimit
	}
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Read(), s.logger, "audit log read")
	defer cancel()

	entries, err := s.audit.Query(ctx, f)
	if err != nil {
		s.logger.Error("failed to load audit entries", zap.Error(err))
		return []audit.Entry{}
	}
	return entries
}
