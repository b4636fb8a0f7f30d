// Package adminapi is the authenticated JSON API the admin panel uses to
// edit site content.
//
// Every mutating endpoint writes through the content store and records an
// audit entry attributed to the token subject.
package adminapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/dalemusser/stratacms/internal/app/store/audit"
	contentstore "github.com/dalemusser/stratacms/internal/app/store/content"
	"github.com/dalemusser/stratacms/internal/app/system/auditlog"
	"github.com/dalemusser/stratacms/internal/app/system/auth"
	"github.com/dalemusser/stratacms/internal/app/system/catalog"
	"github.com/dalemusser/stratacms/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratacms/internal/app/system/jsonutil"
	"github.com/dalemusser/stratacms/internal/app/system/normalize"
	"github.com/dalemusser/stratacms/internal/app/system/tasks"
	"github.com/dalemusser/stratacms/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MaxAuditLimit caps GET /audit-logs.
const MaxAuditLimit = 500

const errSaveFailed = "failed to save content"

// ContentStore is the content store as the admin API uses it.
type ContentStore interface {
	GetContent(ctx context.Context) *models.SiteContent
	GetPublishedContent(ctx context.Context) *models.SiteContent
	SaveContent(ctx context.Context, content *models.SiteContent, user string, isDraft bool) bool
	PublishDraft(ctx context.Context, user string) (bool, error)
	FindAuditLogs(ctx context.Context, f audit.QueryFilter) []audit.Entry
}

// CategoryMaintainer applies category edits. *catalog.Maintainer implements it.
type CategoryMaintainer interface {
	DeleteCategory(ctx context.Context, slug, user string) (catalog.DeleteResult, error)
	AssignCategories(ctx context.Context, courseSlug string, categorySlugs []string, user string) (bool, error)
}

// Handler serves the admin content endpoints.
type Handler struct {
	content ContentStore
	catalog CategoryMaintainer
	audit   *auditlog.Logger
	logger  *zap.Logger
}

// NewHandler creates an admin API Handler.
func NewHandler(content ContentStore, maintainer CategoryMaintainer, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		content: content,
		catalog: maintainer,
		audit:   audit,
		logger:  logger,
	}
}

// SaveResponse is returned by a successful content save.
type SaveResponse struct {
	Saved   bool `json:"saved"`
	IsDraft bool `json:"is_draft"`
}

// GetContent handles GET /content: the latest revision, draft or not.
func (h *Handler) GetContent(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, h.content.GetContent(r.Context()))
}

// PutContent handles PUT /content?draft=true|false. The body is the whole
// document; it replaces the selected revision after sanitising HTML fields
// and checking referential integrity.
func (h *Handler) PutContent(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.AdminFromContext(r.Context())
	if !ok {
		jsonutil.Unauthorized(w, "not authenticated")
		return
	}

	isDraft, err := parseBool(r.URL.Query().Get("draft"))
	if err != nil {
		jsonutil.BadRequest(w, "draft must be true or false")
		return
	}

	var in models.SiteContent
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	in.Normalize()
	htmlsanitize.SanitizeContent(&in)

	if err := catalog.Validate(&in); err != nil {
		var ve *catalog.ValidationError
		if errors.As(err, &ve) {
			jsonutil.ValidationError(w, ve.Problems)
			return
		}
		jsonutil.BadRequest(w, err.Error())
		return
	}

	if !h.content.SaveContent(r.Context(), &in, user, isDraft) {
		jsonutil.InternalError(w, errSaveFailed)
		return
	}
	h.audit.ContentSaved(r.Context(), r, user, isDraft, len(in.Courses), len(in.CourseCategories))
	jsonutil.OK(w, SaveResponse{Saved: true, IsDraft: isDraft})
}

// Publish handles POST /content/publish.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.AdminFromContext(r.Context())
	if !ok {
		jsonutil.Unauthorized(w, "not authenticated")
		return
	}

	published, err := h.content.PublishDraft(r.Context(), user)
	if errors.Is(err, contentstore.ErrNoDraft) {
		jsonutil.Conflict(w, err.Error())
		return
	}
	if err != nil || !published {
		jsonutil.InternalError(w, "failed to publish draft")
		return
	}
	h.audit.ContentPublished(r.Context(), r, user)
	jsonutil.OK(w, map[string]bool{"published": true})
}

// DeleteCategory handles DELETE /categories/{slug}.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.AdminFromContext(r.Context())
	if !ok {
		jsonutil.Unauthorized(w, "not authenticated")
		return
	}
	slug := chi.URLParam(r, "slug")

	res, err := h.catalog.DeleteCategory(r.Context(), slug, user)
	if err != nil {
		h.writeCatalogError(w, err)
		return
	}
	if !res.Removed {
		jsonutil.InternalError(w, errSaveFailed)
		return
	}
	h.audit.CategoryDeleted(r.Context(), r, user, slug, res.AffectedCourseSlugs)
	jsonutil.OK(w, res)
}

type assignRequest struct {
	Categories []string `json:"categories"`
}

// AssignCategories handles PUT /courses/{slug}/categories with
// {"categories": ["slug", ...]}. An empty list clears the course's
// categories.
func (h *Handler) AssignCategories(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.AdminFromContext(r.Context())
	if !ok {
		jsonutil.Unauthorized(w, "not authenticated")
		return
	}
	courseSlug := chi.URLParam(r, "slug")

	var in assignRequest
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	if in.Categories == nil {
		jsonutil.BadRequest(w, "categories is required")
		return
	}

	saved, err := h.catalog.AssignCategories(r.Context(), courseSlug, in.Categories, user)
	if err != nil {
		h.writeCatalogError(w, err)
		return
	}
	if !saved {
		jsonutil.InternalError(w, errSaveFailed)
		return
	}
	h.audit.CategoriesAssigned(r.Context(), r, user, courseSlug, in.Categories)
	jsonutil.OK(w, map[string]any{"course_slug": courseSlug, "saved": true})
}

// AuditLogs handles GET /audit-logs?limit=N, newest first. The optional
// category, action and user parameters match exactly.
func (h *Handler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := int64(contentstore.DefaultAuditLimit)
	if s := q.Get("limit"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n <= 0 {
			jsonutil.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = min(n, MaxAuditLimit)
	}

	entries := h.content.FindAuditLogs(r.Context(), audit.QueryFilter{
		Category: normalize.QueryParam(q.Get("category")),
		Action:   normalize.QueryParam(q.Get("action")),
		User:     normalize.QueryParam(q.Get("user")),
		Limit:    limit,
	})
	jsonutil.OK(w, map[string]any{"entries": entries, "limit": limit})
}

// Integrity handles GET /integrity: dangling references and other
// referential problems in the published and draft revisions.
func (h *Handler) Integrity(w http.ResponseWriter, r *http.Request) {
	rep := tasks.CheckIntegrity(r.Context(), h.content)
	jsonutil.OK(w, map[string]any{
		"ok":               rep.OK(),
		"draft_pending":    rep.DraftPending,
		"published":        nonNil(rep.Published),
		"draft":            nonNil(rep.Draft),
		"published_issues": nonNilStrings(rep.PublishProblems),
		"draft_issues":     nonNilStrings(rep.DraftProblems),
	})
}

func (h *Handler) writeCatalogError(w http.ResponseWriter, err error) {
	var nf *catalog.NotFoundError
	var ve *catalog.ValidationError
	switch {
	case errors.As(err, &nf):
		jsonutil.NotFound(w, nf.Error())
	case errors.As(err, &ve):
		jsonutil.ValidationError(w, ve.Problems)
	case errors.Is(err, catalog.ErrUnavailable):
		h.logger.Error("catalog operation failed", zap.Error(err))
		jsonutil.Error(w, http.StatusServiceUnavailable, "content store unavailable")
	default:
		h.logger.Error("catalog operation failed", zap.Error(err))
		jsonutil.InternalError(w, errSaveFailed)
	}
}

func parseBool(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}

func nonNil(d []catalog.DanglingReference) []catalog.DanglingReference {
	if d == nil {
		return []catalog.DanglingReference{}
	}
	return d
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
