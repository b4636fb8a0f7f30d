// internal/app/features/leads/leads.go

// Package leads captures enquiries from the public site and lists them for
// admins.
package leads

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/stratacms/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratacms/internal/app/system/inputval"
	"github.com/dalemusser/stratacms/internal/app/system/jsonutil"
	"github.com/dalemusser/stratacms/internal/app/system/network"
	"github.com/dalemusser/stratacms/internal/app/system/normalize"
	"github.com/dalemusser/stratacms/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	leadBodyLimit = 16 << 10
	maxListLimit  = 500
)

// Store persists leads. *leadstore.Store implements it.
type Store interface {
	Create(ctx context.Context, lead models.Lead) (models.Lead, error)
	Recent(ctx context.Context, courseSlug string, limit int64) ([]models.Lead, error)
}

// PublishedReader returns the published site content.
type PublishedReader interface {
	GetPublishedContent(ctx context.Context) *models.SiteContent
}

// Notifier is told about each stored lead. *mailer.LeadNotifier implements it.
type Notifier interface {
	LeadReceived(lead models.Lead)
}

// Handler serves the lead endpoints.
type Handler struct {
	store      Store
	content    PublishedReader
	notifier   Notifier
	trustProxy bool
	logger     *zap.Logger
}

// NewHandler creates a leads Handler.
func NewHandler(store Store, content PublishedReader, trustProxy bool, logger *zap.Logger) *Handler {
	return &Handler{store: store, content: content, trustProxy: trustProxy, logger: logger}
}

// SetNotifier enables notifications for new leads.
func (h *Handler) SetNotifier(n Notifier) {
	h.notifier = n
}

// PublicRoutes mounts POST / for lead submission.
func PublicRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.Submit)
	return r
}

// AdminRoutes mounts GET / for lead listing behind requireAdmin.
func AdminRoutes(h *Handler, requireAdmin func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requireAdmin)
	r.Get("/", h.List)
	return r
}

// leadInput is the public submission form.
type leadInput struct {
	Name       string `json:"name" validate:"required,max=200" label:"Name"`
	Email      string `json:"email" validate:"required,email,max=254" label:"Email"`
	Phone      string `json:"phone" validate:"phone" label:"Phone"`
	CourseSlug string `json:"course_slug" validate:"slug" label:"Course"`
	Message    string `json:"message" validate:"max=4000" label:"Message"`
	Source     string `json:"source" validate:"max=200" label:"Source"`
	// Website is a honeypot; people leave it empty, form-filling bots don't.
	Website string `json:"website"`
}

func (in *leadInput) clean() {
	in.Name = htmlsanitize.StripTags(in.Name)
	in.Email = normalize.Email(in.Email)
	in.Phone = normalize.Phone(in.Phone)
	in.CourseSlug = normalize.Slug(in.CourseSlug)
	in.Message = htmlsanitize.StripTags(in.Message)
	in.Source = htmlsanitize.StripTags(in.Source)
}

// Submit handles POST /api/leads.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var in leadInput
	if err := jsonutil.DecodeLimit(r, &in, leadBodyLimit); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	if in.Website != "" {
		h.logger.Info("lead honeypot triggered", zap.String("ip", network.ClientIP(r, h.trustProxy)))
		// Pretend success so bots don't retry.
		jsonutil.Created(w, map[string]bool{"received": true})
		return
	}

	in.clean()
	if res := inputval.Validate(in); res.HasErrors() {
		jsonutil.ValidationError(w, res.Errors)
		return
	}

	if in.CourseSlug != "" && !h.isPublicCourse(r.Context(), in.CourseSlug) {
		jsonutil.ValidationError(w, []inputval.FieldError{{Field: "course_slug", Message: "Course is not offered."}})
		return
	}

	lead, err := h.store.Create(r.Context(), models.Lead{
		Name:       in.Name,
		Email:      in.Email,
		Phone:      in.Phone,
		CourseSlug: in.CourseSlug,
		Message:    in.Message,
		Source:     in.Source,
		IP:         network.ClientIP(r, h.trustProxy),
	})
	if err != nil {
		h.logger.Error("failed to store lead", zap.String("course", in.CourseSlug), zap.Error(err))
		jsonutil.InternalError(w, "failed to submit enquiry")
		return
	}

	h.logger.Info("lead received",
		zap.String("id", lead.ID.Hex()),
		zap.String("course", lead.CourseSlug),
		zap.String("source", lead.Source))
	if h.notifier != nil {
		h.notifier.LeadReceived(lead)
	}
	jsonutil.Created(w, map[string]any{"received": true, "id": lead.ID.Hex()})
}

func (h *Handler) isPublicCourse(ctx context.Context, slug string) bool {
	c := h.content.GetPublishedContent(ctx)
	i := c.CourseIndex(slug)
	return i >= 0 && c.Courses[i].Visible
}

// List handles GET /api/admin/leads?limit=N&course=slug, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var limit int64 = 100
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n <= 0 {
			jsonutil.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	out, err := h.store.Recent(r.Context(), normalize.Slug(r.URL.Query().Get("course")), limit)
	if err != nil {
		h.logger.Error("failed to list leads", zap.Error(err))
		jsonutil.InternalError(w, "failed to list leads")
		return
	}
	jsonutil.OK(w, map[string]any{"leads": out, "limit": limit})
}
