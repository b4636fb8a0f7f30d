// Package contentapi serves the published site content to the public
// website.
//
// Endpoints (mounted at /api):
//   - GET /api/content               - whole published document
//   - GET /api/courses               - visible courses (?category=, ?featured=true)
//   - GET /api/courses/{slug}        - one visible course with its categories
//   - GET /api/categories            - visible categories, ordered
//
// Only the published revision is ever read. Hidden courses and categories
// are removed, and visible courses lose references to hidden categories.
package contentapi

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/dalemusser/stratacms/internal/app/system/jsonutil"
	"github.com/dalemusser/stratacms/internal/app/system/normalize"
	"github.com/dalemusser/stratacms/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PublishedReader returns the published revision. It never fails.
type PublishedReader interface {
	GetPublishedContent(ctx context.Context) *models.SiteContent
}

// Handler serves the public content endpoints.
type Handler struct {
	content PublishedReader
	logger  *zap.Logger
}

// NewHandler creates a public content Handler.
func NewHandler(content PublishedReader, logger *zap.Logger) *Handler {
	return &Handler{content: content, logger: logger}
}

// PublicContent is the published document as the website sees it.
type PublicContent struct {
	Courses          []models.Course            `json:"courses"`
	CourseCategories map[string]models.Category `json:"courseCategories"`
	Institute        models.Section             `json:"institute,omitempty"`
	LearningPaths    []models.Section           `json:"learningPaths,omitempty"`
	Blog             models.Section             `json:"blog,omitempty"`
	Meta             models.Section             `json:"meta,omitempty"`
	UpdatedAt        *time.Time                 `json:"updated_at,omitempty"`
}

// CategoryView is a visible category with the number of visible courses in it.
type CategoryView struct {
	models.Category
	CourseCount int `json:"course_count"`
}

// CourseDetail is a course with its visible categories resolved.
type CourseDetail struct {
	Course     models.Course     `json:"course"`
	Categories []models.Category `json:"categories"`
}

// Routes returns a router with the public content endpoints.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/content", h.Content)
	r.Get("/courses", h.Courses)
	r.Get("/courses/{slug}", h.Course)
	r.Get("/categories", h.Categories)
	return r
}

// Project strips everything the public must not see from c.
func Project(c *models.SiteContent) PublicContent {
	out := PublicContent{
		Courses:          []models.Course{},
		CourseCategories: map[string]models.Category{},
		Institute:        c.Institute,
		LearningPaths:    c.LearningPaths,
		Blog:             c.Blog,
		Meta:             c.Meta,
	}
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		out.UpdatedAt = &t
	}

	for slug, cat := range c.CourseCategories {
		if cat.Visible {
			out.CourseCategories[slug] = cat
		}
	}
	for _, course := range c.Courses {
		if !course.Visible {
			continue
		}
		cats := make([]string, 0, len(course.Categories))
		for _, s := range course.Categories {
			if _, ok := out.CourseCategories[s]; ok {
				cats = append(cats, s)
			}
		}
		course.Categories = cats
		out.Courses = append(out.Courses, course)
	}
	return out
}

// Content handles GET /content.
func (h *Handler) Content(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, Project(h.content.GetPublishedContent(r.Context())))
}

// Courses handles GET /courses.
func (h *Handler) Courses(w http.ResponseWriter, r *http.Request) {
	pc := Project(h.content.GetPublishedContent(r.Context()))

	category := normalize.QueryParam(r.URL.Query().Get("category"))
	featuredOnly := r.URL.Query().Get("featured") == "true"

	courses := make([]models.Course, 0, len(pc.Courses))
	for _, c := range pc.Courses {
		if category != "" && !c.HasCategory(category) {
			continue
		}
		if featuredOnly && !c.Featured {
			continue
		}
		courses = append(courses, c)
	}
	jsonutil.OK(w, map[string]any{"courses": courses})
}

// Course handles GET /courses/{slug}.
func (h *Handler) Course(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	pc := Project(h.content.GetPublishedContent(r.Context()))

	for _, c := range pc.Courses {
		if c.Slug != slug {
			continue
		}
		detail := CourseDetail{Course: c, Categories: make([]models.Category, 0, len(c.Categories))}
		for _, s := range c.Categories {
			detail.Categories = append(detail.Categories, pc.CourseCategories[s])
		}
		jsonutil.OK(w, detail)
		return
	}
	jsonutil.NotFound(w, "course not found")
}

// Categories handles GET /categories. Categories are ordered by their order
// weight, then name.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	pc := Project(h.content.GetPublishedContent(r.Context()))

	counts := make(map[string]int, len(pc.CourseCategories))
	for _, c := range pc.Courses {
		for _, s := range c.Categories {
			counts[s]++
		}
	}

	out := make([]CategoryView, 0, len(pc.CourseCategories))
	for slug, cat := range pc.CourseCategories {
		out = append(out, CategoryView{Category: cat, CourseCount: counts[slug]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Slug < out[j].Slug
	})
	jsonutil.OK(w, map[string]any{"categories": out})
}
