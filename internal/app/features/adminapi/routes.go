package adminapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns a router with the admin content endpoints behind
// requireAdmin.
//
// When mounted at /api/admin:
//   - GET    /api/admin/content
//   - PUT    /api/admin/content?draft=true|false
//   - POST   /api/admin/content/publish
//   - DELETE /api/admin/categories/{slug}
//   - PUT    /api/admin/courses/{slug}/categories
//   - GET    /api/admin/audit-logs?limit=N&category=&action=&user=
//   - GET    /api/admin/integrity
func Routes(h *Handler, requireAdmin func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requireAdmin)

	r.Get("/content", h.GetContent)
	r.Put("/content", h.PutContent)
	r.Post("/content/publish", h.Publish)
	r.Delete("/categories/{slug}", h.DeleteCategory)
	r.Put("/courses/{slug}/categories", h.AssignCategories)
	r.Get("/audit-logs", h.AuditLogs)
	r.Get("/integrity", h.Integrity)
	return r
}
