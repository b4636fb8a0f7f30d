// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dalemusser/stratacms/internal/app/store/audit"
	"github.com/dalemusser/stratacms/internal/app/system/network"
	"go.uber.org/zap"
)

// Destinations for a category of audit entries.
const (
	DestAll = "all" // MongoDB + zap
	DestDB  = "db"  // MongoDB only
	DestLog = "log" // zap only
	DestOff = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging of admin login attempts.
	Auth string
	// Admin controls logging of content-mutating admin actions.
	Admin string
	// TrustProxy records the X-Forwarded-For / X-Real-IP address instead of
	// the peer address.
	TrustProxy bool
}

// Sink stores audit entries. The content store implements it.
type Sink interface {
	AppendAudit(ctx context.Context, e audit.Entry) bool
}

// Logger records audit entries to the sink and/or zap according to Config.
// A nil *Logger is a no-op.
type Logger struct {
	sink   Sink
	zapLog *zap.Logger
	config Config
}

// New creates an audit Logger.
func New(sink Sink, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{sink: sink, zapLog: zapLog, config: config}
}

func (l *Logger) destination(category string) string {
	switch category {
	case audit.CategoryAuth:
		return normalizeDest(l.config.Auth)
	case audit.CategoryAdmin:
		return normalizeDest(l.config.Admin)
	}
	return DestAll
}

func normalizeDest(s string) string {
	switch s {
	case DestAll, DestDB, DestLog, DestOff:
		return s
	}
	return DestAll
}

func (l *Logger) logToZap(e audit.Entry) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", e.Category),
		zap.String("action", e.Action),
		zap.String("user", e.User),
		zap.Bool("success", e.Success),
	}
	if e.IP != "" {
		fields = append(fields, zap.String("ip", e.IP))
	}
	if e.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", e.FailureReason))
	}
	if len(e.Details) > 0 {
		fields = append(fields, zap.Any("details", e.Details))
	}

	if e.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records e. It reports false only when the entry was meant for the
// database and the sink failed to store it.
func (l *Logger) Log(ctx context.Context, e audit.Entry) bool {
	if l == nil {
		return true
	}
	dest := l.destination(e.Category)
	if dest == DestOff {
		return true
	}
	if dest == DestAll || dest == DestLog {
		l.logToZap(e)
	}
	if dest == DestAll || dest == DestDB {
		return l.sink.AppendAudit(ctx, e)
	}
	return true
}

func (l *Logger) fromRequest(r *http.Request, e audit.Entry) audit.Entry {
	if r != nil {
		e.IP = network.ClientIP(r, l != nil && l.config.TrustProxy)
		e.UserAgent = r.UserAgent()
	}
	return e
}

// --- Authentication ---

// LoginSuccess records a successful admin login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, user string) {
	l.Log(ctx, l.fromRequest(r, audit.Entry{
		Category: audit.CategoryAuth,
		Action:   audit.ActionLoginSuccess,
		User:     user,
		Success:  true,
	}))
}

// LoginFailed records a rejected password.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, remaining int) {
	l.Log(ctx, l.fromRequest(r, audit.Entry{
		Category:      audit.CategoryAuth,
		Action:        audit.ActionLoginFailed,
		FailureReason: "invalid credentials",
		Details:       map[string]any{"remaining_attempts": remaining},
	}))
}

// LoginRateLimited records a login refused because the client is locked out.
func (l *Logger) LoginRateLimited(ctx context.Context, r *http.Request) {
	l.Log(ctx, l.fromRequest(r, audit.Entry{
		Category:      audit.CategoryAuth,
		Action:        audit.ActionLoginRateLimited,
		FailureReason: "too many failed attempts",
	}))
}

// --- Content administration ---

// ContentSaved records a full content replace.
func (l *Logger) ContentSaved(ctx context.Context, r *http.Request, user string, isDraft bool, courses, categories int) bool {
	return l.Log(ctx, l.fromRequest(r, audit.Entry{
		Category: audit.CategoryAdmin,
		Action:   audit.ActionContentSaved,
		User:     user,
		Success:  true,
		Details: map[string]any{
			"is_draft":   isDraft,
			"courses":    courses,
			"categories": categories,
		},
	}))
}

// ContentPublished records a draft being published.
func (l *Logger) ContentPublished(ctx context.Context, r *http.Request, user string) bool {
	return l.Log(ctx, l.fromRequest(r, audit.Entry{
		Category: audit.CategoryAdmin,
		Action:   audit.ActionContentPublished,
		User:     user,
		Success:  true,
	}))
}

// CategoryDeleted records a category deletion and the courses it touched.
func (l *Logger) CategoryDeleted(ctx context.Context, r *http.Request, user, slug string, affected []string) bool {
	return l.Log(ctx, l.fromRequest(r, audit.Entry{
		Category: audit.CategoryAdmin,
		Action:   audit.ActionCategoryDeleted,
		User:     user,
		Success:  true,
		Details: map[string]any{
			"category":         slug,
			"affected_courses": affected,
			"affected_count":   len(affected),
		},
	}))
}

// CategoriesAssigned records a course's category set being replaced.
func (l *Logger) CategoriesAssigned(ctx context.Context, r *http.Request, user, courseSlug string, categories []string) bool {
	return l.Log(ctx, l.fromRequest(r, audit.Entry{
		Category: audit.CategoryAdmin,
		Action:   audit.ActionCategoriesAssigned,
		User:     user,
		Success:  true,
		Details: map[string]any{
			"course":     courseSlug,
			"categories": categories,
		},
	}))
}

// Describe is a short human-readable summary of an entry.
func Describe(e audit.Entry) string {
	switch e.Action {
	case audit.ActionCategoryDeleted:
		return fmt.Sprintf("%s deleted category %v", e.User, e.Details["category"])
	case audit.ActionCategoriesAssigned:
		return fmt.Sprintf("%s set categories of %v", e.User, e.Details["course"])
	case audit.ActionContentPublished:
		return e.User + " published the draft"
	case audit.ActionContentSaved:
		if d, _ := e.Details["is_draft"].(bool); d {
			return e.User + " saved a draft"
		}
		return e.User + " saved content"
	}
	return e.Action
}
