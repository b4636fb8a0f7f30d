// internal/app/system/auth/middleware.go
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/stratacms/internal/app/system/jsonutil"
	"go.uber.org/zap"
)

type ctxKey struct{}

// WithAdmin returns a context carrying the admin identity.
func WithAdmin(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

// AdminFromContext returns the admin identity set by RequireAdmin.
func AdminFromContext(ctx context.Context) (string, bool) {
	u, ok := ctx.Value(ctxKey{}).(string)
	return u, ok && u != ""
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	tok := strings.TrimSpace(parts[1])
	return tok, tok != ""
}

// RequireAdmin rejects requests without a valid admin bearer token with a
// 401 JSON error.
func (g *Gate) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := BearerToken(r)
		if !ok {
			g.logger.Debug("admin request rejected: missing bearer token",
				zap.String("path", r.URL.Path))
			w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
			jsonutil.Unauthorized(w, "missing bearer token")
			return
		}

		claims, err := g.Validate(tok)
		if err != nil {
			g.logger.Info("admin request rejected: invalid token",
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr))
			w.Header().Set("WWW-Authenticate", `Bearer realm="admin", error="invalid_token"`)
			jsonutil.Unauthorized(w, err.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(WithAdmin(r.Context(), claims.Subject)))
	})
}
