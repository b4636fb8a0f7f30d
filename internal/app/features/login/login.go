// internal/app/features/login/login.go
package login

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/stratacms/internal/app/system/auditlog"
	"github.com/dalemusser/stratacms/internal/app/system/auth"
	"github.com/dalemusser/stratacms/internal/app/system/jsonutil"
	"github.com/dalemusser/stratacms/internal/app/system/network"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// loginBodyLimit caps the login request body.
const loginBodyLimit = 4 << 10

// Authenticator checks the admin password and issues tokens.
type Authenticator interface {
	Authenticate(password string) (auth.Token, error)
	AdminUser() string
}

// Limiter counts failed logins per client. *ratelimit.Store implements it.
type Limiter interface {
	CheckAllowed(ctx context.Context, key string) (allowed bool, remaining int, lockedUntil *time.Time)
	RecordFailure(ctx context.Context, key string) (lockedOut bool, lockedUntil *time.Time)
	ClearOnSuccess(ctx context.Context, key string) error
}

// Handler serves the admin login endpoint.
type Handler struct {
	gate       Authenticator
	limiter    Limiter // nil if rate limiting disabled
	audit      *auditlog.Logger
	trustProxy bool
	logger     *zap.Logger
	now        func() time.Time
}

// NewHandler creates a login Handler. limiter can be nil to disable rate
// limiting. When trustProxy is false the limiter keys on the socket address
// and ignores X-Forwarded-For.
func NewHandler(gate Authenticator, limiter Limiter, audit *auditlog.Logger, trustProxy bool, logger *zap.Logger) *Handler {
	return &Handler{
		gate:       gate,
		limiter:    limiter,
		audit:      audit,
		trustProxy: trustProxy,
		logger:     logger,
		now:        time.Now,
	}
}

// Routes returns a router with the login endpoint mounted at "/".
//
// When mounted at /api/admin/login:
//   - POST /api/admin/login {"password": "..."} -> {"token": "...", "expires_at": "..."}
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.Login)
	return r
}

type loginRequest struct {
	Password string `json:"password"`
}

// Login exchanges the admin password for a bearer token.
//
// Responses: 200 with the token, 400 for a missing password, 401 for a wrong
// one, 429 while the client is locked out.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := jsonutil.DecodeLimit(r, &in, loginBodyLimit); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	if in.Password == "" {
		jsonutil.BadRequest(w, "password is required")
		return
	}

	ctx := r.Context()
	key := network.ClientIP(r, h.trustProxy)

	// Check rate limit before processing
	remaining := -1
	if h.limiter != nil {
		allowed, left, lockedUntil := h.limiter.CheckAllowed(ctx, key)
		if !allowed {
			h.audit.LoginRateLimited(ctx, r)
			h.tooManyAttempts(w, lockedUntil)
			return
		}
		remaining = left
	}

	token, err := h.gate.Authenticate(in.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			h.logger.Error("admin login failed", zap.Error(err))
			jsonutil.InternalError(w, "login failed")
			return
		}
		if h.limiter != nil {
			lockedOut, lockedUntil := h.limiter.RecordFailure(ctx, key)
			if lockedOut {
				h.audit.LoginRateLimited(ctx, r)
				h.tooManyAttempts(w, lockedUntil)
				return
			}
			if remaining > 0 {
				remaining--
			}
		}
		h.audit.LoginFailed(ctx, r, remaining)
		jsonutil.Unauthorized(w, "invalid credentials")
		return
	}

	// Clear rate limit on successful login
	if h.limiter != nil {
		if err := h.limiter.ClearOnSuccess(ctx, key); err != nil {
			h.logger.Warn("failed to clear login attempts", zap.String("key", key), zap.Error(err))
		}
	}

	h.audit.LoginSuccess(ctx, r, h.gate.AdminUser())
	jsonutil.OK(w, token)
}

func (h *Handler) tooManyAttempts(w http.ResponseWriter, lockedUntil *time.Time) {
	msg := "Too many failed login attempts. Please try again later."
	if lockedUntil != nil {
		wait := lockedUntil.Sub(h.now())
		if wait < time.Second {
			wait = time.Second
		}
		w.Header().Set("Retry-After", strconv.Itoa(int(wait.Seconds()+0.5)))
		if wait > time.Minute {
			msg = fmt.Sprintf("Too many failed login attempts. Please try again in %d minute(s).", int(wait.Minutes())+1)
		} else {
			msg = fmt.Sprintf("Too many failed login attempts. Please try again in %d second(s).", int(wait.Seconds())+1)
		}
	}
	jsonutil.TooManyRequests(w, msg)
}
