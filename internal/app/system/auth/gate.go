// internal/app/system/auth/gate.go

// Package auth gates admin writes behind a single shared password.
//
// A successful Authenticate issues a short-lived HS256 JWT. Handlers behind
// RequireAdmin can read the admin identity with AdminFromContext. Tokens are
// stateless; there is no revocation list, so rotating the token secret is
// the only way to invalidate issued tokens early.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/stratacms/internal/app/system/authutil"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrInvalidCredentials is returned by Authenticate on a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned by Validate for any unusable token.
	ErrInvalidToken = errors.New("invalid or expired token")
)

const (
	DefaultTokenTTL  = 8 * time.Hour
	DefaultAdminUser = "admin"
	DefaultIssuer    = "stratacms"

	minSecretLength = 32
)

// GateConfig configures a Gate.
type GateConfig struct {
	// AdminPassword is the shared secret, plain text or a bcrypt hash.
	AdminPassword string
	// TokenSecret signs issued tokens.
	TokenSecret string
	TokenTTL    time.Duration
	// AdminUser is the token subject and the user recorded on writes.
	AdminUser string
	Issuer    string
}

// Token is what a successful login returns.
type Token struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Claims are the JWT claims of an admin token.
type Claims struct {
	jwt.RegisteredClaims
}

// Gate issues and validates admin tokens.
type Gate struct {
	password string
	secret   []byte
	ttl      time.Duration
	user     string
	issuer   string
	logger   *zap.Logger
	now      func() time.Time
}

// NewGate validates cfg and creates a Gate.
func NewGate(cfg GateConfig, logger *zap.Logger) (*Gate, error) {
	if cfg.AdminPassword == "" {
		return nil, errors.New("auth: admin password is not configured")
	}
	if cfg.TokenSecret == "" {
		return nil, errors.New("auth: token secret is not configured")
	}
	if len(cfg.TokenSecret) < minSecretLength {
		logger.Warn("token secret is shorter than recommended",
			zap.Int("length", len(cfg.TokenSecret)),
			zap.Int("recommended", minSecretLength))
	}
	if IsPlaceholderSecret(cfg.TokenSecret) {
		logger.Warn("token secret looks like a placeholder; set a random value in production")
	}
	if !authutil.IsBcryptHash(cfg.AdminPassword) {
		if err := authutil.ValidatePassword(cfg.AdminPassword); err != nil {
			logger.Warn("weak admin password", zap.Error(err))
		}
	}

	g := &Gate{
		password: cfg.AdminPassword,
		secret:   []byte(cfg.TokenSecret),
		ttl:      cfg.TokenTTL,
		user:     cfg.AdminUser,
		issuer:   cfg.Issuer,
		logger:   logger,
		now:      time.Now,
	}
	if g.ttl <= 0 {
		g.ttl = DefaultTokenTTL
	}
	if g.user == "" {
		g.user = DefaultAdminUser
	}
	if g.issuer == "" {
		g.issuer = DefaultIssuer
	}
	return g, nil
}

// AdminUser returns the identity carried by issued tokens.
func (g *Gate) AdminUser() string {
	return g.user
}

// Authenticate checks password against the configured secret and issues a
// token on success.
func (g *Gate) Authenticate(password string) (Token, error) {
	if !authutil.MatchSecret(password, g.password) {
		return Token{}, ErrInvalidCredentials
	}

	now := g.now().UTC().Truncate(time.Second)
	exp := now.Add(g.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    g.issuer,
			Subject:   g.user,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{Value: signed, ExpiresAt: exp}, nil
}

// Validate parses and verifies a token, returning its claims.
func (g *Gate) Validate(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return g.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(g.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		g.logger.Debug("admin token rejected", zap.Error(err))
		return nil, ErrInvalidToken
	}
	if claims.Subject != g.user {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IsPlaceholderSecret reports whether a configured secret looks like a
// default or example value.
func IsPlaceholderSecret(s string) bool {
	lower := strings.ToLower(s)
	for _, p := range []string{"dev-only", "change-me", "changeme", "placeholder", "example", "insecure", "secret123"} {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
