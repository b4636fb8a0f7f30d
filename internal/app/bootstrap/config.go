// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/stratacms/internal/app/system/auth"
	"github.com/dalemusser/stratacms/internal/app/system/timeouts"
	"github.com/dalemusser/stratacms/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
const EnvVarPrefix = "STRATACMS"

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, admin_password, etc.
//   - Environment variables: STRATACMS_MONGO_URI, STRATACMS_ADMIN_PASSWORD, etc.
//   - Command-line flags: --mongo_uri, --admin_password, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "stratacms", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Admin authentication
	{Name: "admin_password", Default: "", Desc: "Admin secret (plain text or bcrypt hash)"},
	{Name: "admin_user", Default: auth.DefaultAdminUser, Desc: "Identity recorded for admin actions"},
	{Name: "token_secret", Default: "", Desc: "HMAC signing key for admin tokens (32+ chars)"},
	{Name: "token_ttl", Default: "8h", Desc: "Admin token lifetime (e.g., 8h, 30m)"},

	// Rate limiting configuration
	{Name: "rate_limit_enabled", Default: true, Desc: "Enable rate limiting for login attempts"},
	{Name: "rate_limit_login_attempts", Default: 5, Desc: "Max failed login attempts before lockout"},
	{Name: "rate_limit_login_window", Default: "15m", Desc: "Time window for counting failed attempts"},
	{Name: "rate_limit_login_lockout", Default: "15m", Desc: "Lockout duration after exceeding limit"},
	{Name: "trust_proxy", Default: false, Desc: "Use X-Forwarded-For/X-Real-IP for client IPs"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "default_institute_name", Default: models.DefaultInstituteName, Desc: "Institute name for the empty site document"},
	{Name: "public_cors_origins", Default: "*", Desc: "Comma-separated origins allowed on the public API ('*' for any)"},
	{Name: "integrity_check_interval", Default: "1h", Desc: "How often to scan for dangling category references (0 disables)"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (empty disables email)"},
	{Name: "mail_smtp_port", Default: 587, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@example.com", Desc: "From email address"},
	{Name: "mail_from_name", Default: "StrataCMS", Desc: "From display name"},
	{Name: "lead_notify_email", Default: "", Desc: "Address notified of new leads (empty disables)"},

	// Operation timeouts
	{Name: "timeout_ping", Default: "2s", Desc: "Health check ping timeout"},
	{Name: "timeout_read", Default: "5s", Desc: "Database read timeout"},
	{Name: "timeout_write", Default: "10s", Desc: "Database write timeout"},
	{Name: "timeout_notify", Default: "30s", Desc: "Outbound email timeout"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, STRATACMS_* for app) and flags,
// merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		// Admin authentication
		AdminPassword: appValues.String("admin_password"),
		AdminUser:     appValues.String("admin_user"),
		TokenSecret:   appValues.String("token_secret"),
		TokenTTL:      appValues.Duration("token_ttl", auth.DefaultTokenTTL),

		// Rate limiting
		RateLimitEnabled:       appValues.Bool("rate_limit_enabled"),
		RateLimitLoginAttempts: appValues.Int("rate_limit_login_attempts"),
		RateLimitLoginWindow:   appValues.Duration("rate_limit_login_window", 15*time.Minute),
		RateLimitLoginLockout:  appValues.Duration("rate_limit_login_lockout", 15*time.Minute),
		TrustProxy:             appValues.Bool("trust_proxy"),

		// Audit logging
		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		DefaultInstituteName:   appValues.String("default_institute_name"),
		PublicCORSOrigins:      appValues.String("public_cors_origins"),
		IntegrityCheckInterval: appValues.Duration("integrity_check_interval", time.Hour),

		// Email/SMTP
		MailSMTPHost:    appValues.String("mail_smtp_host"),
		MailSMTPPort:    appValues.Int("mail_smtp_port"),
		MailSMTPUser:    appValues.String("mail_smtp_user"),
		MailSMTPPass:    appValues.String("mail_smtp_pass"),
		MailFrom:        appValues.String("mail_from"),
		MailFromName:    appValues.String("mail_from_name"),
		LeadNotifyEmail: appValues.String("lead_notify_email"),

		// Timeouts
		TimeoutPing:   appValues.Duration("timeout_ping", timeouts.DefaultPing),
		TimeoutRead:   appValues.Duration("timeout_read", timeouts.DefaultRead),
		TimeoutWrite:  appValues.Duration("timeout_write", timeouts.DefaultWrite),
		TimeoutNotify: appValues.Duration("timeout_notify", timeouts.DefaultNotify),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if err := validateAuthConfig(coreCfg.Env, appCfg); err != nil {
		logger.Error("invalid admin auth configuration", zap.Error(err))
		return err
	}
	if appCfg.RateLimitEnabled && appCfg.RateLimitLoginAttempts <= 0 {
		return errors.New("rate_limit_login_attempts must be positive when rate limiting is enabled")
	}
	return nil
}

// validateAuthConfig rejects a missing admin password or token secret, and in
// prod also a placeholder token secret.
func validateAuthConfig(env string, appCfg AppConfig) error {
	if appCfg.AdminPassword == "" {
		return errors.New("admin_password is required")
	}
	if appCfg.TokenSecret == "" {
		return errors.New("token_secret is required")
	}
	if env == "prod" && auth.IsPlaceholderSecret(appCfg.TokenSecret) {
		return errors.New("token_secret must be changed from its placeholder value in prod")
	}
	return nil
}
