// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, logging, CORS for the admin surface,
// timeouts); everything specific to the CMS lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// Admin authentication
	AdminPassword string        // Plain secret or bcrypt hash
	AdminUser     string        // Identity recorded in tokens and audit entries
	TokenSecret   string        // HMAC key for admin tokens
	TokenTTL      time.Duration // Admin token lifetime (default: 8h)

	// Rate limiting configuration
	RateLimitEnabled       bool          // Enable rate limiting for login attempts (default: true)
	RateLimitLoginAttempts int           // Max failed login attempts before lockout (default: 5)
	RateLimitLoginWindow   time.Duration // Time window for counting failed attempts (default: 15m)
	RateLimitLoginLockout  time.Duration // Lockout duration after exceeding limit (default: 15m)

	// TrustProxy makes the login limiter and lead capture key on
	// X-Forwarded-For / X-Real-IP. Only enable behind a proxy that sets them.
	TrustProxy bool

	// Audit logging configuration
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	AuditLogAuth  string // Login events
	AuditLogAdmin string // Content saves, publishes, category maintenance

	// Content defaults
	DefaultInstituteName string // Institute name used in the empty document

	// Public API
	PublicCORSOrigins string // Comma-separated allowed origins for /api ("*" or empty allows all)

	// Background jobs
	IntegrityCheckInterval time.Duration // 0 disables the integrity check job

	// Email/SMTP configuration (lead notifications)
	MailSMTPHost    string // SMTP server host; empty disables email
	MailSMTPPort    int    // SMTP server port (e.g., 1025 for Mailpit, 587 for SES)
	MailSMTPUser    string // SMTP username (empty for Mailpit)
	MailSMTPPass    string // SMTP password
	MailFrom        string // From email address (e.g., noreply@example.com)
	MailFromName    string // From display name
	LeadNotifyEmail string // Recipient of new-lead notifications; empty disables them

	// Operation timeouts
	TimeoutPing   time.Duration
	TimeoutRead   time.Duration
	TimeoutWrite  time.Duration
	TimeoutNotify time.Duration
}
