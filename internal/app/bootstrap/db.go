// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"

	contentstore "github.com/dalemusser/stratacms/internal/app/store/content"
	leadstore "github.com/dalemusser/stratacms/internal/app/store/leads"
	"github.com/dalemusser/stratacms/internal/app/store/ratelimit"
	"github.com/dalemusser/stratacms/internal/app/system/indexes"
	"github.com/dalemusser/stratacms/internal/app/system/mailer"
	"github.com/dalemusser/stratacms/internal/app/system/seeding"
	"github.com/dalemusser/stratacms/internal/app/system/timeouts"
	"github.com/dalemusser/stratacms/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// ConnectDB connects to MongoDB and builds the stores on top of it.
//
// WAFFLE calls this after configuration is loaded but before EnsureSchema and
// Startup.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	timeouts.Configure(timeouts.Config{
		Ping:   appCfg.TimeoutPing,
		Read:   appCfg.TimeoutRead,
		Write:  appCfg.TimeoutWrite,
		Notify: appCfg.TimeoutNotify,
	})

	// Configure MongoDB connection pool
	poolCfg := wafflemongo.DefaultPoolConfig()
	if appCfg.MongoMaxPoolSize > 0 {
		poolCfg.MaxPoolSize = appCfg.MongoMaxPoolSize
	}
	if appCfg.MongoMinPoolSize > 0 {
		poolCfg.MinPoolSize = appCfg.MongoMinPoolSize
	}

	client, err := wafflemongo.ConnectWithPool(ctx, appCfg.MongoURI, appCfg.MongoDatabase, poolCfg)
	if err != nil {
		return DBDeps{}, err
	}

	db := client.Database(appCfg.MongoDatabase)

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", poolCfg.MaxPoolSize),
		zap.Uint64("min_pool_size", poolCfg.MinPoolSize),
	)

	deps := DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		Content:       contentstore.New(db, logger, contentstore.WithInstituteName(appCfg.DefaultInstituteName)),
		Leads:         leadstore.New(db),
	}

	if appCfg.RateLimitEnabled {
		deps.RateLimit = ratelimit.New(
			db,
			appCfg.RateLimitLoginAttempts,
			appCfg.RateLimitLoginWindow,
			appCfg.RateLimitLoginLockout,
		)
		logger.Info("login rate limiting enabled",
			zap.Int("attempts", appCfg.RateLimitLoginAttempts),
			zap.Duration("window", appCfg.RateLimitLoginWindow),
			zap.Duration("lockout", appCfg.RateLimitLoginLockout),
		)
	} else {
		logger.Warn("login rate limiting is disabled")
	}

	// Initialize email mailer for lead notifications
	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		User:     appCfg.MailSMTPUser,
		Pass:     appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)
	deps.LeadNotifier = mailer.NewLeadNotifier(mail, appCfg.LeadNotifyEmail, logger)
	if deps.LeadNotifier != nil {
		logger.Info("lead notifications enabled",
			zap.String("host", appCfg.MailSMTPHost),
			zap.Int("port", appCfg.MailSMTPPort),
		)
	}

	return deps, nil
}

// EnsureSchema creates collections, validators and indexes, then seeds the
// initial site content document.
//
// The context has a timeout based on coreCfg.IndexBootTimeout.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	// Collections and validators first so indexes land on existing collections.
	logger.Info("ensuring collections and validators")
	if err := validators.EnsureAll(ctx, db); err != nil {
		logger.Error("failed to ensure validators", zap.Error(err))
		return err
	}

	logger.Info("ensuring database indexes")
	if err := indexes.EnsureAll(ctx, db); err != nil {
		logger.Error("failed to ensure indexes", zap.Error(err))
		return err
	}

	logger.Info("seeding default data")
	if err := seeding.SeedAll(ctx, deps.Content, logger); err != nil {
		logger.Error("failed to seed default data", zap.Error(err))
		return err
	}

	logger.Info("database schema ensured successfully")
	return nil
}
