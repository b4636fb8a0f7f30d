// internal/app/system/seeding/seeding.go
package seeding

import (
	"context"
	"errors"

	"github.com/dalemusser/stratacms/internal/domain/models"
	"go.uber.org/zap"
)

// SeedUser is recorded as the author of seeded documents.
const SeedUser = "system"

// ErrSeedFailed is returned when the initial document could not be written.
var ErrSeedFailed = errors.New("seeding: initial site content was not saved")

// ContentSeeder is the part of the content store seeding needs.
type ContentSeeder interface {
	Exists(ctx context.Context) (bool, error)
	Empty() *models.SiteContent
	SaveContent(ctx context.Context, content *models.SiteContent, user string, isDraft bool) bool
}

// SeedAll seeds default data if not already present.
func SeedAll(ctx context.Context, content ContentSeeder, logger *zap.Logger) error {
	return seedSiteContent(ctx, content, logger)
}

// seedSiteContent stores the empty published document the first time the
// app starts against a fresh database. Existing content is never touched.
func seedSiteContent(ctx context.Context, content ContentSeeder, logger *zap.Logger) error {
	exists, err := content.Exists(ctx)
	if err != nil {
		logger.Error("failed to check for site content", zap.Error(err))
		return err
	}
	if exists {
		return nil
	}

	if !content.SaveContent(ctx, content.Empty(), SeedUser, false) {
		logger.Error("failed to seed site content")
		return ErrSeedFailed
	}
	logger.Info("seeded empty site content")
	return nil
}
