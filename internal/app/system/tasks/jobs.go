// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratacms/internal/app/system/catalog"
	"github.com/dalemusser/stratacms/internal/domain/models"
	"go.uber.org/zap"
)

// ContentReader is the read side of the content store.
type ContentReader interface {
	GetContent(ctx context.Context) *models.SiteContent
	GetPublishedContent(ctx context.Context) *models.SiteContent
}

// IntegrityReport summarises what the integrity check found.
type IntegrityReport struct {
	Published       []catalog.DanglingReference
	Draft           []catalog.DanglingReference
	DraftPending    bool     // the latest revision is an unpublished draft
	DraftProblems   []string // every catalog.Validate problem of the draft
	PublishProblems []string
}

// OK reports whether nothing was found.
func (r IntegrityReport) OK() bool {
	return len(r.PublishProblems) == 0 && len(r.DraftProblems) == 0
}

// CheckIntegrity validates the published revision and, when one is pending,
// the draft revision. Nothing is modified; fixing a reference is an admin
// action that goes through the audit trail.
func CheckIntegrity(ctx context.Context, content ContentReader) IntegrityReport {
	var rep IntegrityReport

	published := content.GetPublishedContent(ctx)
	rep.Published = catalog.DanglingReferences(published)
	rep.PublishProblems = problems(catalog.Validate(published))

	if latest := content.GetContent(ctx); latest.IsDraft {
		rep.DraftPending = true
		rep.Draft = catalog.DanglingReferences(latest)
		rep.DraftProblems = problems(catalog.Validate(latest))
	}
	return rep
}

func problems(err error) []string {
	var ve *catalog.ValidationError
	if errors.As(err, &ve) {
		return ve.Problems
	}
	return nil
}

// IntegrityCheckJob periodically logs category references that point at
// categories which no longer exist.
func IntegrityCheckJob(content ContentReader, logger *zap.Logger, interval time.Duration) Job {
	return Job{
		Name:     "content-integrity-check",
		Interval: interval,
		Run: func(ctx context.Context) error {
			rep := CheckIntegrity(ctx, content)
			if rep.OK() {
				logger.Debug("content integrity check passed",
					zap.Bool("draft_pending", rep.DraftPending))
				return nil
			}
			for _, d := range rep.Published {
				logger.Warn("dangling category reference",
					zap.String("revision", "published"),
					zap.String("course", d.CourseSlug),
					zap.String("category", d.CategorySlug))
			}
			for _, d := range rep.Draft {
				logger.Warn("dangling category reference",
					zap.String("revision", "draft"),
					zap.String("course", d.CourseSlug),
					zap.String("category", d.CategorySlug))
			}
			logger.Warn("content integrity check found problems",
				zap.Strings("published", rep.PublishProblems),
				zap.Strings("draft", rep.DraftProblems))
			return nil
		},
	}
}
