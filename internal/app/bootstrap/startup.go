// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/stratacms/internal/app/system/tasks"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and schema/index setup are complete,
// but before the HTTP handler is built and requests are served.
//
// Returning a non-nil error aborts startup.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	// Report problems already present in stored content, without waiting
	// for the first tick of the background job.
	report := tasks.CheckIntegrity(ctx, deps.Content)
	if !report.OK() {
		logger.Warn("stored content has integrity problems",
			zap.Int("published_dangling", len(report.Published)),
			zap.Int("draft_dangling", len(report.Draft)),
			zap.Strings("publish_problems", report.PublishProblems),
			zap.Strings("draft_problems", report.DraftProblems),
		)
	}

	startTaskRunner(deps, appCfg, logger)
	return nil
}

// taskRunner is the global task runner instance, used for graceful shutdown.
var taskRunner *tasks.Runner

// startTaskRunner initializes and starts the background task runner.
func startTaskRunner(deps DBDeps, appCfg AppConfig, logger *zap.Logger) {
	taskRunner = tasks.New(logger)
	taskRunner.Register(tasks.IntegrityCheckJob(deps.Content, logger, appCfg.IntegrityCheckInterval))
	taskRunner.Start()
}
