package provision

import (
	"context"
	"os"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"scenably/internal/config"
	"scenably/internal/locator"
	"scenably/pkg/apperr"
	"scenably/pkg/logg"
)

const provisionerName = "Provisioner"

// Service installs the Playwright driver and browser builds into the
// directory the Locator scans, so a fresh environment can record and
// execute without a bundled browser.
type Service struct {
	config  *config.Config
	logger  *zap.Logger
	locator *locator.Locator
}

type Params struct {
	fx.In

	Config  *config.Config
	Logger  *zap.Logger
	Locator *locator.Locator
}

func NewService(params Params) *Service {
	return &Service{
		config:  params.Config,
		logger:  params.Logger.With(zap.String(logg.Layer, provisionerName)),
		locator: params.Locator,
	}
}

func (s *Service) Install(ctx context.Context) error {
	const op = "Install"
	logger := s.logger.With(zap.String(logg.Operation, op))

	browsersDir := s.locator.BrowserPath()
	logger.Info("Installing playwright driver and browsers", zap.String(logg.Path, browsersDir))

	if err := os.MkdirAll(browsersDir, 0o755); err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "mkdir_failed",
			apperr.MetaPath:   browsersDir,
		})
	}

	// The installer honors the same env var the Supervisor sets for
	// spawned processes.
	if err := os.Setenv("PLAYWRIGHT_BROWSERS_PATH", browsersDir); err != nil {
		return apperr.WrapWithReason(op, apperr.CodeInternal, err, "setenv_failed")
	}

	err := playwright.Install(&playwright.RunOptions{
		Browsers: []string{s.config.ProcessConfig.Browser},
	})
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "playwright_install_failed",
			apperr.MetaPath:   browsersDir,
		})
	}

	logger.Info("Playwright install completed")

	return nil
}
