package locator

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"scenably/internal/config"
	"scenably/pkg/logg"
)

const (
	locatorName = "Locator"

	// Browser downloads that were interrupted leave stub files behind;
	// anything smaller than this is not a real Chromium build.
	minChromiumExecutableSize = 1_000_000

	fallbackCommand = "playwright"
)

// Binary is a resolved Playwright CLI entry point. JS entries need a
// Node-capable launcher; Fallback means nothing was found on disk and
// Path is a bare command left to OS PATH resolution.
type Binary struct {
	Path     string
	JS       bool
	Fallback bool
}

type candidate struct {
	path string
	js   bool
}

type Locator struct {
	config  *config.Config
	logger  *zap.Logger
	profile Profile
}

type Params struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

func NewLocator(params Params) *Locator {
	return New(params.Config, params.Logger, DefaultProfile(runtime.GOOS))
}

func New(cfg *config.Config, logger *zap.Logger, profile Profile) *Locator {
	return &Locator{
		config:  cfg,
		logger:  logger.With(zap.String(logg.Layer, locatorName)),
		profile: profile,
	}
}

// FindPlaywrightBinary walks the ordered candidate list and returns the
// first entry present on disk. It never fails: when nothing is found it
// returns the bare command name for PATH resolution.
func (l *Locator) FindPlaywrightBinary() Binary {
	const op = "FindPlaywrightBinary"
	logger := l.logger.With(zap.String(logg.Operation, op))

	for _, c := range l.candidates() {
		if _, err := os.Stat(c.path); err != nil {
			continue
		}

		logger.Info("Resolved playwright binary", zap.String(logg.Path, c.path), zap.Bool("js_entry", c.js))

		return Binary{Path: c.path, JS: c.js}
	}

	logger.Warn("No playwright binary found, falling back to PATH lookup")

	return Binary{Path: fallbackCommand + l.profile.BatchExt, Fallback: true}
}

func (l *Locator) candidates() []candidate {
	root := l.config.RuntimeConfig.AppRoot
	resources := l.config.RuntimeConfig.ResourcesDir

	return []candidate{
		{path: filepath.Join(root, "node_modules", ".bin", "playwright"+l.profile.BatchExt)},
		{path: filepath.Join(root, "node_modules", "playwright", "cli.js"), js: true},
		{path: filepath.Join(root, "node_modules", "@playwright", "test", "cli.js"), js: true},
		{path: filepath.Join(resources, "app.asar.unpacked", "node_modules", "playwright", "cli.js"), js: true},
		{path: filepath.Join(resources, "app", "node_modules", ".bin", "playwright"+l.profile.BatchExt)},
		{path: filepath.Join(resources, "app", "node_modules", "playwright", "cli.js"), js: true},
	}
}

// NodeModulesDirs lists every plausible node_modules location; the
// Supervisor concatenates them into NODE_PATH for spawned processes.
func (l *Locator) NodeModulesDirs() []string {
	root := l.config.RuntimeConfig.AppRoot
	resources := l.config.RuntimeConfig.ResourcesDir

	return []string{
		filepath.Join(root, "node_modules"),
		filepath.Join(resources, "app.asar.unpacked", "node_modules"),
		filepath.Join(resources, "app", "node_modules"),
	}
}

func (l *Locator) BrowserPath() string {
	if l.config.RuntimeConfig.Packaged {
		return filepath.Join(l.config.RuntimeConfig.ResourcesDir, "browsers")
	}

	return filepath.Join(l.config.RuntimeConfig.AppRoot, "browsers")
}

// AvailableChromiumExecutable resolves a launchable Chromium, or ""
// when none passes the existence and size checks. Callers treat "" as
// "let the CLI use its own discovery", never as a hard error.
func (l *Locator) AvailableChromiumExecutable() string {
	const op = "AvailableChromiumExecutable"
	logger := l.logger.With(zap.String(logg.Operation, op))

	if l.profile.OS == "windows" && l.config.RuntimeConfig.Packaged {
		for _, path := range l.profile.WellKnownChrome {
			if l.usable(path) {
				logger.Info("Using system Chrome install", zap.String(logg.Path, path))

				return path
			}
		}
	}

	browserDir := l.BrowserPath()

	entries, err := os.ReadDir(browserDir)
	if err != nil {
		logger.Warn("Browser directory not readable", zap.String(logg.Path, browserDir), zap.Error(err))

		return ""
	}

	var chromiumDirs []string

	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), "chromium-") {
			chromiumDirs = append(chromiumDirs, entry.Name())
		}
	}

	if len(chromiumDirs) == 0 {
		logger.Warn("No chromium builds in browser directory", zap.String(logg.Path, browserDir))

		return ""
	}

	// Lexicographically last build number is the newest download.
	sort.Strings(chromiumDirs)
	newest := chromiumDirs[len(chromiumDirs)-1]

	for _, sub := range l.profile.ChromiumSubPaths {
		path := filepath.Join(browserDir, newest, sub)
		if l.usable(path) {
			logger.Info("Resolved chromium executable", zap.String(logg.Path, path))

			return path
		}
	}

	logger.Warn("No usable chromium executable", zap.String(logg.Path, filepath.Join(browserDir, newest)))

	return ""
}

func (l *Locator) usable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}

	return info.Size() > minChromiumExecutableSize
}

func (l *Locator) Profile() Profile {
	return l.profile
}
