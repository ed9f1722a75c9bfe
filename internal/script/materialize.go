package script

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"scenably/internal/config"
	"scenably/internal/entity"
	"scenably/pkg/apperr"
	"scenably/pkg/logg"
)

const materializerName = "Materializer"

// Materializer writes a session's spec and ephemeral run configuration
// into the per-activity temp directory before spawn and deletes them
// after the process exits. Filenames are always session-id-qualified
// so concurrent sessions share the directory without contention.
type Materializer struct {
	config *config.Config
	logger *zap.Logger
}

type MaterializerParams struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

func NewMaterializer(params MaterializerParams) *Materializer {
	return &Materializer{
		config: params.Config,
		logger: params.Logger.With(zap.String(logg.Layer, materializerName)),
	}
}

type RunOptions struct {
	Browser        string
	Headless       bool
	ExecutablePath string
}

func (m *Materializer) TempDir(kind entity.ActivityKind) (string, error) {
	root := m.config.RuntimeConfig.TempRoot
	if root == "" {
		root = os.TempDir()
	}

	dir := filepath.Join(root, "scenably-"+string(kind))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperr.Wrap("TempDir", apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "mkdir_failed",
			apperr.MetaStage:  apperr.StageMaterialize,
			apperr.MetaPath:   dir,
		})
	}

	return dir, nil
}

func SpecFileName(kind entity.ActivityKind, sessionID string) string {
	switch kind {
	case entity.ActivityRecord:
		return fmt.Sprintf("recording-%s.spec.ts", sessionID)
	case entity.ActivityDebug:
		return fmt.Sprintf("debug-%s.spec.ts", sessionID)
	default:
		return fmt.Sprintf("exec-%s.spec.ts", sessionID)
	}
}

func ConfigFileName(kind entity.ActivityKind, sessionID string) string {
	return fmt.Sprintf("playwright.config.%s-%s.ts", kind, sessionID)
}

// WriteRunFiles materializes the spec and config for one session and
// returns their absolute paths. Both must be written before spawn.
func (m *Materializer) WriteRunFiles(kind entity.ActivityKind, sessionID, code string, opts RunOptions) (string, string, error) {
	const op = "WriteRunFiles"

	dir, err := m.TempDir(kind)
	if err != nil {
		return "", "", err
	}

	specPath := filepath.Join(dir, SpecFileName(kind, sessionID))
	if err := os.WriteFile(specPath, []byte(code), 0o644); err != nil {
		return "", "", apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "write_spec_failed",
			apperr.MetaStage:  apperr.StageMaterialize,
			apperr.MetaPath:   specPath,
		})
	}

	configPath := filepath.Join(dir, ConfigFileName(kind, sessionID))
	if err := os.WriteFile(configPath, []byte(configSource(opts)), 0o644); err != nil {
		m.Cleanup(specPath)

		return "", "", apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "write_config_failed",
			apperr.MetaStage:  apperr.StageMaterialize,
			apperr.MetaPath:   configPath,
		})
	}

	return specPath, configPath, nil
}

// RecordingOutputPath is where codegen is told to write its script for
// a session; Stop reads it back even when the Store has lost the
// session.
func (m *Materializer) RecordingOutputPath(sessionID string) (string, error) {
	dir, err := m.TempDir(entity.ActivityRecord)
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, SpecFileName(entity.ActivityRecord, sessionID)), nil
}

// Cleanup deletes temp files best-effort. Failures are logged and
// swallowed: a missing file means someone already cleaned up, which is
// fine.
func (m *Materializer) Cleanup(paths ...string) {
	const op = "Cleanup"
	logger := m.logger.With(zap.String(logg.Operation, op))

	for _, path := range paths {
		if path == "" {
			continue
		}

		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warn("Temp file removal failed", zap.String(logg.Path, path), zap.Error(err))
		}
	}
}

func configSource(opts RunOptions) string {
	var b strings.Builder

	b.WriteString("module.exports = {\n")
	b.WriteString("  testDir: '.',\n")
	b.WriteString("  use: {\n")
	fmt.Fprintf(&b, "    browserName: %s,\n", jsString(opts.Browser))
	fmt.Fprintf(&b, "    headless: %t,\n", opts.Headless)

	if opts.ExecutablePath != "" {
		fmt.Fprintf(&b, "    launchOptions: { executablePath: %s },\n", jsString(opts.ExecutablePath))
	}

	b.WriteString("  },\n")
	b.WriteString("};\n")

	return b.String()
}

// JSON string quoting is valid JS and keeps Windows backslashes intact.
func jsString(s string) string {
	return strconv.Quote(s)
}
