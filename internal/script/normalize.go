package script

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"scenably/internal/entity"
	"scenably/pkg/apperr"
)

var (
	testImportRe    = regexp.MustCompile(`import\s*\{[^}]*\b(test|expect)\b[^}]*\}\s*from\s*['"]@playwright/test['"]`)
	testCallRe      = regexp.MustCompile(`(?m)\btest\s*\(`)
	codegenLaunchRe = regexp.MustCompile(`\b(chromium|firefox|webkit)\.launch\s*\(`)
	iifeBrowserRe   = regexp.MustCompile(`\(\s*async\s*\(\s*\)\s*=>\s*\{[\s\S]*const\s+browser\s*=`)
	bareTokenRe     = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

// Classify decides whether code is already runnable by the test
// harness, is raw codegen output, or is neither. A bare short token is
// treated as a caller mistake (an id passed where code was expected).
func Classify(code string) entity.CodeShape {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" || bareTokenRe.MatchString(trimmed) {
		return entity.CodeUnknown
	}

	if testImportRe.MatchString(code) && testCallRe.MatchString(code) {
		return entity.CodeTestShaped
	}

	if codegenLaunchRe.MatchString(code) || iifeBrowserRe.MatchString(code) {
		return entity.CodeCodegenShaped
	}

	return entity.CodeUnknown
}

// ConvertCodegen lifts the page-interaction lines out of a raw codegen
// script and wraps them in a test block. This is deliberate prefix
// matching, not a parser: browser/context/page setup and teardown are
// the harness's job and get dropped.
func ConvertCodegen(code string) string {
	var actions []string

	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)

		if !strings.HasPrefix(trimmed, "await page.") {
			continue
		}

		if strings.HasPrefix(trimmed, "await page.close(") {
			continue
		}

		actions = append(actions, "  "+trimmed)
	}

	body := strings.Join(actions, "\n")
	if body != "" {
		body += "\n"
	}

	return fmt.Sprintf(`import { test, expect } from '@playwright/test';

test('recorded scenario', async ({ page }) => {
%s});
`, body)
}

// Normalize returns test-shaped code for any acceptable input and a
// precondition error otherwise, before any file or process side effect.
func Normalize(code string) (string, error) {
	const op = "Normalize"

	switch Classify(code) {
	case entity.CodeTestShaped:
		return code, nil
	case entity.CodeCodegenShaped:
		return ConvertCodegen(code), nil
	default:
		return "", apperr.Wrap(op, apperr.CodeInvalidCode,
			errors.New("code is neither test-shaped nor codegen-shaped"), map[string]any{
				apperr.MetaReason: "unrecognized_code_format",
				apperr.MetaStage:  apperr.StageNormalize,
			})
	}
}
