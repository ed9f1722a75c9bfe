package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scenably/internal/entity"
	"scenably/pkg/apperr"
)

const testShapedSample = `import { test, expect } from '@playwright/test';

test('login flow', async ({ page }) => {
  await page.goto('https://example.com/login');
  await expect(page).toHaveTitle(/Login/);
});
`

const codegenSample = `const { chromium } = require('playwright');

(async () => {
  const browser = await chromium.launch({ headless: false });
  const context = await browser.newContext();
  const page = await context.newPage();
  await page.goto('https://example.com/');
  await page.getByRole('link', { name: 'More information' }).click();
  await page.fill('#q', 'hello');
  await page.close();
  await context.close();
  await browser.close();
})();
`

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		code string
		want entity.CodeShape
	}{
		{"test shaped", testShapedSample, entity.CodeTestShaped},
		{"codegen shaped", codegenSample, entity.CodeCodegenShaped},
		{"empty", "", entity.CodeUnknown},
		{"bare id token", "scn-42", entity.CodeUnknown},
		{"garbage", "garbage-not-code", entity.CodeUnknown},
		{"prose", "please run my scenario for me now", entity.CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.code))
		})
	}
}

func TestConvertCodegenKeepsOnlyPageActions(t *testing.T) {
	converted := ConvertCodegen(codegenSample)

	assert.Contains(t, converted, "await page.goto('https://example.com/');")
	assert.Contains(t, converted, "await page.fill('#q', 'hello');")

	// setup and teardown belong to the harness
	assert.NotContains(t, converted, "chromium.launch")
	assert.NotContains(t, converted, "browser.close")
	assert.NotContains(t, converted, "page.close")
	assert.NotContains(t, converted, "newContext")
}

func TestConvertCodegenRoundTrip(t *testing.T) {
	require.Equal(t, entity.CodeCodegenShaped, Classify(codegenSample))

	converted := ConvertCodegen(codegenSample)

	assert.Equal(t, entity.CodeTestShaped, Classify(converted))
}

func TestNormalize(t *testing.T) {
	t.Run("passes test-shaped code through", func(t *testing.T) {
		out, err := Normalize(testShapedSample)
		require.NoError(t, err)
		assert.Equal(t, testShapedSample, out)
	})

	t.Run("converts codegen-shaped code", func(t *testing.T) {
		out, err := Normalize(codegenSample)
		require.NoError(t, err)
		assert.Equal(t, entity.CodeTestShaped, Classify(out))
	})

	t.Run("rejects unknown code", func(t *testing.T) {
		_, err := Normalize("garbage-not-code")
		require.Error(t, err)
		assert.Equal(t, apperr.CodeInvalidCode, apperr.CodeOf(err))
	})
}
