package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	_, res := NormalizeAndValidate(Default())
	assert.True(t, res.OK(), "errors: %v", res.Errors)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("ai:\n  concurrency: 2\nsheets:\n  spreadsheet_id: abc\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.AI.Concurrency)
	assert.Equal(t, "abc", cfg.Sheets.SpreadsheetID)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model, "unset keys keep defaults")
}

func TestNormalizeAndValidate(t *testing.T) {
	cfg := Default()
	cfg.AI.Concurrency = 0
	cfg.Airtable.BaseID = " appX "
	cfg.Airtable.Table = ""

	out, res := NormalizeAndValidate(cfg)
	assert.False(t, res.OK())
	assert.Contains(t, res.Errors, "ai.concurrency must be > 0")
	assert.Contains(t, res.Errors, "airtable.table is required when airtable.base_id is set")
	assert.Equal(t, "appX", out.Airtable.BaseID)
}

func TestEnsureUserConfigSeedsOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	path, err := EnsureUserConfig(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("app:\n  data_dir: custom\n"), 0o644))
	again, err := EnsureUserConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, path, again)

	cfg, err := Load(again)
	require.NoError(t, err)
	assert.Equal(t, "custom", cfg.App.DataDir, "existing config is not clobbered")
}

func TestResolvePaths(t *testing.T) {
	cfg := Default()
	cfg.App.DataDir = "/srv/upjobs"
	cfg.Sheets.TokenFile = "/etc/upjobs/token.json"
	ResolvePaths(&cfg)

	assert.Equal(t, filepath.Join("/srv/upjobs", "upjobs.db"), cfg.Store.Path)
	assert.Equal(t, "/etc/upjobs/token.json", cfg.Sheets.TokenFile, "absolute paths stay put")
}

func TestOverlayEnv(t *testing.T) {
	t.Setenv("UPJOBS_SPREADSHEET_ID", "sheet-from-env")
	t.Setenv("UPJOBS_AI_CONCURRENCY", "9")

	cfg := Default()
	OverlayEnv(&cfg)
	assert.Equal(t, "sheet-from-env", cfg.Sheets.SpreadsheetID)
	assert.Equal(t, 9, cfg.AI.Concurrency)
}
