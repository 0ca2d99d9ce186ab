package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBatchFile(t *testing.T, name, payload string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))
	return path
}

func TestProcessFile_WrappedPayload(t *testing.T) {
	path := writeBatchFile(t, "20250810112529289-golang-page1.json",
		`{"jobs":[{"uid":"1","title":"Go dev"},{"uid":"2","title":"Scraper","proposalsTier":"5 to 10"}]}`)

	batch, err := ProcessFile(path)
	require.NoError(t, err)
	require.Len(t, batch.Jobs, 2)
	require.Len(t, batch.SearchResults, 2)

	assert.Equal(t, "20250810112529289-golang-page1", batch.Request.SearchID)
	require.NotNil(t, batch.Request.Query)
	assert.Equal(t, "golang", *batch.Request.Query)
	assert.Equal(t, path, batch.Request.Filepath)

	sr := batch.SearchResults[1]
	assert.Equal(t, "2", sr.JobID)
	assert.Equal(t, batch.Request.SearchID, sr.SearchID)
	require.NotNil(t, sr.ProposalsTier)
	assert.Equal(t, "5 to 10", *sr.ProposalsTier)
}

func TestProcessFile_BareListAndIdentityFilter(t *testing.T) {
	path := writeBatchFile(t, "odd-name.json",
		`[{"uid":"1","title":"keep"},{"title":"no id, dropped"},"not an object"]`)

	batch, err := ProcessFile(path)
	require.NoError(t, err)
	require.Len(t, batch.Jobs, 1)
	assert.Equal(t, "1", batch.Jobs[0].JobID)
	assert.Equal(t, "odd-name", batch.Request.SearchID, "stem fallback")
}

func TestProcessFile_IntraBatchDedupeKeepsLastOccurrence(t *testing.T) {
	path := writeBatchFile(t, "b.json",
		`{"jobs":[{"uid":"123","title":"first"},{"uid":"other"},{"uid":"123","title":"second"}]}`)

	batch, err := ProcessFile(path)
	require.NoError(t, err)
	require.Len(t, batch.Jobs, 2)
	assert.Equal(t, "123", batch.Jobs[0].JobID)
	require.NotNil(t, batch.Jobs[0].Title)
	assert.Equal(t, "second", *batch.Jobs[0].Title)
}

func TestProcessFile_BadJSON(t *testing.T) {
	path := writeBatchFile(t, "bad.json", `{"jobs": [`)
	_, err := ProcessFile(path)
	require.Error(t, err)
}

func TestLatestDatedDir(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(base, "2025-08-01"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(base, "2025-08-10"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(base, "archive"), 0o755))

	assert.Equal(t, filepath.Join(base, "2025-08-10"), LatestDatedDir(base))
}

func TestLatestDatedDir_NoDatedSubdirs(t *testing.T) {
	base := t.TempDir()
	assert.Equal(t, base, LatestDatedDir(base))
	assert.Equal(t, "/nonexistent", LatestDatedDir("/nonexistent"))
}

func TestCleanupJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "processed")
	require.NoError(t, CleanupJSON(dir), "creates the dir when missing")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("x"), 0o644))
	require.NoError(t, CleanupJSON(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "keep.txt", entries[0].Name())
}

func TestLoadSearchURLs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search_urls.yml")
	require.NoError(t, os.WriteFile(path, []byte("urls:\n  - https://example.com/a\n  - https://example.com/b\n"), 0o644))

	urls, err := LoadSearchURLs(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, urls)

	urls, err = LoadSearchURLs(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	assert.Nil(t, urls)
}
