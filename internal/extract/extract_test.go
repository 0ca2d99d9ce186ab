package extract

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchPage = `<!DOCTYPE html>
<html><head><title>search</title></head>
<body>
<div id="app"></div>
<script>window.__NUXT__={"state":{"jobsSearch":{"jobs":[{"uid":"111","title":"Go dev"},{"uid":"222","title":"Scraper"}]}},"serverRendered":true};</script>
</body></html>`

const bestMatchPage = `<html><body>
<script>
  window.__NUXT__={"state":{"feedBestMatch":{"jobs":[{"jobId":"333","title":"ETL"}]}}};
</script>
</body></html>`

const fallbackPage = `<html><body>
<script>window.__NUXT__={"results":[{"jobId":"444","title":"Pipelines"}],"noise":[1,2,3]};</script>
</body></html>`

func TestJobsFromHTML_SearchState(t *testing.T) {
	jobs, err := JobsFromHTML(strings.NewReader(searchPage))
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "111", jobs[0]["uid"])
	assert.Equal(t, "Scraper", jobs[1]["title"])
}

func TestJobsFromHTML_BestMatchState(t *testing.T) {
	jobs, err := JobsFromHTML(strings.NewReader(bestMatchPage))
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "333", jobs[0]["jobId"])
}

func TestJobsFromHTML_TopLevelFallback(t *testing.T) {
	jobs, err := JobsFromHTML(strings.NewReader(fallbackPage))
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "444", jobs[0]["jobId"])
}

func TestJobsFromHTML_NoState(t *testing.T) {
	jobs, err := JobsFromHTML(strings.NewReader("<html><body><p>nothing here</p></body></html>"))
	require.NoError(t, err)
	assert.Empty(t, jobs)
	assert.NotNil(t, jobs)
}

func TestJobsFromHTML_BracesInsideStrings(t *testing.T) {
	page := `<script>window.__NUXT__={"state":{"jobsSearch":{"jobs":[{"uid":"1","title":"uses { and } in text"}]}}};</script>`
	jobs, err := JobsFromHTML(strings.NewReader(page))
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "uses { and } in text", jobs[0]["title"])
}

func TestDir_WritesJSONPerPage(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(in, "20250810112529289-golang-page1.html"), []byte(searchPage), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(in, "broken.html"), []byte("<not really html"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(in, "notes.txt"), []byte("ignored"), 0o644))

	n, err := Dir(in, out)
	require.NoError(t, err)
	// The broken page still parses as HTML with no state, so it writes an
	// empty jobs file rather than failing the pass.
	assert.Equal(t, 2, n)

	b, err := os.ReadFile(filepath.Join(out, "20250810112529289-golang-page1.json"))
	require.NoError(t, err)
	var payload struct {
		Jobs []map[string]any `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(b, &payload))
	assert.Len(t, payload.Jobs, 2)
}
