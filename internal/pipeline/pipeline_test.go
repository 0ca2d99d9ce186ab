package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upjobs-engine/internal/domain"
	"upjobs-engine/internal/mirror"
	"upjobs-engine/internal/store"
)

// In-memory spreadsheet; writes render roughly the way Sheets would echo
// them back (booleans uppercased, numbers reformatted).

type fakeSheet struct {
	tabs map[string]*fakeWS
}

func newFakeSheet() *fakeSheet { return &fakeSheet{tabs: map[string]*fakeWS{}} }

func (s *fakeSheet) Worksheet(title string, cols int) (mirror.Worksheet, error) {
	if ws, ok := s.tabs[title]; ok {
		return ws, nil
	}
	ws := &fakeWS{title: title}
	s.tabs[title] = ws
	return ws, nil
}

type fakeWS struct {
	title string
	grid  [][]string
}

func (f *fakeWS) Title() string { return f.title }

func (f *fakeWS) Values() ([][]string, error) {
	out := make([][]string, len(f.grid))
	for i, r := range f.grid {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

func (f *fakeWS) WriteHeader(headers []string) error {
	row := append([]string(nil), headers...)
	if len(f.grid) == 0 {
		f.grid = [][]string{row}
	} else {
		f.grid[0] = row
	}
	return nil
}

func (f *fakeWS) BatchUpdateRows(updates []mirror.RowUpdate) error {
	for _, u := range updates {
		for len(f.grid) < u.Row {
			f.grid = append(f.grid, nil)
		}
		f.grid[u.Row-1] = renderRow(u.Values)
	}
	return nil
}

func (f *fakeWS) AppendRows(rows [][]any) error {
	for _, r := range rows {
		f.grid = append(f.grid, renderRow(r))
	}
	return nil
}

func renderRow(vals []any) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		switch x := v.(type) {
		case nil:
			out[i] = ""
		case bool:
			if x {
				out[i] = "TRUE"
			} else {
				out[i] = "FALSE"
			}
		case float64:
			out[i] = strconv.FormatFloat(x, 'f', -1, 64)
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}

func openTestPipeline(t *testing.T) (*Pipeline, *fakeSheet) {
	t.Helper()
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sheet := newFakeSheet()
	return &Pipeline{DB: db.Pool, Sheets: sheet, FetchLimit: 1000, BatchSize: 200}, sheet
}

func strp(s string) *string { return &s }

func TestRunAll_TwoPayloadsOneJob(t *testing.T) {
	p, _ := openTestPipeline(t)
	p.Sheets = nil

	scrapeBase := t.TempDir()
	processed := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(processed, name), []byte(body), 0o644))
	}
	write("20250810112529289-golang-page1.json",
		`{"jobs":[{"uid":"123","title":"Go dev","description":"first description"}]}`)
	write("20250810112529289-golang-page2.json",
		`{"jobs":[{"uid":"123","title":"Go dev","description":"second description"},{"uid":"456","title":"Other"}]}`)

	require.NoError(t, p.RunAll(context.Background(), scrapeBase, processed))

	jobs, err := store.FetchJobs(context.Background(), p.DB, 100)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	var target *domain.Job
	for _, j := range jobs {
		if j.JobID == "123" {
			target = j
		}
	}
	require.NotNil(t, target)
	assert.Equal(t, "second description", *target.Description, "later batch wins")

	results, err := store.FetchSearchResults(context.Background(), p.DB, 100)
	require.NoError(t, err)
	assert.Len(t, results, 3, "job 123 appears under both search ids")

	requests, err := store.FetchScrapeRequests(context.Background(), p.DB, 100)
	require.NoError(t, err)
	require.Len(t, requests, 2)
	for _, r := range requests {
		assert.True(t, r.Processed)
	}
}

func TestPushSheets_WritesTabsAndHidesTerminal(t *testing.T) {
	p, sheet := openTestPipeline(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertJobs(ctx, p.DB, []*domain.Job{
		{JobID: "live", Title: strp("still open"), Skills: []string{}, Currency: "USD"},
		{JobID: "done", Title: strp("lost one"), Skills: []string{}, Currency: "USD"},
	}))
	rejected := "Rejected"
	require.NoError(t, store.InsertApplications(ctx, p.DB, []domain.Application{
		{JobID: "done", Status: &rejected},
	}))

	require.NoError(t, p.PushSheets(ctx, true))

	jobsTab := sheet.tabs[TabJobs]
	require.NotNil(t, jobsTab)
	require.Len(t, jobsTab.grid, 2, "header plus the one non-terminal job")
	assert.Equal(t, domain.JobsHeaders, jobsTab.grid[0])
	assert.Equal(t, "live", jobsTab.grid[1][0])

	appsTab := sheet.tabs[TabApplications]
	require.NotNil(t, appsTab)
	require.Len(t, appsTab.grid, 2, "terminal application still syncs")

	// Second push with unchanged data must leave the grids as they are.
	before := len(jobsTab.grid)
	require.NoError(t, p.PushSheets(ctx, true))
	assert.Equal(t, before, len(jobsTab.grid))
}

func TestPullSheets_AppliesEditsAndRecordsTransitions(t *testing.T) {
	p, sheet := openTestPipeline(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertJobs(ctx, p.DB, []*domain.Job{
		{JobID: "j1", Skills: []string{}, Currency: "USD"},
	}))
	draft := "draft"
	require.NoError(t, store.InsertApplications(ctx, p.DB, []domain.Application{
		{JobID: "j1", Status: &draft},
	}))
	statusMap, err := store.ApplicationStatusMap(ctx, p.DB)
	require.NoError(t, err)
	require.Len(t, statusMap, 1)
	var appID int64
	for id := range statusMap {
		appID = id
	}

	sheet.tabs[TabJobs] = &fakeWS{title: TabJobs, grid: [][]string{
		{"job_id", "saved"},
		{"j1", "Yes"},
		{"ghost", "maybe"},
	}}
	sheet.tabs[TabApplications] = &fakeWS{title: TabApplications, grid: [][]string{
		{"application_id", "job_id", "status", "connects_spent"},
		{strconv.FormatInt(appID, 10), "j1", "Submitted", "12"},
		{"", "j1", "draft", ""},
	}}
	sheet.tabs[TabJobNotes] = &fakeWS{title: TabJobNotes, grid: [][]string{
		{"note_id", "job_id", "note_text"},
		{"", "j1", "fresh note"},
	}}

	stats, err := p.PullSheets(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.JobsSaved)
	assert.Equal(t, 1, stats.AppsUpdated)
	assert.Equal(t, 1, stats.AppsNew)
	assert.Equal(t, 1, stats.NotesNew)
	assert.Equal(t, 1, stats.Transitions)

	jobs, err := store.FetchJobs(ctx, p.DB, 10)
	require.NoError(t, err)
	require.NotNil(t, jobs[0].Saved)
	assert.True(t, *jobs[0].Saved)

	after, err := store.ApplicationStatusMap(ctx, p.DB)
	require.NoError(t, err)
	assert.Equal(t, "submitted", after[appID])

	hist, err := store.FetchStatusHistory(ctx, p.DB, 10)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "submitted", hist[0].Status)
}

func TestComputeStatusTransitions(t *testing.T) {
	now := time.Now().UTC()
	submitted := "Submitted"
	same := "draft"
	empty := ""

	before := map[int64]string{1: "draft", 2: "draft", 3: "draft"}
	updates := []domain.Application{
		{ApplicationID: 1, Status: &submitted},
		{ApplicationID: 2, Status: &same},
		{ApplicationID: 3, Status: &empty},
		{ApplicationID: 4, Status: nil},
		{ApplicationID: 5, Status: &submitted}, // unknown before, still a change
	}

	got := ComputeStatusTransitions(before, updates, now)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ApplicationID)
	assert.Equal(t, "submitted", got[0].Status)
	assert.Equal(t, now, got[0].ObservedAt)
	assert.Equal(t, int64(5), got[1].ApplicationID)
}

func TestWithLock_RejectsConcurrentPass(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "sync.lock")

	err := WithLock(lockPath, func() error {
		return WithLock(lockPath, func() error { return nil })
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "another sync")

	require.NoError(t, WithLock(lockPath, func() error { return nil }))
}
