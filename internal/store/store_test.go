package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upjobs-engine/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func strp(s string) *string { return &s }

func TestUpsertJobs_InsertThenUpdate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	j := &domain.Job{
		JobID:    "123",
		Title:    strp("Data Engineer"),
		Skills:   []string{"Go", "SQL"},
		Currency: "USD",
	}
	require.NoError(t, UpsertJobs(ctx, db.Pool, []*domain.Job{j}))

	// Second payload for the same id replaces scraper-owned fields.
	j2 := &domain.Job{
		JobID:       "123",
		Title:       strp("Senior Data Engineer"),
		Description: strp("second description"),
		Skills:      []string{},
		Currency:    "EUR",
	}
	require.NoError(t, UpsertJobs(ctx, db.Pool, []*domain.Job{j2}))

	jobs, err := FetchJobs(ctx, db.Pool, 100)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Senior Data Engineer", *jobs[0].Title)
	assert.Equal(t, "second description", *jobs[0].Description)
	assert.Equal(t, "EUR", jobs[0].Currency)
}

func TestUpsertJobs_PreservesSavedAndSummary(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	saved := true
	first := &domain.Job{
		JobID:              "j1",
		DescriptionSummary: strp("summary v1"),
		Saved:              &saved,
		Skills:             []string{},
		Currency:           "USD",
	}
	require.NoError(t, UpsertJobs(ctx, db.Pool, []*domain.Job{first}))

	// Re-scrape without summary or saved: both must survive.
	second := &domain.Job{JobID: "j1", Skills: []string{}, Currency: "USD"}
	require.NoError(t, UpsertJobs(ctx, db.Pool, []*domain.Job{second}))

	jobs, err := FetchJobs(ctx, db.Pool, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.NotNil(t, jobs[0].DescriptionSummary)
	assert.Equal(t, "summary v1", *jobs[0].DescriptionSummary)
	require.NotNil(t, jobs[0].Saved)
	assert.True(t, *jobs[0].Saved)
}

func TestExistingSummaries(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, UpsertJobs(ctx, db.Pool, []*domain.Job{
		{JobID: "a", DescriptionSummary: strp("has one"), Skills: []string{}, Currency: "USD"},
		{JobID: "b", Skills: []string{}, Currency: "USD"},
	}))

	m, err := ExistingSummaries(ctx, db.Pool, []string{"a", "b", "missing"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "has one"}, m)
}

func TestSearchResults_CompositeUpsert(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	rows := []domain.SearchResult{
		{SearchID: "s1", JobID: "j1", IsApplied: false},
		{SearchID: "s1", JobID: "j1", IsApplied: true}, // same key, overwrites
		{SearchID: "s2", JobID: "j1"},
	}
	require.NoError(t, UpsertSearchResults(ctx, db.Pool, rows))

	got, err := FetchSearchResults(ctx, db.Pool, 100)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, r := range got {
		if r.SearchID == "s1" {
			assert.True(t, r.IsApplied)
		}
	}
}

func TestScrapeRequests_ProcessedFlag(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	req := normalizeMetaFixture()
	require.NoError(t, UpsertScrapeRequest(ctx, db.Pool, req))

	// Upserting again must not flip processed.
	require.NoError(t, MarkProcessed(ctx, db.Pool, req.SearchID, true))
	require.NoError(t, UpsertScrapeRequest(ctx, db.Pool, req))

	got, err := FetchScrapeRequests(ctx, db.Pool, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Processed)
	require.NotNil(t, got[0].Query)
	assert.Equal(t, "golang", *got[0].Query)
}

func normalizeMetaFixture() domain.ScrapeRequest {
	q := "golang"
	p := 1
	return domain.ScrapeRequest{
		SearchID: "20250810112529289-golang-page1",
		Query:    &q,
		Page:     &p,
		Filepath: "/tmp/20250810112529289-golang-page1.json",
	}
}

func TestApplications_StatusMapAndHistory(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	draft := "draft"
	require.NoError(t, InsertApplications(ctx, db.Pool, []domain.Application{
		{JobID: "j1", Status: &draft},
	}))

	before, err := ApplicationStatusMap(ctx, db.Pool)
	require.NoError(t, err)
	require.Len(t, before, 1)

	var appID int64
	for id := range before {
		appID = id
	}
	assert.Equal(t, "draft", before[appID])

	submitted := "submitted"
	require.NoError(t, UpdateApplications(ctx, db.Pool, []domain.Application{
		{ApplicationID: appID, Status: &submitted},
	}))

	after, err := ApplicationStatusMap(ctx, db.Pool)
	require.NoError(t, err)
	assert.Equal(t, "submitted", after[appID])

	require.NoError(t, InsertStatusHistory(ctx, db.Pool, []domain.StatusTransition{
		{ApplicationID: appID, Status: "submitted"},
	}))
	hist, err := FetchStatusHistory(ctx, db.Pool, 10)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "submitted", hist[0].Status)
	assert.Equal(t, appID, hist[0].ApplicationID)
}

func TestJobNotes_InsertAndUpdate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, InsertJobNotes(ctx, db.Pool, []domain.JobNote{
		{JobID: "j1", NoteText: strp("looks promising")},
		{JobID: "", NoteText: strp("orphan, skipped")},
	}))

	notes, err := FetchJobNotes(ctx, db.Pool, 10)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.NotNil(t, notes[0].Author)
	assert.Equal(t, "user", *notes[0].Author)

	notes[0].NoteText = strp("edited")
	require.NoError(t, UpdateJobNotes(ctx, db.Pool, notes))

	notes, err = FetchJobNotes(ctx, db.Pool, 10)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "edited", *notes[0].NoteText)
}
