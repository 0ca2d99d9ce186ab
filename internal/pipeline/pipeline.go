// Package pipeline wires the stages together: extract saved pages, process
// the JSON batches, enrich, persist, and reconcile the spreadsheet mirror.
package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"upjobs-engine/internal/ai"
	"upjobs-engine/internal/airtable"
	"upjobs-engine/internal/domain"
	"upjobs-engine/internal/extract"
	"upjobs-engine/internal/ingest"
	"upjobs-engine/internal/mirror"
	"upjobs-engine/internal/normalize"
	"upjobs-engine/internal/store"
)

type Pipeline struct {
	DB         *sql.DB
	Sheets     mirror.Spreadsheet // nil skips sheet sync
	Summarizer *ai.Summarizer     // nil skips enrichment
	Airtable   *airtable.Client   // nil unless configured
	FetchLimit int
	BatchSize  int
}

// RunAll is the full pass: extract the latest scrape dir into processed
// JSON, ingest every batch, dedupe across batches, enrich, persist, then
// push the sheets. A store failure aborts; a sheets failure only logs, the
// canonical data is already safe.
func (p *Pipeline) RunAll(ctx context.Context, scrapeBase, processedDir string) error {
	inputDir := ingest.LatestDatedDir(scrapeBase)
	log.Printf("[run] extracting from %s", inputDir)
	if _, err := extract.Dir(inputDir, processedDir); err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	files, err := listJSON(processedDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		log.Printf("[run] no JSON files to process")
		return nil
	}

	var jobs []*domain.Job
	var results []domain.SearchResult
	var requests []domain.ScrapeRequest
	for _, f := range files {
		batch, err := ingest.ProcessFile(f)
		if err != nil {
			return fmt.Errorf("process %s: %w", f, err)
		}
		jobs = append(jobs, batch.Jobs...)
		results = append(results, batch.SearchResults...)
		requests = append(requests, batch.Request)
	}
	log.Printf("[run] processed %d files: %d jobs, %d search results", len(files), len(jobs), len(results))

	jobs = normalize.DedupeByKey(jobs, func(j *domain.Job) string { return j.JobID })
	results = normalize.DedupeByKey(results, domain.SearchResult.Key)
	for _, j := range jobs {
		normalize.DeriveCreateDate(j)
	}

	p.enrich(ctx, jobs)

	for _, req := range requests {
		if err := store.UpsertScrapeRequest(ctx, p.DB, req); err != nil {
			return fmt.Errorf("store scrape request %s: %w", req.SearchID, err)
		}
	}
	if err := store.UpsertJobs(ctx, p.DB, jobs); err != nil {
		return fmt.Errorf("store jobs: %w", err)
	}
	if err := store.UpsertSearchResults(ctx, p.DB, results); err != nil {
		return fmt.Errorf("store search results: %w", err)
	}
	for _, req := range requests {
		if req.SearchID == "" {
			continue
		}
		if err := store.MarkProcessed(ctx, p.DB, req.SearchID, true); err != nil {
			return fmt.Errorf("mark processed %s: %w", req.SearchID, err)
		}
	}
	log.Printf("[store] upserted %d jobs, %d search results, %d scrape requests", len(jobs), len(results), len(requests))

	if p.Sheets != nil {
		if err := p.PushSheets(ctx, true); err != nil {
			log.Printf("[run] sheets push skipped: %v", err)
		}
	}
	return nil
}

// ProcessFile ingests and persists a single processed-JSON file.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (*ingest.Batch, error) {
	batch, err := ingest.ProcessFile(path)
	if err != nil {
		return nil, err
	}
	jobs := normalize.DedupeByKey(batch.Jobs, func(j *domain.Job) string { return j.JobID })
	for _, j := range jobs {
		normalize.DeriveCreateDate(j)
	}

	if err := store.UpsertScrapeRequest(ctx, p.DB, batch.Request); err != nil {
		return nil, fmt.Errorf("store scrape request %s: %w", batch.Request.SearchID, err)
	}
	if err := store.UpsertJobs(ctx, p.DB, jobs); err != nil {
		return nil, fmt.Errorf("store jobs: %w", err)
	}
	if err := store.UpsertSearchResults(ctx, p.DB, batch.SearchResults); err != nil {
		return nil, fmt.Errorf("store search results: %w", err)
	}
	if batch.Request.SearchID != "" {
		if err := store.MarkProcessed(ctx, p.DB, batch.Request.SearchID, true); err != nil {
			return nil, fmt.Errorf("mark processed %s: %w", batch.Request.SearchID, err)
		}
	}
	return batch, nil
}

// enrich reuses summaries already in the store before spending tokens on
// new ones. Both steps are best effort.
func (p *Pipeline) enrich(ctx context.Context, jobs []*domain.Job) {
	if p.Summarizer == nil || len(jobs) == 0 {
		return
	}
	ids := make([]string, 0, len(jobs))
	for _, j := range jobs {
		ids = append(ids, j.JobID)
	}
	existing, err := store.ExistingSummaries(ctx, p.DB, ids)
	if err != nil {
		log.Printf("[ai] summary preload failed: %v", err)
	}
	for _, j := range jobs {
		if s, ok := existing[j.JobID]; ok && (j.DescriptionSummary == nil || *j.DescriptionSummary == "") {
			summary := s
			j.DescriptionSummary = &summary
		}
	}
	n := p.Summarizer.SummarizeJobs(ctx, jobs)
	log.Printf("[ai] summarized %d jobs", n)
}

// PushAirtable mirrors the jobs table into Airtable.
func (p *Pipeline) PushAirtable(ctx context.Context) (int, error) {
	if p.Airtable == nil {
		return 0, fmt.Errorf("airtable client not configured")
	}
	jobs, err := store.FetchJobs(ctx, p.DB, p.FetchLimit)
	if err != nil {
		return 0, fmt.Errorf("fetch jobs: %w", err)
	}
	if err := p.Airtable.UpsertJobs(ctx, jobs); err != nil {
		return 0, err
	}
	return len(jobs), nil
}

func listJSON(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
