// Package ingest turns scraped JSON files into canonical records.
package ingest

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"upjobs-engine/internal/domain"
	"upjobs-engine/internal/normalize"
)

// Batch is everything one scraped file contributes: the normalized jobs,
// the search-result links, and the scrape request derived from the filename.
type Batch struct {
	Jobs          []*domain.Job
	SearchResults []domain.SearchResult
	Request       domain.ScrapeRequest
}

// ProcessFile loads one scraped JSON file (a bare list or {"jobs": [...]}),
// normalizes every record, drops the ones without an identity, and keeps the
// last occurrence per job_id.
func ProcessFile(path string) (*Batch, error) {
	meta := normalize.ParseFilenameMeta(path)

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	raw, err := decodeJobsPayload(b)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	var jobs []*domain.Job
	dropped := 0
	for _, item := range raw {
		rec, ok := item.(map[string]any)
		if !ok {
			continue
		}
		j := normalize.Flatten(rec)
		if j.JobID == "" {
			dropped++
			continue
		}
		jobs = append(jobs, j)
	}
	if dropped > 0 {
		log.Printf("[ingest] %s: dropped %d records without an id", path, dropped)
	}
	jobs = normalize.DedupeByKey(jobs, func(j *domain.Job) string { return j.JobID })

	results := make([]domain.SearchResult, 0, len(jobs))
	for _, j := range jobs {
		results = append(results, domain.SearchResult{
			SearchID:      meta.SearchID,
			JobID:         j.JobID,
			ProposalsTier: j.ProposalsTier,
			IsApplied:     j.IsApplied,
		})
	}

	return &Batch{Jobs: jobs, SearchResults: results, Request: meta}, nil
}

func decodeJobsPayload(b []byte) ([]any, error) {
	var top any
	if err := json.Unmarshal(b, &top); err != nil {
		return nil, err
	}
	switch v := top.(type) {
	case []any:
		return v, nil
	case map[string]any:
		if list, ok := v["jobs"].([]any); ok {
			return list, nil
		}
		return nil, nil
	}
	return nil, nil
}
