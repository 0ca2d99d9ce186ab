package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"upjobs-engine/internal/domain"
	"upjobs-engine/internal/mirror"
	"upjobs-engine/internal/store"
)

// Tab titles in the mirror spreadsheet.
const (
	TabJobs          = "Jobs"
	TabSearchResults = "SearchResults"
	TabScrapeReqs    = "ScrapeRequests"
	TabJobNotes      = "JobNotes"
	TabApplications  = "Applications"
	TabStatusHistory = "ApplicationStatusHistory"
)

// PushSheets mirrors all six store tables into spreadsheet tabs. With
// hideTerminal set, jobs that have an application in a terminal status are
// left off the Jobs tab (their rows elsewhere still sync).
func (p *Pipeline) PushSheets(ctx context.Context, hideTerminal bool) error {
	jobs, err := store.FetchJobs(ctx, p.DB, p.FetchLimit)
	if err != nil {
		return fmt.Errorf("fetch jobs: %w", err)
	}
	results, err := store.FetchSearchResults(ctx, p.DB, p.FetchLimit)
	if err != nil {
		return fmt.Errorf("fetch search results: %w", err)
	}
	requests, err := store.FetchScrapeRequests(ctx, p.DB, p.FetchLimit)
	if err != nil {
		return fmt.Errorf("fetch scrape requests: %w", err)
	}
	notes, err := store.FetchJobNotes(ctx, p.DB, p.FetchLimit)
	if err != nil {
		return fmt.Errorf("fetch job notes: %w", err)
	}
	apps, err := store.FetchApplications(ctx, p.DB, p.FetchLimit)
	if err != nil {
		return fmt.Errorf("fetch applications: %w", err)
	}
	history, err := store.FetchStatusHistory(ctx, p.DB, p.FetchLimit)
	if err != nil {
		return fmt.Errorf("fetch status history: %w", err)
	}

	if hideTerminal {
		jobs = filterTerminal(jobs, apps)
	}

	jobRows := make([]map[string]any, 0, len(jobs))
	for _, j := range jobs {
		jobRows = append(jobRows, j.Row())
	}
	srRows := make([]map[string]any, 0, len(results))
	for _, r := range results {
		if r.Key() == "" {
			continue
		}
		srRows = append(srRows, r.Row())
	}
	reqRows := make([]map[string]any, 0, len(requests))
	for _, r := range requests {
		reqRows = append(reqRows, r.Row())
	}
	noteRows := make([]map[string]any, 0, len(notes))
	for _, n := range notes {
		noteRows = append(noteRows, n.Row())
	}
	appRows := make([]map[string]any, 0, len(apps))
	for _, a := range apps {
		appRows = append(appRows, a.Row())
	}
	histRows := make([]map[string]any, 0, len(history))
	for _, h := range history {
		histRows = append(histRows, h.Row())
	}

	tabs := []struct {
		title   string
		headers []string
		rows    []map[string]any
		key     string
	}{
		{TabJobs, domain.JobsHeaders, jobRows, "job_id"},
		{TabSearchResults, domain.SearchResultsHeaders, srRows, "search_job_key"},
		{TabScrapeReqs, domain.ScrapeRequestsHeaders, reqRows, "search_id"},
		{TabJobNotes, domain.JobNotesHeaders, noteRows, "note_id"},
		{TabApplications, domain.ApplicationsHeaders, appRows, "application_id"},
		{TabStatusHistory, domain.StatusHistoryHeaders, histRows, "history_id"},
	}
	for _, tab := range tabs {
		ws, err := p.Sheets.Worksheet(tab.title, len(tab.headers))
		if err != nil {
			return fmt.Errorf("open tab %s: %w", tab.title, err)
		}
		if err := mirror.UpsertRows(ws, tab.headers, tab.rows, tab.key, p.BatchSize); err != nil {
			return err
		}
		log.Printf("[sheets] %s: synced %d rows", tab.title, len(tab.rows))
	}
	return nil
}

func filterTerminal(jobs []*domain.Job, apps []domain.Application) []*domain.Job {
	hide := make(map[string]bool)
	for _, a := range apps {
		if a.Status == nil {
			continue
		}
		if domain.TerminalApplicationStatuses[strings.ToLower(*a.Status)] {
			hide[a.JobID] = true
		}
	}
	if len(hide) == 0 {
		return jobs
	}
	out := jobs[:0:0]
	for _, j := range jobs {
		if !hide[j.JobID] {
			out = append(out, j)
		}
	}
	return out
}
