package domain

import (
	"fmt"
	"time"
)

// SearchResult links one scrape batch to one job it returned.
// Identity is the composite (search_id, job_id).
type SearchResult struct {
	SearchID      string
	JobID         string
	ProposalsTier *string
	IsApplied     bool
}

// Key is the composite dedup/upsert key.
func (r SearchResult) Key() string {
	if r.SearchID == "" || r.JobID == "" {
		return ""
	}
	return r.SearchID + "::" + r.JobID
}

// Row includes search_job_key so the sheet has a single keyable column.
func (r SearchResult) Row() map[string]any {
	return map[string]any{
		"search_id":      r.SearchID,
		"job_id":         r.JobID,
		"proposals_tier": deref(r.ProposalsTier),
		"is_applied":     r.IsApplied,
		"search_job_key": r.Key(),
	}
}

var SearchResultsHeaders = []string{
	"search_id", "job_id", "proposals_tier", "is_applied", "search_job_key",
}

// ScrapeRequest describes one source file's worth of scraped records.
// SearchID is derived from the filename and is the grouping key downstream.
type ScrapeRequest struct {
	SearchID       string
	Query          *string
	Page           *int
	Filepath       string
	QueryTimestamp *time.Time
	Processed      bool
}

func (s ScrapeRequest) Row() map[string]any {
	var ts any
	if s.QueryTimestamp != nil {
		ts = s.QueryTimestamp.UTC().Format("2006-01-02T15:04:05.999999Z07:00")
	}
	return map[string]any{
		"search_id":       s.SearchID,
		"query":           deref(s.Query),
		"page":            deref(s.Page),
		"filepath":        s.Filepath,
		"query_timestamp": ts,
		"processed":       s.Processed,
	}
}

var ScrapeRequestsHeaders = []string{
	"search_id", "query", "page", "filepath", "query_timestamp", "processed",
}

// Application is a proposal submitted (or drafted) for a job. ApplicationID
// is store-assigned; zero means the row has not been persisted yet.
type Application struct {
	ApplicationID int64
	JobID         string
	FinalMessage  *string
	Status        *string
	SubmittedAt   *string
	ConnectsSpent *int
	Boosted       *bool
	ProposalURL   *string
}

func (a Application) Row() map[string]any {
	var id any
	if a.ApplicationID != 0 {
		id = a.ApplicationID
	}
	return map[string]any{
		"application_id": id,
		"job_id":         a.JobID,
		"final_message":  deref(a.FinalMessage),
		"status":         deref(a.Status),
		"submitted_at":   deref(a.SubmittedAt),
		"connects_spent": deref(a.ConnectsSpent),
		"boosted":        deref(a.Boosted),
		"proposal_url":   deref(a.ProposalURL),
	}
}

var ApplicationsHeaders = []string{
	"application_id", "job_id", "final_message", "status", "submitted_at",
	"connects_spent", "boosted", "proposal_url",
}

// JobNote is a free-text note attached to a job and optionally to an
// application. NoteID zero means new.
type JobNote struct {
	NoteID        int64
	JobID         string
	ApplicationID *int64
	Author        *string
	NoteText      *string
	CreatedAt     *string
}

func (n JobNote) Row() map[string]any {
	var id any
	if n.NoteID != 0 {
		id = n.NoteID
	}
	return map[string]any{
		"note_id":        id,
		"job_id":         n.JobID,
		"application_id": deref(n.ApplicationID),
		"author":         deref(n.Author),
		"note_text":      deref(n.NoteText),
		"created_at":     deref(n.CreatedAt),
	}
}

var JobNotesHeaders = []string{
	"note_id", "job_id", "application_id", "author", "note_text", "created_at",
}

// StatusHistory is one persisted application status change.
type StatusHistory struct {
	HistoryID     int64
	ApplicationID int64
	Status        string
	ChangedAt     *string
}

func (h StatusHistory) Row() map[string]any {
	var id any
	if h.HistoryID != 0 {
		id = h.HistoryID
	}
	return map[string]any{
		"history_id":     id,
		"application_id": h.ApplicationID,
		"status":         h.Status,
		"changed_at":     deref(h.ChangedAt),
	}
}

var StatusHistoryHeaders = []string{
	"history_id", "application_id", "status", "changed_at",
}

// StatusTransition is emitted when a pulled application status differs
// (case-insensitively) from the previously stored one.
type StatusTransition struct {
	ApplicationID int64
	Status        string // already lowercased
	ObservedAt    time.Time
}

func (t StatusTransition) String() string {
	return fmt.Sprintf("app=%d status=%q at=%s", t.ApplicationID, t.Status, t.ObservedAt.Format(time.RFC3339))
}

// TerminalApplicationStatuses are statuses that end an application's
// lifecycle; jobs whose applications all reached one can be hidden from the
// Jobs tab on push.
var TerminalApplicationStatuses = map[string]bool{
	"rejected":  true,
	"lost":      true,
	"withdrawn": true,
	"accepted":  true,
	"hired":     true,
	"won":       true,
}
