package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"upjobs-engine/internal/domain"
	"upjobs-engine/internal/mirror"
	"upjobs-engine/internal/normalize"
	"upjobs-engine/internal/store"
)

// PullStats counts what a pull pass applied.
type PullStats struct {
	JobsSaved      int
	ResultsApplied int
	NotesNew       int
	NotesUpdated   int
	AppsNew        int
	AppsUpdated    int
	Transitions    int
}

// PullSheets applies human edits from the mirror back to the store: the
// saved flag on Jobs, is_applied on SearchResults, and full-row edits on
// JobNotes and Applications (rows without an id are inserts). A tab that
// cannot be read degrades to zero rows for that tab; store writes still
// fail the pass.
func (p *Pipeline) PullSheets(ctx context.Context) (PullStats, error) {
	var stats PullStats

	saved := parseSavedEdits(p.tabRecords(TabJobs))
	if err := store.UpdateJobsSaved(ctx, p.DB, saved); err != nil {
		return stats, fmt.Errorf("apply jobs.saved: %w", err)
	}
	stats.JobsSaved = len(saved)

	applied := parseAppliedEdits(p.tabRecords(TabSearchResults))
	if err := store.UpdateSearchResultsApplied(ctx, p.DB, applied); err != nil {
		return stats, fmt.Errorf("apply search_results.is_applied: %w", err)
	}
	stats.ResultsApplied = len(applied)

	notesNew, notesUpdate := parseNoteEdits(p.tabRecords(TabJobNotes))
	if err := store.InsertJobNotes(ctx, p.DB, notesNew); err != nil {
		return stats, fmt.Errorf("insert job notes: %w", err)
	}
	if err := store.UpdateJobNotes(ctx, p.DB, notesUpdate); err != nil {
		return stats, fmt.Errorf("update job notes: %w", err)
	}
	stats.NotesNew, stats.NotesUpdated = len(notesNew), len(notesUpdate)

	appsNew, appsUpdate := parseApplicationEdits(p.tabRecords(TabApplications))
	if err := store.InsertApplications(ctx, p.DB, appsNew); err != nil {
		return stats, fmt.Errorf("insert applications: %w", err)
	}
	stats.AppsNew = len(appsNew)

	if len(appsUpdate) > 0 {
		before, err := store.ApplicationStatusMap(ctx, p.DB)
		if err != nil {
			return stats, fmt.Errorf("status map: %w", err)
		}
		if err := store.UpdateApplications(ctx, p.DB, appsUpdate); err != nil {
			return stats, fmt.Errorf("update applications: %w", err)
		}
		transitions := ComputeStatusTransitions(before, appsUpdate, time.Now().UTC())
		if err := store.InsertStatusHistory(ctx, p.DB, transitions); err != nil {
			return stats, fmt.Errorf("insert status history: %w", err)
		}
		stats.AppsUpdated = len(appsUpdate)
		stats.Transitions = len(transitions)
	}

	log.Printf("[sheets] pull complete (saved: %d, is_applied: %d, notes: +%d/~%d, apps: +%d/~%d, transitions: %d)",
		stats.JobsSaved, stats.ResultsApplied, stats.NotesNew, stats.NotesUpdated,
		stats.AppsNew, stats.AppsUpdated, stats.Transitions)
	return stats, nil
}

// tabRecords reads a tab, degrading to no rows when the tab is missing or
// unreadable.
func (p *Pipeline) tabRecords(title string) []map[string]string {
	ws, err := p.Sheets.Worksheet(title, 1)
	if err != nil {
		log.Printf("[sheets] %s: skipped: %v", title, err)
		return nil
	}
	recs, err := mirror.Records(ws)
	if err != nil {
		log.Printf("[sheets] %s: skipped: %v", title, err)
		return nil
	}
	return recs
}

func parseSavedEdits(recs []map[string]string) []store.SavedUpdate {
	var out []store.SavedUpdate
	for _, r := range recs {
		jid := strings.TrimSpace(r["job_id"])
		saved, ok := mirror.CoerceBool(r["saved"])
		if jid == "" || !ok {
			continue
		}
		out = append(out, store.SavedUpdate{JobID: jid, Saved: saved})
	}
	return normalize.DedupeByKey(out, func(u store.SavedUpdate) string { return u.JobID })
}

func parseAppliedEdits(recs []map[string]string) []store.AppliedUpdate {
	var out []store.AppliedUpdate
	for _, r := range recs {
		sid := strings.TrimSpace(r["search_id"])
		jid := strings.TrimSpace(r["job_id"])
		applied, ok := mirror.CoerceBool(r["is_applied"])
		if sid == "" || jid == "" || !ok {
			continue
		}
		out = append(out, store.AppliedUpdate{SearchID: sid, JobID: jid, IsApplied: applied})
	}
	return normalize.DedupeByKey(out, func(u store.AppliedUpdate) string {
		return u.SearchID + "::" + u.JobID
	})
}

func parseNoteEdits(recs []map[string]string) (newNotes, updates []domain.JobNote) {
	for _, r := range recs {
		note := domain.JobNote{
			JobID:    strings.TrimSpace(r["job_id"]),
			Author:   strOrNil(r["author"]),
			NoteText: strOrNil(r["note_text"]),
		}
		if appID, ok := mirror.CoerceInt(r["application_id"]); ok {
			id := int64(appID)
			note.ApplicationID = &id
		}
		if noteID, ok := mirror.CoerceInt(r["note_id"]); ok && noteID != 0 {
			note.NoteID = int64(noteID)
			updates = append(updates, note)
		} else if note.JobID != "" && note.NoteText != nil {
			newNotes = append(newNotes, note)
		}
	}
	return newNotes, updates
}

func parseApplicationEdits(recs []map[string]string) (newApps, updates []domain.Application) {
	for _, r := range recs {
		app := domain.Application{
			JobID:        strings.TrimSpace(r["job_id"]),
			FinalMessage: strOrNil(r["final_message"]),
			SubmittedAt:  strOrNil(r["submitted_at"]),
			ProposalURL:  strOrNil(r["proposal_url"]),
		}
		if status, ok := mirror.CoerceStatus(r["status"]); ok {
			app.Status = &status
		}
		if spent, ok := mirror.CoerceInt(r["connects_spent"]); ok {
			app.ConnectsSpent = &spent
		}
		if boosted, ok := mirror.CoerceBool(r["boosted"]); ok {
			app.Boosted = &boosted
		}
		if appID, ok := mirror.CoerceInt(r["application_id"]); ok && appID != 0 {
			app.ApplicationID = int64(appID)
			updates = append(updates, app)
		} else if app.JobID != "" {
			newApps = append(newApps, app)
		}
	}
	return newApps, updates
}

// ComputeStatusTransitions compares updated application statuses with the
// statuses held before the update and emits one transition per application
// whose status actually changed (case-insensitively, empty never counts).
func ComputeStatusTransitions(before map[int64]string, updates []domain.Application, observedAt time.Time) []domain.StatusTransition {
	var out []domain.StatusTransition
	for _, u := range updates {
		if u.Status == nil {
			continue
		}
		newStatus := strings.ToLower(strings.TrimSpace(*u.Status))
		if newStatus == "" {
			continue
		}
		oldStatus := strings.ToLower(before[u.ApplicationID])
		if newStatus == oldStatus {
			continue
		}
		out = append(out, domain.StatusTransition{
			ApplicationID: u.ApplicationID,
			Status:        newStatus,
			ObservedAt:    observedAt,
		})
	}
	return out
}

func strOrNil(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
