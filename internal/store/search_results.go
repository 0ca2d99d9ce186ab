package store

import (
	"context"
	"database/sql"
	"fmt"

	"upjobs-engine/internal/domain"
)

// UpsertSearchResults writes batch links keyed by (search_id, job_id).
func UpsertSearchResults(ctx context.Context, db *sql.DB, rows []domain.SearchResult) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("upsert search_results: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO search_results (search_id, job_id, proposals_tier, is_applied)
VALUES (?, ?, ?, ?)
ON CONFLICT(search_id, job_id) DO UPDATE SET
  proposals_tier=excluded.proposals_tier,
  is_applied=excluded.is_applied;`)
	if err != nil {
		return fmt.Errorf("upsert search_results: prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if r.SearchID == "" || r.JobID == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, r.SearchID, r.JobID, nullAny(r.ProposalsTier), r.IsApplied); err != nil {
			return fmt.Errorf("upsert search_results: %s/%s: %w", r.SearchID, r.JobID, err)
		}
	}
	return tx.Commit()
}

func FetchSearchResults(ctx context.Context, db *sql.DB, limit int) ([]domain.SearchResult, error) {
	rows, err := db.QueryContext(ctx, `
SELECT search_id, job_id, proposals_tier, is_applied
FROM search_results
LIMIT ?;`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch search_results: %w", err)
	}
	defer rows.Close()

	var out []domain.SearchResult
	for rows.Next() {
		var r domain.SearchResult
		var tier sql.NullString
		if err := rows.Scan(&r.SearchID, &r.JobID, &tier, &r.IsApplied); err != nil {
			return nil, err
		}
		r.ProposalsTier = nullStr(tier)
		out = append(out, r)
	}
	return out, rows.Err()
}

// AppliedUpdate is one pulled edit of the SearchResults tab is_applied column.
type AppliedUpdate struct {
	SearchID  string
	JobID     string
	IsApplied bool
}

func UpdateSearchResultsApplied(ctx context.Context, db *sql.DB, updates []AppliedUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update is_applied: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO search_results (search_id, job_id, is_applied)
VALUES (?, ?, ?)
ON CONFLICT(search_id, job_id) DO UPDATE SET is_applied=excluded.is_applied;`)
	if err != nil {
		return fmt.Errorf("update is_applied: prepare: %w", err)
	}
	defer stmt.Close()

	for _, u := range updates {
		if u.SearchID == "" || u.JobID == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, u.SearchID, u.JobID, u.IsApplied); err != nil {
			return fmt.Errorf("update is_applied: %s/%s: %w", u.SearchID, u.JobID, err)
		}
	}
	return tx.Commit()
}
