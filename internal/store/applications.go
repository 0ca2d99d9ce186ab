package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"upjobs-engine/internal/domain"
)

// InsertApplications creates rows pulled from the mirror that carry no
// application_id yet. Status defaults to draft.
func InsertApplications(ctx context.Context, db *sql.DB, apps []domain.Application) error {
	if len(apps) == 0 {
		return nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert applications: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO applications (job_id, final_message, status, submitted_at, connects_spent, boosted, proposal_url)
VALUES (?, ?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return fmt.Errorf("insert applications: prepare: %w", err)
	}
	defer stmt.Close()

	for _, a := range apps {
		if a.JobID == "" {
			continue
		}
		status := "draft"
		if a.Status != nil && *a.Status != "" {
			status = *a.Status
		}
		_, err := stmt.ExecContext(ctx, a.JobID, nullAny(a.FinalMessage), status,
			nullAny(a.SubmittedAt), nullAny(a.ConnectsSpent), nullAny(a.Boosted),
			nullAny(a.ProposalURL))
		if err != nil {
			return fmt.Errorf("insert applications: job_id=%s: %w", a.JobID, err)
		}
	}
	return tx.Commit()
}

// UpdateApplications applies pulled edits to existing rows, field by field,
// last writer wins.
func UpdateApplications(ctx context.Context, db *sql.DB, apps []domain.Application) error {
	for _, a := range apps {
		if a.ApplicationID == 0 {
			continue
		}
		_, err := db.ExecContext(ctx, `
UPDATE applications SET
  final_message = ?,
  status = ?,
  submitted_at = ?,
  connects_spent = ?,
  boosted = ?,
  proposal_url = ?
WHERE application_id = ?;`,
			nullAny(a.FinalMessage), nullAny(a.Status), nullAny(a.SubmittedAt),
			nullAny(a.ConnectsSpent), nullAny(a.Boosted), nullAny(a.ProposalURL),
			a.ApplicationID)
		if err != nil {
			return fmt.Errorf("update applications: application_id=%d: %w", a.ApplicationID, err)
		}
	}
	return nil
}

func FetchApplications(ctx context.Context, db *sql.DB, limit int) ([]domain.Application, error) {
	rows, err := db.QueryContext(ctx, `
SELECT application_id, job_id, final_message, status, submitted_at, connects_spent, boosted, proposal_url
FROM applications
LIMIT ?;`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch applications: %w", err)
	}
	defer rows.Close()

	var out []domain.Application
	for rows.Next() {
		var (
			a           domain.Application
			msg, status sql.NullString
			submitted   sql.NullString
			connects    sql.NullInt64
			boosted     sql.NullBool
			proposalURL sql.NullString
		)
		if err := rows.Scan(&a.ApplicationID, &a.JobID, &msg, &status, &submitted, &connects, &boosted, &proposalURL); err != nil {
			return nil, err
		}
		a.FinalMessage = nullStr(msg)
		a.Status = nullStr(status)
		a.SubmittedAt = nullStr(submitted)
		if connects.Valid {
			n := int(connects.Int64)
			a.ConnectsSpent = &n
		}
		a.Boosted = nullBool(boosted)
		a.ProposalURL = nullStr(proposalURL)
		out = append(out, a)
	}
	return out, rows.Err()
}

// ApplicationStatusMap snapshots every application's current status, keyed by
// id. The pull pass captures it before applying updates so transitions can be
// detected afterwards.
func ApplicationStatusMap(ctx context.Context, db *sql.DB) (map[int64]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT application_id, status FROM applications;`)
	if err != nil {
		return nil, fmt.Errorf("status map: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]string)
	for rows.Next() {
		var id int64
		var status sql.NullString
		if err := rows.Scan(&id, &status); err != nil {
			return nil, err
		}
		out[id] = strings.ToLower(status.String)
	}
	return out, rows.Err()
}

// InsertStatusHistory appends audit rows for detected status transitions.
func InsertStatusHistory(ctx context.Context, db *sql.DB, transitions []domain.StatusTransition) error {
	if len(transitions) == 0 {
		return nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert status history: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO application_status_history (application_id, status, changed_at)
VALUES (?, ?, ?);`)
	if err != nil {
		return fmt.Errorf("insert status history: prepare: %w", err)
	}
	defer stmt.Close()

	for _, tr := range transitions {
		if tr.ApplicationID == 0 || tr.Status == "" {
			continue
		}
		at := tr.ObservedAt
		if at.IsZero() {
			at = time.Now().UTC()
		}
		if _, err := stmt.ExecContext(ctx, tr.ApplicationID, tr.Status, at.UTC().Format(time.RFC3339)); err != nil {
			return fmt.Errorf("insert status history: application_id=%d: %w", tr.ApplicationID, err)
		}
	}
	return tx.Commit()
}

func FetchStatusHistory(ctx context.Context, db *sql.DB, limit int) ([]domain.StatusHistory, error) {
	rows, err := db.QueryContext(ctx, `
SELECT history_id, application_id, status, changed_at
FROM application_status_history
LIMIT ?;`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch status history: %w", err)
	}
	defer rows.Close()

	var out []domain.StatusHistory
	for rows.Next() {
		var h domain.StatusHistory
		var changed sql.NullString
		if err := rows.Scan(&h.HistoryID, &h.ApplicationID, &h.Status, &changed); err != nil {
			return nil, err
		}
		h.ChangedAt = nullStr(changed)
		out = append(out, h)
	}
	return out, rows.Err()
}
