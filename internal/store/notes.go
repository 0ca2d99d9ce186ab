package store

import (
	"context"
	"database/sql"
	"fmt"

	"upjobs-engine/internal/domain"
)

// InsertJobNotes creates notes pulled from the mirror that carry no note_id.
// Rows without a job_id or note text are skipped.
func InsertJobNotes(ctx context.Context, db *sql.DB, notes []domain.JobNote) error {
	if len(notes) == 0 {
		return nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert notes: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO job_notes (job_id, application_id, author, note_text)
VALUES (?, ?, ?, ?);`)
	if err != nil {
		return fmt.Errorf("insert notes: prepare: %w", err)
	}
	defer stmt.Close()

	for _, n := range notes {
		if n.JobID == "" || n.NoteText == nil || *n.NoteText == "" {
			continue
		}
		author := "user"
		if n.Author != nil && *n.Author != "" {
			author = *n.Author
		}
		if _, err := stmt.ExecContext(ctx, n.JobID, nullAny(n.ApplicationID), author, *n.NoteText); err != nil {
			return fmt.Errorf("insert notes: job_id=%s: %w", n.JobID, err)
		}
	}
	return tx.Commit()
}

// UpdateJobNotes applies pulled edits to existing notes.
func UpdateJobNotes(ctx context.Context, db *sql.DB, notes []domain.JobNote) error {
	for _, n := range notes {
		if n.NoteID == 0 {
			continue
		}
		_, err := db.ExecContext(ctx, `
UPDATE job_notes SET
  note_text = ?,
  author = ?,
  application_id = ?
WHERE note_id = ?;`,
			nullAny(n.NoteText), nullAny(n.Author), nullAny(n.ApplicationID), n.NoteID)
		if err != nil {
			return fmt.Errorf("update notes: note_id=%d: %w", n.NoteID, err)
		}
	}
	return nil
}

func FetchJobNotes(ctx context.Context, db *sql.DB, limit int) ([]domain.JobNote, error) {
	rows, err := db.QueryContext(ctx, `
SELECT note_id, job_id, application_id, author, note_text, created_at
FROM job_notes
LIMIT ?;`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch notes: %w", err)
	}
	defer rows.Close()

	var out []domain.JobNote
	for rows.Next() {
		var (
			n       domain.JobNote
			appID   sql.NullInt64
			author  sql.NullString
			text    sql.NullString
			created sql.NullString
		)
		if err := rows.Scan(&n.NoteID, &n.JobID, &appID, &author, &text, &created); err != nil {
			return nil, err
		}
		if appID.Valid {
			n.ApplicationID = &appID.Int64
		}
		n.Author = nullStr(author)
		n.NoteText = nullStr(text)
		n.CreatedAt = nullStr(created)
		out = append(out, n)
	}
	return out, rows.Err()
}
