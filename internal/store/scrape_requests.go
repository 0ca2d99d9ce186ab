package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"upjobs-engine/internal/domain"
)

// UpsertScrapeRequest records one batch's metadata. The processed flag is
// deliberately not overwritten here: it only flips via MarkProcessed after
// the batch's rows are durably written downstream.
func UpsertScrapeRequest(ctx context.Context, db *sql.DB, req domain.ScrapeRequest) error {
	if req.SearchID == "" {
		return nil
	}
	var ts any
	if req.QueryTimestamp != nil {
		ts = req.QueryTimestamp.UTC().Format("2006-01-02T15:04:05.999999Z07:00")
	}
	_, err := db.ExecContext(ctx, `
INSERT INTO scrape_requests (search_id, query, page, filepath, query_timestamp, processed)
VALUES (?, ?, ?, ?, ?, 0)
ON CONFLICT(search_id) DO UPDATE SET
  query=excluded.query,
  page=excluded.page,
  filepath=excluded.filepath,
  query_timestamp=excluded.query_timestamp;`,
		req.SearchID, nullAny(req.Query), nullAny(req.Page), req.Filepath, ts)
	if err != nil {
		return fmt.Errorf("upsert scrape_request: search_id=%s: %w", req.SearchID, err)
	}
	return nil
}

// MarkProcessed gates re-processing of a batch.
func MarkProcessed(ctx context.Context, db *sql.DB, searchID string, processed bool) error {
	if searchID == "" {
		return nil
	}
	_, err := db.ExecContext(ctx,
		`UPDATE scrape_requests SET processed = ? WHERE search_id = ?;`,
		processed, searchID)
	if err != nil {
		return fmt.Errorf("mark processed: search_id=%s: %w", searchID, err)
	}
	return nil
}

func FetchScrapeRequests(ctx context.Context, db *sql.DB, limit int) ([]domain.ScrapeRequest, error) {
	rows, err := db.QueryContext(ctx, `
SELECT search_id, query, page, filepath, query_timestamp, processed
FROM scrape_requests
LIMIT ?;`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch scrape_requests: %w", err)
	}
	defer rows.Close()

	var out []domain.ScrapeRequest
	for rows.Next() {
		var (
			r        domain.ScrapeRequest
			query    sql.NullString
			page     sql.NullInt64
			filepath sql.NullString
			ts       sql.NullString
		)
		if err := rows.Scan(&r.SearchID, &query, &page, &filepath, &ts, &r.Processed); err != nil {
			return nil, err
		}
		r.Query = nullStr(query)
		if page.Valid {
			p := int(page.Int64)
			r.Page = &p
		}
		if filepath.Valid {
			r.Filepath = filepath.String
		}
		if ts.Valid {
			if parsed, err := time.Parse("2006-01-02T15:04:05.999999Z07:00", ts.String); err == nil {
				parsed = parsed.UTC()
				r.QueryTimestamp = &parsed
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
