package store

import (
	"database/sql"
)

func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= 1 {
		return tx.Commit()
	}

	// ---- Schema v1 ----

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS jobs (
  job_id TEXT PRIMARY KEY,
  url TEXT,
  title TEXT,
  description TEXT,
  description_summary TEXT,
  description_summary_model TEXT,
  description_summary_tokens INTEGER,
  skills TEXT NOT NULL DEFAULT '[]',
  created_on TEXT,
  published_on TEXT,
  renewed_on TEXT,
  duration_label TEXT,
  connect_price REAL,
  job_type TEXT,
  engagement TEXT,
  proposals_tier TEXT,
  tier_text TEXT,
  fixed_budget REAL,
  weekly_budget REAL,
  hourly_budget_min REAL,
  hourly_budget_max REAL,
  currency TEXT NOT NULL DEFAULT 'USD',
  client_country TEXT,
  client_total_spent REAL,
  client_payment_verified INTEGER,
  client_total_reviews REAL,
  client_avg_feedback REAL,
  is_sts_vector_search_result INTEGER,
  relevance_encoded TEXT,
  is_applied INTEGER NOT NULL DEFAULT 0,
  saved INTEGER,
  create_date TEXT
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS search_results (
  search_id TEXT NOT NULL,
  job_id TEXT NOT NULL,
  proposals_tier TEXT,
  is_applied INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (search_id, job_id)
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS scrape_requests (
  search_id TEXT PRIMARY KEY,
  query TEXT,
  page INTEGER,
  filepath TEXT,
  query_timestamp TEXT,
  processed INTEGER NOT NULL DEFAULT 0
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS applications (
  application_id INTEGER PRIMARY KEY AUTOINCREMENT,
  job_id TEXT NOT NULL,
  final_message TEXT,
  status TEXT,
  submitted_at TEXT,
  connects_spent INTEGER,
  boosted INTEGER,
  proposal_url TEXT
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS application_status_history (
  history_id INTEGER PRIMARY KEY AUTOINCREMENT,
  application_id INTEGER NOT NULL,
  status TEXT NOT NULL,
  changed_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS job_notes (
  note_id INTEGER PRIMARY KEY AUTOINCREMENT,
  job_id TEXT NOT NULL,
  application_id INTEGER,
  author TEXT,
  note_text TEXT,
  created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_search_results_job ON search_results(job_id);
`); err != nil {
		return err
	}
	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_applications_job ON applications(job_id);
`); err != nil {
		return err
	}
	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_status_history_app ON application_status_history(application_id);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}

	return tx.Commit()
}
