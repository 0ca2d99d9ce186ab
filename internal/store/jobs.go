package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"upjobs-engine/internal/domain"
)

const jobColumns = `job_id, url, title, description, description_summary,
description_summary_model, description_summary_tokens, skills, created_on,
published_on, renewed_on, duration_label, connect_price, job_type, engagement,
proposals_tier, tier_text, fixed_budget, weekly_budget, hourly_budget_min,
hourly_budget_max, currency, client_country, client_total_spent,
client_payment_verified, client_total_reviews, client_avg_feedback,
is_sts_vector_search_result, relevance_encoded, is_applied, saved, create_date`

// UpsertJobs writes canonical records keyed by job_id. Scraper-owned columns
// take the incoming value; saved and the summary trio only overwrite when the
// incoming row actually carries one, so user edits and paid-for summaries
// survive a re-scrape.
func UpsertJobs(ctx context.Context, db *sql.DB, jobs []*domain.Job) error {
	if len(jobs) == 0 {
		return nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("upsert jobs: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO jobs (`+jobColumns+`)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(job_id) DO UPDATE SET
  url=excluded.url,
  title=excluded.title,
  description=excluded.description,
  description_summary=COALESCE(excluded.description_summary, jobs.description_summary),
  description_summary_model=COALESCE(excluded.description_summary_model, jobs.description_summary_model),
  description_summary_tokens=COALESCE(excluded.description_summary_tokens, jobs.description_summary_tokens),
  skills=excluded.skills,
  created_on=excluded.created_on,
  published_on=excluded.published_on,
  renewed_on=excluded.renewed_on,
  duration_label=excluded.duration_label,
  connect_price=excluded.connect_price,
  job_type=excluded.job_type,
  engagement=excluded.engagement,
  proposals_tier=excluded.proposals_tier,
  tier_text=excluded.tier_text,
  fixed_budget=excluded.fixed_budget,
  weekly_budget=excluded.weekly_budget,
  hourly_budget_min=excluded.hourly_budget_min,
  hourly_budget_max=excluded.hourly_budget_max,
  currency=excluded.currency,
  client_country=excluded.client_country,
  client_total_spent=excluded.client_total_spent,
  client_payment_verified=excluded.client_payment_verified,
  client_total_reviews=excluded.client_total_reviews,
  client_avg_feedback=excluded.client_avg_feedback,
  is_sts_vector_search_result=excluded.is_sts_vector_search_result,
  relevance_encoded=excluded.relevance_encoded,
  is_applied=excluded.is_applied,
  saved=COALESCE(excluded.saved, jobs.saved),
  create_date=COALESCE(excluded.create_date, jobs.create_date);`)
	if err != nil {
		return fmt.Errorf("upsert jobs: prepare: %w", err)
	}
	defer stmt.Close()

	for _, j := range jobs {
		if j.JobID == "" {
			continue
		}
		skillsJSON, _ := json.Marshal(j.Skills)
		var relJSON any
		if j.RelevanceEncoded != nil {
			if b, err := json.Marshal(j.RelevanceEncoded); err == nil {
				relJSON = string(b)
			}
		}
		_, err := stmt.ExecContext(ctx,
			j.JobID, nullAny(j.URL), nullAny(j.Title), nullAny(j.Description),
			nullAny(j.DescriptionSummary), nullAny(j.DescriptionSummaryModel),
			nullAny(j.DescriptionSummaryTokens), string(skillsJSON),
			nullAny(j.CreatedOn), nullAny(j.PublishedOn), nullAny(j.RenewedOn),
			nullAny(j.DurationLabel), nullAny(j.ConnectPrice), nullAny(j.JobType),
			nullAny(j.Engagement), nullAny(j.ProposalsTier), nullAny(j.TierText),
			nullAny(j.FixedBudget), nullAny(j.WeeklyBudget),
			nullAny(j.HourlyBudgetMin), nullAny(j.HourlyBudgetMax), j.Currency,
			nullAny(j.ClientCountry), nullAny(j.ClientTotalSpent),
			nullAny(j.ClientPaymentVerified), nullAny(j.ClientTotalReviews),
			nullAny(j.ClientAvgFeedback), nullAny(j.IsSTSVectorSearchResult),
			relJSON, j.IsApplied, nullAny(j.Saved), nullAny(j.CreateDate),
		)
		if err != nil {
			return fmt.Errorf("upsert jobs: job_id=%s: %w", j.JobID, err)
		}
	}
	return tx.Commit()
}

// FetchJobs returns up to limit canonical records for a push pass.
func FetchJobs(ctx context.Context, db *sql.DB, limit int) ([]*domain.Job, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs LIMIT ?;`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch jobs: %w", err)
	}
	defer rows.Close()

	var out []*domain.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func scanJob(rows *sql.Rows) (*domain.Job, error) {
	var (
		j                    domain.Job
		url, title, desc     sql.NullString
		sum, sumModel        sql.NullString
		sumTokens            sql.NullInt64
		skillsJSON           string
		createdOn, pubOn     sql.NullString
		renewedOn, durLabel  sql.NullString
		connectPrice         sql.NullFloat64
		jobType, engagement  sql.NullString
		propTier, tierText   sql.NullString
		fixed, weekly        sql.NullFloat64
		hourlyMin, hourlyMax sql.NullFloat64
		country              sql.NullString
		totalSpent           sql.NullFloat64
		payVerified          sql.NullBool
		totalReviews, avgFb  sql.NullFloat64
		isSTS                sql.NullBool
		relJSON              sql.NullString
		saved                sql.NullBool
		createDate           sql.NullString
	)
	if err := rows.Scan(
		&j.JobID, &url, &title, &desc, &sum, &sumModel, &sumTokens, &skillsJSON,
		&createdOn, &pubOn, &renewedOn, &durLabel, &connectPrice, &jobType,
		&engagement, &propTier, &tierText, &fixed, &weekly, &hourlyMin,
		&hourlyMax, &j.Currency, &country, &totalSpent, &payVerified,
		&totalReviews, &avgFb, &isSTS, &relJSON, &j.IsApplied, &saved,
		&createDate,
	); err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}
	j.URL = nullStr(url)
	j.Title = nullStr(title)
	j.Description = nullStr(desc)
	j.DescriptionSummary = nullStr(sum)
	j.DescriptionSummaryModel = nullStr(sumModel)
	if sumTokens.Valid {
		n := int(sumTokens.Int64)
		j.DescriptionSummaryTokens = &n
	}
	j.Skills = []string{}
	_ = json.Unmarshal([]byte(skillsJSON), &j.Skills)
	j.CreatedOn = nullStr(createdOn)
	j.PublishedOn = nullStr(pubOn)
	j.RenewedOn = nullStr(renewedOn)
	j.DurationLabel = nullStr(durLabel)
	j.ConnectPrice = nullFloat(connectPrice)
	j.JobType = nullStr(jobType)
	j.Engagement = nullStr(engagement)
	j.ProposalsTier = nullStr(propTier)
	j.TierText = nullStr(tierText)
	j.FixedBudget = nullFloat(fixed)
	j.WeeklyBudget = nullFloat(weekly)
	j.HourlyBudgetMin = nullFloat(hourlyMin)
	j.HourlyBudgetMax = nullFloat(hourlyMax)
	j.ClientCountry = nullStr(country)
	j.ClientTotalSpent = nullFloat(totalSpent)
	j.ClientPaymentVerified = nullBool(payVerified)
	j.ClientTotalReviews = nullFloat(totalReviews)
	j.ClientAvgFeedback = nullFloat(avgFb)
	j.IsSTSVectorSearchResult = nullBool(isSTS)
	if relJSON.Valid {
		var decoded any
		if err := json.Unmarshal([]byte(relJSON.String), &decoded); err == nil {
			j.RelevanceEncoded = decoded
		} else {
			j.RelevanceEncoded = relJSON.String
		}
	}
	j.Saved = nullBool(saved)
	j.CreateDate = nullStr(createDate)
	return &j, nil
}

// ExistingSummaries maps job_id to its stored summary for the given ids, so
// a re-scrape doesn't pay to summarize the same description twice.
func ExistingSummaries(ctx context.Context, db *sql.DB, jobIDs []string) (map[string]string, error) {
	out := make(map[string]string)
	if len(jobIDs) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(jobIDs)), ",")
	args := make([]any, len(jobIDs))
	for i, id := range jobIDs {
		args[i] = id
	}
	rows, err := db.QueryContext(ctx, `
SELECT job_id, description_summary
FROM jobs
WHERE job_id IN (`+placeholders+`) AND description_summary IS NOT NULL;`, args...)
	if err != nil {
		return nil, fmt.Errorf("existing summaries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, summary string
		if err := rows.Scan(&id, &summary); err != nil {
			return nil, err
		}
		if summary != "" {
			out[id] = summary
		}
	}
	return out, rows.Err()
}

// SavedUpdate is one pulled edit of the Jobs tab saved column.
type SavedUpdate struct {
	JobID string
	Saved bool
}

func UpdateJobsSaved(ctx context.Context, db *sql.DB, updates []SavedUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update saved: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO jobs (job_id, saved) VALUES (?, ?)
ON CONFLICT(job_id) DO UPDATE SET saved=excluded.saved;`)
	if err != nil {
		return fmt.Errorf("update saved: prepare: %w", err)
	}
	defer stmt.Close()

	for _, u := range updates {
		if u.JobID == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, u.JobID, u.Saved); err != nil {
			return fmt.Errorf("update saved: job_id=%s: %w", u.JobID, err)
		}
	}
	return tx.Commit()
}

func nullAny[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func nullBool(v sql.NullBool) *bool {
	if !v.Valid {
		return nil
	}
	return &v.Bool
}
