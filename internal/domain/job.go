package domain

// Job is the canonical normalized representation of one Upwork listing.
// job_id is the stable identity across scrapes; everything else may be
// absent in the raw payload, so nullable fields are pointers.
type Job struct {
	JobID                    string
	URL                      *string
	Title                    *string
	Description              *string
	DescriptionSummary       *string
	DescriptionSummaryModel  *string
	DescriptionSummaryTokens *int
	Skills                   []string // never nil
	CreatedOn                *string
	PublishedOn              *string
	RenewedOn                *string
	DurationLabel            *string
	ConnectPrice             *float64
	JobType                  *string // fixed | hourly
	Engagement               *string
	ProposalsTier            *string
	TierText                 *string
	FixedBudget              *float64
	WeeklyBudget             *float64
	HourlyBudgetMin          *float64
	HourlyBudgetMax          *float64
	Currency                 string
	ClientCountry            *string
	ClientTotalSpent         *float64
	ClientPaymentVerified    *bool
	ClientTotalReviews       *float64
	ClientAvgFeedback        *float64
	IsSTSVectorSearchResult  *bool
	RelevanceEncoded         any // map, list or raw string
	IsApplied                bool
	Saved                    *bool
	CreateDate               *string // YYYY-MM-DD derived from created_on
}

// JobsHeaders is the Jobs tab column order. Row projection and the sheet
// header row both follow it.
var JobsHeaders = []string{
	"job_id",
	"url",
	"title",
	"description",
	"description_summary",
	"description_summary_model",
	"description_summary_tokens",
	"skills",
	"created_on",
	"published_on",
	"renewed_on",
	"duration_label",
	"connect_price",
	"job_type",
	"engagement",
	"proposals_tier",
	"tier_text",
	"fixed_budget",
	"weekly_budget",
	"hourly_budget_min",
	"hourly_budget_max",
	"currency",
	"client_country",
	"client_total_spent",
	"client_payment_verified",
	"client_total_reviews",
	"client_avg_feedback",
	"is_sts_vector_search_result",
	"relevance_encoded",
	"is_applied",
	"saved",
	"create_date",
}

// Row projects the job onto its named columns. Every header key is present;
// unset fields map to nil.
func (j *Job) Row() map[string]any {
	var jobID any
	if j.JobID != "" {
		jobID = j.JobID
	}
	return map[string]any{
		"job_id":                      jobID,
		"url":                         deref(j.URL),
		"title":                       deref(j.Title),
		"description":                 deref(j.Description),
		"description_summary":         deref(j.DescriptionSummary),
		"description_summary_model":   deref(j.DescriptionSummaryModel),
		"description_summary_tokens":  deref(j.DescriptionSummaryTokens),
		"skills":                      j.Skills,
		"created_on":                  deref(j.CreatedOn),
		"published_on":                deref(j.PublishedOn),
		"renewed_on":                  deref(j.RenewedOn),
		"duration_label":              deref(j.DurationLabel),
		"connect_price":               deref(j.ConnectPrice),
		"job_type":                    deref(j.JobType),
		"engagement":                  deref(j.Engagement),
		"proposals_tier":              deref(j.ProposalsTier),
		"tier_text":                   deref(j.TierText),
		"fixed_budget":                deref(j.FixedBudget),
		"weekly_budget":               deref(j.WeeklyBudget),
		"hourly_budget_min":           deref(j.HourlyBudgetMin),
		"hourly_budget_max":           deref(j.HourlyBudgetMax),
		"currency":                    j.Currency,
		"client_country":              deref(j.ClientCountry),
		"client_total_spent":          deref(j.ClientTotalSpent),
		"client_payment_verified":     deref(j.ClientPaymentVerified),
		"client_total_reviews":        deref(j.ClientTotalReviews),
		"client_avg_feedback":         deref(j.ClientAvgFeedback),
		"is_sts_vector_search_result": deref(j.IsSTSVectorSearchResult),
		"relevance_encoded":           j.RelevanceEncoded,
		"is_applied":                  j.IsApplied,
		"saved":                       deref(j.Saved),
		"create_date":                 deref(j.CreateDate),
	}
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
