package ai

import (
	"strings"
	"text/template"

	"upjobs-engine/internal/domain"
)

var summaryTmpl = template.Must(template.New("job_summary").Parse(`Summarize the following job post in at most {{.MaxWords}} words. Focus on what the work is, the required skills, and anything unusual about budget or client. Plain text, no preamble.

Title: {{or .Title "(none)"}}
Duration: {{or .DurationLabel "(unspecified)"}}
{{- if .FixedBudget}}
Fixed budget: {{.FixedBudget}} {{.Currency}}
{{- else if or .HourlyMin .HourlyMax}}
Hourly: {{or .HourlyMin "?"}}-{{or .HourlyMax "?"}} {{.Currency}}
{{- end}}
Client country: {{or .ClientCountry "(unknown)"}}
Payment verified: {{.PaymentVerified}}

Description:
{{.Description}}
`))

type promptData struct {
	MaxWords        int
	Title           any
	DurationLabel   any
	FixedBudget     any
	HourlyMin       any
	HourlyMax       any
	Currency        string
	ClientCountry   any
	PaymentVerified bool
	Description     string
}

// RenderSummaryPrompt builds the completion prompt for one job.
func RenderSummaryPrompt(job *domain.Job, maxWords int) (string, error) {
	data := promptData{
		MaxWords:        maxWords,
		Currency:        job.Currency,
		PaymentVerified: job.ClientPaymentVerified != nil && *job.ClientPaymentVerified,
	}
	if job.Title != nil {
		data.Title = *job.Title
	}
	if job.DurationLabel != nil {
		data.DurationLabel = *job.DurationLabel
	}
	if job.FixedBudget != nil {
		data.FixedBudget = *job.FixedBudget
	}
	if job.HourlyBudgetMin != nil {
		data.HourlyMin = *job.HourlyBudgetMin
	}
	if job.HourlyBudgetMax != nil {
		data.HourlyMax = *job.HourlyBudgetMax
	}
	if job.ClientCountry != nil {
		data.ClientCountry = *job.ClientCountry
	}
	if job.Description != nil {
		data.Description = *job.Description
	}

	var b strings.Builder
	if err := summaryTmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
