package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string
	Warnings []string
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate trims the string settings, clamps the knobs that must
// be positive, and reports anything that would make a run misbehave.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	out.App.DataDir = strings.TrimSpace(out.App.DataDir)
	out.Sheets.SpreadsheetID = strings.TrimSpace(out.Sheets.SpreadsheetID)
	out.Airtable.BaseID = strings.TrimSpace(out.Airtable.BaseID)
	out.Airtable.Table = strings.TrimSpace(out.Airtable.Table)

	if out.App.DataDir == "" {
		res.addErr("app.data_dir is required")
	}

	if out.Store.FetchLimit <= 0 {
		res.addErr("store.fetch_limit must be > 0")
	}

	if out.Sheets.BatchSize <= 0 {
		res.addErr("sheets.batch_size must be > 0")
	}
	if out.Sheets.RequestsPerSec <= 0 {
		res.addErr("sheets.requests_per_sec must be > 0")
	}
	if out.Sheets.SpreadsheetID == "" {
		res.addWarn("sheets.spreadsheet_id is empty; sheet sync commands will fail until it is set")
	}

	if out.AI.Concurrency <= 0 {
		res.addErr("ai.concurrency must be > 0")
	} else if out.AI.Concurrency > 20 {
		res.addWarn("ai.concurrency is very high (%d) and may hit provider rate limits.", out.AI.Concurrency)
	}
	if out.AI.SummaryLimit < 0 {
		res.addErr("ai.summary_limit must be >= 0")
	}
	if out.AI.MaxWords <= 0 {
		res.addErr("ai.max_words must be > 0")
	}
	if out.AI.TimeoutSeconds <= 0 {
		res.addErr("ai.timeout_seconds must be > 0")
	}
	if strings.TrimSpace(out.AI.Model) == "" {
		res.addErr("ai.model is required")
	}

	if out.Airtable.BaseID != "" && out.Airtable.Table == "" {
		res.addErr("airtable.table is required when airtable.base_id is set")
	}
	if out.Airtable.RequestsPerSec <= 0 {
		res.addErr("airtable.requests_per_sec must be > 0")
	}

	return out, res
}
