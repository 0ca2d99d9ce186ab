package config

import (
	"os"
	"strconv"
)

// OverlayEnv lets environment variables override file settings, so deploy
// targets and CI can avoid editing config.yml.
func OverlayEnv(cfg *Config) {
	if v := os.Getenv("UPJOBS_DATA_DIR"); v != "" {
		cfg.App.DataDir = v
	}
	if v := os.Getenv("UPJOBS_SCRAPE_DIR"); v != "" {
		cfg.App.ScrapeDir = v
	}
	if v := os.Getenv("UPJOBS_SPREADSHEET_ID"); v != "" {
		cfg.Sheets.SpreadsheetID = v
	}
	if v := os.Getenv("UPJOBS_AI_MODEL"); v != "" {
		cfg.AI.Model = v
	}
	if v := os.Getenv("UPJOBS_AI_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AI.Concurrency = n
		}
	}
	if v := os.Getenv("AIRTABLE_BASE_ID"); v != "" {
		cfg.Airtable.BaseID = v
	}
}
