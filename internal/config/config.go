package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		DataDir    string `yaml:"data_dir"`
		ScrapeDir  string `yaml:"scrape_dir"`
		SearchURLs string `yaml:"search_urls"`
	} `yaml:"app"`

	Store struct {
		Path       string `yaml:"path"`
		FetchLimit int    `yaml:"fetch_limit"`
	} `yaml:"store"`

	Sheets struct {
		SpreadsheetID   string  `yaml:"spreadsheet_id"`
		CredentialsFile string  `yaml:"credentials_file"`
		TokenFile       string  `yaml:"token_file"`
		BatchSize       int     `yaml:"batch_size"`
		RequestsPerSec  float64 `yaml:"requests_per_sec"`
	} `yaml:"sheets"`

	AI struct {
		Model          string `yaml:"model"`
		MaxWords       int    `yaml:"max_words"`
		SummaryLimit   int    `yaml:"summary_limit"`
		Concurrency    int    `yaml:"concurrency"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"ai"`

	Airtable struct {
		BaseID         string  `yaml:"base_id"`
		Table          string  `yaml:"table"`
		RequestsPerSec float64 `yaml:"requests_per_sec"`
	} `yaml:"airtable"`
}

func Default() Config {
	var cfg Config
	cfg.App.DataDir = "data"
	cfg.App.ScrapeDir = "scrapes"
	cfg.App.SearchURLs = "search_urls.yml"
	cfg.Store.Path = "upjobs.db"
	cfg.Store.FetchLimit = 5000
	cfg.Sheets.CredentialsFile = "credentials.json"
	cfg.Sheets.TokenFile = "token.json"
	cfg.Sheets.BatchSize = 200
	cfg.Sheets.RequestsPerSec = 1
	cfg.AI.Model = "gpt-4o-mini"
	cfg.AI.MaxWords = 50
	cfg.AI.SummaryLimit = 25
	cfg.AI.Concurrency = 5
	cfg.AI.TimeoutSeconds = 60
	cfg.Airtable.Table = "Jobs"
	cfg.Airtable.RequestsPerSec = 4
	return cfg
}

func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

// ResolvePaths anchors relative file settings under the data dir.
func ResolvePaths(cfg *Config) {
	anchor := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(cfg.App.DataDir, p)
	}
	cfg.App.ScrapeDir = anchor(cfg.App.ScrapeDir)
	cfg.App.SearchURLs = anchor(cfg.App.SearchURLs)
	cfg.Store.Path = anchor(cfg.Store.Path)
	cfg.Sheets.CredentialsFile = anchor(cfg.Sheets.CredentialsFile)
	cfg.Sheets.TokenFile = anchor(cfg.Sheets.TokenFile)
}
