package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"upjobs-engine/internal/ai"
	"upjobs-engine/internal/airtable"
	"upjobs-engine/internal/config"
	"upjobs-engine/internal/mirror/gsheets"
	"upjobs-engine/internal/pipeline"
	"upjobs-engine/internal/secrets"
	"upjobs-engine/internal/store"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Fatalf("[run] %v", err)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "upjobs",
		Short:         "Upwork ETL: scraped pages to SQLite, Sheets and Airtable",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newRunAllCommand())
	cmd.AddCommand(newProcessFileCommand())
	cmd.AddCommand(newSheetsPushCommand())
	cmd.AddCommand(newSheetsPullCommand())
	cmd.AddCommand(newAirtablePushCommand())
	cmd.AddCommand(newOpenURLsCommand())
	cmd.AddCommand(newCleanupCommand())
	return cmd
}

// loadConfig bootstraps the data dir, seeds config.yml on first run, applies
// env overrides and validates.
func loadConfig() (config.Config, error) {
	dataDir := os.Getenv("UPJOBS_DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}
	path, err := config.EnsureUserConfig(dataDir)
	if err != nil {
		return config.Config{}, fmt.Errorf("config bootstrap: %w", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("config load (%s): %w", path, err)
	}
	cfg.App.DataDir = dataDir
	config.OverlayEnv(&cfg)

	cfg, res := config.NormalizeAndValidate(cfg)
	for _, w := range res.Warnings {
		log.Printf("[run] config warning: %s", w)
	}
	if !res.OK() {
		return config.Config{}, fmt.Errorf("config invalid: %v", res.Errors)
	}
	config.ResolvePaths(&cfg)
	return cfg, nil
}

// openPipeline assembles the pipeline from config. The sheets client is only
// dialed when asked for; the summarizer and Airtable client appear when their
// credentials are present.
func openPipeline(ctx context.Context, cfg config.Config, withSheets bool) (*pipeline.Pipeline, func(), error) {
	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	closeDB := func() { _ = db.Close() }

	p := &pipeline.Pipeline{
		DB:         db.Pool,
		FetchLimit: cfg.Store.FetchLimit,
		BatchSize:  cfg.Sheets.BatchSize,
	}

	if key := secrets.OpenAIKey(); key != "" {
		p.Summarizer = &ai.Summarizer{
			Client:      ai.NewOpenAIClient(key, cfg.AI.Model),
			Model:       cfg.AI.Model,
			MaxWords:    cfg.AI.MaxWords,
			Limit:       cfg.AI.SummaryLimit,
			Concurrency: cfg.AI.Concurrency,
			Timeout:     time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
		}
	} else {
		log.Printf("[ai] no OpenAI key found, summarization disabled")
	}

	if withSheets {
		if cfg.Sheets.SpreadsheetID == "" {
			closeDB()
			return nil, nil, fmt.Errorf("sheets.spreadsheet_id not set")
		}
		sheets, err := gsheets.NewClient(ctx,
			cfg.Sheets.CredentialsFile, cfg.Sheets.TokenFile,
			cfg.Sheets.SpreadsheetID, cfg.Sheets.RequestsPerSec)
		if err != nil {
			closeDB()
			return nil, nil, fmt.Errorf("sheets client: %w", err)
		}
		p.Sheets = sheets
	}

	if key := secrets.AirtableKey(); key != "" && cfg.Airtable.BaseID != "" {
		at, err := airtable.New(key, cfg.Airtable.BaseID, cfg.Airtable.Table, cfg.Airtable.RequestsPerSec)
		if err != nil {
			closeDB()
			return nil, nil, err
		}
		p.Airtable = at
	}

	return p, closeDB, nil
}

func lockPath(cfg config.Config) string {
	return filepath.Join(cfg.App.DataDir, "sync.lock")
}

func processedDir(cfg config.Config) string {
	return filepath.Join(cfg.App.DataDir, "processed")
}
