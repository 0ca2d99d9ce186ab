package main

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"upjobs-engine/internal/ingest"
	"upjobs-engine/internal/pipeline"
)

func newRunAllCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run-all",
		Short: "Extract saved pages, ingest, enrich, persist and push to Sheets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			p, closeDB, err := openPipeline(cmd.Context(), cfg, cfg.Sheets.SpreadsheetID != "")
			if err != nil {
				return err
			}
			defer closeDB()

			return pipeline.WithLock(lockPath(cfg), func() error {
				return p.RunAll(cmd.Context(), cfg.App.ScrapeDir, processedDir(cfg))
			})
		},
	}
}

func newProcessFileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "process-file <path>",
		Short: "Ingest and persist a single processed-JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			p, closeDB, err := openPipeline(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}
			defer closeDB()

			batch, err := p.ProcessFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Processed %d jobs and %d search results from %s\n",
				len(batch.Jobs), len(batch.SearchResults), args[0])
			return nil
		},
	}
}

func newSheetsPushCommand() *cobra.Command {
	var hideTerminal bool
	cmd := &cobra.Command{
		Use:   "sheets-push",
		Short: "Mirror the store tables into the spreadsheet tabs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			p, closeDB, err := openPipeline(cmd.Context(), cfg, true)
			if err != nil {
				return err
			}
			defer closeDB()

			return pipeline.WithLock(lockPath(cfg), func() error {
				return p.PushSheets(cmd.Context(), hideTerminal)
			})
		},
	}
	cmd.Flags().BoolVar(&hideTerminal, "hide-terminal", true,
		"hide jobs whose applications reached a terminal status from the Jobs tab")
	return cmd
}

func newSheetsPullCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets-pull",
		Short: "Apply human edits from the spreadsheet back to the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			p, closeDB, err := openPipeline(cmd.Context(), cfg, true)
			if err != nil {
				return err
			}
			defer closeDB()

			return pipeline.WithLock(lockPath(cfg), func() error {
				_, err := p.PullSheets(cmd.Context())
				return err
			})
		},
	}
}

func newAirtablePushCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "airtable-push",
		Short: "Upsert the jobs table into Airtable, keyed by job_id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			p, closeDB, err := openPipeline(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}
			defer closeDB()

			n, err := p.PushAirtable(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Airtable push complete (jobs: %d)\n", n)
			return nil
		},
	}
}

func newOpenURLsCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "open-urls",
		Short: "Open the configured search URLs in the default browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path := file
			if path == "" {
				path = cfg.App.SearchURLs
			}
			urls, err := ingest.LoadSearchURLs(path)
			if err != nil {
				return err
			}
			if len(urls) == 0 {
				return fmt.Errorf("no URLs found in %s", path)
			}
			for _, u := range urls {
				if err := openBrowser(u); err != nil {
					return fmt.Errorf("open %s: %w", u, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Opened %d search URLs\n", len(urls))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML file with search URLs (defaults to app.search_urls)")
	return cmd
}

func newCleanupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete generated processed-JSON artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := ingest.CleanupJSON(processedDir(cfg)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cleaned processed JSON directory")
			return nil
		},
	}
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
