package main

import (
	"github.com/spf13/cobra"

	"github.com/farrelathalla/anvil-upgrades/scraper"
)

var scrapeURL string

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetch the upgrade recipe table and save it as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		url := cfg.Data.SourceURL
		if scrapeURL != "" {
			url = scrapeURL
		}
		paths, err := scraper.Run(cmd.Context(), url, cfg.Data.Path, logger)
		if err != nil {
			return err
		}
		cmd.Printf("Scraped %d upgrade paths into %s\n", len(paths), cfg.Data.Path)
		return nil
	},
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeURL, "url", "", "page to scrape (defaults to data.source_url)")
}
