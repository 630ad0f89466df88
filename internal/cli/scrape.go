package cli

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sitespec/sitespec/internal/firecrawl"
	"github.com/sitespec/sitespec/internal/relevance"
)

var (
	scrapeOutDir string
	scrapeAll    bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>",
	Short: "Map a website and scrape its most relevant pages",
	Long: `Map all pages under a website, pick the most relevant ones and scrape
them to markdown. The relevance filter uses the configured generation model
and falls back to the first discovered pages when no model is available.

With -o, each scraped page is written to a file in the output directory;
otherwise the markdown is printed to stdout.

Examples:
  sitespec scrape https://joes.example
  sitespec scrape https://joes.example -o ./pages
  sitespec scrape https://joes.example --all`,
	Args: cobra.ExactArgs(1),
	RunE: runScrape,
}

func init() {
	scrapeCmd.Flags().StringVarP(&scrapeOutDir, "output", "o", "", "directory to write one markdown file per page")
	scrapeCmd.Flags().BoolVar(&scrapeAll, "all", false, "scrape every discovered page instead of filtering")
}

func runScrape(cmd *cobra.Command, args []string) error {
	siteURL := args[0]
	ctx := cmd.Context()

	client := firecrawl.NewClient(cfg, logger)

	siteMap := client.MapSite(ctx, siteURL)
	if !siteMap.Success {
		return fmt.Errorf("site map failed (%s): %s", siteMap.Kind, siteMap.Err)
	}
	if len(siteMap.Links) == 0 {
		fmt.Println("No pages discovered.")
		return nil
	}
	fmt.Printf("Discovered %d pages\n", len(siteMap.Links))

	var urls []string
	if scrapeAll {
		for _, c := range siteMap.Links {
			urls = append(urls, c.URL)
		}
	} else {
		var gen relevance.Generator
		if m := getModel(); m != nil {
			gen = m
		}
		selector := relevance.NewSelector(gen, cfg.MaxPages, logger)
		urls = selector.Select(ctx, siteMap.Links, "")
	}
	fmt.Printf("Scraping %d pages...\n", len(urls))

	pages := client.ScrapeBatch(ctx, urls)

	if scrapeOutDir != "" {
		if err := os.MkdirAll(scrapeOutDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	var failed int
	for _, p := range pages {
		if !p.OK() {
			failed++
			fmt.Fprintf(os.Stderr, "  skip %s: %s\n", p.URL, p.Err)
			continue
		}
		if scrapeOutDir == "" {
			fmt.Printf("\n--- %s ---\n\n%s\n", p.URL, p.Markdown)
			continue
		}
		path := filepath.Join(scrapeOutDir, pageFileName(p.URL))
		if err := os.WriteFile(path, []byte(p.Markdown), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Printf("  wrote %s\n", path)
	}

	fmt.Printf("\nScraped %d of %d pages\n", len(pages)-failed, len(pages))
	return nil
}

// pageFileName derives a filesystem-safe markdown file name from a page URL.
func pageFileName(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "index.md"
	}
	name := strings.Trim(u.Path, "/")
	name = strings.ReplaceAll(name, "/", "-")
	return name + ".md"
}
