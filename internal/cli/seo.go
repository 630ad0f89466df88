package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sitespec/sitespec/internal/gumloop"
)

var (
	seoNoPoll  bool
	seoOutFile string
)

var seoCmd = &cobra.Command{
	Use:   "seo <url>",
	Short: "Run the SEO content analysis pipeline for a website",
	Long: `Trigger the SEO analysis pipeline for a website and poll until it
finishes. Polling is bounded by SITESPEC_SEO_POLL_TIMEOUT (default 180s).

With --no-poll, only the pipeline run id is printed; the report can be
retrieved later from the pipeline dashboard.

Examples:
  sitespec seo https://joes.example
  sitespec seo https://joes.example -o report.md
  sitespec seo https://joes.example --no-poll`,
	Args: cobra.ExactArgs(1),
	RunE: runSEO,
}

func init() {
	seoCmd.Flags().BoolVar(&seoNoPoll, "no-poll", false, "start the pipeline and print the run id without waiting")
	seoCmd.Flags().StringVarP(&seoOutFile, "output", "o", "", "write the report to a file instead of stdout")
}

func runSEO(cmd *cobra.Command, args []string) error {
	siteURL := args[0]
	ctx := cmd.Context()

	client := gumloop.NewClient(cfg, logger)

	if seoNoPoll {
		runID, err := client.StartPipeline(ctx, siteURL)
		if err != nil {
			return fmt.Errorf("start pipeline: %w", err)
		}
		fmt.Printf("Pipeline started, run id: %s\n", runID)
		return nil
	}

	fmt.Printf("Analyzing %s (this can take a few minutes)...\n", siteURL)
	result := client.Analyze(ctx, siteURL)
	if !result.Success {
		return fmt.Errorf("seo analysis failed (%s): %s", result.Kind, result.Err)
	}

	if seoOutFile != "" {
		if err := os.WriteFile(seoOutFile, []byte(result.Markdown), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Printf("Report written to %s\n", seoOutFile)
		return nil
	}

	fmt.Println()
	fmt.Println(result.Markdown)
	return nil
}
