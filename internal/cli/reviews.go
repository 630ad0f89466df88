package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sitespec/sitespec/internal/document"
	"github.com/sitespec/sitespec/internal/places"
)

var reviewsMarkdown bool

var reviewsCmd = &cobra.Command{
	Use:   "reviews <business name>",
	Short: "Fetch rating and customer reviews for a business",
	Long: `Fetch the overall rating, rating count, map link and recent customer
reviews for a business.

Examples:
  sitespec reviews "Joe's Coffee Shop"
  sitespec reviews "Smith Plumbing Brisbane" --markdown`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReviews,
}

func init() {
	reviewsCmd.Flags().BoolVar(&reviewsMarkdown, "markdown", false, "print as the markdown section used in documents")
}

func runReviews(cmd *cobra.Command, args []string) error {
	name := strings.Join(args, " ")

	client := places.NewClient(cfg, logger)
	result := client.FetchReviews(cmd.Context(), name)
	if !result.Success {
		return fmt.Errorf("review fetch failed (%s): %s", result.Kind, result.Err)
	}

	if reviewsMarkdown {
		fmt.Println(document.FormatReviews(&result))
		return nil
	}

	fmt.Printf("%s — %s\n", result.BusinessName, result.Address)
	fmt.Printf("Rating: %.1f/5 (%d ratings)\n", result.Rating, result.RatingCount)
	if result.MapLink != "" {
		fmt.Printf("Map:    %s\n", result.MapLink)
	}
	if len(result.Reviews) == 0 {
		fmt.Println("\nNo written reviews.")
		return nil
	}

	fmt.Printf("\nReviews (%d):\n", len(result.Reviews))
	for _, r := range result.Reviews {
		fmt.Printf("\n  %s (%.0f/5", r.Author, r.Rating)
		if r.PublishedAt != "" {
			fmt.Printf(", %s", r.PublishedAt)
		}
		fmt.Println(")")
		for _, line := range strings.Split(strings.TrimSpace(r.Text), "\n") {
			fmt.Printf("    %s\n", line)
		}
	}
	return nil
}
