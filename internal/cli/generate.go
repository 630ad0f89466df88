package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sitespec/sitespec/internal/models"
)

var (
	genConversation string
	genTitle        string
	genBusinessName string
	genWebsiteURL   string
	genOutFile      string
	genPlain        bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [request...]",
	Short: "Generate or update a website specification document",
	Long: `Generate a website specification document. External data (reviews,
website content, SEO analysis) is fetched in parallel, then the document is
assembled and stored.

Target an existing conversation with --conversation, or start a new one by
passing --title (with optional --name and --url). The first generation for a
conversation creates its document; later generations update it.

Examples:
  sitespec generate --title "Joe's website" --name "Joe's Coffee Shop" --url https://joes.example
  sitespec generate --conversation 4f1c... "add a pricing section"
  sitespec generate --conversation 4f1c... -o spec.md`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&genConversation, "conversation", "c", "", "existing conversation id")
	generateCmd.Flags().StringVarP(&genTitle, "title", "t", "", "title for a new conversation")
	generateCmd.Flags().StringVarP(&genBusinessName, "name", "n", "", "business name for directory lookup and reviews")
	generateCmd.Flags().StringVarP(&genWebsiteURL, "url", "u", "", "existing website URL for scraping and SEO analysis")
	generateCmd.Flags().StringVarP(&genOutFile, "output", "o", "", "also write the document to a file")
	generateCmd.Flags().BoolVar(&genPlain, "plain", false, "disable the interactive progress display")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	request := strings.Join(args, " ")

	svc, agg := getGenerationService()

	conversationID := genConversation
	if conversationID == "" {
		if genTitle == "" {
			return fmt.Errorf("either --conversation or --title is required")
		}
		conv, err := svc.StartConversation(ctx, genTitle, optionalFlag(genBusinessName), optionalFlag(genWebsiteURL))
		if err != nil {
			return err
		}
		conversationID, err = models.RecordIDString(conv.ID)
		if err != nil {
			return err
		}
		fmt.Printf("Conversation %s created\n", conversationID)
	}

	interactive := !genPlain && term.IsTerminal(int(os.Stdout.Fd()))

	result, err := runGenerationWithProgress(ctx, svc, agg, conversationID, request, interactive)
	if err != nil {
		return err
	}

	action := "updated"
	if result.Created {
		action = "created"
	}
	fmt.Printf("\nSpecification %s (%d characters)\n", action, len(result.Document.Content))
	fmt.Printf("Sources: reviews=%t website=%t seo=%t\n",
		result.Context.HasReviews(), result.Context.HasWebsite(), result.Context.HasSEO())
	if !result.Generative {
		fmt.Println("Assembled from the deterministic template.")
	}

	if genOutFile != "" {
		if err := os.WriteFile(genOutFile, []byte(result.Document.Content), 0o644); err != nil {
			return fmt.Errorf("write document: %w", err)
		}
		fmt.Printf("Document written to %s\n", genOutFile)
	} else if !interactive {
		fmt.Println()
		fmt.Println(result.Document.Content)
	}
	return nil
}

func optionalFlag(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
