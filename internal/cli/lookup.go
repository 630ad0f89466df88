package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sitespec/sitespec/internal/places"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <business name>",
	Short: "Resolve a business name against the directory",
	Long: `Look up a business by name and print its directory record: resolved
name, address, place id and website URL (when one is listed).

Examples:
  sitespec lookup "Joe's Coffee Shop"
  sitespec lookup "Smith Plumbing Brisbane"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLookup,
}

func runLookup(cmd *cobra.Command, args []string) error {
	name := strings.Join(args, " ")

	client := places.NewClient(cfg, logger)
	result := client.SearchBusiness(cmd.Context(), name)
	if result.Kind != "" {
		return fmt.Errorf("lookup failed (%s): %s", result.Kind, result.Err)
	}
	if !result.Found {
		fmt.Println("No business matched.")
		return nil
	}

	fmt.Printf("Name:     %s\n", result.Name)
	fmt.Printf("Address:  %s\n", result.Address)
	fmt.Printf("Place ID: %s\n", result.PlaceID)
	if result.WebsiteURL != "" {
		fmt.Printf("Website:  %s\n", result.WebsiteURL)
	} else {
		fmt.Println("Website:  (none listed)")
	}
	return nil
}
