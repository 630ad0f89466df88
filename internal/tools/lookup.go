package tools

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// LookupBusinessInput defines the input schema for the lookup_business tool.
type LookupBusinessInput struct {
	Name string `json:"name" jsonschema:"required,Free-text business name to resolve"`
}

// NewLookupBusinessHandler creates the lookup_business tool handler.
// Resolves a business name to its directory record with address and website.
func NewLookupBusinessHandler(deps *Dependencies) mcp.ToolHandlerFor[LookupBusinessInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input LookupBusinessInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.Name == "" {
			return ErrorResult("Business name cannot be empty", "Provide a business name to look up"), nil, nil
		}

		result := deps.Places.SearchBusiness(ctx, input.Name)
		if result.Kind != "" {
			deps.Logger.Error("business lookup failed", "name", input.Name, "kind", result.Kind, "error", result.Err)
			return ErrorResult("Business lookup failed: "+result.Err, "Check the Places API key and connectivity"), nil, nil
		}
		if !result.Found {
			return TextResult("No business matched the given name."), nil, nil
		}

		jsonBytes, _ := json.MarshalIndent(result, "", "  ")
		deps.Logger.Info("business lookup completed", "name", input.Name, "found", result.Found)
		return TextResult(string(jsonBytes)), nil, nil
	}
}

// FetchReviewsInput defines the input schema for the fetch_reviews tool.
type FetchReviewsInput struct {
	Name string `json:"name" jsonschema:"required,Business name to fetch reviews for"`
}

// NewFetchReviewsHandler creates the fetch_reviews tool handler.
// Returns rating metadata and up to the configured number of reviews.
func NewFetchReviewsHandler(deps *Dependencies) mcp.ToolHandlerFor[FetchReviewsInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input FetchReviewsInput) (
		*mcp.CallToolResult, any, error,
	) {
		if input.Name == "" {
			return ErrorResult("Business name cannot be empty", "Provide a business name"), nil, nil
		}

		result := deps.Places.FetchReviews(ctx, input.Name)
		if !result.Success {
			deps.Logger.Error("review fetch failed", "name", input.Name, "kind", result.Kind, "error", result.Err)
			return ErrorResult("Review fetch failed: "+result.Err, "Verify the business name and the Places API key"), nil, nil
		}

		jsonBytes, _ := json.MarshalIndent(result, "", "  ")
		deps.Logger.Info("review fetch completed", "name", input.Name, "reviews", len(result.Reviews))
		return TextResult(string(jsonBytes)), nil, nil
	}
}
