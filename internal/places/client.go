// Package places wraps the Google Places API for business lookup and review
// fetching. All expected failure modes resolve to typed results rather than
// errors, so the aggregator can pattern-match on outcomes.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sitespec/sitespec/internal/config"
	"github.com/sitespec/sitespec/internal/models"
)

const searchFieldMask = "places.id,places.displayName,places.formattedAddress,places.websiteUri"
const detailsFieldMask = "id,displayName,formattedAddress,googleMapsUri,rating,userRatingCount,reviews"

// Client talks to the Google Places API.
type Client struct {
	cfg    config.Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a Places client from configuration.
func NewClient(cfg config.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// Wire types for the Places v1 API.

type searchRequest struct {
	TextQuery    string        `json:"textQuery"`
	LocationBias *locationBias `json:"locationBias,omitempty"`
}

type locationBias struct {
	Rectangle rectangle `json:"rectangle"`
}

type rectangle struct {
	Low  latLng `json:"low"`
	High latLng `json:"high"`
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type searchResponse struct {
	Places []placePayload `json:"places"`
}

type placePayload struct {
	ID               string       `json:"id"`
	DisplayName      localizedStr `json:"displayName"`
	FormattedAddress string       `json:"formattedAddress"`
	WebsiteURI       string       `json:"websiteUri"`
	GoogleMapsURI    string       `json:"googleMapsUri"`
	Rating           float64      `json:"rating"`
	UserRatingCount  int          `json:"userRatingCount"`
	Reviews          []reviewPayload `json:"reviews"`
}

type localizedStr struct {
	Text string `json:"text"`
}

type reviewPayload struct {
	Rating            float64      `json:"rating"`
	PublishTime       string       `json:"publishTime"`
	Text              localizedStr `json:"text"`
	AuthorAttribution struct {
		DisplayName string `json:"displayName"`
	} `json:"authorAttribution"`
}

// SearchBusiness resolves a free-text business name to the highest-ranked
// directory match within the configured search region. Zero matches is a
// found=false result, not a failure.
func (c *Client) SearchBusiness(ctx context.Context, name string) models.BusinessLookupResult {
	if c.cfg.PlacesAPIKey == "" {
		return models.BusinessLookupResult{
			Kind: models.FailureConfigMissing,
			Err:  "GOOGLE_PLACES_API_KEY is not set",
		}
	}

	reqBody := searchRequest{
		TextQuery: name,
		LocationBias: &locationBias{
			Rectangle: rectangle{
				Low:  latLng{Latitude: c.cfg.SearchRegion.LowLat, Longitude: c.cfg.SearchRegion.LowLng},
				High: latLng{Latitude: c.cfg.SearchRegion.HighLat, Longitude: c.cfg.SearchRegion.HighLng},
			},
		},
	}

	var resp searchResponse
	if err := c.post(ctx, "/v1/places:searchText", searchFieldMask, reqBody, &resp); err != nil {
		c.logger.Warn("business search failed", "name", name, "error", err.Err)
		return models.BusinessLookupResult{Kind: err.Kind, Err: err.Err}
	}

	if len(resp.Places) == 0 {
		c.logger.Info("no directory match", "name", name)
		return models.BusinessLookupResult{Found: false}
	}

	// The upstream service ranks by relevance; take the first match only.
	best := resp.Places[0]
	c.logger.Debug("business resolved", "name", name, "place_id", best.ID, "website", best.WebsiteURI)
	return models.BusinessLookupResult{
		Found:      true,
		Name:       best.DisplayName.Text,
		Address:    best.FormattedAddress,
		WebsiteURL: best.WebsiteURI,
		PlaceID:    best.ID,
	}
}

// FetchReviews resolves a business name and fetches its rating metadata and
// up to the per-place review cap. A found business with zero reviews is a
// success with an empty review list.
func (c *Client) FetchReviews(ctx context.Context, name string) models.ReviewsResult {
	lookup := c.SearchBusiness(ctx, name)
	if lookup.Kind != "" {
		return models.ReviewsResult{Kind: lookup.Kind, Err: lookup.Err}
	}
	if !lookup.Found {
		return models.ReviewsResult{
			Kind: models.FailureNotFound,
			Err:  fmt.Sprintf("business %q not found", name),
		}
	}

	var place placePayload
	if err := c.get(ctx, "/v1/places/"+lookup.PlaceID, detailsFieldMask, &place); err != nil {
		c.logger.Warn("review fetch failed", "place_id", lookup.PlaceID, "error", err.Err)
		return models.ReviewsResult{Kind: err.Kind, Err: err.Err}
	}

	reviews := make([]models.Review, 0, len(place.Reviews))
	for _, r := range place.Reviews {
		if len(reviews) >= c.cfg.MaxReviews {
			break
		}
		reviews = append(reviews, models.Review{
			Author:      r.AuthorAttribution.DisplayName,
			Rating:      r.Rating,
			Text:        r.Text.Text,
			PublishedAt: r.PublishTime,
		})
	}

	c.logger.Info("reviews fetched", "business", place.DisplayName.Text, "count", len(reviews), "rating", place.Rating)
	return models.ReviewsResult{
		Success:      true,
		BusinessName: place.DisplayName.Text,
		Address:      place.FormattedAddress,
		MapLink:      place.GoogleMapsURI,
		Rating:       place.Rating,
		RatingCount:  place.UserRatingCount,
		Reviews:      reviews,
	}
}

// apiError carries a classified failure out of the HTTP helpers.
type apiError struct {
	Kind models.FailureKind
	Err  string
}

func (c *Client) post(ctx context.Context, path, fieldMask string, body, out any) *apiError {
	payload, err := json.Marshal(body)
	if err != nil {
		return &apiError{Kind: models.FailureParse, Err: fmt.Sprintf("marshal request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.PlacesBaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &apiError{Kind: models.FailureTransport, Err: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req, fieldMask)

	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path, fieldMask string, out any) *apiError {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.PlacesBaseURL+path, nil)
	if err != nil {
		return &apiError{Kind: models.FailureTransport, Err: fmt.Sprintf("create request: %v", err)}
	}
	c.setAuth(req, fieldMask)

	return c.do(req, out)
}

func (c *Client) setAuth(req *http.Request, fieldMask string) {
	req.Header.Set("X-Goog-Api-Key", c.cfg.PlacesAPIKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)
}

func (c *Client) do(req *http.Request, out any) *apiError {
	resp, err := c.http.Do(req)
	if err != nil {
		return &apiError{Kind: models.FailureTransport, Err: fmt.Sprintf("places request: %v", err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &apiError{Kind: models.FailureTransport, Err: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return &apiError{
			Kind: models.FailureTransport,
			Err:  fmt.Sprintf("places API returned %s: %s", resp.Status, truncate(string(data), 200)),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &apiError{Kind: models.FailureParse, Err: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
