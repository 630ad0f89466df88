package places

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitespec/sitespec/internal/config"
	"github.com/sitespec/sitespec/internal/models"
)

func testConfig(baseURL string) config.Config {
	return config.Config{
		PlacesAPIKey:  "test-key",
		PlacesBaseURL: baseURL,
		SearchRegion:  config.Rectangle{LowLat: -44, LowLng: 112, HighLat: -10, HighLng: 154},
		MaxReviews:    5,
	}
}

func TestSearchBusinessMissingKey(t *testing.T) {
	cfg := testConfig("http://example.invalid")
	cfg.PlacesAPIKey = ""
	c := NewClient(cfg, nil)

	result := c.SearchBusiness(context.Background(), "Joe's Coffee Shop")

	assert.False(t, result.Found)
	assert.Equal(t, models.FailureConfigMissing, result.Kind)
	assert.Contains(t, result.Err, "GOOGLE_PLACES_API_KEY")
}

func TestSearchBusinessFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/places:searchText", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))
		require.NotEmpty(t, r.Header.Get("X-Goog-FieldMask"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"places": [
			{"id": "place-1", "displayName": {"text": "Joe's Coffee Shop"},
			 "formattedAddress": "1 Main St, Sydney NSW", "websiteUri": "https://joescoffee.example"},
			{"id": "place-2", "displayName": {"text": "Joe's Other Shop"}}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), nil)
	result := c.SearchBusiness(context.Background(), "Joe's Coffee Shop")

	require.True(t, result.Found)
	assert.Equal(t, "Joe's Coffee Shop", result.Name)
	assert.Equal(t, "place-1", result.PlaceID)
	assert.Equal(t, "https://joescoffee.example", result.WebsiteURL)
	assert.Empty(t, result.Kind)
}

func TestSearchBusinessNoMatches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), nil)
	result := c.SearchBusiness(context.Background(), "Nonexistent Business")

	// Zero matches is not-found, not a transport failure.
	assert.False(t, result.Found)
	assert.Empty(t, result.Kind)
	assert.Empty(t, result.Err)
}

func TestSearchBusinessUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), nil)
	result := c.SearchBusiness(context.Background(), "Joe's Coffee Shop")

	assert.False(t, result.Found)
	assert.Equal(t, models.FailureTransport, result.Kind)
}

func TestSearchBusinessMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"places": not-json`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), nil)
	result := c.SearchBusiness(context.Background(), "Joe's Coffee Shop")

	assert.Equal(t, models.FailureParse, result.Kind)
}

func TestFetchReviews(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/places:searchText":
			w.Write([]byte(`{"places": [{"id": "place-1", "displayName": {"text": "Joe's Coffee Shop"},
				"formattedAddress": "1 Main St", "websiteUri": "https://joescoffee.example"}]}`))
		case "/v1/places/place-1":
			w.Write([]byte(`{
				"id": "place-1",
				"displayName": {"text": "Joe's Coffee Shop"},
				"formattedAddress": "1 Main St",
				"googleMapsUri": "https://maps.google.com/?cid=1",
				"rating": 4.6,
				"userRatingCount": 132,
				"reviews": [
					{"rating": 5, "publishTime": "2024-11-02T10:00:00Z",
					 "text": {"text": "Great coffee"}, "authorAttribution": {"displayName": "Alice"}},
					{"rating": 4, "publishTime": "2024-10-20T09:00:00Z",
					 "text": {"text": "Nice spot"}, "authorAttribution": {"displayName": "Bob"}}
				]
			}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), nil)
	result := c.FetchReviews(context.Background(), "Joe's Coffee Shop")

	require.True(t, result.Success)
	assert.Equal(t, "Joe's Coffee Shop", result.BusinessName)
	assert.InDelta(t, 4.6, result.Rating, 0.001)
	assert.Equal(t, 132, result.RatingCount)
	require.Len(t, result.Reviews, 2)
	assert.LessOrEqual(t, len(result.Reviews), 5)
	assert.Equal(t, "Alice", result.Reviews[0].Author)
	assert.GreaterOrEqual(t, result.Rating, 0.0)
	assert.LessOrEqual(t, result.Rating, 5.0)
}

func TestFetchReviewsBusinessNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"places": []}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), nil)
	result := c.FetchReviews(context.Background(), "Nonexistent Business")

	assert.False(t, result.Success)
	assert.Equal(t, models.FailureNotFound, result.Kind)
}

func TestFetchReviewsZeroReviewsIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/places:searchText":
			w.Write([]byte(`{"places": [{"id": "place-1", "displayName": {"text": "New Cafe"}}]}`))
		default:
			w.Write([]byte(`{"id": "place-1", "displayName": {"text": "New Cafe"}, "rating": 0, "userRatingCount": 0}`))
		}
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), nil)
	result := c.FetchReviews(context.Background(), "New Cafe")

	require.True(t, result.Success)
	assert.Empty(t, result.Reviews)
	assert.Empty(t, result.Kind)
}

func TestFetchReviewsCapsAtMax(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/places:searchText":
			w.Write([]byte(`{"places": [{"id": "place-1", "displayName": {"text": "Busy Cafe"}}]}`))
		default:
			w.Write([]byte(`{"id": "place-1", "displayName": {"text": "Busy Cafe"}, "reviews": [
				{"rating": 5}, {"rating": 4}, {"rating": 3}, {"rating": 5}, {"rating": 2}, {"rating": 1}, {"rating": 4}
			]}`))
		}
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxReviews = 5
	c := NewClient(cfg, nil)
	result := c.FetchReviews(context.Background(), "Busy Cafe")

	require.True(t, result.Success)
	assert.Len(t, result.Reviews, 5)
}
