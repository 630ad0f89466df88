// Package gumloop wraps the Gumloop pipeline API used for asynchronous SEO
// analysis: trigger a run, then poll it to a terminal state under a
// wall-clock ceiling.
package gumloop

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sitespec/sitespec/internal/config"
	"github.com/sitespec/sitespec/internal/models"
)

// Terminal pipeline states. Anything else is non-terminal and keeps the
// poll loop going.
const (
	StateDone   = "DONE"
	StateFailed = "FAILED"
)

// Client talks to the Gumloop API.
type Client struct {
	cfg    config.Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a Gumloop client from configuration.
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

type startRequest struct {
	URL       string `json:"url"`
	FocusArea string `json:"focus_area"`
}

type startResponse struct {
	RunID string `json:"run_id"`
}

// RunStatus is one poll observation of a pipeline run.
type RunStatus struct {
	State  string
	Output string
	RawErr string
}

type runResponse struct {
	State   string `json:"state"`
	Outputs struct {
		Output string `json:"output"`
	} `json:"outputs"`
	Error string `json:"error"`
}

func (c *Client) credentialsMissing() string {
	switch {
	case c.cfg.GumloopAPIKey == "":
		return "GUMLOOP_API_KEY is not set"
	case c.cfg.GumloopUserID == "":
		return "GUMLOOP_USER_ID is not set"
	case c.cfg.GumloopSavedItemID == "":
		return "GUMLOOP_SAVED_ITEM_ID is not set"
	}
	return ""
}

// StartPipeline triggers an SEO analysis run for a URL and returns the run
// identifier.
func (c *Client) StartPipeline(ctx context.Context, siteURL string) (string, error) {
	endpoint := fmt.Sprintf("%s/api/v1/start_pipeline?user_id=%s&saved_item_id=%s",
		c.cfg.GumloopBaseURL,
		url.QueryEscape(c.cfg.GumloopUserID),
		url.QueryEscape(c.cfg.GumloopSavedItemID),
	)

	payload, err := json.Marshal(startRequest{URL: siteURL, FocusArea: c.cfg.SEOFocusArea})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.GumloopAPIKey)

	var resp startResponse
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	if resp.RunID == "" {
		return "", fmt.Errorf("pipeline start returned no run_id")
	}

	c.logger.Info("seo pipeline started", "url", siteURL, "run_id", resp.RunID)
	return resp.RunID, nil
}

// GetRun fetches the current state of a pipeline run.
func (c *Client) GetRun(ctx context.Context, runID string) (RunStatus, error) {
	endpoint := fmt.Sprintf("%s/api/v1/get_pl_run?user_id=%s&run_id=%s",
		c.cfg.GumloopBaseURL,
		url.QueryEscape(c.cfg.GumloopUserID),
		url.QueryEscape(runID),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return RunStatus{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.GumloopAPIKey)

	var resp runResponse
	if err := c.do(req, &resp); err != nil {
		return RunStatus{}, err
	}

	return RunStatus{State: resp.State, Output: resp.Outputs.Output, RawErr: resp.Error}, nil
}

// Analyze triggers the SEO pipeline for a URL and polls until DONE, FAILED,
// or the wall-clock ceiling. The stopping condition is elapsed time, not
// iteration count, so a slow poll round-trip can overrun the ceiling by at
// most one round-trip.
func (c *Client) Analyze(ctx context.Context, siteURL string) models.SEOAnalysisResult {
	if msg := c.credentialsMissing(); msg != "" {
		return models.SEOAnalysisResult{URL: siteURL, Kind: models.FailureConfigMissing, Err: msg}
	}

	runID, err := c.StartPipeline(ctx, siteURL)
	if err != nil {
		return models.SEOAnalysisResult{
			URL:  siteURL,
			Kind: models.FailureTransport,
			Err:  fmt.Sprintf("start pipeline: %v", err),
		}
	}

	deadline := time.Now().Add(c.cfg.SEOPollTimeout)

	for {
		status, err := c.GetRun(ctx, runID)
		if err != nil {
			// Transient poll errors don't kill the run; the ceiling does.
			c.logger.Warn("seo poll error", "run_id", runID, "error", err)
		} else {
			c.logger.Debug("seo poll", "run_id", runID, "state", status.State)

			switch status.State {
			case StateDone:
				return models.SEOAnalysisResult{
					Success:  true,
					URL:      siteURL,
					RunID:    runID,
					Markdown: status.Output,
				}
			case StateFailed:
				return models.SEOAnalysisResult{
					URL:   siteURL,
					RunID: runID,
					Kind:  models.FailureTransport,
					Err:   fmt.Sprintf("seo pipeline failed: %s", status.RawErr),
				}
			}
		}

		if time.Now().After(deadline) {
			return models.SEOAnalysisResult{
				URL:   siteURL,
				RunID: runID,
				Kind:  models.FailurePipelineTimeout,
				Err:   fmt.Sprintf("seo pipeline did not finish within %s", c.cfg.SEOPollTimeout),
			}
		}

		select {
		case <-ctx.Done():
			return models.SEOAnalysisResult{
				URL:   siteURL,
				RunID: runID,
				Kind:  models.FailurePipelineTimeout,
				Err:   fmt.Sprintf("seo polling cancelled: %v", ctx.Err()),
			}
		case <-time.After(c.cfg.SEOPollInterval):
		}
	}
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gumloop request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gumloop API returned %s", resp.Status)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
