package firecrawl

import (
	"context"
	"sync"

	"github.com/sitespec/sitespec/internal/models"
)

// ScrapeBatch scrapes N URLs in fixed-size concurrency windows. All requests
// within a window run in parallel and the next window does not start until
// every request in the current one has settled. A failing URL produces a
// page-level error and never aborts the batch.
//
// The returned slice preserves the input URL order and includes failed pages
// (callers filter on ScrapedPage.OK).
func (c *Client) ScrapeBatch(ctx context.Context, urls []string) []models.ScrapedPage {
	concurrency := c.cfg.ScrapeConcurrency
	if concurrency <= 0 {
		concurrency = 2
	}

	pages := make([]models.ScrapedPage, len(urls))

	for start := 0; start < len(urls); start += concurrency {
		end := start + concurrency
		if end > len(urls) {
			end = len(urls)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				pages[idx] = c.ScrapePage(ctx, urls[idx])
			}(i)
		}
		wg.Wait()

		c.logger.Debug("scrape window settled", "window_start", start, "window_end", end, "total", len(urls))
	}

	return pages
}
