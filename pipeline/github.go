package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// GitHubClient walks the repository search result pages of a code host.
type GitHubClient struct {
	BaseURL    string
	UserAgent  string
	PageDelay  time.Duration
	HTTPClient *http.Client
}

// FetchRepositories fetches up to pages sequential result pages, extracting
// repositories from each. It stops early on a page with zero recognized items
// (end of results) and immediately on a rate-limit status; any other bad
// status skips just that page. The limiter spaces page fetches by PageDelay,
// with no trailing delay after the last page. Returns the accumulated items
// and the wildcard-filter removal count.
func (c *GitHubClient) FetchRepositories(ctx context.Context, query string, pages int) ([]RepoItem, int, error) {
	limiter := rate.NewLimiter(rate.Every(c.PageDelay), 1)

	var (
		items    []RepoItem
		filtered int
	)
	for page := 1; page <= pages; page++ {
		if err := limiter.Wait(ctx); err != nil {
			return items, filtered, err
		}

		pageURL := fmt.Sprintf("%s/search?q=%s&type=repositories&p=%d", c.BaseURL, url.QueryEscape(query), page)
		body, status, err := get(ctx, c.HTTPClient, pageURL, c.userAgent())
		if err != nil {
			slog.Warn("search page fetch failed", "page", page, "err", err)
			PipelineStats.Errors.Add(1)
			continue
		}
		PipelineStats.Fetched.Add(1)

		if status == http.StatusTooManyRequests {
			slog.Warn("search rate limited, ending run", "page", page)
			break
		}
		if status != http.StatusOK {
			slog.Warn("search page error", "page", page, "status", status)
			continue
		}

		pageItems := ExtractRepositories(string(body), page)
		if len(pageItems) == 0 {
			slog.Info("end of search results", "page", page)
			break
		}

		kept, removed := FilterWildcards(pageItems)
		filtered += removed
		items = append(items, kept...)

		slog.Info("search page scraped", "page", page, "found", len(pageItems), "kept", len(kept))
	}
	return items, filtered, nil
}

func (c *GitHubClient) userAgent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return defaultUserAgent
}
