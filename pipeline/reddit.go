package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// RedditPost is one entry from the public listing feed.
type RedditPost struct {
	ID        string
	Author    string
	Score     int
	Title     string
	SelfText  string
	Permalink string
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				ID        string `json:"id"`
				Author    string `json:"author"`
				Score     int    `json:"score"`
				Title     string `json:"title"`
				SelfText  string `json:"selftext"`
				Permalink string `json:"permalink"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// RedditClient reads the public jailbreak forum feed. No auth is needed for
// public posts.
type RedditClient struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
}

// FetchPosts returns up to limit posts from the hot listing. A non-2xx
// response or malformed listing is a soft failure: it is logged and yields an
// empty page so sibling sources keep running. Transport errors are returned.
func (c *RedditClient) FetchPosts(ctx context.Context, limit int) ([]RedditPost, error) {
	url := fmt.Sprintf("%s/r/ChatGPTJailbreak/hot.json?limit=%d", c.BaseURL, limit)

	body, status, err := get(ctx, c.HTTPClient, url, c.userAgent())
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		slog.Warn("forum feed unavailable", "status", status)
		return nil, nil
	}

	var listing redditListing
	if err := json.Unmarshal(body, &listing); err != nil {
		slog.Warn("forum feed malformed", "err", err)
		return nil, nil
	}

	posts := make([]RedditPost, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		d := child.Data
		posts = append(posts, RedditPost{
			ID:        d.ID,
			Author:    d.Author,
			Score:     d.Score,
			Title:     d.Title,
			SelfText:  d.SelfText,
			Permalink: d.Permalink,
		})
	}
	return posts, nil
}

func (c *RedditClient) userAgent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return defaultUserAgent
}
