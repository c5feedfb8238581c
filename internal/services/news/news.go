// Package news fetches the latest crypto headlines from a Google Alerts feed.
// Google Alerts publishes Atom; titles and summaries arrive HTML-encoded and
// are stripped to plain text before being shown to the decision engine.
package news

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"encoding/xml"

	"github.com/pkg/errors"
)

const requestTimeout = 15 * time.Second

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// Item is one cleaned news entry.
type Item struct {
	Title     string
	Published string
	Summary   string
}

// Fetcher reads news items from an Atom feed.
type Fetcher struct {
	feedURL    string
	limit      int
	httpClient *http.Client
}

// NewFetcher creates a news fetcher for the given feed URL, returning at most
// limit items per fetch.
func NewFetcher(feedURL string, limit int) *Fetcher {
	if limit <= 0 {
		limit = 10
	}
	return &Fetcher{
		feedURL: feedURL,
		limit:   limit,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title     string `xml:"title"`
	Published string `xml:"published"`
	Updated   string `xml:"updated"`
	Content   string `xml:"content"`
	Summary   string `xml:"summary"`
}

// Fetch downloads and parses the feed.
func (f *Fetcher) Fetch(ctx context.Context) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.feedURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create news request")
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch news feed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read news feed")
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, errors.Wrap(err, "parse news feed")
	}

	items := make([]Item, 0, f.limit)
	for _, entry := range feed.Entries {
		if len(items) >= f.limit {
			break
		}

		published := entry.Published
		if published == "" {
			published = entry.Updated
		}

		summary := entry.Content
		if summary == "" {
			summary = entry.Summary
		}

		items = append(items, Item{
			Title:     stripHTML(entry.Title),
			Published: published,
			Summary:   stripHTML(summary),
		})
	}

	return items, nil
}

func stripHTML(s string) string {
	return htmlTagPattern.ReplaceAllString(s, "")
}
