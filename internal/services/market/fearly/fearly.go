// Package fearly fetches the crypto Fear & Greed index from alternative.me.
// The index updates once a day; its classification is attached to the daily
// indicator history.
package fearly

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

const (
	// DefaultBaseURL is the public alternative.me Fear & Greed endpoint.
	DefaultBaseURL = "https://api.alternative.me/fng/"

	requestTimeout = 5 * time.Second
)

// IndexEntry is one day of the Fear & Greed index.
type IndexEntry struct {
	// Date is in dd-mm-yyyy form, matching the API's uk date format.
	Date           string
	Value          string
	Classification string
}

// Client reads the Fear & Greed index over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Fear & Greed client. An empty baseURL uses the public API.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

type apiResponse struct {
	Name string `json:"name"`
	Data []struct {
		Value               string `json:"value"`
		ValueClassification string `json:"value_classification"`
		Timestamp           string `json:"timestamp"`
	} `json:"data"`
	Metadata struct {
		Error *string `json:"error"`
	} `json:"metadata"`
}

// FetchIndex returns the most recent limit days of the index, newest first.
func (c *Client) FetchIndex(ctx context.Context, limit int) ([]IndexEntry, error) {
	if limit <= 0 {
		limit = 1
	}

	endpoint := fmt.Sprintf("%s?%s", c.baseURL, url.Values{
		"limit":       {fmt.Sprintf("%d", limit)},
		"date_format": {"uk"},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create fear & greed request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch fear & greed index")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read fear & greed response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fear & greed API returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.Wrap(err, "decode fear & greed response")
	}

	if parsed.Metadata.Error != nil && *parsed.Metadata.Error != "" {
		return nil, fmt.Errorf("fear & greed API error: %s", *parsed.Metadata.Error)
	}

	entries := make([]IndexEntry, 0, len(parsed.Data))
	for _, d := range parsed.Data {
		entries = append(entries, IndexEntry{
			Date:           d.Timestamp,
			Value:          d.Value,
			Classification: d.ValueClassification,
		})
	}

	return entries, nil
}
