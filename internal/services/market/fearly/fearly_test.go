package fearly

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetchIndexParsesResponse(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"name": "Fear and Greed Index",
			"data": [
				{"value": "39", "value_classification": "Fear", "timestamp": "02-01-2024"},
				{"value": "55", "value_classification": "Greed", "timestamp": "01-01-2024"}
			],
			"metadata": {"error": null}
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	entries, err := client.FetchIndex(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "02-01-2024", entries[0].Date)
	require.Equal(t, "Fear", entries[0].Classification)
	require.Equal(t, "55", entries[1].Value)
	require.Contains(t, gotQuery, "limit=2")
	require.Contains(t, gotQuery, "date_format=uk")
}

func TestFetchIndexSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"name": "Fear and Greed Index", "data": [], "metadata": {"error": "rate limited"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.FetchIndex(context.Background(), 1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "rate limited")
}

func TestFetchIndexSurfacesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.FetchIndex(context.Background(), 1)
	require.Error(t, err)
}
