package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Google Alerts - bitcoin</title>
  <entry>
    <title>&lt;b&gt;Bitcoin&lt;/b&gt; breaks above key level</title>
    <published>2024-01-02T10:00:00Z</published>
    <content type="html">&lt;p&gt;Analysts say the move &lt;b&gt;could&lt;/b&gt; continue.&lt;/p&gt;</content>
  </entry>
  <entry>
    <title>Regulators review crypto rules</title>
    <published>2024-01-02T09:00:00Z</published>
    <content type="html">A new framework is expected this year.</content>
  </entry>
  <entry>
    <title>Third story</title>
    <published>2024-01-02T08:00:00Z</published>
    <content type="html">Extra item beyond the limit.</content>
  </entry>
</feed>`

func TestFetchParsesAndCleansEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	fetcher := NewFetcher(srv.URL, 2)
	items, err := fetcher.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.Equal(t, "Bitcoin breaks above key level", items[0].Title)
	require.Equal(t, "2024-01-02T10:00:00Z", items[0].Published)
	require.Equal(t, "Analysts say the move could continue.", items[0].Summary)
	require.Equal(t, "Regulators review crypto rules", items[1].Title)
}

func TestFetchRejectsMalformedFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not xml at all <<<"))
	}))
	defer srv.Close()

	fetcher := NewFetcher(srv.URL, 5)
	_, err := fetcher.Fetch(context.Background())
	require.Error(t, err)
}

func TestFetchRejectsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	fetcher := NewFetcher(srv.URL, 5)
	_, err := fetcher.Fetch(context.Background())
	require.Error(t, err)
}
