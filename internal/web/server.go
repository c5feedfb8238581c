// Package web serves a small audit dashboard over the WAL stores: every trade
// decision and every post-trade portfolio state, streamed live over SSE.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jonasdebeukelaer/bot-1/internal/domain"
)

const storePollInterval = 2 * time.Second

type tradeRecordReader interface {
	RecordsAfter(index uint64) ([]domain.TradeRecordEntry, error)
}

type portfolioRecordReader interface {
	RecordsAfter(index uint64) ([]domain.PortfolioRecordEntry, error)
}

// Server exposes HTTP endpoints serving the HTML UI and SSE streams.
type Server struct {
	Addr           string
	TradeStore     tradeRecordReader
	PortfolioStore portfolioRecordReader
}

// NewServer creates a new web server instance.
func NewServer(addr string, tradeStore tradeRecordReader, portfolioStore portfolioRecordReader) *Server {
	return &Server{Addr: addr, TradeStore: tradeStore, PortfolioStore: portfolioStore}
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/trades/stream", s.handleTradeStream)
	mux.HandleFunc("/portfolio/stream", s.handlePortfolioStream)

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (s *Server) handleTradeStream(w http.ResponseWriter, r *http.Request) {
	if s.TradeStore == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "trade record store not available")
		return
	}

	streamRecords(w, r, "trade", func(lastIndex uint64) ([]uint64, [][]byte, error) {
		records, err := s.TradeStore.RecordsAfter(lastIndex)
		if err != nil {
			return nil, nil, err
		}
		return marshalEntries(len(records), func(i int) (uint64, any) {
			return records[i].Index, records[i].Record
		})
	})
}

func (s *Server) handlePortfolioStream(w http.ResponseWriter, r *http.Request) {
	if s.PortfolioStore == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "portfolio record store not available")
		return
	}

	streamRecords(w, r, "portfolio", func(lastIndex uint64) ([]uint64, [][]byte, error) {
		records, err := s.PortfolioStore.RecordsAfter(lastIndex)
		if err != nil {
			return nil, nil, err
		}
		return marshalEntries(len(records), func(i int) (uint64, any) {
			return records[i].Index, records[i].Record
		})
	})
}

func marshalEntries(n int, at func(i int) (uint64, any)) ([]uint64, [][]byte, error) {
	indexes := make([]uint64, 0, n)
	payloads := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		index, record := at(i)
		payload, err := json.Marshal(record)
		if err != nil {
			return nil, nil, err
		}
		indexes = append(indexes, index)
		payloads = append(payloads, payload)
	}
	return indexes, payloads, nil
}

// streamRecords runs the shared SSE loop: replay everything on connect, then
// poll the store and push new entries as they land.
func streamRecords(
	w http.ResponseWriter,
	r *http.Request,
	event string,
	fetch func(lastIndex uint64) ([]uint64, [][]byte, error),
) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// send a comment heartbeat every 30s so proxies keep connection
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(storePollInterval)
	defer pollTicker.Stop()

	lastIndex := uint64(0)
	send := func() error {
		indexes, payloads, err := fetch(lastIndex)
		if err != nil {
			return err
		}
		for i, payload := range payloads {
			fmt.Fprintf(w, "event: %s\n", event)
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
			lastIndex = indexes[i]
		}
		return nil
	}

	if err := send(); err != nil {
		http.Error(w, "failed to load records", http.StatusInternalServerError)
		log.Printf("%s stream initial load: %v", event, err)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case <-pollTicker.C:
			if err := send(); err != nil {
				log.Printf("%s stream poll err: %v", event, err)
			}
		}
	}
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Rebalancing Bot</title>
<style>
  body { background: #0f1117; color: #e6e6e6; font-family: ui-monospace, SFMono-Regular, Menlo, monospace; margin: 0; padding: 24px; }
  h1 { font-size: 18px; margin: 0 0 4px; }
  .status { font-size: 12px; color: #8b949e; margin-bottom: 20px; }
  .status.connected { color: #3fb950; }
  .columns { display: grid; grid-template-columns: 1fr 1fr; gap: 24px; }
  h2 { font-size: 14px; color: #8b949e; border-bottom: 1px solid #21262d; padding-bottom: 6px; }
  .card { background: #161b22; border: 1px solid #21262d; border-radius: 6px; padding: 12px; margin-bottom: 10px; font-size: 12px; }
  .card .ts { color: #8b949e; }
  .card .target { color: #79c0ff; font-weight: bold; }
  .card .outcome-executed { color: #3fb950; }
  .card .outcome-no_trade { color: #8b949e; }
  .card .outcome-insufficient_funds { color: #f85149; }
  .card .rationale { margin-top: 6px; color: #c9d1d9; white-space: pre-wrap; }
  .alloc { font-size: 20px; color: #79c0ff; }
</style>
</head>
<body>
<h1>Rebalancing Bot</h1>
<div id="status" class="status">connecting…</div>
<div class="columns">
  <div>
    <h2>Decisions</h2>
    <div id="trades"></div>
  </div>
  <div>
    <h2>Portfolio</h2>
    <div id="portfolio"></div>
  </div>
</div>
<script>
const statusEl = document.getElementById('status');
const tradesEl = document.getElementById('trades');
const portfolioEl = document.getElementById('portfolio');
const maxCards = 50;

const prepend = (parent, el) => {
  parent.insertBefore(el, parent.firstChild);
  while (parent.children.length > maxCards) parent.removeChild(parent.lastChild);
};

const fmtTs = (ts) => ts ? new Date(ts).toLocaleString() : '';

const tradeStream = new EventSource('/trades/stream');
tradeStream.onopen = () => { statusEl.textContent = 'live'; statusEl.classList.add('connected'); };
tradeStream.onerror = () => { statusEl.textContent = 'disconnected, retrying…'; statusEl.classList.remove('connected'); };
tradeStream.addEventListener('trade', (e) => {
  const rec = JSON.parse(e.data);
  const card = document.createElement('div');
  card.className = 'card';
  const outcome = rec.outcome || {};
  card.innerHTML =
    '<span class="ts">' + fmtTs(rec.ts) + '</span> ' +
    '<span class="target">target ' + rec.target_pct + '%</span> ' +
    '<span class="outcome-' + outcome.status + '">' + outcome.status +
    (outcome.side && outcome.status === 'executed' ? ' (' + outcome.side + ' ' + outcome.size + ')' : '') +
    '</span>' +
    '<div class="rationale">' + (rec.rationale || '') + '</div>';
  prepend(tradesEl, card);
});

const portfolioStream = new EventSource('/portfolio/stream');
portfolioStream.addEventListener('portfolio', (e) => {
  const rec = JSON.parse(e.data);
  const card = document.createElement('div');
  card.className = 'card';
  card.innerHTML =
    '<span class="ts">' + fmtTs(rec.ts) + '</span>' +
    '<div class="alloc">' + Number(rec.allocation_pct).toFixed(2) + '% ' + (rec.pair || '').split('_')[0] + '</div>' +
    '<div>' + rec.base_balance + ' ' + (rec.pair || '').split('_')[0] +
    ' | ' + rec.quote_balance + ' ' + (rec.pair || '').split('_')[1] +
    ' | total ' + rec.total_value + '</div>';
  prepend(portfolioEl, card);
});
</script>
</body>
</html>`
