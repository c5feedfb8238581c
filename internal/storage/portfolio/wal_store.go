// Package portfolio persists post-trade portfolio records in an append-only WAL.
package portfolio

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/jonasdebeukelaer/bot-1/internal/domain"
)

const (
	// DefaultDir is where the portfolio history WAL lives unless configured.
	DefaultDir   = "./wal/portfolio"
	segmentLimit = 100
	maxSegments  = 10

	portfolioKeyPrefix = "portfolio_"
)

// WALStore is an append-only store of post-trade portfolio records.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed portfolio record store.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = DefaultDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "portfolio_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init portfolio WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Save appends the portfolio record.
func (s *WALStore) Save(record domain.PortfolioRecord) error {
	if s == nil || s.wal == nil {
		return errors.New("portfolio store is not initialized")
	}
	if record.Pair == "" {
		return errors.New("portfolio record pair is required")
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "marshal portfolio record")
	}

	key := fmt.Sprintf("%s%s", portfolioKeyPrefix, record.Pair)

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key, payload)
}

// RecordsAfter returns all portfolio records written after the provided index.
func (s *WALStore) RecordsAfter(index uint64) ([]domain.PortfolioRecordEntry, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("portfolio store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	entries := make([]domain.PortfolioRecordEntry, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil {
			continue
		}
		if !strings.HasPrefix(key, portfolioKeyPrefix) {
			continue
		}

		var record domain.PortfolioRecord
		if err := json.Unmarshal(payload, &record); err != nil {
			return nil, errors.Wrap(err, "decode portfolio record")
		}

		entries = append(entries, domain.PortfolioRecordEntry{Index: idx, Record: record})
	}

	return entries, nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("portfolio store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
