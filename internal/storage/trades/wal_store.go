// Package trades persists per-cycle trade records in an append-only WAL.
package trades

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
	// DefaultDir is where the trade history WAL lives unless configured.
	DefaultDir   = "./wal/trades"
	segmentLimit = 100
	maxSegments  = 10

	tradeRecordKeyPrefix = "trade_record_"
)

// WALStore is an append-only store of audit trade records. Records are never
// mutated or deleted; pruning old segments is gowal's concern, not the bot's.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed trade record store.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = DefaultDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "trade_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init trade record WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Save appends the trade record.
func (s *WALStore) Save(record domain.TradeRecord) error {
	if s == nil || s.wal == nil {
		return errors.New("trade record store is not initialized")
	}
	if record.Pair == "" {
		return errors.New("trade record pair is required")
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "marshal trade record")
	}

	key := fmt.Sprintf("%s%s", tradeRecordKeyPrefix, record.Pair)

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key, payload)
}

// RecordsAfter returns all trade records written after the provided index.
func (s *WALStore) RecordsAfter(index uint64) ([]domain.TradeRecordEntry, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("trade record store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	entries := make([]domain.TradeRecordEntry, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil {
			continue
		}
		if !strings.HasPrefix(key, tradeRecordKeyPrefix) {
			continue
		}

		var record domain.TradeRecord
		if err := json.Unmarshal(payload, &record); err != nil {
			return nil, errors.Wrap(err, "decode trade record")
		}

		entries = append(entries, domain.TradeRecordEntry{Index: idx, Record: record})
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
		return errors.New("trade record store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
