package trades

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jonasdebeukelaer/bot-1/internal/domain"
)

func newTestStore(t *testing.T) *WALStore {
	t.Helper()

	dir, err := os.MkdirTemp("", "test_trades_wal_*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	store, err := NewWALStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func testRecord(rationale string) domain.TradeRecord {
	return domain.TradeRecord{
		Timestamp: time.Now().UTC(),
		Pair:      "BTC_GBP",
		TargetPct: decimal.NewFromInt(60),
		Rationale: rationale,
		Outcome: domain.TradeOutcome{
			Status:        domain.OutcomeExecuted,
			Side:          "buy",
			Size:          decimal.RequireFromString("0.0123"),
			NotionalFiat:  decimal.NewFromInt(500),
			ClientOrderID: "17000000000000_0.0123_buy",
		},
	}
}

func TestWALStoreSaveAndReadBack(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(testRecord("momentum turning up")))
	require.NoError(t, store.Save(testRecord("holding above support")))

	entries, err := store.RecordsAfter(0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.Equal(t, uint64(1), entries[0].Index)
	require.Equal(t, "momentum turning up", entries[0].Record.Rationale)
	require.Equal(t, "BTC_GBP", entries[0].Record.Pair)
	require.True(t, entries[0].Record.TargetPct.Equal(decimal.NewFromInt(60)))
	require.Equal(t, domain.OutcomeExecuted, entries[0].Record.Outcome.Status)
	require.Equal(t, "holding above support", entries[1].Record.Rationale)
}

func TestWALStoreRecordsAfterSkipsConsumed(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(testRecord("first")))
	require.NoError(t, store.Save(testRecord("second")))
	require.NoError(t, store.Save(testRecord("third")))

	entries, err := store.RecordsAfter(2)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, uint64(3), entries[0].Index)
	require.Equal(t, "third", entries[0].Record.Rationale)

	entries, err = store.RecordsAfter(store.CurrentIndex())
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestWALStoreRejectsMissingPair(t *testing.T) {
	store := newTestStore(t)

	record := testRecord("no pair")
	record.Pair = ""
	require.Error(t, store.Save(record))
}

func TestWALStoreCurrentIndexAdvances(t *testing.T) {
	store := newTestStore(t)

	require.Equal(t, uint64(0), store.CurrentIndex())
	require.NoError(t, store.Save(testRecord("one")))
	require.Equal(t, uint64(1), store.CurrentIndex())
}
