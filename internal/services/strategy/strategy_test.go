package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonasdebeukelaer/bot-1/internal/domain"
	"github.com/jonasdebeukelaer/bot-1/internal/services/marketcontext"
	"github.com/jonasdebeukelaer/bot-1/internal/services/news"
)

type gatewayMock struct {
	mock.Mock
}

func (m *gatewayMock) GetPortfolioSnapshot(ctx context.Context) (*domain.PortfolioSnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PortfolioSnapshot), args.Error(1)
}

func (m *gatewayMock) GetRecentTrades(ctx context.Context, limit int) ([]domain.ExchangeTrade, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExchangeTrade), args.Error(1)
}

func (m *gatewayMock) GetOrderBook(ctx context.Context, depth int) (*domain.OrderBookSnapshot, error) {
	args := m.Called(ctx, depth)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderBookSnapshot), args.Error(1)
}

type engineMock struct {
	mock.Mock
}

func (m *engineMock) Decide(ctx context.Context, mc domain.MarketContext) (*domain.AllocationRecommendation, error) {
	args := m.Called(ctx, mc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AllocationRecommendation), args.Error(1)
}

type executorMock struct {
	mock.Mock
}

func (m *executorMock) Execute(ctx context.Context, plan domain.TradePlan) (domain.TradeOutcome, *domain.PortfolioSnapshot, error) {
	args := m.Called(ctx, plan)
	var snapshot *domain.PortfolioSnapshot
	if args.Get(1) != nil {
		snapshot = args.Get(1).(*domain.PortfolioSnapshot)
	}
	return args.Get(0).(domain.TradeOutcome), snapshot, args.Error(2)
}

type tradeRecorderStub struct {
	records []domain.TradeRecord
	err     error
}

func (s *tradeRecorderStub) Save(record domain.TradeRecord) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, record)
	return nil
}

type portfolioRecorderStub struct {
	records []domain.PortfolioRecord
	err     error
}

func (s *portfolioRecorderStub) Save(record domain.PortfolioRecord) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, record)
	return nil
}

func testSnapshot(t *testing.T) *domain.PortfolioSnapshot {
	t.Helper()

	snapshot, err := domain.NewPortfolioSnapshot(
		domain.Pair{Base: "BTC", Quote: "GBP"},
		map[string]decimal.Decimal{
			"BTC": decimal.RequireFromString("0.5"),
			"GBP": decimal.NewFromInt(1000),
		},
		decimal.NewFromInt(30000),
		time.Now().UTC(),
	)
	require.NoError(t, err)
	return snapshot
}

func testRecommendation(target int64) *domain.AllocationRecommendation {
	return &domain.AllocationRecommendation{
		TargetPct: decimal.NewFromInt(target),
		Rationale: "test rationale",
		DecidedAt: time.Now().UTC(),
	}
}

type fixture struct {
	gateway        *gatewayMock
	engine         *engineMock
	executor       *executorMock
	tradeStore     *tradeRecorderStub
	portfolioStore *portfolioRecorderStub
	orchestrator   *Orchestrator
}

func newFixture() *fixture {
	f := &fixture{
		gateway:        &gatewayMock{},
		engine:         &engineMock{},
		executor:       &executorMock{},
		tradeStore:     &tradeRecorderStub{},
		portfolioStore: &portfolioRecorderStub{},
	}
	f.orchestrator = NewOrchestrator(
		domain.Pair{Base: "BTC", Quote: "GBP"},
		f.gateway,
		nil,
		nil,
		nil,
		marketcontext.NewBuilder(zap.NewNop()),
		f.engine,
		f.executor,
		f.tradeStore,
		f.portfolioStore,
		Config{},
		zap.NewNop(),
	)
	return f
}

func (f *fixture) expectContextFetch(snapshot *domain.PortfolioSnapshot) {
	f.gateway.On("GetPortfolioSnapshot", mock.Anything).Return(snapshot, nil).Once()
	f.gateway.On("GetRecentTrades", mock.Anything, 10).Return([]domain.ExchangeTrade{}, nil).Once()
	f.gateway.On("GetOrderBook", mock.Anything, 10).Return(&domain.OrderBookSnapshot{}, nil).Once()
}

func TestRunCycleExecutesAndRecords(t *testing.T) {
	f := newFixture()
	snapshot := testSnapshot(t)

	f.expectContextFetch(snapshot)
	f.engine.On("Decide", mock.Anything, mock.Anything).Return(testRecommendation(50), nil).Once()
	f.executor.On("Execute", mock.Anything, mock.MatchedBy(func(plan domain.TradePlan) bool {
		return plan.Side == domain.SideSell
	})).Return(domain.TradeOutcome{Status: domain.OutcomeExecuted, Side: "sell"}, snapshot, nil).Once()

	require.NoError(t, f.orchestrator.RunCycle(context.Background()))

	require.Len(t, f.tradeStore.records, 1)
	require.Equal(t, "test rationale", f.tradeStore.records[0].Rationale)
	require.Equal(t, domain.OutcomeExecuted, f.tradeStore.records[0].Outcome.Status)
	require.Len(t, f.portfolioStore.records, 1)
	require.Equal(t, "BTC_GBP", f.portfolioStore.records[0].Pair)

	f.gateway.AssertExpectations(t)
	f.engine.AssertExpectations(t)
	f.executor.AssertExpectations(t)
}

func TestRunCycleAbortsOnInvalidRecommendation(t *testing.T) {
	f := newFixture()
	f.expectContextFetch(testSnapshot(t))
	f.engine.On("Decide", mock.Anything, mock.Anything).Return(testRecommendation(150), nil).Once()

	err := f.orchestrator.RunCycle(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, domain.ErrInvalidRecommendation))

	// Nothing reaches the exchange or the audit log for an invalid target.
	f.executor.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	require.Empty(t, f.tradeStore.records)
	require.Empty(t, f.portfolioStore.records)
}

func TestRunCycleAbortsWhenSnapshotFetchFails(t *testing.T) {
	f := newFixture()
	f.gateway.On("GetPortfolioSnapshot", mock.Anything).Return(nil, errors.New("exchange down")).Once()

	require.Error(t, f.orchestrator.RunCycle(context.Background()))

	f.engine.AssertNotCalled(t, "Decide", mock.Anything, mock.Anything)
	f.executor.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestRunCycleAbortsWhenEngineFails(t *testing.T) {
	f := newFixture()
	f.expectContextFetch(testSnapshot(t))
	f.engine.On("Decide", mock.Anything, mock.Anything).Return(nil, errors.New("llm unavailable")).Once()

	require.Error(t, f.orchestrator.RunCycle(context.Background()))
	f.executor.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	require.Empty(t, f.tradeStore.records)
}

func TestRunCycleAbortsWhenExecutionFails(t *testing.T) {
	f := newFixture()
	f.expectContextFetch(testSnapshot(t))
	f.engine.On("Decide", mock.Anything, mock.Anything).Return(testRecommendation(50), nil).Once()
	f.executor.On("Execute", mock.Anything, mock.Anything).
		Return(domain.TradeOutcome{}, nil, errors.New("order failed")).Once()

	require.Error(t, f.orchestrator.RunCycle(context.Background()))
	require.Empty(t, f.tradeStore.records)
	require.Empty(t, f.portfolioStore.records)
}

func TestRunCycleAbortsWhenTradeHistoryFetchFails(t *testing.T) {
	f := newFixture()

	f.gateway.On("GetPortfolioSnapshot", mock.Anything).Return(testSnapshot(t), nil).Once()
	f.gateway.On("GetRecentTrades", mock.Anything, 10).Return(nil, errors.New("throttled")).Once()

	err := f.orchestrator.RunCycle(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "fetch recent trades")

	// The engine must never decide on an incomplete context.
	f.engine.AssertNotCalled(t, "Decide", mock.Anything, mock.Anything)
	f.executor.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	require.Empty(t, f.tradeStore.records)
	require.Empty(t, f.portfolioStore.records)
}

func TestRunCycleAbortsWhenOrderBookFetchFails(t *testing.T) {
	f := newFixture()

	f.gateway.On("GetPortfolioSnapshot", mock.Anything).Return(testSnapshot(t), nil).Once()
	f.gateway.On("GetRecentTrades", mock.Anything, 10).Return([]domain.ExchangeTrade{}, nil).Once()
	f.gateway.On("GetOrderBook", mock.Anything, 10).Return(nil, errors.New("throttled")).Once()

	err := f.orchestrator.RunCycle(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "fetch order book")

	f.engine.AssertNotCalled(t, "Decide", mock.Anything, mock.Anything)
	f.executor.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	require.Empty(t, f.tradeStore.records)
}

type newsSourceStub struct {
	items []news.Item
	err   error
}

func (s *newsSourceStub) Fetch(ctx context.Context) ([]news.Item, error) {
	return s.items, s.err
}

func TestRunCycleAbortsWhenConfiguredNewsSourceFails(t *testing.T) {
	f := newFixture()
	f.orchestrator.news = &newsSourceStub{err: errors.New("feed unreachable")}

	f.gateway.On("GetPortfolioSnapshot", mock.Anything).Return(testSnapshot(t), nil).Once()
	f.gateway.On("GetRecentTrades", mock.Anything, 10).Return([]domain.ExchangeTrade{}, nil).Once()
	f.gateway.On("GetOrderBook", mock.Anything, 10).Return(&domain.OrderBookSnapshot{}, nil).Once()

	err := f.orchestrator.RunCycle(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "fetch news")

	f.engine.AssertNotCalled(t, "Decide", mock.Anything, mock.Anything)
	require.Empty(t, f.tradeStore.records)
}

func TestRunCycleRecordingFailureDoesNotFailCycle(t *testing.T) {
	f := newFixture()
	snapshot := testSnapshot(t)

	f.expectContextFetch(snapshot)
	f.engine.On("Decide", mock.Anything, mock.Anything).Return(testRecommendation(90), nil).Once()
	f.executor.On("Execute", mock.Anything, mock.Anything).
		Return(domain.NoTradeOutcome(), nil, nil).Once()
	f.tradeStore.err = errors.New("disk full")
	f.portfolioStore.err = errors.New("disk full")

	require.NoError(t, f.orchestrator.RunCycle(context.Background()))
}

func TestRunCycleCarriesPreviousRecommendation(t *testing.T) {
	f := newFixture()
	snapshot := testSnapshot(t)

	f.expectContextFetch(snapshot)
	f.engine.On("Decide", mock.Anything, mock.MatchedBy(func(mc domain.MarketContext) bool {
		return mc.PreviousRecommendation == nil
	})).Return(testRecommendation(90), nil).Once()
	f.executor.On("Execute", mock.Anything, mock.Anything).
		Return(domain.NoTradeOutcome(), nil, nil).Once()
	require.NoError(t, f.orchestrator.RunCycle(context.Background()))

	f.expectContextFetch(snapshot)
	f.engine.On("Decide", mock.Anything, mock.MatchedBy(func(mc domain.MarketContext) bool {
		return mc.PreviousRecommendation != nil &&
			mc.PreviousRecommendation.TargetPct.Equal(decimal.NewFromInt(90))
	})).Return(testRecommendation(90), nil).Once()
	f.executor.On("Execute", mock.Anything, mock.Anything).
		Return(domain.NoTradeOutcome(), nil, nil).Once()
	require.NoError(t, f.orchestrator.RunCycle(context.Background()))

	f.engine.AssertExpectations(t)
}
