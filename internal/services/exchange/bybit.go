package exchange

import (
	"context"
	"strings"
	"time"

	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/jonasdebeukelaer/bot-1/internal/domain"
)

// BybitGateway implements Gateway against the Bybit V5 unified account.
type BybitGateway struct {
	client *bybit.Client
	pair   domain.Pair
}

// NewBybitGateway creates a gateway bound to a single trading pair.
func NewBybitGateway(client *bybit.Client, pair domain.Pair) *BybitGateway {
	return &BybitGateway{client: client, pair: pair}
}

// GetPortfolioSnapshot reads unified-account balances plus the spot ticker
// price and folds them into an immutable snapshot.
func (g *BybitGateway) GetPortfolioSnapshot(ctx context.Context) (*domain.PortfolioSnapshot, error) {
	res, err := g.client.V5().Account().GetWalletBalance(bybit.AccountTypeV5("UNIFIED"), nil)
	if err != nil {
		return nil, classifyBybitErr("bybit: get wallet balance", err)
	}
	if len(res.Result.List) == 0 {
		return nil, errors.New("bybit returned no wallet entries")
	}

	balances := make(map[string]decimal.Decimal, 2)
	for _, coin := range res.Result.List[0].Coin {
		symbol := string(coin.Coin)
		if symbol != g.pair.Base && symbol != g.pair.Quote {
			continue
		}
		available, parseErr := decimal.NewFromString(coin.WalletBalance)
		if parseErr != nil {
			return nil, errors.Wrapf(parseErr, "parse %s balance", symbol)
		}
		balances[symbol] = available
	}

	price, err := g.getPrice()
	if err != nil {
		return nil, err
	}

	return domain.NewPortfolioSnapshot(g.pair, balances, price, time.Now())
}

func (g *BybitGateway) getPrice() (decimal.Decimal, error) {
	symbol := bybit.SymbolV5(g.pair.Symbol())

	res, err := g.client.V5().Market().GetTickers(bybit.V5GetTickersParam{
		Category: "spot",
		Symbol:   &symbol,
	})
	if err != nil {
		return decimal.Decimal{}, classifyBybitErr("bybit: get tickers", err)
	}
	if len(res.Result.Spot.List) == 0 {
		return decimal.Decimal{}, errors.Errorf("bybit returned no ticker for %s", g.pair.String())
	}

	return decimal.NewFromString(res.Result.Spot.List[0].LastPrice)
}

// GetRecentTrades returns the account's latest executions for the pair.
func (g *BybitGateway) GetRecentTrades(ctx context.Context, limit int) ([]domain.ExchangeTrade, error) {
	symbol := bybit.SymbolV5(g.pair.Symbol())

	res, err := g.client.V5().Execution().GetExecutionList(bybit.V5GetExecutionParam{
		Category: "spot",
		Symbol:   &symbol,
		Limit:    &limit,
	})
	if err != nil {
		return nil, classifyBybitErr("bybit: get execution list", err)
	}

	trades := make([]domain.ExchangeTrade, 0, len(res.Result.List))
	for _, execution := range res.Result.List {
		price, parseErr := decimal.NewFromString(execution.ExecPrice)
		if parseErr != nil {
			return nil, errors.Wrap(parseErr, "parse execution price")
		}
		size, parseErr := decimal.NewFromString(execution.ExecQty)
		if parseErr != nil {
			return nil, errors.Wrap(parseErr, "parse execution quantity")
		}

		createdAt, parseErr := parseBybitMillis(execution.ExecTime)
		if parseErr != nil {
			return nil, errors.Wrap(parseErr, "parse execution time")
		}

		trades = append(trades, domain.ExchangeTrade{
			Symbol:    string(execution.Symbol),
			Side:      strings.ToLower(string(execution.Side)),
			Price:     price,
			Size:      size,
			Fee:       execution.ExecFee,
			CreatedAt: createdAt,
		})
	}

	return trades, nil
}

// GetOrderBook returns the top of the book down to the requested depth.
func (g *BybitGateway) GetOrderBook(ctx context.Context, depth int) (*domain.OrderBookSnapshot, error) {
	symbol := bybit.SymbolV5(g.pair.Symbol())

	res, err := g.client.V5().Market().GetOrderbook(bybit.V5GetOrderbookParam{
		Category: "spot",
		Symbol:   symbol,
		Limit:    &depth,
	})
	if err != nil {
		return nil, classifyBybitErr("bybit: get orderbook", err)
	}

	snapshot := &domain.OrderBookSnapshot{CapturedAt: time.Now()}

	for _, bid := range res.Result.Bids {
		level, convErr := toPriceLevel(bid.Price, bid.Quantity)
		if convErr != nil {
			return nil, convErr
		}
		snapshot.Bids = append(snapshot.Bids, level)
	}
	for _, ask := range res.Result.Asks {
		level, convErr := toPriceLevel(ask.Price, ask.Quantity)
		if convErr != nil {
			return nil, convErr
		}
		snapshot.Asks = append(snapshot.Asks, level)
	}

	return snapshot, nil
}

// SubmitMarketOrder places a spot market order; the client order id travels
// as the Bybit order link id.
func (g *BybitGateway) SubmitMarketOrder(ctx context.Context, clientOrderID string, side domain.Side, size decimal.Decimal) (*OrderResult, error) {
	orderSide := bybit.SideSell
	if side == domain.SideBuy {
		orderSide = bybit.SideBuy
	}

	res, err := g.client.V5().Order().CreateOrder(bybit.V5CreateOrderParam{
		Category:    "spot",
		Symbol:      bybit.SymbolV5(g.pair.Symbol()),
		Side:        orderSide,
		OrderType:   bybit.OrderTypeMarket,
		Qty:         size.String(),
		OrderLinkID: &clientOrderID,
	})
	if err != nil {
		return nil, classifyBybitErr("bybit: create market order", err)
	}

	return &OrderResult{
		OrderID:       res.Result.OrderID,
		ClientOrderID: res.Result.OrderLinkID,
	}, nil
}

func parseBybitMillis(raw string) (time.Time, error) {
	millis, err := decimal.NewFromString(raw)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parse millisecond timestamp %q", raw)
	}
	return time.UnixMilli(millis.IntPart()), nil
}

// classifyBybitErr classifies by response content. The Bybit client surfaces
// API failures as plain errors carrying the retCode and message, so matching
// on message text is the only classification available.
func classifyBybitErr(op string, err error) error {
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "insufficient"):
		return &Error{Kind: KindInsufficientFunds, Op: op, Err: err}
	case strings.Contains(msg, "too many visits"),
		strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "system busy"):
		return &Error{Kind: KindTransient, Op: op, Err: err}
	default:
		return &Error{Kind: KindOther, Op: op, Err: err}
	}
}
