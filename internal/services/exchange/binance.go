package exchange

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/jonasdebeukelaer/bot-1/internal/domain"
)

// Binance API error codes the adapter classifies.
const (
	binanceCodeInsufficientBalance = -2010
	binanceCodeDisconnected        = -1001
	binanceCodeTooManyRequests     = -1003
	binanceCodeServerBusy          = -3044
)

// BinanceGateway implements Gateway against Binance spot.
type BinanceGateway struct {
	client *binance.Client
	pair   domain.Pair
}

// NewBinanceGateway creates a gateway bound to a single trading pair.
func NewBinanceGateway(client *binance.Client, pair domain.Pair) *BinanceGateway {
	return &BinanceGateway{client: client, pair: pair}
}

// GetPortfolioSnapshot reads spot balances plus the last traded price and
// folds them into an immutable snapshot.
func (g *BinanceGateway) GetPortfolioSnapshot(ctx context.Context) (*domain.PortfolioSnapshot, error) {
	account, err := g.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, classifyBinanceErr("binance: get account", err)
	}

	balances := make(map[string]decimal.Decimal, 2)
	for _, balance := range account.Balances {
		if balance.Asset != g.pair.Base && balance.Asset != g.pair.Quote {
			continue
		}
		free, parseErr := decimal.NewFromString(balance.Free)
		if parseErr != nil {
			return nil, errors.Wrapf(parseErr, "parse %s balance", balance.Asset)
		}
		balances[balance.Asset] = free
	}

	price, err := g.getPrice(ctx)
	if err != nil {
		return nil, err
	}

	return domain.NewPortfolioSnapshot(g.pair, balances, price, time.Now())
}

func (g *BinanceGateway) getPrice(ctx context.Context) (decimal.Decimal, error) {
	prices, err := g.client.NewListPricesService().Symbol(g.pair.Symbol()).Do(ctx)
	if err != nil {
		return decimal.Decimal{}, classifyBinanceErr("binance: list prices", err)
	}
	if len(prices) == 0 {
		return decimal.Decimal{}, errors.Errorf("binance returned no price for %s", g.pair.String())
	}
	return decimal.NewFromString(prices[0].Price)
}

// GetRecentTrades returns the account's latest fills for the pair, newest first.
func (g *BinanceGateway) GetRecentTrades(ctx context.Context, limit int) ([]domain.ExchangeTrade, error) {
	fills, err := g.client.NewListTradesService().Symbol(g.pair.Symbol()).Limit(limit).Do(ctx)
	if err != nil {
		return nil, classifyBinanceErr("binance: list my trades", err)
	}

	trades := make([]domain.ExchangeTrade, 0, len(fills))
	for i := len(fills) - 1; i >= 0; i-- {
		fill := fills[i]

		price, parseErr := decimal.NewFromString(fill.Price)
		if parseErr != nil {
			return nil, errors.Wrap(parseErr, "parse fill price")
		}
		size, parseErr := decimal.NewFromString(fill.Quantity)
		if parseErr != nil {
			return nil, errors.Wrap(parseErr, "parse fill quantity")
		}

		side := domain.SideSell
		if fill.IsBuyer {
			side = domain.SideBuy
		}

		trades = append(trades, domain.ExchangeTrade{
			Symbol:    fill.Symbol,
			Side:      side.String(),
			Price:     price,
			Size:      size,
			Fee:       fill.Commission + " " + fill.CommissionAsset,
			CreatedAt: time.UnixMilli(fill.Time),
		})
	}

	return trades, nil
}

// GetOrderBook returns the top of the book down to the requested depth.
func (g *BinanceGateway) GetOrderBook(ctx context.Context, depth int) (*domain.OrderBookSnapshot, error) {
	book, err := g.client.NewDepthService().Symbol(g.pair.Symbol()).Limit(depth).Do(ctx)
	if err != nil {
		return nil, classifyBinanceErr("binance: get depth", err)
	}

	snapshot := &domain.OrderBookSnapshot{CapturedAt: time.Now()}

	for _, bid := range book.Bids {
		level, convErr := toPriceLevel(bid.Price, bid.Quantity)
		if convErr != nil {
			return nil, convErr
		}
		snapshot.Bids = append(snapshot.Bids, level)
	}
	for _, ask := range book.Asks {
		level, convErr := toPriceLevel(ask.Price, ask.Quantity)
		if convErr != nil {
			return nil, convErr
		}
		snapshot.Asks = append(snapshot.Asks, level)
	}

	return snapshot, nil
}

// SubmitMarketOrder places a spot market order carrying the client order id.
func (g *BinanceGateway) SubmitMarketOrder(ctx context.Context, clientOrderID string, side domain.Side, size decimal.Decimal) (*OrderResult, error) {
	orderSide := binance.SideTypeSell
	if side == domain.SideBuy {
		orderSide = binance.SideTypeBuy
	}

	order, err := g.client.NewCreateOrderService().
		Symbol(g.pair.Symbol()).
		Side(orderSide).
		Type(binance.OrderTypeMarket).
		Quantity(size.String()).
		NewClientOrderID(clientOrderID).
		Do(ctx)
	if err != nil {
		return nil, classifyBinanceErr("binance: create market order", err)
	}

	return &OrderResult{
		OrderID:       strconv.FormatInt(order.OrderID, 10),
		ClientOrderID: order.ClientOrderID,
	}, nil
}

func toPriceLevel(price, quantity string) (domain.PriceLevel, error) {
	p, err := decimal.NewFromString(price)
	if err != nil {
		return domain.PriceLevel{}, errors.Wrap(err, "parse book price")
	}
	q, err := decimal.NewFromString(quantity)
	if err != nil {
		return domain.PriceLevel{}, errors.Wrap(err, "parse book quantity")
	}
	return domain.PriceLevel{Price: p, Size: q}, nil
}

func classifyBinanceErr(op string, err error) error {
	if apiErr, ok := err.(*common.APIError); ok {
		switch apiErr.Code {
		case binanceCodeInsufficientBalance:
			return &Error{Kind: KindInsufficientFunds, Op: op, Err: err}
		case binanceCodeDisconnected, binanceCodeTooManyRequests, binanceCodeServerBusy:
			return &Error{Kind: KindTransient, Op: op, Err: err}
		}
		return &Error{Kind: KindOther, Op: op, Err: err}
	}

	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return &Error{Kind: KindTransient, Op: op, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTransient, Op: op, Err: err}
	}

	return &Error{Kind: KindOther, Op: op, Err: err}
}
