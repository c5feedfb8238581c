package clients

import bybit "github.com/hirokisan/bybit/v2"

func NewBybitClient(apiKey, apiSecret string) *bybit.Client {
	return bybit.NewClient().WithAuth(apiKey, apiSecret)
}
