package exchange

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/vitos/breakout_monitor/internal/domain"
)

const BinanceFuturesURL = "https://fapi.binance.com"

// BinanceAdapter reads USDT-M futures market data over REST.
type BinanceAdapter struct {
	client *futures.Client
	guard  *guard
}

func NewBinanceAdapter(apiKey, apiSecret, baseURL string, cfg GuardConfig) *BinanceAdapter {
	if baseURL == "" {
		baseURL = BinanceFuturesURL
	}
	client := futures.NewClient(apiKey, apiSecret)
	client.BaseURL = baseURL
	client.HTTPClient = &http.Client{Timeout: 15 * time.Second}

	return &BinanceAdapter{
		client: client,
		guard:  newGuard("binance-futures", cfg),
	}
}

func (b *BinanceAdapter) ListTickers(ctx context.Context) ([]domain.Ticker, error) {
	res, err := b.guard.do(ctx, func(ctx context.Context) (interface{}, error) {
		return b.client.NewListPriceChangeStatsService().Do(ctx)
	})
	if err != nil {
		return nil, domain.NewFetchError("list tickers", "", err)
	}

	stats := res.([]*futures.PriceChangeStats)
	tickers := make([]domain.Ticker, 0, len(stats))
	for _, st := range stats {
		change, err := strconv.ParseFloat(st.PriceChangePercent, 64)
		if err != nil {
			continue
		}
		volume, _ := strconv.ParseFloat(st.QuoteVolume, 64)
		last, _ := strconv.ParseFloat(st.LastPrice, 64)
		tickers = append(tickers, domain.Ticker{
			Symbol:             st.Symbol,
			LastPrice:          last,
			PriceChangePercent: change,
			QuoteVolume:        volume,
		})
	}
	return tickers, nil
}

func (b *BinanceAdapter) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	res, err := b.guard.do(ctx, func(ctx context.Context) (interface{}, error) {
		return b.client.NewKlinesService().Symbol(symbol).Interval(interval).Limit(limit).Do(ctx)
	})
	if err != nil {
		return nil, domain.NewFetchError("get candles", symbol, err)
	}

	// Klines come oldest first; the last one is still forming.
	klines := res.([]*futures.Kline)
	candles := make([]domain.Candle, 0, len(klines))
	for _, k := range klines {
		c, err := toCandle(k)
		if err != nil {
			return nil, domain.NewFetchError("get candles", symbol, err)
		}
		candles = append(candles, c)
	}
	return candles, nil
}

func toCandle(k *futures.Kline) (domain.Candle, error) {
	vals := make([]float64, 5)
	for i, s := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return domain.Candle{}, fmt.Errorf("parse kline %d: %w", k.OpenTime, err)
		}
		vals[i] = v
	}
	return domain.Candle{
		OpenTime:  k.OpenTime,
		CloseTime: k.CloseTime,
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vals[4],
	}, nil
}

func (b *BinanceAdapter) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	res, err := b.guard.do(ctx, func(ctx context.Context) (interface{}, error) {
		return b.client.NewListPricesService().Symbol(symbol).Do(ctx)
	})
	if err != nil {
		return 0, domain.NewFetchError("get price", symbol, err)
	}

	prices := res.([]*futures.SymbolPrice)
	for _, p := range prices {
		if p.Symbol != symbol {
			continue
		}
		price, err := strconv.ParseFloat(p.Price, 64)
		if err != nil {
			return 0, domain.NewFetchError("get price", symbol, err)
		}
		return price, nil
	}
	return 0, domain.NewFetchError("get price", symbol, fmt.Errorf("symbol not found"))
}

func (b *BinanceAdapter) GetOpenInterest(ctx context.Context, symbol string) (float64, error) {
	res, err := b.guard.do(ctx, func(ctx context.Context) (interface{}, error) {
		return b.client.NewGetOpenInterestService().Symbol(symbol).Do(ctx)
	})
	if err != nil {
		return 0, domain.NewFetchError("get open interest", symbol, err)
	}

	oi, err := strconv.ParseFloat(res.(*futures.OpenInterest).OpenInterest, 64)
	if err != nil {
		return 0, domain.NewFetchError("get open interest", symbol, err)
	}
	return oi, nil
}

// GetFundingRate returns the most recent funding rate in percent (0.0001 -> 0.01).
func (b *BinanceAdapter) GetFundingRate(ctx context.Context, symbol string) (float64, error) {
	res, err := b.guard.do(ctx, func(ctx context.Context) (interface{}, error) {
		return b.client.NewFundingRateService().Symbol(symbol).Limit(1).Do(ctx)
	})
	if err != nil {
		return 0, domain.NewFetchError("get funding rate", symbol, err)
	}

	rates := res.([]*futures.FundingRate)
	if len(rates) == 0 {
		return 0, domain.NewFetchError("get funding rate", symbol, domain.ErrInsufficientData)
	}
	latest := rates[0]
	for _, r := range rates[1:] {
		if r.FundingTime > latest.FundingTime {
			latest = r
		}
	}
	rate, err := strconv.ParseFloat(latest.FundingRate, 64)
	if err != nil {
		return 0, domain.NewFetchError("get funding rate", symbol, err)
	}
	return rate * 100, nil
}
