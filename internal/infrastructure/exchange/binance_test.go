package exchange

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/breakout_monitor/internal/domain"
)

func newTestBinance(t *testing.T, handler http.HandlerFunc) *BinanceAdapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewBinanceAdapter("", "", srv.URL, GuardConfig{Timeout: 2 * time.Second, RequestsPerSec: 1000, Burst: 1000})
}

func fakeFutures(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/fapi/v1/ticker/24hr":
		w.Write([]byte(`[
			{"symbol":"BTCUSDT","priceChange":"120.5","priceChangePercent":"0.250","lastPrice":"48300.10","quoteVolume":"9876543210.5"},
			{"symbol":"ETHUSDT","priceChange":"-10","priceChangePercent":"-1.900","lastPrice":"2500.00","quoteVolume":"123456789"},
			{"symbol":"BADUSDT","priceChangePercent":"n/a","lastPrice":"1","quoteVolume":"1"}
		]`))
	case "/fapi/v1/klines":
		if r.URL.Query().Get("symbol") != "BTCUSDT" || r.URL.Query().Get("interval") != "1h" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
			return
		}
		w.Write([]byte(`[
			[1709283600000,"100.0","105.0","95.0","101.0","1000.5",1709287199999,"100000","10","500","50000","0"],
			[1709287200000,"101.0","103.5","99.5","102.0","800",1709290799999,"80000","8","400","40000","0"]
		]`))
	case "/fapi/v1/ticker/price":
		w.Write([]byte(`[{"symbol":"` + r.URL.Query().Get("symbol") + `","price":"48310.50","time":1709290000000}]`))
	case "/fapi/v1/openInterest":
		w.Write([]byte(`{"openInterest":"10659.509","symbol":"BTCUSDT","time":1709290000000}`))
	case "/fapi/v1/fundingRate":
		w.Write([]byte(`[{"symbol":"BTCUSDT","fundingRate":"0.00150000","fundingTime":1709280000000,"markPrice":"48000"}]`))
	default:
		http.NotFound(w, r)
	}
}

func TestBinanceAdapter_ListTickers(t *testing.T) {
	b := newTestBinance(t, fakeFutures)

	tickers, err := b.ListTickers(context.Background())
	require.NoError(t, err)
	require.Len(t, tickers, 2, "unparseable tickers are dropped")
	assert.Equal(t, "BTCUSDT", tickers[0].Symbol)
	assert.Equal(t, 0.25, tickers[0].PriceChangePercent)
	assert.Equal(t, 9876543210.5, tickers[0].QuoteVolume)
	assert.Equal(t, 48300.10, tickers[0].LastPrice)
	assert.Equal(t, -1.9, tickers[1].PriceChangePercent)
}

func TestBinanceAdapter_GetCandles(t *testing.T) {
	b := newTestBinance(t, fakeFutures)

	candles, err := b.GetCandles(context.Background(), "BTCUSDT", "1h", 2)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, domain.Candle{
		OpenTime: 1709283600000, CloseTime: 1709287199999,
		Open: 100, High: 105, Low: 95, Close: 101, Volume: 1000.5,
	}, candles[0])
	assert.Equal(t, 103.5, candles[1].High)
}

func TestBinanceAdapter_GetCandlesAPIError(t *testing.T) {
	b := newTestBinance(t, fakeFutures)

	_, err := b.GetCandles(context.Background(), "NOPEUSDT", "1h", 2)
	require.Error(t, err)
	assert.True(t, domain.IsRecoverable(err))
	assert.Contains(t, err.Error(), "NOPEUSDT")
}

func TestBinanceAdapter_PriceOpenInterestFunding(t *testing.T) {
	b := newTestBinance(t, fakeFutures)
	ctx := context.Background()

	price, err := b.GetCurrentPrice(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 48310.50, price)

	oi, err := b.GetOpenInterest(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 10659.509, oi)

	funding, err := b.GetFundingRate(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.InDelta(t, 0.15, funding, 1e-12)
}

func TestBinanceAdapter_FundingRateEmpty(t *testing.T) {
	b := newTestBinance(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, err := b.GetFundingRate(context.Background(), "BTCUSDT")
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestGuard_BreakerOpensAfterFailures(t *testing.T) {
	g := newGuard("test", GuardConfig{FailureThreshold: 2, RequestsPerSec: 1000, Burst: 10, OpenTimeout: time.Minute})
	boom := errors.New("boom")
	calls := 0
	fail := func(ctx context.Context) (interface{}, error) {
		calls++
		return nil, boom
	}

	for i := 0; i < 2; i++ {
		_, err := g.do(context.Background(), fail)
		assert.ErrorIs(t, err, boom)
	}
	_, err := g.do(context.Background(), fail)
	require.Error(t, err)
	assert.NotErrorIs(t, err, boom)
	assert.Equal(t, 2, calls, "open breaker short-circuits the call")
}

func TestGuard_CancelledContext(t *testing.T) {
	g := newGuard("test", GuardConfig{RequestsPerSec: 0.001, Burst: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.do(ctx, func(ctx context.Context) (interface{}, error) { return 1, nil })
	assert.Error(t, err)
}
