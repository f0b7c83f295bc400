package domain

// Ticker is one row of the 24h ticker snapshot.
type Ticker struct {
	Symbol             string  `json:"symbol"`
	LastPrice          float64 `json:"last_price"`
	PriceChangePercent float64 `json:"price_change_percent"` // 24h, percent
	QuoteVolume        float64 `json:"quote_volume"`         // 24h turnover in quote asset
}

// Candle is a single kline. Times are unix milliseconds.
type Candle struct {
	OpenTime  int64   `json:"open_time"`
	CloseTime int64   `json:"close_time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Range returns the candle's true range (high - low).
func (c Candle) Range() float64 {
	return c.High - c.Low
}
