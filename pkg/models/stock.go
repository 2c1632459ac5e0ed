package models

import "strings"

// Stock is the canonical record for a tradable instrument. Values of this type
// handed out by the registry are snapshots and never alias registry state.
type Stock struct {
	Name                string    `json:"name" yaml:"name"`
	TickerSymbol        string    `json:"tickerSymbol" yaml:"tickerSymbol"`
	CurrentPrice        float64   `json:"currentPrice" yaml:"currentPrice"`
	HistoricalPriceData []float64 `json:"historicalPriceData" yaml:"historicalPriceData"`
	HighestPrice        float64   `json:"highestPrice" yaml:"highestPrice"`
	LowestPrice         float64   `json:"lowestPrice" yaml:"lowestPrice"`
	TradingVolume       int64     `json:"tradingVolume" yaml:"tradingVolume"`
}

// NewStock builds a freshly listed record: both extrema at the initial price,
// empty history and zero volume.
func NewStock(name, ticker string, price float64) Stock {
	return Stock{
		Name:                name,
		TickerSymbol:        ticker,
		CurrentPrice:        price,
		HistoricalPriceData: []float64{},
		HighestPrice:        price,
		LowestPrice:         price,
	}
}

// Clone returns a deep copy, including the history slice.
func (s Stock) Clone() Stock {
	out := s
	out.HistoricalPriceData = make([]float64, len(s.HistoricalPriceData))
	copy(out.HistoricalPriceData, s.HistoricalPriceData)
	return out
}

// StockUpdate represents a single market tick for a stock symbol
type StockUpdate struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Timestamp int64   `json:"timestamp"` // unix micro
	SeqID     int64   `json:"seq_id"`    // monotonic counter per symbol
}

// NormalizeTicker trims and upper-cases a ticker symbol.
func NormalizeTicker(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
