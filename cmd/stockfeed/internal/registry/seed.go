package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/shubham-shewale/stock-feed/pkg/models"
)

type seedFile struct {
	Stocks []models.Stock `yaml:"stocks"`
}

// DefaultSeed is the listing the service starts with when no seed file is configured.
func DefaultSeed() []models.Stock {
	return []models.Stock{
		{
			Name:                "Apple",
			TickerSymbol:        "AAPL",
			CurrentPrice:        130.00,
			HistoricalPriceData: []float64{129.50, 130.25, 130.75},
			HighestPrice:        130.75,
			LowestPrice:         129.50,
			TradingVolume:       100000,
		},
		{
			Name:                "Microsoft",
			TickerSymbol:        "MSFT",
			CurrentPrice:        270.00,
			HistoricalPriceData: []float64{269.50, 270.25, 270.75},
			HighestPrice:        270.75,
			LowestPrice:         269.50,
			TradingVolume:       50000,
		},
	}
}

// LoadSeed reads a YAML listing of the form
//
//	stocks:
//	  - name: Apple
//	    tickerSymbol: AAPL
//	    currentPrice: 130
//
// Missing extrema default to the current price.
func LoadSeed(path string) ([]models.Stock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}

	for i := range f.Stocks {
		s := &f.Stocks[i]
		if s.HighestPrice == 0 && s.LowestPrice == 0 {
			s.HighestPrice = s.CurrentPrice
			s.LowestPrice = s.CurrentPrice
		}
		if s.HistoricalPriceData == nil {
			s.HistoricalPriceData = []float64{}
		}
	}
	return f.Stocks, nil
}

// Seed inserts every stock, stopping at the first failure.
func (r *Registry) Seed(stocks []models.Stock) error {
	for _, s := range stocks {
		if err := r.Insert(s); err != nil {
			return fmt.Errorf("seed %s: %w", s.TickerSymbol, err)
		}
	}
	return nil
}
