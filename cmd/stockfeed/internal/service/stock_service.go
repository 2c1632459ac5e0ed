package service

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/shubham-shewale/stock-feed/cmd/stockfeed/internal/metrics"
	"github.com/shubham-shewale/stock-feed/cmd/stockfeed/internal/registry"
	"github.com/shubham-shewale/stock-feed/pkg/models"
)

// StockService is the single entry point used by the REST, GraphQL and
// websocket surfaces.
type StockService struct {
	registry *registry.Registry
	logger   *zap.Logger
}

func NewStockService(reg *registry.Registry, logger *zap.Logger) *StockService {
	metrics.Stocks.Set(float64(reg.Len()))
	return &StockService{registry: reg, logger: logger}
}

// CreateStock lists a new stock. Returns registry.ErrDuplicateTicker when the
// ticker is taken and registry.ErrInvalidStock for bad input.
func (s *StockService) CreateStock(name, ticker string, initialPrice float64) (models.Stock, error) {
	stock := models.NewStock(name, models.NormalizeTicker(ticker), initialPrice)
	if err := s.registry.Insert(stock); err != nil {
		return models.Stock{}, fmt.Errorf("create stock: %w", err)
	}

	metrics.Stocks.Set(float64(s.registry.Len()))
	s.logger.Info("Stock created", zap.String("symbol", stock.TickerSymbol), zap.Float64("price", initialPrice))
	return stock.Clone(), nil
}

func (s *StockService) GetStock(ticker string) (models.Stock, error) {
	stock, ok := s.registry.Get(models.NormalizeTicker(ticker))
	if !ok {
		return models.Stock{}, fmt.Errorf("%w: %s", registry.ErrNotFound, ticker)
	}
	return stock, nil
}

func (s *StockService) ListStocks() []models.Stock {
	return s.registry.List()
}

// QueryByTicker backs the query surface; it is a plain read-through.
func (s *StockService) QueryByTicker(ticker string) (models.Stock, error) {
	return s.GetStock(ticker)
}
