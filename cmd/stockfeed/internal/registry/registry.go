package registry

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/shubham-shewale/stock-feed/pkg/models"
)

type entry struct {
	mu    sync.Mutex
	stock models.Stock
}

// Registry owns every stock record. Lookups are keyed by ticker; each record
// has its own lock so price updates on different tickers never contend.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string
}

func New() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Insert adds a record. The registry keeps its own copy.
func (r *Registry) Insert(stock models.Stock) error {
	if err := validate(stock); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[stock.TickerSymbol]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTicker, stock.TickerSymbol)
	}
	r.entries[stock.TickerSymbol] = &entry{stock: stock.Clone()}
	r.order = append(r.order, stock.TickerSymbol)
	return nil
}

func (r *Registry) Get(ticker string) (models.Stock, bool) {
	e := r.lookup(ticker)
	if e == nil {
		return models.Stock{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stock.Clone(), true
}

// List returns snapshots in insertion order.
func (r *Registry) List() []models.Stock {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.order))
	for _, t := range r.order {
		entries = append(entries, r.entries[t])
	}
	r.mu.RUnlock()

	out := make([]models.Stock, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.stock.Clone())
		e.mu.Unlock()
	}
	return out
}

func (r *Registry) Tickers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// MutatePrice moves the current price by delta, widens the extrema if needed
// and appends the new price to the history. The whole update happens under the
// record's lock.
func (r *Registry) MutatePrice(ticker string, delta float64) (models.Stock, error) {
	e := r.lookup(ticker)
	if e == nil {
		return models.Stock{}, fmt.Errorf("%w: %s", ErrNotFound, ticker)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	price := decimal.NewFromFloat(e.stock.CurrentPrice).
		Add(decimal.NewFromFloat(delta)).
		InexactFloat64()

	e.stock.CurrentPrice = price
	if price > e.stock.HighestPrice {
		e.stock.HighestPrice = price
	}
	if price < e.stock.LowestPrice {
		e.stock.LowestPrice = price
	}
	e.stock.HistoricalPriceData = append(e.stock.HistoricalPriceData, price)

	return e.stock.Clone(), nil
}

func (r *Registry) lookup(ticker string) *entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[ticker]
}

func validate(s models.Stock) error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidStock)
	}
	if s.TickerSymbol == "" {
		return fmt.Errorf("%w: tickerSymbol is required", ErrInvalidStock)
	}
	if s.LowestPrice > s.CurrentPrice || s.CurrentPrice > s.HighestPrice {
		return fmt.Errorf("%w: %s price %.4f outside [%.4f, %.4f]",
			ErrInvalidStock, s.TickerSymbol, s.CurrentPrice, s.LowestPrice, s.HighestPrice)
	}
	if s.TradingVolume < 0 {
		return fmt.Errorf("%w: %s has negative volume", ErrInvalidStock, s.TickerSymbol)
	}
	return nil
}
