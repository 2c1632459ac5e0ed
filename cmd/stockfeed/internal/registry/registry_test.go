package registry_test

import (
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shubham-shewale/stock-feed/cmd/stockfeed/internal/registry"
	"github.com/shubham-shewale/stock-feed/pkg/models"
)

func TestRegistry_InsertAndGet(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Insert(models.NewStock("Apple", "AAPL", 130)))

	got, ok := r.Get("AAPL")
	require.True(t, ok)
	assert.Equal(t, 130.0, got.CurrentPrice)
	assert.Equal(t, got.CurrentPrice, got.HighestPrice)
	assert.Equal(t, got.CurrentPrice, got.LowestPrice)
	assert.Empty(t, got.HistoricalPriceData)
	assert.Zero(t, got.TradingVolume)
}

func TestRegistry_GetMissing(t *testing.T) {
	r := registry.New()
	_, ok := r.Get("GOOG")
	assert.False(t, ok)
}

func TestRegistry_DuplicateTickerLeavesStateUntouched(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Insert(models.NewStock("Apple", "AAPL", 130)))

	err := r.Insert(models.NewStock("Apple Again", "AAPL", 1))
	assert.ErrorIs(t, err, registry.ErrDuplicateTicker)
	assert.Equal(t, 1, r.Len())

	got, _ := r.Get("AAPL")
	assert.Equal(t, "Apple", got.Name)
	assert.Equal(t, 130.0, got.CurrentPrice)
}

func TestRegistry_InsertRejectsInvalid(t *testing.T) {
	r := registry.New()

	assert.ErrorIs(t, r.Insert(models.NewStock("", "AAPL", 1)), registry.ErrInvalidStock)
	assert.ErrorIs(t, r.Insert(models.NewStock("Apple", "", 1)), registry.ErrInvalidStock)

	broken := models.NewStock("Apple", "AAPL", 10)
	broken.HighestPrice = 5
	assert.ErrorIs(t, r.Insert(broken), registry.ErrInvalidStock)
	assert.Zero(t, r.Len())
}

func TestRegistry_MutatePriceExample(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Insert(models.NewStock("Apple", "AAPL", 130.00)))

	got, err := r.MutatePrice("AAPL", 0.5)
	require.NoError(t, err)

	assert.Equal(t, 130.50, got.CurrentPrice)
	assert.Equal(t, 130.50, got.HighestPrice)
	assert.Equal(t, 130.00, got.LowestPrice)
	assert.Equal(t, []float64{130.50}, got.HistoricalPriceData)
}

func TestRegistry_MutatePriceNotFound(t *testing.T) {
	r := registry.New()
	_, err := r.MutatePrice("GOOG", 1)
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestRegistry_MutatePriceKeepsInvariant(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Insert(models.NewStock("Apple", "AAPL", 100)))

	rnd := rand.New(rand.NewSource(7))
	for i := 1; i <= 500; i++ {
		got, err := r.MutatePrice("AAPL", rnd.Float64()*2-1)
		require.NoError(t, err)
		require.LessOrEqual(t, got.LowestPrice, got.CurrentPrice)
		require.LessOrEqual(t, got.CurrentPrice, got.HighestPrice)
		require.Len(t, got.HistoricalPriceData, i)
	}
}

func TestRegistry_SnapshotsAreCopies(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Insert(models.NewStock("Apple", "AAPL", 100)))
	_, err := r.MutatePrice("AAPL", 1)
	require.NoError(t, err)

	snap, _ := r.Get("AAPL")
	snap.HistoricalPriceData[0] = -1
	snap.CurrentPrice = -1

	again, _ := r.Get("AAPL")
	assert.Equal(t, 101.0, again.CurrentPrice)
	assert.Equal(t, []float64{101}, again.HistoricalPriceData)

	list := r.List()
	list[0].HistoricalPriceData[0] = -5
	again, _ = r.Get("AAPL")
	assert.Equal(t, 101.0, again.HistoricalPriceData[0])
}

func TestRegistry_ListPreservesInsertionOrder(t *testing.T) {
	r := registry.New()
	for _, tk := range []string{"MSFT", "AAPL", "GOOG"} {
		require.NoError(t, r.Insert(models.NewStock(tk, tk, 1)))
	}

	var got []string
	for _, s := range r.List() {
		got = append(got, s.TickerSymbol)
	}
	assert.Equal(t, []string{"MSFT", "AAPL", "GOOG"}, got)
	assert.Equal(t, got, r.Tickers())
}

func TestRegistry_ConcurrentMutations(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Seed(registry.DefaultSeed()))

	const writers, perWriter = 8, 200
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(seed))
			for i := 0; i < perWriter; i++ {
				for _, tk := range []string{"AAPL", "MSFT"} {
					_, _ = r.MutatePrice(tk, rnd.Float64()*2-1)
				}
			}
		}(int64(w))
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < perWriter; i++ {
			for _, s := range r.List() {
				assert.LessOrEqual(t, s.LowestPrice, s.CurrentPrice)
				assert.LessOrEqual(t, s.CurrentPrice, s.HighestPrice)
			}
		}
	}()
	wg.Wait()

	for _, s := range r.List() {
		assert.Len(t, s.HistoricalPriceData, 3+writers*perWriter)
	}
}

func TestLoadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	content := `stocks:
  - name: Alphabet
    tickerSymbol: GOOG
    currentPrice: 140.25
  - name: Tesla
    tickerSymbol: TSLA
    currentPrice: 700
    historicalPriceData: [690, 710]
    highestPrice: 710
    lowestPrice: 690
    tradingVolume: 42
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	stocks, err := registry.LoadSeed(path)
	require.NoError(t, err)
	require.Len(t, stocks, 2)

	assert.Equal(t, 140.25, stocks[0].HighestPrice)
	assert.Equal(t, 140.25, stocks[0].LowestPrice)
	assert.NotNil(t, stocks[0].HistoricalPriceData)
	assert.Equal(t, int64(42), stocks[1].TradingVolume)

	r := registry.New()
	require.NoError(t, r.Seed(stocks))
	assert.Equal(t, 2, r.Len())
}

func TestLoadSeed_MissingFile(t *testing.T) {
	_, err := registry.LoadSeed(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
