package simulator

import (
	"context"
	"math/rand"
	"time"

	"github.com/shubham-shewale/stock-feed/pkg/models"
)

// for deterministic testing
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// for deterministic values
type Rand interface {
	Float64() float64
}

// PriceSource is the part of the registry the simulator drives.
type PriceSource interface {
	Tickers() []string
	MutatePrice(ticker string, delta float64) (models.Stock, error)
}

// Sink receives every updated snapshot.
type Sink interface {
	Publish(ctx context.Context, stock models.Stock) error
}

type RealClock struct{}

func (RealClock) Now() time.Time                         { return time.Now() }
func (RealClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

type RealRand struct{ *rand.Rand }

func NewRealRand() RealRand {
	return RealRand{rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (r RealRand) Float64() float64 { return r.Rand.Float64() }
