package repository

import (
	"context"

	"github.com/shubham-shewale/stock-feed/pkg/models"
)

// SnapshotStore mirrors the latest snapshot of every stock for readers
// outside this process.
type SnapshotStore interface {
	Publish(ctx context.Context, stock models.Stock) error
	Ping(ctx context.Context) error
	Close() error
}
