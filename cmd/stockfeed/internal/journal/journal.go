// Package journal appends every simulated price change to a Kafka topic.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/shubham-shewale/stock-feed/pkg/models"
)

type Journal struct {
	logger      *zap.Logger
	writer      KafkaWriter
	clock       Clock
	mu          sync.Mutex
	seqCounters map[string]int64
}

func NewJournal(logger *zap.Logger, writer KafkaWriter, clock Clock) *Journal {
	return &Journal{
		logger:      logger,
		writer:      writer,
		clock:       clock,
		seqCounters: make(map[string]int64),
	}
}

// Publish writes one StockUpdate keyed by symbol, so all updates of a symbol
// land on the same partition in order.
func (j *Journal) Publish(ctx context.Context, stock models.Stock) error {
	j.mu.Lock()
	j.seqCounters[stock.TickerSymbol]++
	seq := j.seqCounters[stock.TickerSymbol]
	j.mu.Unlock()

	update := models.StockUpdate{
		Symbol:    stock.TickerSymbol,
		Price:     stock.CurrentPrice,
		High:      stock.HighestPrice,
		Low:       stock.LowestPrice,
		Timestamp: j.clock.Now().UnixMicro(),
		SeqID:     seq,
	}

	payload, err := json.Marshal(update)
	if err != nil {
		return err
	}

	if err := j.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(update.Symbol),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("kafka write %s: %w", update.Symbol, err)
	}

	j.logger.Debug("Journaled update", zap.String("symbol", update.Symbol), zap.Int64("seq_id", seq))
	return nil
}

// Close flushes buffered messages.
func (j *Journal) Close() error {
	return j.writer.Close()
}
