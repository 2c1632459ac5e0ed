package journal_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/shubham-shewale/stock-feed/cmd/stockfeed/internal/journal"
	"github.com/shubham-shewale/stock-feed/cmd/stockfeed/internal/testutils"
	"github.com/shubham-shewale/stock-feed/pkg/models"
)

func TestJournal_Publish(t *testing.T) {
	mockWriter := &testutils.MockKafkaWriter{}
	mockClock := &testutils.MockClock{CurrentTime: time.Unix(0, 0)}
	j := journal.NewJournal(zap.NewNop(), mockWriter, mockClock)

	stock := models.NewStock("Apple", "AAPL", 130.5)
	for i := 0; i < 2; i++ {
		if err := j.Publish(context.Background(), stock); err != nil {
			t.Fatalf("publish failed: %v", err)
		}
	}
	if err := j.Publish(context.Background(), models.NewStock("Microsoft", "MSFT", 270)); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	mockWriter.Mu.Lock()
	defer mockWriter.Mu.Unlock()

	if len(mockWriter.Messages) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(mockWriter.Messages))
	}

	var update models.StockUpdate
	if err := json.Unmarshal(mockWriter.Messages[1].Value, &update); err != nil {
		t.Fatalf("Journaled invalid JSON: %v", err)
	}
	if string(mockWriter.Messages[1].Key) != "AAPL" {
		t.Errorf("Expected key AAPL, got %s", mockWriter.Messages[1].Key)
	}
	if update.SeqID != 2 {
		t.Errorf("Expected SeqID 2, got %d", update.SeqID)
	}
	if update.Price != 130.5 || update.High != 130.5 || update.Low != 130.5 {
		t.Errorf("Unexpected prices in update: %+v", update)
	}

	if err := json.Unmarshal(mockWriter.Messages[2].Value, &update); err != nil {
		t.Fatalf("Journaled invalid JSON: %v", err)
	}
	if update.SeqID != 1 {
		t.Errorf("Sequence ids are per symbol, expected 1 for MSFT, got %d", update.SeqID)
	}
}

func TestJournal_WriteError(t *testing.T) {
	mockWriter := &testutils.MockKafkaWriter{ShouldFail: true}
	j := journal.NewJournal(zap.NewNop(), mockWriter, &testutils.MockClock{})

	if err := j.Publish(context.Background(), models.NewStock("Apple", "AAPL", 1)); err == nil {
		t.Error("Expected error from failing writer")
	}
}

func TestJournal_CloseFlushesWriter(t *testing.T) {
	mockWriter := &testutils.MockKafkaWriter{}
	j := journal.NewJournal(zap.NewNop(), mockWriter, &testutils.MockClock{})

	if err := j.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if !mockWriter.Closed {
		t.Error("Writer was not closed")
	}
}

func TestTopicCreator_Flow(t *testing.T) {
	mockDialer := &testutils.MockKafkaDialer{}
	tc := journal.NewTopicCreator(zap.NewNop(), mockDialer, time.Millisecond)

	if err := tc.Create(context.Background(), []string{"broker:9092"}, "stock_ticks"); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if mockDialer.ConnSpy == nil {
		t.Fatal("Dialer was never called")
	}
	if len(mockDialer.ConnSpy.CreatedTopics) == 0 {
		t.Fatal("No topics created")
	}
	if mockDialer.ConnSpy.CreatedTopics[0] != "stock_ticks" {
		t.Errorf("Expected topic 'stock_ticks', got %s", mockDialer.ConnSpy.CreatedTopics[0])
	}
}

func TestTopicCreator_Unreachable(t *testing.T) {
	tc := journal.NewTopicCreator(zap.NewNop(), &testutils.MockKafkaDialer{Fail: true}, time.Millisecond)

	if err := tc.Create(context.Background(), []string{"a:9092", "b:9092"}, "stock_ticks"); err == nil {
		t.Error("Expected error when no broker is reachable")
	}
}

func TestTopicCreator_TimesOutWithoutPartitions(t *testing.T) {
	mockDialer := &testutils.MockKafkaDialer{ConnSpy: &testutils.MockKafkaConn{NoPartitions: true}}
	tc := journal.NewTopicCreator(zap.NewNop(), mockDialer, time.Millisecond)

	if err := tc.Create(context.Background(), []string{"broker:9092"}, "stock_ticks"); err == nil {
		t.Error("Expected timeout error")
	}
}
