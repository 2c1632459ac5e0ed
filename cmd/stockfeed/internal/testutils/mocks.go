package testutils

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/shubham-shewale/stock-feed/cmd/stockfeed/internal/protocol"
	"github.com/shubham-shewale/stock-feed/pkg/models"
)

// MockClient simulates a connected websocket client
type MockClient struct {
	IDVal    string
	Messages []protocol.WSResponse // Replies sent through SendJSON
	RawBytes []string              // Pushed updates sent through SendBytes
	Frames   []string              // Every delivered frame in send order
	Attempts int                   // SendBytes calls, including failed ones
	Fail     bool                  // Make SendBytes fail, as a dead connection would
	Closed   bool
	Mu       sync.Mutex
}

func NewMockClient(id string) *MockClient {
	return &MockClient{IDVal: id, Messages: make([]protocol.WSResponse, 0)}
}

func (m *MockClient) ID() string { return m.IDVal }

func (m *MockClient) Close() {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Closed = true
}

func (m *MockClient) SendJSON(v interface{}) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	if resp, ok := v.(protocol.WSResponse); ok {
		m.Messages = append(m.Messages, resp)
	}
	if b, err := json.Marshal(v); err == nil {
		m.Frames = append(m.Frames, string(b))
	}
	return nil
}

func (m *MockClient) SendBytes(b []byte) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Attempts++
	if m.Fail || m.Closed {
		return errors.New("connection closed")
	}
	m.RawBytes = append(m.RawBytes, string(b))
	m.Frames = append(m.Frames, string(b))
	return nil
}

func (m *MockClient) LastMsg() protocol.WSResponse {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if len(m.Messages) == 0 {
		return protocol.WSResponse{}
	}
	return m.Messages[len(m.Messages)-1]
}

func (m *MockClient) LastMsgType() string {
	return m.LastMsg().Type
}

// Updates decodes every pushed price update.
func (m *MockClient) Updates() []models.Stock {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	var out []models.Stock
	for _, raw := range m.RawBytes {
		var env struct {
			Type string       `json:"type"`
			Data models.Stock `json:"data"`
		}
		if err := json.Unmarshal([]byte(raw), &env); err == nil && env.Type == protocol.EventPriceUpdate {
			out = append(out, env.Data)
		}
	}
	return out
}

// Frame is the decoded form of one delivered frame.
type Frame struct {
	Type string       `json:"type"`
	Data models.Stock `json:"data"`
}

// DecodedFrames returns every delivered frame in the order it was sent.
func (m *MockClient) DecodedFrames() []Frame {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	out := make([]Frame, 0, len(m.Frames))
	for _, raw := range m.Frames {
		var f Frame
		if err := json.Unmarshal([]byte(raw), &f); err == nil {
			out = append(out, f)
		}
	}
	return out
}

// MockSink records every published snapshot.
type MockSink struct {
	Stocks     []models.Stock
	ShouldFail bool
	Mu         sync.Mutex
}

func (m *MockSink) Publish(ctx context.Context, stock models.Stock) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.ShouldFail {
		return errors.New("sink error")
	}
	m.Stocks = append(m.Stocks, stock)
	return nil
}

func (m *MockSink) Count() int {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return len(m.Stocks)
}

// MockClock never waits: After fires immediately and advances the clock.
type MockClock struct {
	CurrentTime time.Time
	Mu          sync.Mutex
}

func (m *MockClock) Now() time.Time {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.CurrentTime
}

func (m *MockClock) After(d time.Duration) <-chan time.Time {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.CurrentTime = m.CurrentTime.Add(d)
	ch := make(chan time.Time, 1)
	ch <- m.CurrentTime
	return ch
}

type MockRand struct {
	ValFloat float64
}

func (m *MockRand) Float64() float64 { return m.ValFloat }

// FlakySource wraps a price source and fails every mutation of FailTicker.
type FlakySource struct {
	Inner interface {
		Tickers() []string
		MutatePrice(ticker string, delta float64) (models.Stock, error)
	}
	FailTicker string
}

func (f *FlakySource) Tickers() []string { return f.Inner.Tickers() }

func (f *FlakySource) MutatePrice(ticker string, delta float64) (models.Stock, error) {
	if ticker == f.FailTicker {
		return models.Stock{}, errors.New("record vanished")
	}
	return f.Inner.MutatePrice(ticker, delta)
}
