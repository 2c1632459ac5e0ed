package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/shubham-shewale/stock-feed/cmd/stockfeed/internal/metrics"
	"github.com/shubham-shewale/stock-feed/cmd/stockfeed/internal/protocol"
	"github.com/shubham-shewale/stock-feed/pkg/models"
)

var ErrUnknownTicker = errors.New("unknown ticker")

type ClientInterface interface {
	ID() string
	SendJSON(v interface{}) error
	SendBytes(b []byte) error
	Close()
}

// StockSource resolves tickers to current snapshots.
type StockSource interface {
	GetStock(ticker string) (models.Stock, error)
	ListStocks() []models.Stock
}

// Hub tracks which clients follow which tickers and fans price updates out
// to them. Clients subscribed to everything live in allSubs and receive
// updates for tickers listed after they subscribed.
type Hub struct {
	subscribers map[string]map[ClientInterface]bool
	clientSubs  map[ClientInterface]map[string]bool
	allSubs     map[ClientInterface]bool

	source StockSource
	logger *zap.Logger
	mu     sync.RWMutex
}

func NewHub(source StockSource, logger *zap.Logger) *Hub {
	return &Hub{
		subscribers: make(map[string]map[ClientInterface]bool),
		clientSubs:  make(map[ClientInterface]map[string]bool),
		allSubs:     make(map[ClientInterface]bool),
		source:      source,
		logger:      logger,
	}
}

// Subscribe adds client to ticker's subscriber set. Subscribing twice is a no-op.
func (h *Hub) Subscribe(ticker string, client ClientInterface) error {
	if _, err := h.source.GetStock(ticker); err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownTicker, ticker)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribeLocked(ticker, client)
	return nil
}

func (h *Hub) SubscribeAll(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.allSubs[client] = true
}

// Unsubscribe is idempotent. It reports whether a subscription was removed.
// A subscribe-all registration is not affected.
func (h *Hub) Unsubscribe(ticker string, client ClientInterface) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.unsubscribeLocked(ticker, client)
}

// UnsubscribeAll drops every subscription of client but keeps it connected.
func (h *Hub) UnsubscribeAll(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

// Unregister forgets client entirely and closes it.
func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	h.removeLocked(client)
	h.mu.Unlock()
	client.Close()
}

// SubscriberCount returns how many clients would receive an update for ticker.
func (h *Hub) SubscriberCount(ticker string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := len(h.allSubs)
	for c := range h.subscribers[ticker] {
		if !h.allSubs[c] {
			n++
		}
	}
	return n
}

// Publish pushes a price update to every client following stock's ticker.
// Each send is independent: a client whose send fails is dropped and closed
// after the remaining clients have been served.
func (h *Hub) Publish(_ context.Context, stock models.Stock) error {
	targets := h.targets(stock.TickerSymbol)
	if len(targets) == 0 {
		return nil
	}

	payload, err := json.Marshal(protocol.WSResponse{Type: protocol.EventPriceUpdate, Data: stock})
	if err != nil {
		return fmt.Errorf("marshal update for %s: %w", stock.TickerSymbol, err)
	}

	var failed []ClientInterface
	for _, client := range targets {
		if err := client.SendBytes(payload); err != nil {
			h.logger.Warn("Dropping subscriber after failed send",
				zap.String("client", client.ID()), zap.String("symbol", stock.TickerSymbol), zap.Error(err))
			failed = append(failed, client)
			continue
		}
		metrics.Deliveries.Inc()
	}

	for _, client := range failed {
		metrics.DeliveryFailures.Inc()
		h.Unregister(client)
	}
	return nil
}

func (h *Hub) targets(ticker string) []ClientInterface {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]ClientInterface, 0, len(h.subscribers[ticker])+len(h.allSubs))
	for c := range h.allSubs {
		out = append(out, c)
	}
	for c := range h.subscribers[ticker] {
		if !h.allSubs[c] {
			out = append(out, c)
		}
	}
	return out
}

func (h *Hub) HandleCommand(client ClientInterface, req protocol.WSRequest) {
	switch req.Action {
	case protocol.ActionSubscribe:
		h.handleSubscribe(client, req)
	case protocol.ActionUnsubscribe:
		h.handleUnsubscribe(client, req)
	case protocol.ActionUnsubscribeAll:
		h.handleUnsubscribeAll(client, req)
	case protocol.ActionGetStockData:
		h.handleGetStockData(client, req)
	default:
		h.sendError(client, req.ID, "Unknown action: "+req.Action)
	}
}

// handleSubscribe acks and then sends the current snapshots while holding the
// lock, so a snapshot can never overtake a later update on the same client.
func (h *Hub) handleSubscribe(client ClientInterface, req protocol.WSRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(req.Payload.Symbols) == 0 {
		h.allSubs[client] = true
		h.logger.Info("Client subscribed to stock price updates", zap.String("client", client.ID()), zap.String("scope", "all"))
		h.sendAck(client, req.ID, "success", "Subscribed to all symbols")
		h.sendSnapshots(client, h.source.ListStocks())
		return
	}

	var valid []string
	var snapshots []models.Stock
	seen := make(map[string]bool, len(req.Payload.Symbols))
	for _, s := range req.Payload.Symbols {
		// Idempotency: Ignore if already subscribed or repeated in this request
		if h.clientSubs[client][s] || seen[s] {
			continue
		}
		seen[s] = true
		snap, err := h.source.GetStock(s)
		if err != nil {
			continue
		}
		valid = append(valid, s)
		snapshots = append(snapshots, snap)
	}

	if len(valid) == 0 {
		h.sendError(client, req.ID, "No valid/new symbols provided")
		return
	}

	for _, sym := range valid {
		h.subscribeLocked(sym, client)
	}

	h.logger.Info("Client subscribed to stock price updates", zap.String("client", client.ID()), zap.Strings("symbols", valid))
	h.sendAck(client, req.ID, "success", fmt.Sprintf("Subscribed to %v", valid))
	h.sendSnapshots(client, snapshots)
}

func (h *Hub) handleUnsubscribe(client ClientInterface, req protocol.WSRequest) {
	if len(req.Payload.Symbols) == 0 {
		h.sendError(client, req.ID, "No symbols provided")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sym := range req.Payload.Symbols {
		h.unsubscribeLocked(sym, client)
	}
	h.sendAck(client, req.ID, "success", fmt.Sprintf("Unsubscribed from %v", req.Payload.Symbols))
}

func (h *Hub) handleUnsubscribeAll(client ClientInterface, req protocol.WSRequest) {
	h.UnsubscribeAll(client)
	h.sendAck(client, req.ID, "success", "Unsubscribed from all symbols")
}

func (h *Hub) handleGetStockData(client ClientInterface, req protocol.WSRequest) {
	ticker := req.Payload.TickerSymbol
	if ticker == "" && len(req.Payload.Symbols) > 0 {
		ticker = req.Payload.Symbols[0]
	}

	stock, err := h.source.GetStock(ticker)
	if err != nil {
		h.sendError(client, req.ID, protocol.MsgStockNotFound)
		return
	}
	h.send(client, protocol.WSResponse{Type: protocol.EventStockData, ID: req.ID, Data: stock})
}

func (h *Hub) subscribeLocked(ticker string, client ClientInterface) {
	if h.clientSubs[client] == nil {
		h.clientSubs[client] = make(map[string]bool)
	}
	h.clientSubs[client][ticker] = true

	if h.subscribers[ticker] == nil {
		h.subscribers[ticker] = make(map[ClientInterface]bool)
	}
	h.subscribers[ticker][client] = true
}

func (h *Hub) unsubscribeLocked(ticker string, client ClientInterface) bool {
	subs, ok := h.clientSubs[client]
	if !ok || !subs[ticker] {
		return false
	}
	delete(subs, ticker)
	delete(h.subscribers[ticker], client)
	if len(h.subscribers[ticker]) == 0 {
		delete(h.subscribers, ticker)
	}
	return true
}

func (h *Hub) removeLocked(client ClientInterface) {
	for sym := range h.clientSubs[client] {
		delete(h.subscribers[sym], client)
		if len(h.subscribers[sym]) == 0 {
			delete(h.subscribers, sym)
		}
	}
	delete(h.clientSubs, client)
	delete(h.allSubs, client)
}

func (h *Hub) sendSnapshots(client ClientInterface, stocks []models.Stock) {
	for _, s := range stocks {
		h.send(client, protocol.WSResponse{Type: protocol.EventPriceUpdate, Data: s})
	}
}

func (h *Hub) sendAck(c ClientInterface, id, status, msg string) {
	h.send(c, protocol.WSResponse{Type: protocol.EventAck, ID: id, Status: status, Message: msg})
}

func (h *Hub) sendError(c ClientInterface, id, msg string) {
	h.send(c, protocol.WSResponse{Type: protocol.EventError, ID: id, Status: "error", Message: msg})
}

// send failures on command replies are left to the connection's read loop,
// which unregisters the client once the socket is gone.
func (h *Hub) send(c ClientInterface, resp protocol.WSResponse) {
	if err := c.SendJSON(resp); err != nil {
		h.logger.Debug("Reply not delivered", zap.String("client", c.ID()), zap.String("type", resp.Type), zap.Error(err))
	}
}
