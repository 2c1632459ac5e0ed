package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shubham-shewale/stock-feed/cmd/stockfeed/internal/hub"
	"github.com/shubham-shewale/stock-feed/cmd/stockfeed/internal/metrics"
	"github.com/shubham-shewale/stock-feed/cmd/stockfeed/internal/protocol"
	"github.com/shubham-shewale/stock-feed/pkg/config"
	"github.com/shubham-shewale/stock-feed/pkg/models"
)

var (
	ErrClientClosed = errors.New("client closed")
	ErrSlowConsumer = errors.New("client send buffer full")
)

// Compile-time check to ensure ClientAdapter can be registered with the hub
var _ hub.ClientInterface = (*ClientAdapter)(nil)

type ClientAdapter struct {
	id     string
	conn   net.Conn
	hub    *hub.Hub
	logger *zap.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool

	maxMessageSize int64
	writeWait      time.Duration
	pongWait       time.Duration
	pingPeriod     time.Duration
}

func NewClient(conn net.Conn, h *hub.Hub, logger *zap.Logger, cfg config.GatewayConfig) *ClientAdapter {
	id := uuid.NewString()
	return &ClientAdapter{
		id:             id,
		conn:           conn,
		hub:            h,
		logger:         logger.With(zap.String("client", id)),
		send:           make(chan []byte, cfg.SendBuffer),
		maxMessageSize: cfg.MaxMessageSize,
		writeWait:      cfg.WriteWait,
		pongWait:       cfg.PongWait,
		pingPeriod:     cfg.PingPeriod,
	}
}

func (c *ClientAdapter) Start() {
	metrics.ConnectedClients.Inc()
	c.logger.Info("Client connected", zap.String("remote", c.conn.RemoteAddr().String()))
	go c.writePump()
	go c.readPump()
}

func (c *ClientAdapter) ID() string { return c.id }

// Close only closes the send channel; writePump closes the connection.
func (c *ClientAdapter) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *ClientAdapter) SendJSON(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.SendBytes(b)
}

// SendBytes never blocks. A full buffer is reported as ErrSlowConsumer.
func (c *ClientAdapter) SendBytes(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- b:
		return nil
	default:
		return ErrSlowConsumer
	}
}

func (c *ClientAdapter) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
		metrics.ConnectedClients.Dec()
		c.logger.Info("Client disconnected")
	}()

	c.conn.SetReadDeadline(time.Now().Add(c.pongWait))

	for {
		header, err := ws.ReadHeader(c.conn)
		if err != nil {
			break
		}

		if header.Length > c.maxMessageSize {
			c.logger.Warn("Msg too big", zap.Int64("size", header.Length))
			break
		}

		if !header.Fin {
			c.logger.Warn("Client sent fragmented message (not supported)")
			break
		}

		payload := make([]byte, header.Length)
		if _, err := io.ReadFull(c.conn, payload); err != nil {
			break
		}

		if header.Masked {
			ws.Cipher(payload, header.Mask, 0)
		}

		switch header.OpCode {
		case ws.OpClose:
			return
		case ws.OpPong:
			c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
			continue
		case ws.OpText:
			var req protocol.WSRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				c.SendJSON(protocol.WSResponse{Type: protocol.EventError, Status: "error", Message: "Invalid JSON"})
				continue
			}
			normalize(&req)
			c.hub.HandleCommand(c, req)
		}
	}
}

func (c *ClientAdapter) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if !ok {
				c.conn.Write(ws.CompiledClose)
				return
			}
			if err := wsutil.WriteServerText(c.conn, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := wsutil.WriteServerMessage(c.conn, ws.OpPing, nil); err != nil {
				return
			}
		}
	}
}

func normalize(req *protocol.WSRequest) {
	req.Action = strings.ToLower(strings.TrimSpace(req.Action))
	for i, s := range req.Payload.Symbols {
		req.Payload.Symbols[i] = models.NormalizeTicker(s)
	}
	req.Payload.TickerSymbol = models.NormalizeTicker(req.Payload.TickerSymbol)
}
