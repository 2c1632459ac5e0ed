package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gobwas/ws"
	"go.uber.org/zap"

	"github.com/shubham-shewale/stock-feed/cmd/stockfeed/internal/gateway"
	"github.com/shubham-shewale/stock-feed/cmd/stockfeed/internal/protocol"
	"github.com/shubham-shewale/stock-feed/cmd/stockfeed/internal/registry"
)

type createStockRequest struct {
	Name         string   `json:"name" binding:"required"`
	TickerSymbol string   `json:"tickerSymbol" binding:"required"`
	CurrentPrice *float64 `json:"currentPrice" binding:"required"`
}

func (s *Server) createStock(c *gin.Context) {
	var req createStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stock, err := s.svc.CreateStock(req.Name, req.TickerSymbol, *req.CurrentPrice)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stock)
}

func (s *Server) listStocks(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.ListStocks())
}

func (s *Server) getStock(c *gin.Context) {
	stock, err := s.svc.GetStock(c.Param("tickerSymbol"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stock)
}

func (s *Server) serveWS(c *gin.Context) {
	conn, _, _, err := ws.UpgradeHTTP(c.Request, c.Writer)
	if err != nil {
		s.logger.Debug("Websocket upgrade failed", zap.Error(err))
		return
	}
	gateway.NewClient(conn, s.hub, s.logger, s.gateway).Start()
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	checks := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	c.JSON(code, gin.H{
		"status": status,
		"stocks": len(s.svc.ListStocks()),
		"checks": checks,
	})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, registry.ErrNotFound):
		c.String(http.StatusNotFound, protocol.MsgStockNotFound)
	case errors.Is(err, registry.ErrDuplicateTicker):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, registry.ErrInvalidStock):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
