package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/shubham-shewale/stock-feed/cmd/stockfeed/internal/hub"
	"github.com/shubham-shewale/stock-feed/pkg/config"
	"github.com/shubham-shewale/stock-feed/pkg/models"
)

// StockService is what the HTTP surfaces need from the facade.
type StockService interface {
	CreateStock(name, ticker string, initialPrice float64) (models.Stock, error)
	GetStock(ticker string) (models.Stock, error)
	ListStocks() []models.Stock
	QueryByTicker(ticker string) (models.Stock, error)
}

// HealthCheck reports whether an optional dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Server struct {
	router  *gin.Engine
	http    *http.Server
	svc     StockService
	hub     *hub.Hub
	schema  graphql.Schema
	gateway config.GatewayConfig
	checks  map[string]HealthCheck
	logger  *zap.Logger
}

func NewServer(logger *zap.Logger, svc StockService, h *hub.Hub, cfg *config.Config) (*Server, error) {
	schema, err := newSchema(svc)
	if err != nil {
		return nil, err
	}

	if cfg.App.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Upgrade", "Connection"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	s := &Server{
		router:  router,
		svc:     svc,
		hub:     h,
		schema:  schema,
		gateway: cfg.Gateway,
		checks:  make(map[string]HealthCheck),
		logger:  logger,
	}
	s.http = &http.Server{
		Addr:              cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	stocks := s.router.Group("/stocks")
	{
		stocks.POST("", s.createStock)
		stocks.GET("", s.listStocks)
		stocks.GET("/:tickerSymbol", s.getStock)
	}

	s.router.GET("/graphql", s.graphQL)
	s.router.POST("/graphql", s.graphQL)
	s.router.GET("/ws", s.serveWS)

	s.router.GET("/healthz", s.health)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// AddHealthCheck registers a dependency probe reported by /healthz.
func (s *Server) AddHealthCheck(name string, check HealthCheck) {
	s.checks[name] = check
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("Server Started", zap.String("port", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
