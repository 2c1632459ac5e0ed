package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shubham-shewale/stock-feed/cmd/stockfeed/internal/api"
	"github.com/shubham-shewale/stock-feed/cmd/stockfeed/internal/hub"
	"github.com/shubham-shewale/stock-feed/cmd/stockfeed/internal/journal"
	"github.com/shubham-shewale/stock-feed/cmd/stockfeed/internal/registry"
	"github.com/shubham-shewale/stock-feed/cmd/stockfeed/internal/repository"
	"github.com/shubham-shewale/stock-feed/cmd/stockfeed/internal/service"
	"github.com/shubham-shewale/stock-feed/cmd/stockfeed/internal/simulator"
	"github.com/shubham-shewale/stock-feed/pkg/config"
	"github.com/shubham-shewale/stock-feed/pkg/models"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "stockfeed",
		Short:         "Stock data over REST, GraphQL and a websocket price feed",
		RunE:          serve,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("port", ":8080", "HTTP listen address")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Duration("tick-interval", time.Second, "Price simulator interval")
	rootCmd.PersistentFlags().String("seed-file", "", "YAML file with the initial listing")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("stockfeed version %s\n", version)
		},
	})
	return rootCmd
}

func serve(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	seed := registry.DefaultSeed()
	if cfg.Simulator.SeedFile != "" {
		if seed, err = registry.LoadSeed(cfg.Simulator.SeedFile); err != nil {
			return err
		}
	}
	reg := registry.New()
	if err := reg.Seed(seed); err != nil {
		return err
	}

	svc := service.NewStockService(reg, logger)
	wsHub := hub.NewHub(svc, logger)

	srv, err := api.NewServer(logger, svc, wsHub, cfg)
	if err != nil {
		return fmt.Errorf("init api: %w", err)
	}

	sim := simulator.NewSimulator(logger, reg, cfg.Simulator.Interval, cfg.Simulator.PricePrecision, simulator.NewRealRand(), simulator.RealClock{})
	sim.AddSink("hub", wsHub)

	var closers []func() error

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.IOTimeout,
			WriteTimeout: cfg.Redis.IOTimeout,
			MaxRetries:   cfg.Redis.MaxRetries,
		})
		if err := rdb.Ping(cmd.Context()).Err(); err != nil {
			logger.Warn("Redis unreachable, snapshots will be retried every tick", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		store := repository.NewRedisStore(rdb, cfg.Redis.SnapshotTTL, cfg.Redis.PublishTimeout)
		sim.AddSink("redis", store)
		srv.AddHealthCheck("redis", store.Ping)
		closers = append(closers, store.Close)
	}

	if cfg.Kafka.Enabled {
		if cfg.Kafka.CreateTopic {
			tc := journal.NewTopicCreator(logger, &journal.RealKafkaDialer{Dialer: kafka.DefaultDialer}, 200*time.Millisecond)
			if err := tc.Create(cmd.Context(), cfg.Kafka.Brokers, cfg.Kafka.Topic); err != nil {
				logger.Warn("Topic setup failed", zap.String("topic", cfg.Kafka.Topic), zap.Error(err))
			}
		}
		j := journal.NewJournal(logger, journal.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), simulator.RealClock{})
		sim.AddSink("kafka", j)
		closers = append(closers, j.Close)
	}

	logger.Info("Registry seeded", zap.Strings("tickers", tickers(reg.List())))

	ctx, cancel := context.WithCancel(context.Background())
	simDone := make(chan struct{})
	go func() {
		sim.Run(ctx)
		close(simDone)
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	var httpErr error
	select {
	case <-stop:
		logger.Info("Shutdown signal received")
	case httpErr = <-errCh:
		if httpErr != nil {
			logger.Error("HTTP Error", zap.Error(httpErr))
		}
	}

	cancel()
	<-simDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", zap.Error(err))
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Error("Error closing sink", zap.Error(err))
		}
	}

	logger.Info("Shutdown Complete")
	if httpErr != nil {
		return fmt.Errorf("http server: %w", httpErr)
	}
	return nil
}

func tickers(stocks []models.Stock) []string {
	out := make([]string, len(stocks))
	for i, s := range stocks {
		out[i] = s.TickerSymbol
	}
	return out
}
