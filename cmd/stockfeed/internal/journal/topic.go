package journal

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// TopicCreator makes sure the tick journal topic exists before the writer starts.
// It dials the first reachable broker, asks the cluster controller to create
// the topic and polls until partitions are visible, giving up after a bounded
// number of retries or when ctx ends. Startup only logs its error, so the feed
// keeps running without the journal.
type TopicCreator struct {
	logger     *zap.Logger
	dialer     KafkaDialer
	retryDelay time.Duration
}

func NewTopicCreator(logger *zap.Logger, dialer KafkaDialer, retryDelay time.Duration) *TopicCreator {
	return &TopicCreator{
		logger:     logger,
		dialer:     dialer,
		retryDelay: retryDelay,
	}
}

// Create asks the cluster controller for the topic and waits until its
// partitions are visible. An already existing topic is not an error.
func (tc *TopicCreator) Create(ctx context.Context, brokers []string, topicName string) error {
	var conn KafkaConn
	var err error

	for _, addr := range brokers {
		conn, err = tc.dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			break
		}
	}
	if conn == nil {
		return fmt.Errorf("dial brokers: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("get controller: %w", err)
	}

	controllerAddr := net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port))
	controllerConn, err := tc.dialer.DialContext(ctx, "tcp", controllerAddr)
	if err != nil {
		return fmt.Errorf("dial controller: %w", err)
	}
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafka.TopicConfig{
		Topic:             topicName,
		NumPartitions:     4,
		ReplicationFactor: 1,
	})
	if err != nil {
		tc.logger.Info("Topic creation finished (might already exist)", zap.Error(err))
	} else {
		tc.logger.Info("Topic creation request sent", zap.String("topic", topicName))
	}

	return tc.waitForTopic(ctx, conn, topicName)
}

func (tc *TopicCreator) waitForTopic(ctx context.Context, conn KafkaConn, topicName string) error {
	for i := 0; i < 5; i++ {
		partitions, err := conn.ReadPartitions(topicName)
		if err == nil && len(partitions) > 0 {
			tc.logger.Info("Topic is ready", zap.String("topic", topicName), zap.Int("partitions", len(partitions)))
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(tc.retryDelay):
		}
	}
	return fmt.Errorf("timed out waiting for topic %s", topicName)
}
