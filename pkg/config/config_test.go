package config_test

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shubham-shewale/stock-feed/pkg/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.App.Port)
	assert.Equal(t, time.Second, cfg.Simulator.Interval)
	assert.Equal(t, int32(2), cfg.Simulator.PricePrecision)
	assert.Equal(t, 256, cfg.Gateway.SendBuffer)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, "stock_ticks", cfg.Kafka.Topic)
	assert.Equal(t, 200*time.Millisecond, cfg.Redis.PublishTimeout)
	assert.Equal(t, 1, cfg.Redis.MaxRetries)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", ":9000")
	t.Setenv("SIMULATOR_INTERVAL", "250ms")
	t.Setenv("REDIS_ENABLED", "true")

	cfg, err := config.LoadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.App.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Simulator.Interval)
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoadConfig_FlagsWinOverEnv(t *testing.T) {
	t.Setenv("APP_PORT", ":9000")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("port", ":8080", "")
	flags.Duration("tick-interval", time.Second, "")
	require.NoError(t, flags.Set("port", ":7070"))
	require.NoError(t, flags.Set("tick-interval", "2s"))

	cfg, err := config.LoadConfig(flags)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.App.Port)
	assert.Equal(t, 2*time.Second, cfg.Simulator.Interval)
}

func TestLoadConfig_RejectsNonPositiveInterval(t *testing.T) {
	t.Setenv("SIMULATOR_INTERVAL", "0s")

	_, err := config.LoadConfig(nil)
	assert.Error(t, err)
}

func TestValidate_KafkaNeedsBrokers(t *testing.T) {
	cfg, err := config.LoadConfig(nil)
	require.NoError(t, err)

	cfg.Kafka.Enabled = true
	cfg.Kafka.Brokers = nil
	assert.Error(t, cfg.Validate())
}

func TestValidate_RedisNeedsPublishTimeout(t *testing.T) {
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_PUBLISH_TIMEOUT", "0s")

	_, err := config.LoadConfig(nil)
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	logger, err := config.NewLogger(config.LoggerConfig{Level: "debug", Encoding: "console"})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = config.NewLogger(config.LoggerConfig{Level: "loud"})
	assert.Error(t, err)
}
