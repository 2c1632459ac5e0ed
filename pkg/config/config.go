package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Simulator SimulatorConfig `mapstructure:"simulator"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
}

type AppConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"` // e.g., "local", "prod"
}

type LoggerConfig struct {
	Level       string `mapstructure:"level"`
	Encoding    string `mapstructure:"encoding"` // "json" or "console"
	Development bool   `mapstructure:"development"`
}

type SimulatorConfig struct {
	Interval       time.Duration `mapstructure:"interval"`
	PricePrecision int32         `mapstructure:"price_precision"`
	SeedFile       string        `mapstructure:"seed_file"`
}

type GatewayConfig struct {
	SendBuffer     int           `mapstructure:"send_buffer"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	PingPeriod     time.Duration `mapstructure:"ping_period"`
}

type RedisConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	SnapshotTTL time.Duration `mapstructure:"snapshot_ttl"`

	// PublishTimeout bounds one snapshot write so a stalled server cannot hold up a tick.
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`
	DialTimeout    time.Duration `mapstructure:"dial_timeout"`
	IOTimeout      time.Duration `mapstructure:"io_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
}

type KafkaConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	Brokers     []string `mapstructure:"brokers"`
	Topic       string   `mapstructure:"topic"`
	CreateTopic bool     `mapstructure:"create_topic"`
}

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"port":          "app.port",
	"log-level":     "logger.level",
	"tick-interval": "simulator.interval",
	"seed-file":     "simulator.seed_file",
}

// LoadConfig reads configuration from .env file, environment variables, flags and defaults.
// flags may be nil.
func LoadConfig(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, relying on System Env Vars")
	}

	v.SetDefault("app.port", ":8080")
	v.SetDefault("app.env", "local")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")
	v.SetDefault("logger.development", false)

	v.SetDefault("simulator.interval", time.Second)
	v.SetDefault("simulator.price_precision", 2)
	v.SetDefault("simulator.seed_file", "")

	v.SetDefault("gateway.send_buffer", 256)
	v.SetDefault("gateway.max_message_size", 512*1024)
	v.SetDefault("gateway.write_wait", 5*time.Second)
	v.SetDefault("gateway.pong_wait", 60*time.Second)
	v.SetDefault("gateway.ping_period", 50*time.Second)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.snapshot_ttl", time.Hour)
	v.SetDefault("redis.publish_timeout", 200*time.Millisecond)
	v.SetDefault("redis.dial_timeout", time.Second)
	v.SetDefault("redis.io_timeout", 200*time.Millisecond)
	v.SetDefault("redis.max_retries", 1)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "stock_ticks")
	v.SetDefault("kafka.create_topic", true)

	// "app.port" -> "APP_PORT"
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnv(v, "app.port", "app.env")
	bindEnv(v, "logger.level", "logger.encoding", "logger.development")
	bindEnv(v, "simulator.interval", "simulator.price_precision", "simulator.seed_file")
	bindEnv(v, "gateway.send_buffer", "gateway.max_message_size", "gateway.write_wait", "gateway.pong_wait", "gateway.ping_period")
	bindEnv(v, "redis.enabled", "redis.addr", "redis.password", "redis.db", "redis.snapshot_ttl",
		"redis.publish_timeout", "redis.dial_timeout", "redis.io_timeout", "redis.max_retries")
	bindEnv(v, "kafka.enabled", "kafka.brokers", "kafka.topic", "kafka.create_topic")

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the invariants the rest of the service relies on.
func (c *Config) Validate() error {
	if c.Simulator.Interval <= 0 {
		return fmt.Errorf("simulator interval must be positive, got %s", c.Simulator.Interval)
	}
	if c.Simulator.PricePrecision < 0 {
		return fmt.Errorf("simulator price precision cannot be negative")
	}
	if c.Gateway.SendBuffer <= 0 {
		return fmt.Errorf("gateway send buffer must be positive")
	}
	if c.Gateway.PingPeriod >= c.Gateway.PongWait {
		return fmt.Errorf("gateway ping period (%s) must be shorter than pong wait (%s)", c.Gateway.PingPeriod, c.Gateway.PongWait)
	}
	if c.Redis.Enabled && c.Redis.PublishTimeout <= 0 {
		return fmt.Errorf("redis publish timeout must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers cannot be empty")
	}
	return nil
}

// bindEnv is a helper to bind multiple keys at once
func bindEnv(v *viper.Viper, keys ...string) {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			log.Printf("Could not bind env var for key %s: %v", key, err)
		}
	}
}
