package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		TickSecret      string        `yaml:"tick_secret"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Binance struct {
		Hosts        []string      `yaml:"hosts"`
		Timeout      time.Duration `yaml:"timeout"`
		KlineLimit   int           `yaml:"kline_limit"`
		StreamURL    string        `yaml:"stream_url"`
		StreamWindow time.Duration `yaml:"stream_window"`
	} `yaml:"binance"`
	CoinGecko struct {
		BaseURL string        `yaml:"base_url"`
		APIKey  string        `yaml:"api_key"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"coingecko"`
	Monitor struct {
		Enabled        bool          `yaml:"enabled"`
		Interval       time.Duration `yaml:"interval"`
		Cooldown       time.Duration `yaml:"cooldown"`
		SnapshotTTL    time.Duration `yaml:"snapshot_ttl"`
		ReferenceAsset string        `yaml:"reference_asset"`
	} `yaml:"monitor"`
	Signals struct {
		StopProximityPct float64       `yaml:"stop_proximity_pct"`
		TPProximityPct   float64       `yaml:"tp_proximity_pct"`
		VolumeMult       float64       `yaml:"volume_mult"`
		HourlyVolumeMult float64       `yaml:"hourly_volume_mult"`
		HourlyVolumeZ    float64       `yaml:"hourly_volume_z"`
		Change24hPct     float64       `yaml:"change_24h_pct"`
		ImpulsePct       float64       `yaml:"impulse_pct"`
		ImpulseWindow    time.Duration `yaml:"impulse_window"`
		ATRMult          float64       `yaml:"atr_mult"`
		ATRPeriod        int           `yaml:"atr_period"`
		DivergencePct    float64       `yaml:"divergence_pct"`
	} `yaml:"signals"`
	Telegram struct {
		Enabled   bool          `yaml:"enabled"`
		BotToken  string        `yaml:"bot_token"`
		SendDelay time.Duration `yaml:"send_delay"`
	} `yaml:"telegram"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Queue struct {
		Workers    int           `yaml:"workers"`
		RetryLimit int           `yaml:"retry_limit"`
		RetryDelay time.Duration `yaml:"retry_delay"`
	} `yaml:"queue"`
	RateLimit struct {
		Capacity     float64 `yaml:"capacity"`
		RefillPerSec float64 `yaml:"refill_per_sec"`
	} `yaml:"ratelimit"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		c.CoinGecko.APIKey = v
	}
	if v := os.Getenv("TICK_SECRET"); v != "" {
		c.Server.TickSecret = v
	}
	if v := os.Getenv("BINANCE_HOSTS"); v != "" {
		c.Binance.Hosts = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if len(c.Binance.Hosts) == 0 {
		c.Binance.Hosts = []string{
			"https://api.binance.com",
			"https://api1.binance.com",
			"https://api2.binance.com",
		}
	}
	if c.Binance.Timeout <= 0 {
		c.Binance.Timeout = 8 * time.Second
	}
	if c.Binance.KlineLimit <= 0 {
		c.Binance.KlineLimit = 168
	}
	if c.Binance.StreamURL == "" {
		c.Binance.StreamURL = "wss://stream.binance.com:9443"
	}
	if c.Binance.StreamWindow <= 0 {
		c.Binance.StreamWindow = 35 * time.Minute
	}
	if c.CoinGecko.BaseURL == "" {
		c.CoinGecko.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if c.CoinGecko.Timeout <= 0 {
		c.CoinGecko.Timeout = 8 * time.Second
	}
	if c.Monitor.Interval <= 0 {
		c.Monitor.Interval = 5 * time.Minute
	}
	if c.Monitor.Cooldown <= 0 {
		c.Monitor.Cooldown = 15 * time.Minute
	}
	if c.Monitor.SnapshotTTL <= 0 {
		c.Monitor.SnapshotTTL = 30 * time.Second
	}
	if c.Monitor.ReferenceAsset == "" {
		c.Monitor.ReferenceAsset = "BTC"
	}
	if c.Signals.StopProximityPct <= 0 {
		c.Signals.StopProximityPct = 2
	}
	if c.Signals.TPProximityPct <= 0 {
		c.Signals.TPProximityPct = 3
	}
	if c.Signals.VolumeMult <= 0 {
		c.Signals.VolumeMult = 1.5
	}
	if c.Signals.HourlyVolumeMult <= 0 {
		c.Signals.HourlyVolumeMult = 2
	}
	if c.Signals.HourlyVolumeZ <= 0 {
		c.Signals.HourlyVolumeZ = 2.5
	}
	if c.Signals.Change24hPct <= 0 {
		c.Signals.Change24hPct = 8
	}
	if c.Signals.ImpulsePct <= 0 {
		c.Signals.ImpulsePct = 1.5
	}
	if c.Signals.ImpulseWindow <= 0 {
		c.Signals.ImpulseWindow = 30 * time.Minute
	}
	if c.Signals.ATRMult <= 0 {
		c.Signals.ATRMult = 1.8
	}
	if c.Signals.ATRPeriod <= 0 {
		c.Signals.ATRPeriod = 14
	}
	if c.Signals.DivergencePct <= 0 {
		c.Signals.DivergencePct = 1
	}
	if c.Telegram.SendDelay <= 0 {
		c.Telegram.SendDelay = 300 * time.Millisecond
	}
	if c.Queue.Workers <= 0 {
		c.Queue.Workers = 1
	}
	if c.Queue.RetryLimit <= 0 {
		c.Queue.RetryLimit = 3
	}
	if c.Queue.RetryDelay <= 0 {
		c.Queue.RetryDelay = 5 * time.Second
	}
	if c.RateLimit.Capacity <= 0 {
		c.RateLimit.Capacity = 10
	}
	if c.RateLimit.RefillPerSec <= 0 {
		c.RateLimit.RefillPerSec = 2
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers are required when kafka is enabled")
	}
	if c.Kafka.Enabled && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic is required when kafka is enabled")
	}
	if c.Redis.Enabled && c.Redis.Host == "" {
		return fmt.Errorf("redis.host is required when redis is enabled")
	}
	return nil
}
