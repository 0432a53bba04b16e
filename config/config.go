package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrInvalid is returned by Validate for unusable configuration values.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Binance        BinanceConfig        `mapstructure:"binance"`
	Tracker        TrackerConfig        `mapstructure:"tracker"`
	Server         ServerConfig         `mapstructure:"server"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Log            LogConfig            `mapstructure:"log"`
	ParameterStore ParameterStoreConfig `mapstructure:"parameter_store"`
}

type BinanceConfig struct {
	REST RESTConfig `mapstructure:"rest"`
	WS   WSConfig   `mapstructure:"ws"`
}

type RESTConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type WSConfig struct {
	URL               string        `mapstructure:"url"`
	ReconnectDelay    time.Duration `mapstructure:"reconnect_delay"`
	MaxReconnectDelay time.Duration `mapstructure:"max_reconnect_delay"` // 0 keeps the delay fixed
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	HandshakeTimeout  time.Duration `mapstructure:"handshake_timeout"`
}

// TrackerConfig controls the open price capture and snapshot cadence.
type TrackerConfig struct {
	Symbols         []string      `mapstructure:"symbols"`
	Warmup          time.Duration `mapstructure:"warmup"`
	ComputeInterval time.Duration `mapstructure:"compute_interval"`
	OpenAt          string        `mapstructure:"open_at"`  // "HH:MM"
	Timezone        string        `mapstructure:"timezone"` // IANA name, "Local" or "UTC"
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Key      string        `mapstructure:"key"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("binance.rest.base_url", "https://api.binance.com")
	v.SetDefault("binance.rest.timeout", 5*time.Second)
	v.SetDefault("binance.ws.url", "wss://stream.binance.com:9443/stream")
	v.SetDefault("binance.ws.reconnect_delay", 5*time.Second)
	v.SetDefault("binance.ws.max_reconnect_delay", time.Duration(0))
	v.SetDefault("binance.ws.read_timeout", 60*time.Second)
	v.SetDefault("binance.ws.handshake_timeout", 10*time.Second)

	v.SetDefault("tracker.warmup", 3*time.Second)
	v.SetDefault("tracker.compute_interval", time.Second)
	v.SetDefault("tracker.open_at", "00:00")
	v.SetDefault("tracker.timezone", "Local")

	v.SetDefault("server.addr", ":8888")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.key", "pricewatch:snapshot")
	v.SetDefault("redis.ttl", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.environment", "dev")
}

// Load loads application configuration using Viper.
// It reads config.yaml (from file when given, otherwise from the usual search
// paths), applies PRICEWATCH_* environment overrides and, in prod, Parameter
// Store overrides. A missing config file is not an error; defaults apply.
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config") // config.yaml
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")

		ex, _ := os.Executable()
		if strings.Contains(ex, "go-build") {
			pwd, _ := os.Getwd()
			v.AddConfigPath(filepath.Join(pwd, "../../config"))
		} else {
			v.AddConfigPath(filepath.Join(filepath.Dir(ex), "../config"))
		}
	}

	// Support environment variables with dot notation (e.g., PRICEWATCH_BINANCE_WS_URL)
	v.SetEnvPrefix("pricewatch")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Log.Environment == "prod" && cfg.ParameterStore.Enabled {
		cfg.ParameterStore.apply(&cfg, newSSMLookup())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values the core loops depend on.
func (c *Config) Validate() error {
	if c.Binance.WS.URL == "" {
		return fmt.Errorf("%w: binance.ws.url is empty", ErrInvalid)
	}
	if c.Binance.WS.ReconnectDelay <= 0 {
		return fmt.Errorf("%w: binance.ws.reconnect_delay must be positive", ErrInvalid)
	}
	if c.Binance.WS.MaxReconnectDelay < 0 {
		return fmt.Errorf("%w: binance.ws.max_reconnect_delay must not be negative", ErrInvalid)
	}
	if c.Tracker.ComputeInterval <= 0 {
		return fmt.Errorf("%w: tracker.compute_interval must be positive", ErrInvalid)
	}
	if c.Tracker.Warmup < 0 {
		return fmt.Errorf("%w: tracker.warmup must not be negative", ErrInvalid)
	}
	if _, err := c.Tracker.Location(); err != nil {
		return fmt.Errorf("%w: tracker.timezone: %v", ErrInvalid, err)
	}
	if _, _, err := c.Tracker.OpenClock(); err != nil {
		return fmt.Errorf("%w: tracker.open_at: %v", ErrInvalid, err)
	}
	if c.Redis.Enabled && c.Redis.Key == "" {
		return fmt.Errorf("%w: redis.key is empty", ErrInvalid)
	}
	return nil
}

// Location resolves the timezone the daily open is anchored to.
func (t TrackerConfig) Location() (*time.Location, error) {
	switch t.Timezone {
	case "", "Local":
		return time.Local, nil
	default:
		return time.LoadLocation(t.Timezone)
	}
}

// OpenClock parses OpenAt into hour and minute.
func (t TrackerConfig) OpenClock() (hour, minute int, err error) {
	at := t.OpenAt
	if at == "" {
		at = "00:00"
	}
	parsed, err := time.Parse("15:04", at)
	if err != nil {
		return 0, 0, err
	}
	return parsed.Hour(), parsed.Minute(), nil
}
