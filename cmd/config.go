package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/jobs"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks the environment variables read as overrides. Nesting uses a
// double underscore: DISPATCH_STORE__DSN sets store.dsn.
const EnvPrefix = "DISPATCH_"

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	HTTP        HTTPConfig        `koanf:"http"`
	Logging     LoggingConfig     `koanf:"logging"`
	Store       StoreConfig       `koanf:"store"`
	Redis       RedisConfig       `koanf:"redis"`
	AMQP        AMQPConfig        `koanf:"amqp"`
	MQTT        MQTTConfig        `koanf:"mqtt"`
	Auth        AuthConfig        `koanf:"auth"`
	Windows     WindowsConfig     `koanf:"windows"`
	Recovery    RecoveryConfig    `koanf:"recovery"`
	Restaurants RestaurantsConfig `koanf:"restaurants"`
	// Seeds pre-populates agent quality records: agent id to average rating.
	Seeds map[string]float64 `koanf:"seeds"`
}

type HTTPConfig struct {
	Port int `koanf:"port"`
}

func (c *HTTPConfig) SetDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
}

func (c HTTPConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.Port)
	}
	return nil
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "json"
	}
}

func (c LoggingConfig) Validate() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Format {
	case "json", "text":
		return nil
	default:
		return fmt.Errorf("logging.format %q: want json or text", c.Format)
	}
}

// SlogLevel assumes Validate passed.
func (c LoggingConfig) SlogLevel() slog.Level {
	var level slog.Level
	_ = level.UnmarshalText([]byte(c.Level))
	return level
}

type StoreConfig struct {
	Backend string `koanf:"backend"`
	DSN     string `koanf:"dsn"`
	// Channel is the LISTEN/NOTIFY channel the event log announces appends on.
	Channel string `koanf:"channel"`
}

func (c *StoreConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = StoreMemory
	}
	if c.Channel == "" {
		c.Channel = "dispatch_events"
	}
}

func (c StoreConfig) Validate() error {
	switch c.Backend {
	case StoreMemory:
		return nil
	case StorePostgres:
		if c.DSN == "" {
			return errors.New("store.dsn is required for the postgres backend")
		}
		return nil
	default:
		return fmt.Errorf("store.backend %q: want %s or %s", c.Backend, StoreMemory, StorePostgres)
	}
}

// RedisConfig enables the Redis position store when URL is set.
type RedisConfig struct {
	URL string `koanf:"url"`
	Key string `koanf:"key"`
}

func (c *RedisConfig) SetDefaults() {
	if c.Key == "" {
		c.Key = "dispatch:agent_positions"
	}
}

// AMQPConfig enables event fan-out to RabbitMQ when URL is set.
type AMQPConfig struct {
	URL      string `koanf:"url"`
	Exchange string `koanf:"exchange"`
}

func (c *AMQPConfig) SetDefaults() {
	if c.Exchange == "" {
		c.Exchange = "dispatch_events_fanout"
	}
}

// MQTTConfig enables driver notifications when Broker is set.
type MQTTConfig struct {
	Broker      string `koanf:"broker"`
	ClientID    string `koanf:"client_id"`
	TopicPrefix string `koanf:"topic_prefix"`
}

func (c *MQTTConfig) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "dispatch-engine"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "dispatch"
	}
}

type AuthConfig struct {
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
}

func (c *AuthConfig) SetDefaults() {
	if c.TokenTTL == 0 {
		c.TokenTTL = 24 * time.Hour
	}
}

func (c AuthConfig) Validate() error {
	if len(c.JWTSecret) < 16 {
		return errors.New("auth.jwt_secret must be at least 16 bytes")
	}
	if c.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	return nil
}

type WindowsConfig struct {
	Acceptance      time.Duration `koanf:"acceptance"`
	ManagerDecision time.Duration `koanf:"manager_decision"`
}

func (c *WindowsConfig) SetDefaults() {
	if c.Acceptance == 0 {
		c.Acceptance = order.DefaultWindow
	}
	if c.ManagerDecision == 0 {
		c.ManagerDecision = order.DefaultWindow
	}
}

func (c WindowsConfig) Policy() order.WindowPolicy {
	return order.WindowPolicy{Acceptance: c.Acceptance, ManagerDecision: c.ManagerDecision}
}

type RecoveryConfig struct {
	Schedule string        `koanf:"schedule"`
	Grace    time.Duration `koanf:"grace"`
}

func (c *RecoveryConfig) SetDefaults() {
	if c.Schedule == "" {
		c.Schedule = jobs.DefaultRecoverySchedule
	}
	if c.Grace == 0 {
		c.Grace = jobs.DefaultRecoveryGrace
	}
}

type LocationConfig struct {
	Longitude float64 `koanf:"longitude"`
	Latitude  float64 `koanf:"latitude"`
}

// RestaurantsConfig is the static catalog. Restaurants without an entry in
// Known are placed at Default.
type RestaurantsConfig struct {
	Default *LocationConfig           `koanf:"default"`
	Known   map[string]LocationConfig `koanf:"known"`
}

func (c *RestaurantsConfig) SetDefaults() {
	if c.Default == nil {
		c.Default = &LocationConfig{Longitude: 2.333, Latitude: 48.865}
	}
}

func (c *Config) SetDefaults() {
	c.HTTP.SetDefaults()
	c.Logging.SetDefaults()
	c.Store.SetDefaults()
	c.Redis.SetDefaults()
	c.AMQP.SetDefaults()
	c.MQTT.SetDefaults()
	c.Auth.SetDefaults()
	c.Windows.SetDefaults()
	c.Recovery.SetDefaults()
	c.Restaurants.SetDefaults()
	if c.Seeds == nil {
		c.Seeds = map[string]float64{"livreur1": 4.8, "livreur2": 4.3, "livreur3": 4.6}
	}
}

func (c Config) Validate() error {
	return errors.Join(
		c.HTTP.Validate(),
		c.Logging.Validate(),
		c.Store.Validate(),
		c.Auth.Validate(),
		c.Windows.Policy().Validate(),
	)
}

// LoadConfig reads .env (when present) into the process environment, then the
// YAML file at path (when path is not empty), then DISPATCH_ overrides.
func LoadConfig(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
