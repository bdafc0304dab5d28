package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/YelzhanWeb/atelier/internal/domain"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig     `yaml:"database"`
	RabbitMQ RabbitMQConfig     `yaml:"rabbitmq"`
	Kafka    KafkaConfig        `yaml:"kafka"`
	HTTP     HTTPConfig         `yaml:"http"`
	Pebble   PebbleConfig       `yaml:"pebble"`
	Identity IdentityConfig     `yaml:"identity"`
	Alerts   AlertsConfig       `yaml:"alerts"`
	Checkout CheckoutConfig     `yaml:"checkout"`
	Settings domain.AppSettings `yaml:"settings"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// KafkaConfig enables the order changelog when Brokers is non-empty.
type KafkaConfig struct {
	Brokers string `yaml:"brokers"`
	Topic   string `yaml:"topic"`
}

type HTTPConfig struct {
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

type PebbleConfig struct {
	Dir string `yaml:"dir"`
}

type IdentityConfig struct {
	Enabled bool `yaml:"enabled"`
}

type AlertsConfig struct {
	// OrderDisplay of zero keeps the order banner until dismissed.
	OrderDisplay   time.Duration `yaml:"order_display"`
	StockDisplay   time.Duration `yaml:"stock_display"`
	ConfirmDisplay time.Duration `yaml:"confirm_display"`
}

type CheckoutConfig struct {
	SuccessDismiss time.Duration `yaml:"success_dismiss"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
}

// Default returns a configuration in which every option is set to its default value.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "atelier",
			Password: "atelier",
			Database: "atelier",
		},
		RabbitMQ: RabbitMQConfig{
			Host:     "localhost",
			Port:     5672,
			User:     "guest",
			Password: "guest",
		},
		Kafka: KafkaConfig{
			Topic: "atelier.orders",
		},
		HTTP: HTTPConfig{
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Pebble: PebbleConfig{
			Dir: "data/preferences",
		},
		Identity: IdentityConfig{
			Enabled: true,
		},
		Alerts: AlertsConfig{
			StockDisplay:   8 * time.Second,
			ConfirmDisplay: 2 * time.Second,
		},
		Checkout: CheckoutConfig{
			SuccessDismiss: 6 * time.Second,
			SessionTTL:     30 * time.Minute,
		},
		Settings: domain.DefaultSettings(),
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
	}

	cfg.Settings = domain.MergeSettings(domain.DefaultSettings(), cfg.Settings)
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ATELIER_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("ATELIER_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("ATELIER_DB_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = n
		}
	}
	if v := os.Getenv("ATELIER_RABBITMQ_HOST"); v != "" {
		cfg.RabbitMQ.Host = v
	}
	if v := os.Getenv("ATELIER_RABBITMQ_PASSWORD"); v != "" {
		cfg.RabbitMQ.Password = v
	}
	if v := os.Getenv("ATELIER_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = v
	}
}

func (c *Config) Validate() error {
	if c.Database.Port <= 0 || c.RabbitMQ.Port <= 0 {
		return fmt.Errorf("invalid config: ports must be positive")
	}
	if c.Alerts.StockDisplay <= 0 {
		return fmt.Errorf("invalid config: alerts.stock_display must be positive")
	}
	if c.Alerts.OrderDisplay < 0 {
		return fmt.Errorf("invalid config: alerts.order_display must not be negative")
	}
	if c.Checkout.SuccessDismiss <= 0 {
		return fmt.Errorf("invalid config: checkout.success_dismiss must be positive")
	}
	return nil
}
