package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Log         struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowRequest     time.Duration `yaml:"slow_request" default:"2s"`
		TrainRateLimit  struct {
			PerMinute float64 `yaml:"per_minute" default:"2" validate:"gt=0"`
			Burst     int     `yaml:"burst" default:"1" validate:"gte=1"`
		} `yaml:"train_rate_limit"`
	} `yaml:"server"`
	Events struct {
		Enabled      bool          `yaml:"enabled" default:"true"`
		Path         string        `yaml:"path" default:"/ws/training"`
		PingInterval time.Duration `yaml:"ping_interval" default:"30s"`
		Buffer       int           `yaml:"buffer" default:"16" validate:"gte=1"`
	} `yaml:"events"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Source struct {
		IpeaURL   string        `yaml:"ipea_url" default:"http://www.ipeadata.gov.br/ExibeSerie.aspx?module=m&serid=1650971490&oper=view"`
		Timeout   time.Duration `yaml:"timeout" default:"10s"`
		CSVPath   string        `yaml:"csv_path" default:"dados/dados_petroleo_brent_2005_2025.csv"`
		From      string        `yaml:"from" default:"2005-01-01" validate:"omitempty,datetime=2006-01-02"`
		To        string        `yaml:"to" validate:"omitempty,datetime=2006-01-02"`
		UserAgent string        `yaml:"user_agent" default:"brentcast/1.0"`
	} `yaml:"source"`
	Model struct {
		Dir             string `yaml:"dir" default:"modelo" validate:"required"`
		HorizonEnd      string `yaml:"horizon_end" default:"2026-12-31" validate:"datetime=2006-01-02"`
		MinHistory      int    `yaml:"min_history" default:"30" validate:"gte=8"`
		MaxForecastDays int    `yaml:"max_forecast_days" default:"730" validate:"gte=1"`
		TrainOnStartup  bool   `yaml:"train_on_startup" default:"true"`
		Trend           Trend  `yaml:"trend"`
		Residual        Boost  `yaml:"residual"`
	} `yaml:"model"`
	Cache struct {
		Backend    string        `yaml:"backend" default:"memory" validate:"oneof=memory redis layered"`
		TTL        time.Duration `yaml:"ttl" default:"1h"`
		MaxEntries int           `yaml:"max_entries" default:"512" validate:"gte=1"`
	} `yaml:"cache"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"brentcast"`
	} `yaml:"redis"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"brentcast"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"brentcast.model.trained"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	Queue struct {
		Enabled    bool          `yaml:"enabled"`
		RetryLimit int           `yaml:"retry_limit" default:"2"`
		RetryDelay time.Duration `yaml:"retry_delay" default:"30s"`
	} `yaml:"queue"`
}

// Trend holds additive trend model settings.
type Trend struct {
	Changepoints          int     `yaml:"changepoints" default:"25" validate:"gte=0"`
	ChangepointRange      float64 `yaml:"changepoint_range" default:"0.8" validate:"gt=0,lte=1"`
	ChangepointPriorScale float64 `yaml:"changepoint_prior_scale" default:"0.05" validate:"gt=0"`
	SeasonalityPriorScale float64 `yaml:"seasonality_prior_scale" default:"10" validate:"gt=0"`
	YearlyOrder           int     `yaml:"yearly_order" default:"10" validate:"gte=0"`
	WeeklyOrder           int     `yaml:"weekly_order" default:"3" validate:"gte=0"`
	IntervalWidth         float64 `yaml:"interval_width" default:"0.8" validate:"gt=0,lt=1"`
}

// Boost holds residual gradient boosting settings.
type Boost struct {
	Lags           int     `yaml:"lags" default:"7" validate:"eq=7"`
	Estimators     int     `yaml:"estimators" default:"100" validate:"gte=1"`
	LearningRate   float64 `yaml:"learning_rate" default:"0.1" validate:"gt=0,lte=1"`
	MaxDepth       int     `yaml:"max_depth" default:"6" validate:"gte=1,lte=16"`
	MinChildWeight float64 `yaml:"min_child_weight" default:"1" validate:"gte=0"`
	Lambda         float64 `yaml:"lambda" default:"1" validate:"gte=0"`
	Subsample      float64 `yaml:"subsample" default:"1" validate:"gt=0,lte=1"`
	Seed           int64   `yaml:"seed" default:"42"`
	TrainRatio     float64 `yaml:"train_ratio" default:"0.8" validate:"gt=0,lt=1"`
}

var validate = validator.New()

// Default returns a configuration populated only from struct defaults.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Defaults first so explicit zero values in the file (false, 0) are kept.
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads .env (if present) and the YAML file, then applies environment overrides.
// A missing YAML file falls back to defaults so the CLI works without one.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	c, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		c, err = Default()
	}
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("BRENT_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("HTTP_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("MODEL_DIR"); v != "" {
		c.Model.Dir = v
	}
	if v := os.Getenv("IPEA_URL"); v != "" {
		c.Source.IpeaURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return err
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Queue.Enabled && !c.Redis.Enabled {
		return fmt.Errorf("queue requires redis.enabled")
	}
	if c.Cache.Backend != "memory" && !c.Redis.Enabled {
		return fmt.Errorf("cache.backend %q requires redis.enabled", c.Cache.Backend)
	}
	if c.Source.To != "" && c.Source.To < c.Source.From {
		return fmt.Errorf("source.to must not be before source.from")
	}
	return nil
}

// HorizonEnd returns the training frame end date.
func (c *Config) HorizonEnd() time.Time {
	t, _ := time.Parse("2006-01-02", c.Model.HorizonEnd)
	return t
}

// SourceWindow returns the [from, to] filter applied to loaded prices. A zero to means unbounded.
func (c *Config) SourceWindow() (from, to time.Time) {
	from, _ = time.Parse("2006-01-02", c.Source.From)
	if c.Source.To != "" {
		to, _ = time.Parse("2006-01-02", c.Source.To)
	}
	return from, to
}
