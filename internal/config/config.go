package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"DemandBoard/internal/model"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Backend struct {
		BaseURL        string        `yaml:"base_url"`
		SalesPath      string        `yaml:"sales_path"`
		PredictPath    string        `yaml:"predict_path"`
		RequestTimeout time.Duration `yaml:"request_timeout"` // 0 waits indefinitely
		MockBase       float64       `yaml:"mock_base"`
		MockDays       int           `yaml:"mock_days"`
	} `yaml:"backend"`
	Forecast struct {
		DefaultModel string `yaml:"default_model"`
		DefaultDays  int    `yaml:"default_days"`
	} `yaml:"forecast"`
	Schedule struct {
		ReloadCron   string `yaml:"reload_cron"`
		ForecastCron string `yaml:"forecast_cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Chart struct {
		OutputPath string `yaml:"output_path"`
		Width      int    `yaml:"width"`
		Height     int    `yaml:"height"`
		Title      string `yaml:"title"`
	} `yaml:"chart"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("BACKEND_BASE_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse REQUEST_TIMEOUT: %w", err)
		}
		c.Backend.RequestTimeout = d
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("CRON_RELOAD"); v != "" {
		c.Schedule.ReloadCron = v
	}
	if v := os.Getenv("CRON_FORECAST"); v != "" {
		c.Schedule.ForecastCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("CHART_OUTPUT"); v != "" {
		c.Chart.OutputPath = v
	}
	if v := os.Getenv("DEFAULT_MODEL"); v != "" {
		c.Forecast.DefaultModel = v
	}
	if v := os.Getenv("DEFAULT_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse DEFAULT_DAYS: %w", err)
		}
		c.Forecast.DefaultDays = n
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Backend.SalesPath == "" {
		c.Backend.SalesPath = "/sales-data"
	}
	if c.Backend.PredictPath == "" {
		c.Backend.PredictPath = "/predict"
	}
	if c.Backend.MockBase == 0 {
		c.Backend.MockBase = 1000
	}
	if c.Backend.MockDays == 0 {
		c.Backend.MockDays = 90
	}
	if c.Forecast.DefaultModel == "" {
		c.Forecast.DefaultModel = string(model.ModelARIMA)
	}
	if c.Forecast.DefaultDays == 0 {
		c.Forecast.DefaultDays = 30
	}
	if c.Schedule.ReloadCron == "" {
		c.Schedule.ReloadCron = "0 0 6 * * *"
	}
	if c.Chart.OutputPath == "" {
		c.Chart.OutputPath = "data/forecast_chart.png"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/demand_board.db"
	}
}

// Validate checks that the configured values are usable.
func (c *Config) Validate() error {
	if _, err := c.DefaultRequest(); err != nil {
		return fmt.Errorf("forecast defaults: %w", err)
	}
	if c.Backend.RequestTimeout < 0 {
		return fmt.Errorf("backend.request_timeout must not be negative")
	}
	if c.Backend.BaseURL == "" && c.Backend.MockDays <= 0 {
		return fmt.Errorf("backend.mock_days must be positive")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// DefaultRequest returns the forecast issued when an operator gives no
// arguments and by the scheduled forecast.
func (c *Config) DefaultRequest() (model.ForecastRequest, error) {
	m, err := model.ParseModel(c.Forecast.DefaultModel)
	if err != nil {
		return model.ForecastRequest{}, err
	}
	req := model.ForecastRequest{Model: m, Days: c.Forecast.DefaultDays}
	return req, req.Validate()
}

// TelegramEnabled reports whether an operator chat is configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
