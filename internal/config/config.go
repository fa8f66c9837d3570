package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// History store kinds.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
	StoreNone   = "none"
)

// Config holds all application configuration.
type Config struct {
	Backend struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"backend"`
	History struct {
		Store      string `yaml:"store"`
		FilePath   string `yaml:"file_path"`
		SQLitePath string `yaml:"sqlite_path"`
		Key        string `yaml:"key"`
		MaxEntries int    `yaml:"max_entries"`
	} `yaml:"history"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Monitor struct {
		Cron         string  `yaml:"cron"`
		AlertRise    float64 `yaml:"alert_rise"`
		AlertDrop    float64 `yaml:"alert_drop"`
		AlertPVP     float64 `yaml:"alert_pvp"`
		SessionStart int     `yaml:"session_start"`
		SessionEnd   int     `yaml:"session_end"`
		Timezone     string  `yaml:"timezone"`
	} `yaml:"monitor"`
	Chart struct {
		MovingAverage int `yaml:"moving_average"`
		Width         int `yaml:"width"`
		Height        int `yaml:"height"`
	} `yaml:"chart"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
		File   string `yaml:"file"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Path returns the config file path from CONFIG_PATH, or the default.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "configs/config.yaml"
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A .env file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

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

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

// Environment variable overrides
func applyEnv(cfg *Config) {
	if v := os.Getenv("FIIDASH_BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("FIIDASH_HISTORY_STORE"); v != "" {
		cfg.History.Store = v
	}
	if v := os.Getenv("FIIDASH_HISTORY_FILE"); v != "" {
		cfg.History.FilePath = v
	}
	if v := os.Getenv("FIIDASH_SQLITE_PATH"); v != "" {
		cfg.History.SQLitePath = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	envFloat("ALERTA_ALTA_MINIMA", &cfg.Monitor.AlertRise)
	envFloat("ALERTA_BAIXA_MINIMA", &cfg.Monitor.AlertDrop)
	envFloat("ALERTA_DESCONTO_PVP", &cfg.Monitor.AlertPVP)
}

func envFloat(key string, dst *float64) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		*dst = f
	}
}

// Defaults
func applyDefaults(cfg *Config) {
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = "http://localhost:5001/api"
	}
	if cfg.Backend.Timeout <= 0 {
		cfg.Backend.Timeout = 30 * time.Second
	}
	if cfg.History.Store == "" {
		cfg.History.Store = StoreFile
	}
	if cfg.History.FilePath == "" {
		cfg.History.FilePath = "data/fii_history.json"
	}
	if cfg.History.SQLitePath == "" {
		cfg.History.SQLitePath = "data/fiidash.db"
	}
	if cfg.History.Key == "" {
		cfg.History.Key = "fii_history"
	}
	if cfg.History.MaxEntries == 0 {
		cfg.History.MaxEntries = 10
	}
	if cfg.Monitor.Cron == "" {
		cfg.Monitor.Cron = "0 */30 * * * 1-5"
	}
	if cfg.Monitor.AlertRise == 0 {
		cfg.Monitor.AlertRise = 1.5
	}
	if cfg.Monitor.AlertDrop == 0 {
		cfg.Monitor.AlertDrop = -1.5
	}
	if cfg.Monitor.AlertPVP == 0 {
		cfg.Monitor.AlertPVP = 0.95
	}
	if cfg.Monitor.SessionStart == 0 && cfg.Monitor.SessionEnd == 0 {
		cfg.Monitor.SessionStart = 10
		cfg.Monitor.SessionEnd = 17
	}
	if cfg.Monitor.Timezone == "" {
		cfg.Monitor.Timezone = "America/Sao_Paulo"
	}
	if cfg.Chart.MovingAverage == 0 {
		cfg.Chart.MovingAverage = 20
	}
	if cfg.Chart.Width == 0 {
		cfg.Chart.Width = 900
	}
	if cfg.Chart.Height == 0 {
		cfg.Chart.Height = 400
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Location resolves the monitor timezone, falling back to a fixed UTC-3
// zone when the tz database is not available.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Monitor.Timezone)
	if err != nil {
		return time.FixedZone("BRT", -3*3600)
	}
	return loc
}

// Validate checks the settings every command depends on.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	switch c.History.Store {
	case StoreFile, StoreSQLite, StoreMemory, StoreNone:
	default:
		return fmt.Errorf("history.store must be one of file, sqlite, memory, none; got %q", c.History.Store)
	}
	if c.History.MaxEntries <= 0 {
		return fmt.Errorf("history.max_entries must be positive")
	}
	if c.Chart.MovingAverage <= 0 {
		return fmt.Errorf("chart.moving_average must be positive")
	}
	if c.Monitor.SessionStart < 0 || c.Monitor.SessionEnd > 24 || c.Monitor.SessionStart >= c.Monitor.SessionEnd {
		return fmt.Errorf("monitor session hours must satisfy 0 <= start < end <= 24")
	}
	return nil
}

// ValidateTelegram checks the fields required by the monitor.
func (c *Config) ValidateTelegram() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	return nil
}
