package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultURLTemplate is the Deriv websocket endpoint; {app_id} is substituted.
const DefaultURLTemplate = "wss://ws.binaryws.com/websockets/v3?app_id={app_id}"

// DefaultSymbols is the forex set tracked when none is configured.
var DefaultSymbols = []string{
	"frxAUDJPY", "frxAUDUSD", "frxEURAUD", "frxEURCAD", "frxEURCHF", "frxEURGBP", "frxEURJPY", "frxEURUSD",
	"frxGBPAUD", "frxGBPJPY", "frxGBPUSD", "frxUSDCAD", "frxUSDCHF", "frxUSDJPY", "frxAUDCAD", "frxAUDCHF",
	"frxAUDNZD", "frxEURNZD", "frxGBPCAD", "frxGBPCHF", "frxGBPNZD", "frxNZDJPY", "frxNZDUSD", "frxUSDMXN",
}

// Config holds all application configuration.
type Config struct {
	Feed struct {
		URLTemplate      string        `yaml:"url_template"`
		AppID            string        `yaml:"app_id"`
		Token            string        `yaml:"token"`
		Symbols          []string      `yaml:"symbols"`
		RetryDelay       time.Duration `yaml:"retry_delay"`
		HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
		PingPeriod       time.Duration `yaml:"ping_period"`
		ReadLimit        int64         `yaml:"read_limit"`
	} `yaml:"feed"`
	Candle struct {
		ResetCron string `yaml:"reset_cron"`
	} `yaml:"candle"`
	Sink struct {
		CSVDir        string        `yaml:"csv_dir"`
		SQLitePath    string        `yaml:"sqlite_path"`
		RedisAddr     string        `yaml:"redis_addr"`
		RedisPassword string        `yaml:"redis_password"`
		RedisDB       int           `yaml:"redis_db"`
		RedisTTL      time.Duration `yaml:"redis_ttl"`
		Dedupe        *bool         `yaml:"dedupe"`
		ErrorPause    time.Duration `yaml:"error_pause"`
	} `yaml:"sink"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Metrics struct {
		Listen string `yaml:"listen"`
	} `yaml:"metrics"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, loads .env files, then applies
// environment variable overrides and defaults. A missing file is not an error.
func Load(path string, envFiles ...string) (*Config, error) {
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

	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// loadEnvFiles loads .env style files without overriding variables already
// set in the process environment. Missing files are skipped.
func loadEnvFiles(files []string) error {
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load env file %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("DERIV_API_TOKEN"); v != "" {
		c.Feed.Token = v
	}
	if v := os.Getenv("DERIV_APP_ID"); v != "" {
		c.Feed.AppID = v
	}
	if v := os.Getenv("FEED_URL_TEMPLATE"); v != "" {
		c.Feed.URLTemplate = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Feed.Symbols = splitList(v)
	}
	if v := os.Getenv("RETRY_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("RETRY_DELAY: %w", err)
		}
		c.Feed.RetryDelay = d
	}
	if v := os.Getenv("CANDLE_RESET_CRON"); v != "" {
		c.Candle.ResetCron = v
	}
	if v := os.Getenv("CSV_DIR"); v != "" {
		c.Sink.CSVDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Sink.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Sink.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Sink.RedisPassword = v
	}
	if v := os.Getenv("SINK_DEDUPE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SINK_DEDUPE: %w", err)
		}
		c.Sink.Dedupe = &b
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		c.Metrics.Listen = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Feed.URLTemplate == "" {
		c.Feed.URLTemplate = DefaultURLTemplate
	}
	if c.Feed.AppID == "" {
		c.Feed.AppID = "1089"
	}
	if len(c.Feed.Symbols) == 0 {
		c.Feed.Symbols = append([]string(nil), DefaultSymbols...)
	}
	if c.Feed.RetryDelay == 0 {
		c.Feed.RetryDelay = 5 * time.Second
	}
	if c.Feed.HandshakeTimeout == 0 {
		c.Feed.HandshakeTimeout = 10 * time.Second
	}
	if c.Feed.PingPeriod == 0 {
		c.Feed.PingPeriod = 30 * time.Second
	}
	if c.Feed.ReadLimit == 0 {
		c.Feed.ReadLimit = 1 << 20
	}
	if c.Sink.CSVDir == "" {
		c.Sink.CSVDir = "data"
	}
	if c.Sink.Dedupe == nil {
		on := true
		c.Sink.Dedupe = &on
	}
	if c.Sink.ErrorPause == 0 {
		c.Sink.ErrorPause = time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Endpoint returns the feed URL with {app_id} substituted.
func (c *Config) Endpoint() string {
	return strings.ReplaceAll(c.Feed.URLTemplate, "{app_id}", c.Feed.AppID)
}

// DedupeEnabled reports whether identical consecutive records are skipped.
func (c *Config) DedupeEnabled() bool {
	return c.Sink.Dedupe == nil || *c.Sink.Dedupe
}

// AlertsEnabled reports whether Telegram alerts are configured.
func (c *Config) AlertsEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Feed.Token == "" {
		return fmt.Errorf("feed.token is required")
	}
	if c.Feed.URLTemplate == "" {
		return fmt.Errorf("feed.url_template is required")
	}
	if len(c.Feed.Symbols) == 0 {
		return fmt.Errorf("feed.symbols must not be empty")
	}
	seen := make(map[string]bool, len(c.Feed.Symbols))
	for _, s := range c.Feed.Symbols {
		if s == "" {
			return fmt.Errorf("feed.symbols contains an empty symbol")
		}
		if seen[s] {
			return fmt.Errorf("feed.symbols contains %q twice", s)
		}
		seen[s] = true
	}
	if c.Feed.RetryDelay <= 0 {
		return fmt.Errorf("feed.retry_delay must be positive")
	}
	if c.Sink.ErrorPause < 0 {
		return fmt.Errorf("sink.error_pause must not be negative")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
