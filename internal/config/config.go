// Package config builds the immutable run configuration. Sources are layered
// defaults < YAML file < .env < environment < Infisical (secrets only).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/web3-frozen/daily-report/internal/aggregate"
)

// DefaultPath is read when no --config flag is given. It may be absent.
const DefaultPath = "config.yaml"

type Config struct {
	OutputDir   string   `yaml:"output_dir"`
	Timezone    string   `yaml:"timezone"`
	Formats     []string `yaml:"formats" validate:"dive,oneof=html xlsx pdf json" env:"REPORT_FORMATS"`
	Schedule    string   `yaml:"schedule" env:"REPORT_SCHEDULE"`
	MarketLimit int      `yaml:"market_limit" validate:"gt=0"`
	NewsLimit   int      `yaml:"news_limit" validate:"gt=0"`

	Logging   LoggingConfig   `yaml:"logging"`
	Sources   SourcesConfig   `yaml:"sources"`
	Translate TranslateConfig `yaml:"translate"`
	Email     EmailConfig     `yaml:"email"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Redis     RedisConfig     `yaml:"redis"`
	Server    ServerConfig    `yaml:"server"`
	PDF       PDFConfig       `yaml:"pdf"`

	DatabaseURL    string `yaml:"database_url"`
	PushgatewayURL string `yaml:"pushgateway_url"`
	Tracing        bool   `yaml:"tracing"`

	Aggregate aggregate.Params `yaml:"aggregate"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error" env:"LOG_LEVEL"`
	Format string `yaml:"format" validate:"oneof=json text" env:"LOG_FORMAT"`
}

// SourceConfig toggles one provider. A required source without its key is a
// configuration error; an optional one is skipped.
type SourceConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Required bool   `yaml:"required"`
	APIKey   string `yaml:"api_key"`
}

type SourcesConfig struct {
	CoinGecko   SourceConfig `yaml:"coingecko"`
	Binance     SourceConfig `yaml:"binance"`
	CryptoPanic SourceConfig `yaml:"cryptopanic"`
	RootData    SourceConfig `yaml:"rootdata"`
	Alpha       SourceConfig `yaml:"alpha"`
	FearGreed   SourceConfig `yaml:"feargreed"`
}

type TranslateConfig struct {
	Enabled bool   `yaml:"enabled"`
	Target  string `yaml:"target"`
}

type EmailConfig struct {
	Enabled  bool     `yaml:"enabled" env:"EMAIL_ENABLED"`
	SMTPHost string   `yaml:"smtp_host" validate:"required_if=Enabled true" env:"EMAIL_SMTP_HOST"`
	SMTPPort int      `yaml:"smtp_port" validate:"required_if=Enabled true,gte=0,lte=65535" env:"EMAIL_SMTP_PORT"`
	Username string   `yaml:"username" validate:"required_if=Enabled true" env:"EMAIL_USERNAME"`
	Password string   `yaml:"password" validate:"required_if=Enabled true" env:"EMAIL_PASSWORD"`
	To       []string `yaml:"to" validate:"required_if=Enabled true" env:"EMAIL_TO"`
	UseSSL   bool     `yaml:"use_ssl" env:"EMAIL_USE_SSL"`
}

// SSL reports whether implicit TLS is used. Port 465 always means SSL.
func (e EmailConfig) SSL() bool { return e.UseSSL || e.SMTPPort == 465 }

type TelegramConfig struct {
	Enabled    bool   `yaml:"enabled" env:"TELEGRAM_ENABLED"`
	BotToken   string `yaml:"bot_token" validate:"required_if=Enabled true" env:"TELEGRAM_BOT_TOKEN"`
	ChatID     string `yaml:"chat_id" validate:"required_if=Enabled true" env:"TELEGRAM_CHAT_ID"`
	SendReport bool   `yaml:"send_report"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// ServerConfig configures serve mode. CORSOrigins is empty by default, so
// browsers on other origins get no CORS grant. APIToken guards POST /api/run;
// without it the trigger endpoint is disabled.
type ServerConfig struct {
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins" env:"CORS_ORIGINS"`
	APIToken    string   `yaml:"api_token" env:"API_TOKEN"`
}

type PDFConfig struct {
	ChromePath string        `yaml:"chrome_path"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		OutputDir:   "reports",
		Timezone:    "Asia/Hong_Kong",
		Formats:     []string{"html", "xlsx"},
		Schedule:    "0 8 * * *",
		MarketLimit: 100,
		NewsLimit:   200,
		Logging:     LoggingConfig{Level: "info", Format: "json"},
		Sources: SourcesConfig{
			CoinGecko:   SourceConfig{Enabled: true},
			Binance:     SourceConfig{Enabled: true},
			CryptoPanic: SourceConfig{Enabled: true},
			RootData:    SourceConfig{Enabled: true},
			Alpha:       SourceConfig{Enabled: true},
			FearGreed:   SourceConfig{Enabled: true},
		},
		Translate: TranslateConfig{Target: "zh-CN"},
		Email:     EmailConfig{SMTPPort: 587},
		Server:    ServerConfig{Port: "8080"},
		PDF:       PDFConfig{Timeout: 60 * time.Second},
		Aggregate: aggregate.DefaultParams(),
	}
}

// Load reads path (or DefaultPath when empty), applies .env and environment
// overrides and the Infisical secret overlay. It does not validate.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	if err := loadFile(&cfg, path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return cfg, err
		}
	}

	// .env never overrides variables already exported.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}

	clientID := os.Getenv("INFISICAL_CLIENT_ID")
	clientSecret := os.Getenv("INFISICAL_CLIENT_SECRET")
	if clientID != "" && clientSecret != "" {
		loadFromInfisical(&cfg, clientID, clientSecret)
	}

	applyDerived(&cfg)
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.OutputDir = envOr("REPORT_OUTPUT_DIR", cfg.OutputDir)
	cfg.Timezone = envOr("REPORT_TIMEZONE", cfg.Timezone)
	cfg.Formats = envList("REPORT_FORMATS", cfg.Formats)
	cfg.Schedule = envOr("REPORT_SCHEDULE", cfg.Schedule)
	cfg.Logging.Level = strings.ToLower(envOr("LOG_LEVEL", cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(envOr("LOG_FORMAT", cfg.Logging.Format))

	cfg.Sources.CoinGecko.APIKey = envOr("COINGECKO_API_KEY", cfg.Sources.CoinGecko.APIKey)
	cfg.Sources.CryptoPanic.APIKey = envOr("CRYPTOPANIC_API_KEY", cfg.Sources.CryptoPanic.APIKey)
	cfg.Sources.RootData.APIKey = envOr("ROOTDATA_API_KEY", cfg.Sources.RootData.APIKey)

	var err error
	if cfg.Email.Enabled, err = envBool("EMAIL_ENABLED", cfg.Email.Enabled); err != nil {
		return err
	}
	cfg.Email.SMTPHost = envOr("EMAIL_SMTP_HOST", cfg.Email.SMTPHost)
	if cfg.Email.SMTPPort, err = envInt("EMAIL_SMTP_PORT", cfg.Email.SMTPPort); err != nil {
		return err
	}
	cfg.Email.Username = envOr("EMAIL_USERNAME", cfg.Email.Username)
	cfg.Email.Password = envOr("EMAIL_PASSWORD", cfg.Email.Password)
	cfg.Email.To = envList("EMAIL_TO", cfg.Email.To)
	if cfg.Email.UseSSL, err = envBool("EMAIL_USE_SSL", cfg.Email.UseSSL); err != nil {
		return err
	}

	if cfg.Telegram.Enabled, err = envBool("TELEGRAM_ENABLED", cfg.Telegram.Enabled); err != nil {
		return err
	}
	cfg.Telegram.BotToken = envOr("TELEGRAM_BOT_TOKEN", cfg.Telegram.BotToken)
	cfg.Telegram.ChatID = envOr("TELEGRAM_CHAT_ID", cfg.Telegram.ChatID)

	cfg.Redis.URL = envOr("REDIS_URL", cfg.Redis.URL)
	cfg.Redis.Password = envOr("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.DatabaseURL = envOr("DATABASE_URL", cfg.DatabaseURL)
	cfg.PushgatewayURL = envOr("PUSHGATEWAY_URL", cfg.PushgatewayURL)
	cfg.Server.Port = envOr("PORT", cfg.Server.Port)
	cfg.Server.CORSOrigins = envList("CORS_ORIGINS", cfg.Server.CORSOrigins)
	cfg.Server.APIToken = envOr("API_TOKEN", cfg.Server.APIToken)
	if cfg.Tracing, err = envBool("TRACING_ENABLED", cfg.Tracing); err != nil {
		return err
	}
	return nil
}

// applyDerived fills values implied by others.
func applyDerived(cfg *Config) {
	if cfg.Email.SMTPHost == "" && strings.HasSuffix(strings.ToLower(cfg.Email.Username), "@gmail.com") {
		cfg.Email.SMTPHost = "smtp.gmail.com"
		if cfg.Email.SMTPPort == 0 {
			cfg.Email.SMTPPort = 587
		}
	}
	for i, to := range cfg.Email.To {
		cfg.Email.To[i] = strings.TrimSpace(to)
	}
}

// Location resolves Timezone. Validate guarantees it parses.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
