package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // GOLD_TIMEZONE must resolve on minimal images

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port           string
	Env            string
	ViewsDir       string
	AssetsDir      string
	CORSOrigins    []string
	ShutdownPeriod time.Duration
}

type DatabaseConfig struct {
	Driver      string
	DSN         string
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	AutoMigrate bool
	MaxOpen     int
}

type SessionConfig struct {
	Secret string
	MaxAge time.Duration
	Secure bool
	Cookie string
}

type GoldConfig struct {
	Enabled     bool
	APIKey      string
	APIURL      string
	Hours       []int
	ManualLimit int
	Timezone    string
	Timeout     time.Duration
}

type StorageConfig struct {
	Driver     string
	UploadBase string
	PublicURL  string
	S3Bucket   string
	S3Region   string
	S3Endpoint string
	S3Key      string
	S3Secret   string
	S3BaseURL  string
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type LogConfig struct {
	Level string
}

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Session  SessionConfig
	Gold     GoldConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Log      LogConfig
}

// IsDevelopment reports whether APP_ENV (or NODE_ENV) is "development".
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Server.Env, "development")
}

// env key -> default. Keys are read verbatim from the environment.
var defaults = map[string]any{
	"PORT":                  "3000",
	"APP_ENV":               "production",
	"VIEWS_DIR":             "views",
	"ASSETS_DIR":            "public",
	"CORS_ORIGINS":          "",
	"SHUTDOWN_TIMEOUT":      "30s",
	"DB_DRIVER":             "mysql",
	"DB_DSN":                "",
	"DB_HOST":               "localhost",
	"DB_PORT":               "3306",
	"DB_USER":               "root",
	"DB_PASSWORD":           "",
	"DB_NAME":               "db_emas",
	"DB_AUTO_MIGRATE":       true,
	"DB_MAX_OPEN_CONNS":     10,
	"SESSION_SECRET":        "",
	"SESSION_MAX_AGE_HOURS": 24,
	"SESSION_COOKIE":        "emas_session",
	"SESSION_SECURE":        false,
	"ENABLE_GOLD_SCHEDULER": false,
	"METALS_API_KEY":        "",
	"METALS_API_URL":        "https://api.metals.dev",
	"GOLD_SCHEDULE_HOURS":   "6,14,22",
	"GOLD_MANUAL_LIMIT":     10,
	"GOLD_TIMEZONE":         "Asia/Jakarta",
	"GOLD_HTTP_TIMEOUT":     "15s",
	"STORAGE_DRIVER":        "local",
	"UPLOAD_BASE":           "uploads",
	"PUBLIC_URL_PREFIX":     "/public/uploads",
	"S3_BUCKET":             "",
	"S3_REGION":             "ap-southeast-1",
	"S3_ENDPOINT":           "",
	"S3_ACCESS_KEY":         "",
	"S3_SECRET_KEY":         "",
	"S3_PUBLIC_BASE_URL":    "",
	"REDIS_ADDRESS":         "",
	"REDIS_PASSWORD":        "",
	"REDIS_DB":              0,
	"LOG_LEVEL":             "info",
}

const devSecret = "dev-insecure-secret-change"

// Load reads .env (without overriding the real environment) and returns the
// typed configuration.
func Load() (*Config, error) {
	cfg, err := build()
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTool is Load for the command line tools. Only the database and storage
// settings are checked; the session secret and gold API key may be absent.
func LoadTool() (*Config, error) {
	cfg, err := build()
	if err != nil {
		return nil, err
	}
	if err := cfg.validateStores(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func build() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()
	// NODE_ENV is what the old deployment scripts export.
	if err := v.BindEnv("APP_ENV", "APP_ENV", "NODE_ENV"); err != nil {
		return nil, fmt.Errorf("bind APP_ENV: %w", err)
	}

	hours, err := ParseHours(v.GetString("GOLD_SCHEDULE_HOURS"))
	if err != nil {
		return nil, err
	}
	shutdown, err := time.ParseDuration(v.GetString("SHUTDOWN_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
	}
	goldTimeout, err := time.ParseDuration(v.GetString("GOLD_HTTP_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("GOLD_HTTP_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			Env:            v.GetString("APP_ENV"),
			ViewsDir:       v.GetString("VIEWS_DIR"),
			AssetsDir:      v.GetString("ASSETS_DIR"),
			CORSOrigins:    splitList(v.GetString("CORS_ORIGINS")),
			ShutdownPeriod: shutdown,
		},
		Database: DatabaseConfig{
			Driver:      strings.ToLower(v.GetString("DB_DRIVER")),
			DSN:         v.GetString("DB_DSN"),
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetString("DB_PORT"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASSWORD"),
			Name:        v.GetString("DB_NAME"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
			MaxOpen:     v.GetInt("DB_MAX_OPEN_CONNS"),
		},
		Session: SessionConfig{
			Secret: v.GetString("SESSION_SECRET"),
			MaxAge: time.Duration(v.GetInt("SESSION_MAX_AGE_HOURS")) * time.Hour,
			Secure: v.GetBool("SESSION_SECURE"),
			Cookie: v.GetString("SESSION_COOKIE"),
		},
		Gold: GoldConfig{
			Enabled:     v.GetBool("ENABLE_GOLD_SCHEDULER"),
			APIKey:      v.GetString("METALS_API_KEY"),
			APIURL:      strings.TrimRight(v.GetString("METALS_API_URL"), "/"),
			Hours:       hours,
			ManualLimit: v.GetInt("GOLD_MANUAL_LIMIT"),
			Timezone:    v.GetString("GOLD_TIMEZONE"),
			Timeout:     goldTimeout,
		},
		Storage: StorageConfig{
			Driver:     strings.ToLower(v.GetString("STORAGE_DRIVER")),
			UploadBase: v.GetString("UPLOAD_BASE"),
			PublicURL:  strings.TrimRight(v.GetString("PUBLIC_URL_PREFIX"), "/"),
			S3Bucket:   v.GetString("S3_BUCKET"),
			S3Region:   v.GetString("S3_REGION"),
			S3Endpoint: v.GetString("S3_ENDPOINT"),
			S3Key:      v.GetString("S3_ACCESS_KEY"),
			S3Secret:   v.GetString("S3_SECRET_KEY"),
			S3BaseURL:  strings.TrimRight(v.GetString("S3_PUBLIC_BASE_URL"), "/"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("REDIS_ADDRESS"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Log: LogConfig{Level: v.GetString("LOG_LEVEL")},
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Session.Secret == "" {
		if !c.IsDevelopment() {
			return errors.New("SESSION_SECRET is required outside development")
		}
		c.Session.Secret = devSecret
	}
	if c.Session.MaxAge <= 0 {
		c.Session.MaxAge = 24 * time.Hour
	}
	if err := c.validateStores(); err != nil {
		return err
	}
	if c.Gold.ManualLimit <= 0 {
		c.Gold.ManualLimit = 10
	}
	if c.Gold.Enabled && c.Gold.APIKey == "" {
		return errors.New("METALS_API_KEY is required when ENABLE_GOLD_SCHEDULER=true")
	}
	return nil
}

func (c *Config) validateStores() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER %q not supported (mysql, postgres, sqlite)", c.Database.Driver)
	}
	switch c.Storage.Driver {
	case "local":
	case "s3":
		if c.Storage.S3Bucket == "" {
			return errors.New("S3_BUCKET is required when STORAGE_DRIVER=s3")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER %q not supported (local, s3)", c.Storage.Driver)
	}
	if _, err := time.LoadLocation(c.Gold.Timezone); err != nil {
		return fmt.Errorf("GOLD_TIMEZONE: %w", err)
	}
	return nil
}

// ParseHours parses a comma separated list of hours of day, e.g. "6,14,22".
func ParseHours(s string) ([]int, error) {
	var hours []int
	for _, part := range splitList(s) {
		h, err := strconv.Atoi(part)
		if err != nil || h < 0 || h > 23 {
			return nil, fmt.Errorf("GOLD_SCHEDULE_HOURS: invalid hour %q", part)
		}
		hours = append(hours, h)
	}
	if len(hours) == 0 {
		return nil, errors.New("GOLD_SCHEDULE_HOURS: at least one hour is required")
	}
	return hours, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
