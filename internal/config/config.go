package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all the configuration for the application.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	SMTP         SMTPConfig         `mapstructure:"smtp"`
	Verification VerificationConfig `mapstructure:"verification"`
	Log          LogConfig          `mapstructure:"log"`
	RateLimit    RateLimitConfig    `mapstructure:"ratelimit"`
	Templates    TemplatesConfig    `mapstructure:"templates"`
	JWTSecret    string             `mapstructure:"jwtsecret"`
}

// ServerConfig holds the server configuration.
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Only enable it behind a proxy that overwrites those headers.
	TrustProxy bool `mapstructure:"trustproxy"`
}

// IsProduction reports whether the server runs with production settings.
func (s ServerConfig) IsProduction() bool {
	return strings.EqualFold(s.Env, "production")
}

// DatabaseConfig holds the database configuration.
// URL wins over the discrete host/credential fields when both are set.
type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	Name           string        `mapstructure:"name"`
	SSLMode        string        `mapstructure:"sslmode"`
	Schemas        []string      `mapstructure:"schemas"`
	MaxConns       int32         `mapstructure:"maxconns"`
	ConnectTimeout time.Duration `mapstructure:"connecttimeout"`
	IdleTimeout    time.Duration `mapstructure:"idletimeout"`
	SelfHeal       bool          `mapstructure:"selfheal"`
	AutoMigrate    bool          `mapstructure:"automigrate"`
}

// DSN returns the connection string for the pool.
func (d DatabaseConfig) DSN() (string, error) {
	if d.URL != "" {
		return d.URL, nil
	}
	if d.Host == "" || d.Name == "" {
		return "", errors.New("DATABASE_URL or DB_HOST/DB_NAME must be set")
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Name,
	}
	if d.User != "" {
		u.User = url.UserPassword(d.User, d.Password)
	}
	q := url.Values{}
	if d.SSLMode != "" {
		q.Set("sslmode", d.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// RedisConfig holds the Redis configuration.
// An empty URL disables the token denylist and resend cooldown.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// SMTPConfig holds the outgoing mail settings. An empty Host switches
// the notifier to a log-only sender.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// VerificationConfig controls code lifetimes and token expiry.
type VerificationConfig struct {
	ActivationTTL  time.Duration `mapstructure:"activationttl"`
	ResetTTL       time.Duration `mapstructure:"resetttl"`
	ResendCooldown time.Duration `mapstructure:"resendcooldown"`
	TokenTTL       time.Duration `mapstructure:"tokenttl"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type TemplatesConfig struct {
	Dir    string `mapstructure:"dir"`
	Reload bool   `mapstructure:"reload"`
}

var envBindings = map[string]string{
	"server.port":                 "SERVER_PORT",
	"server.env":                  "SERVER_ENV",
	"server.trustproxy":           "TRUST_PROXY",
	"database.url":                "DATABASE_URL",
	"database.host":               "DB_HOST",
	"database.port":               "DB_PORT",
	"database.user":               "DB_USER",
	"database.password":           "DB_PASSWORD",
	"database.name":               "DB_NAME",
	"database.sslmode":            "DB_SSLMODE",
	"database.schemas":            "DB_SCHEMAS",
	"database.maxconns":           "DB_MAX_CONNS",
	"database.connecttimeout":     "DB_CONNECT_TIMEOUT",
	"database.idletimeout":        "DB_IDLE_TIMEOUT",
	"database.selfheal":           "DB_SELF_HEAL",
	"database.automigrate":        "DB_AUTO_MIGRATE",
	"redis.url":                   "REDIS_URL",
	"smtp.host":                   "SMTP_HOST",
	"smtp.port":                   "SMTP_PORT",
	"smtp.username":               "SMTP_USERNAME",
	"smtp.password":               "SMTP_PASSWORD",
	"smtp.from":                   "SMTP_FROM",
	"verification.activationttl":  "ACTIVATION_TTL",
	"verification.resetttl":       "RESET_TTL",
	"verification.resendcooldown": "RESEND_COOLDOWN",
	"verification.tokenttl":       "TOKEN_TTL",
	"log.level":                   "LOG_LEVEL",
	"ratelimit.rps":               "RATE_LIMIT_RPS",
	"ratelimit.burst":             "RATE_LIMIT_BURST",
	"templates.dir":               "TEMPLATES_DIR",
	"templates.reload":            "TEMPLATES_RELOAD",
	"jwtsecret":                   "JWT_SECRET",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.trustproxy", false)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.schemas", []string{"joscity", "public"})
	v.SetDefault("database.maxconns", 10)
	v.SetDefault("database.connecttimeout", 10*time.Second)
	v.SetDefault("database.idletimeout", 30*time.Second)
	v.SetDefault("database.selfheal", false)
	v.SetDefault("database.automigrate", false)
	v.SetDefault("smtp.port", 465)
	v.SetDefault("verification.activationttl", 48*time.Hour)
	v.SetDefault("verification.resetttl", time.Hour)
	v.SetDefault("verification.resendcooldown", time.Minute)
	v.SetDefault("verification.tokenttl", 30*24*time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("ratelimit.rps", 5)
	v.SetDefault("ratelimit.burst", 10)
}

// Load creates a new Config object from the process environment,
// optionally seeded from a .env file in the working directory.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Printf("ℹ️ .env loaded into process environment via godotenv")
	}
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Database.Schemas = cleanSchemas(cfg.Database.Schemas)
	return &cfg, nil
}

// cleanSchemas splits comma lists that arrive as a single element and drops blanks.
func cleanSchemas(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, s := range strings.Split(item, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
