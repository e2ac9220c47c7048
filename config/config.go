// Package config loads service settings from .env files and the process
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env       string `env:"APP_ENV" env-default:"local"`
	HTTPAddr  string `env:"APP_ADDR" env-default:":3000"`
	APIPrefix string `env:"API_PREFIX" env-default:"/api"`

	Database Database
	Session  Session
	Tokens   Tokens
	SendGrid SendGrid
	Client   Client
	Redis    Redis
	NATS     NATS
}

type Database struct {
	Driver         string        `env:"DATABASE_DRIVER" env-default:"sqlite"`
	DSN            string        `env:"DATABASE_DSN" env-default:"file:account.db?cache=shared"`
	Migrate        bool          `env:"DATABASE_MIGRATE" env-default:"true"`
	Debug          bool          `env:"DATABASE_DEBUG" env-default:"false"`
	PingTimeout    time.Duration `env:"DATABASE_PING_TIMEOUT" env-default:"5s"`
	OtelIdentifier string        `env:"DATABASE_OTEL_IDENTIFIER" env-default:"account"`
}

func (d Database) GetDebug() bool                { return d.Debug }
func (d Database) GetDriver() string             { return d.Driver }
func (d Database) GetServer() string             { return d.DSN }
func (d Database) GetPingTimeout() time.Duration { return d.PingTimeout }
func (d Database) GetOtelIdentifier() string     { return d.OtelIdentifier }

type Session struct {
	Secret    string        `env:"JWT_SECRET"`
	ExpiresIn time.Duration `env:"JWT_EXPIRES_IN" env-default:"2h"`
	Issuer    string        `env:"JWT_ISSUER" env-default:"go-account"`
}

type Tokens struct {
	ConfirmTTL time.Duration `env:"CONFIRM_TOKEN_TTL" env-default:"24h"`
	ResetTTL   time.Duration `env:"RESET_TOKEN_TTL" env-default:"1h"`
	BcryptCost int           `env:"BCRYPT_COST" env-default:"10"`
	UseHashid  bool          `env:"USER_HASHID_IDS" env-default:"false"`
}

type SendGrid struct {
	APIKey            string `env:"SENDGRID_API_KEY"`
	Host              string `env:"SENDGRID_HOST" env-default:"https://api.sendgrid.com"`
	FromEmail         string `env:"SENDGRID_FROM_EMAIL" env-default:"no-reply@localhost"`
	FromName          string `env:"SENDGRID_FROM_NAME" env-default:"Accounts"`
	ConfirmTemplateID string `env:"SENDGRID_CONFIRM_TEMPLATE_ID"`
	ResetTemplateID   string `env:"SENDGRID_RESET_TEMPLATE_ID"`
}

type Client struct {
	URL string `env:"FRONTEND_URL" env-default:"http://localhost:4200"`
}

type Redis struct {
	Addr       string        `env:"REDIS_ADDR"`
	Password   string        `env:"REDIS_PASSWORD"`
	DB         int           `env:"REDIS_DB" env-default:"0"`
	RateMax    int           `env:"RATE_LIMIT_MAX" env-default:"5"`
	RateWindow time.Duration `env:"RATE_LIMIT_WINDOW" env-default:"15m"`
	RatePrefix string        `env:"RATE_LIMIT_PREFIX" env-default:"account"`
	FailOpen   bool          `env:"RATE_LIMIT_FAIL_OPEN" env-default:"true"`
}

type NATS struct {
	URL           string `env:"NATS_URL"`
	SubjectPrefix string `env:"NATS_SUBJECT_PREFIX" env-default:"account.activity"`
}

// Load reads files into the environment, without overriding variables that
// are already set, then parses the environment. Missing files are skipped.
func Load(files ...string) (*Config, error) {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks settings that have no usable default
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Session.Secret) == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}

	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unsupported DATABASE_DRIVER %q", c.Database.Driver))
	}

	if c.SendGrid.APIKey != "" && (c.SendGrid.ConfirmTemplateID == "" || c.SendGrid.ResetTemplateID == "") {
		errs = append(errs, errors.New("SENDGRID_CONFIRM_TEMPLATE_ID and SENDGRID_RESET_TEMPLATE_ID are required with SENDGRID_API_KEY"))
	}

	return errors.Join(errs...)
}

// IsProduction reports whether APP_ENV is production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Redacted returns a copy safe to log
func (c Config) Redacted() Config {
	c.Session.Secret = mask(c.Session.Secret)
	c.SendGrid.APIKey = mask(c.SendGrid.APIKey)
	c.Redis.Password = mask(c.Redis.Password)
	return c
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}

func (c *Config) GetSigningKey() string             { return c.Session.Secret }
func (c *Config) GetTokenExpiration() time.Duration { return c.Session.ExpiresIn }
func (c *Config) GetIssuer() string                 { return c.Session.Issuer }
func (c *Config) GetConfirmTokenTTL() time.Duration { return c.Tokens.ConfirmTTL }
func (c *Config) GetResetTokenTTL() time.Duration   { return c.Tokens.ResetTTL }
func (c *Config) GetPasswordHashCost() int          { return c.Tokens.BcryptCost }
func (c *Config) GetUseHashid() bool                { return c.Tokens.UseHashid }
