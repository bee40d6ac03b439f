// Package app wires the tokenauth binaries: process configuration from
// TOKENAUTH_* environment variables and flags, and the HTTP server.
package app

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/tokenauth"
	"github.com/MrEthical07/tokenauth/internal/telemetry"
	"github.com/caarlos0/env/v11"
)

// Config is the tokenauth-server process configuration.
type Config struct {
	HTTPAddr        string        `env:"TOKENAUTH_HTTP_ADDR"          envDefault:"localhost:8080"`
	ShutdownTimeout time.Duration `env:"TOKENAUTH_SHUTDOWN_TIMEOUT"   envDefault:"10s"`
	DatabaseDSN     string        `env:"TOKENAUTH_DATABASE_DSN"       envDefault:"file:tokenauth.db?cache=shared"`

	Strategy    string `env:"TOKENAUTH_STRATEGY"     envDefault:"opaque"`
	RedisAddr   string `env:"TOKENAUTH_REDIS_ADDR"   envDefault:"localhost:6379"`
	RedisPass   string `env:"TOKENAUTH_REDIS_PASSWORD"`
	RedisDB     int    `env:"TOKENAUTH_REDIS_DB"     envDefault:"0"`
	KeyPrefix   string `env:"TOKENAUTH_KEY_PREFIX"   envDefault:"oat"`
	Encoding    string `env:"TOKENAUTH_TOKEN_ENCODING" envDefault:"json"`
	TokenFormat string `env:"TOKENAUTH_TOKEN_FORMAT" envDefault:"random"`

	Secret        string        `env:"TOKENAUTH_SECRET"`
	SigningMethod string        `env:"TOKENAUTH_SIGNING_METHOD" envDefault:"hs256"`
	Issuer        string        `env:"TOKENAUTH_ISSUER"`
	Audience      string        `env:"TOKENAUTH_AUDIENCE"`
	Leeway        time.Duration `env:"TOKENAUTH_LEEWAY"         envDefault:"0s"`

	ThrottleEnabled     bool          `env:"TOKENAUTH_LOGIN_THROTTLE"        envDefault:"false"`
	ThrottleMaxAttempts int           `env:"TOKENAUTH_LOGIN_MAX_ATTEMPTS"    envDefault:"5"`
	ThrottleWindow      time.Duration `env:"TOKENAUTH_LOGIN_THROTTLE_WINDOW" envDefault:"15m"`
	ThrottlePerIP       bool          `env:"TOKENAUTH_LOGIN_THROTTLE_PER_IP" envDefault:"false"`

	AuditLog       bool   `env:"TOKENAUTH_AUDIT_LOG"       envDefault:"false"`
	MetricsEnabled bool   `env:"TOKENAUTH_METRICS_ENABLED" envDefault:"true"`
	OTelEndpoint   string `env:"TOKENAUTH_OTEL_ENDPOINT"`
	ServiceName    string `env:"TOKENAUTH_SERVICE_NAME"    envDefault:"tokenauth"`
}

// ParseConfig loads the environment, then applies flag overrides from
// args.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.Strategy, "strategy", cfg.Strategy, "token strategy: opaque or signed")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address for opaque tokens")
	fs.StringVar(&cfg.DatabaseDSN, "db", cfg.DatabaseDSN, "sqlite DSN of the users database")
	fs.BoolVar(&cfg.AuditLog, "audit-log", cfg.AuditLog, "write audit events to stdout as JSON lines")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.Strategy = strings.ToLower(strings.TrimSpace(cfg.Strategy))
	return cfg, nil
}

// EngineConfig translates cfg into the engine configuration.
func (c Config) EngineConfig() tokenauth.Config {
	out := tokenauth.DefaultConfig()
	out.Strategy = tokenauth.Strategy(c.Strategy)

	out.Opaque.KeyPrefix = c.KeyPrefix
	out.Opaque.Encoding = c.Encoding
	out.Opaque.TokenFormat = c.TokenFormat

	out.Signed.SigningMethod = c.SigningMethod
	out.Signed.Secret = []byte(c.Secret)
	out.Signed.Issuer = c.Issuer
	out.Signed.Audience = c.Audience
	out.Signed.Leeway = c.Leeway

	out.Throttle.Enabled = c.ThrottleEnabled
	out.Throttle.MaxAttempts = c.ThrottleMaxAttempts
	out.Throttle.Window = c.ThrottleWindow
	out.Throttle.PerIP = c.ThrottlePerIP

	out.Audit.Enabled = c.AuditLog
	out.Metrics.Enabled = c.MetricsEnabled
	out.Metrics.EnableLatencyHistograms = c.MetricsEnabled
	out.Tracing.Enabled = c.Telemetry().Enabled()
	return out
}

// Telemetry returns the tracer export settings.
func (c Config) Telemetry() telemetry.Config {
	return telemetry.Config{
		Endpoint:    c.OTelEndpoint,
		ServiceName: c.ServiceName,
	}
}
