package tokenauth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/tokenauth/internal"
	"github.com/MrEthical07/tokenauth/internal/tokendata"
	"github.com/MrEthical07/tokenauth/jwt"
)

// Config selects the token strategy and tunes every engine component.
//
// Config instances are intended to be configured during initialization and then treated as immutable.
type Config struct {
	Strategy Strategy
	Opaque   OpaqueConfig
	Signed   SignedConfig
	Password PasswordConfig
	Throttle ThrottleConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
	Tracing  TracingConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// OpaqueConfig tunes the stateful strategy.
type OpaqueConfig struct {
	TTL         time.Duration
	KeyPrefix   string // store key is "<KeyPrefix>:<token>"; empty means the bare token
	Encoding    string // "json" (default), "msgpack" or "binary"
	TokenFormat string // "random" (default) or "uuid"
}

// SignedConfig tunes the stateless strategy.
type SignedConfig struct {
	TTL           time.Duration
	SigningMethod string // "hs256" (default), "hs384" or "hs512"
	Secret        []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds the cost parameters of the default
// [PasswordVerifier]. Stored hashes are verified with their own embedded
// parameters; these only bound what tokenauth-useradd writes.
type PasswordConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	BcryptCost  int
}

// ThrottleConfig limits failed logins per username, and optionally per
// client IP, in fixed Redis windows. It needs a Redis client even under the
// signed strategy.
type ThrottleConfig struct {
	Enabled     bool
	MaxAttempts int
	Window      time.Duration
	PerIP       bool
}

/*
====================================
OBSERVABILITY CONFIG
====================================
*/

// AuditConfig enables synchronous audit emission to the builder's sink.
type AuditConfig struct {
	Enabled bool
}

// MetricsConfig enables the in-process counters and histograms.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// TracingConfig enables per-operation spans on the configured
// TracerProvider (the otel global provider by default).
type TracingConfig struct {
	Enabled    bool
	TracerName string
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the configuration used by [New]: opaque tokens with
// a 24h lifetime, JSON token data and observability switched off.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Strategy: StrategyOpaque,
		Opaque: OpaqueConfig{
			TTL:         OpaqueTokenTTL,
			KeyPrefix:   "oat",
			Encoding:    tokendata.EncodingJSON,
			TokenFormat: internal.TokenFormatRandom,
		},
		Signed: SignedConfig{
			TTL:           SignedTokenTTL,
			SigningMethod: string(jwt.MethodHS256),
			Leeway:        0,
		},
		Password: PasswordConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
			BcryptCost:  14,
		},
		Throttle: ThrottleConfig{
			Enabled:     false,
			MaxAttempts: 5,
			Window:      15 * time.Minute,
			PerIP:       false,
		},
		Audit: AuditConfig{
			Enabled: false,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Tracing: TracingConfig{
			Enabled:    false,
			TracerName: "github.com/MrEthical07/tokenauth",
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Signed.Secret = cloneBytes(cfg.Signed.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first structural problem in c. Secrets are only
// checked for the strategy that uses them.
func (c *Config) Validate() error {
	switch c.Strategy {
	case StrategyOpaque:
		if c.Opaque.TTL <= 0 {
			return errors.New("Opaque TTL must be > 0")
		}
		if strings.ContainsAny(c.Opaque.KeyPrefix, " \t\r\n") {
			return errors.New("Opaque KeyPrefix must not contain whitespace")
		}
		if _, err := tokendata.ForName(c.Opaque.Encoding); err != nil {
			return fmt.Errorf("Opaque Encoding: %w", err)
		}
		if !internal.ValidTokenFormat(c.Opaque.TokenFormat) {
			return fmt.Errorf("Opaque TokenFormat %q is not supported", c.Opaque.TokenFormat)
		}
	case StrategySigned:
		if c.Signed.TTL <= 0 {
			return errors.New("Signed TTL must be > 0")
		}
		switch jwt.SigningMethod(strings.ToLower(c.Signed.SigningMethod)) {
		case jwt.MethodHS256, jwt.MethodHS384, jwt.MethodHS512, "":
		default:
			return fmt.Errorf("Signed SigningMethod %q is not supported", c.Signed.SigningMethod)
		}
		if n := len(c.Signed.Secret); n > 0 && n < jwt.MinSecretLength {
			return jwt.ErrSecretTooShort
		}
		if c.Signed.Leeway < 0 || c.Signed.Leeway > 2*time.Minute {
			return errors.New("Signed Leeway must be within [0, 2m]")
		}
	default:
		return fmt.Errorf("unknown strategy %q", c.Strategy)
	}

	if c.Password.BcryptCost < 0 {
		return errors.New("Password BcryptCost must be >= 0")
	}
	if c.Throttle.Enabled {
		if c.Throttle.MaxAttempts <= 0 {
			return errors.New("Throttle MaxAttempts must be > 0")
		}
		if c.Throttle.Window <= 0 {
			return errors.New("Throttle Window must be > 0")
		}
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}
	if c.Tracing.Enabled && strings.TrimSpace(c.Tracing.TracerName) == "" {
		return errors.New("Tracing TracerName must be set when tracing is enabled")
	}

	return nil
}
