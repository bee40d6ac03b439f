package tokenauth

import (
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/tokenauth/internal"
)

// LintSeverity ranks a configuration warning.
type LintSeverity int

const (
	// LintInfo marks a choice worth knowing about.
	LintInfo LintSeverity = iota
	// LintWarn marks a setting that weakens security or operability.
	LintWarn
	// LintHigh marks a setting that should not reach production.
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return fmt.Sprintf("LintSeverity(%d)", int(s))
	}
}

// LintWarning is one advisory finding. Lint never rejects a config;
// Validate does.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintWarnings is the result of [Config.Lint].
type LintWarnings []LintWarning

// Codes returns the warning codes in report order.
func (ws LintWarnings) Codes() []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}

// BySeverity returns the warnings at or above min.
func (ws LintWarnings) BySeverity(min LintSeverity) LintWarnings {
	var out LintWarnings
	for _, w := range ws {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError folds the warnings at or above min into one error, or returns nil.
func (ws LintWarnings) AsError(min LintSeverity) error {
	selected := ws.BySeverity(min)
	if len(selected) == 0 {
		return nil
	}
	parts := make([]string, 0, len(selected))
	for _, w := range selected {
		parts = append(parts, fmt.Sprintf("[%s] %s: %s", w.Severity, w.Code, w.Message))
	}
	return fmt.Errorf("config lint: %s", strings.Join(parts, "; "))
}

// Lint reports advisory findings for c. It assumes c already passed Validate.
func (c *Config) Lint() LintWarnings {
	var ws LintWarnings
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	switch c.Strategy {
	case StrategyOpaque:
		if c.Opaque.TTL > OpaqueTokenTTL {
			add("opaque_ttl_long", LintWarn, "opaque tokens live longer than 24h")
		}
		if c.Opaque.TokenFormat == internal.TokenFormatUUID {
			add("uuid_token_format", LintInfo, "uuid tokens carry 122 random bits instead of 256")
		}
		if c.Opaque.KeyPrefix == "" {
			add("key_prefix_empty", LintInfo, "opaque keys share the root Redis namespace")
		}
	case StrategySigned:
		if c.Signed.TTL > SignedTokenTTL {
			add("signed_ttl_long", LintHigh, "signed tokens cannot be revoked and live longer than 24h")
		}
		if c.Signed.Leeway > 30*time.Second {
			add("leeway_large", LintWarn, "expiry leeway above 30s")
		}
		if c.Signed.Issuer == "" {
			add("issuer_unset", LintInfo, "signed tokens carry no issuer claim")
		}
	}

	if c.Password.Memory < 64*1024 {
		add("argon2_memory_low", LintWarn, "argon2 memory below 64 MB")
	}
	if c.Password.BcryptCost != 0 && c.Password.BcryptCost < 12 {
		add("bcrypt_cost_low", LintWarn, "bcrypt cost below 12")
	}
	if !c.Throttle.Enabled {
		add("throttle_disabled", LintInfo, "failed logins are not rate limited")
	} else if c.Throttle.MaxAttempts > 20 {
		add("throttle_budget_high", LintWarn, "more than 20 failed logins allowed per window")
	}
	if !c.Audit.Enabled {
		add("audit_disabled", LintInfo, "audit events are not emitted")
	}

	return ws
}
