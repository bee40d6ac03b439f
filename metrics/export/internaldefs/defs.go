package internaldefs

import (
	"github.com/MrEthical07/tokenauth"
)

// CounterDef names one engine counter.
type CounterDef struct {
	ID   tokenauth.MetricID
	Name string
	Help string
}

// HistogramDef names one engine latency histogram.
type HistogramDef struct {
	ID   tokenauth.MetricID
	Name string
	Help string
}

const (
	// AuditDroppedName is the counter for events a full audit sink discarded.
	AuditDroppedName = "tokenauth_audit_dropped_total"
	AuditDroppedHelp = "Audit events dropped because the sink buffer was full."
)

var CounterDefs = []CounterDef{
	{ID: tokenauth.MetricLoginSuccess, Name: "tokenauth_login_success_total", Help: "Logins that issued a token."},
	{ID: tokenauth.MetricLoginFailure, Name: "tokenauth_login_failure_total", Help: "Logins rejected for bad input or credentials."},
	{ID: tokenauth.MetricTokenIssued, Name: "tokenauth_token_issued_total", Help: "Access tokens issued."},
	{ID: tokenauth.MetricValidateSuccess, Name: "tokenauth_validate_success_total", Help: "Tokens that passed validation."},
	{ID: tokenauth.MetricValidateFailure, Name: "tokenauth_validate_failure_total", Help: "Tokens rejected by validation."},
	{ID: tokenauth.MetricUserResolved, Name: "tokenauth_user_resolved_total", Help: "Tokens resolved to a current user."},
	{ID: tokenauth.MetricUserResolveFailure, Name: "tokenauth_user_resolve_failure_total", Help: "Failed user resolutions."},
	{ID: tokenauth.MetricLogout, Name: "tokenauth_logout_total", Help: "Accepted logout calls."},
	{ID: tokenauth.MetricBackendError, Name: "tokenauth_backend_error_total", Help: "Token or user store failures."},
}

var HistogramDefs = []HistogramDef{
	{ID: tokenauth.MetricValidateLatency, Name: "tokenauth_validate_latency_seconds", Help: "Token validation latency."},
	{ID: tokenauth.MetricLoginLatency, Name: "tokenauth_login_latency_seconds", Help: "Login latency, password hashing included."},
}

// HistogramBounds are the "le" labels, in seconds, of the engine buckets.
var HistogramBounds = [8]string{"0.005", "0.01", "0.025", "0.05", "0.1", "0.25", "0.5", "+Inf"}

// Cumulative turns a snapshot's per-bucket counts into running totals per
// bound. Missing buckets count as zero.
func Cumulative(raw []uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := range out {
		if i < len(raw) {
			running += raw[i]
		}
		out[i] = running
	}
	return out
}
