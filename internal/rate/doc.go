// Package rate implements the Redis-backed failed-login throttle used by
// the tokenauth engine.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - lt:u:  failed logins per username
//   - lt:ip: failed logins per client IP
//
// Only the engine decides what counts as a failure; this package just
// counts.
package rate
