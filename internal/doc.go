// Package internal holds helpers private to tokenauth: opaque token
// identifier generation.
//
// # Sub-packages
//
//   - tokendata: codecs for the value stored under an opaque token
//   - telemetry: OTLP tracer provider setup for the binaries
//   - rate: Redis fixed-window counters for the failed-login throttle
//   - app: process configuration and server wiring for the binaries
//
// # What this package must NOT do
//
//   - Export types that appear in the public tokenauth API.
package internal
