// Package tokenstore provides the Redis key-value store behind opaque tokens.
//
// Each method issues a single command (SET EX, GET or DEL), so every call is
// atomic per key and expiry is left to Redis. Keys are used as given; the
// caller owns the namespace.
//
// # What this package must NOT do
//
//   - Decode stored values.
//   - Import tokenauth.
package tokenstore
