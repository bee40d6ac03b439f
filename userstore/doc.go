// Package userstore provides tokenauth.UserStore implementations: an
// in-memory map for tests and tools, and a bun-backed SQL table.
//
// Both report a missing user by wrapping tokenauth.ErrUserNotFound.
package userstore
