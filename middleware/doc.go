// Package middleware exposes an HTTP guard that resolves the authenticated
// user from the Authorization header before calling the next handler.
//
// # Guards
//
//   - [Guard] works with any [Authenticator]: a local tokenauth.Engine or a
//     remote authclient.Client.
//
// The resolved tokenauth.AuthenticatedUser is stored in the request context
// and read back with [UserFromContext].
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Authenticator calls. It does
// not parse tokens or touch a token store itself.
package middleware
