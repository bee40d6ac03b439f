// Package tokenauth authenticates users by username and password and issues
// access tokens with one of two interchangeable strategies:
//
//   - opaque: a random identifier mapped to {username} in Redis for 24h,
//     revocable by deleting the key;
//   - signed: an HMAC-signed JWT carrying {id, username, exp}, verified
//     without any lookup and not revocable.
//
// The strategy is fixed when the [Engine] is built:
//
//	engine, err := tokenauth.New().
//		WithConfig(cfg).
//		WithRedis(rdb).
//		WithUserStore(users).
//		Build()
//
// # Errors
//
// Caller mistakes (missing username, password or token, unknown user,
// wrong password) are *[ValidationError]. Tokens that are present but
// unknown, expired, tampered or undecodable are *[AuthenticationError].
// Anything else is a collaborator failure and is returned wrapped.
//
// # What this package must NOT do
//
//   - Issue a token before the password has been verified.
//   - Start background goroutines.
//   - Import a sub-package that re-imports tokenauth.
package tokenauth
