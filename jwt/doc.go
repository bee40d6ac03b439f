// Package jwt encodes and verifies the stateless access tokens issued by the
// signed strategy.
//
// Tokens are compact JWS values whose MAC is produced by an injected [Signer];
// [HMACSigner] is the default signer over a shared secret. golang-jwt supplies
// the segment encoding and the registered-claim validator, with the clock
// injectable through [Config.Now].
//
// # What this package must NOT do
//
//   - Import tokenauth or any sibling package.
//   - Consult external state while verifying a token.
package jwt
