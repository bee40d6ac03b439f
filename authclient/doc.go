// Package authclient lets a downstream service check access tokens against
// a remote tokenauth server instead of holding the token store or secret
// itself.
//
// Every failure, including transport errors and non-200 answers, is
// reported as a *tokenauth.AuthenticationError. A *Client satisfies
// middleware.Authenticator.
package authclient
