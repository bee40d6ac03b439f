// Package httpapi serves the token endpoints over net/http:
//
//	POST /api/auth/login           JSON {"username","password"} -> {"accessToken"}
//	POST /api/auth/token/validate  Authorization header -> {"accessToken"}
//	POST /api/auth/logout          Authorization header -> 200
//	GET  /api/auth/user            Authorization header -> {"id","username"}
//	GET  /healthz                  token store reachability
//
// Failures answer {"status","message"}: validation errors map to 400,
// authentication errors to 401 and everything else to 500.
package httpapi
