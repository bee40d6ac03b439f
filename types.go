package tokenauth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Strategy selects the token representation an [Engine] issues.
type Strategy string

const (
	// StrategyOpaque issues random identifiers backed by a [TokenStore] entry.
	StrategyOpaque Strategy = "opaque"
	// StrategySigned issues self-contained HMAC-signed tokens.
	StrategySigned Strategy = "signed"
)

const (
	// OpaqueTokenTTL is the lifetime of an opaque token store entry (86400 seconds).
	OpaqueTokenTTL = 24 * time.Hour
	// SignedTokenTTL is the validity window embedded in signed tokens.
	SignedTokenTTL = 24 * time.Hour
)

// User is the identity record owned by a [UserStore]. The engine never
// mutates it.
type User struct {
	ID           string
	Username     string
	PasswordHash string
}

// Credential is the transient login input. It is never persisted.
type Credential struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks the credential shape. Only the username is checked here;
// the password is checked after the user lookup so a missing user is
// reported first.
func (c Credential) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Username, validation.Required, validation.Length(1, 255)),
	)
}

// Claims describes the authenticated subject recovered from a token.
// Opaque tokens only carry Username; signed tokens carry all fields.
type Claims struct {
	Subject   string
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenResponse is the envelope returned by [Engine.Login] and
// [Engine.ValidateToken].
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// AuthenticatedUser is returned by [Engine.GetAuthenticatedUser].
type AuthenticatedUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// UserStore resolves user records by username. Implementations return
// [ErrUserNotFound] (possibly wrapped) when no record matches.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (User, error)
}

// PasswordVerifier checks a raw password against a stored one-way hash.
// A malformed hash is reported as a mismatch.
type PasswordVerifier interface {
	Matches(rawPassword, storedHash string) bool
}

// TokenStore is a key-value store with per-key expiration. It is used only
// by the opaque strategy. Each call is atomic at key granularity and a Set
// must be visible to a subsequent Get from any caller.
type TokenStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
}

// Signer produces and checks a MAC over a byte payload with a process-wide
// shared secret. It is used only by the signed strategy.
type Signer interface {
	Sign(payload []byte) ([]byte, error)
	Verify(payload, signature []byte) bool
}

// TokenIssuer is the capability both token strategies implement.
//
// Validate fails with *AuthenticationError when the token is absent,
// malformed, expired or fails verification, and with *ValidationError when
// the input is empty. Revoke is a no-op for stateless tokens.
type TokenIssuer interface {
	Strategy() Strategy
	Issue(ctx context.Context, user User) (string, error)
	Validate(ctx context.Context, token string) (Claims, error)
	Revoke(ctx context.Context, token string) error
}
