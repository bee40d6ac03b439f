package tokenauth

import (
	"context"
	"errors"

	"github.com/MrEthical07/tokenauth/jwt"
)

// SignedIssuer issues self-contained HMAC-signed tokens. Validation needs
// no external state, so tokens cannot be revoked before they expire.
type SignedIssuer struct {
	manager *jwt.Manager
}

// NewSignedIssuer wraps a configured token manager.
func NewSignedIssuer(manager *jwt.Manager) (*SignedIssuer, error) {
	if manager == nil {
		return nil, errors.New("jwt manager required")
	}
	return &SignedIssuer{manager: manager}, nil
}

func (s *SignedIssuer) Strategy() Strategy { return StrategySigned }

// Issue signs {id, username} with an expiry of now+TTL. Both claims are
// required on validation, so a user without an ID gets no token.
func (s *SignedIssuer) Issue(_ context.Context, user User) (string, error) {
	if user.Username == "" {
		return "", validationErr(ErrUsernameRequired)
	}
	if user.ID == "" {
		return "", validationErr(ErrUserIDRequired)
	}
	return s.manager.Create(user.ID, user.Username)
}

// Validate verifies the signature and expiry of the token.
func (s *SignedIssuer) Validate(_ context.Context, raw string) (Claims, error) {
	token, err := ExtractToken(raw)
	if err != nil {
		return Claims{}, err
	}

	claims, err := s.manager.Parse(token)
	if err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			return Claims{}, authenticationErr(ErrTokenExpired, nil)
		}
		return Claims{}, authenticationErr(ErrTokenInvalid, err)
	}

	out := Claims{
		Subject:  claims.ID,
		Username: claims.Username,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// Revoke checks the input shape and otherwise does nothing: there is no
// server-side state to remove.
func (s *SignedIssuer) Revoke(_ context.Context, raw string) error {
	_, err := ExtractToken(raw)
	return err
}
