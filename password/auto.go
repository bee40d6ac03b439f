package password

import (
	"errors"
	"strings"
)

var (
	// ErrMalformedHash is returned when a stored hash cannot be parsed.
	ErrMalformedHash = errors.New("malformed password hash")
	// ErrEmptyPassword is returned when hashing an empty password.
	ErrEmptyPassword = errors.New("password must not be empty")
)

// Auto verifies stored hashes of any supported scheme by inspecting the
// hash prefix, and hashes new passwords with Argon2id.
type Auto struct {
	argon2 *Argon2
	bcrypt *Bcrypt
}

// NewAuto builds an Auto verifier from argon and bc. Either may be nil, in
// which case hashes of that scheme never match.
func NewAuto(argon *Argon2, bc *Bcrypt) *Auto {
	return &Auto{argon2: argon, bcrypt: bc}
}

// Default returns an Auto with DefaultArgon2Config and DefaultBcryptCost.
func Default() *Auto {
	argon, err := NewArgon2(DefaultArgon2Config())
	if err != nil {
		panic(err)
	}
	bc, err := NewBcrypt(DefaultBcryptCost)
	if err != nil {
		panic(err)
	}
	return NewAuto(argon, bc)
}

// Hash hashes password with Argon2id, or bcrypt when no Argon2 hasher is set.
func (a *Auto) Hash(password string) (string, error) {
	if a.argon2 != nil {
		return a.argon2.Hash(password)
	}
	if a.bcrypt != nil {
		return a.bcrypt.Hash(password)
	}
	return "", errors.New("no password hasher configured")
}

// Matches reports whether rawPassword matches storedHash. Unknown schemes
// and malformed hashes never match.
func (a *Auto) Matches(rawPassword, storedHash string) bool {
	switch {
	case strings.HasPrefix(storedHash, argon2Prefix):
		return a.argon2 != nil && a.argon2.Matches(rawPassword, storedHash)
	case isBcrypt(storedHash):
		return a.bcrypt != nil && a.bcrypt.Matches(rawPassword, storedHash)
	default:
		return false
	}
}
