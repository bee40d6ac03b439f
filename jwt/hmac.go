package jwt

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod names a supported HMAC algorithm.
type SigningMethod string

const (
	// MethodHS256 signs with HMAC-SHA256.
	MethodHS256 SigningMethod = "hs256"
	// MethodHS384 signs with HMAC-SHA384.
	MethodHS384 SigningMethod = "hs384"
	// MethodHS512 signs with HMAC-SHA512.
	MethodHS512 SigningMethod = "hs512"
)

// MinSecretLength is the minimum shared secret size in bytes (256 bits).
const MinSecretLength = 32

// ErrSecretTooShort is returned by NewHMACSigner for secrets below MinSecretLength.
var ErrSecretTooShort = fmt.Errorf("secret must be at least %d bytes", MinSecretLength)

// HMACSigner signs and verifies payloads with a shared secret loaded once
// at startup. It is safe for concurrent use.
type HMACSigner struct {
	method *jwt.SigningMethodHMAC
	secret []byte
}

// NewHMACSigner builds a signer for method keyed by secret. The secret is
// copied.
func NewHMACSigner(method SigningMethod, secret []byte) (*HMACSigner, error) {
	m, err := hmacMethod(method)
	if err != nil {
		return nil, err
	}
	if len(secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}

	key := make([]byte, len(secret))
	copy(key, secret)
	return &HMACSigner{method: m, secret: key}, nil
}

// Alg returns the JOSE algorithm name written into token headers.
func (s *HMACSigner) Alg() string {
	return s.method.Alg()
}

// Sign returns the MAC of payload.
func (s *HMACSigner) Sign(payload []byte) ([]byte, error) {
	return s.method.Sign(string(payload), s.secret)
}

// Verify reports whether signature is the MAC of payload. The comparison
// is constant time.
func (s *HMACSigner) Verify(payload, signature []byte) bool {
	return s.method.Verify(string(payload), signature, s.secret) == nil
}

func hmacMethod(method SigningMethod) (*jwt.SigningMethodHMAC, error) {
	switch method {
	case MethodHS256, "":
		return jwt.SigningMethodHS256, nil
	case MethodHS384:
		return jwt.SigningMethodHS384, nil
	case MethodHS512:
		return jwt.SigningMethodHS512, nil
	default:
		return nil, errors.New("unsupported signing method")
	}
}
