package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed is returned when a token cannot be split or decoded.
	ErrMalformed = errors.New("token malformed")
	// ErrSignatureInvalid is returned when the MAC does not match the signing input.
	ErrSignatureInvalid = errors.New("token signature invalid")
	// ErrExpired is returned when the token is past its expiration instant.
	ErrExpired = errors.New("token expired")
	// ErrClaimsInvalid is returned when registered or identity claims fail validation.
	ErrClaimsInvalid = errors.New("token claims invalid")
)

// Signer produces and checks a MAC over the JWS signing input.
type Signer interface {
	Sign(payload []byte) ([]byte, error)
	Verify(payload, signature []byte) bool
}

// Config defines a public type used by tokenauth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	// TTL is added to the issue instant to produce "exp".
	TTL time.Duration
	// Alg is the JOSE header algorithm. When empty it is taken from the
	// signer if it exposes Alg(), otherwise HS256.
	Alg      string
	Issuer   string
	Audience string
	Leeway   time.Duration
	// Now is the clock used for "iat", "exp" and validation. Defaults to time.Now.
	Now func() time.Time
}

// Claims is the payload carried by a signed access token.
type Claims struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Manager encodes and verifies signed access tokens. Signing and
// verification go through the injected [Signer]; golang-jwt supplies the
// compact encoding and registered-claim validation.
//
// Manager holds no mutable state and is safe for concurrent use.
type Manager struct {
	config    Config
	method    jwt.SigningMethod
	signer    Signer
	validator *jwt.Validator
	parser    *jwt.Parser
}

// NewManager validates cfg and returns a Manager bound to signer.
func NewManager(cfg Config, signer Signer) (*Manager, error) {
	if signer == nil {
		return nil, errors.New("signer required")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)
	cfg.Audience = strings.TrimSpace(cfg.Audience)

	if cfg.Alg == "" {
		if named, ok := signer.(interface{ Alg() string }); ok {
			cfg.Alg = named.Alg()
		} else {
			cfg.Alg = jwt.SigningMethodHS256.Alg()
		}
	}
	method := jwt.GetSigningMethod(cfg.Alg)
	if method == nil {
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.Alg)
	}

	options := []jwt.ParserOption{
		jwt.WithTimeFunc(cfg.Now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if cfg.Leeway > 0 {
		options = append(options, jwt.WithLeeway(cfg.Leeway))
	}
	if cfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		options = append(options, jwt.WithAudience(cfg.Audience))
	}

	return &Manager{
		config:    cfg,
		method:    method,
		signer:    signer,
		validator: jwt.NewValidator(options...),
		parser:    jwt.NewParser(),
	}, nil
}

// TTL returns the configured token lifetime.
func (m *Manager) TTL() time.Duration {
	return m.config.TTL
}

// Create signs a token for the given subject id and username, valid from
// now until now+TTL.
func (m *Manager) Create(id, username string) (string, error) {
	now := m.config.Now()

	claims := Claims{
		ID:       id,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
			Issuer:    m.config.Issuer,
		},
	}
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}

	token := jwt.NewWithClaims(m.method, claims)
	signingInput, err := token.SigningString()
	if err != nil {
		return "", err
	}

	signature, err := m.signer.Sign([]byte(signingInput))
	if err != nil {
		return "", err
	}

	return signingInput + "." + token.EncodeSegment(signature), nil
}

// Parse verifies the signature of tokenStr and validates its claims.
// The returned error wraps one of ErrMalformed, ErrSignatureInvalid,
// ErrExpired or ErrClaimsInvalid.
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, parts, err := m.parser.ParseUnverified(tokenStr, claims)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if token.Method == nil || token.Method.Alg() != m.method.Alg() {
		return nil, fmt.Errorf("%w: unexpected signing algorithm", ErrMalformed)
	}

	signature, err := m.parser.DecodeSegment(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !m.signer.Verify([]byte(parts[0]+"."+parts[1]), signature) {
		return nil, ErrSignatureInvalid
	}

	if err := m.validator.Validate(claims); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrClaimsInvalid, err)
	}
	if claims.ID == "" || claims.Username == "" {
		return nil, fmt.Errorf("%w: missing identity claims", ErrClaimsInvalid)
	}

	return claims, nil
}
