package tokenauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/tokenauth/internal"
	"github.com/MrEthical07/tokenauth/internal/tokendata"
)

// OpaqueIssuer issues random identifiers whose meaning lives in a
// [TokenStore] entry that expires after the configured TTL. Revoking
// deletes the entry.
type OpaqueIssuer struct {
	store  TokenStore
	codec  tokendata.Codec
	prefix string
	format string
	ttl    time.Duration
}

// NewOpaqueIssuer binds store to the key layout, codec and lifetime in cfg.
func NewOpaqueIssuer(store TokenStore, cfg OpaqueConfig) (*OpaqueIssuer, error) {
	if store == nil {
		return nil, errors.New("token store required")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("opaque TTL must be > 0")
	}
	if !internal.ValidTokenFormat(cfg.TokenFormat) {
		return nil, fmt.Errorf("unsupported token format %q", cfg.TokenFormat)
	}
	codec, err := tokendata.ForName(cfg.Encoding)
	if err != nil {
		return nil, err
	}

	return &OpaqueIssuer{
		store:  store,
		codec:  codec,
		prefix: cfg.KeyPrefix,
		format: cfg.TokenFormat,
		ttl:    cfg.TTL,
	}, nil
}

func (o *OpaqueIssuer) Strategy() Strategy { return StrategyOpaque }

// Issue stores {username} under a fresh identifier and returns the
// identifier.
func (o *OpaqueIssuer) Issue(ctx context.Context, user User) (string, error) {
	if user.Username == "" {
		return "", validationErr(ErrUsernameRequired)
	}

	token, err := internal.NewOpaqueToken(o.format)
	if err != nil {
		return "", err
	}

	value, err := o.codec.Encode(tokendata.Data{Username: user.Username})
	if err != nil {
		return "", err
	}

	if err := o.store.Set(ctx, o.key(token), string(value), o.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Validate resolves the stored username. Store failures are returned as
// is; only a missing or undecodable entry is an authentication failure.
func (o *OpaqueIssuer) Validate(ctx context.Context, raw string) (Claims, error) {
	token, err := ExtractToken(raw)
	if err != nil {
		return Claims{}, err
	}

	value, found, err := o.store.Get(ctx, o.key(token))
	if err != nil {
		return Claims{}, err
	}
	if !found {
		return Claims{}, authenticationErr(ErrTokenInvalid, nil)
	}

	data, err := o.codec.Decode([]byte(value))
	if err != nil {
		return Claims{}, authenticationErr(ErrTokenDataCorrupt, nil)
	}

	return Claims{Username: data.Username}, nil
}

// Revoke deletes the entry. Revoking an unknown token succeeds.
func (o *OpaqueIssuer) Revoke(ctx context.Context, raw string) error {
	token, err := ExtractToken(raw)
	if err != nil {
		return err
	}
	return o.store.Delete(ctx, o.key(token))
}

func (o *OpaqueIssuer) key(token string) string {
	if o.prefix == "" {
		return token
	}
	return o.prefix + ":" + token
}
