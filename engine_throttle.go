package tokenauth

import (
	"context"
	"errors"

	"github.com/MrEthical07/tokenauth/internal/rate"
)

type loginThrottle interface {
	Check(ctx context.Context, username, ip string) error
	RecordFailure(ctx context.Context, username, ip string) error
	Reset(ctx context.Context, username string) error
}

func (e *Engine) checkThrottle(ctx context.Context, username string) error {
	if e.throttle == nil || username == "" {
		return nil
	}

	err := e.throttle.Check(ctx, username, clientIPFromContext(ctx))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rate.ErrRateLimited):
		return validationErr(ErrLoginThrottled)
	default:
		e.backendFailed("check login throttle", err)
		return err
	}
}

// Counter updates are best effort; failures are logged and counted only.
func (e *Engine) recordThrottleFailure(ctx context.Context, username string) {
	if e.throttle == nil || username == "" {
		return
	}
	if err := e.throttle.RecordFailure(ctx, username, clientIPFromContext(ctx)); err != nil {
		e.backendFailed("record login failure", err)
	}
}

func (e *Engine) resetThrottle(ctx context.Context, username string) {
	if e.throttle == nil {
		return
	}
	if err := e.throttle.Reset(ctx, username); err != nil {
		e.backendFailed("reset login throttle", err)
	}
}
