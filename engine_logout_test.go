package tokenauth

import (
	"context"
	"errors"
	"testing"
)

func TestLogoutOpaqueRevokes(t *testing.T) {
	f := newOpaqueFixture(t)
	token := f.login(t, "alice")

	if err := f.engine.Logout(context.Background(), "Bearer "+token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if f.mr.Exists("oat:" + token) {
		t.Fatal("expected store entry to be deleted")
	}

	_, err := f.engine.ValidateToken(context.Background(), token)
	if !IsAuthenticationError(err) {
		t.Fatalf("expected AuthenticationError after logout, got %v", err)
	}
}

func TestLogoutOpaqueIsIdempotent(t *testing.T) {
	f := newOpaqueFixture(t)
	token := f.login(t, "alice")

	for i := 0; i < 2; i++ {
		if err := f.engine.Logout(context.Background(), token); err != nil {
			t.Fatalf("logout %d: %v", i, err)
		}
	}
	if err := f.engine.Logout(context.Background(), "never-issued"); err != nil {
		t.Fatalf("logout of unknown token: %v", err)
	}
	if got := f.engine.MetricsSnapshot().Counters[MetricLogout]; got != 3 {
		t.Fatalf("expected 3 logouts, got %d", got)
	}
}

func TestLogoutOnlyRevokesItsOwnToken(t *testing.T) {
	f := newOpaqueFixture(t)
	first := f.login(t, "alice")
	second := f.login(t, "alice")

	if err := f.engine.Logout(context.Background(), first); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := f.engine.ValidateToken(context.Background(), second); err != nil {
		t.Fatalf("expected second session to survive: %v", err)
	}
}

func TestLogoutSignedIsNoOp(t *testing.T) {
	f := newSignedFixture(t)
	token := f.login(t, "alice")

	if err := f.engine.Logout(context.Background(), token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := f.engine.ValidateToken(context.Background(), token); err != nil {
		t.Fatalf("signed token stays valid until expiry: %v", err)
	}
}

func TestLogoutEmptyToken(t *testing.T) {
	for _, strategy := range []Strategy{StrategyOpaque, StrategySigned} {
		f := newFixture(t, strategy)
		err := f.engine.Logout(context.Background(), " ")
		if !IsValidationError(err) || !errors.Is(err, ErrTokenRequired) {
			t.Fatalf("%s: expected ValidationError(ErrTokenRequired), got %v", strategy, err)
		}
	}
}

func TestNilEngineNotReady(t *testing.T) {
	var e *Engine
	if _, err := e.Login(context.Background(), Credential{}); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if err := e.Logout(context.Background(), "x"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if e.Strategy() != "" || e.AuditDropped() != 0 {
		t.Fatal("expected nil engine accessors to be inert")
	}
}
