package tokenauth

import (
	"context"
	"errors"
	"testing"
)

func TestGetAuthenticatedUser(t *testing.T) {
	for _, strategy := range []Strategy{StrategyOpaque, StrategySigned} {
		t.Run(string(strategy), func(t *testing.T) {
			f := newFixture(t, strategy)
			token := f.login(t, "alice")

			user, err := f.engine.GetAuthenticatedUser(context.Background(), "Bearer "+token)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if user != (AuthenticatedUser{ID: "1", Username: "alice"}) {
				t.Fatalf("unexpected user %+v", user)
			}
		})
	}
}

func TestGetAuthenticatedUserDeletedAfterLogin(t *testing.T) {
	for _, strategy := range []Strategy{StrategyOpaque, StrategySigned} {
		t.Run(string(strategy), func(t *testing.T) {
			f := newFixture(t, strategy)
			token := f.login(t, "alice")
			f.users.remove("alice")

			if _, err := f.engine.ValidateToken(context.Background(), token); err != nil {
				t.Fatalf("token must stay valid after user removal: %v", err)
			}

			_, err := f.engine.GetAuthenticatedUser(context.Background(), token)
			if !IsValidationError(err) || !errors.Is(err, ErrUserNotFound) {
				t.Fatalf("expected ValidationError(ErrUserNotFound), got %v", err)
			}
			if got := f.engine.MetricsSnapshot().Counters[MetricUserResolveFailure]; got != 1 {
				t.Fatalf("expected one resolve failure, got %d", got)
			}
		})
	}
}

func TestGetAuthenticatedUserInvalidToken(t *testing.T) {
	f := newOpaqueFixture(t)

	_, err := f.engine.GetAuthenticatedUser(context.Background(), "missing")
	if !IsAuthenticationError(err) {
		t.Fatalf("expected AuthenticationError, got %v", err)
	}

	_, err = f.engine.GetAuthenticatedUser(context.Background(), "")
	if !IsValidationError(err) || !errors.Is(err, ErrTokenRequired) {
		t.Fatalf("expected ValidationError(ErrTokenRequired), got %v", err)
	}
}

func TestGetAuthenticatedUserReflectsCurrentRecord(t *testing.T) {
	f := newOpaqueFixture(t)
	token := f.login(t, "alice")

	f.users.mu.Lock()
	u := f.users.users["alice"]
	u.ID = "42"
	f.users.users["alice"] = u
	f.users.mu.Unlock()

	user, err := f.engine.GetAuthenticatedUser(context.Background(), token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if user.ID != "42" {
		t.Fatalf("expected current user id 42, got %q", user.ID)
	}
}
