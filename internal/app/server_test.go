package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/MrEthical07/tokenauth"
	"github.com/MrEthical07/tokenauth/jwt"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg, err := ParseConfig(newFlagSet(), []string{"-db", ":memory:"})
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}
	return cfg
}

func seedUser(t *testing.T, srv *Server, username, raw string) {
	t.Helper()
	hash, err := cheapHash(raw)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if _, err := srv.Users.Create(context.Background(), username, hash); err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func TestServerOpaqueEndToEnd(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	var audit bytes.Buffer
	cfg := testConfig(t)
	cfg.AuditLog = true

	srv, err := NewServer(context.Background(), cfg, WithRedisClient(rdb), WithAuditOutput(&audit))
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	defer srv.Close()
	seedUser(t, srv, "alice", "secret123")

	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/auth/login", "application/json", strings.NewReader(`{"username":"alice","password":"secret123"}`))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	var tok tokenauth.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || tok.AccessToken == "" {
		t.Fatalf("login failed: %d %+v", resp.StatusCode, tok)
	}
	if ttl := mr.TTL("oat:" + tok.AccessToken); ttl != tokenauth.OpaqueTokenTTL {
		t.Fatalf("expected opaque TTL, got %v", ttl)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/auth/user", nil)
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("user: %v", err)
	}
	var user tokenauth.AuthenticatedUser
	_ = json.NewDecoder(resp.Body).Decode(&user)
	resp.Body.Close()
	if user.Username != "alice" || user.ID == "" {
		t.Fatalf("unexpected user %+v", user)
	}

	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	var metrics bytes.Buffer
	_, _ = metrics.ReadFrom(resp.Body)
	resp.Body.Close()
	if !strings.Contains(metrics.String(), "tokenauth_login_success_total 1") {
		t.Fatalf("expected login counter, got:\n%s", metrics.String())
	}

	resp, err = http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected healthy store, got %d", resp.StatusCode)
	}

	if !strings.Contains(audit.String(), `"event_type":"login_success"`) {
		t.Fatalf("expected audit log line, got %q", audit.String())
	}
}

func TestServerSignedNeedsNoRedis(t *testing.T) {
	cfg := testConfig(t)
	cfg.Strategy = "signed"
	cfg.Secret = strings.Repeat("s", 32)
	cfg.RedisAddr = "127.0.0.1:1"

	srv, err := NewServer(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	defer srv.Close()
	seedUser(t, srv, "bob", "secret123")

	resp, err := srv.Engine.Login(context.Background(), tokenauth.Credential{Username: "bob", Password: "secret123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if strings.Count(resp.AccessToken, ".") != 2 {
		t.Fatalf("expected signed token, got %q", resp.AccessToken)
	}
}

func TestServerRejectsWeakSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.Strategy = "signed"
	cfg.Secret = "short"

	_, err := NewServer(context.Background(), cfg)
	if !errors.Is(err, jwt.ErrSecretTooShort) || !strings.HasPrefix(err.Error(), "engine config:") {
		t.Fatalf("expected config validation to reject the secret, got %v", err)
	}
}

func TestServerValidatesBeforeLint(t *testing.T) {
	var logs bytes.Buffer
	log.SetOutput(&logs)
	defer log.SetOutput(os.Stderr)

	cfg := testConfig(t)
	cfg.Strategy = "session"

	if _, err := NewServer(context.Background(), cfg); err == nil {
		t.Fatal("expected unknown strategy to be rejected")
	}
	if strings.Contains(logs.String(), "config ") {
		t.Fatalf("lint must not run on an invalid config, got %q", logs.String())
	}
}

func TestServerLoginThrottle(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := testConfig(t)
	cfg.Strategy = "signed"
	cfg.Secret = strings.Repeat("s", 32)
	cfg.ThrottleEnabled = true
	cfg.ThrottleMaxAttempts = 1

	srv, err := NewServer(context.Background(), cfg, WithRedisClient(rdb))
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	defer srv.Close()
	seedUser(t, srv, "alice", "secret123")

	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	statuses := make([]int, 0, 2)
	for _, pw := range []string{"wrong", "secret123"} {
		resp, err := http.Post(ts.URL+"/api/auth/login", "application/json", strings.NewReader(`{"username":"alice","password":"`+pw+`"}`))
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		resp.Body.Close()
		statuses = append(statuses, resp.StatusCode)
	}
	if statuses[0] != http.StatusBadRequest || statuses[1] != http.StatusTooManyRequests {
		t.Fatalf("unexpected statuses %v", statuses)
	}
}
