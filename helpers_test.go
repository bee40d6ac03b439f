package tokenauth

import (
	"bytes"
	"context"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/tokenauth/password"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

var testSecret = []byte(strings.Repeat("k", 32))

type memoryUsers struct {
	mu    sync.RWMutex
	users map[string]User
	calls int
}

func newMemoryUsers(users ...User) *memoryUsers {
	m := &memoryUsers{users: make(map[string]User, len(users))}
	for _, u := range users {
		m.users[u.Username] = u
	}
	return m
}

func (m *memoryUsers) FindByUsername(_ context.Context, username string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	u, ok := m.users[username]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (m *memoryUsers) put(u User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.Username] = u
}

func (m *memoryUsers) remove(username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, username)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var (
	testHashesOnce sync.Once
	testArgonHash  string
	testBcryptHash string
	testVerifier   *password.Auto
)

// testHashes returns an argon2id and a bcrypt hash of "secret123" built
// with the cheapest allowed parameters.
func testHashes(t *testing.T) (string, string, *password.Auto) {
	t.Helper()

	testHashesOnce.Do(func() {
		argon, err := password.NewArgon2(password.Argon2Config{
			Memory:      8 * 1024,
			Time:        1,
			Parallelism: 1,
			SaltLength:  16,
			KeyLength:   32,
		})
		if err != nil {
			panic(err)
		}
		bc, err := password.NewBcrypt(bcrypt.MinCost)
		if err != nil {
			panic(err)
		}
		if testArgonHash, err = argon.Hash("secret123"); err != nil {
			panic(err)
		}
		if testBcryptHash, err = bc.Hash("secret123"); err != nil {
			panic(err)
		}
		testVerifier = password.NewAuto(argon, bc)
	})
	return testArgonHash, testBcryptHash, testVerifier
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

func aliceAndBob(t *testing.T) *memoryUsers {
	t.Helper()
	argonHash, bcryptHash, _ := testHashes(t)
	return newMemoryUsers(
		User{ID: "1", Username: "alice", PasswordHash: argonHash},
		User{ID: "2", Username: "bob", PasswordHash: bcryptHash},
	)
}

type engineFixture struct {
	engine *Engine
	mr     *miniredis.Miniredis
	users  *memoryUsers
	clock  *testClock
	sink   *ChannelSink
	logs   *bytes.Buffer
}

func newOpaqueFixture(t *testing.T, mutate ...func(*Config)) engineFixture {
	t.Helper()
	return newFixture(t, StrategyOpaque, mutate...)
}

func newSignedFixture(t *testing.T, mutate ...func(*Config)) engineFixture {
	t.Helper()
	return newFixture(t, StrategySigned, mutate...)
}

func newFixture(t *testing.T, strategy Strategy, mutate ...func(*Config)) engineFixture {
	t.Helper()

	_, _, verifier := testHashes(t)
	f := engineFixture{
		users: aliceAndBob(t),
		clock: newTestClock(),
		sink:  NewChannelSink(64),
		logs:  &bytes.Buffer{},
	}

	cfg := DefaultConfig()
	cfg.Strategy = strategy
	cfg.Signed.Secret = testSecret
	cfg.Audit.Enabled = true
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	for _, m := range mutate {
		m(&cfg)
	}

	b := New().
		WithConfig(cfg).
		WithUserStore(f.users).
		WithPasswordVerifier(verifier).
		WithAuditSink(f.sink).
		WithLogger(log.New(f.logs, "", 0)).
		WithClock(f.clock.Now)

	if strategy == StrategyOpaque || cfg.Throttle.Enabled {
		var rdb *redis.Client
		f.mr, rdb = newTestRedis(t)
		b = b.WithRedis(rdb)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	f.engine = engine
	return f
}

func (f engineFixture) login(t *testing.T, username string) string {
	t.Helper()
	resp, err := f.engine.Login(context.Background(), Credential{Username: username, Password: "secret123"})
	if err != nil {
		t.Fatalf("login %s: %v", username, err)
	}
	if resp.AccessToken == "" {
		t.Fatalf("login %s: empty token", username)
	}
	return resp.AccessToken
}

func (f engineFixture) drainAudit() []AuditEvent {
	var out []AuditEvent
	for {
		select {
		case ev := <-f.sink.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}
