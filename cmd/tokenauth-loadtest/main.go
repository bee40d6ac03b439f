package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/tokenauth"
	"github.com/MrEthical07/tokenauth/password"
	"github.com/MrEthical07/tokenauth/userstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const loadtestPassword = "loadtest-password"

func main() {
	var (
		users       = flag.Int("users", 10000, "number of users to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per validate/user phase")
		logins      = flag.Int("logins", 2000, "operations in the login phase")
		strategy    = flag.String("strategy", "opaque", "token strategy: opaque or signed")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		encoding    = flag.String("encoding", "json", "opaque token data encoding: json, msgpack or binary")
	)
	flag.Parse()

	if *users <= 0 || *concurrency <= 0 || *ops <= 0 || *logins <= 0 {
		fmt.Fprintln(os.Stderr, "users, concurrency, ops, and logins must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	cfg := tokenauth.DefaultConfig()
	cfg.Strategy = tokenauth.Strategy(*strategy)
	cfg.Opaque.Encoding = *encoding
	cfg.Signed.Secret = []byte("loadtest-secret-loadtest-secret-")
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	// Hashing dominates login cost; the minimum bcrypt cost keeps the
	// login phase about the token path.
	hasher, err := password.NewBcrypt(bcrypt.MinCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bcrypt: %v\n", err)
		os.Exit(1)
	}
	hash, err := hasher.Hash(loadtestPassword)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash: %v\n", err)
		os.Exit(1)
	}

	store := userstore.NewMemoryStore()
	names := make([]string, *users)
	for i := range names {
		names[i] = "user" + strconv.Itoa(i)
		if err := store.Add(tokenauth.User{ID: strconv.Itoa(i), Username: names[i], PasswordHash: hash}); err != nil {
			fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
			os.Exit(1)
		}
	}

	builder := tokenauth.New().WithConfig(cfg).WithUserStore(store)

	if cfg.Strategy == tokenauth.StrategyOpaque {
		addr := *redisAddr
		if addr == "" {
			addr = os.Getenv("REDIS_ADDR")
		}
		if addr == "" {
			mr, err := miniredis.Run()
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
				os.Exit(1)
			}
			defer mr.Close()
			addr = mr.Addr()
			fmt.Printf("using miniredis at %s\n", addr)
		} else {
			fmt.Printf("using redis at %s\n", addr)
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		defer client.Close()
		builder = builder.WithRedis(client)
	}

	engine, err := builder.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("strategy %s, %d users\n", engine.Strategy(), *users)

	tokens := make([]string, *logins)
	loginStats := runPhase(*logins, *concurrency, func(i int, _ *rand.Rand) error {
		resp, err := engine.Login(ctx, tokenauth.Credential{
			Username: names[i%len(names)],
			Password: loadtestPassword,
		})
		tokens[i] = resp.AccessToken
		return err
	})

	validateStats := runPhase(*ops, *concurrency, func(_ int, r *rand.Rand) error {
		_, err := engine.ValidateToken(ctx, "Bearer "+tokens[r.Intn(len(tokens))])
		return err
	})

	userStats := runPhase(*ops, *concurrency, func(_ int, r *rand.Rand) error {
		_, err := engine.GetAuthenticatedUser(ctx, tokens[r.Intn(len(tokens))])
		return err
	})

	fmt.Println("---- results ----")
	printStats("login", loginStats)
	printStats("validate", validateStats)
	printStats("user", userStats)

	snapshot := engine.MetricsSnapshot()
	fmt.Printf("counters: issued=%d validate_ok=%d validate_fail=%d backend_errors=%d\n",
		snapshot.Counters[tokenauth.MetricTokenIssued],
		snapshot.Counters[tokenauth.MetricValidateSuccess],
		snapshot.Counters[tokenauth.MetricValidateFailure],
		snapshot.Counters[tokenauth.MetricBackendError],
	)
}

// runPhase calls op ops times across concurrency workers. Each call gets
// its operation index and a per-worker random source.
func runPhase(ops, concurrency int, op func(i int, r *rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(i, r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
