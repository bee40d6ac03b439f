package tokenauth

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/MrEthical07/tokenauth/internal/rate"
	"github.com/MrEthical07/tokenauth/jwt"
	"github.com/MrEthical07/tokenauth/password"
	"github.com/MrEthical07/tokenauth/tokenstore"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Builder assembles an [Engine]. Collaborators left unset get defaults
// where one exists: Auto password verification, the Redis token store
// for WithRedis, and an HMAC signer over Config.Signed.Secret.
//
// A Builder can be built once.
type Builder struct {
	config Config

	redis          redis.UniversalClient
	tokenStore     TokenStore
	signer         Signer
	userStore      UserStore
	passwords      PasswordVerifier
	auditSink      AuditSink
	logger         *log.Logger
	now            func() time.Time
	tracerProvider trace.TracerProvider

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration. The secret is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStrategy overrides Config.Strategy.
func (b *Builder) WithStrategy(strategy Strategy) *Builder {
	b.config.Strategy = strategy
	return b
}

// WithRedis backs the opaque strategy and the login throttle with client.
// The signed strategy uses it only for the throttle.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithTokenStore backs the opaque strategy with store. It takes precedence
// over WithRedis.
func (b *Builder) WithTokenStore(store TokenStore) *Builder {
	b.tokenStore = store
	return b
}

// WithSigner replaces the HMAC signer derived from Config.Signed.Secret.
func (b *Builder) WithSigner(signer Signer) *Builder {
	b.signer = signer
	return b
}

// WithUserStore sets the identity source. Required.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.userStore = store
	return b
}

// WithPasswordVerifier replaces the default Argon2id/bcrypt verifier.
func (b *Builder) WithPasswordVerifier(v PasswordVerifier) *Builder {
	b.passwords = v
	return b
}

// WithAuditSink sets the sink used when Config.Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger redirects best-effort error logging. Defaults to the log
// package's standard logger.
func (b *Builder) WithLogger(logger *log.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock replaces time.Now for token timestamps and audit events.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithTracerProvider sets the provider used when Config.Tracing.Enabled is
// true. Defaults to the otel global provider.
func (b *Builder) WithTracerProvider(tp trace.TracerProvider) *Builder {
	b.tracerProvider = tp
	return b
}

// WithMetricsEnabled toggles Config.Metrics.Enabled.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles Config.Metrics.EnableLatencyHistograms.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the selected strategy.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.userStore == nil {
		return nil, errors.New("user store required")
	}

	now := b.now
	if now == nil {
		now = time.Now
	}

	var (
		issuer TokenIssuer
		err    error
	)
	switch cfg.Strategy {
	case StrategyOpaque:
		issuer, err = b.buildOpaque(cfg)
	case StrategySigned:
		issuer, err = b.buildSigned(cfg, now)
	}
	if err != nil {
		return nil, err
	}

	passwords := b.passwords
	if passwords == nil {
		passwords, err = defaultPasswordVerifier(cfg.Password)
		if err != nil {
			return nil, err
		}
	}

	engine := &Engine{
		config:    cfg,
		issuer:    issuer,
		users:     b.userStore,
		passwords: passwords,
		metrics:   NewMetrics(cfg.Metrics),
		logger:    b.logger,
		now:       now,
	}
	if engine.logger == nil {
		engine.logger = log.Default()
	}

	if cfg.Throttle.Enabled {
		if b.redis == nil {
			return nil, errors.New("login throttle requires redis client")
		}
		engine.throttle = rate.New(b.redis, rate.Config{
			MaxAttempts: cfg.Throttle.MaxAttempts,
			Window:      cfg.Throttle.Window,
			PerIP:       cfg.Throttle.PerIP,
		})
	}

	if cfg.Audit.Enabled && b.auditSink != nil {
		engine.audit = b.auditSink
	}

	engine.tracer = noop.NewTracerProvider().Tracer("")
	if cfg.Tracing.Enabled {
		tp := b.tracerProvider
		if tp == nil {
			tp = otel.GetTracerProvider()
		}
		engine.tracer = tp.Tracer(cfg.Tracing.TracerName)
	}

	b.built = true

	return engine, nil
}

func (b *Builder) buildOpaque(cfg Config) (TokenIssuer, error) {
	store := b.tokenStore
	if store == nil {
		if b.redis == nil {
			return nil, errors.New("opaque strategy requires redis client or token store")
		}
		store = tokenstore.NewRedisStore(b.redis)
	}
	return NewOpaqueIssuer(store, cfg.Opaque)
}

func (b *Builder) buildSigned(cfg Config, now func() time.Time) (TokenIssuer, error) {
	signer := b.signer
	if signer == nil {
		if len(cfg.Signed.Secret) == 0 {
			return nil, errors.New("signed strategy requires a secret or signer")
		}
		hs, err := jwt.NewHMACSigner(jwt.SigningMethod(strings.ToLower(cfg.Signed.SigningMethod)), cfg.Signed.Secret)
		if err != nil {
			return nil, err
		}
		signer = hs
	}

	manager, err := jwt.NewManager(jwt.Config{
		TTL:      cfg.Signed.TTL,
		Issuer:   cfg.Signed.Issuer,
		Audience: cfg.Signed.Audience,
		Leeway:   cfg.Signed.Leeway,
		Now:      now,
	}, signer)
	if err != nil {
		return nil, err
	}
	return NewSignedIssuer(manager)
}

func defaultPasswordVerifier(cfg PasswordConfig) (PasswordVerifier, error) {
	argon, err := password.NewArgon2(password.Argon2Config{
		Memory:      cfg.Memory,
		Time:        cfg.Time,
		Parallelism: cfg.Parallelism,
		SaltLength:  cfg.SaltLength,
		KeyLength:   cfg.KeyLength,
	})
	if err != nil {
		return nil, err
	}
	bc, err := password.NewBcrypt(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	return password.NewAuto(argon, bc), nil
}
