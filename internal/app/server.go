package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/MrEthical07/tokenauth"
	"github.com/MrEthical07/tokenauth/httpapi"
	"github.com/MrEthical07/tokenauth/internal/telemetry"
	otelexport "github.com/MrEthical07/tokenauth/metrics/export/otel"
	"github.com/MrEthical07/tokenauth/metrics/export/prometheus"
	"github.com/MrEthical07/tokenauth/tokenstore"
	"github.com/MrEthical07/tokenauth/userstore"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
)

// Server is a wired engine plus its HTTP surface.
type Server struct {
	Engine  *tokenauth.Engine
	Users   *userstore.SQLStore
	Handler http.Handler

	closers []func() error
}

// Option customizes [NewServer].
type Option func(*options)

type options struct {
	redis     redis.UniversalClient
	auditOut  io.Writer
	passwords tokenauth.PasswordVerifier
}

// WithRedisClient uses client instead of dialing cfg.RedisAddr. The caller
// keeps ownership.
func WithRedisClient(client redis.UniversalClient) Option {
	return func(o *options) { o.redis = client }
}

// WithAuditOutput redirects the JSON audit log (stdout by default).
func WithAuditOutput(w io.Writer) Option {
	return func(o *options) { o.auditOut = w }
}

// WithPasswordVerifier replaces the default verifier.
func WithPasswordVerifier(v tokenauth.PasswordVerifier) Option {
	return func(o *options) { o.passwords = v }
}

// NewServer opens the users database, connects the token store when the
// strategy needs one and builds the engine and routes.
func NewServer(ctx context.Context, cfg Config, opts ...Option) (*Server, error) {
	o := options{auditOut: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Server{}

	users, err := userstore.OpenSQLite(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("open users database: %w", err)
	}
	s.closers = append(s.closers, users.Close)
	if err := users.CreateSchema(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("create users schema: %w", err)
	}
	s.Users = users

	engineCfg := cfg.EngineConfig()
	if err := engineCfg.Validate(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("engine config: %w", err)
	}
	for _, w := range engineCfg.Lint() {
		log.Printf("config %s %s: %s", w.Severity, w.Code, w.Message)
	}

	builder := tokenauth.New().
		WithConfig(engineCfg).
		WithUserStore(users).
		WithTracerProvider(otel.GetTracerProvider())
	if o.passwords != nil {
		builder = builder.WithPasswordVerifier(o.passwords)
	}
	if engineCfg.Audit.Enabled {
		builder = builder.WithAuditSink(tokenauth.NewJSONWriterSink(o.auditOut))
	}

	var apiOpts []httpapi.Option
	if engineCfg.Strategy == tokenauth.StrategyOpaque || engineCfg.Throttle.Enabled {
		client := o.redis
		if client == nil {
			rdb := redis.NewClient(&redis.Options{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPass,
				DB:       cfg.RedisDB,
			})
			s.closers = append(s.closers, rdb.Close)
			client = rdb
		}
		builder = builder.WithRedis(client)
		apiOpts = append(apiOpts, httpapi.WithPinger(tokenstore.NewRedisStore(client)))
	}

	engine, err := builder.Build()
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("build engine: %w", err)
	}
	s.Engine = engine

	exporter, err := otelexport.NewExporter(otel.GetMeterProvider().Meter(cfg.ServiceName), engine)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("register otel metrics: %w", err)
	}
	s.closers = append(s.closers, exporter.Close)

	mux := http.NewServeMux()
	mux.Handle("/", httpapi.NewHandler(engine, apiOpts...))
	mux.Handle("GET /metrics", prometheus.NewExporter(engine).Handler())
	s.Handler = mux

	return s, nil
}

// Close releases everything NewServer opened, last opened first.
func (s *Server) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func Run(ctx context.Context, cfg Config) error {
	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry())
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	srv, err := NewServer(ctx, cfg)
	if err != nil {
		return err
	}
	defer srv.Close()

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s (strategy %s)", cfg.HTTPAddr, srv.Engine.Strategy())
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
