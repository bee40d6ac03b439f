package tokenauth

import (
	"context"
	"errors"
	"log"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Engine authenticates users and issues, validates and revokes access
// tokens with the strategy chosen at build time.
//
// Engine holds no per-request state besides atomic metric counters; all
// methods are safe for concurrent use.
type Engine struct {
	config    Config
	issuer    TokenIssuer
	users     UserStore
	passwords PasswordVerifier
	throttle  loginThrottle
	audit     AuditSink
	metrics   *Metrics
	tracer    trace.Tracer
	logger    *log.Logger
	now       func() time.Time
}

// Strategy reports the token strategy in use.
func (e *Engine) Strategy() Strategy {
	if e == nil || e.issuer == nil {
		return ""
	}
	return e.issuer.Strategy()
}

// Config returns a copy of the configuration the engine was built with.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return cloneConfig(e.config)
}

// AuditDropped returns how many audit events the sink discarded, when the
// sink reports it.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	if d, ok := e.audit.(interface{ Dropped() uint64 }); ok {
		return d.Dropped()
	}
	return 0
}

// MetricsSnapshot returns a copy of the engine counters and histograms.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Login verifies cred and issues an access token.
//
// Checks run in order: login throttle (when enabled), username present,
// user exists, password present, password matches. A token is issued only
// after all of them pass, so a rejected login never writes to the token
// store. Every rejection is a *ValidationError.
func (e *Engine) Login(ctx context.Context, cred Credential) (TokenResponse, error) {
	if e == nil || e.issuer == nil {
		return TokenResponse{}, ErrEngineNotReady
	}

	ctx, span := e.startSpan(ctx, "tokenauth.Login")
	defer span.End()
	start := time.Now()
	defer func() { e.metrics.Observe(MetricLoginLatency, time.Since(start)) }()

	if err := e.checkThrottle(ctx, cred.Username); err != nil {
		e.loginFailed(ctx, span, User{Username: cred.Username}, err)
		return TokenResponse{}, err
	}

	user, err := e.authenticate(ctx, cred)
	if err != nil {
		if IsValidationError(err) {
			e.recordThrottleFailure(ctx, cred.Username)
		}
		e.loginFailed(ctx, span, user, err)
		return TokenResponse{}, err
	}

	token, err := e.issuer.Issue(ctx, user)
	if err != nil {
		if !IsValidationError(err) {
			e.backendFailed("issue token", err)
		}
		e.loginFailed(ctx, span, user, err)
		return TokenResponse{}, err
	}

	e.resetThrottle(ctx, user.Username)
	e.metricInc(MetricTokenIssued)
	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, user, nil)
	span.SetAttributes(attribute.String("tokenauth.user_id", user.ID))

	return TokenResponse{AccessToken: token}, nil
}

func (e *Engine) authenticate(ctx context.Context, cred Credential) (User, error) {
	if err := cred.Validate(); err != nil {
		if cred.Username == "" {
			return User{}, validationErr(ErrUsernameRequired)
		}
		return User{}, &ValidationError{Message: usernameMessage(err), Err: ErrUsernameInvalid}
	}

	user, err := e.findUser(ctx, cred.Username)
	if err != nil {
		return User{Username: cred.Username}, err
	}

	if cred.Password == "" {
		return user, validationErr(ErrPasswordRequired)
	}
	if !e.passwords.Matches(cred.Password, user.PasswordHash) {
		return user, validationErr(ErrIncorrectPassword)
	}

	return user, nil
}

func (e *Engine) loginFailed(ctx context.Context, span trace.Span, user User, err error) {
	if IsValidationError(err) {
		e.metricInc(MetricLoginFailure)
	}
	e.emitAudit(ctx, auditEventLoginFailure, false, user, err)
	recordSpanError(span, err)
}

// ValidateToken checks token and, on success, returns it unchanged in the
// response envelope. token may be bare or carry a scheme prefix.
func (e *Engine) ValidateToken(ctx context.Context, token string) (TokenResponse, error) {
	if e == nil || e.issuer == nil {
		return TokenResponse{}, ErrEngineNotReady
	}

	ctx, span := e.startSpan(ctx, "tokenauth.ValidateToken")
	defer span.End()

	if _, err := e.validate(ctx, span, token); err != nil {
		return TokenResponse{}, err
	}
	return TokenResponse{AccessToken: token}, nil
}

func (e *Engine) validate(ctx context.Context, span trace.Span, token string) (Claims, error) {
	start := time.Now()
	claims, err := e.issuer.Validate(ctx, token)
	e.metrics.Observe(MetricValidateLatency, time.Since(start))

	if err != nil {
		switch {
		case IsAuthenticationError(err), IsValidationError(err):
			e.metricInc(MetricValidateFailure)
			e.emitAudit(ctx, auditEventValidateFailure, false, User{}, err)
		default:
			e.backendFailed("validate token", err)
		}
		recordSpanError(span, err)
		return Claims{}, err
	}

	e.metricInc(MetricValidateSuccess)
	return claims, nil
}

// GetAuthenticatedUser validates token and resolves its owner from the
// user store. A user deleted after the token was issued yields a
// *ValidationError wrapping ErrUserNotFound.
func (e *Engine) GetAuthenticatedUser(ctx context.Context, token string) (AuthenticatedUser, error) {
	if e == nil || e.issuer == nil {
		return AuthenticatedUser{}, ErrEngineNotReady
	}

	ctx, span := e.startSpan(ctx, "tokenauth.GetAuthenticatedUser")
	defer span.End()

	claims, err := e.validate(ctx, span, token)
	if err != nil {
		e.metricInc(MetricUserResolveFailure)
		return AuthenticatedUser{}, err
	}

	user, err := e.findUser(ctx, claims.Username)
	if err != nil {
		e.metricInc(MetricUserResolveFailure)
		recordSpanError(span, err)
		return AuthenticatedUser{}, err
	}

	e.metricInc(MetricUserResolved)
	e.emitAudit(ctx, auditEventUserResolved, true, user, nil)
	span.SetAttributes(attribute.String("tokenauth.user_id", user.ID))

	return AuthenticatedUser{ID: user.ID, Username: user.Username}, nil
}

// Logout revokes token. For opaque tokens the store entry is deleted, and
// logging out twice succeeds. Signed tokens cannot be revoked, so only the
// input is checked.
func (e *Engine) Logout(ctx context.Context, token string) error {
	if e == nil || e.issuer == nil {
		return ErrEngineNotReady
	}

	ctx, span := e.startSpan(ctx, "tokenauth.Logout")
	defer span.End()

	if err := e.issuer.Revoke(ctx, token); err != nil {
		if !IsValidationError(err) {
			e.backendFailed("revoke token", err)
		}
		e.emitAudit(ctx, auditEventLogout, false, User{}, err)
		recordSpanError(span, err)
		return err
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, User{}, nil)
	return nil
}

func (e *Engine) findUser(ctx context.Context, username string) (User, error) {
	user, err := e.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, validationErr(ErrUserNotFound)
		}
		e.backendFailed("find user", err)
		return User{}, err
	}
	return user, nil
}

func (e *Engine) backendFailed(op string, err error) {
	e.metricInc(MetricBackendError)
	e.logger.Printf("tokenauth: %s failed: %v", op, err)
}

func (e *Engine) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("tokenauth.strategy", string(e.issuer.Strategy())),
	))
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func usernameMessage(err error) string {
	var errs validation.Errors
	if errors.As(err, &errs) {
		if fieldErr, ok := errs["username"]; ok {
			return "username: " + fieldErr.Error()
		}
	}
	return ErrUsernameInvalid.Error()
}
