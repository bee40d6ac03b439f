package tokenauth

import (
	"context"
	"errors"
)

const (
	auditEventLoginSuccess    = "login_success"
	auditEventLoginFailure    = "login_failure"
	auditEventValidateFailure = "token_validate_failure"
	auditEventUserResolved    = "user_resolved"
	auditEventLogout          = "logout"
)

// AuditErrorCode is the stable, non-sensitive error label written to
// AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrUsernameRequired AuditErrorCode = "username_required"
	auditErrUsernameInvalid  AuditErrorCode = "username_invalid"
	auditErrUserNotFound     AuditErrorCode = "user_not_found"
	auditErrUserIDRequired   AuditErrorCode = "user_id_required"
	auditErrPasswordRequired AuditErrorCode = "password_required"
	auditErrInvalidPassword  AuditErrorCode = "invalid_credentials"
	auditErrLoginThrottled   AuditErrorCode = "login_throttled"
	auditErrTokenRequired    AuditErrorCode = "token_required"
	auditErrInvalidToken     AuditErrorCode = "invalid_token"
	auditErrTokenExpired     AuditErrorCode = "token_expired"
	auditErrTokenCorrupt     AuditErrorCode = "token_data_corrupt"
	auditErrInternal         AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(ctx context.Context, eventType string, success bool, user User, err error) {
	if e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		Strategy:  e.issuer.Strategy(),
		UserID:    user.ID,
		Username:  user.Username,
		IP:        clientIPFromContext(ctx),
		Success:   success,
	}
	if ua := userAgentFromContext(ctx); ua != "" {
		event.Metadata = map[string]string{"user_agent": ua}
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrUsernameRequired):
		return auditErrUsernameRequired
	case errors.Is(err, ErrUsernameInvalid):
		return auditErrUsernameInvalid
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrUserIDRequired):
		return auditErrUserIDRequired
	case errors.Is(err, ErrPasswordRequired):
		return auditErrPasswordRequired
	case errors.Is(err, ErrIncorrectPassword):
		return auditErrInvalidPassword
	case errors.Is(err, ErrLoginThrottled):
		return auditErrLoginThrottled
	case errors.Is(err, ErrTokenRequired):
		return auditErrTokenRequired
	case errors.Is(err, ErrTokenExpired):
		return auditErrTokenExpired
	case errors.Is(err, ErrTokenDataCorrupt):
		return auditErrTokenCorrupt
	case errors.Is(err, ErrTokenInvalid):
		return auditErrInvalidToken
	default:
		return auditErrInternal
	}
}
