package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/MrEthical07/tokenauth"
	"github.com/MrEthical07/tokenauth/middleware"
)

// Service is the subset of *tokenauth.Engine the handlers call.
type Service interface {
	Login(ctx context.Context, cred tokenauth.Credential) (tokenauth.TokenResponse, error)
	ValidateToken(ctx context.Context, token string) (tokenauth.TokenResponse, error)
	GetAuthenticatedUser(ctx context.Context, token string) (tokenauth.AuthenticatedUser, error)
	Logout(ctx context.Context, token string) error
}

// Pinger reports backing store reachability for /healthz.
type Pinger interface {
	Ping(ctx context.Context) (time.Duration, error)
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

type handler struct {
	svc    Service
	pinger Pinger
	logger *log.Logger
}

// Option customizes [NewHandler].
type Option func(*handler)

// WithPinger enables the store check behind /healthz.
func WithPinger(p Pinger) Option {
	return func(h *handler) { h.pinger = p }
}

// WithLogger redirects server-side error logging.
func WithLogger(l *log.Logger) Option {
	return func(h *handler) { h.logger = l }
}

// NewHandler routes the token endpoints to svc.
func NewHandler(svc Service, opts ...Option) http.Handler {
	h := &handler{svc: svc, logger: log.Default()}
	for _, opt := range opts {
		opt(h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", h.login)
	mux.HandleFunc("POST /api/auth/token/validate", h.validate)
	mux.HandleFunc("POST /api/auth/logout", h.logout)
	mux.HandleFunc("GET /api/auth/user", h.user)
	mux.HandleFunc("GET /healthz", h.health)
	return mux
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var cred tokenauth.Credential
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&cred); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Status: http.StatusBadRequest, Message: "malformed request body"})
		return
	}

	resp, err := h.svc.Login(middleware.RequestContext(r), cred)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) validate(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.ValidateToken(middleware.RequestContext(r), r.Header.Get("Authorization"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(middleware.RequestContext(r), r.Header.Get("Authorization")); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *handler) user(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.GetAuthenticatedUser(middleware.RequestContext(r), r.Header.Get("Authorization"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if h.pinger == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	latency, err := h.pinger.Ping(r.Context())
	if err != nil {
		h.logger.Printf("tokenauth: health check failed: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Status: http.StatusServiceUnavailable, Message: "token store unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "store_latency": latency.String()})
}

func (h *handler) fail(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Printf("tokenauth: request failed: %v", err)
		msg = "internal error"
	}
	writeJSON(w, status, ErrorResponse{Status: status, Message: msg})
}

// StatusFor maps an engine error to its HTTP status.
func StatusFor(err error) int {
	var (
		verr *tokenauth.ValidationError
		aerr *tokenauth.AuthenticationError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, tokenauth.ErrLoginThrottled):
		return http.StatusTooManyRequests
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.As(err, &aerr):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
