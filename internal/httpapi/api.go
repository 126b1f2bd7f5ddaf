package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"inkwell.org/internal/auth"
	"inkwell.org/internal/obs"
)

// ReadyProbe checks downstream readiness (DB ping when configured).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options collects boundary-level tunables sourced from configuration.
type Options struct {
	SecureCookie bool
	CORSOrigins  []string
	// AllowLocalOrigins opens CORS to localhost origins regardless of the
	// allow list. Development only; never set in production.
	AllowLocalOrigins bool
	RateBurst         int
	RatePerSec        int
	LoginRateBurst    int
	LoginRatePerMin   int
}

// API is the HTTP layer over the auth core.
type API struct {
	mux        *http.ServeMux
	service    *auth.Service
	readyProbe ReadyProbe
	version    string
	opts       Options
}

// New wires routes. The login endpoint carries its own, stricter rate
// limiter on top of the global per-IP one.
func New(rp ReadyProbe, version string, svc *auth.Service, opts Options) *API {
	if opts.RateBurst <= 0 {
		opts.RateBurst = 30
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 10
	}
	if opts.LoginRateBurst <= 0 {
		opts.LoginRateBurst = 5
	}
	if opts.LoginRatePerMin <= 0 {
		opts.LoginRatePerMin = 5
	}

	a := &API{
		mux:        http.NewServeMux(),
		service:    svc,
		readyProbe: rp,
		version:    version,
		opts:       opts,
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.Handle("/v1/auth/login",
		LoginRateLimit(http.HandlerFunc(a.handleLogin), opts.LoginRateBurst, opts.LoginRatePerMin))
	a.mux.HandleFunc("/v1/auth/register", a.handleRegister)
	a.mux.HandleFunc("/v1/auth/refresh", a.handleRefresh)
	a.mux.HandleFunc("/v1/auth/logout", a.handleLogout)
	a.mux.HandleFunc("/v1/auth/verify", a.handleVerify)
	a.mux.HandleFunc("/v1/auth/profile", a.handleProfile)
	a.mux.HandleFunc("/v1/auth/change-password", a.handleChangePassword)
	a.mux.HandleFunc("/v1/auth/status", a.handleStatus)
	a.mux.HandleFunc("/v1/auth/setup", a.handleSetup)

	a.mux.HandleFunc("/v1/users", a.handleUsers)
	a.mux.HandleFunc("/v1/users/", a.handleUserScoped)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, codeNotFound, "resource not found")
	})

	return a
}

// Handler assembles the middleware chain around the router.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = obs.Instrument(h)
	h = LoggingJSON(h)
	h = RateLimit(h, a.opts.RateBurst, a.opts.RatePerSec)
	h = MaxBodyBytes(h, 1<<20)
	h = CORS(h, a.opts.CORSOrigins, a.opts.AllowLocalOrigins)
	h = SecurityHeaders(h)
	h = RequestID(h)
	return h
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "inkwell-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "inkwell-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

// Stable error codes crossing the boundary; clients switch on these, never
// on message text.
const (
	codeValidation     = "VALIDATION_ERROR"
	codeAuthentication = "AUTHENTICATION_ERROR"
	codeAuthorization  = "AUTHORIZATION_ERROR"
	codeConflict       = "CONFLICT_ERROR"
	codeNotFound       = "NOT_FOUND_ERROR"
	codeRateLimit      = "RATE_LIMIT_ERROR"
	codeInternal       = "INTERNAL_ERROR"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	payload := map[string]any{
		"error": msg,
		"code":  code,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, status, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, codeValidation, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleAuthError maps core sentinels onto status codes and stable error
// codes. The deactivated-account case keeps 401 (the session is unusable)
// but an authorization code, since the credentials were not the problem.
func handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, codeValidation, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, codeAuthentication, "invalid username or password")
	case errors.Is(err, auth.ErrAccountDisabled):
		writeError(w, r, http.StatusUnauthorized, codeAuthorization, "account is deactivated")
	case errors.Is(err, auth.ErrTokenExpired):
		writeError(w, r, http.StatusUnauthorized, codeAuthentication, "token expired")
	case errors.Is(err, auth.ErrInvalidRefreshToken):
		writeError(w, r, http.StatusUnauthorized, codeAuthentication, "invalid refresh token")
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrUnauthorized):
		writeError(w, r, http.StatusUnauthorized, codeAuthentication, "authentication required")
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, r, http.StatusForbidden, codeAuthorization, "insufficient permissions")
	case errors.Is(err, auth.ErrConflict):
		writeError(w, r, http.StatusConflict, codeConflict, "username or email already exists")
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, codeNotFound, "resource not found")
	default:
		writeError(w, r, http.StatusInternalServerError, codeInternal, "internal error")
	}
}
