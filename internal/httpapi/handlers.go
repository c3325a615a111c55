package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"campusgate.org/internal/auth"
	"campusgate.org/internal/obs"
)

// ReadyProbe reports readiness (for example a DB ping).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer over the authentication service.
type API struct {
	mux        *http.ServeMux
	auth       *auth.Service
	readyProbe ReadyProbe
	version    string

	rateBurst  int
	ratePerSec int
}

func New(rp ReadyProbe, version string, svc *auth.Service) *API {
	a := &API{
		mux:        http.NewServeMux(),
		auth:       svc,
		readyProbe: rp,
		version:    version,
		rateBurst:  20,
		ratePerSec: 10,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// authentication
	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("/v1/auth/signup", a.handleSignup)
	a.mux.HandleFunc("/v1/auth/password", a.handlePasswordReset)
	a.mux.HandleFunc("/v1/auth/logout", a.handleLogout)
	a.mux.HandleFunc("/v1/auth/account", a.handleDeleteAccount)
	a.mux.HandleFunc("/v1/auth/verify", a.handleVerify)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeFailure(r.Context(), w, http.StatusNotFound, "not found")
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = MaxBodyBytes(h, 1<<20)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = Logging(h)
	return obs.Instrument(h)
}

// --- ops handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "campusgate-api",
		"version": a.version,
	}, "healthy")
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeFailure(r.Context(), w, http.StatusServiceUnavailable, "not ready")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"status": "ready"}, "ready")
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]any{
		"name":    "campusgate-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	}, "ok")
}

// --- envelope helpers ---

// envelope is the uniform response shape produced by every endpoint.
type envelope struct {
	Data    any    `json:"data"`
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter, code int, data any, message string) {
	if data == nil {
		data = map[string]any{}
	}
	writeJSON(w, code, envelope{Data: data, Success: true, Status: code, Message: message})
}

func writeFailure(ctx context.Context, w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, envelope{Data: map[string]any{}, Success: false, Status: code, Message: message})
}

// writeError maps a service error onto the envelope. Internal failures are
// logged with full detail and surfaced as a generic message only.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var locked *auth.LockedError
	switch {
	case errors.As(err, &locked):
		writeFailure(ctx, w, http.StatusUnauthorized, locked.Error())
	case errors.Is(err, auth.ErrDeviceLimit):
		writeFailure(ctx, w, http.StatusUnauthorized, "cannot log in to more devices, log out from another device first")
	case errors.Is(err, auth.ErrTokenCreate):
		writeFailure(ctx, w, http.StatusUnauthorized, "failed to create token")
	case errors.Is(err, auth.ErrUnauthorized), errors.Is(err, auth.ErrInvalidToken):
		writeFailure(ctx, w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, auth.ErrForbidden):
		writeFailure(ctx, w, http.StatusForbidden, trimAuthPrefix(err))
	case errors.Is(err, auth.ErrAlreadyExists),
		errors.Is(err, auth.ErrPasswordMismatch),
		errors.Is(err, auth.ErrPasswordUnchanged),
		errors.Is(err, auth.ErrNotAcknowledged):
		writeFailure(ctx, w, http.StatusUnprocessableEntity, trimAuthPrefix(err))
	default:
		obs.LogRequest(map[string]any{
			"ts":    time.Now().UTC().Format(time.RFC3339Nano),
			"level": "error",
			"msg":   "internal error",
			"error": err.Error(),
		})
		writeFailure(ctx, w, http.StatusInternalServerError, "internal error")
	}
}

func trimAuthPrefix(err error) string {
	return strings.TrimPrefix(err.Error(), "auth: ")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed string) {
	w.Header().Set("Allow", allowed)
	writeFailure(r.Context(), w, http.StatusMethodNotAllowed, "method not allowed")
}
