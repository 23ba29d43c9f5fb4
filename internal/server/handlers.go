package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ashita-ai/tairitsu/internal/auth"
	"github.com/ashita-ai/tairitsu/internal/model"
	"github.com/ashita-ai/tairitsu/internal/screening"
	"github.com/ashita-ai/tairitsu/internal/storage"
)

// Handlers holds HTTP handler dependencies.
type Handlers struct {
	db                  *storage.DB
	jwtMgr              *auth.JWTManager
	checker             *screening.Checker
	logger              *slog.Logger
	startedAt           time.Time
	version             string
	maxRequestBodyBytes int64
}

// HandlersDeps holds all dependencies for constructing Handlers.
type HandlersDeps struct {
	DB                  *storage.DB
	JWTMgr              *auth.JWTManager
	Checker             *screening.Checker
	Logger              *slog.Logger
	Version             string
	MaxRequestBodyBytes int64
}

// NewHandlers creates a new Handlers with all dependencies.
func NewHandlers(d HandlersDeps) *Handlers {
	return &Handlers{
		db:                  d.DB,
		jwtMgr:              d.JWTMgr,
		checker:             d.Checker,
		logger:              d.Logger,
		startedAt:           time.Now(),
		version:             d.Version,
		maxRequestBodyBytes: d.MaxRequestBodyBytes,
	}
}

// writeInternalError logs the underlying error and writes a generic 500
// response. The error detail never reaches the client.
func (h *Handlers) writeInternalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg,
		"error", err,
		"path", r.URL.Path,
		"request_id", RequestIDFromContext(r.Context()),
	)
	writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternal, msg)
}

// HandleAuthToken handles POST /auth/token.
// Exchanges an email + API key for a short-lived JWT.
func (h *Handlers) HandleAuthToken(w http.ResponseWriter, r *http.Request) {
	var req model.AuthTokenRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if req.Email == "" || req.APIKey == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeBadRequest, "email and api_key are required")
		return
	}

	user, err := h.db.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		// Burn the same hashing cost as a real verification so response
		// timing does not reveal whether the email exists.
		auth.DummyVerify()
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "invalid credentials")
		return
	}

	valid, err := auth.VerifyAPIKey(req.APIKey, user.APIKeyHash)
	if err != nil || !valid {
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "invalid credentials")
		return
	}

	token, expiresAt, err := h.jwtMgr.IssueToken(user)
	if err != nil {
		h.writeInternalError(w, r, "failed to issue token", err)
		return
	}

	// Audit: record successful token issuance. Best-effort — failure to
	// audit must not block the token response.
	if auditErr := h.db.RecordAuditEvent(r.Context(), user.ID, "token_issued", map[string]any{
		"ip":         r.RemoteAddr,
		"user_agent": r.UserAgent(),
		"token_exp":  expiresAt,
	}); auditErr != nil {
		h.logger.Error("failed to audit token issuance",
			"user_id", user.ID, "error", auditErr)
	}

	writeJSON(w, r, http.StatusOK, model.AuthTokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	pgStatus := "connected"
	status := "healthy"
	httpStatus := http.StatusOK

	if err := h.db.Ping(r.Context()); err != nil {
		pgStatus = "disconnected"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, r, httpStatus, model.HealthResponse{
		Status:   status,
		Version:  h.version,
		Postgres: pgStatus,
		Uptime:   int64(time.Since(h.startedAt).Seconds()),
	})
}

// HandleListAuditEvents handles GET /v1/audit (admin-only).
func (h *Handlers) HandleListAuditEvents(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	limit := queryInt(r, "limit", 50)
	events, err := h.db.ListAuditEvents(r.Context(), claims.UserID(), limit)
	if err != nil {
		h.writeInternalError(w, r, "failed to list audit events", err)
		return
	}
	writeJSON(w, r, http.StatusOK, events)
}

// SeedAdmin ensures the bootstrap admin user exists, rehashing the configured
// API key so a rotated TAIRITSU_ADMIN_API_KEY takes effect on restart.
func (h *Handlers) SeedAdmin(ctx context.Context, email, name, apiKey string) error {
	if apiKey == "" {
		_, err := h.db.GetUserByEmail(ctx, email)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("seed admin: TAIRITSU_ADMIN_API_KEY is empty and no admin user exists; set it to bootstrap initial access")
		}
		if err != nil {
			return fmt.Errorf("seed admin: look up admin user: %w", err)
		}
		h.logger.Info("no admin API key configured, keeping existing admin user")
		return nil
	}

	hash, err := auth.HashAPIKey(apiKey)
	if err != nil {
		return fmt.Errorf("seed admin: hash key: %w", err)
	}

	admin, err := h.db.EnsureAdmin(ctx, email, name, hash)
	if err != nil {
		return fmt.Errorf("seed admin: ensure admin: %w", err)
	}

	h.logger.Info("seeded admin user", "user_id", admin.ID, "email", admin.Email)
	return nil
}

// --- Shared helpers ---

func parsePathUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := r.PathValue(key)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%s is required", key)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %s", key, raw)
	}
	return id, nil
}

// maxQueryLimit is the maximum allowed value for limit query parameters.
const maxQueryLimit = 1000

func queryInt(r *http.Request, key string, defaultVal int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			if n > maxQueryLimit {
				return maxQueryLimit
			}
			return n
		}
	}
	return defaultVal
}
