package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ashita-ai/tairitsu/internal/auth"
	"github.com/ashita-ai/tairitsu/internal/model"
	"github.com/ashita-ai/tairitsu/internal/screening"
	"github.com/ashita-ai/tairitsu/internal/storage"
)

// Server is the Tairitsu HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	handlers   *Handlers
	logger     *slog.Logger
}

// Handler returns the root HTTP handler for use in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServerConfig holds all dependencies and configuration for creating a Server.
// MCPServer is optional (nil = disabled).
type ServerConfig struct {
	// Required dependencies.
	DB      *storage.DB
	JWTMgr  *auth.JWTManager
	Checker *screening.Checker
	Logger  *slog.Logger

	// Optional dependencies (nil = disabled).
	MCPServer *mcpserver.MCPServer

	// HTTP server settings.
	Port                int
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	Version             string
	MaxRequestBodyBytes int64
}

// New creates a new HTTP server with all routes configured.
func New(cfg ServerConfig) *Server {
	h := NewHandlers(HandlersDeps{
		DB:                  cfg.DB,
		JWTMgr:              cfg.JWTMgr,
		Checker:             cfg.Checker,
		Logger:              cfg.Logger,
		Version:             cfg.Version,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
	})

	mux := http.NewServeMux()

	// Auth endpoint (no auth required).
	mux.HandleFunc("POST /auth/token", h.HandleAuthToken)

	// Matter management (member+).
	memberRole := requireRole(model.RoleMember)
	mux.Handle("POST /v1/matters", memberRole(http.HandlerFunc(h.HandleCreateMatter)))
	mux.Handle("PATCH /v1/matters/{matter_id}", memberRole(http.HandlerFunc(h.HandleUpdateMatterStatus)))

	// Matter reads (reader+).
	readRole := requireRole(model.RoleReader)
	mux.Handle("GET /v1/matters", readRole(http.HandlerFunc(h.HandleListMatters)))
	mux.Handle("GET /v1/matters/{matter_id}", readRole(http.HandlerFunc(h.HandleGetMatter)))

	// Conflict screening (member+ runs checks and resolves them).
	mux.Handle("POST /v1/conflicts/check", memberRole(http.HandlerFunc(h.HandleConflictCheck)))
	mux.Handle("POST /v1/checks/{check_id}/resolution", memberRole(http.HandlerFunc(h.HandleResolveCheck)))

	// Check reads (reader+).
	mux.Handle("GET /v1/checks", readRole(http.HandlerFunc(h.HandleListChecks)))
	mux.Handle("GET /v1/checks/{check_id}", readRole(http.HandlerFunc(h.HandleGetCheck)))

	// Audit trail (admin-only).
	adminOnly := requireRole(model.RoleAdmin)
	mux.Handle("GET /v1/audit", adminOnly(http.HandlerFunc(h.HandleListAuditEvents)))

	// MCP StreamableHTTP transport (auth required, reader+).
	if cfg.MCPServer != nil {
		mcpHTTP := mcpserver.NewStreamableHTTPServer(cfg.MCPServer)
		mux.Handle("/mcp", readRole(mcpHTTP))
	}

	// Health (no auth).
	mux.HandleFunc("GET /health", h.HandleHealth)

	// Middleware chain (outermost executes first):
	// request ID → security headers → tracing → logging → auth → recovery → handler.
	var handler http.Handler = mux
	handler = recoveryMiddleware(cfg.Logger, handler)
	handler = authMiddleware(cfg.JWTMgr, handler)
	handler = loggingMiddleware(cfg.Logger, handler)
	handler = tracingMiddleware(handler)
	handler = securityHeadersMiddleware(handler)
	handler = requestIDMiddleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		handler:  handler,
		handlers: h,
		logger:   cfg.Logger,
	}
}

// Handlers returns the underlying Handlers for access to SeedAdmin etc.
func (s *Server) Handlers() *Handlers {
	return s.handlers
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
