// Package server is the administrative HTTP façade: a localhost-default
// surface over the contact registry and audit log. Error bodies never
// include the configured token or internal paths.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wasp/internal/config"
	"wasp/internal/gateway"
	"wasp/internal/ratelimit"
	"wasp/internal/store"
	"wasp/internal/types"
)

// Server hosts the admin endpoints.
type Server struct {
	cfg     *config.Config
	gw      *gateway.Gateway
	limiter *ratelimit.Limiter
	log     *zap.Logger
	httpSrv *http.Server
}

// New builds the façade. The limiter's sweeper is started by Run and
// stopped on shutdown.
func New(cfg *config.Config, gw *gateway.Gateway, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		cfg:     cfg,
		gw:      gw,
		limiter: ratelimit.NewLimiter(),
		log:     log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /check", s.handleCheck)
	mux.HandleFunc("GET /contacts", s.requireAuth(s.handleListContacts))
	mux.HandleFunc("POST /contacts", s.requireAuth(s.handleUpsertContact))
	mux.HandleFunc("DELETE /contacts/{identifier}", s.requireAuth(s.handleDeleteContact))
	mux.HandleFunc("GET /audit", s.requireAuth(s.handleAudit))
	mux.HandleFunc("GET /health", s.handleHealth)

	s.httpSrv = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.accessLog(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.limiter.StartSweeper(s.cfg.RateLimit.Window())
	defer s.limiter.StopSweeper()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// ---- middleware ----

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.New().String()
		w.Header().Set("X-Request-ID", reqID)
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request",
			zap.String("request_id", reqID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("client_ip", clientIP(r)),
			zap.Duration("elapsed", time.Since(start)))
	})
}

// requireAuth enforces the token-or-loopback policy: with an API token
// configured every protected endpoint requires it (Bearer or bare,
// exact match); without one, only loopback clients pass.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := s.cfg.Server.APIToken
		if token != "" {
			header := r.Header.Get("Authorization")
			presented := strings.TrimPrefix(header, "Bearer ")
			if header == "" || presented != token {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next(w, r)
			return
		}
		if !isLoopback(clientIP(r)) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

// clientIP extracts the caller address: first X-Forwarded-For entry,
// then X-Real-IP, then the socket address, then "unknown".
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0])
		if first != "" {
			return first
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
	return host
}

func isLoopback(ip string) bool {
	// "local" is the direct-connect sentinel for portless socket
	// addresses (in-process handlers, unix sockets).
	return ip == "127.0.0.1" || ip == "::1" || ip == "local"
}

// ---- handlers ----

type checkRequest struct {
	Identifier string `json:"identifier"`
	Platform   string `json:"platform,omitempty"`
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	status := s.limiter.Check("check:"+clientIP(r), ratelimit.Config{
		Window:      s.cfg.RateLimit.Window(),
		MaxRequests: s.cfg.RateLimit.MaxRequests,
	})
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(s.cfg.RateLimit.MaxRequests))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(status.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(status.ResetMs, 10))
	if !status.Allowed {
		writeError(w, http.StatusTooManyRequests, "rate limited")
		return
	}

	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Identifier == "" {
		writeError(w, http.StatusBadRequest, "identifier is required")
		return
	}
	platform, err := optionalPlatform(req.Platform)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.gw.Registry().Check(req.Identifier, platform)
	if err != nil {
		s.storageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	var platform types.Platform
	var level types.TrustLevel
	if raw := r.URL.Query().Get("platform"); raw != "" {
		p, err := types.ParsePlatform(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown platform %q", raw))
			return
		}
		platform = p
	}
	if raw := r.URL.Query().Get("trust"); raw != "" {
		t, err := types.ParseTrust(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown trust level %q", raw))
			return
		}
		level = t
	}

	contacts, err := s.gw.Registry().List(platform, level)
	if err != nil {
		s.storageError(w, err)
		return
	}
	if contacts == nil {
		contacts = []types.Contact{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"contacts": contacts})
}

type upsertRequest struct {
	Identifier string `json:"identifier"`
	Platform   string `json:"platform,omitempty"`
	Trust      string `json:"trust,omitempty"`
	Name       string `json:"name,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

func (s *Server) handleUpsertContact(w http.ResponseWriter, r *http.Request) {
	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Identifier == "" {
		writeError(w, http.StatusBadRequest, "identifier is required")
		return
	}
	platform, err := optionalPlatform(req.Platform)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	level := types.TrustTrusted
	if req.Trust != "" {
		level, err = types.ParseTrust(req.Trust)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown trust level %q", req.Trust))
			return
		}
	}

	if err := s.gw.Registry().Upsert(req.Identifier, platform, level, req.Name, req.Notes); err != nil {
		if errors.Is(err, types.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "invalid contact")
			return
		}
		s.storageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"identifier": req.Identifier,
		"platform":   platform,
		"trust":      level,
	})
}

func (s *Server) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	identifier := r.PathValue("identifier")
	if identifier == "" {
		writeError(w, http.StatusBadRequest, "identifier is required")
		return
	}
	platform, err := optionalPlatform(r.URL.Query().Get("platform"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	deleted, err := s.gw.Registry().Remove(identifier, platform)
	if err != nil {
		s.storageError(w, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "contact not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": true})
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > s.cfg.Server.AuditQueryMax {
		limit = s.cfg.Server.AuditQueryMax
	}

	var decision types.Decision
	if raw := r.URL.Query().Get("decision"); raw != "" {
		decision = types.Decision(raw)
		if !decision.Valid() {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown decision %q", raw))
			return
		}
	}

	entries, err := s.gw.Store().QueryAudit(store.AuditFilter{Limit: limit, Decision: decision})
	if err != nil {
		s.storageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := s.gw.Store().Stats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"tables": stats,
	})
}

// ---- helpers ----

func optionalPlatform(raw string) (types.Platform, error) {
	if raw == "" {
		return types.DefaultPlatform, nil
	}
	p, err := types.ParsePlatform(raw)
	if err != nil {
		return "", fmt.Errorf("unknown platform %q", raw)
	}
	return p, nil
}

func (s *Server) storageError(w http.ResponseWriter, err error) {
	// Detail goes to the log; the body stays generic so internal paths
	// never leak.
	s.log.Error("storage error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "storage failure")
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
