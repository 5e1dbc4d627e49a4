// Package api provides the HTTP server for Mizan: bearer-token auth, daily
// check-in routes, derived status views, and the premium token surface.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mizan-app/mizan/internal/app/checkin"
	"github.com/mizan-app/mizan/internal/app/ledger"
	"github.com/mizan-app/mizan/internal/app/subscription"
	"github.com/mizan-app/mizan/internal/cache"
	"github.com/mizan-app/mizan/internal/domain"
	"github.com/mizan-app/mizan/internal/infra/auth"
	"github.com/mizan-app/mizan/internal/infra/metrics"
	"github.com/mizan-app/mizan/internal/infra/sqlite"
)

// Server is the Mizan HTTP API server.
type Server struct {
	db             *sqlite.DB
	tokens         *auth.TokenManager
	checkins       *checkin.Service
	penalties      *ledger.Service
	premium        *subscription.Service
	mirror         *cache.Mirror
	version        string
	metricsEnabled bool

	// now is swappable in tests.
	now func() time.Time
}

// NewServer creates the API server over its services.
func NewServer(db *sqlite.DB, tokens *auth.TokenManager, checkins *checkin.Service,
	penalties *ledger.Service, premium *subscription.Service, mirror *cache.Mirror, version string) *Server {
	return &Server{
		db:        db,
		tokens:    tokens,
		checkins:  checkins,
		penalties: penalties,
		premium:   premium,
		mirror:    mirror,
		version:   version,
		now:       time.Now,
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware)
	r.Use(metricsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/login-code", s.handleLoginCode)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/me", s.handleMe)
			r.Post("/access-code", s.handleSetAccessCode)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Route("/days/{date}", func(r chi.Router) {
			r.Get("/", s.handleGetDay)
			r.Post("/submit", s.handleSubmit)
		})
		r.Post("/penalties/{penaltyID}/toggle", s.handleTogglePenalty)

		r.Get("/status", s.handleStatus)
		r.Get("/summary", s.handleSummary)
		r.Get("/loss", s.handleLoss)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/export.csv", s.handleExportCSV)

		r.Route("/data", func(r chi.Router) {
			r.Get("/sync", s.handleSync)
			r.Post("/checkins", s.handleSaveDraft)
			r.Get("/settings", s.handleGetSettings)
			r.Post("/settings", s.handlePutSettings)
			r.Delete("/wipe", s.handleWipe)
		})

		r.Route("/premium", func(r chi.Router) {
			r.Get("/decision", s.handleDecision)
			r.Post("/token", s.handleMintToken)
			r.Post("/redeem", s.handleRedeem)
		})
	})

	// Payment provider callback, authenticated by the provider rather than a bearer.
	r.Post("/api/premium/webhook/stripe", s.handleStripeWebhook)

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// ─── Auth middleware ────────────────────────────────────────────────────────

type ctxKey int

const userIDKey ctxKey = 0

// requireAuth verifies the Bearer token and stores the user id in the
// request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		userID, err := s.tokens.Verify(header[len(prefix):])
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

func userID(r *http.Request) int64 {
	id, _ := r.Context().Value(userIDKey).(int64)
	return id
}

// ─── Response helpers ───────────────────────────────────────────────────────

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    "error",
		},
	})
}

// writeDomainError maps domain errors onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, vErr.Error())
	case errors.Is(err, domain.ErrBadCredentials),
		errors.Is(err, domain.ErrAccessCodeUnknown):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrTokenWrongOwner):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrTokenExpired):
		writeError(w, http.StatusGone, err.Error())
	case errors.Is(err, domain.ErrThresholdNotMet),
		errors.Is(err, domain.ErrPenaltyUnresolved):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case domain.IsConflict(err):
		writeError(w, http.StatusConflict, err.Error())
	case domain.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &domain.ValidationError{Field: "body", Reason: "malformed JSON"}
	}
	return nil
}

// ─── Middleware ─────────────────────────────────────────────────────────────

// corsMiddleware adds CORS headers for the local client.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// metricsMiddleware records request duration by method and status.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		metrics.RequestDuration.
			WithLabelValues(r.Method, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}
