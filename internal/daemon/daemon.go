package daemon

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/mizan-app/mizan/internal/api"
	"github.com/mizan-app/mizan/internal/app/checkin"
	"github.com/mizan-app/mizan/internal/app/ledger"
	"github.com/mizan-app/mizan/internal/app/subscription"
	"github.com/mizan-app/mizan/internal/cache"
	"github.com/mizan-app/mizan/internal/infra/auth"
	"github.com/mizan-app/mizan/internal/infra/sqlite"
)

// Daemon is the core Mizan runtime. It wires together all services.
type Daemon struct {
	Config       Config
	DB           *sqlite.DB
	Tokens       *auth.TokenManager
	Penalties    *ledger.Service
	Checkins     *checkin.Service
	Subscription *subscription.Service
	Mirror       *cache.Mirror
	Server       *api.Server
	cancel       context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New(version string) (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg, version)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config, version string) (*Daemon, error) {
	dataDir := cfg.Database.Dir
	if dataDir == "" {
		dataDir = mizanHome()
	}

	db, err := sqlite.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	secret := cfg.Auth.Secret
	if secret == "" {
		secret, err = loadOrCreateSecret(dataDir)
		if err != nil {
			return nil, fmt.Errorf("auth secret: %w", err)
		}
	}
	ttl := time.Duration(cfg.Auth.TokenTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	tokens := auth.NewTokenManager(secret, ttl)

	mirror := cache.NewMirror(cache.NewMemory(), db)
	penalties := ledger.NewService(db)
	checkins := checkin.NewService(db, penalties, mirror)
	subs := subscription.NewService(db)

	srv := api.NewServer(db, tokens, checkins, penalties, subs, mirror, version)
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}

	return &Daemon{
		Config:       cfg,
		DB:           db,
		Tokens:       tokens,
		Penalties:    penalties,
		Checkins:     checkins,
		Subscription: subs,
		Mirror:       mirror,
		Server:       srv,
	}, nil
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	addr := fmt.Sprintf("%s:%d", d.Config.Server.Host, d.Config.Server.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		_ = httpServer.Shutdown(shutdownCtx)
		_ = d.DB.Close()
	}()

	fmt.Printf("Mizan serving on http://%s\n", addr)
	if d.Config.Telemetry.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}

// loadOrCreateSecret reads the signing secret from <dir>/auth_secret,
// generating and persisting one on first run.
func loadOrCreateSecret(dir string) (string, error) {
	path := filepath.Join(dir, "auth_secret")
	if raw, err := os.ReadFile(path); err == nil {
		secret := strings.TrimSpace(string(raw))
		if secret != "" {
			return secret, nil
		}
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	secret := hex.EncodeToString(buf)
	if err := os.WriteFile(path, []byte(secret+"\n"), 0600); err != nil {
		return "", err
	}
	return secret, nil
}
