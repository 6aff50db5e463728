package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"tutorcenter/internal/adapters/email"
	web "tutorcenter/internal/adapters/http"
	"tutorcenter/internal/adapters/http/perf"
	"tutorcenter/internal/adapters/resettoken"
	"tutorcenter/internal/adapters/session"
	"tutorcenter/internal/adapters/storage"
	accountStore "tutorcenter/internal/adapters/storage/account"
	profileStore "tutorcenter/internal/adapters/storage/profile"
	scheduleStore "tutorcenter/internal/adapters/storage/schedule"
	"tutorcenter/internal/application/orchestrators"
	"tutorcenter/internal/config"
	"tutorcenter/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("server_exit", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(logger.NewWith(os.Stdout, logger.ParseLevel(cfg.LogLevel), logger.ParseFormat(cfg.LogFormat)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := storage.MigrateDB(db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, cfg.SlowQuery)
	accounts := accountStore.NewSQLiteStore(timedDB)
	profiles := profileStore.NewSQLiteStore(timedDB)
	schedules := scheduleStore.NewSQLiteStore(timedDB)

	sessions, err := newSessionStore(ctx, cfg)
	if err != nil {
		return err
	}

	var mailer email.Sender = email.NewLogSender()
	if cfg.ResendAPIKey != "" {
		mailer = email.NewResendSender(cfg.ResendAPIKey, cfg.MailFrom, cfg.ReplyTo)
		slog.Info("mailer_configured", "provider", "resend")
	} else {
		slog.Warn("mailer_configured", "provider", "log", "hint", "set "+config.Prefix+"RESEND_API_KEY for real delivery")
	}

	branding := email.Branding{Center: cfg.Center, BaseURL: cfg.BaseURL}
	seedDeps := orchestrators.CreateAccountDeps{
		AccountStore: accounts,
		Enroller:     profiles,
		Branding:     branding,
		GenerateID:   uuid.NewString,
		Now:          time.Now,
	}
	if err := orchestrators.ExecuteSeedAdmin(ctx, seedDeps, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if !cfg.IsProduction() && cfg.DemoDomain != "" {
		n, err := orchestrators.ExecuteSeedDemoAccounts(ctx, seedDeps, cfg.DemoDomain)
		if err != nil {
			return fmt.Errorf("seed demo accounts: %w", err)
		}
		slog.Info("demo_accounts_seeded", "created", n, "domain", cfg.DemoDomain)
	}

	srv, err := web.NewServer(web.Deps{
		Accounts:  accounts,
		Profiles:  profiles,
		Schedules: schedules,
		Sessions:  session.NewManager(sessions, cfg.SessionTTL),
		Mailer:    mailer,
		Tokens:    resettoken.NewIssuer(cfg.ResetSecret, cfg.ResetTTL),
		Collector: collector,
		DB:        timedDB,
	}, web.Options{
		CSRFKey:        cfg.CSRFKey,
		SecureCookies:  cfg.SecureCookies(),
		TrustedOrigins: cfg.TrustedOrigins,
		Branding:       branding,
		ResetTTL:       cfg.ResetTTL,
		SlowRequest:    cfg.SlowRequest,
		RateLimit:      cfg.RateLimit,
	})
	if err != nil {
		return err
	}
	go srv.Limiter().RunCleanup(ctx)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_starting",
			"version", version,
			"addr", cfg.Addr,
			"env", cfg.Env,
			"sessions", cfg.SessionBackend,
			"schema", storage.LatestSchemaVersion(),
		)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// newSessionStore picks the configured session backend. The memory store's
// janitor runs until ctx is done.
func newSessionStore(ctx context.Context, cfg config.Config) (session.Store, error) {
	if cfg.SessionBackend == config.BackendRedis {
		client, err := session.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		context.AfterFunc(ctx, func() { client.Close() })
		return session.NewRedisStore(client), nil
	}
	store := session.NewMemoryStore()
	go store.RunJanitor(ctx, time.Minute)
	return store, nil
}
