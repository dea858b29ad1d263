package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/provosthq/provost/internal/api"
	"github.com/provosthq/provost/internal/audit"
	"github.com/provosthq/provost/internal/auth"
	"github.com/provosthq/provost/internal/config"
	"github.com/provosthq/provost/internal/membership"
	"github.com/provosthq/provost/internal/metrics"
	"github.com/provosthq/provost/internal/principal"
	"github.com/provosthq/provost/internal/ratelimit"
	"github.com/provosthq/provost/internal/tenant"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Provost API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}
	slog.Info("connected to database")

	principalStore := principal.NewStore(pool)
	membershipStore := membership.NewStore(pool)
	tenantStore := tenant.NewStore(pool)
	auditStore := audit.NewStore(pool)

	collector := audit.NewCollector(auditStore, cfg.Audit.BatchSize, cfg.Audit.FlushInterval)
	go collector.Start(ctx)

	verifier := auth.NewVerifier(principal.NewAuthAdapter(principalStore, membershipStore))
	tokens := auth.NewTokenManager(cfg.Session.Secret, cfg.Session.TTL, cfg.Session.Issuer)
	guard := auth.NewGuard(membershipStore)

	limiter := ratelimit.New(cfg.RateLimit.LoginAttempts, cfg.RateLimit.Window)

	m := metrics.New()
	m.RegisterDBPoolCollector(func() (total, idle, acquired int32) {
		stat := pool.Stat()
		return stat.TotalConns(), stat.IdleConns(), stat.AcquiredConns()
	})

	router := api.NewRouter(api.RouterDeps{
		Verifier:    verifier,
		Tokens:      tokens,
		Guard:       guard,
		Principals:  principalStore,
		Memberships: membershipStore,
		Tenants:     tenantStore,
		AuditStore:  auditStore,
		Collector:   collector,
		Limiter:     limiter,
		Metrics:     m,
		CORSOrigins: cfg.CORS.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-sigCh
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	collector.Stop()

	return srv.Shutdown(shutdownCtx)
}
