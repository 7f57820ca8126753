package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/timestats/internal/api"
	"example.com/timestats/internal/auth"
	"example.com/timestats/internal/config"
	"example.com/timestats/internal/logging"
	persistence "example.com/timestats/internal/persistence/postgres"
	httptransport "example.com/timestats/internal/transport/http"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogPretty).With().Str("service", "timestats-api").Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := persistence.Migrate(cfg.PostgresURL); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply migrations")
	}

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()

	repo := persistence.NewRepository(pool)
	if err := repo.Ping(ctx); err != nil {
		logger.Warn().Err(err).Msg("postgres not reachable yet")
	}

	handler := api.NewHandler(repo, logger)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}, auth.SkipOperational)
	if !authMiddleware.Config.Enabled() {
		logger.Info().Msg("JWT_SECRET unset, serving /timestats without auth")
	}

	server := httptransport.NewServer(httptransport.DefaultServerConfig(cfg.HTTPAddress), httptransport.Chain(mux,
		httptransport.RequestID,
		httptransport.AccessLog(logger),
		httptransport.CORS(""),
		httptransport.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		authMiddleware.Wrap,
	))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress).Msg("timestats api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
