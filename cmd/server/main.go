package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caten-app/backend/internal/config"
	delivery "github.com/caten-app/backend/internal/delivery/http"
	"github.com/caten-app/backend/internal/googleauth"
	"github.com/caten-app/backend/internal/logging"
	"github.com/caten-app/backend/internal/middleware"
	"github.com/caten-app/backend/internal/repository/postgres"
	"github.com/caten-app/backend/internal/token"
	"github.com/caten-app/backend/internal/usecase"
)

const (
	tokenSweepInterval  = 12 * time.Hour
	tokenSweepRetention = 24 * time.Hour
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.Log.Level)
	log.Info().Str("port", cfg.Server.Port).Msg("caten auth backend starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL with retry
	var pool *pgxpool.Pool
	for attempt := 1; ; attempt++ {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		var err error
		pool, err = postgres.NewPool(connectCtx, cfg.Database.URL)
		cancel()
		if err == nil {
			log.Info().Msg("connected to postgres")
			break
		}
		if attempt == 5 {
			log.Fatal().Err(err).Msg("could not connect to database after 5 attempts")
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("database connection failed, retrying")
		time.Sleep(time.Duration(attempt) * 2 * time.Second)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, cfg.Database.URL); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	verifier, err := googleauth.NewIDTokenVerifier(ctx, cfg.Google.ClientID, cfg.Google.VerifyTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("creating google verifier failed")
	}

	codec := token.NewCodec(cfg.JWT.Secret, cfg.JWT.AccessExpiry, cfg.JWT.Leeway)

	authUsecase := usecase.NewAuthUsecase(
		postgres.NewUserRepository(pool),
		postgres.NewRefreshTokenRepository(pool),
		postgres.NewDeviceCounterRepository(pool),
		postgres.NewLoginEventRepository(pool),
		verifier,
		codec,
		cfg.JWT.RefreshExpiry,
		cfg.RateLimit.DeviceMaxRequests,
		log,
	)

	authMiddleware := middleware.NewAuthMiddleware(authUsecase, log)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute)
	handler := delivery.NewHandler(authUsecase, log)
	router := delivery.NewRouter(handler, authMiddleware, rateLimiter, cfg.CORS.AllowedOrigins)

	// Sweep stale refresh token rows in the background.
	go func() {
		ticker := time.NewTicker(tokenSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := authUsecase.SweepExpiredTokens(ctx, tokenSweepRetention)
				if err != nil {
					log.Warn().Err(err).Msg("refresh token sweep failed")
					continue
				}
				if n > 0 {
					log.Info().Int64("deleted", n).Msg("swept expired refresh tokens")
				}
			}
		}
	}()

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	log.Info().Str("addr", server.Addr).Msg("listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("server stopped")
}
