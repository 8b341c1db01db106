package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"commerce-service/internal/api"
	"commerce-service/internal/cache"
	"commerce-service/internal/database"
	"commerce-service/internal/repository"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "ecommerce_api").Logger()

	if err := run(log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(log zerolog.Logger) error {
	cfg, err := database.LoadConfig()
	if err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	log = log.Level(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.ConnectDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, log); err != nil {
		return err
	}

	repos := api.Repositories{
		Users:    repository.NewUserRepository(pool),
		Products: repository.NewProductRepository(pool),
		Orders:   repository.NewOrderRepository(pool),
	}

	if cfg.CacheEnabled {
		rdb, err := cache.ConnectRedis(ctx, cfg)
		if err != nil {
			return err
		}
		defer rdb.Close()

		repos.Products = cache.NewCachedProductRepository(repos.Products, rdb, cfg.CacheTTL, log)
		log.Info().Str("addr", cfg.RedisURL).Dur("ttl", cfg.CacheTTL).Msg("product cache enabled")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(repos, log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
