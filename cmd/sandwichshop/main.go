// Package main запускает HTTP-сервер сервиса сэндвич-бара.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/sandwichshop/internal/auth"
	"github.com/mmeshcher/sandwichshop/internal/config"
	"github.com/mmeshcher/sandwichshop/internal/handler"
	"github.com/mmeshcher/sandwichshop/internal/middleware"
	"github.com/mmeshcher/sandwichshop/internal/repository"
	"github.com/mmeshcher/sandwichshop/internal/response"
	"github.com/mmeshcher/sandwichshop/internal/service"
)

func newLogger(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	cfg, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.IsDevelopment())
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger initialization error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	sugar := logger.Sugar()

	if err := cfg.Validate(); err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}
	loc, _ := cfg.Location()

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI, cfg.DBQueryTimeout)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiresIn)
	if err != nil {
		sugar.Fatalw("token manager initialization error", "error", err.Error())
	}

	svc, err := service.NewService(repo, tokens, service.Options{Location: loc})
	if err != nil {
		repo.Close()
		sugar.Fatalw("service initialization error", "error", err.Error())
	}
	defer svc.Close()

	renderer := response.NewRenderer(logger, cfg.IsDevelopment())
	authMiddleware := middleware.NewAuthMiddleware(tokens, renderer, logger, !cfg.IsDevelopment())
	h := handler.NewHandler(svc, logger, authMiddleware, renderer, handler.Options{
		Location:        loc,
		CORSOrigins:     cfg.CORSOrigins,
		RateLimit:       cfg.RateLimit,
		RateLimitWindow: cfg.RateLimitWindow,
	})

	r := h.SetupRouter()

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting sandwichshop server",
			"addr", cfg.RunAddress,
			"env", cfg.AppEnv,
			"timezone", loc.String(),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
