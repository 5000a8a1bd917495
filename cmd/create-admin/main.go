// Package main создаёт учётную запись администратора из параметров ADMIN_*.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/sandwichshop/internal/config"
	"github.com/mmeshcher/sandwichshop/internal/repository"
	"github.com/mmeshcher/sandwichshop/internal/service"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger initialization error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}
	if err := cfg.ValidateAdmin(); err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI, cfg.DBQueryTimeout)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}

	svc, err := service.NewService(repo, nil, service.Options{})
	if err != nil {
		repo.Close()
		sugar.Fatalw("service initialization error", "error", err.Error())
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created, err := svc.CreateAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		cancel()
		svc.Close()
		sugar.Fatalw("create admin failed", "email", cfg.AdminEmail, "error", err)
	}
	if !created {
		sugar.Infow("admin user already exists", "email", cfg.AdminEmail)
		return
	}
	sugar.Infow("admin user created", "email", cfg.AdminEmail)
}
