// Package service реализует бизнес-логику сервиса сэндвич-бара.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/sandwichshop/internal/apperr"
	"github.com/mmeshcher/sandwichshop/internal/auth"
	"github.com/mmeshcher/sandwichshop/internal/model"
	"github.com/mmeshcher/sandwichshop/internal/repository"
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error

	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	CountUsers(ctx context.Context) (int64, error)

	ListSandwiches(ctx context.Context) ([]model.Sandwich, error)
	GetSandwich(ctx context.Context, id uuid.UUID) (*model.Sandwich, error)
	CreateSandwich(ctx context.Context, s *model.Sandwich) error
	UpdateSandwich(ctx context.Context, id uuid.UUID, upd model.SandwichUpdate) (*model.Sandwich, error)
	DeleteSandwich(ctx context.Context, id uuid.UUID) error
	CountSandwiches(ctx context.Context) (int64, error)

	CreateOrder(ctx context.Context, p repository.CreateOrderParams) (*model.OrderSet, error)
	ListOrders(ctx context.Context, f repository.OrderFilter) (*model.OrderSet, error)
	CountOrdersBetween(ctx context.Context, from, to time.Time) (int64, error)
}

// PlaceholderPassword задаёт пароль пользователей, созданных при оформлении заказа по имени.
const PlaceholderPassword = "password123"

// Options задаёт необязательные параметры сервиса.
type Options struct {
	// Location определяет границы календарного дня. По умолчанию UTC.
	Location *time.Location
	// PasswordCost задаёт стоимость bcrypt. По умолчанию auth.DefaultPasswordCost.
	PasswordCost int
	// Now подменяет источник времени в тестах.
	Now func() time.Time
}

// Service содержит бизнес-логику сервиса сэндвич-бара.
type Service struct {
	repo         Repository
	tokens       *auth.TokenManager
	loc          *time.Location
	passwordCost int
	now          func() time.Time

	placeholderHash []byte
}

// NewService создаёт сервис. tokens может быть nil для утилит, которые не выпускают токены.
func NewService(repo Repository, tokens *auth.TokenManager, opts Options) (*Service, error) {
	s := &Service{
		repo:         repo,
		tokens:       tokens,
		loc:          opts.Location,
		passwordCost: opts.PasswordCost,
		now:          opts.Now,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.passwordCost == 0 {
		s.passwordCost = auth.DefaultPasswordCost
	}
	if s.now == nil {
		s.now = time.Now
	}

	hash, err := auth.HashPassword(PlaceholderPassword, s.passwordCost)
	if err != nil {
		return nil, fmt.Errorf("placeholder password: %w", err)
	}
	s.placeholderHash = hash

	return s, nil
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// Location возвращает часовой пояс, в котором считаются календарные дни.
func (s *Service) Location() *time.Location {
	return s.loc
}

// infraError превращает ошибку хранилища в доменную: таймаут становится временной недоступностью,
// остальное становится внутренней ошибкой.
func infraError(op string, err error) error {
	if errors.Is(err, repository.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.KindUnavailable, op, "service temporarily unavailable, please retry", err)
	}
	return apperr.Internal(op, err)
}

// dayWindow возвращает полуинтервал [00:00, следующие 00:00) календарного дня t в часовом поясе loc.
func dayWindow(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
