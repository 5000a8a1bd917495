package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/sandwichshop/internal/apperr"
	"github.com/mmeshcher/sandwichshop/internal/model"
	"github.com/mmeshcher/sandwichshop/internal/repository"
)

// CreateOrderInput описывает запрос на оформление заказа.
// Владелец задаётся через UserID либо через UserName; UserID имеет приоритет.
type CreateOrderInput struct {
	UserName string
	UserID   *uuid.UUID
	Items    []model.OrderItemInput
}

// CreateOrder оформляет заказ и возвращает его денормализованное представление.
// Проверка сэндвичей, поиск или создание владельца, запись заказа и позиций
// выполняются одной транзакцией в репозитории.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (*model.OrderView, error) {
	const op = "create order"

	userName := strings.TrimSpace(in.UserName)
	if (userName == "" && in.UserID == nil) || len(in.Items) == 0 {
		return nil, apperr.Validation(op, "name and at least one sandwich are required")
	}
	for i, it := range in.Items {
		if it.SandwichID == uuid.Nil {
			return nil, apperr.Validation(op, "items[%d]: sandwich id is required", i)
		}
		if it.Quantity < 1 {
			return nil, apperr.Validation(op, "items[%d]: quantity must be at least 1", i)
		}
		if it.Quantity > model.MaxQuantity {
			return nil, apperr.Validation(op, "items[%d]: quantity must be at most %d", i, model.MaxQuantity)
		}
	}

	params := repository.CreateOrderParams{
		UserID: in.UserID,
		Items:  in.Items,
		Date:   s.now(),
	}
	if in.UserID == nil {
		placeholder, err := s.placeholderUser(userName)
		if err != nil {
			return nil, apperr.Internal(op, err)
		}
		params.Placeholder = placeholder
	}

	set, err := s.repo.CreateOrder(ctx, params)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSandwichesMissing):
			return nil, apperr.Wrap(apperr.KindValidation, op, "one or more sandwiches do not exist", err)
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, apperr.Wrap(apperr.KindValidation, op, "no user found for this order", err)
		default:
			return nil, infraError(op, err)
		}
	}

	views := buildOrderViews(set)
	if len(views) != 1 {
		return nil, apperr.Internal(op, fmt.Errorf("expected one created order, got %d", len(views)))
	}
	return &views[0], nil
}

// placeholderUser строит пользователя для заказа по имени. Email уникален за счёт
// упорядоченного по времени суффикса UUIDv7.
func (s *Service) placeholderUser(name string) (*model.User, error) {
	suffix, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate email suffix: %w", err)
	}

	return &model.User{
		Name:         name,
		Email:        placeholderEmail(name, suffix),
		PasswordHash: s.placeholderHash,
		Role:         model.RoleUser,
	}, nil
}

func placeholderEmail(name string, suffix uuid.UUID) string {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, name)
	return fmt.Sprintf("%s_%s@example.com", compact, suffix)
}

// ListOrders возвращает все заказы по возрастанию даты. Если задан day, только за этот день.
func (s *Service) ListOrders(ctx context.Context, day *time.Time) ([]model.OrderView, error) {
	f := repository.OrderFilter{}
	s.applyDay(&f, day)

	set, err := s.repo.ListOrders(ctx, f)
	if err != nil {
		return nil, infraError("list orders", err)
	}
	return buildOrderViews(set), nil
}

// ListUserOrders возвращает заказы пользователя, начиная с самых свежих.
func (s *Service) ListUserOrders(ctx context.Context, userID uuid.UUID, day *time.Time) ([]model.OrderView, error) {
	f := repository.OrderFilter{UserID: &userID, Descending: true}
	s.applyDay(&f, day)

	set, err := s.repo.ListOrders(ctx, f)
	if err != nil {
		return nil, infraError("list user orders", err)
	}
	return buildOrderViews(set), nil
}

func (s *Service) applyDay(f *repository.OrderFilter, day *time.Time) {
	if day == nil {
		return
	}
	from, to := dayWindow(*day, s.loc)
	f.From, f.To = &from, &to
}

// GetAdminStats возвращает размер каталога, число пользователей и число заказов за сегодня.
func (s *Service) GetAdminStats(ctx context.Context) (*model.Stats, error) {
	from, to := dayWindow(s.now(), s.loc)

	var stats model.Stats
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.repo.CountSandwiches(ctx)
		stats.TotalSandwiches = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountOrdersBetween(ctx, from, to)
		stats.TotalOrders = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountUsers(ctx)
		stats.TotalUsers = n
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, infraError("admin stats", err)
	}
	return &stats, nil
}
