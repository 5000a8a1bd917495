package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/sandwichshop/internal/apperr"
	"github.com/mmeshcher/sandwichshop/internal/model"
	"github.com/mmeshcher/sandwichshop/internal/repository"
)

// SandwichInput описывает новую позицию каталога.
type SandwichInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
}

const (
	msgSandwichNotFound = "no sandwich found with that id"
	msgSandwichOrdered  = "cannot delete a sandwich that has been ordered"
)

// ListSandwiches возвращает каталог, отсортированный по имени.
func (s *Service) ListSandwiches(ctx context.Context) ([]model.Sandwich, error) {
	res, err := s.repo.ListSandwiches(ctx)
	if err != nil {
		return nil, infraError("list sandwiches", err)
	}
	return res, nil
}

// GetSandwich возвращает сэндвич по идентификатору.
func (s *Service) GetSandwich(ctx context.Context, id uuid.UUID) (*model.Sandwich, error) {
	const op = "get sandwich"

	res, err := s.repo.GetSandwich(ctx, id)
	if err != nil {
		return nil, sandwichError(op, "", err)
	}
	return res, nil
}

// CreateSandwich добавляет сэндвич в каталог.
func (s *Service) CreateSandwich(ctx context.Context, in SandwichInput) (*model.Sandwich, error) {
	const op = "create sandwich"

	name := strings.TrimSpace(in.Name)
	if name == "" || !validPrice(in.Price) {
		return nil, apperr.Validation(op, "name and valid price are required")
	}

	sw := &model.Sandwich{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price.Round(2),
	}
	if err := s.repo.CreateSandwich(ctx, sw); err != nil {
		return nil, sandwichError(op, sw.Name, err)
	}
	return sw, nil
}

// UpdateSandwich применяет частичное обновление к позиции каталога.
func (s *Service) UpdateSandwich(ctx context.Context, id uuid.UUID, upd model.SandwichUpdate) (*model.Sandwich, error) {
	const op = "update sandwich"

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			upd.Name = nil
		} else {
			upd.Name = &name
		}
	}
	if upd.Description != nil {
		desc := strings.TrimSpace(*upd.Description)
		upd.Description = &desc
	}
	if upd.Empty() || (upd.Price != nil && !validPrice(*upd.Price)) {
		return nil, apperr.Validation(op, "valid fields are required for update")
	}
	if upd.Price != nil {
		price := upd.Price.Round(2)
		upd.Price = &price
	}

	res, err := s.repo.UpdateSandwich(ctx, id, upd)
	if err != nil {
		var name string
		if upd.Name != nil {
			name = *upd.Name
		}
		return nil, sandwichError(op, name, err)
	}
	return res, nil
}

// DeleteSandwich удаляет сэндвич, если он ни разу не заказывался.
func (s *Service) DeleteSandwich(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteSandwich(ctx, id); err != nil {
		return sandwichError("delete sandwich", "", err)
	}
	return nil
}

// validPrice требует положительную цену, которая не обращается в ноль при округлении
// до копеек и помещается в int64.
func validPrice(p decimal.Decimal) bool {
	return model.PriceFitsCents(p) && model.PriceToCents(p) > 0
}

func sandwichError(op, name string, err error) error {
	switch {
	case errors.Is(err, repository.ErrSandwichNotFound):
		return apperr.Wrap(apperr.KindNotFound, op, msgSandwichNotFound, err)
	case errors.Is(err, repository.ErrSandwichExists):
		return apperr.Wrap(apperr.KindValidation, op, "duplicate field value: "+name+". please use another value", err)
	case errors.Is(err, repository.ErrSandwichOrdered):
		return apperr.Wrap(apperr.KindConflict, op, msgSandwichOrdered, err)
	default:
		return infraError(op, err)
	}
}
