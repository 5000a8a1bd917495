package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/sandwichshop/internal/model"
)

const sandwichColumns = `id, name, description, price, created_at, updated_at`

func scanSandwich(row rowScanner) (*model.Sandwich, error) {
	var (
		s          model.Sandwich
		priceCents int64
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Description, &priceCents, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Price = model.PriceFromCents(priceCents)
	return &s, nil
}

func collectSandwiches(rows pgx.Rows) ([]model.Sandwich, error) {
	defer rows.Close()

	var res []model.Sandwich
	for rows.Next() {
		s, err := scanSandwich(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sandwich: %w", err)
		}
		res = append(res, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	res := make([]string, 0, len(ids))
	for _, id := range ids {
		res = append(res, id.String())
	}
	return res
}

// ListSandwiches возвращает каталог, отсортированный по имени.
func (r *PostgresRepository) ListSandwiches(ctx context.Context) ([]model.Sandwich, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT `+sandwichColumns+` FROM sandwiches ORDER BY name`)
	if err != nil {
		return nil, wrapErr("select sandwiches", err)
	}

	res, err := collectSandwiches(rows)
	if err != nil {
		return nil, wrapErr("list sandwiches", err)
	}
	return res, nil
}

// GetSandwich возвращает сэндвич по идентификатору.
func (r *PostgresRepository) GetSandwich(ctx context.Context, id uuid.UUID) (*model.Sandwich, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	s, err := scanSandwich(r.pool.QueryRow(ctx, `SELECT `+sandwichColumns+` FROM sandwiches WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSandwichNotFound
		}
		return nil, wrapErr("get sandwich", err)
	}
	return s, nil
}

// GetSandwichesByIDs возвращает найденные сэндвичи из указанного набора идентификаторов.
func (r *PostgresRepository) GetSandwichesByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Sandwich, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.pool.Query(ctx,
		`SELECT `+sandwichColumns+` FROM sandwiches WHERE id = ANY($1::uuid[])`,
		uuidStrings(ids),
	)
	if err != nil {
		return nil, wrapErr("select sandwiches by ids", err)
	}

	res, err := collectSandwiches(rows)
	if err != nil {
		return nil, wrapErr("sandwiches by ids", err)
	}
	return res, nil
}

// CreateSandwich добавляет сэндвич в каталог.
func (r *PostgresRepository) CreateSandwich(ctx context.Context, s *model.Sandwich) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO sandwiches (id, name, description, price)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		s.ID, s.Name, s.Description, model.PriceToCents(s.Price),
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if pgErrCode(err) == pgerrcode.UniqueViolation {
			return fmt.Errorf("%w: %s", ErrSandwichExists, s.Name)
		}
		return wrapErr("create sandwich", err)
	}
	return nil
}

// UpdateSandwich применяет частичное обновление и возвращает итоговое состояние.
func (r *PostgresRepository) UpdateSandwich(ctx context.Context, id uuid.UUID, upd model.SandwichUpdate) (*model.Sandwich, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sets := make([]string, 0, 4)
	args := []any{id}

	if upd.Name != nil {
		args = append(args, *upd.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if upd.Description != nil {
		args = append(args, *upd.Description)
		sets = append(sets, fmt.Sprintf("description = $%d", len(args)))
	}
	if upd.Price != nil {
		args = append(args, model.PriceToCents(*upd.Price))
		sets = append(sets, fmt.Sprintf("price = $%d", len(args)))
	}
	sets = append(sets, "updated_at = now()")

	s, err := scanSandwich(r.pool.QueryRow(ctx,
		`UPDATE sandwiches SET `+strings.Join(sets, ", ")+` WHERE id = $1 RETURNING `+sandwichColumns,
		args...,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSandwichNotFound
		}
		if pgErrCode(err) == pgerrcode.UniqueViolation && upd.Name != nil {
			return nil, fmt.Errorf("%w: %s", ErrSandwichExists, *upd.Name)
		}
		return nil, wrapErr("update sandwich", err)
	}
	return s, nil
}

// DeleteSandwich удаляет сэндвич, если на него не ссылается ни одна позиция заказа.
// Проверка и удаление выполняются в одной транзакции под блокировкой строки сэндвича;
// создание заказа берёт на те же строки FOR SHARE, поэтому операции сериализуются.
func (r *PostgresRepository) DeleteSandwich(ctx context.Context, id uuid.UUID) error {
	return r.withRetry(ctx, func() error {
		ctx, cancel := r.withTimeout(ctx)
		defer cancel()

		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return wrapErr("begin tx", err)
		}
		defer tx.Rollback(ctx)

		var locked uuid.UUID
		err = tx.QueryRow(ctx, `SELECT id FROM sandwiches WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrSandwichNotFound
			}
			return wrapErr("lock sandwich", err)
		}

		var referenced bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM order_items WHERE sandwich_id = $1)`,
			id,
		).Scan(&referenced)
		if err != nil {
			return wrapErr("check sandwich references", err)
		}
		if referenced {
			return ErrSandwichOrdered
		}

		if _, err := tx.Exec(ctx, `DELETE FROM sandwiches WHERE id = $1`, id); err != nil {
			if pgErrCode(err) == pgerrcode.ForeignKeyViolation {
				return ErrSandwichOrdered
			}
			return wrapErr("delete sandwich", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return wrapErr("commit tx", err)
		}
		return nil
	})
}

// CountSandwiches возвращает размер каталога.
func (r *PostgresRepository) CountSandwiches(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sandwiches`).Scan(&n); err != nil {
		return 0, wrapErr("count sandwiches", err)
	}
	return n, nil
}
