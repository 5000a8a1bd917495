package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/sandwichshop/internal/model"
)

const userColumns = `id, name, email, password_hash, role, created_at, updated_at`

// userNameLockSpace задаёт пространство advisory-блокировок для поиска пользователя по имени.
const userNameLockSpace = 7301

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u    model.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	return &u, nil
}

func insertUser(ctx context.Context, q querier, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = model.RoleUser
	}

	err := q.QueryRow(ctx,
		`INSERT INTO users (id, name, email, password_hash, role)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at`,
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role),
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if pgErrCode(err) == pgerrcode.UniqueViolation {
			return fmt.Errorf("%w: %s", ErrUserExists, u.Email)
		}
		return err
	}
	return nil
}

// CreateUser создаёт нового пользователя. Идентификатор генерируется, если не задан.
func (r *PostgresRepository) CreateUser(ctx context.Context, u *model.User) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := insertUser(ctx, r.pool, u); err != nil {
		if errors.Is(err, ErrUserExists) {
			return err
		}
		return wrapErr("create user", err)
	}
	return nil
}

// GetUserByID возвращает пользователя по идентификатору.
func (r *PostgresRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return getUserByID(ctx, r.pool, id)
}

func getUserByID(ctx context.Context, q querier, id uuid.UUID) (*model.User, error) {
	u, err := scanUser(q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, wrapErr("get user", err)
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по email.
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, wrapErr("get user by email", err)
	}
	return u, nil
}

// ListUsers возвращает всех пользователей в порядке регистрации.
func (r *PostgresRepository) ListUsers(ctx context.Context) ([]model.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, wrapErr("select users", err)
	}
	defer rows.Close()

	var res []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, wrapErr("scan user", err)
		}
		res = append(res, *u)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapErr("rows error", err)
	}

	return res, nil
}

// CountUsers возвращает количество пользователей.
func (r *PostgresRepository) CountUsers(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, wrapErr("count users", err)
	}
	return n, nil
}

// findOrCreateUserByName ищет самого раннего пользователя с именем placeholder.Name
// и создаёт placeholder, если такого нет. Вызывается внутри транзакции заказа:
// advisory-блокировка по имени сериализует параллельные заказы на одно и то же имя,
// поэтому двух пользователей с одним именем этот путь не создаёт.
// Имя не уникально в схеме, пользователей, созданных через регистрацию, блокировка не касается.
func findOrCreateUserByName(ctx context.Context, tx pgx.Tx, placeholder *model.User) (*model.User, error) {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1, hashtext($2))`, userNameLockSpace, placeholder.Name); err != nil {
		return nil, fmt.Errorf("lock user name: %w", err)
	}

	u, err := scanUser(tx.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE name = $1 ORDER BY created_at, id LIMIT 1`,
		placeholder.Name,
	))
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("find user by name: %w", err)
	}

	created := *placeholder
	if err := insertUser(ctx, tx, &created); err != nil {
		return nil, fmt.Errorf("create user by name: %w", err)
	}
	return &created, nil
}
