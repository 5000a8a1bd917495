package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/mmeshcher/sandwichshop/internal/apperr"
	"github.com/mmeshcher/sandwichshop/internal/auth"
	"github.com/mmeshcher/sandwichshop/internal/model"
	"github.com/mmeshcher/sandwichshop/internal/repository"
)

// Сообщения об ошибках аутентификации, которые видит клиент.
const (
	MsgInvalidCredentials = "incorrect email or password"
	MsgUserGone           = "the user belonging to this token no longer exists"
)

// Signup регистрирует пользователя и выпускает для него токен.
func (s *Service) Signup(ctx context.Context, name, email, password string) (*model.User, string, error) {
	const op = "signup"

	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, "", apperr.Validation(op, "name, email and password are required")
	}

	hash, err := auth.HashPassword(password, s.passwordCost)
	if err != nil {
		return nil, "", apperr.Internal(op, err)
	}

	u := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return nil, "", apperr.Wrap(apperr.KindValidation, op, "email is already in use", err)
		}
		return nil, "", infraError(op, err)
	}

	token, err := s.issueToken(op, u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

var checkPassword = auth.CheckPassword

// Login проверяет email и пароль и выпускает токен. Неизвестный email и неверный пароль
// дают одинаковую ошибку.
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	const op = "login"

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", apperr.Validation(op, "please provide email and password")
	}

	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Сравнение с заглушкой выравнивает время ответа с неверным паролем.
			checkPassword(s.placeholderHash, password)
			return nil, "", apperr.Wrap(apperr.KindAuth, op, MsgInvalidCredentials, err)
		}
		return nil, "", infraError(op, err)
	}

	if !checkPassword(u.PasswordHash, password) {
		return nil, "", apperr.New(apperr.KindAuth, op, MsgInvalidCredentials)
	}

	token, err := s.issueToken(op, u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *Service) issueToken(op string, u *model.User) (string, error) {
	if s.tokens == nil {
		return "", apperr.Internal(op, errors.New("token manager is not configured"))
	}

	token, err := s.tokens.Issue(auth.Identity{UserID: u.ID, Role: u.Role})
	if err != nil {
		return "", apperr.Internal(op, err)
	}
	return token, nil
}

// GetCurrentUser возвращает профиль пользователя из проверенного токена.
func (s *Service) GetCurrentUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	const op = "get current user"

	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperr.Wrap(apperr.KindAuth, op, MsgUserGone, err)
		}
		return nil, infraError(op, err)
	}
	return u, nil
}

// ListUsers возвращает всех пользователей.
func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, infraError("list users", err)
	}
	return users, nil
}

// CreateAdmin создаёт администратора. Если email уже занят, возвращает false без ошибки.
func (s *Service) CreateAdmin(ctx context.Context, name, email, password string) (bool, error) {
	const op = "create admin"

	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return false, apperr.Validation(op, "admin name, email and password are required")
	}

	_, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return false, infraError(op, err)
	}

	hash, err := auth.HashPassword(password, s.passwordCost)
	if err != nil {
		return false, apperr.Internal(op, err)
	}

	err = s.repo.CreateUser(ctx, &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	})
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return false, nil
		}
		return false, infraError(op, err)
	}
	return true, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
