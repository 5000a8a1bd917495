// Package auth выпускает и проверяет токены доступа и хеширует пароли.
package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mmeshcher/sandwichshop/internal/model"
)

var (
	// ErrTokenMissing возвращается, если токен не передан.
	ErrTokenMissing = errors.New("token missing")
	// ErrTokenExpired возвращается для просроченного токена.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid возвращается для повреждённого или поддельного токена.
	ErrTokenInvalid = errors.New("token invalid")
)

// Сообщения для клиента при отказе в доступе.
const (
	MsgNotLoggedIn = "you are not logged in. please log in to get access"
	MsgLoginAgain  = "please log in again"
	MsgForbidden   = "you do not have permission to perform this action"
)

// Identity содержит проверенные данные пользователя из токена.
type Identity struct {
	UserID uuid.UUID
	Role   model.Role
}

// Claims описывает полезную нагрузку токена доступа.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager подписывает и проверяет токены HS256.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager создаёт менеджер токенов с указанным секретом и временем жизни.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("invalid token ttl: %s", ttl)
	}

	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// TTL возвращает время жизни выпускаемых токенов.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue выпускает токен для указанной личности.
func (m *TokenManager) Issue(id Identity) (string, error) {
	now := m.now()
	claims := Claims{
		Role: string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify проверяет подпись и срок действия токена и возвращает личность.
// Просроченный токен даёт ErrTokenExpired, любой другой дефект даёт ErrTokenInvalid.
func (m *TokenManager) Verify(tokenStr string) (Identity, error) {
	if tokenStr == "" {
		return Identity{}, ErrTokenMissing
	}

	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return Identity{}, ErrTokenInvalid
	}

	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: bad subject", ErrTokenInvalid)
	}

	role := model.Role(c.Role)
	if !role.Valid() {
		return Identity{}, fmt.Errorf("%w: unknown role %q", ErrTokenInvalid, c.Role)
	}

	return Identity{UserID: userID, Role: role}, nil
}
