// Package middleware содержит HTTP middleware сервиса сэндвич-бара.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mmeshcher/sandwichshop/internal/apperr"
	"github.com/mmeshcher/sandwichshop/internal/auth"
	"github.com/mmeshcher/sandwichshop/internal/model"
	"github.com/mmeshcher/sandwichshop/internal/response"
)

type contextKey string

const identityKey contextKey = "identity"

// AuthCookieName задаёт имя cookie с токеном доступа.
const AuthCookieName = "jwt"

// AuthMiddleware проверяет токен доступа из заголовка Authorization или cookie.
type AuthMiddleware struct {
	tokens       *auth.TokenManager
	renderer     *response.Renderer
	logger       *zap.Logger
	secureCookie bool
}

// NewAuthMiddleware создаёт AuthMiddleware. secureCookie включает флаг Secure у cookie.
func NewAuthMiddleware(tokens *auth.TokenManager, renderer *response.Renderer, logger *zap.Logger, secureCookie bool) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{
		tokens:       tokens,
		renderer:     renderer,
		logger:       logger,
		secureCookie: secureCookie,
	}
}

// Middleware проверяет токен и добавляет личность пользователя в контекст запроса.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const op = "authenticate"

		id, err := a.tokens.Verify(tokenFromRequest(r))
		if err != nil {
			reqID := zap.String("request_id", chimiddleware.GetReqID(r.Context()))
			switch {
			case errors.Is(err, auth.ErrTokenMissing):
				a.renderer.Error(w, r, apperr.Wrap(apperr.KindAuth, op, auth.MsgNotLoggedIn, err))
				return
			case errors.Is(err, auth.ErrTokenExpired):
				a.logger.Info("token expired", reqID)
			default:
				a.logger.Warn("token rejected", zap.Error(err), reqID)
			}
			a.renderer.Error(w, r, apperr.Wrap(apperr.KindAuth, op, auth.MsgLoginAgain, err))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// RequireRole пропускает запрос, только если роль пользователя удовлетворяет требуемой.
// Должен стоять после Middleware.
func (a *AuthMiddleware) RequireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				a.renderer.Error(w, r, apperr.New(apperr.KindAuth, "require role", auth.MsgNotLoggedIn))
				return
			}
			if !id.Role.Satisfies(role) {
				a.renderer.Error(w, r, apperr.New(apperr.KindForbidden, "require role", auth.MsgForbidden))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SetAuthCookie устанавливает cookie с токеном на время его жизни.
func (a *AuthMiddleware) SetAuthCookie(w http.ResponseWriter, token string) {
	ttl := a.tokens.TTL()

	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   a.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(AuthCookieName); err == nil {
		return c.Value
	}
	return ""
}

// WithIdentity кладёт личность пользователя в контекст.
func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext извлекает личность пользователя из контекста запроса.
func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(auth.Identity)
	return id, ok
}
