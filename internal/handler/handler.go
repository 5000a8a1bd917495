// Package handler содержит HTTP-обработчики API сервиса сэндвич-бара.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/sandwichshop/internal/apperr"
	"github.com/mmeshcher/sandwichshop/internal/middleware"
	"github.com/mmeshcher/sandwichshop/internal/model"
	"github.com/mmeshcher/sandwichshop/internal/response"
	"github.com/mmeshcher/sandwichshop/internal/service"
	"github.com/mmeshcher/sandwichshop/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Signup(ctx context.Context, name, email, password string) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	GetCurrentUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)

	ListSandwiches(ctx context.Context) ([]model.Sandwich, error)
	GetSandwich(ctx context.Context, id uuid.UUID) (*model.Sandwich, error)
	CreateSandwich(ctx context.Context, in service.SandwichInput) (*model.Sandwich, error)
	UpdateSandwich(ctx context.Context, id uuid.UUID, upd model.SandwichUpdate) (*model.Sandwich, error)
	DeleteSandwich(ctx context.Context, id uuid.UUID) error

	CreateOrder(ctx context.Context, in service.CreateOrderInput) (*model.OrderView, error)
	ListOrders(ctx context.Context, day *time.Time) ([]model.OrderView, error)
	ListUserOrders(ctx context.Context, userID uuid.UUID, day *time.Time) ([]model.OrderView, error)
	GetAdminStats(ctx context.Context) (*model.Stats, error)
}

// Options задаёт параметры HTTP-слоя.
type Options struct {
	// Location определяет календарный день в фильтре ?date=.
	Location *time.Location
	// CORSOrigins перечисляет разрешённые источники CORS.
	CORSOrigins []string
	// RateLimit ограничивает число запросов к /api с одного IP за RateLimitWindow. Ноль отключает ограничение.
	RateLimit       int
	RateLimitWindow time.Duration
}

// Handler реализует HTTP-обработчики API сервиса сэндвич-бара.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	renderer       *response.Renderer
	validate       *validatorv10.Validate
	opts           Options
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, renderer *response.Renderer, opts Options) *Handler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.RateLimitWindow <= 0 {
		opts.RateLimitWindow = time.Hour
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}

	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
		renderer:       renderer,
		validate:       validation.New(),
		opts:           opts,
	}
}

// decode разбирает JSON-тело запроса и проверяет его по тегам validate.
// При ошибке ответ уже записан, и обработчик должен завершиться.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			h.renderer.Fail(w, http.StatusRequestEntityTooLarge, "request body too large")
		case errors.Is(err, io.EOF):
			h.renderer.Error(w, r, apperr.Validation("decode", "request body is empty"))
		default:
			h.renderer.Error(w, r, apperr.Wrap(apperr.KindValidation, "decode", "invalid request body", err))
		}
		return false
	}

	if err := validation.Struct(h.validate, dst); err != nil {
		h.renderer.Error(w, r, err)
		return false
	}
	return true
}

// dayQuery разбирает необязательный параметр ?date=.
func (h *Handler) dayQuery(r *http.Request) (*time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return nil, nil
	}

	day, err := validation.ParseDay(raw, h.opts.Location)
	if err != nil {
		return nil, err
	}
	return &day, nil
}

type userResponse struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
}

func newUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

type sandwichResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func newSandwichResponse(s *model.Sandwich) sandwichResponse {
	return sandwichResponse{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Price:       s.Price.InexactFloat64(),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
