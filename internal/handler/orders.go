package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/sandwichshop/internal/apperr"
	"github.com/mmeshcher/sandwichshop/internal/auth"
	"github.com/mmeshcher/sandwichshop/internal/middleware"
	"github.com/mmeshcher/sandwichshop/internal/model"
	"github.com/mmeshcher/sandwichshop/internal/service"
	"github.com/mmeshcher/sandwichshop/internal/validation"
)

type orderItemRequest struct {
	SandwichID string `json:"sandwichId" validate:"required,uuid"`
	Quantity   int    `json:"quantity" validate:"required,min=1,max=2147483647"`
}

type createOrderRequest struct {
	UserName string             `json:"userName"`
	UserID   string             `json:"userId" validate:"omitempty,uuid"`
	Items    []orderItemRequest `json:"items" validate:"dive"`
}

// CreateOrder оформляет заказ.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !h.decode(w, r, &req) {
		return
	}

	in := service.CreateOrderInput{
		UserName: req.UserName,
		Items:    make([]model.OrderItemInput, 0, len(req.Items)),
	}
	if req.UserID != "" {
		id, err := validation.ParseID("userId", req.UserID)
		if err != nil {
			h.renderer.Error(w, r, err)
			return
		}
		in.UserID = &id
	}
	for _, it := range req.Items {
		id, err := validation.ParseID("sandwichId", it.SandwichID)
		if err != nil {
			h.renderer.Error(w, r, err)
			return
		}
		in.Items = append(in.Items, model.OrderItemInput{SandwichID: id, Quantity: it.Quantity})
	}

	view, err := h.service.CreateOrder(r.Context(), in)
	if err != nil {
		h.renderer.Error(w, r, err)
		return
	}

	h.logger.Debug("order created",
		zap.String("order_id", view.ID.String()),
		zap.String("user_id", view.User.ID.String()),
		zap.Int("items", len(view.Items)),
	)
	h.renderer.JSON(w, http.StatusCreated, view)
}

// ListOrders возвращает все заказы, при наличии ?date= только за этот день.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	day, err := h.dayQuery(r)
	if err != nil {
		h.renderer.Error(w, r, err)
		return
	}

	orders, err := h.service.ListOrders(r.Context(), day)
	if err != nil {
		h.renderer.Error(w, r, err)
		return
	}

	h.renderer.JSON(w, http.StatusOK, orders)
}

// ListUserOrders возвращает заказы пользователя. Обычный пользователь видит только свои.
func (h *Handler) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	const op = "list user orders"

	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.renderer.Error(w, r, apperr.New(apperr.KindAuth, op, auth.MsgNotLoggedIn))
		return
	}

	userID, err := validation.ParseID("userId", chi.URLParam(r, "userId"))
	if err != nil {
		h.renderer.Error(w, r, err)
		return
	}
	if !canReadOrdersOf(caller, userID) {
		h.renderer.Error(w, r, apperr.New(apperr.KindForbidden, op, auth.MsgForbidden))
		return
	}

	day, err := h.dayQuery(r)
	if err != nil {
		h.renderer.Error(w, r, err)
		return
	}

	orders, err := h.service.ListUserOrders(r.Context(), userID, day)
	if err != nil {
		h.renderer.Error(w, r, err)
		return
	}

	h.renderer.JSON(w, http.StatusOK, orders)
}

func canReadOrdersOf(caller auth.Identity, userID uuid.UUID) bool {
	return caller.UserID == userID || caller.Role.Satisfies(model.RoleAdmin)
}

// AdminStats возвращает сводку за сегодня.
func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetAdminStats(r.Context())
	if err != nil {
		h.renderer.Error(w, r, err)
		return
	}

	h.renderer.JSON(w, http.StatusOK, stats)
}
