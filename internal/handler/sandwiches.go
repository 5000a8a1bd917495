package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/sandwichshop/internal/model"
	"github.com/mmeshcher/sandwichshop/internal/response"
	"github.com/mmeshcher/sandwichshop/internal/service"
	"github.com/mmeshcher/sandwichshop/internal/validation"
)

type createSandwichRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

type updateSandwichRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
}

// ListSandwiches возвращает каталог.
func (h *Handler) ListSandwiches(w http.ResponseWriter, r *http.Request) {
	sandwiches, err := h.service.ListSandwiches(r.Context())
	if err != nil {
		h.renderer.Error(w, r, err)
		return
	}

	resp := make([]sandwichResponse, 0, len(sandwiches))
	for i := range sandwiches {
		resp = append(resp, newSandwichResponse(&sandwiches[i]))
	}
	h.renderer.JSON(w, http.StatusOK, response.List(resp))
}

// GetSandwich возвращает сэндвич по идентификатору.
func (h *Handler) GetSandwich(w http.ResponseWriter, r *http.Request) {
	id, err := validation.ParseID("id", chi.URLParam(r, "id"))
	if err != nil {
		h.renderer.Error(w, r, err)
		return
	}

	sw, err := h.service.GetSandwich(r.Context(), id)
	if err != nil {
		h.renderer.Error(w, r, err)
		return
	}

	h.renderer.JSON(w, http.StatusOK, response.Success(newSandwichResponse(sw)))
}

// CreateSandwich добавляет сэндвич в каталог.
func (h *Handler) CreateSandwich(w http.ResponseWriter, r *http.Request) {
	var req createSandwichRequest
	if !h.decode(w, r, &req) {
		return
	}

	sw, err := h.service.CreateSandwich(r.Context(), service.SandwichInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		h.renderer.Error(w, r, err)
		return
	}

	h.renderer.JSON(w, http.StatusCreated, response.Success(newSandwichResponse(sw)))
}

// UpdateSandwich частично обновляет сэндвич.
func (h *Handler) UpdateSandwich(w http.ResponseWriter, r *http.Request) {
	id, err := validation.ParseID("id", chi.URLParam(r, "id"))
	if err != nil {
		h.renderer.Error(w, r, err)
		return
	}

	var req updateSandwichRequest
	if !h.decode(w, r, &req) {
		return
	}

	sw, err := h.service.UpdateSandwich(r.Context(), id, model.SandwichUpdate{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		h.renderer.Error(w, r, err)
		return
	}

	h.renderer.JSON(w, http.StatusOK, response.Success(newSandwichResponse(sw)))
}

// DeleteSandwich удаляет сэндвич, если он не встречается в заказах.
func (h *Handler) DeleteSandwich(w http.ResponseWriter, r *http.Request) {
	id, err := validation.ParseID("id", chi.URLParam(r, "id"))
	if err != nil {
		h.renderer.Error(w, r, err)
		return
	}

	if err := h.service.DeleteSandwich(r.Context(), id); err != nil {
		h.renderer.Error(w, r, err)
		return
	}

	h.renderer.JSON(w, http.StatusOK, response.Envelope{
		Status:  response.StatusSuccess,
		Message: "sandwich deleted successfully",
	})
}
