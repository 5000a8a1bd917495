package handler

import (
	"net/http"

	"github.com/mmeshcher/sandwichshop/internal/apperr"
	"github.com/mmeshcher/sandwichshop/internal/auth"
	"github.com/mmeshcher/sandwichshop/internal/middleware"
	"github.com/mmeshcher/sandwichshop/internal/response"
)

type signupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup регистрирует пользователя и устанавливает cookie с токеном.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !h.decode(w, r, &req) {
		return
	}

	u, token, err := h.service.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.renderer.Error(w, r, err)
		return
	}

	h.authMiddleware.SetAuthCookie(w, token)
	h.renderer.JSON(w, http.StatusCreated, response.Envelope{
		Status: response.StatusSuccess,
		Token:  token,
		Data:   newUserResponse(u),
	})
}

// Login выполняет аутентификацию пользователя и устанавливает cookie с токеном.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	u, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.renderer.Error(w, r, err)
		return
	}

	h.authMiddleware.SetAuthCookie(w, token)
	h.renderer.JSON(w, http.StatusOK, response.Envelope{
		Status: response.StatusSuccess,
		Token:  token,
		Data:   newUserResponse(u),
	})
}

// Me возвращает профиль текущего пользователя.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.renderer.Error(w, r, apperr.New(apperr.KindAuth, "me", auth.MsgNotLoggedIn))
		return
	}

	u, err := h.service.GetCurrentUser(r.Context(), id.UserID)
	if err != nil {
		h.renderer.Error(w, r, err)
		return
	}

	h.renderer.JSON(w, http.StatusOK, response.Success(newUserResponse(u)))
}

// ListUsers возвращает всех пользователей.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.renderer.Error(w, r, err)
		return
	}

	resp := make([]userResponse, 0, len(users))
	for i := range users {
		resp = append(resp, newUserResponse(&users[i]))
	}
	h.renderer.JSON(w, http.StatusOK, response.List(resp))
}
