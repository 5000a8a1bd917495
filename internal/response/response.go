// Package response формирует JSON-ответы API: успешные конверты и ошибки.
package response

import (
	"encoding/json"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mmeshcher/sandwichshop/internal/apperr"
)

const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// retryAfterSeconds отдаётся клиенту вместе с 503.
const retryAfterSeconds = "5"

// Envelope описывает конверт ответов каталога и аутентификации.
type Envelope struct {
	Status  string `json:"status"`
	Results *int   `json:"results,omitempty"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ErrorBody описывает тело ответа с ошибкой.
type ErrorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// Renderer пишет ответы и журналирует внутренние ошибки.
type Renderer struct {
	logger      *zap.Logger
	development bool
}

// NewRenderer создаёт Renderer. В режиме разработки ответы с ошибкой содержат detail.
func NewRenderer(logger *zap.Logger, development bool) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{logger: logger, development: development}
}

// Success возвращает конверт со статусом success.
func Success(data any) Envelope {
	return Envelope{Status: StatusSuccess, Data: data}
}

// List возвращает конверт со списком и числом элементов.
func List[T any](items []T) Envelope {
	if items == nil {
		items = []T{}
	}
	n := len(items)
	return Envelope{Status: StatusSuccess, Results: &n, Data: items}
}

// JSON сериализует v с указанным статусом.
func (rr *Renderer) JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		rr.logger.Warn("encode response", zap.Error(err))
	}
}

// Error отображает ошибку в HTTP-ответ по её категории.
func (rr *Renderer) Error(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := kind.HTTPStatus()

	body := ErrorBody{
		Status:  StatusFail,
		Message: apperr.MessageOf(err),
	}
	if status >= http.StatusInternalServerError {
		body.Status = StatusError
	}
	if rr.development {
		body.Detail = err.Error()
	}

	fields := []zap.Field{
		zap.Error(err),
		zap.String("kind", kind.String()),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", chimiddleware.GetReqID(r.Context())),
	}
	switch kind {
	case apperr.KindInternal:
		rr.logger.Error("request failed", fields...)
	case apperr.KindUnavailable:
		rr.logger.Warn("request failed", fields...)
		w.Header().Set("Retry-After", retryAfterSeconds)
	default:
		rr.logger.Debug("request rejected", fields...)
	}

	rr.JSON(w, status, body)
}

// Fail отвечает ошибкой клиента с заданным статусом и сообщением, минуя apperr.
func (rr *Renderer) Fail(w http.ResponseWriter, status int, message string) {
	rr.JSON(w, status, ErrorBody{Status: StatusFail, Message: message})
}
