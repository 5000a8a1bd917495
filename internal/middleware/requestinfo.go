package middleware

import (
	"context"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

const requestInfoKey contextKey = "requestInfo"

// RequestInfo содержит сведения о запросе, доступные обработчикам через контекст.
type RequestInfo struct {
	ID         string
	ReceivedAt time.Time
}

// WithRequestInfo запоминает идентификатор и время поступления запроса.
// Должен стоять после chi RequestID.
func WithRequestInfo(now func() time.Time) func(http.Handler) http.Handler {
	if now == nil {
		now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := RequestInfo{
				ID:         chimiddleware.GetReqID(r.Context()),
				ReceivedAt: now(),
			}
			ctx := context.WithValue(r.Context(), requestInfoKey, info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestInfoFromContext возвращает сведения о запросе.
func RequestInfoFromContext(ctx context.Context) (RequestInfo, bool) {
	info, ok := ctx.Value(requestInfoKey).(RequestInfo)
	return info, ok
}
