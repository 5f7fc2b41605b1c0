// requestid.go — middleware сквозного идентификатора запроса.
// Берёт X-Request-Id из запроса клиента или генерирует новый UUID,
// кладёт его в контекст и дублирует в заголовок ответа.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// requestIDKey — ключ контекста для request id.
type requestIDKey struct{}

// headerRequestID — имя заголовка с идентификатором запроса.
const headerRequestID = "X-Request-Id"

// RequestID возвращает middleware, обеспечивающий каждому запросу
// уникальный идентификатор.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(headerRequestID)
			if id == "" {
				id = uuid.New().String()
			}

			w.Header().Set(headerRequestID, id)
			ctx := context.WithValue(r.Context(), requestIDKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext возвращает идентификатор запроса из контекста.
// Пустая строка — middleware не был подключён.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
