package engine

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Тип для ключа в контексте (избегаем коллизий)
type ctxKey string

const traceIDKey ctxKey = "trace_id"

// TraceHeader - заголовок сквозного идентификатора запроса.
const TraceHeader = "X-Trace-ID"

// TracingMiddleware инициализирует Trace-ID для каждого запроса
func TracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Берем ID из заголовка (если пришел от прокси), иначе генерируем
		traceID := r.Header.Get(TraceHeader)
		if traceID == "" {
			traceID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), traceIDKey, traceID)

		// Возвращаем клиенту, чтобы он знал ID своего запроса
		w.Header().Set(TraceHeader, traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TraceID помогает безопасно достать ID в любом месте кода
func TraceID(ctx context.Context) string {
	if id, ok := ctx.Value(traceIDKey).(string); ok {
		return id
	}
	return "00000000-0000-0000-0000-000000000000" // Fallback
}
