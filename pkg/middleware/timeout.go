package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout bounds the request context by d. Handlers observe the deadline
// through the context passed to the reader and map context.DeadlineExceeded
// to 504 themselves, so the response is never written from two goroutines.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
