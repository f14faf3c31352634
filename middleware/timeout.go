package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/upb/estimate-api/utils"
)

// Timeout cancels the request context after timeout. If the deadline passes
// before the handler wrote anything, it answers 504 with the status name.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				cancel()
				if errors.Is(ctx.Err(), context.DeadlineExceeded) && ww.Status() == 0 {
					utils.WriteStatus(w, http.StatusGatewayTimeout)
				}
			}()

			next.ServeHTTP(ww, r.WithContext(ctx))
		})
	}
}
