package middleware

import (
	"fmt"
	"net/http"

	"github.com/upb/estimate-api/utils"
	"go.uber.org/zap"
)

// Recoverer turns panics into a 500 "Server Error" response and logs the
// panic value with its stack trace
func Recoverer(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				logger.Error("panic while serving request",
					zap.String("request_id", GetRequestIDFromContext(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("panic", fmt.Sprint(rvr)),
					zap.Stack("stack"))

				utils.WriteServerError(w)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
