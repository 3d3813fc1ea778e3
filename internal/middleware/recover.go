package middleware

import (
	"fmt"
	"net/http"

	"scms/internal/api/respond"
	"scms/internal/apperr"
)

// RecoverMiddleware turns a handler panic into a 500 response.
func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			respond.Error(w, r, apperr.Wrap(apperr.Internal, "Internal server error", "panic", fmt.Errorf("panic: %v", rec)))
		}()
		next.ServeHTTP(w, r)
	})
}
