package middleware

import (
	"context"
	"net/http"
	"strings"

	"scms/internal/api/respond"
	"scms/internal/apperr"
	"scms/internal/model"
)

// Injected key type to avoid context collisions
type contextKey string

const studentContextKey = contextKey("student")

const bearerPrefix = "Bearer "

// Authenticator resolves the student behind a bearer token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Student, error)
}

// AuthMiddleware is the verification gate in front of protected routes. It
// requires an "Authorization: Bearer <token>" header and attaches the
// resolved student to the request context.
func AuthMiddleware(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := extractBearerToken(r.Header.Get("Authorization"))
			if !ok {
				respond.Error(w, r, apperr.New(apperr.TokenMissing, "Not authorized, token missing"))
				return
			}

			student, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				respond.Error(w, r, err)
				return
			}

			ctx := WithStudent(r.Context(), student)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithStudent returns a copy of ctx carrying s.
func WithStudent(ctx context.Context, s *model.Student) context.Context {
	return context.WithValue(ctx, studentContextKey, s)
}

// StudentFromContext returns the student attached by AuthMiddleware.
func StudentFromContext(ctx context.Context) (*model.Student, bool) {
	s, ok := ctx.Value(studentContextKey).(*model.Student)
	return s, ok && s != nil
}

func extractBearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	return token, token != ""
}
