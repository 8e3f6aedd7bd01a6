package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/diagnosis/spa-intake/internal/http/response"
	"github.com/diagnosis/spa-intake/pkg/auth"
	"github.com/diagnosis/spa-intake/pkg/logger"
)

type ctxKey string

const CtxClaims ctxKey = "claims"

// RequireAdmin lets a request through only with a valid bearer token carrying role admin.
func RequireAdmin(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := auth.AuthorizeAdmin(r.Header.Get("Authorization"), secret)
			switch {
			case errors.Is(err, auth.ErrNoToken):
				response.Unauthorized(w, "No token provided")
				return
			case errors.Is(err, auth.ErrForbidden):
				logger.WarnContext(r.Context(), "Admin route denied", "role", claims.Role, "path", r.URL.Path)
				response.Forbidden(w, "Forbidden")
				return
			case err != nil:
				response.Unauthorized(w, "Invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), CtxClaims, claims)
			ctx = context.WithValue(ctx, logger.RoleKey, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func Claims(r *http.Request) *auth.Claims {
	v := r.Context().Value(CtxClaims)
	if v == nil {
		return nil
	}
	return v.(*auth.Claims)
}
