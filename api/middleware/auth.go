package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/docurail/metrodocs-backend/api/responses"
	pkgAuth "github.com/docurail/metrodocs-backend/pkg/auth"
	"github.com/docurail/metrodocs-backend/pkg/config"
	pkgerrors "github.com/docurail/metrodocs-backend/pkg/errors"
	"github.com/docurail/metrodocs-backend/pkg/logger"
	"github.com/docurail/metrodocs-backend/pkg/metrics"
	"github.com/google/uuid"
)

const bearerPrefix = "Bearer "

// Auth validates a bearer token and seeds the request context with the claims.
// Verification is a pure check of the presented token; no session store or
// database is consulted.
func Auth(cfg config.JWTConfig, m *metrics.APIMetrics, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("Authorization")
			if raw == "" {
				m.IncAuthFailure("no_token")
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "No token provided"))
				return
			}

			// The scheme prefix is stripped exactly once and matched
			// case-sensitively; anything else is treated as the raw token.
			token := strings.TrimPrefix(raw, bearerPrefix)
			if token == "" {
				m.IncAuthFailure("no_token")
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "No token provided"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				m.IncAuthFailure("invalid_token")
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "Invalid token"))
				return
			}

			principal := claims.PrincipalID()
			if principal == uuid.Nil {
				m.IncAuthFailure("invalid_token")
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxUserID, principal.String())
			ctx = context.WithValue(ctx, ctxRole, string(claims.Role))
			ctx = context.WithValue(ctx, ctxEmail, claims.Email)
			ctx = context.WithValue(ctx, ctxName, claims.Name)
			if claims.DepartmentID != nil {
				ctx = context.WithValue(ctx, ctxDepartmentID, claims.DepartmentID.String())
			}

			if logg != nil {
				fields := map[string]any{
					"user_id":    principal.String(),
					"actor_role": string(claims.Role),
				}
				if claims.DepartmentID != nil {
					fields["department_id"] = claims.DepartmentID.String()
				}
				ctx = logg.WithFields(ctx, fields)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
