package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/docurail/metrodocs-backend/api/responses"
	"github.com/docurail/metrodocs-backend/pkg/enums"
	pkgerrors "github.com/docurail/metrodocs-backend/pkg/errors"
	"github.com/docurail/metrodocs-backend/pkg/logger"
	"github.com/docurail/metrodocs-backend/pkg/metrics"
)

// RequireRole gates a route to the given roles. It assumes Auth ran earlier
// in the chain; a request with no verified identity is rejected as
// unauthenticated rather than forbidden.
func RequireRole(m *metrics.APIMetrics, logg *logger.Logger, roles ...enums.UserRole) func(http.Handler) http.Handler {
	allowed := make(map[enums.UserRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	denial := accessDeniedMessage(roles)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := RoleFromContext(r.Context())
			if actor == "" {
				m.IncAuthFailure("no_identity")
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Invalid token"))
				return
			}
			if _, ok := allowed[enums.UserRole(actor)]; !ok {
				m.IncAuthFailure("role_denied")
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, denial))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin gates a route to administrators.
func RequireAdmin(m *metrics.APIMetrics, logg *logger.Logger) func(http.Handler) http.Handler {
	return RequireRole(m, logg, enums.UserRoleAdmin)
}

func accessDeniedMessage(roles []enums.UserRole) string {
	if len(roles) == 0 {
		return "Access denied."
	}
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, string(role))
	}
	return fmt.Sprintf("Access denied. %s role required.", strings.Join(names, " or "))
}
