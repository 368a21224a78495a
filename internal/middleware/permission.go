package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/token-manager/internal/rbac"
)

// RequirePermission allows the request only when the caller's role grants p.
// It must run after Authenticate.
func RequirePermission(p rbac.Permission) echo.MiddlewareFunc {
	return guard(p, func(role rbac.Role) bool { return rbac.HasPermission(role, p) })
}

// RequireAllPermissions allows the request only when every permission in ps
// is granted.
func RequireAllPermissions(ps ...rbac.Permission) echo.MiddlewareFunc {
	return guard(ps, func(role rbac.Role) bool {
		for _, p := range ps {
			if !rbac.HasPermission(role, p) {
				return false
			}
		}
		return true
	})
}

// RequireAnyPermission allows the request when at least one permission in
// ps is granted.
func RequireAnyPermission(ps ...rbac.Permission) echo.MiddlewareFunc {
	return guard(ps, func(role rbac.Role) bool {
		for _, p := range ps {
			if rbac.HasPermission(role, p) {
				return true
			}
		}
		return false
	})
}

// guard reports required as given: a single permission or a list.
func guard(required any, allowed func(rbac.Role) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
			}
			if !allowed(id.Role) {
				return c.JSON(http.StatusForbidden, echo.Map{
					"error":           "Insufficient permissions",
					"required":        required,
					"userRole":        id.Role,
					"userPermissions": rbac.PermissionsFor(id.Role),
				})
			}
			return next(c)
		}
	}
}
