package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/token-manager/internal/apperr"
	"github.com/iliyamo/token-manager/internal/model"
)

// Authenticator resolves an Authorization header to an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (model.Identity, error)
}

// Authenticate rejects requests without a valid bearer access token and
// stores the caller's identity for IdentityFrom.
func Authenticate(auth Authenticator, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := auth.Authenticate(c.Request().Context(), c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				var appErr *apperr.Error
				if errors.As(err, &appErr) && appErr.Kind != apperr.KindInternal {
					return c.JSON(apperr.HTTPStatus(appErr.Kind), echo.Map{"error": appErr.Message})
				}
				log.Error("authentication failed", zap.Error(err))
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Authentication failed"})
			}
			SetIdentity(c, id)
			return next(c)
		}
	}
}
