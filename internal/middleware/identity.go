package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/token-manager/internal/model"
)

const identityKey = "identity"

// SetIdentity attaches the authenticated caller to c.
func SetIdentity(c echo.Context, id model.Identity) {
	c.Set(identityKey, id)
}

// IdentityFrom returns the caller attached by Authenticate.
func IdentityFrom(c echo.Context) (model.Identity, bool) {
	id, ok := c.Get(identityKey).(model.Identity)
	return id, ok
}

// currentUserID is the user part of rate-limit keys. Unauthenticated routes
// (login, refresh) fall back to "anon:<ip>" so anonymous clients do not share
// one bucket.
func currentUserID(c echo.Context) string {
	if id, ok := IdentityFrom(c); ok {
		return strconv.FormatUint(id.ID, 10)
	}
	return "anon:" + c.RealIP()
}
