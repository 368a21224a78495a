// Package router maps HTTP routes to handlers and attaches the
// authentication, authorization and caching middleware of each route.
package router

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/token-manager/internal/handler"
	"github.com/iliyamo/token-manager/internal/middleware"
	"github.com/iliyamo/token-manager/internal/rbac"
)

// Deps carries everything Register wires into routes.
type Deps struct {
	Auth   *handler.AuthHandler
	Themes *handler.ThemeHandler
	Groups *handler.GroupHandler
	Tokens *handler.TokenHandler
	Users  *handler.UserHandler

	Authenticator middleware.Authenticator
	Cache         *middleware.ResponseCache

	// RateLimit runs after authentication so user-keyed buckets see the caller.
	RateLimit echo.MiddlewareFunc
	Log       *zap.Logger
}

// resource is the handler set of one CRUD collection.
type resource interface {
	List(echo.Context) error
	Get(echo.Context) error
	Create(echo.Context) error
	Update(echo.Context) error
	Delete(echo.Context) error
}

// Register adds every route to e.
func Register(e *echo.Echo, d Deps) {
	authn := middleware.Authenticate(d.Authenticator, d.Log)
	limit := d.RateLimit
	if limit == nil {
		limit = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	e.GET("/healthz", handler.Health)

	// login, refresh and logout work without an access token
	auth := e.Group("/auth")
	auth.POST("/login", d.Auth.Login, limit)
	auth.POST("/refresh", d.Auth.Refresh, limit)
	auth.POST("/logout", d.Auth.Logout, limit)
	auth.GET("/me", d.Auth.Me, authn, limit)
	auth.GET("/roles", d.Auth.Roles, authn, limit)

	crud(e, "/themes", authn, limit, d.Cache, d.Themes, rbac.ThemesRead, rbac.ThemesWrite, rbac.ThemesDelete)
	crud(e, "/groups", authn, limit, d.Cache, d.Groups, rbac.GroupsRead, rbac.GroupsWrite, rbac.GroupsDelete)
	crud(e, "/tokens", authn, limit, d.Cache, d.Tokens, rbac.TokensRead, rbac.TokensWrite, rbac.TokensDelete)
	crud(e, "/users", authn, limit, d.Cache, d.Users, rbac.UsersRead, rbac.UsersWrite, rbac.UsersDelete)
}

// crud registers the five standard routes of a collection. Reads are cached
// after the permission check; successful writes invalidate the cache.
func crud(e *echo.Echo, prefix string, authn, limit echo.MiddlewareFunc, cache *middleware.ResponseCache, h resource, read, write, del rbac.Permission) {
	g := e.Group(prefix, authn, limit, cache.Invalidate())
	g.GET("", h.List, middleware.RequirePermission(read), cache.Cache())
	g.GET("/:id", h.Get, middleware.RequirePermission(read), cache.Cache())
	g.POST("", h.Create, middleware.RequirePermission(write))
	g.PUT("/:id", h.Update, middleware.RequirePermission(write))
	g.DELETE("/:id", h.Delete, middleware.RequirePermission(del))
}
