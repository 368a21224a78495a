package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/token-manager/internal/apperr"
	"github.com/iliyamo/token-manager/internal/middleware"
	"github.com/iliyamo/token-manager/internal/model"
	"github.com/iliyamo/token-manager/internal/rbac"
	"github.com/iliyamo/token-manager/internal/service"
)

// AuthService is the part of service.AuthService used by AuthHandler.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	Refresh(ctx context.Context, raw string) (*service.RefreshResult, error)
	Logout(ctx context.Context, raw string) error
	Me(ctx context.Context, id uint64) (*model.User, error)
}

type AuthHandler struct {
	svc AuthService
	log *zap.Logger
}

func NewAuthHandler(svc AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, log: log.Named("auth")}
}

// ----- DTOs -----

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (loginRequest) RequiredMessage() string { return "Email and password are required" }

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

func (refreshRequest) RequiredMessage() string { return "Refresh token is required" }

type loginResponse struct {
	Message string `json:"message"`
	*service.LoginResult
}

type roleInfo struct {
	Role        rbac.Role         `json:"role"`
	Permissions []rbac.Permission `json:"permissions"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, loginResponse{Message: "Login successful", LoginResult: res})
}

// Refresh handles POST /auth/refresh. The refresh token is not rotated.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.svc.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Logout handles POST /auth/logout and revokes the given refresh token.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.Logout(ctx, req.RefreshToken); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Logout successful"})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return respondError(c, h.log, apperr.Unauthenticated("Authentication required"))
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.svc.Me(ctx, id.ID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user":        u,
		"permissions": rbac.PermissionsFor(u.Role),
	})
}

// Roles handles GET /auth/roles.
func (h *AuthHandler) Roles(c echo.Context) error {
	roles := rbac.AvailableRoles()
	out := make([]roleInfo, 0, len(roles))
	for _, r := range roles {
		out = append(out, roleInfo{Role: r, Permissions: rbac.PermissionsFor(r)})
	}
	return c.JSON(http.StatusOK, echo.Map{"roles": out})
}
