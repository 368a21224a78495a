package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/token-manager/internal/model"
	"github.com/iliyamo/token-manager/internal/rbac"
	"github.com/iliyamo/token-manager/internal/service"
)

type UserService interface {
	List(ctx context.Context) ([]model.User, error)
	Get(ctx context.Context, id uint64) (*model.User, error)
	Create(ctx context.Context, in service.CreateUserInput) (*model.User, error)
	Update(ctx context.Context, id uint64, in service.UpdateUserInput) (*model.User, error)
	Delete(ctx context.Context, id uint64) error
}

// UserHandler exposes user management to administrators.
type UserHandler struct {
	svc UserService
	log *zap.Logger
}

func NewUserHandler(svc UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, log: log.Named("users")}
}

type createUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=VIEWER MAINTAINER ADMIN"`
}

func (createUserRequest) RequiredMessage() string { return "Email, name, and password are required" }

type updateUserRequest struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	Name     *string `json:"name"`
	Password *string `json:"password" validate:"omitempty,min=6"`
	Role     *string `json:"role" validate:"omitempty,oneof=VIEWER MAINTAINER ADMIN"`
}

func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	users, err := h.svc.List(ctx)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UserHandler) Get(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.svc.Get(ctx, id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.svc.Create(ctx, service.CreateUserInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     rbac.Role(req.Role),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *UserHandler) Update(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	var req updateUserRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	in := service.UpdateUserInput{Email: req.Email, Name: req.Name, Password: req.Password}
	if req.Role != nil {
		role := rbac.Role(*req.Role)
		in.Role = &role
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.svc.Update(ctx, id, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, u)
}

// Delete handles DELETE /users/:id. Users are removed permanently.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.Delete(ctx, id); err != nil {
		return respondError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
