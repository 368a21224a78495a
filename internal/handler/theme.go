package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/token-manager/internal/model"
	"github.com/iliyamo/token-manager/internal/service"
)

type ThemeService interface {
	List(ctx context.Context) ([]model.Theme, error)
	Get(ctx context.Context, id uint64) (*model.Theme, error)
	Create(ctx context.Context, in service.CreateThemeInput) (*model.Theme, error)
	Update(ctx context.Context, id uint64, in service.UpdateThemeInput) (*model.Theme, error)
	Delete(ctx context.Context, id uint64) error
}

type ThemeHandler struct {
	svc ThemeService
	log *zap.Logger
}

func NewThemeHandler(svc ThemeService, log *zap.Logger) *ThemeHandler {
	return &ThemeHandler{svc: svc, log: log.Named("themes")}
}

type createThemeRequest struct {
	Name         string  `json:"name" validate:"required,max=255"`
	ParentID     *uint64 `json:"parentId" validate:"omitempty,gt=0"`
	DefaultValue *string `json:"defaultValue"`
}

func (createThemeRequest) RequiredMessage() string { return msgThemeNameRequired }

type updateThemeRequest struct {
	Name     *string                `json:"name" validate:"omitempty,max=255"`
	ParentID model.Nullable[uint64] `json:"parentId"`
}

const msgThemeNameRequired = "Theme name is required"

func (h *ThemeHandler) List(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	themes, err := h.svc.List(ctx)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, themes)
}

func (h *ThemeHandler) Get(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	theme, err := h.svc.Get(ctx, id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, theme)
}

// Create handles POST /themes. Every existing token receives a value for the
// new theme, set to defaultValue or "".
func (h *ThemeHandler) Create(c echo.Context) error {
	var req createThemeRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	theme, err := h.svc.Create(ctx, service.CreateThemeInput{
		Name:         req.Name,
		ParentID:     req.ParentID,
		DefaultValue: req.DefaultValue,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, theme)
}

func (h *ThemeHandler) Update(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	var req updateThemeRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	theme, err := h.svc.Update(ctx, id, service.UpdateThemeInput{Name: req.Name, ParentID: req.ParentID})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, theme)
}

// Delete handles DELETE /themes/:id, removing descendants and their values.
func (h *ThemeHandler) Delete(c echo.Context) error {
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
