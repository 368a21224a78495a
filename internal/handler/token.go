package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/token-manager/internal/model"
	"github.com/iliyamo/token-manager/internal/service"
)

type TokenService interface {
	List(ctx context.Context) ([]model.Token, error)
	Get(ctx context.Context, id uint64) (*model.Token, error)
	Create(ctx context.Context, in service.CreateTokenInput) (*model.Token, error)
	Update(ctx context.Context, id uint64, in service.UpdateTokenInput) (*model.Token, error)
	Delete(ctx context.Context, id uint64) error
}

type TokenHandler struct {
	svc TokenService
	log *zap.Logger
}

func NewTokenHandler(svc TokenService, log *zap.Logger) *TokenHandler {
	return &TokenHandler{svc: svc, log: log.Named("tokens")}
}

type createTokenRequest struct {
	Name         string  `json:"name" validate:"required,max=255"`
	GroupID      *uint64 `json:"groupId" validate:"omitempty,gt=0"`
	DefaultValue *string `json:"defaultValue"`
}

func (createTokenRequest) RequiredMessage() string { return "Token name is required" }

type tokenValueRequest struct {
	ThemeID uint64 `json:"themeId" validate:"required"`
	Value   string `json:"value"`
}

type updateTokenRequest struct {
	Name    *string                `json:"name" validate:"omitempty,max=255"`
	GroupID model.Nullable[uint64] `json:"groupId"`
	Values  []tokenValueRequest    `json:"values" validate:"omitempty,dive"`
}

func (h *TokenHandler) List(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	tokens, err := h.svc.List(ctx)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, tokens)
}

func (h *TokenHandler) Get(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	token, err := h.svc.Get(ctx, id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, token)
}

// Create handles POST /tokens. The token gets one value per existing theme.
func (h *TokenHandler) Create(c echo.Context) error {
	var req createTokenRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	token, err := h.svc.Create(ctx, service.CreateTokenInput{
		Name:         req.Name,
		GroupID:      req.GroupID,
		DefaultValue: req.DefaultValue,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, token)
}

func (h *TokenHandler) Update(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	var req updateTokenRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	in := service.UpdateTokenInput{Name: req.Name, GroupID: req.GroupID}
	for _, v := range req.Values {
		in.Values = append(in.Values, service.ValueInput{ThemeID: v.ThemeID, Value: v.Value})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	token, err := h.svc.Update(ctx, id, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, token)
}

func (h *TokenHandler) Delete(c echo.Context) error {
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
