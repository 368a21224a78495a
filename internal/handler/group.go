package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/token-manager/internal/model"
	"github.com/iliyamo/token-manager/internal/service"
)

type GroupService interface {
	Tree(ctx context.Context) ([]*model.GroupNode, error)
	Get(ctx context.Context, id uint64) (*model.GroupDetail, error)
	Create(ctx context.Context, in service.CreateGroupInput) (*model.TokenGroup, error)
	Update(ctx context.Context, id uint64, in service.UpdateGroupInput) (*model.TokenGroup, error)
	Delete(ctx context.Context, id uint64) error
}

type GroupHandler struct {
	svc GroupService
	log *zap.Logger
}

func NewGroupHandler(svc GroupService, log *zap.Logger) *GroupHandler {
	return &GroupHandler{svc: svc, log: log.Named("groups")}
}

type createGroupRequest struct {
	Name     string  `json:"name" validate:"required,max=255"`
	ParentID *uint64 `json:"parentId" validate:"omitempty,gt=0"`
}

func (createGroupRequest) RequiredMessage() string { return "Group name is required" }

type updateGroupRequest struct {
	Name     *string                `json:"name" validate:"omitempty,max=255"`
	ParentID model.Nullable[uint64] `json:"parentId"`
}

// List handles GET /groups and returns the groups as a forest.
func (h *GroupHandler) List(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	tree, err := h.svc.Tree(ctx)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, tree)
}

func (h *GroupHandler) Get(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	group, err := h.svc.Get(ctx, id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, group)
}

func (h *GroupHandler) Create(c echo.Context) error {
	var req createGroupRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	group, err := h.svc.Create(ctx, service.CreateGroupInput{Name: req.Name, ParentID: req.ParentID})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, group)
}

func (h *GroupHandler) Update(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	var req updateGroupRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	group, err := h.svc.Update(ctx, id, service.UpdateGroupInput{Name: req.Name, ParentID: req.ParentID})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, group)
}

// Delete handles DELETE /groups/:id. Subgroups and every token they contain
// are removed as well.
func (h *GroupHandler) Delete(c echo.Context) error {
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
