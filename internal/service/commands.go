package service

import (
	"github.com/iliyamo/token-manager/internal/model"
	"github.com/iliyamo/token-manager/internal/rbac"
)

// The inputs below are produced by the HTTP layer after binding and
// validation. Pointer fields are optional; Nullable fields distinguish an
// absent key from an explicit null.

type CreateThemeInput struct {
	Name         string
	ParentID     *uint64
	DefaultValue *string
}

type UpdateThemeInput struct {
	Name     *string
	ParentID model.Nullable[uint64]
}

type CreateGroupInput struct {
	Name     string
	ParentID *uint64
}

type UpdateGroupInput struct {
	Name     *string
	ParentID model.Nullable[uint64]
}

type CreateTokenInput struct {
	Name         string
	GroupID      *uint64
	DefaultValue *string
}

// ValueInput sets the value of a token under one theme.
type ValueInput struct {
	ThemeID uint64
	Value   string
}

type UpdateTokenInput struct {
	Name    *string
	GroupID model.Nullable[uint64]
	Values  []ValueInput
}

type CreateUserInput struct {
	Email    string
	Name     string
	Password string
	Role     rbac.Role // empty means VIEWER
}

type UpdateUserInput struct {
	Email    *string
	Name     *string
	Password *string
	Role     *rbac.Role
}
