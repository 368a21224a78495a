package model

import "time"

// TokenGroup represents a row in the `token_groups` table. Groups form a
// forest through ParentID like themes, but names are not unique.
type TokenGroup struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	ParentID  *uint64   `json:"parentId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GroupNode is a TokenGroup with its nested subtree, as returned by GET /groups.
type GroupNode struct {
	TokenGroup
	Children []*GroupNode `json:"children"`
}

// GroupDetail is the single-group view: immediate parent and children plus
// the tokens filed directly under the group.
type GroupDetail struct {
	TokenGroup
	Parent   *NodeRef  `json:"parent"`
	Children []NodeRef `json:"children"`
	Tokens   []Token   `json:"tokens"`
}
