package model

import "time"

// NodeRef is the {id, name} projection used for parent and children links.
type NodeRef struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// Theme represents a row in the `themes` table. Themes form a forest through
// ParentID; names are unique across the whole table.
type Theme struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	ParentID  *uint64   `json:"parentId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Populated on reads only.
	Parent   *NodeRef  `json:"parent,omitempty"`
	Children []NodeRef `json:"children,omitempty"`
}
