package model

import "time"

// Token represents a row in the `tokens` table: a named design value that
// carries one TokenValue per theme.
type Token struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	GroupID   *uint64   `json:"groupId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	TokenValues []TokenValue `json:"tokenValues,omitempty"`
}

// TokenValue is the value of one token under one theme. At most one row
// exists per (TokenID, ThemeID).
type TokenValue struct {
	ID      uint64 `json:"id"`
	Value   string `json:"value"`
	TokenID uint64 `json:"tokenId"`
	ThemeID uint64 `json:"themeId"`

	Theme *NodeRef `json:"theme,omitempty"`
}
