package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/token-manager/internal/model"
)

// TokenValueRepo writes the 'token_values' table. At most one row exists per
// (token_id, theme_id).
type TokenValueRepo struct{ db DBTX }

func NewTokenValueRepo(db DBTX) *TokenValueRepo { return &TokenValueRepo{db: db} }

// CreateMany bulk-inserts values in a single statement. An existing pair
// yields ErrDuplicate and an unknown token or theme ErrForeignKey.
func (r *TokenValueRepo) CreateMany(ctx context.Context, values []model.TokenValue) error {
	if len(values) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString("INSERT INTO token_values (token_id, theme_id, value) VALUES ")
	args := make([]any, 0, len(values)*3)
	for i, v := range values {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString("(?,?,?)")
		args = append(args, v.TokenID, v.ThemeID, v.Value)
	}
	if _, err := r.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return classify(err)
	}
	return nil
}

// Upsert sets the value of a token under a theme, inserting the row when it
// does not exist yet.
func (r *TokenValueRepo) Upsert(ctx context.Context, tokenID, themeID uint64, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO token_values (token_id, theme_id, value) VALUES (?,?,?)
		 ON DUPLICATE KEY UPDATE value = VALUES(value)`,
		tokenID, themeID, value)
	return classify(err)
}
