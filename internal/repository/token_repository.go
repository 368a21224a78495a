package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/token-manager/internal/model"
)

// TokenRepo provides access to the 'tokens' table and reads token values
// alongside tokens.
type TokenRepo struct{ db DBTX }

func NewTokenRepo(db DBTX) *TokenRepo { return &TokenRepo{db: db} }

func scanTokens(rows *sql.Rows) ([]model.Token, error) {
	defer rows.Close()
	tokens := []model.Token{}
	for rows.Next() {
		var (
			t     model.Token
			group sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &t.Name, &group, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		t.GroupID = nullID(group)
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// valuesQuery selects token values with the name of their theme.
const valuesQuery = `SELECT tv.id, tv.value, tv.token_id, tv.theme_id, th.name
	FROM token_values tv JOIN themes th ON th.id = tv.theme_id`

func scanValues(rows *sql.Rows) ([]model.TokenValue, error) {
	defer rows.Close()
	values := []model.TokenValue{}
	for rows.Next() {
		var (
			v    model.TokenValue
			name string
		)
		if err := rows.Scan(&v.ID, &v.Value, &v.TokenID, &v.ThemeID, &name); err != nil {
			return nil, err
		}
		v.Theme = &model.NodeRef{ID: v.ThemeID, Name: name}
		values = append(values, v)
	}
	return values, rows.Err()
}

// List returns every token ordered by id with its values and their themes.
func (r *TokenRepo) List(ctx context.Context) ([]model.Token, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, group_id, created_at, updated_at FROM tokens ORDER BY id")
	if err != nil {
		return nil, err
	}
	tokens, err := scanTokens(rows)
	if err != nil {
		return nil, err
	}

	rows, err = r.db.QueryContext(ctx, valuesQuery+" ORDER BY tv.token_id, tv.theme_id")
	if err != nil {
		return nil, err
	}
	values, err := scanValues(rows)
	if err != nil {
		return nil, err
	}

	index := make(map[uint64]int, len(tokens))
	for i := range tokens {
		tokens[i].TokenValues = []model.TokenValue{}
		index[tokens[i].ID] = i
	}
	for _, v := range values {
		if i, ok := index[v.TokenID]; ok {
			tokens[i].TokenValues = append(tokens[i].TokenValues, v)
		}
	}
	return tokens, nil
}

// Get loads one token with its values and their themes.
func (r *TokenRepo) Get(ctx context.Context, id uint64) (*model.Token, error) {
	var (
		t     model.Token
		group sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, group_id, created_at, updated_at FROM tokens WHERE id = ?", id).
		Scan(&t.ID, &t.Name, &group, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, classify(err)
	}
	t.GroupID = nullID(group)

	rows, err := r.db.QueryContext(ctx, valuesQuery+" WHERE tv.token_id = ? ORDER BY tv.theme_id", id)
	if err != nil {
		return nil, err
	}
	if t.TokenValues, err = scanValues(rows); err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts t and fills in its ID and timestamps. An unknown group
// yields ErrForeignKey.
func (r *TokenRepo) Create(ctx context.Context, t *model.Token) error {
	ts := now()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO tokens (name, group_id, created_at, updated_at) VALUES (?,?,?,?)",
		t.Name, idOrNil(t.GroupID), ts, ts)
	if err != nil {
		return classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	t.CreatedAt, t.UpdatedAt = ts, ts
	return nil
}

// Update writes name and group_id of an existing token.
func (r *TokenRepo) Update(ctx context.Context, t *model.Token) error {
	ts := now()
	if _, err := r.db.ExecContext(ctx,
		"UPDATE tokens SET name = ?, group_id = ?, updated_at = ? WHERE id = ?",
		t.Name, idOrNil(t.GroupID), ts, t.ID); err != nil {
		return classify(err)
	}
	t.UpdatedAt = ts
	return nil
}

// Delete removes a token and its values. Returns ErrNotFound when the token
// does not exist. Run it inside a transaction.
func (r *TokenRepo) Delete(ctx context.Context, id uint64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM token_values WHERE token_id = ?", id); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM tokens WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// IDs returns the id of every token in ascending order.
func (r *TokenRepo) IDs(ctx context.Context) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id FROM tokens ORDER BY id")
	if err != nil {
		return nil, err
	}
	return scanIDs(rows)
}
