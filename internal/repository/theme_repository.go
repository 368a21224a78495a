package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/token-manager/internal/model"
)

const themesTable = "themes"

// ThemeRepo provides access to the 'themes' table. Themes form a forest via
// parent_id and their names are unique.
type ThemeRepo struct{ db DBTX }

func NewThemeRepo(db DBTX) *ThemeRepo { return &ThemeRepo{db: db} }

// List returns every theme ordered by id, each carrying its direct children.
func (r *ThemeRepo) List(ctx context.Context) ([]model.Theme, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, parent_id, created_at, updated_at FROM themes ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	themes := []model.Theme{}
	for rows.Next() {
		var (
			t      model.Theme
			parent sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &t.Name, &parent, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		t.ParentID = nullID(parent)
		t.Children = []model.NodeRef{}
		themes = append(themes, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// children are filled from the same result set
	index := make(map[uint64]int, len(themes))
	for i, t := range themes {
		index[t.ID] = i
	}
	for _, t := range themes {
		if t.ParentID == nil {
			continue
		}
		if i, ok := index[*t.ParentID]; ok {
			themes[i].Children = append(themes[i].Children, model.NodeRef{ID: t.ID, Name: t.Name})
		}
	}
	return themes, nil
}

// Get loads one theme with its parent and direct children.
func (r *ThemeRepo) Get(ctx context.Context, id uint64) (*model.Theme, error) {
	var (
		t          model.Theme
		parent     sql.NullInt64
		parentName sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT t.id, t.name, t.parent_id, t.created_at, t.updated_at, p.name
		 FROM themes t LEFT JOIN themes p ON p.id = t.parent_id
		 WHERE t.id = ?`, id).
		Scan(&t.ID, &t.Name, &parent, &t.CreatedAt, &t.UpdatedAt, &parentName)
	if err != nil {
		return nil, classify(err)
	}
	t.ParentID = nullID(parent)
	if t.ParentID != nil && parentName.Valid {
		t.Parent = &model.NodeRef{ID: *t.ParentID, Name: parentName.String}
	}
	t.Children, err = childRefs(ctx, r.db, themesTable, id)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts t and fills in its ID and timestamps. A taken name yields
// ErrDuplicate and an unknown parent ErrForeignKey.
func (r *ThemeRepo) Create(ctx context.Context, t *model.Theme) error {
	ts := now()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO themes (name, parent_id, created_at, updated_at) VALUES (?,?,?,?)",
		t.Name, idOrNil(t.ParentID), ts, ts)
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

// Update writes name and parent_id of an existing theme.
func (r *ThemeRepo) Update(ctx context.Context, t *model.Theme) error {
	ts := now()
	if _, err := r.db.ExecContext(ctx,
		"UPDATE themes SET name = ?, parent_id = ?, updated_at = ? WHERE id = ?",
		t.Name, idOrNil(t.ParentID), ts, t.ID); err != nil {
		return classify(err)
	}
	t.UpdatedAt = ts
	return nil
}

// Exists reports whether a theme with id is present.
func (r *ThemeRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	return exists(ctx, r.db, themesTable, id)
}

// IDs returns the id of every theme in ascending order.
func (r *ThemeRepo) IDs(ctx context.Context) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id FROM themes ORDER BY id")
	if err != nil {
		return nil, err
	}
	return scanIDs(rows)
}

// SubtreeIDs returns id and all of its descendants, or ErrNotFound.
func (r *ThemeRepo) SubtreeIDs(ctx context.Context, id uint64) ([]uint64, error) {
	return subtreeIDs(ctx, r.db, themesTable, id)
}

// DeleteSubtree removes the given themes together with every token value
// recorded against them. Run it inside a transaction.
func (r *ThemeRepo) DeleteSubtree(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	in := placeholders(len(ids))
	args := idArgs(ids)
	if _, err := r.db.ExecContext(ctx, "DELETE FROM token_values WHERE theme_id IN ("+in+")", args...); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM themes WHERE id IN ("+in+")", args...); err != nil {
		return err
	}
	return nil
}

// childRefs lists the direct children of id as {id, name} pairs.
func childRefs(ctx context.Context, db DBTX, table string, id uint64) ([]model.NodeRef, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, name FROM "+table+" WHERE parent_id = ? ORDER BY id", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	refs := []model.NodeRef{}
	for rows.Next() {
		var ref model.NodeRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
