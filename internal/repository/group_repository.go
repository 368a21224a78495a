package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/token-manager/internal/model"
)

const groupsTable = "token_groups"

// GroupRepo provides access to the 'token_groups' table.
type GroupRepo struct{ db DBTX }

func NewGroupRepo(db DBTX) *GroupRepo { return &GroupRepo{db: db} }

// List returns every group as a flat slice ordered by id.
func (r *GroupRepo) List(ctx context.Context) ([]model.TokenGroup, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, parent_id, created_at, updated_at FROM token_groups ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	groups := []model.TokenGroup{}
	for rows.Next() {
		var (
			g      model.TokenGroup
			parent sql.NullInt64
		)
		if err := rows.Scan(&g.ID, &g.Name, &parent, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		g.ParentID = nullID(parent)
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// Get loads one group with its parent, direct children and the tokens filed
// directly under it.
func (r *GroupRepo) Get(ctx context.Context, id uint64) (*model.GroupDetail, error) {
	var (
		d          model.GroupDetail
		parent     sql.NullInt64
		parentName sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT g.id, g.name, g.parent_id, g.created_at, g.updated_at, p.name
		 FROM token_groups g LEFT JOIN token_groups p ON p.id = g.parent_id
		 WHERE g.id = ?`, id).
		Scan(&d.ID, &d.Name, &parent, &d.CreatedAt, &d.UpdatedAt, &parentName)
	if err != nil {
		return nil, classify(err)
	}
	d.ParentID = nullID(parent)
	if d.ParentID != nil && parentName.Valid {
		d.Parent = &model.NodeRef{ID: *d.ParentID, Name: parentName.String}
	}
	if d.Children, err = childRefs(ctx, r.db, groupsTable, id); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, group_id, created_at, updated_at FROM tokens WHERE group_id = ? ORDER BY id", id)
	if err != nil {
		return nil, err
	}
	if d.Tokens, err = scanTokens(rows); err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts g and fills in its ID and timestamps.
func (r *GroupRepo) Create(ctx context.Context, g *model.TokenGroup) error {
	ts := now()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO token_groups (name, parent_id, created_at, updated_at) VALUES (?,?,?,?)",
		g.Name, idOrNil(g.ParentID), ts, ts)
	if err != nil {
		return classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	g.ID = uint64(id)
	g.CreatedAt, g.UpdatedAt = ts, ts
	return nil
}

// Update writes name and parent_id of an existing group.
func (r *GroupRepo) Update(ctx context.Context, g *model.TokenGroup) error {
	ts := now()
	if _, err := r.db.ExecContext(ctx,
		"UPDATE token_groups SET name = ?, parent_id = ?, updated_at = ? WHERE id = ?",
		g.Name, idOrNil(g.ParentID), ts, g.ID); err != nil {
		return classify(err)
	}
	g.UpdatedAt = ts
	return nil
}

// Exists reports whether a group with id is present.
func (r *GroupRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	return exists(ctx, r.db, groupsTable, id)
}

// SubtreeIDs returns id and all of its descendants, or ErrNotFound.
func (r *GroupRepo) SubtreeIDs(ctx context.Context, id uint64) ([]uint64, error) {
	return subtreeIDs(ctx, r.db, groupsTable, id)
}

// DeleteSubtree removes the given groups, every token filed under them and
// the values of those tokens. Run it inside a transaction.
func (r *GroupRepo) DeleteSubtree(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	in := placeholders(len(ids))
	args := idArgs(ids)
	stmts := []string{
		"DELETE tv FROM token_values tv JOIN tokens t ON t.id = tv.token_id WHERE t.group_id IN (" + in + ")",
		"DELETE FROM tokens WHERE group_id IN (" + in + ")",
		"DELETE FROM token_groups WHERE id IN (" + in + ")",
	}
	for _, q := range stmts {
		if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}
