package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/token-manager/internal/model"
	"github.com/iliyamo/token-manager/internal/rbac"
)

const userColumns = "id, email, name, password_hash, role, refresh_token, created_at, updated_at"

// UserRepo reads and writes the 'users' table.
type UserRepo struct{ db DBTX }

func NewUserRepo(db DBTX) *UserRepo { return &UserRepo{db: db} }

// NormalizeEmail is the canonical form stored in users.email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func scanUser(s rowScanner) (*model.User, error) {
	var (
		u       model.User
		role    string
		refresh sql.NullString
	)
	if err := s.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &role, &refresh, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = rbac.Role(role)
	if refresh.Valid {
		v := refresh.String
		u.RefreshTokenHash = &v
	}
	return &u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ? LIMIT 1", NormalizeEmail(email)))
	if err != nil {
		return nil, classify(err)
	}
	return u, nil
}

// GetByID fetches a user by primary key.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1", id))
	if err != nil {
		return nil, classify(err)
	}
	return u, nil
}

// List returns every user ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Create inserts u and fills in its ID and timestamps. A taken email yields
// ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	ts := now()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (email, name, password_hash, role, created_at, updated_at) VALUES (?,?,?,?,?,?)",
		u.Email, u.Name, u.PasswordHash, string(u.Role), ts, ts)
	if err != nil {
		return classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	u.CreatedAt, u.UpdatedAt = ts, ts
	return nil
}

// Update writes email, name, password hash and role of an existing user.
func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	ts := now()
	if _, err := r.db.ExecContext(ctx,
		"UPDATE users SET email = ?, name = ?, password_hash = ?, role = ?, updated_at = ? WHERE id = ?",
		u.Email, u.Name, u.PasswordHash, string(u.Role), ts, u.ID); err != nil {
		return classify(err)
	}
	u.UpdatedAt = ts
	return nil
}

// Delete hard-deletes a user. Returns ErrNotFound when no row matched.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
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

// SetRefreshHash stores the hash of the user's single active refresh token,
// replacing any previous one.
func (r *UserRepo) SetRefreshHash(ctx context.Context, id uint64, hash string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE users SET refresh_token = ? WHERE id = ?", hash, id)
	return err
}

// ClearRefreshByHash revokes the refresh token on whichever user currently
// holds it. Zero affected rows is not an error.
func (r *UserRepo) ClearRefreshByHash(ctx context.Context, hash string) (int64, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET refresh_token = NULL WHERE refresh_token = ?", hash)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
