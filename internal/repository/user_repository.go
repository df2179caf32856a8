package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/kirovavto/bus-reservation/internal/model"
)

// UserRepo manages persistence for user accounts. The password column
// is an opaque credential string here: encoding and comparison belong
// to utils.CredentialVerifier, never to SQL.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, username, password, role, full_name, email, phone, created_at`

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Password, &u.Role, &u.FullName, &u.Email, &u.Phone, &u.CreatedAt)
	return u, err
}

// Create inserts a user and returns its ID. The credential must
// already be encoded by the caller. Username collisions map to
// ErrUsernameExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User) (uint64, error) {
	u.Username = strings.TrimSpace(u.Username)
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (username, password, role, full_name, email, phone) VALUES (?,?,?,?,?,?)`,
		u.Username, u.Password, u.Role, u.FullName, u.Email, u.Phone)
	if err != nil {
		if dupKeyError(err, "uniq_username") {
			return 0, ErrUsernameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	u.ID = uint64(id)
	return u.ID, nil
}

// GetByUsername fetches a user by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username=? LIMIT 1`,
		strings.TrimSpace(username)))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id=? LIMIT 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// List returns all users ordered by creation time, newest first.
// Admin-only surface.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateProfile rewrites the mutable profile fields (full name, email,
// phone) and, when role is non-empty, the role.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, fullName, email, phone, role string) error {
	sets := []string{"full_name=?", "email=?", "phone=?"}
	args := []any{fullName, email, phone}
	if role != "" {
		sets = append(sets, "role=?")
		args = append(args, role)
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id=?`, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a user account. A user that still owns bookings is
// protected by the FK; the delete surfaces ErrIntegrity instead of
// orphaning the ledger.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id)
	if err != nil {
		if fkError(err) {
			return ErrIntegrity
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}
