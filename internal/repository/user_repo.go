package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"conduit/internal/auth"
	"conduit/internal/models"
	"conduit/internal/repository/db"
)

type UserRepository struct {
	conn *db.Conn
}

func NewUserRepository(conn *db.Conn) *UserRepository {
	return &UserRepository{conn: conn}
}

// Ensure implementation of the auth directory and Users interfaces at compile time.
var (
	_ auth.UserDirectory = (*UserRepository)(nil)
	_ Users              = (*UserRepository)(nil)
)

const userColumns = `id, username, email, bio, image, created_at, updated_at`

const (
	insertUserSQL = `INSERT INTO users (id, username, email, password_hash, bio, image, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	selectUserByIDSQL       = `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	selectUserByUsernameSQL = `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	selectAccountByEmailSQL = `SELECT ` + userColumns + `, password_hash FROM users WHERE email = ?`
	updateCredentialsSQL    = `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`
	updateUserSQL           = `UPDATE users SET
		username = COALESCE(?, username),
		email = COALESCE(?, email),
		bio = COALESCE(?, bio),
		image = COALESCE(?, image),
		password_hash = COALESCE(?, password_hash),
		updated_at = ?
		WHERE id = ?`
)

// Create inserts a new user. A zero ID is replaced with a fresh UUID.
func (r *UserRepository) Create(ctx context.Context, u models.User, passwordHash string) (*models.User, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := utcNow()
	u.CreatedAt, u.UpdatedAt = now, now

	_, err := r.conn.ExecContext(ctx, r.conn.Rebind(insertUserSQL),
		u.ID, u.Username, u.Email, passwordHash, u.Bio, u.Image, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("insert user %q: %w", u.Username, ErrDuplicate)
		}
		return nil, fmt.Errorf("insert user %q: %w", u.Username, err)
	}
	return &u, nil
}

// FindByID fetches a user by id. Returns (nil, nil) if not found.
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(r.conn.QueryRowContext(ctx, r.conn.Rebind(selectUserByIDSQL), id))
	if err != nil {
		return nil, fmt.Errorf("select user %s: %w", id, err)
	}
	return u, nil
}

// FindByUsername fetches a user by username. Returns (nil, nil) if not found.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := scanUser(r.conn.QueryRowContext(ctx, r.conn.Rebind(selectUserByUsernameSQL), username))
	if err != nil {
		return nil, fmt.Errorf("select user %q: %w", username, err)
	}
	return u, nil
}

// FindByEmail fetches a user with its password hash. Returns (nil, nil) if not found.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	var (
		acc  models.Account
		u    = &acc.User
		hash string
	)
	err := r.conn.QueryRowContext(ctx, r.conn.Rebind(selectAccountByEmailSQL), email).
		Scan(&u.ID, &u.Username, &u.Email, &u.Bio, &u.Image, &u.CreatedAt, &u.UpdatedAt, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select account by email: %w", err)
	}
	acc.Credentials = models.Credentials{UserID: u.ID, PasswordHash: hash}
	return &acc, nil
}

// UpdateCredentials replaces the stored password hash.
func (r *UserRepository) UpdateCredentials(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res, err := r.conn.ExecContext(ctx, r.conn.Rebind(updateCredentialsSQL), passwordHash, utcNow(), id)
	if err != nil {
		return fmt.Errorf("update credentials for %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("update credentials for %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

// Update applies the non-nil fields of upd. Password is ignored; a new hash is
// passed separately. Returns (nil, nil) if the user no longer exists.
func (r *UserRepository) Update(ctx context.Context, id uuid.UUID, upd models.UserUpdate, passwordHash *string) (*models.User, error) {
	res, err := r.conn.ExecContext(ctx, r.conn.Rebind(updateUserSQL),
		upd.Username, upd.Email, upd.Bio, upd.Image, passwordHash, utcNow(), id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("update user %s: %w", id, ErrDuplicate)
		}
		return nil, fmt.Errorf("update user %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("rows affected for %s: %w", id, err)
	} else if n == 0 {
		return nil, nil
	}
	return r.FindByID(ctx, id)
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Bio, &u.Image, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.CreatedAt, u.UpdatedAt = u.CreatedAt.UTC(), u.UpdatedAt.UTC()
	return &u, nil
}

// utcNow is the timestamp stored for created_at/updated_at.
func utcNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
