package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/bishowshrestha9/code-fyp/internal/apperror"
	"github.com/bishowshrestha9/code-fyp/internal/model"
	"github.com/bishowshrestha9/code-fyp/internal/repository"
)

// UserStore implements repository.UserRepository over the shared pool.
type UserStore struct {
	conn *sql.DB
}

var _ repository.UserRepository = (*UserStore)(nil)

const userColumns = `id, name, email, password_hash, role, google_id,
	phone, avatar, address, city, state, zip_code, country, date_of_birth,
	email_verified_at, created_at, updated_at`

// Create inserts a new user and fills in ID, CreatedAt, and UpdatedAt.
//
// A UNIQUE violation on email is reported as apperror.ErrConflict so the
// service layer can turn it into a duplicate-email validation error. The
// driver does not expose a typed constraint error, so we match on the
// constraint name in the message — crude but stable for SQLite.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash, role, google_id,
			phone, avatar, address, city, state, zip_code, country,
			date_of_birth, email_verified_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Name,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.GoogleID,
		user.Phone,
		user.Avatar,
		user.Address,
		user.City,
		user.State,
		user.ZipCode,
		user.Country,
		user.DateOfBirth,
		user.EmailVerifiedAt,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sqlite: inserting user %s: %w",
				user.Email, apperror.ErrConflict)
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new user id: %w", err)
	}
	user.ID = id

	return nil
}

// GetByID retrieves a user by their numeric ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (s *UserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user")
		}
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}
	return u, nil
}

// GetByEmail retrieves a user by exact email match (the login key).
// Returns apperror.ErrNotFound if no user exists with that email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)

	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user")
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return u, nil
}

// UpdateProfile applies a partial profile edit and returns the updated row.
// Fields with nil pointers are left untouched.
func (s *UserStore) UpdateProfile(ctx context.Context, id int64, upd repository.ProfileUpdate) (*model.User, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}

	add := func(column string, v *string) {
		if v != nil {
			sets = append(sets, column+" = ?")
			args = append(args, *v)
		}
	}
	add("name", upd.Name)
	add("phone", upd.Phone)
	add("avatar", upd.Avatar)
	add("address", upd.Address)
	add("city", upd.City)
	add("state", upd.State)
	add("zip_code", upd.ZipCode)
	add("country", upd.Country)
	add("date_of_birth", upd.DateOfBirth)

	args = append(args, id)
	res, err := s.conn.ExecContext(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating profile of user %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperror.NotFound("user")
	}

	return s.GetByID(ctx, id)
}

// UpdatePassword replaces the stored password hash.
func (s *UserStore) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("sqlite: updating password of user %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("user")
	}
	return nil
}

// LinkGoogleID backfills the Google subject id on an existing account.
// Only writes when the column is still empty, which makes a repeated
// first-link a no-op rather than an overwrite.
func (s *UserStore) LinkGoogleID(ctx context.Context, id int64, googleID string) error {
	_, err := s.conn.ExecContext(ctx,
		`UPDATE users SET google_id = ?, updated_at = ?
		 WHERE id = ? AND google_id = ''`,
		googleID, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("sqlite: linking google id to user %d: %w", id, err)
	}
	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*model.User, error) {
	var (
		u        model.User
		role     string
		verified sql.NullTime
	)
	err := s.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&role,
		&u.GoogleID,
		&u.Phone,
		&u.Avatar,
		&u.Address,
		&u.City,
		&u.State,
		&u.ZipCode,
		&u.Country,
		&u.DateOfBirth,
		&verified,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	if verified.Valid {
		t := verified.Time
		u.EmailVerifiedAt = &t
	}
	return &u, nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
