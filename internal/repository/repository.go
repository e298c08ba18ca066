package repository

import (
	"context"

	"github.com/bishowshrestha9/code-fyp/internal/model"
)

// ProfileUpdate carries a partial profile edit. Nil pointer = field not
// supplied, leave it alone. This mirrors the PATCH semantics of the API —
// an empty string is a deliberate "clear this field", absence is not.
type ProfileUpdate struct {
	Name        *string
	Phone       *string
	Avatar      *string
	Address     *string
	City        *string
	State       *string
	ZipCode     *string
	Country     *string
	DateOfBirth *string
}

// UserRepository is the persistence contract for user records.
//
// Create must surface a unique-email violation as apperror.ErrConflict —
// the UNIQUE constraint is the only defence against two concurrent
// registrations of the same address, so callers depend on recognising it.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateProfile(ctx context.Context, id int64, upd ProfileUpdate) (*model.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	LinkGoogleID(ctx context.Context, id int64, googleID string) error
}

// TokenRepository stores the access-token rows backing the opaque bearer
// tokens. Delete of an unknown ID is not an error (logout is tolerant).
type TokenRepository interface {
	Insert(ctx context.Context, token *model.AccessToken) error
	GetByID(ctx context.Context, id string) (*model.AccessToken, error)
	Delete(ctx context.Context, id string) error
	ListForUser(ctx context.Context, userID int64) ([]model.AccessToken, error)
}
