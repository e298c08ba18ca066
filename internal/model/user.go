// Package model defines the data structures used throughout the application.
package model

import "time"

// Role is the closed set of privilege levels a user can hold.
//
// WHY A NAMED TYPE AND NOT A PLAIN string?
// The API must never accept a role it doesn't know about (a registration
// request claiming "super_admin" would be a privilege escalation). A named
// type with a Valid() check makes every boundary that receives a role spell
// out whether it trusts the value.
type Role string

const (
	RoleUser       Role = "user"
	RoleVendor     Role = "vendor"
	RoleSuperAdmin Role = "super_admin"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleVendor, RoleSuperAdmin:
		return true
	}
	return false
}

// User represents a registered account.
//
// Email is the login key and is UNIQUE in the database. PasswordHash is
// empty for accounts created through Google sign-in — those accounts cannot
// use password login until a password is set through another flow. GoogleID
// is empty until the account is linked to a Google identity.
//
// JSON tags are snake_case because that is the wire format the frontend
// already consumes.
type User struct {
	ID              int64      `json:"id"              db:"id"`
	Name            string     `json:"name"            db:"name"`
	Email           string     `json:"email"           db:"email"`
	PasswordHash    string     `json:"-"               db:"password_hash"` // never serialized
	Role            Role       `json:"role"            db:"role"`
	GoogleID        string     `json:"google_id"       db:"google_id"` // empty = not linked
	Phone           string     `json:"phone"           db:"phone"`
	Avatar          string     `json:"avatar"          db:"avatar"` // storage path, not a URL
	Address         string     `json:"address"         db:"address"`
	City            string     `json:"city"            db:"city"`
	State           string     `json:"state"           db:"state"`
	ZipCode         string     `json:"zip_code"        db:"zip_code"`
	Country         string     `json:"country"         db:"country"`
	DateOfBirth     string     `json:"date_of_birth"   db:"date_of_birth"` // ISO date as sent by clients
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty" db:"email_verified_at"`
	CreatedAt       time.Time  `json:"created_at"      db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"      db:"updated_at"`
}

// HasPassword reports whether password login is available for this account.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// Summary is the compact user representation returned by login, register,
// and the OAuth redirect. It is also what the client caches locally.
type Summary struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	GoogleID string `json:"google_id,omitempty"`
}

// Summary returns the compact representation of u.
func (u *User) Summary() Summary {
	return Summary{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Role:     u.Role,
		GoogleID: u.GoogleID,
	}
}
