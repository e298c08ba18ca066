package model

import "time"

// AccessToken is one row of the user-to-token relation. A user may hold any
// number of concurrent tokens (one per device/session).
//
// Only SecretHash is stored — the plaintext secret is returned to the client
// exactly once at issuance and cannot be recovered from this record.
type AccessToken struct {
	ID         string    `json:"id"         db:"id"`          // lookup key, embedded in the plaintext token
	UserID     int64     `json:"user_id"    db:"user_id"`
	SecretHash string    `json:"-"          db:"secret_hash"` // hex sha256 of the secret half
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
