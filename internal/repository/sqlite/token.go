package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bishowshrestha9/code-fyp/internal/apperror"
	"github.com/bishowshrestha9/code-fyp/internal/model"
	"github.com/bishowshrestha9/code-fyp/internal/repository"
)

// TokenStore implements repository.TokenRepository over the shared pool.
type TokenStore struct {
	conn *sql.DB
}

var _ repository.TokenRepository = (*TokenStore)(nil)

// Insert records a freshly issued token. The caller has already hashed the
// secret — plaintext never reaches this layer.
func (s *TokenStore) Insert(ctx context.Context, token *model.AccessToken) error {
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO access_tokens (id, user_id, secret_hash, created_at)
		 VALUES (?, ?, ?, ?)`,
		token.ID, token.UserID, token.SecretHash, token.CreatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: inserting access token %s: %w", token.ID, err)
	}
	return nil
}

// GetByID retrieves a token row by its lookup id.
// Returns apperror.ErrNotFound if no such token exists (revoked or never issued).
func (s *TokenStore) GetByID(ctx context.Context, id string) (*model.AccessToken, error) {
	var t model.AccessToken
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, user_id, secret_hash, created_at
		 FROM access_tokens WHERE id = ?`, id,
	).Scan(&t.ID, &t.UserID, &t.SecretHash, &t.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("access token")
		}
		return nil, fmt.Errorf("sqlite: getting access token %s: %w", id, err)
	}
	return &t, nil
}

// Delete revokes a single token. Deleting a token that is already gone is
// not an error — logout must be tolerant of double-submits.
func (s *TokenStore) Delete(ctx context.Context, id string) error {
	_, err := s.conn.ExecContext(ctx,
		`DELETE FROM access_tokens WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting access token %s: %w", id, err)
	}
	return nil
}

// ListForUser returns all live tokens for a user, newest first.
func (s *TokenStore) ListForUser(ctx context.Context, userID int64) ([]model.AccessToken, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, user_id, secret_hash, created_at
		 FROM access_tokens WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tokens for user %d: %w", userID, err)
	}
	defer rows.Close()

	var tokens []model.AccessToken
	for rows.Next() {
		var t model.AccessToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.SecretHash, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning token row: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating token rows: %w", err)
	}
	return tokens, nil
}
