package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/xid"

	"github.com/bishowshrestha9/code-fyp/internal/apperror"
	"github.com/bishowshrestha9/code-fyp/internal/model"
	"github.com/bishowshrestha9/code-fyp/internal/repository"
)

// TokenService issues, resolves, and revokes opaque bearer tokens.
//
// TOKEN FORMAT:
//
//	<id>|<secret>
//	 ^    ^
//	 |    32 bytes from crypto/rand, base64url — never stored
//	 xid — the database lookup key
//
// Only sha256(secret) is persisted. A database leak therefore exposes no
// usable credentials, and the plaintext is returned to the client exactly
// once at issuance.
//
// WHY NOT A JWT?
// Logout must revoke one specific session while the user's other devices
// stay signed in. That requires per-token server-side state anyway, and once
// the row exists a random secret carries less machinery than a signed claim
// set. Every request re-resolves the token against the store — there is no
// session cache to invalidate.
type TokenService struct {
	tokens repository.TokenRepository
}

// NewTokenService creates a TokenService backed by the given repository.
func NewTokenService(tokens repository.TokenRepository) *TokenService {
	return &TokenService{tokens: tokens}
}

// Issue mints a new token for userID and returns its plaintext form.
// Each call produces a distinct token; concurrent sessions are expected.
func (s *TokenService) Issue(ctx context.Context, userID int64) (string, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return "", fmt.Errorf("auth: generating token secret: %w", err)
	}
	encoded := base64.RawURLEncoding.EncodeToString(secret)

	token := &model.AccessToken{
		ID:         xid.New().String(),
		UserID:     userID,
		SecretHash: hashSecret(encoded),
	}
	if err := s.tokens.Insert(ctx, token); err != nil {
		return "", fmt.Errorf("auth: storing token: %w", err)
	}

	return token.ID + "|" + encoded, nil
}

// Resolve maps a plaintext token back to the owning user ID.
//
// Any failure — malformed token, unknown id, secret mismatch — collapses to
// apperror.ErrUnauthenticated. Callers cannot distinguish "never issued"
// from "revoked", and neither can an attacker.
func (s *TokenService) Resolve(ctx context.Context, plaintext string) (int64, error) {
	id, secret, ok := splitToken(plaintext)
	if !ok {
		return 0, apperror.Unauthenticated()
	}

	record, err := s.tokens.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return 0, apperror.Unauthenticated()
		}
		return 0, fmt.Errorf("auth: resolving token: %w", err)
	}

	// Constant-time compare of the hashes. Hashing first also equalises
	// the lengths, which ConstantTimeCompare requires.
	supplied := hashSecret(secret)
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(record.SecretHash)) != 1 {
		return 0, apperror.Unauthenticated()
	}

	return record.UserID, nil
}

// Revoke deletes the association for this specific token only. Other tokens
// belonging to the same user remain valid. Revoking an unknown or malformed
// token is a no-op.
func (s *TokenService) Revoke(ctx context.Context, plaintext string) error {
	id, _, ok := splitToken(plaintext)
	if !ok {
		return nil
	}
	if err := s.tokens.Delete(ctx, id); err != nil {
		return fmt.Errorf("auth: revoking token: %w", err)
	}
	return nil
}

func splitToken(plaintext string) (id, secret string, ok bool) {
	id, secret, ok = strings.Cut(plaintext, "|")
	if !ok || id == "" || secret == "" {
		return "", "", false
	}
	return id, secret, true
}

func hashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
