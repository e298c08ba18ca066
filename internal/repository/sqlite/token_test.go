package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/bishowshrestha9/code-fyp/internal/apperror"
	"github.com/bishowshrestha9/code-fyp/internal/model"
)

func TestTokenInsertAndGet(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "tok@example.com")

	token := &model.AccessToken{
		ID:         "tok-1",
		UserID:     user.ID,
		SecretHash: "abc123hash",
	}
	if err := db.Tokens().Insert(context.Background(), token); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if token.CreatedAt.IsZero() {
		t.Error("Insert() did not set CreatedAt")
	}

	got, err := db.Tokens().GetByID(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.UserID != user.ID {
		t.Errorf("UserID = %d, want %d", got.UserID, user.ID)
	}
	if got.SecretHash != "abc123hash" {
		t.Errorf("SecretHash = %q, want %q", got.SecretHash, "abc123hash")
	}
}

func TestTokenGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Tokens().GetByID(context.Background(), "never-issued")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestTokenDelete_OnlyRevokesOne(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "multi@example.com")

	for _, id := range []string{"tok-a", "tok-b"} {
		err := db.Tokens().Insert(context.Background(), &model.AccessToken{
			ID: id, UserID: user.ID, SecretHash: "h-" + id,
		})
		if err != nil {
			t.Fatalf("Insert(%s) error = %v", id, err)
		}
	}

	if err := db.Tokens().Delete(context.Background(), "tok-a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	// tok-a gone, tok-b still valid — logout revokes the presented token only.
	if _, err := db.Tokens().GetByID(context.Background(), "tok-a"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("deleted token still resolves, err = %v", err)
	}
	if _, err := db.Tokens().GetByID(context.Background(), "tok-b"); err != nil {
		t.Errorf("surviving token error = %v", err)
	}
}

func TestTokenDelete_Tolerant(t *testing.T) {
	db := newTestDB(t)

	// Deleting a token that never existed must not error.
	if err := db.Tokens().Delete(context.Background(), "ghost"); err != nil {
		t.Errorf("Delete() of unknown token error = %v, want nil", err)
	}
}

func TestTokenListForUser(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "list@example.com")
	other := createTestUser(t, db, "other@example.com")

	for _, tok := range []*model.AccessToken{
		{ID: "mine-1", UserID: user.ID, SecretHash: "h1"},
		{ID: "mine-2", UserID: user.ID, SecretHash: "h2"},
		{ID: "theirs", UserID: other.ID, SecretHash: "h3"},
	} {
		if err := db.Tokens().Insert(context.Background(), tok); err != nil {
			t.Fatalf("Insert(%s) error = %v", tok.ID, err)
		}
	}

	tokens, err := db.Tokens().ListForUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListForUser() error = %v", err)
	}
	if len(tokens) != 2 {
		t.Errorf("ListForUser() returned %d tokens, want 2", len(tokens))
	}
	for _, tok := range tokens {
		if tok.UserID != user.ID {
			t.Errorf("ListForUser() returned token of user %d", tok.UserID)
		}
	}
}
