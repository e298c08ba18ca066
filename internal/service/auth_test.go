package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/bishowshrestha9/code-fyp/internal/apperror"
	"github.com/bishowshrestha9/code-fyp/internal/auth"
	"github.com/bishowshrestha9/code-fyp/internal/model"
	"github.com/bishowshrestha9/code-fyp/internal/repository"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeUserRepo is an in-memory repository.UserRepository. A hand-written
// fake keeps the tests readable — every behaviour is visible right here.
type fakeUserRepo struct {
	byID    map[int64]*model.User
	byEmail map[string]*model.User
	nextID  int64
	// set to a non-nil error to simulate a database failure
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    make(map[int64]*model.User),
		byEmail: make(map[string]*model.User),
		nextID:  1,
	}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, exists := f.byEmail[user.Email]; exists {
		return fmt.Errorf("fake: inserting user: %w", apperror.ErrConflict)
	}
	user.ID = f.nextID
	f.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	f.byID[user.ID] = &copied
	f.byEmail[user.Email] = &copied
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("user")
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, apperror.NotFound("user")
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) UpdateProfile(ctx context.Context, id int64, upd repository.ProfileUpdate) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("user")
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Phone != nil {
		u.Phone = *upd.Phone
	}
	if upd.City != nil {
		u.City = *upd.City
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	u, ok := f.byID[id]
	if !ok {
		return apperror.NotFound("user")
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeUserRepo) LinkGoogleID(ctx context.Context, id int64, googleID string) error {
	u, ok := f.byID[id]
	if !ok {
		return apperror.NotFound("user")
	}
	if u.GoogleID == "" {
		u.GoogleID = googleID
	}
	return nil
}

// fakeTokenRepo is an in-memory repository.TokenRepository.
type fakeTokenRepo struct {
	rows map[string]*model.AccessToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{rows: make(map[string]*model.AccessToken)}
}

func (f *fakeTokenRepo) Insert(ctx context.Context, token *model.AccessToken) error {
	copied := *token
	f.rows[token.ID] = &copied
	return nil
}

func (f *fakeTokenRepo) GetByID(ctx context.Context, id string) (*model.AccessToken, error) {
	row, ok := f.rows[id]
	if !ok {
		return nil, apperror.NotFound("access token")
	}
	return row, nil
}

func (f *fakeTokenRepo) Delete(ctx context.Context, id string) error {
	delete(f.rows, id)
	return nil
}

func (f *fakeTokenRepo) ListForUser(ctx context.Context, userID int64) ([]model.AccessToken, error) {
	var out []model.AccessToken
	for _, row := range f.rows {
		if row.UserID == userID {
			out = append(out, *row)
		}
	}
	return out, nil
}

// newTestAuthService wires an AuthService with in-memory fakes and a
// cost-4 password service.
func newTestAuthService(users *fakeUserRepo) *AuthService {
	tokens := auth.NewTokenService(newFakeTokenRepo())
	passwords := auth.NewPasswordServiceForTest(4)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewAuthService(users, tokens, passwords, logger)
}

// registerAnn registers the canonical test user and returns the result.
func registerAnn(t *testing.T, svc *AuthService) *AuthResult {
	t.Helper()
	result, err := svc.Register(context.Background(), RegisterInput{
		Name:                 "Ann",
		Email:                "ann@x.com",
		Password:             "longenough1",
		PasswordConfirmation: "longenough1",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return result
}

// =========================================================================
// Register TESTS
// =========================================================================

func TestRegister_Success(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())
	result := registerAnn(t, svc)

	if result.Token == "" {
		t.Fatal("Register() returned empty token")
	}
	if result.User.Role != model.RoleUser {
		t.Errorf("Role = %q, want %q", result.User.Role, model.RoleUser)
	}
	if result.User.PasswordHash == "longenough1" {
		t.Error("password stored in plaintext")
	}

	// The issued token must resolve straight back to the new user.
	userID, err := svc.ResolveToken(context.Background(), result.Token)
	if err != nil {
		t.Fatalf("ResolveToken() error = %v", err)
	}
	if userID != result.User.ID {
		t.Errorf("ResolveToken() = %d, want %d", userID, result.User.ID)
	}
}

func TestRegister_NeverAcceptsClientRole(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())
	result := registerAnn(t, svc)

	// RegisterInput has no role field at all; the default is the floor.
	if result.User.Role != model.RoleUser {
		t.Errorf("Role = %q, want least-privileged %q", result.User.Role, model.RoleUser)
	}
}

func TestRegister_ValidationFailures(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())

	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"missing name", RegisterInput{Email: "a@x.com", Password: "longenough1", PasswordConfirmation: "longenough1"}},
		{"bad email", RegisterInput{Name: "A", Email: "not-an-email", Password: "longenough1", PasswordConfirmation: "longenough1"}},
		{"short password", RegisterInput{Name: "A", Email: "a@x.com", Password: "short", PasswordConfirmation: "short"}},
		{"confirmation mismatch", RegisterInput{Name: "A", Email: "a@x.com", Password: "longenough1", PasswordConfirmation: "different11"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.input)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Register() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAuthService(users)
	registerAnn(t, svc)

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:                 "Ann Again",
		Email:                "ann@x.com",
		Password:             "longenough2",
		PasswordConfirmation: "longenough2",
	})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Register() error = %v, want duplicate-email validation error", err)
	}
	if len(users.byID) != 1 {
		t.Errorf("duplicate registration created a record, have %d users", len(users.byID))
	}
}

// =========================================================================
// Login TESTS
// =========================================================================

func TestLogin_Success(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())
	registered := registerAnn(t, svc)

	result, err := svc.Login(context.Background(), "ann@x.com", "longenough1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.User.ID != registered.User.ID {
		t.Errorf("Login() user = %d, want %d", result.User.ID, registered.User.ID)
	}
	if result.Token == registered.Token {
		t.Error("Login() reused the registration token — every login must mint a fresh one")
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())

	_, err := svc.Login(context.Background(), "nobody@x.com", "whatever1")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Login() error = %v, want ErrNotFound", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())
	registerAnn(t, svc)

	_, err := svc.Login(context.Background(), "ann@x.com", "wrongpassword")
	if !errors.Is(err, apperror.ErrInvalidCredentials) {
		t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogin_GoogleOnlyAccount(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())

	_, err := svc.LoginWithGoogle(context.Background(), &auth.GoogleIdentity{
		Subject: "sub-1", Email: "g@x.com", Name: "G",
	})
	if err != nil {
		t.Fatalf("LoginWithGoogle() error = %v", err)
	}

	// No password hash exists; password login must fail as bad credentials.
	_, err = svc.Login(context.Background(), "g@x.com", "anything8")
	if !errors.Is(err, apperror.ErrInvalidCredentials) {
		t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogin_ConcurrentSessions(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())
	registerAnn(t, svc)

	first, err := svc.Login(context.Background(), "ann@x.com", "longenough1")
	if err != nil {
		t.Fatalf("first Login() error = %v", err)
	}
	second, err := svc.Login(context.Background(), "ann@x.com", "longenough1")
	if err != nil {
		t.Fatalf("second Login() error = %v", err)
	}

	// Logging out the first session leaves the second one valid.
	if err := svc.Logout(context.Background(), first.Token); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, err := svc.ResolveToken(context.Background(), first.Token); !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Errorf("revoked token still resolves, err = %v", err)
	}
	if _, err := svc.ResolveToken(context.Background(), second.Token); err != nil {
		t.Errorf("surviving session error = %v", err)
	}
}

// =========================================================================
// LoginWithGoogle TESTS
// =========================================================================

func TestLoginWithGoogle_CreatesUser(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAuthService(users)

	result, err := svc.LoginWithGoogle(context.Background(), &auth.GoogleIdentity{
		Subject: "google-sub-42",
		Email:   "new@x.com",
		Name:    "New Person",
	})
	if err != nil {
		t.Fatalf("LoginWithGoogle() error = %v", err)
	}

	if result.User.GoogleID != "google-sub-42" {
		t.Errorf("GoogleID = %q, want %q", result.User.GoogleID, "google-sub-42")
	}
	if result.User.Role != model.RoleUser {
		t.Errorf("Role = %q, want %q", result.User.Role, model.RoleUser)
	}
	if result.User.HasPassword() {
		t.Error("Google-created account should have no password")
	}
	if result.User.EmailVerifiedAt == nil {
		t.Error("Google-created account should be email-verified")
	}
}

func TestLoginWithGoogle_LinksExistingAccount(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAuthService(users)
	registered := registerAnn(t, svc)

	result, err := svc.LoginWithGoogle(context.Background(), &auth.GoogleIdentity{
		Subject: "google-sub-ann",
		Email:   "ann@x.com",
		Name:    "Ann From Google",
	})
	if err != nil {
		t.Fatalf("LoginWithGoogle() error = %v", err)
	}

	// Same account, no duplicate row, google_id backfilled.
	if result.User.ID != registered.User.ID {
		t.Errorf("linked user id = %d, want %d", result.User.ID, registered.User.ID)
	}
	if len(users.byID) != 1 {
		t.Errorf("link created a duplicate row, have %d users", len(users.byID))
	}
	if result.User.GoogleID != "google-sub-ann" {
		t.Errorf("GoogleID = %q, want backfilled %q", result.User.GoogleID, "google-sub-ann")
	}
}

func TestLoginWithGoogle_Idempotent(t *testing.T) {
	users := newFakeUserRepo()
	svc := newTestAuthService(users)

	identity := &auth.GoogleIdentity{Subject: "sub-same", Email: "same@x.com", Name: "Same"}
	first, err := svc.LoginWithGoogle(context.Background(), identity)
	if err != nil {
		t.Fatalf("first LoginWithGoogle() error = %v", err)
	}
	second, err := svc.LoginWithGoogle(context.Background(), identity)
	if err != nil {
		t.Fatalf("second LoginWithGoogle() error = %v", err)
	}

	if first.User.ID != second.User.ID {
		t.Errorf("second callback created a new user: %d vs %d", first.User.ID, second.User.ID)
	}
	if len(users.byID) != 1 {
		t.Errorf("idempotent callback created rows, have %d users", len(users.byID))
	}
}

// =========================================================================
// UpdatePassword TESTS
// =========================================================================

func TestUpdatePassword_Success(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())
	registered := registerAnn(t, svc)

	err := svc.UpdatePassword(context.Background(), registered.User.ID, PasswordInput{
		CurrentPassword: "longenough1",
		NewPassword:     "evenlonger22",
		ConfirmPassword: "evenlonger22",
	})
	if err != nil {
		t.Fatalf("UpdatePassword() error = %v", err)
	}

	if _, err := svc.Login(context.Background(), "ann@x.com", "evenlonger22"); err != nil {
		t.Errorf("Login() with new password error = %v", err)
	}
	if _, err := svc.Login(context.Background(), "ann@x.com", "longenough1"); err == nil {
		t.Error("Login() with old password should fail")
	}
}

func TestUpdatePassword_WrongCurrent(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())
	registered := registerAnn(t, svc)

	err := svc.UpdatePassword(context.Background(), registered.User.ID, PasswordInput{
		CurrentPassword: "notmypassword",
		NewPassword:     "evenlonger22",
		ConfirmPassword: "evenlonger22",
	})
	if !errors.Is(err, apperror.ErrWrongPassword) {
		t.Errorf("UpdatePassword() error = %v, want ErrWrongPassword", err)
	}
}

func TestUpdatePassword_ConfirmMismatch(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())
	registered := registerAnn(t, svc)

	err := svc.UpdatePassword(context.Background(), registered.User.ID, PasswordInput{
		CurrentPassword: "longenough1",
		NewPassword:     "evenlonger22",
		ConfirmPassword: "different222",
	})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("UpdatePassword() error = %v, want ErrValidation", err)
	}
}

// =========================================================================
// UpdateProfile TESTS
// =========================================================================

func TestUpdateProfile_Partial(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())
	registered := registerAnn(t, svc)

	phone := "555-0100"
	user, err := svc.UpdateProfile(context.Background(), registered.User.ID, ProfileInput{
		Phone: &phone,
	})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if user.Phone != phone {
		t.Errorf("Phone = %q, want %q", user.Phone, phone)
	}
	if user.Name != "Ann" {
		t.Errorf("Name = %q, want untouched %q", user.Name, "Ann")
	}
}

func TestUpdateProfile_BadDateOfBirth(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())
	registered := registerAnn(t, svc)

	dob := "31/12/1990"
	_, err := svc.UpdateProfile(context.Background(), registered.User.ID, ProfileInput{
		DateOfBirth: &dob,
	})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("UpdateProfile() error = %v, want ErrValidation", err)
	}
}

// =========================================================================
// Logout TESTS
// =========================================================================

func TestLogout_Tolerant(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo())

	// Revoking garbage or an already-revoked token is fine.
	if err := svc.Logout(context.Background(), "garbage"); err != nil {
		t.Errorf("Logout() of malformed token error = %v", err)
	}

	registered := registerAnn(t, svc)
	if err := svc.Logout(context.Background(), registered.Token); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if err := svc.Logout(context.Background(), registered.Token); err != nil {
		t.Errorf("second Logout() error = %v, want nil", err)
	}
}
