// Package service — authentication business logic.
//
// AuthService sits between the HTTP handlers and the repositories:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ TokenService (opaque tokens) → TokenRepository (DB)
//
// All auth rules live here, away from HTTP concerns: the service never sets
// a cookie, never reads a header, and never touches status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bishowshrestha9/code-fyp/internal/apperror"
	"github.com/bishowshrestha9/code-fyp/internal/auth"
	"github.com/bishowshrestha9/code-fyp/internal/model"
	"github.com/bishowshrestha9/code-fyp/internal/repository"
)

// validate is shared by all requests; a validator.Validate is safe for
// concurrent use and caches struct metadata.
var validate = validator.New(validator.WithRequiredStructEnabled())

// AuthService handles the authentication business logic.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued token so the handler
// can set the cookie and build the response body in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// RegisterInput is the registration payload. The validate tags mirror the
// rules clients already rely on: name required and bounded, email
// well-formed, password at least 8 characters with a matching confirmation.
type RegisterInput struct {
	Name                 string `json:"name"                  validate:"required,max=255"`
	Email                string `json:"email"                 validate:"required,email"`
	Password             string `json:"password"              validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

// ProfileInput is a partial profile edit; nil means "not supplied".
type ProfileInput struct {
	Name        *string `json:"name"          validate:"omitempty,max=255"`
	Phone       *string `json:"phone"         validate:"omitempty,max=20"`
	Avatar      *string `json:"avatar"        validate:"omitempty,max=500"`
	Address     *string `json:"address"       validate:"omitempty,max=500"`
	City        *string `json:"city"          validate:"omitempty,max=100"`
	State       *string `json:"state"         validate:"omitempty,max=100"`
	ZipCode     *string `json:"zip_code"      validate:"omitempty,max=20"`
	Country     *string `json:"country"       validate:"omitempty,max=100"`
	DateOfBirth *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
}

// PasswordInput is the password-change payload.
type PasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

// Login validates {email, password} against the credential store.
//
// Unknown email → ErrNotFound (the API deliberately distinguishes this from
// a bad password — a carried-over contract, not an accident). Stored-hash
// mismatch, including the empty hash of an OAuth-only account →
// ErrInvalidCredentials. Success issues a fresh token; prior sessions are
// untouched.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("user")
		}
		return nil, fmt.Errorf("service/auth: looking up %s: %w", email, err)
	}

	if !user.HasPassword() {
		// Google-only account; password login is unavailable until a
		// password is set through the profile flow.
		return nil, apperror.InvalidCredentials()
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.InvalidCredentials()
	}

	return s.issueFor(ctx, user, "password")
}

// Register creates a new least-privileged user and logs them in.
//
// The client can never choose a role — every registration gets RoleUser.
// The duplicate-email pre-check is a courtesy for a clean message; the
// race-proof enforcement is the UNIQUE constraint, surfaced by the
// repository as ErrConflict and converted here to the same validation error.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperror.DuplicateEmail(input.Email)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking email %s: %w", input.Email, err)
	}

	hash, err := s.passwords.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         model.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.DuplicateEmail(input.Email)
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.Int64("userID", user.ID),
		slog.String("email", user.Email),
	)

	return s.issueFor(ctx, user, "register")
}

// LoginWithGoogle completes the federation bridge for a verified Google
// identity: link by email when the account exists, create a passwordless
// account when it doesn't, then issue a token like any other login.
//
// LINK POLICY:
// An existing local-password account and a Google login with the same email
// merge into one account on the strength of the provider's email assertion
// alone — no extra ownership re-verification. The google_id backfill is
// idempotent: only an empty column is ever written.
func (s *AuthService) LoginWithGoogle(ctx context.Context, identity *auth.GoogleIdentity) (*AuthResult, error) {
	if identity == nil {
		return nil, apperror.ProviderError("no identity from provider")
	}

	user, err := s.users.GetByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		if user.GoogleID == "" {
			if err := s.users.LinkGoogleID(ctx, user.ID, identity.Subject); err != nil {
				return nil, fmt.Errorf("service/auth: linking google id: %w", err)
			}
			user.GoogleID = identity.Subject
			s.logger.Info("linked Google identity to existing account",
				slog.Int64("userID", user.ID),
			)
		}

	case errors.Is(err, apperror.ErrNotFound):
		now := time.Now().UTC()
		user = &model.User{
			Name:            identity.Name,
			Email:           identity.Email,
			Role:            model.RoleUser,
			GoogleID:        identity.Subject,
			EmailVerifiedAt: &now, // the provider is trusted as the verifier
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("service/auth: creating user from Google identity: %w", err)
		}
		s.logger.Info("created user from Google identity",
			slog.Int64("userID", user.ID),
		)

	default:
		return nil, fmt.Errorf("service/auth: looking up %s: %w", identity.Email, err)
	}

	return s.issueFor(ctx, user, "google")
}

// GetUserByID returns the user for the given id. Used by /api/me after the
// middleware resolves the token.
func (s *AuthService) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %d: %w", id, err)
	}
	return user, nil
}

// UpdateProfile applies a partial profile edit for the authenticated user.
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, input ProfileInput) (*model.User, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	user, err := s.users.UpdateProfile(ctx, userID, repository.ProfileUpdate{
		Name:        input.Name,
		Phone:       input.Phone,
		Avatar:      input.Avatar,
		Address:     input.Address,
		City:        input.City,
		State:       input.State,
		ZipCode:     input.ZipCode,
		Country:     input.Country,
		DateOfBirth: input.DateOfBirth,
	})
	if err != nil {
		return nil, fmt.Errorf("service/auth: updating profile of user %d: %w", userID, err)
	}
	return user, nil
}

// UpdatePassword replaces the user's password after checking the current one.
// A wrong current password is ErrWrongPassword (HTTP 400), not a validation
// failure — the input was well-formed, the claim in it was false.
func (s *AuthService) UpdatePassword(ctx context.Context, userID int64, input PasswordInput) error {
	if err := s.validateInput(input); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("service/auth: fetching user %d: %w", userID, err)
	}

	if !user.HasPassword() || s.passwords.Verify(user.PasswordHash, input.CurrentPassword) != nil {
		return apperror.WrongPassword()
	}

	hash, err := s.passwords.Hash(input.NewPassword)
	if err != nil {
		return fmt.Errorf("service/auth: hashing new password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("service/auth: storing new password: %w", err)
	}

	s.logger.Info("password updated", slog.Int64("userID", userID))
	return nil
}

// Logout revokes the presented token. Only that session dies; tokens held
// by the user's other devices stay valid. Tolerant of tokens that are
// already gone.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.tokens.Revoke(ctx, token); err != nil {
		return fmt.Errorf("service/auth: %w", err)
	}
	return nil
}

// ResolveToken maps a plaintext token to its user id. Thin delegation so
// the server wiring only needs the service, not the auth package.
func (s *AuthService) ResolveToken(ctx context.Context, token string) (int64, error) {
	return s.tokens.Resolve(ctx, token)
}

// issueFor mints a token for a fully resolved user.
func (s *AuthService) issueFor(ctx context.Context, user *model.User, method string) (*AuthResult, error) {
	token, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for user %d: %w", user.ID, err)
	}

	s.logger.Info("session issued",
		slog.Int64("userID", user.ID),
		slog.String("method", method),
	)

	return &AuthResult{User: user, Token: token}, nil
}

// validateInput runs the struct tags and converts the first failure into an
// apperror validation error carrying the offending field.
func (s *AuthService) validateInput(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return apperror.ValidationFailed(fe.Field(), validationMessage(fe))
	}
	return fmt.Errorf("service/auth: validating input: %w", err)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "email must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "eqfield":
		return fmt.Sprintf("%s does not match %s", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD form", fe.Field())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
