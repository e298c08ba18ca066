package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/bishowshrestha9/code-fyp/internal/model"
)

// Storage keys, matching what the web frontend keeps in localStorage.
const (
	tokenKey = "auth_token"
	userKey  = "user"
)

// ErrNetwork is the generic transport-failure state surfaced to callers.
// The client does not retry, time out beyond the transport default, or
// batch — every call is a single best-effort request.
var ErrNetwork = errors.New("client: network error")

// Session is the client-side authentication state: the bearer token and a
// cached profile snapshot, persisted in Storage and mirrored in memory.
//
// The snapshot is never authoritative. CheckAuth revalidates it against
// /api/me on startup, and any rejection purges everything — the client
// would rather force a re-login than act on a stale identity.
type Session struct {
	endpoints Endpoints
	storage   Storage
	http      *http.Client
	logger    *slog.Logger

	mu   sync.Mutex
	user *model.Summary
}

// NewSession creates a Session. httpClient may be nil, in which case
// http.DefaultClient is used.
func NewSession(endpoints Endpoints, storage Storage, httpClient *http.Client, logger *slog.Logger) *Session {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Session{
		endpoints: endpoints,
		storage:   storage,
		http:      httpClient,
		logger:    logger,
	}
}

// Token returns the persisted bearer token, or "" when logged out.
func (s *Session) Token() string {
	token, _ := s.storage.Get(tokenKey)
	return token
}

// User returns the in-memory profile snapshot, or nil when unauthenticated.
func (s *Session) User() *model.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	copied := *s.user
	return &copied
}

// IsAuthenticated reports whether a validated user is present.
func (s *Session) IsAuthenticated() bool {
	return s.User() != nil
}

// Login stores the token and user snapshot — durable storage and in-memory
// state updated together, synchronously, so a caller observing one always
// observes the other.
func (s *Session) Login(token string, user model.Summary) error {
	if err := s.storage.Set(tokenKey, token); err != nil {
		return err
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("client: encoding user snapshot: %w", err)
	}
	if err := s.storage.Set(userKey, string(raw)); err != nil {
		return err
	}

	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	return nil
}

// Logout ends the session.
//
// The server revoke is best-effort: an unreachable server is logged and
// ignored, because the local purge must happen regardless — the user asked
// to leave. The purge is unconditional: token, cached user, and every cart
// snapshot of every user go.
func (s *Session) Logout(ctx context.Context) {
	if token := s.Token(); token != "" {
		if err := s.revoke(ctx, token); err != nil {
			s.logger.Warn("logout: server revoke failed",
				slog.String("error", err.Error()),
			)
		}
	}

	s.purge()
	clearAllCarts(s.storage)
}

// CheckAuth revalidates the persisted session against the backend. Run
// once at startup.
//
// No token → unauthenticated immediately, no network call. Otherwise one
// GET /api/me: 200 refreshes the cached profile; any non-200 or transport
// failure purges all cached auth state. There is no retry and no
// cancellation beyond ctx — an abandoned call degrades to a no-op.
func (s *Session) CheckAuth(ctx context.Context) (bool, error) {
	token := s.Token()
	if token == "" {
		s.purge()
		return false, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoints.Me(), nil)
	if err != nil {
		return false, fmt.Errorf("client: building request: %w", err)
	}
	req.Header = DefaultHeaders(token)

	resp, err := s.http.Do(req)
	if err != nil {
		s.logger.Warn("auth check failed", slog.String("error", err.Error()))
		s.purge()
		return false, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Token rejected — never trust the cached profile past this point.
		s.purge()
		return false, nil
	}

	var body struct {
		User model.Summary `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		s.purge()
		return false, fmt.Errorf("%w: decoding profile: %v", ErrNetwork, err)
	}

	raw, err := json.Marshal(body.User)
	if err == nil {
		_ = s.storage.Set(userKey, string(raw))
	}

	s.mu.Lock()
	s.user = &body.User
	s.mu.Unlock()
	return true, nil
}

// revoke calls POST /api/logout with the current token.
func (s *Session) revoke(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoints.Logout(), nil)
	if err != nil {
		return err
	}
	req.Header = DefaultHeaders(token)

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("client: logout returned status %d", resp.StatusCode)
	}
	return nil
}

// purge drops the persisted token, the cached user object, and the
// in-memory state. Idempotent.
func (s *Session) purge() {
	_ = s.storage.Delete(tokenKey)
	_ = s.storage.Delete(userKey)

	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
}
