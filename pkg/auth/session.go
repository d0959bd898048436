// Package auth keeps the signed-in account and its bearer token.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/goliatone/go-fundboard/pkg/api"
)

// Storage keys.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

var (
	// ErrNotAuthenticated is returned when an operation needs a live session.
	ErrNotAuthenticated = errors.New("auth: not authenticated")
	// ErrNotAdmin is returned when the account lacks the admin role.
	ErrNotAdmin = errors.New("auth: administrator role required")
)

// Options configures a Session.
type Options struct {
	Client  api.AuthClient
	Storage Storage
	Clock   func() time.Time
	Logger  *zap.Logger
}

// Session tracks the signed-in user.
type Session struct {
	client  api.AuthClient
	storage Storage
	now     func() time.Time
	logger  *zap.Logger

	mu      sync.RWMutex
	token   string
	user    *api.User
	expires time.Time
	loading bool
}

// NewSession builds a session. Storage defaults to memory.
func NewSession(opts Options) *Session {
	storage := opts.Storage
	if storage == nil {
		storage = NewMemoryStorage()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{client: opts.Client, storage: storage, now: clock, logger: logger}
}

// Restore loads a persisted session. Expired or unreadable sessions are cleared.
func (s *Session) Restore(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	token, ok, err := s.storage.Get(ctx, KeyToken)
	if err != nil || !ok {
		return err
	}
	rawUser, ok, err := s.storage.Get(ctx, KeyUser)
	if err != nil {
		return err
	}
	var user api.User
	if ok {
		if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
			s.logger.Warn("discarding unreadable stored user", zap.Error(err))
			return s.clear(ctx)
		}
	}
	expires, err := TokenExpiry(token)
	if err != nil {
		s.logger.Warn("discarding unreadable stored token", zap.Error(err))
		return s.clear(ctx)
	}
	if !expires.IsZero() && !s.now().Before(expires) {
		s.logger.Info("stored session expired", zap.Time("expired_at", expires))
		return s.clear(ctx)
	}

	s.mu.Lock()
	s.token = token
	s.user = &user
	s.expires = expires
	s.mu.Unlock()
	return nil
}

// Login exchanges credentials for a token and persists it.
func (s *Session) Login(ctx context.Context, email, password string) (api.User, error) {
	if s.client == nil {
		return api.User{}, errors.New("auth: login requires client")
	}
	s.setLoading(true)
	defer s.setLoading(false)

	resp, err := s.client.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return api.User{}, err
	}
	expires, err := TokenExpiry(resp.Token)
	if err != nil {
		return api.User{}, err
	}
	rawUser, err := json.Marshal(resp.User)
	if err != nil {
		return api.User{}, fmt.Errorf("auth: encode user: %w", err)
	}
	if err := s.storage.Set(ctx, KeyToken, resp.Token); err != nil {
		return api.User{}, err
	}
	if err := s.storage.Set(ctx, KeyUser, string(rawUser)); err != nil {
		return api.User{}, err
	}

	s.mu.Lock()
	s.token = resp.Token
	user := resp.User
	s.user = &user
	s.expires = expires
	s.mu.Unlock()
	s.logger.Info("signed in", zap.String("user_id", user.ID), zap.String("role", user.Role))
	return user, nil
}

// Logout forgets the session locally.
func (s *Session) Logout(ctx context.Context) error {
	return s.clear(ctx)
}

func (s *Session) clear(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.expires = time.Time{}
	s.mu.Unlock()
	return s.storage.Delete(ctx, KeyToken, KeyUser)
}

func (s *Session) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

// Loading reports whether a restore or login is in flight.
func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// User returns the signed-in account.
func (s *Session) User() (api.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return api.User{}, false
	}
	return *s.user, true
}

// IsAuthenticated reports whether a token is held and not expired at now.
func (s *Session) IsAuthenticated(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return false
	}
	return s.expires.IsZero() || now.Before(s.expires)
}

// ExpiresAt returns the token expiry, zero when the token carries none.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expires
}

// RequireAdmin fails unless an unexpired admin session is held.
func (s *Session) RequireAdmin() error {
	if !s.IsAuthenticated(s.now()) {
		return ErrNotAuthenticated
	}
	user, _ := s.User()
	if !user.IsAdmin() {
		return ErrNotAdmin
	}
	return nil
}

// Token implements api.TokenFunc. An expired session yields no token.
func (s *Session) Token(context.Context) (string, error) {
	if !s.IsAuthenticated(s.now()) {
		return "", nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

// TokenExpiry reads the exp claim without verifying the signature; the backend
// verifies tokens. Tokens without exp return a zero time.
func TokenExpiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("auth: parse token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("auth: parse token: %w", err)
	}
	if exp == nil {
		return time.Time{}, nil
	}
	return exp.Time, nil
}

// OAuthURL returns the redirect URL that starts an OAuth sign-in with provider.
func OAuthURL(apiURL, provider string) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(apiURL), "/")
	if base == "" {
		return "", errors.New("auth: api url is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return "", fmt.Errorf("auth: invalid api url %q: %w", apiURL, err)
	}
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return "", errors.New("auth: provider is required")
	}
	return base + "/auth/" + url.PathEscape(provider), nil
}
