package authsdk

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Session holds a token and refreshes it before it expires. It is safe for
// concurrent use.
type Session struct {
	client *Client

	mu    sync.RWMutex
	token *Token

	now func() time.Time
}

func newSession(client *Client, tok *Token) *Session {
	return &Session{client: client, token: tok, now: time.Now}
}

// Token returns the current token without checking expiry.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token.Token
}

// Claims returns the claims of the current token.
func (s *Session) Claims() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any, len(s.token.Claims))
	for k, v := range s.token.Claims {
		out[k] = v
	}
	return out
}

// Me calls GET /v1/me.
func (s *Session) Me(ctx context.Context) (*MeResponse, error) {
	token, err := s.validToken(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.Me(ctx, token)
}

// GetUser calls GET /v1/users/{username}.
func (s *Session) GetUser(ctx context.Context, username string) (*UserResponse, error) {
	token, err := s.validToken(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.GetUser(ctx, token, username)
}

// Refresh replaces the token with a fresh one now.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

// validToken returns the current token, refreshing it first when it is
// within RefreshBefore of expiring.
func (s *Session) validToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if !s.dueLocked() {
		token := s.token.Token
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have refreshed while we waited.
	if !s.dueLocked() {
		return s.token.Token, nil
	}
	if err := s.refreshLocked(ctx); err != nil {
		return "", err
	}
	return s.token.Token, nil
}

func (s *Session) dueLocked() bool {
	if s.token.ExpiresAt.IsZero() {
		return false
	}
	return !s.now().Before(s.token.ExpiresAt.Add(-s.client.RefreshBefore))
}

func (s *Session) refreshLocked(ctx context.Context) error {
	tok, err := s.client.RefreshToken(ctx, s.token.Token)
	if err != nil {
		return fmt.Errorf("authsdk: refresh session: %w", err)
	}
	s.token = tok
	return nil
}
