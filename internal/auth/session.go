// Package auth manages the credential used against the interview backend.
// Authentication state lives in an explicit Session object with a defined
// lifecycle: created at login, destroyed at logout. Nothing reads tokens
// from ambient storage.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/preptrack/interview-console/internal/util"
)

// tokenTimeout bounds the token endpoint round trip.
const tokenTimeout = 30 * time.Second

// Config holds the OAuth2 client-credentials settings for the backend.
type Config struct {
	TokenURL     string   `json:"token_url"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	Scopes       []string `json:"scopes,omitempty"`
}

// validate checks that the required credential fields are present.
func (c *Config) validate() error {
	if c.TokenURL == "" {
		return fmt.Errorf("token URL is required")
	}
	if c.ClientID == "" {
		return fmt.Errorf("client ID is required")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("client secret is required")
	}
	return nil
}

// Session is one authenticated span against the backend. It supplies the
// bearer credential for every session API call and is invalidated by Logout.
type Session struct {
	mu     sync.Mutex
	source oauth2.TokenSource
	cancel context.CancelFunc
}

// Login obtains an initial token from the token endpoint and returns the
// live session. Credential problems surface here, not on the first API call.
func Login(cfg Config) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, util.WrapError("validate auth config", err)
	}

	conf := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       cfg.Scopes,
	}

	baseClient := &http.Client{Timeout: tokenTimeout}
	ctx, cancel := context.WithCancel(
		context.WithValue(context.Background(), oauth2.HTTPClient, baseClient))

	source := conf.TokenSource(ctx)
	if _, err := source.Token(); err != nil {
		cancel()
		return nil, util.WrapError("obtain token", err)
	}

	return &Session{source: source, cancel: cancel}, nil
}

// TokenSource returns the refreshing token source for API clients.
func (s *Session) TokenSource() oauth2.TokenSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// Valid reports whether the session has not been logged out.
func (s *Session) Valid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source != nil
}

// Logout destroys the session. Subsequent token refreshes fail; the session
// object cannot be revived. Idempotent.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.source = nil
}
