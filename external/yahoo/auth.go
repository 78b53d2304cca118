package yahoo

import (
	"context"
	"fmt"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"golang.org/x/oauth2"
)

// Endpoint is Yahoo's OAuth2 authorization server.
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://api.login.yahoo.com/oauth2/request_auth",
	TokenURL: "https://api.login.yahoo.com/oauth2/get_token",
}

// ScopeFantasyRead grants read access to Fantasy Sports data.
const ScopeFantasyRead = "fspt-r"

var ErrNotAuthenticated = crerr.New("session has no provider token")

type AuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Authenticator drives the three-legged OAuth flow against Yahoo.
type Authenticator struct {
	cfg *oauth2.Config
}

func NewAuthenticator(cfg AuthConfig) *Authenticator {
	return &Authenticator{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{ScopeFantasyRead},
			Endpoint:     Endpoint,
		},
	}
}

// Enabled reports whether client credentials were configured at all.
func (a *Authenticator) Enabled() bool {
	return a != nil && a.cfg.ClientID != "" && a.cfg.ClientSecret != ""
}

func (a *Authenticator) AuthCodeURL(state string) string {
	return a.cfg.AuthCodeURL(state)
}

func (a *Authenticator) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := a.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return token, nil
}

// Session holds one profile's provider token and refreshes it lazily. It
// implements usecase.ProviderSession.
type Session struct {
	id   string
	auth *Authenticator

	mu    sync.Mutex
	token *oauth2.Token
}

func (s *Session) SessionID() string { return s.id }

// AccessToken returns a currently valid access token, refreshing through the
// stored refresh token when the cached one expired.
func (s *Session) AccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == nil {
		return "", ErrNotAuthenticated
	}
	if s.token.Valid() {
		return s.token.AccessToken, nil
	}

	fresh, err := s.auth.cfg.TokenSource(ctx, s.token).Token()
	if err != nil {
		return "", fmt.Errorf("refresh access token: %w", err)
	}
	// Yahoo omits the refresh token on refresh responses; keep the old one.
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = s.token.RefreshToken
	}
	s.token = fresh

	return fresh.AccessToken, nil
}

// Invalidate expires the cached access token so the next AccessToken call
// goes through a refresh. Used when the provider rejects a token that still
// looks valid locally.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != nil {
		s.token.Expiry = time.Now().Add(-time.Minute)
	}
}

func (s *Session) install(token *oauth2.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
}

func (s *Session) authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.token != nil
}
