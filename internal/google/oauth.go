package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
	gmail "google.golang.org/api/gmail/v1"
	people "google.golang.org/api/people/v1"

	"github.com/teemow/inboxtriage/internal/logging"
)

// RedirectURL is the loopback redirect registered for the desktop client.
// The authorization code is read from the browser's address bar.
const RedirectURL = "http://localhost"

// TokenFileName is the token file inside the cache directory.
const TokenFileName = "google.token"

// ErrNoToken means no OAuth token has been stored yet.
var ErrNoToken = errors.New("no Google OAuth token found, run 'inboxtriage auth' first")

// Scopes are the Google OAuth scopes a triage run needs: read and send mail,
// create calendar events, and read the account's display name.
var Scopes = []string{
	gmail.GmailReadonlyScope,
	gmail.GmailSendScope,
	calendar.CalendarEventsScope,
	people.UserinfoProfileScope,
}

// OAuthConfig returns the OAuth2 configuration for the given desktop client.
func OAuthConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  RedirectURL,
		Scopes:       Scopes,
	}
}

// TokenStore persists one OAuth token as JSON on disk.
type TokenStore struct {
	path string
}

// NewTokenStore returns a store for the token file in dir.
func NewTokenStore(dir string) *TokenStore {
	return &TokenStore{path: filepath.Join(dir, TokenFileName)}
}

// Path returns the token file path.
func (s *TokenStore) Path() string {
	return s.path
}

// Exists reports whether a token file is present.
func (s *TokenStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads the stored token. It returns ErrNoToken if there is none.
func (s *TokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", s.path, err)
	}
	if tok.RefreshToken == "" && tok.AccessToken == "" {
		return nil, fmt.Errorf("invalid token file %s: empty token", s.path)
	}
	return &tok, nil
}

// Save writes the token with owner-only permissions.
func (s *TokenStore) Save(tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Authenticator ties an OAuth2 config to a token store.
type Authenticator struct {
	config *oauth2.Config
	store  *TokenStore
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(config *oauth2.Config, store *TokenStore) *Authenticator {
	return &Authenticator{config: config, store: store}
}

// AuthURL returns the URL the user opens to grant access. Offline access is
// requested so a refresh token is issued.
func (a *Authenticator) AuthURL(state string) string {
	return a.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token and stores it.
func (a *Authenticator) Exchange(ctx context.Context, code string) error {
	tok, err := a.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return a.store.Save(tok)
}

// HTTPClient returns an HTTP client authorised with the stored token.
// Refreshed tokens are written back to the store. The client uses HTTP/1.1
// to avoid HTTP/2 stream errors from the Google front ends.
func (a *Authenticator) HTTPClient(ctx context.Context) (*http.Client, error) {
	tok, err := a.store.Load()
	if err != nil {
		return nil, err
	}

	ts := &savingTokenSource{
		base:  a.config.TokenSource(ctx, tok),
		store: a.store,
		last:  tok.AccessToken,
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	base.ForceAttemptHTTP2 = false

	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.ReuseTokenSource(tok, ts),
			Base:   base,
		},
	}, nil
}

// savingTokenSource persists tokens whenever the access token changes.
type savingTokenSource struct {
	base  oauth2.TokenSource
	store *TokenStore

	mu   sync.Mutex
	last string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh Google token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := s.store.Save(tok); err != nil {
			return nil, err
		}
		slog.Debug("refreshed Google token saved",
			"token", logging.SanitizeToken(tok.AccessToken),
			"expiry", tok.Expiry)
	}
	return tok, nil
}
