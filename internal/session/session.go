package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/sephire/internal/shared"
	"golang.org/x/oauth2"
)

// expiryMargin is the safety window before the recorded expiry instant in
// which a token is already treated as expired.
const expiryMargin = 60 * time.Second

// Manager holds the process-lifetime OAuth2 session: the current token pair
// and the pending authorization state.
//
// All fields are guarded by mu. The lock is held across the refresh network
// call so refresh attempts are serialized per token.
type Manager struct {
	config *oauth2.Config

	mu      sync.Mutex
	token   *oauth2.Token
	pending string

	now func() time.Time
}

// NewManager creates a session manager for the given OAuth2 configuration.
func NewManager(config *oauth2.Config) *Manager {
	return &Manager{
		config: config,
		now:    time.Now,
	}
}

// StartLogin begins a new authorization-code flow.
//
// Generates a fresh state value, records it as the only pending state
// (invalidating any prior login attempt) and returns the provider
// authorization URL to redirect the user to.
func (m *Manager) StartLogin() (string, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.pending = state
	m.mu.Unlock()

	return m.config.AuthCodeURL(state), nil
}

// HandleCallback completes the authorization-code flow.
//
// The pending state is consumed whether or not the callback succeeds; a
// replayed callback always fails. On success the exchanged token replaces the
// store contents.
func (m *Manager) HandleCallback(ctx context.Context, code, state string) error {
	m.mu.Lock()
	pending := m.pending
	m.pending = ""
	m.mu.Unlock()

	if pending == "" || state != pending {
		return fmt.Errorf("%w: invalid state parameter", shared.ErrAuthorization)
	}

	if code == "" {
		return fmt.Errorf("%w: no authorization code received", shared.ErrAuthorization)
	}

	token, err := m.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("%w: token exchange rejected: %v", shared.ErrAuthorization, err)
	}

	m.mu.Lock()
	m.token = token
	m.mu.Unlock()

	return nil
}

// EnsureValid returns a currently valid access token, refreshing it first if
// the stored token expires within the safety margin.
//
// The lock is held for the duration of the call, including the refresh
// request, so concurrent callers trigger at most one refresh and observe
// either the old or the new token, never a partial update.
func (m *Manager) EnsureValid(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token == nil {
		return "", fmt.Errorf("%w: complete the login flow first", shared.ErrNotAuthenticated)
	}

	// A zero expiry means the provider never reported a lifetime; treat the
	// token as non-expiring (matches oauth2.Token semantics).
	if m.token.Expiry.IsZero() || m.token.Expiry.After(m.now().Add(expiryMargin)) {
		return m.token.AccessToken, nil
	}

	if m.token.RefreshToken == "" {
		m.token = nil
		return "", fmt.Errorf("%w: token expired", shared.ErrNoRefreshToken)
	}

	refreshed, err := m.refresh(ctx)
	if err != nil {
		// Terminal for this session: clear the store so every caller fails
		// until a new login completes.
		m.token = nil
		return "", fmt.Errorf("%w: token refresh rejected: %v", shared.ErrAuthorization, err)
	}

	// oauth2 stamps the refreshed expiry from the wall clock; rebase it onto
	// the manager's clock so the freshness check above agrees with it.
	if !refreshed.Expiry.IsZero() {
		refreshed.Expiry = m.now().Add(time.Until(refreshed.Expiry))
	}

	// Providers are not required to rotate the refresh token on renewal.
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = m.token.RefreshToken
	}
	m.token = refreshed

	return m.token.AccessToken, nil
}

// refresh performs a refresh-token grant. Caller holds mu.
//
// Passing a token without an access token forces [oauth2.Config.TokenSource]
// to hit the token endpoint immediately rather than reusing the expired pair.
func (m *Manager) refresh(ctx context.Context) (*oauth2.Token, error) {
	src := m.config.TokenSource(ctx, &oauth2.Token{RefreshToken: m.token.RefreshToken})
	return src.Token()
}

// Authenticated reports whether a token is currently stored.
func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token != nil
}

// Token returns a copy of the stored token for display purposes, or nil when
// no session exists.
func (m *Manager) Token() *oauth2.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == nil {
		return nil
	}
	copied := *m.token
	return &copied
}

// SetToken replaces the stored token. Used when a token is obtained outside
// the callback path (tests, pre-issued tokens).
func (m *Manager) SetToken(token *oauth2.Token) {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
}
