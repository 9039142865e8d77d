// Package apiclient is the authenticated HTTP client used by tools talking to
// the billing API. It injects bearer tokens into outgoing requests and
// transparently recovers from an expired access token exactly once per
// request, coordinating concurrent callers so only one refresh call is ever
// in flight.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/sync/singleflight"
)

var (
	// ErrSessionExpired means the session could not be refreshed; the caller
	// has to re-authenticate.
	ErrSessionExpired = errors.New("session expired: re-authentication required")
	// ErrForbidden is an authorization failure (403). Never refreshed.
	ErrForbidden = errors.New("forbidden")
)

// AuthError is a 401 that is not token-related (for example "invalid
// credentials" on a login attempt). It is surfaced directly and never
// triggers a refresh.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return "authentication failed: " + e.Message }

// TokenPair holds the opaque access and refresh tokens issued by the server.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// SessionManager owns the token pair and the refresh flow. Refresh is
// single-flight: however many requests fail with an expired token at once,
// only one call hits the refresh endpoint and every waiter shares its
// outcome.
type SessionManager struct {
	refreshURL string
	httpc      *http.Client

	mu     sync.RWMutex
	tokens TokenPair

	sf singleflight.Group

	expiredMu sync.Mutex
	onExpired func()
	notified  bool
}

// NewSessionManager builds a session manager that refreshes against
// refreshURL. A nil client falls back to http.DefaultClient.
func NewSessionManager(refreshURL string, httpc *http.Client) *SessionManager {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &SessionManager{refreshURL: refreshURL, httpc: httpc}
}

// SetTokens installs a fresh token pair, e.g. after login. It re-arms the
// expiry notification.
func (m *SessionManager) SetTokens(p TokenPair) {
	m.mu.Lock()
	m.tokens = p
	m.mu.Unlock()
	m.expiredMu.Lock()
	m.notified = false
	m.expiredMu.Unlock()
}

// AccessToken returns the current access token, empty if logged out.
func (m *SessionManager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tokens.AccessToken
}

// OnSessionExpired registers a callback fired once per session teardown, so a
// caller can prompt for re-authentication.
func (m *SessionManager) OnSessionExpired(fn func()) {
	m.expiredMu.Lock()
	m.onExpired = fn
	m.expiredMu.Unlock()
}

// Refresh exchanges the refresh token for a new pair. staleToken is the access
// token the caller just failed with; if another caller already refreshed past
// it, the new token is returned without a second round trip. On failure the
// session is torn down and every concurrent waiter gets the same error.
func (m *SessionManager) Refresh(ctx context.Context, staleToken string) (string, error) {
	v, err, _ := m.sf.Do("refresh", func() (any, error) {
		if cur := m.AccessToken(); cur != "" && cur != staleToken {
			return cur, nil
		}
		return m.doRefresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *SessionManager) doRefresh(ctx context.Context) (string, error) {
	m.mu.RLock()
	rt := m.tokens.RefreshToken
	m.mu.RUnlock()
	if rt == "" {
		m.teardown()
		return "", ErrSessionExpired
	}

	body, err := json.Marshal(map[string]string{"refreshToken": rt})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.refreshURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpc.Do(req)
	if err != nil {
		m.teardown()
		return "", fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		m.teardown()
		return "", ErrSessionExpired
	}

	var out struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Token == "" {
		m.teardown()
		return "", ErrSessionExpired
	}

	// both tokens replaced atomically
	m.mu.Lock()
	m.tokens = TokenPair{AccessToken: out.Token, RefreshToken: out.RefreshToken}
	m.mu.Unlock()
	return out.Token, nil
}

// teardown clears the tokens and fires the expiry callback once.
func (m *SessionManager) teardown() {
	m.mu.Lock()
	m.tokens = TokenPair{}
	m.mu.Unlock()

	m.expiredMu.Lock()
	fn := m.onExpired
	fire := fn != nil && !m.notified
	m.notified = true
	m.expiredMu.Unlock()
	if fire {
		fn()
	}
}
