package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/parlorvoice/parlor/pkg/jsontime"
	"github.com/parlorvoice/parlor/pkg/kv"
	"github.com/parlorvoice/parlor/pkg/wire"
)

// Sentinel errors.
var (
	// ErrInvalidCredentials means the server rejected the credentials.
	// Terminal: no automatic retry.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrServiceUnavailable means the exchange failed for transient reasons
	// (5xx or network).
	ErrServiceUnavailable = errors.New("auth: service unavailable")

	// ErrSessionExpired means the refresh attempt failed and credentials
	// were cleared. Callers must re-authenticate.
	ErrSessionExpired = errors.New("auth: session expired")

	// ErrNotAuthenticated means no token is held.
	ErrNotAuthenticated = errors.New("auth: not authenticated")
)

// Credentials are what the user presents at login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Token is an issued token pair. Immutable once returned.
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// LoginResult is everything a successful login returns. FirstPage seeds the
// session index without a second round trip.
type LoginResult struct {
	Token       Token
	UISessionID string
	FirstPage   *wire.SessionPage
}

// Config configures a Manager.
type Config struct {
	// BaseURL is the credential-exchange endpoint base, e.g.
	// "https://api.parlor.dev". Required.
	BaseURL string

	// HTTPClient defaults to a client with a 15s timeout.
	HTTPClient *http.Client

	// SafetyMargin is how long before expiry the automatic refresh fires.
	// Defaults to 30s.
	SafetyMargin time.Duration

	// Store, when set, persists the session-scoped identity (refresh token,
	// UI session ID) under Profile.
	Store kv.Store

	// Profile names the persisted identity. Defaults to "default".
	Profile string

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Manager owns the token store. All token state is private; consumers read
// through accessors.
type Manager struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger

	mu          sync.Mutex
	token       *Token
	uiSessionID string
	firstPage   *wire.SessionPage
	refreshTmr  *time.Timer
	onExpired   func(error)

	now func() time.Time
}

// NewManager creates a Manager. It performs no I/O until Login, Refresh or
// LoadPersisted.
func NewManager(cfg Config) *Manager {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if cfg.SafetyMargin <= 0 {
		cfg.SafetyMargin = 30 * time.Second
	}
	if cfg.Profile == "" {
		cfg.Profile = "default"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Manager{
		cfg:    cfg,
		client: cfg.HTTPClient,
		logger: cfg.Logger,
		now:    time.Now,
	}
}

// OnExpired registers a callback fired when an automatic refresh fails and
// credentials are cleared.
func (m *Manager) OnExpired(fn func(error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpired = fn
}

// loginResponse is the wire shape of the login and refresh endpoints.
type loginResponse struct {
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
	ExpiresAt    jsontime.Milli    `json:"expires_at"`
	UISessionID  string            `json:"ui_session_id"`
	Sessions     *wire.SessionPage `json:"sessions,omitempty"`
}

// Login exchanges credentials for a token pair, the UI session ID, and the
// first session page. On success the automatic refresh is scheduled and the
// session-scoped identity is persisted when a store is configured.
func (m *Manager) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	resp, err := m.exchange(ctx, "/v1/auth/login", creds)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.token = &Token{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    resp.ExpiresAt.Time(),
	}
	m.uiSessionID = resp.UISessionID
	if resp.Sessions != nil {
		m.firstPage = resp.Sessions
	}
	m.scheduleRefreshLocked()
	m.mu.Unlock()

	if err := m.persist(ctx); err != nil {
		m.logger.Warn("auth: persist identity failed", "error", err)
	}

	return &LoginResult{
		Token:       Token{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken, ExpiresAt: resp.ExpiresAt.Time()},
		UISessionID: resp.UISessionID,
		FirstPage:   resp.Sessions,
	}, nil
}

// Refresh exchanges the refresh token for a new access token. On any
// failure it clears all stored credentials and returns ErrSessionExpired.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	if m.token == nil {
		m.mu.Unlock()
		return ErrNotAuthenticated
	}
	refreshToken := m.token.RefreshToken
	m.mu.Unlock()

	resp, err := m.exchange(ctx, "/v1/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	})
	if err != nil {
		m.clear(ctx)
		return fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}

	m.mu.Lock()
	m.token = &Token{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    resp.ExpiresAt.Time(),
	}
	if resp.UISessionID != "" {
		m.uiSessionID = resp.UISessionID
	}
	if resp.Sessions != nil {
		m.firstPage = resp.Sessions
	}
	m.scheduleRefreshLocked()
	m.mu.Unlock()

	if err := m.persist(ctx); err != nil {
		m.logger.Warn("auth: persist identity failed", "error", err)
	}
	return nil
}

// exchange posts a JSON body and maps the response status to the error
// taxonomy: 4xx invalid credentials, 5xx/network service unavailable.
func (m *Manager) exchange(ctx context.Context, path string, body any) (*loginResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("auth: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("auth: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer httpResp.Body.Close()

	switch {
	case httpResp.StatusCode >= 200 && httpResp.StatusCode < 300:
	case httpResp.StatusCode >= 400 && httpResp.StatusCode < 500:
		return nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, readServerError(httpResp))
	default:
		return nil, fmt.Errorf("%w: status %d", ErrServiceUnavailable, httpResp.StatusCode)
	}

	var resp loginResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("auth: decode response: %w", err)
	}
	return &resp, nil
}

func readServerError(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var we wire.Error
	if json.Unmarshal(body, &we) == nil && we.Message != "" {
		we.HTTPStatus = resp.StatusCode
		return we.Error()
	}
	return fmt.Sprintf("status %d", resp.StatusCode)
}

// scheduleRefreshLocked arms a single refresh attempt at expiry minus the
// safety margin.
func (m *Manager) scheduleRefreshLocked() {
	if m.refreshTmr != nil {
		m.refreshTmr.Stop()
	}
	delay := m.token.ExpiresAt.Sub(m.now()) - m.cfg.SafetyMargin
	if delay < 0 {
		delay = 0
	}
	m.refreshTmr = time.AfterFunc(delay, m.autoRefresh)
}

func (m *Manager) autoRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := m.Refresh(ctx); err != nil {
		m.logger.Error("auth: automatic refresh failed", "error", err)
		m.mu.Lock()
		fn := m.onExpired
		m.mu.Unlock()
		if fn != nil {
			fn(err)
		}
		return
	}
	m.logger.Debug("auth: access token refreshed")
}

// AccessToken returns the current access token, or "" when not
// authenticated.
func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == nil {
		return ""
	}
	return m.token.AccessToken
}

// UISessionID returns the server-issued UI session identifier, or "".
func (m *Manager) UISessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uiSessionID
}

// FirstPage returns the session page the most recent credential exchange
// carried, or nil. It seeds the session index without a second round trip.
func (m *Manager) FirstPage() *wire.SessionPage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.firstPage
}

// ExpiresAt returns the access token expiry, or the zero time when not
// authenticated.
func (m *Manager) ExpiresAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == nil {
		return time.Time{}
	}
	return m.token.ExpiresAt
}

// clear drops in-memory and persisted credentials, leaving the manager in a
// well-defined unauthenticated state.
func (m *Manager) clear(ctx context.Context) {
	m.mu.Lock()
	m.token = nil
	m.uiSessionID = ""
	m.firstPage = nil
	if m.refreshTmr != nil {
		m.refreshTmr.Stop()
		m.refreshTmr = nil
	}
	m.mu.Unlock()

	if m.cfg.Store != nil {
		if err := m.cfg.Store.Delete(ctx, m.identityKey()); err != nil {
			m.logger.Warn("auth: clear persisted identity failed", "error", err)
		}
	}
}

// Logout clears all credentials. Safe to call when unauthenticated.
func (m *Manager) Logout(ctx context.Context) {
	m.clear(ctx)
}

// Close stops the refresh timer without clearing credentials.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.refreshTmr != nil {
		m.refreshTmr.Stop()
		m.refreshTmr = nil
	}
}
