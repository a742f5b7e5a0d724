package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"

	"github.com/teemow/szymon/internal/instrumentation"
	"github.com/teemow/szymon/internal/logging"
)

// Config describes the OAuth client shared by all Google adapters.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	TokenPath    string
	Scopes       []string
}

// Manager owns the OAuth credential lifecycle: consent URL, code exchange,
// token persistence and transparent refresh. The Tasks and Calendar adapters
// both obtain their HTTP clients from the same Manager.
type Manager struct {
	oauth     *oauth2.Config
	store     TokenStore
	states    *StateStore
	metrics   *instrumentation.Metrics
	logger    *slog.Logger
	transport http.RoundTripper
	stateTTL  time.Duration

	// mu serializes token writes coming from exchange, refresh and logout.
	mu sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithEndpoint overrides the Google OAuth endpoint.
func WithEndpoint(endpoint oauth2.Endpoint) Option {
	return func(m *Manager) {
		m.oauth.Endpoint = endpoint
	}
}

// WithTokenStore replaces the file-backed token store.
func WithTokenStore(store TokenStore) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithMetrics records OAuth exchange and refresh outcomes.
func WithMetrics(metrics *instrumentation.Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithTransport sets the base transport used for Google API requests.
func WithTransport(rt http.RoundTripper) Option {
	return func(m *Manager) {
		m.transport = rt
	}
}

// WithStateTTL sets how long a login state stays valid.
func WithStateTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.stateTTL = ttl
	}
}

// NewManager creates a credential manager. It returns ErrNotConfigured when the
// client id or secret is missing.
func NewManager(cfg Config, opts ...Option) (*Manager, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrNotConfigured
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultOAuthScopes
	}

	m := &Manager{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     googleoauth.Endpoint,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
		},
		logger:   slog.Default(),
		stateTTL: DefaultStateTTL,
		// Force HTTP/1.1; Google APIs intermittently reset HTTP/2 streams on long-lived clients.
		transport: &http.Transport{
			Proxy:             http.ProxyFromEnvironment,
			ForceAttemptHTTP2: false,
		},
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.store == nil {
		path := cfg.TokenPath
		if path == "" {
			path = ".google_token.json"
		}
		m.store = NewFileTokenStore(path, m.oauth)
	}
	m.states = NewStateStore(m.stateTTL, m.logger)

	return m, nil
}

// IsAuthenticated reports whether a token is stored that is either still valid
// or can be refreshed. It never fails; unreadable tokens count as absent.
func (m *Manager) IsAuthenticated() bool {
	token, err := m.store.Load()
	if err != nil {
		return false
	}
	return token.Valid() || token.RefreshToken != ""
}

// AuthURL returns the Google consent URL together with the state recorded for
// the callback. Offline access and a forced consent prompt guarantee that Google
// returns a refresh token.
func (m *Manager) AuthURL() (string, string) {
	state := m.states.Issue()
	url := m.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	)
	return url, state
}

// ConsumeState validates a callback state. Each state may be used once.
func (m *Manager) ConsumeState(state string) error {
	if state == "" {
		return ErrInvalidState
	}
	return m.states.Consume(state)
}

// Exchange trades an authorization code for a token and persists it.
func (m *Manager) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		m.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		return nil, errors.New("authorization code is empty")
	}

	token, err := m.oauth.Exchange(ctx, code)
	if err != nil {
		m.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}

	m.mu.Lock()
	err = m.store.Save(token)
	m.mu.Unlock()
	if err != nil {
		m.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		return nil, fmt.Errorf("failed to store token: %w", err)
	}

	m.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultSuccess)
	m.logger.Info("stored Google OAuth token",
		"access_token", logging.SanitizeToken(token.AccessToken),
		"has_refresh_token", token.RefreshToken != "",
		"expiry", token.Expiry,
	)

	return token, nil
}

// TokenSource returns a token source over the stored token. Refreshed tokens are
// written back to the store. It returns ErrNotAuthenticated when no usable token exists.
func (m *Manager) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	token, err := m.store.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}
	if !token.Valid() && token.RefreshToken == "" {
		m.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultExpired)
		return nil, fmt.Errorf("%w: token expired and no refresh token stored", ErrNotAuthenticated)
	}

	src := &persistingTokenSource{
		ctx:     ctx,
		base:    m.oauth.TokenSource(ctx, token),
		last:    token.AccessToken,
		manager: m,
	}
	return oauth2.ReuseTokenSource(token, src), nil
}

// HTTPClient returns an HTTP client authorizing requests with the stored token.
func (m *Manager) HTTPClient(ctx context.Context) (*http.Client, error) {
	ts, err := m.TokenSource(ctx)
	if err != nil {
		return nil, err
	}

	return &http.Client{
		Transport: &oauth2.Transport{
			Base:   m.transport,
			Source: ts,
		},
	}, nil
}

// Logout removes the stored token. Logging out twice is not an error.
func (m *Manager) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Delete(); err != nil {
		return err
	}
	m.logger.Info("removed Google OAuth token")
	return nil
}

// persistingTokenSource saves every token it receives that differs from the last
// one seen, so refreshes survive restarts.
type persistingTokenSource struct {
	ctx     context.Context
	base    oauth2.TokenSource
	manager *Manager

	mu   sync.Mutex
	last string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		s.manager.metrics.RecordOAuthTokenRefresh(s.ctx, instrumentation.OAuthResultFailure)
		s.manager.logger.Warn("failed to refresh Google OAuth token", logging.Err(err))
		return nil, fmt.Errorf("%w: token refresh failed: %v", ErrNotAuthenticated, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if token.AccessToken == s.last {
		return token, nil
	}
	s.last = token.AccessToken

	s.manager.metrics.RecordOAuthTokenRefresh(s.ctx, instrumentation.OAuthResultSuccess)

	s.manager.mu.Lock()
	err = s.manager.store.Save(token)
	s.manager.mu.Unlock()
	if err != nil {
		// The refreshed token is still usable for this process.
		s.manager.logger.Warn("failed to persist refreshed Google OAuth token", logging.Err(err))
	}

	return token, nil
}
