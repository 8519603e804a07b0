// Package session owns the client-side authentication session: the bearer
// token, the current user, and the rules for when either stops being valid.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/theirongolddev/ngodash/internal/api"
	"github.com/theirongolddev/ngodash/internal/model"
)

// Persisted keys.
const (
	KeyToken = "authToken"
	KeyUser  = "user"
)

const defaultInitTimeout = 10 * time.Second

// State is the session lifecycle state.
type State int

// Session states.
const (
	Uninitialized State = iota
	Loading
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

// Store is durable client-local storage.
type Store interface {
	Get(key string) (string, bool, error)
	SetMany(values map[string]string) error
	Delete(keys ...string) error
}

// Client is the part of the REST API the session needs.
type Client interface {
	Login(ctx context.Context, email, password string) (*api.AuthResponse, error)
	Register(ctx context.Context, reg api.Registration) (*api.AuthResponse, error)
	Me(ctx context.Context) (*model.User, error)
	SetAuthenticator(a api.Authenticator)
}

// Snapshot is a consistent read of the session.
type Snapshot struct {
	State         State
	Token         string
	User          *model.User
	Authenticated bool
}

// Loading reports whether initialization is still in progress.
func (s Snapshot) Loading() bool {
	return s.State == Uninitialized || s.State == Loading
}

// Manager is the only writer of session state and persisted credentials.
// It is safe for concurrent use; no lock is held across network calls.
type Manager struct {
	store       Store
	client      Client
	logger      *slog.Logger
	now         func() time.Time
	initTimeout time.Duration
	onExpired   func()

	mu    sync.RWMutex
	state State
	token string
	user  *model.User
	// gen increments whenever the session is replaced or cleared, so a
	// slow Initialize cannot resurrect a session that was logged out
	// while its profile fetch was in flight.
	gen uint64
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithInitTimeout bounds Initialize's profile fetch.
func WithInitTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.initTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// OnExpired registers the callback fired when a live session ends without
// the user asking: a 401 from any endpoint, a token found expired, or a
// logout by another process. It fires once per session.
func OnExpired(fn func()) Option {
	return func(m *Manager) { m.onExpired = fn }
}

// New creates a Manager and registers it as client's authenticator.
func New(store Store, client Client, opts ...Option) *Manager {
	m := &Manager{
		store:       store,
		client:      client,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:         time.Now,
		initTimeout: defaultInitTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	client.SetAuthenticator(m)
	return m
}

// Snapshot returns the current session.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Snapshot{State: m.state, Token: m.token}
	if m.user != nil {
		u := *m.user
		s.User = &u
	}
	s.Authenticated = m.authenticatedLocked()
	return s
}

// State returns the lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsAuthenticated is true iff a token and user are both held and the token
// is not known to be expired.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.authenticatedLocked()
}

func (m *Manager) authenticatedLocked() bool {
	return m.token != "" && m.user != nil && !expired(m.token, m.now())
}

// User returns the current user.
func (m *Manager) User() (model.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return model.User{}, false
	}
	return *m.user, true
}

// Token implements api.Authenticator.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Expiry returns the current token's exp claim, if it has one.
func (m *Manager) Expiry() (time.Time, bool) {
	token := m.Token()
	if token == "" {
		return time.Time{}, false
	}
	exp, ok, err := tokenExpiry(token)
	if err != nil {
		return time.Time{}, false
	}
	return exp, ok
}

// Initialize restores the session from storage. Any failure leaves the
// session unauthenticated with storage cleared; nothing is returned as an
// error because a missing or stale session at startup is expected.
func (m *Manager) Initialize(ctx context.Context) State {
	m.mu.Lock()
	m.state = Loading
	gen := m.gen
	m.mu.Unlock()

	token, ok, err := m.store.Get(KeyToken)
	if err != nil {
		m.logger.Warn("reading stored token", "err", err)
		return m.abandon(gen)
	}
	if !ok || strings.TrimSpace(token) == "" {
		m.mu.Lock()
		if m.gen == gen {
			m.state = Unauthenticated
		}
		m.mu.Unlock()
		return m.State()
	}

	exp, hasExp, err := tokenExpiry(token)
	if err != nil {
		m.logger.Debug("stored token is malformed", "err", err)
		return m.abandon(gen)
	}
	if hasExp && m.now().After(exp) {
		m.logger.Debug("stored token expired", "exp", exp)
		return m.abandon(gen)
	}

	// Hold the token in memory so the profile request carries it.
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return m.State()
	}
	m.token = token
	m.mu.Unlock()

	fetchCtx, cancel := context.WithTimeout(ctx, m.initTimeout)
	defer cancel()

	user, err := m.client.Me(fetchCtx)
	if err == nil && (user == nil || user.ID == "") {
		err = errors.New("profile response has no user")
	}
	if err != nil {
		m.logger.Debug("restoring session failed", "err", err)
		return m.abandon(gen)
	}

	m.mu.Lock()
	if m.gen != gen || m.token != token {
		state := m.state
		m.mu.Unlock()
		return state
	}
	m.user = user
	m.state = Authenticated
	m.mu.Unlock()

	data, err := json.Marshal(user)
	if err == nil {
		err = m.store.SetMany(map[string]string{KeyUser: string(data)})
	}
	if err != nil {
		m.logger.Warn("persisting user profile", "err", err)
	}
	return Authenticated
}

// abandon ends a failed Initialize. If a login or logout replaced the
// session meanwhile, that result stands.
func (m *Manager) abandon(gen uint64) State {
	m.mu.Lock()
	if m.gen != gen {
		state := m.state
		m.mu.Unlock()
		return state
	}
	m.clearLocked()
	m.mu.Unlock()

	if err := m.store.Delete(KeyToken, KeyUser); err != nil {
		m.logger.Warn("clearing stored credentials", "err", err)
	}
	return Unauthenticated
}

// Login authenticates with email and password.
func (m *Manager) Login(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, &AuthError{Op: "login", Message: "email and password are required"}
	}

	resp, err := m.client.Login(ctx, email, password)
	if err != nil {
		return nil, authError("login", err)
	}
	return m.establish("login", resp)
}

// Register creates an account and logs into it.
func (m *Manager) Register(ctx context.Context, reg api.Registration) (*model.User, error) {
	reg.Email = strings.TrimSpace(reg.Email)
	reg.Name = strings.TrimSpace(reg.Name)
	if reg.Name == "" || reg.Email == "" || reg.Password == "" {
		return nil, &AuthError{Op: "register", Message: "name, email and password are required"}
	}
	if !model.IsValidEmail(reg.Email) {
		return nil, &AuthError{Op: "register", Message: "invalid email address"}
	}

	resp, err := m.client.Register(ctx, reg)
	if err != nil {
		return nil, authError("register", err)
	}
	return m.establish("register", resp)
}

// establish persists and adopts the token and user from an auth response.
func (m *Manager) establish(op string, resp *api.AuthResponse) (*model.User, error) {
	if resp == nil || strings.TrimSpace(resp.Token) == "" {
		return nil, &AuthError{Op: op, Message: "server returned no token"}
	}

	user := resp.User
	if user == nil || user.ID == "" {
		u, err := userFromClaims(resp.Token)
		if err != nil {
			return nil, &AuthError{Op: op, Message: "server returned no user", Err: err}
		}
		user = u
	}

	data, err := json.Marshal(user)
	if err != nil {
		return nil, &AuthError{Op: op, Message: "encoding user", Err: err}
	}
	if err := m.store.SetMany(map[string]string{
		KeyToken: resp.Token,
		KeyUser:  string(data),
	}); err != nil {
		return nil, &AuthError{Op: op, Message: "saving session", Err: err}
	}

	m.mu.Lock()
	m.gen++
	m.token = resp.Token
	m.user = user
	m.state = Authenticated
	m.mu.Unlock()

	m.logger.Info("session established", "op", op, "user", user.ID)
	out := *user
	return &out, nil
}

// Logout clears persisted credentials and the in-memory session. It never
// fails and is safe to call repeatedly.
func (m *Manager) Logout() {
	if err := m.store.Delete(KeyToken, KeyUser); err != nil {
		m.logger.Warn("clearing stored credentials", "err", err)
	}

	m.mu.Lock()
	m.clearLocked()
	m.mu.Unlock()
}

func (m *Manager) clearLocked() {
	m.gen++
	m.token = ""
	m.user = nil
	m.state = Unauthenticated
}

// Unauthorized implements api.Authenticator. Every 401 from any endpoint
// lands here with the token its request carried. A 401 for a token that
// is no longer current belongs to an earlier session and is ignored.
func (m *Manager) Unauthorized(token string) {
	m.expire("unauthorized response", token)
}

// CheckExpiry ends the session if its token has expired. It reports
// whether the session was ended.
func (m *Manager) CheckExpiry() bool {
	m.mu.RLock()
	token := m.token
	m.mu.RUnlock()

	if token == "" || !expired(token, m.now()) {
		return false
	}
	return m.expire("token expired", token)
}

// expire clears the session and storage, firing onExpired if the session
// was authenticated. It does nothing unless token is still the session's
// token. Concurrent callers race on the lock; only the first sees
// Authenticated, so the callback fires once per session. A 401 during
// Initialize clears silently and Initialize settles the state.
func (m *Manager) expire(reason, token string) bool {
	m.mu.Lock()
	if m.token != token {
		m.mu.Unlock()
		m.logger.Debug("ignoring stale session end", "reason", reason)
		return false
	}
	live := m.state == Authenticated
	if m.state == Loading {
		m.token = ""
	} else {
		m.clearLocked()
	}
	m.mu.Unlock()

	if err := m.store.Delete(KeyToken, KeyUser); err != nil {
		m.logger.Warn("clearing stored credentials", "err", err)
	}

	if live {
		m.logger.Info("session ended", "reason", reason)
		if m.onExpired != nil {
			m.onExpired()
		}
	}
	return live
}

// Sync reconciles memory with storage after another process changed it.
// A cleared store ends the session; a new valid token is adopted.
func (m *Manager) Sync() State {
	token, ok, err := m.store.Get(KeyToken)
	if err != nil {
		m.logger.Warn("reading stored token", "err", err)
		return m.State()
	}

	current := m.Token()
	if !ok || token == "" {
		if current != "" {
			m.expire("logged out elsewhere", current)
		}
		return m.State()
	}
	if token == current {
		return m.State()
	}

	raw, ok, err := m.store.Get(KeyUser)
	if err != nil || !ok {
		return m.State()
	}
	var user model.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil || user.ID == "" {
		return m.State()
	}
	if expired(token, m.now()) {
		return m.State()
	}

	m.mu.Lock()
	m.gen++
	m.token = token
	m.user = &user
	m.state = Authenticated
	m.mu.Unlock()
	m.logger.Info("session adopted from storage", "user", user.ID)
	return Authenticated
}

// Require returns nil when the session is authenticated and, if role is
// non-empty, the user holds that role.
func (m *Manager) Require(role model.Role) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.authenticatedLocked() {
		return ErrNotAuthenticated
	}
	if role != "" && m.user.Role != role {
		return ErrForbidden
	}
	return nil
}
