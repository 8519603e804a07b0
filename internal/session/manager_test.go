package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/ngodash/internal/api"
	"github.com/theirongolddev/ngodash/internal/model"
	"github.com/theirongolddev/ngodash/internal/store"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

// fakeClient is a scripted Client.
type fakeClient struct {
	mu        sync.Mutex
	auth      api.Authenticator
	loginResp *api.AuthResponse
	loginErr  error
	meUser    *model.User
	meErr     error
	meCalls   int
	meBlock   chan struct{}
	lastReg   api.Registration
}

func (f *fakeClient) SetAuthenticator(a api.Authenticator) { f.auth = a }

func (f *fakeClient) Login(_ context.Context, _, _ string) (*api.AuthResponse, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeClient) Register(_ context.Context, reg api.Registration) (*api.AuthResponse, error) {
	f.lastReg = reg
	return f.loginResp, f.loginErr
}

func (f *fakeClient) Me(ctx context.Context) (*model.User, error) {
	f.mu.Lock()
	f.meCalls++
	block := f.meBlock
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.meUser, f.meErr
}

func (f *fakeClient) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.meCalls
}

func newManager(t *testing.T, fc *fakeClient, opts ...Option) (*Manager, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	opts = append([]Option{WithClock(clock)}, opts...)
	return New(st, fc, opts...), st
}

func TestNewRegistersAuthenticator(t *testing.T) {
	fc := &fakeClient{}
	m, _ := newManager(t, fc)
	assert.Same(t, m, fc.auth)
	assert.Equal(t, Uninitialized, m.State())
	assert.True(t, m.Snapshot().Loading())
}

func TestLoginPersistsTokenAndUser(t *testing.T) {
	fc := &fakeClient{loginResp: &api.AuthResponse{
		Token: "t1",
		User:  &model.User{ID: "u1", Name: "A"},
	}}
	m, st := newManager(t, fc)

	user, err := m.Login(context.Background(), "a@x.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, model.ID("u1"), user.ID)

	assert.Equal(t, Authenticated, m.State())
	assert.True(t, m.IsAuthenticated())
	assert.Equal(t, "t1", m.Token())

	token, ok, _ := st.Get(KeyToken)
	require.True(t, ok)
	assert.Equal(t, "t1", token)

	raw, ok, _ := st.Get(KeyUser)
	require.True(t, ok)
	assert.JSONEq(t, `{"id":"u1","name":"A"}`, raw)
}

func TestLoginRejectedCarriesServerMessage(t *testing.T) {
	fc := &fakeClient{loginErr: &api.Error{Method: "POST", Path: "/users/login", Status: 400, Message: "Invalid credentials"}}
	m, st := newManager(t, fc)

	_, err := m.Login(context.Background(), "a@x.com", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuth)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Invalid credentials", authErr.Message)
	assert.False(t, m.IsAuthenticated())
	assert.Zero(t, st.Len())
}

func TestLoginNetworkFailure(t *testing.T) {
	cause := errors.New("connection refused")
	fc := &fakeClient{loginErr: &api.NetworkError{Op: "POST /users/login", Err: cause}}
	m, _ := newManager(t, fc)

	_, err := m.Login(context.Background(), "a@x.com", "secret")
	assert.ErrorIs(t, err, ErrAuth)
	assert.ErrorIs(t, err, cause)
}

func TestLoginRequiresCredentials(t *testing.T) {
	m, _ := newManager(t, &fakeClient{})
	_, err := m.Login(context.Background(), " ", "")
	assert.ErrorIs(t, err, ErrAuth)
}

func TestLoginWithoutUserFallsBackToClaims(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"id":    "u9",
		"email": "z@x.com",
		"role":  "admin",
		"exp":   fixedNow.Add(time.Hour).Unix(),
	})
	m, _ := newManager(t, &fakeClient{loginResp: &api.AuthResponse{Token: token}})

	user, err := m.Login(context.Background(), "z@x.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, model.ID("u9"), user.ID)
	assert.Equal(t, model.RoleAdmin, user.Role)
}

func TestLoginWithoutTokenFails(t *testing.T) {
	m, _ := newManager(t, &fakeClient{loginResp: &api.AuthResponse{User: &model.User{ID: "u1"}}})
	_, err := m.Login(context.Background(), "a@x.com", "secret")
	assert.ErrorIs(t, err, ErrAuth)
	assert.False(t, m.IsAuthenticated())
}

func TestRegisterValidatesEmail(t *testing.T) {
	fc := &fakeClient{}
	m, _ := newManager(t, fc)

	_, err := m.Register(context.Background(), api.Registration{Name: "A", Email: "not-an-email", Password: "Secret1!x"})
	assert.ErrorIs(t, err, ErrAuth)
	assert.Empty(t, fc.lastReg.Email, "request must not be sent")
}

func TestRegisterBehavesLikeLogin(t *testing.T) {
	fc := &fakeClient{loginResp: &api.AuthResponse{Token: "t2", User: &model.User{ID: "u2", Name: "B"}}}
	m, st := newManager(t, fc)

	user, err := m.Register(context.Background(), api.Registration{Name: " B ", Email: "b@x.com", Password: "Secret1!x"})
	require.NoError(t, err)
	assert.Equal(t, "B", fc.lastReg.Name)
	assert.Equal(t, model.ID("u2"), user.ID)

	token, _, _ := st.Get(KeyToken)
	assert.Equal(t, "t2", token)
}

func TestRegisterDuplicateAccount(t *testing.T) {
	fc := &fakeClient{loginErr: &api.Error{Status: 409, Message: "User already exists"}}
	m, _ := newManager(t, fc)

	_, err := m.Register(context.Background(), api.Registration{Name: "B", Email: "b@x.com", Password: "Secret1!x"})
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "User already exists", authErr.Message)
}

func TestInitializeWithoutToken(t *testing.T) {
	fc := &fakeClient{}
	m, _ := newManager(t, fc)

	assert.Equal(t, Unauthenticated, m.Initialize(context.Background()))
	assert.False(t, m.Snapshot().Loading())
	assert.Zero(t, fc.calls())
}

func TestInitializeExpiredTokenSkipsProfileFetch(t *testing.T) {
	fc := &fakeClient{meUser: &model.User{ID: "u1"}}
	m, st := newManager(t, fc)
	token := signToken(t, jwt.MapClaims{"id": "u1", "exp": fixedNow.Add(-10 * time.Second).Unix()})
	require.NoError(t, st.SetMany(map[string]string{KeyToken: token, KeyUser: `{"id":"u1"}`}))

	assert.Equal(t, Unauthenticated, m.Initialize(context.Background()))
	assert.Zero(t, fc.calls())
	assert.Zero(t, st.Len())
}

func TestInitializeExpiredTokensAlwaysClear(t *testing.T) {
	for _, ago := range []time.Duration{time.Second, time.Minute, 24 * time.Hour, 365 * 24 * time.Hour} {
		fc := &fakeClient{meUser: &model.User{ID: "u1"}}
		m, st := newManager(t, fc)
		token := signToken(t, jwt.MapClaims{"exp": fixedNow.Add(-ago).Unix()})
		require.NoError(t, st.SetMany(map[string]string{KeyToken: token}))

		assert.Equal(t, Unauthenticated, m.Initialize(context.Background()), "exp %s ago", ago)
		assert.Zero(t, st.Len(), "exp %s ago", ago)
	}
}

func TestInitializeUsesServerProfile(t *testing.T) {
	fc := &fakeClient{meUser: &model.User{ID: "u1", Name: "Server Name", Role: model.RoleAdmin}}
	m, st := newManager(t, fc)
	token := signToken(t, jwt.MapClaims{"id": "u1", "name": "Token Name", "exp": fixedNow.Add(time.Hour).Unix()})
	require.NoError(t, st.SetMany(map[string]string{KeyToken: token, KeyUser: `{"id":"u1","name":"Stale"}`}))

	assert.Equal(t, Authenticated, m.Initialize(context.Background()))
	user, ok := m.User()
	require.True(t, ok)
	assert.Equal(t, "Server Name", user.Name)

	raw, _, _ := st.Get(KeyUser)
	assert.Contains(t, raw, "Server Name")
}

func TestInitializeProfileFailureLogsOut(t *testing.T) {
	fc := &fakeClient{meErr: &api.NetworkError{Op: "GET /users/me", Err: errors.New("boom")}}
	m, st := newManager(t, fc)
	token := signToken(t, jwt.MapClaims{"exp": fixedNow.Add(time.Hour).Unix()})
	require.NoError(t, st.SetMany(map[string]string{KeyToken: token}))

	assert.Equal(t, Unauthenticated, m.Initialize(context.Background()))
	assert.Zero(t, st.Len())
	assert.Empty(t, m.Token())
}

func TestInitializeMalformedTokenLogsOut(t *testing.T) {
	fc := &fakeClient{meUser: &model.User{ID: "u1"}}
	m, st := newManager(t, fc)
	require.NoError(t, st.SetMany(map[string]string{KeyToken: "not.a.jwt"}))

	assert.Equal(t, Unauthenticated, m.Initialize(context.Background()))
	assert.Zero(t, fc.calls())
	assert.Zero(t, st.Len())
}

func TestInitializeTimeout(t *testing.T) {
	fc := &fakeClient{meUser: &model.User{ID: "u1"}, meBlock: make(chan struct{})}
	m, st := newManager(t, fc, WithInitTimeout(20*time.Millisecond))
	token := signToken(t, jwt.MapClaims{"exp": fixedNow.Add(time.Hour).Unix()})
	require.NoError(t, st.SetMany(map[string]string{KeyToken: token}))

	assert.Equal(t, Unauthenticated, m.Initialize(context.Background()))
	assert.Zero(t, st.Len())
}

func TestLogoutDuringInitializeWins(t *testing.T) {
	block := make(chan struct{})
	fc := &fakeClient{meUser: &model.User{ID: "u1"}, meBlock: block}
	m, st := newManager(t, fc)
	token := signToken(t, jwt.MapClaims{"exp": fixedNow.Add(time.Hour).Unix()})
	require.NoError(t, st.SetMany(map[string]string{KeyToken: token}))

	done := make(chan State)
	go func() { done <- m.Initialize(context.Background()) }()

	require.Eventually(t, func() bool { return fc.calls() == 1 }, time.Second, time.Millisecond)
	m.Logout()
	close(block)

	assert.Equal(t, Unauthenticated, <-done)
	assert.False(t, m.IsAuthenticated())
	assert.Zero(t, st.Len())
}

func TestLogoutIdempotent(t *testing.T) {
	fc := &fakeClient{loginResp: &api.AuthResponse{Token: "t1", User: &model.User{ID: "u1"}}}
	m, st := newManager(t, fc)
	_, err := m.Login(context.Background(), "a@x.com", "secret")
	require.NoError(t, err)

	m.Logout()
	first := m.Snapshot()
	m.Logout()
	assert.Equal(t, first, m.Snapshot())
	assert.Equal(t, Unauthenticated, m.State())
	assert.Zero(t, st.Len())
}

func TestUnauthorizedFiresOncePerSession(t *testing.T) {
	var fired atomic.Int32
	fc := &fakeClient{loginResp: &api.AuthResponse{Token: "t1", User: &model.User{ID: "u1"}}}
	m, st := newManager(t, fc, OnExpired(func() { fired.Add(1) }))
	_, err := m.Login(context.Background(), "a@x.com", "secret")
	require.NoError(t, err)

	token := m.Token()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Unauthorized(token)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), fired.Load())
	assert.Equal(t, Unauthenticated, m.State())
	assert.Zero(t, st.Len())

	// A fresh session gets its own notification.
	_, err = m.Login(context.Background(), "a@x.com", "secret")
	require.NoError(t, err)
	m.Unauthorized(m.Token())
	assert.Equal(t, int32(2), fired.Load())
}

func TestUnauthorizedForPreviousTokenIgnored(t *testing.T) {
	var fired atomic.Int32
	fc := &fakeClient{loginResp: &api.AuthResponse{Token: "t1", User: &model.User{ID: "u1"}}}
	m, st := newManager(t, fc, OnExpired(func() { fired.Add(1) }))
	_, err := m.Login(context.Background(), "a@x.com", "secret")
	require.NoError(t, err)

	m.Logout()
	fc.loginResp = &api.AuthResponse{Token: "t2", User: &model.User{ID: "u1"}}
	_, err = m.Login(context.Background(), "a@x.com", "secret")
	require.NoError(t, err)

	// A slow request sent under t1 comes back 401 after the new login.
	m.Unauthorized("t1")
	assert.Equal(t, Authenticated, m.State())
	assert.Equal(t, "t2", m.Token())
	assert.Zero(t, fired.Load())
	tok, ok, err := st.Get(KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "t2", tok)

	m.Unauthorized("t2")
	assert.Equal(t, Unauthenticated, m.State())
	assert.Equal(t, int32(1), fired.Load())
}

func TestCheckExpiry(t *testing.T) {
	now := fixedNow
	var fired atomic.Int32
	token := signToken(t, jwt.MapClaims{"id": "u1", "exp": fixedNow.Add(time.Minute).Unix()})
	fc := &fakeClient{loginResp: &api.AuthResponse{Token: token, User: &model.User{ID: "u1"}}}
	m, st := newManager(t, fc,
		WithClock(func() time.Time { return now }),
		OnExpired(func() { fired.Add(1) }),
	)
	_, err := m.Login(context.Background(), "a@x.com", "secret")
	require.NoError(t, err)

	assert.False(t, m.CheckExpiry())
	assert.True(t, m.IsAuthenticated())

	now = fixedNow.Add(2 * time.Minute)
	assert.False(t, m.IsAuthenticated())
	assert.True(t, m.CheckExpiry())
	assert.False(t, m.CheckExpiry())
	assert.Equal(t, int32(1), fired.Load())
	assert.Zero(t, st.Len())
}

func TestSyncFollowsStorage(t *testing.T) {
	var fired atomic.Int32
	fc := &fakeClient{loginResp: &api.AuthResponse{Token: "t1", User: &model.User{ID: "u1"}}}
	m, st := newManager(t, fc, OnExpired(func() { fired.Add(1) }))
	_, err := m.Login(context.Background(), "a@x.com", "secret")
	require.NoError(t, err)

	// Another process logged out.
	require.NoError(t, st.Delete(KeyToken, KeyUser))
	assert.Equal(t, Unauthenticated, m.Sync())
	assert.Equal(t, int32(1), fired.Load())

	// Another process logged in.
	require.NoError(t, st.SetMany(map[string]string{KeyToken: "t3", KeyUser: `{"_id":"u3","name":"C"}`}))
	assert.Equal(t, Authenticated, m.Sync())
	user, _ := m.User()
	assert.Equal(t, model.ID("u3"), user.ID)
	assert.Equal(t, "t3", m.Token())
}

func TestRequire(t *testing.T) {
	fc := &fakeClient{loginResp: &api.AuthResponse{Token: "t1", User: &model.User{ID: "u1", Role: model.RoleUser}}}
	m, _ := newManager(t, fc)

	assert.ErrorIs(t, m.Require(""), ErrNotAuthenticated)

	_, err := m.Login(context.Background(), "a@x.com", "secret")
	require.NoError(t, err)
	assert.NoError(t, m.Require(""))
	assert.NoError(t, m.Require(model.RoleUser))
	assert.ErrorIs(t, m.Require(model.RoleAdmin), ErrForbidden)
}

func TestAny401ClearsSessionThroughClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/login":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"token": "t1",
				"user":  map[string]any{"_id": "u1", "name": "A"},
			})
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"jwt expired"}`))
		}
	}))
	defer srv.Close()

	client, err := api.New(srv.URL)
	require.NoError(t, err)

	for _, call := range []struct {
		name string
		fn   func(context.Context) error
	}{
		{"projects", func(ctx context.Context) error { _, err := client.ListProjects(ctx); return err }},
		{"budgets", func(ctx context.Context) error { _, err := client.ListBudgetLines(ctx, "p1"); return err }},
		{"donors", func(ctx context.Context) error { _, err := client.ListDonors(ctx); return err }},
	} {
		t.Run(call.name, func(t *testing.T) {
			var redirects atomic.Int32
			st := store.NewMemory()
			m := New(st, client, OnExpired(func() { redirects.Add(1) }))

			_, err := m.Login(context.Background(), "a@x.com", "secret")
			require.NoError(t, err)

			err = call.fn(context.Background())
			assert.ErrorIs(t, err, api.ErrUnauthorized)
			assert.Equal(t, Unauthenticated, m.State())
			assert.Zero(t, st.Len())
			assert.Equal(t, int32(1), redirects.Load())

			// Later calls go out without a token and do not redirect again.
			_ = call.fn(context.Background())
			assert.Equal(t, int32(1), redirects.Load())
		})
	}
}

func TestExpiry(t *testing.T) {
	exp := fixedNow.Add(time.Hour).Truncate(time.Second)
	token := signToken(t, jwt.MapClaims{"exp": exp.Unix()})
	fc := &fakeClient{loginResp: &api.AuthResponse{Token: token, User: &model.User{ID: "u1"}}}
	m, _ := newManager(t, fc)

	_, ok := m.Expiry()
	assert.False(t, ok)

	_, err := m.Login(context.Background(), "a@x.com", "secret")
	require.NoError(t, err)
	got, ok := m.Expiry()
	require.True(t, ok)
	assert.True(t, exp.Equal(got))
}
