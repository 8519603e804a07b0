package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/ngodash/internal/model"
)

// stubAuth is a fixed-token Authenticator that counts 401s.
type stubAuth struct {
	token        string
	unauthorized atomic.Int32
	rejected     atomic.Value
}

func (s *stubAuth) Token() string { return s.token }

func (s *stubAuth) Unauthorized(token string) {
	s.unauthorized.Add(1)
	s.rejected.Store(token)
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL)
	require.NoError(t, err)
	return c
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"", "ftp://example.org", "http://", "::bad"} {
		_, err := New(raw)
		assert.Error(t, err, raw)
	}

	c, err := New("https://api.example.org/v1/")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.org/v1", c.BaseURL())
}

func TestRequestHeaders(t *testing.T) {
	var got http.Header
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = io.WriteString(w, `[]`)
	})
	c.SetAuthenticator(&stubAuth{token: "tok-123"})

	_, err := c.ListProjects(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-123", got.Get("Authorization"))
	assert.Equal(t, "application/json", got.Get("Accept"))
	_, err = uuid.Parse(got.Get("X-Request-Id"))
	assert.NoError(t, err, "request id must be a uuid")
}

func TestNoAuthorizationWithoutToken(t *testing.T) {
	var header string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, `[]`)
	})
	c.SetAuthenticator(&stubAuth{})

	_, err := c.ListNGOs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, header)
}

func TestUnauthorizedNotifiesAuthenticator(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"message":"Token expired"}`)
	})
	auth := &stubAuth{token: "stale"}
	c.SetAuthenticator(auth)

	_, err := c.ListDonors(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "Token expired", Message(err))

	_, err = c.ListExpenses(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(2), auth.unauthorized.Load(), "every 401 is reported")
	assert.Equal(t, "stale", auth.rejected.Load(), "the 401 carries the token the request used")
}

func TestServerErrorMessages(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"message field", http.StatusBadRequest, `{"message":"Budget line code already exists"}`, "Budget line code already exists"},
		{"error field", http.StatusConflict, `{"error":"User already exists"}`, "User already exists"},
		{"plain text", http.StatusBadGateway, "upstream down", "upstream down"},
		{"html", http.StatusInternalServerError, "<html>oops</html>", "500 Internal Server Error"},
		{"empty", http.StatusNotFound, "", "404 Not Found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := c.GetProject(context.Background(), "p1")
			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.want, apiErr.Message)
		})
	}
}

func TestNotFoundSentinel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	_, err := c.GetDonor(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestListAcceptsArrayAndEnvelope(t *testing.T) {
	bodies := map[string]string{
		"array":    `[{"_id":"p1","name":"Water","total_budget":1000}]`,
		"envelope": `{"count":1,"data":[{"_id":"p1","name":"Water","total_budget":1000}]}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, body)
			})
			projects, err := c.ListProjects(context.Background())
			require.NoError(t, err)
			require.Len(t, projects, 1)
			assert.Equal(t, model.ID("p1"), projects[0].ID)
			assert.InDelta(t, 1000, projects[0].TotalBudget, 1e-9)
		})
	}
}

func TestEnvelopeWithoutDataIsAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"count":0}`)
	})
	_, err := c.ListProjects(context.Background())
	assert.Error(t, err)
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c, err := New(srv.URL)
	require.NoError(t, err)
	srv.Close()

	_, err = c.Me(context.Background())
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "GET /users/me", netErr.Op)
}

func TestLoginDecodesTokenAndUser(t *testing.T) {
	var creds Credentials
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/users/login", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		_, _ = io.WriteString(w, `{"token":"abc","user":{"_id":"u1","name":"Ada","role":{"name":"admin"}}}`)
	})

	resp, err := c.Login(context.Background(), "ada@example.org", "Secret#1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.org", creds.Email)
	assert.Equal(t, "abc", resp.Token)
	require.NotNil(t, resp.User)
	assert.Equal(t, model.ID("u1"), resp.User.ID)
	assert.Equal(t, model.RoleAdmin, resp.User.Role)
}

func TestCreateBudgetLine(t *testing.T) {
	var (
		path string
		in   model.BudgetLineInput
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"data":{"_id":"b1","budget_line_code":"B1","budget_line_name":"Pumps","budget_line_amount":250}}`)
	})

	line, err := c.CreateBudgetLine(context.Background(), "p 1", model.BudgetLineInput{
		Code: "B1", Name: "Pumps", Amount: decimal.RequireFromString("250.10"), Description: "hand pumps",
	})
	require.NoError(t, err)
	assert.Equal(t, "/projects/p 1/budgets", path)
	assert.Equal(t, "250.1", in.Amount.String())

	amount, err := line.AmountValue()
	require.NoError(t, err)
	assert.Equal(t, "250", amount.String())
}

func TestDeleteDonorAcceptsEmptyBody(t *testing.T) {
	var method string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		w.WriteHeader(http.StatusNoContent)
	})
	require.NoError(t, c.DeleteDonor(context.Background(), "d1"))
	assert.Equal(t, http.MethodDelete, method)
}

func TestRateLimitedClientStillServes(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, `[]`)
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, WithRateLimit(100))
	require.NoError(t, err)
	for range 3 {
		_, err := c.ListExpenses(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestRateLimitHonoursCancelledContext(t *testing.T) {
	c, err := New("http://127.0.0.1:1", WithRateLimit(0.001))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.ListProjects(ctx)
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "boom", Message(&NetworkError{Op: "GET /x", Err: errors.New("boom")}))
	assert.Equal(t, "plain", Message(errors.New("plain")))
}
