package tui

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/ngodash/internal/api"
	"github.com/theirongolddev/ngodash/internal/budget"
	"github.com/theirongolddev/ngodash/internal/config"
	"github.com/theirongolddev/ngodash/internal/dashboard"
	"github.com/theirongolddev/ngodash/internal/model"
	"github.com/theirongolddev/ngodash/internal/session"
	"github.com/theirongolddev/ngodash/internal/store"
	"github.com/theirongolddev/ngodash/internal/tui/components"
)

// fakeBackend serves canned collections and records created lines.
type fakeBackend struct {
	mu       sync.Mutex
	projects []model.Project
	lines    map[string][]model.BudgetLine
	created  []model.BudgetLineInput
	listErr  error
}

func (f *fakeBackend) ListProjects(context.Context) ([]model.Project, error) {
	return f.projects, f.listErr
}

func (f *fakeBackend) ListNGOs(context.Context) ([]model.NGO, error) { return nil, f.listErr }

func (f *fakeBackend) ListDonors(context.Context) ([]model.Donor, error) { return nil, f.listErr }

func (f *fakeBackend) ListExpenses(context.Context) ([]model.Expense, error) { return nil, f.listErr }

func (f *fakeBackend) ListBudgetLines(_ context.Context, projectID string) ([]model.BudgetLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lines[projectID], nil
}

func (f *fakeBackend) CreateBudgetLine(_ context.Context, projectID string, in model.BudgetLineInput) (*model.BudgetLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, in)
	line := model.BudgetLine{
		ID:     model.ID("l" + projectID),
		Code:   in.Code,
		Name:   in.Name,
		Amount: json.RawMessage(in.Amount.String()),
	}
	f.lines[projectID] = append(f.lines[projectID], line)
	return &line, nil
}

func amountLine(id, amount string) model.BudgetLine {
	return model.BudgetLine{ID: model.ID(id), Code: id, Name: "Line " + id, Amount: json.RawMessage(amount)}
}

var testProjects = []model.Project{
	{ID: "p1", Name: "Clean Water", TotalBudget: 1000, DonorCurrency: "USD", Status: "active"},
	{ID: "p2", Name: "School Meals", TotalBudget: 500, DonorCurrency: "EUR", Status: "pending"},
}

// newTestSession returns a Manager backed by an httptest server whose
// /users/me answers with an admin profile.
func newTestSession(t *testing.T, expired chan struct{}) (*session.Manager, *store.Memory) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/me":
			if r.Header.Get("Authorization") == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"_id": "u1", "name": "Ada", "email": "ada@example.org", "role": "admin"})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	client, err := api.New(srv.URL)
	require.NoError(t, err)

	mem := store.NewMemory()
	opts := []session.Option{}
	if expired != nil {
		opts = append(opts, session.OnExpired(func() {
			select {
			case expired <- struct{}{}:
			default:
			}
		}))
	}
	return session.New(mem, client, opts...), mem
}

func signIn(t *testing.T, m *session.Manager, mem *store.Memory) {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  "u1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	require.NoError(t, mem.SetMany(map[string]string{session.KeyToken: token}))
	require.Equal(t, session.Authenticated, m.Initialize(context.Background()))
}

func newTestApp(t *testing.T) (App, *fakeBackend, *session.Manager) {
	t.Helper()
	m, mem := newTestSession(t, nil)
	signIn(t, m, mem)

	backend := &fakeBackend{
		projects: testProjects,
		lines:    map[string][]model.BudgetLine{"p1": {amountLine("a", "600")}},
	}
	a := New(Deps{
		Session:   m,
		Backend:   backend,
		Allocator: budget.NewAllocator(backend, budget.NewGuard(backend, nil)),
		Config:    config.DefaultConfig(),
	})
	a.width, a.height = 120, 40
	return a, backend, m
}

func update(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	m, cmd := a.Update(msg)
	next, ok := m.(App)
	require.True(t, ok)
	return next, cmd
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// loadMain drives the app into the main phase with data loaded.
func loadMain(t *testing.T, a App, b *fakeBackend) App {
	t.Helper()
	a, _ = update(t, a, sessionReadyMsg{state: session.Authenticated})
	require.Equal(t, phaseMain, a.phase)

	summary, err := dashboard.Load(context.Background(), b)
	require.NoError(t, err)
	a, cmd := update(t, a, dataMsg{summary: summary})
	require.NotNil(t, cmd, "first load selects a project and fetches its lines")

	lines, err := b.ListBudgetLines(context.Background(), "p1")
	require.NoError(t, err)
	a, _ = update(t, a, linesMsg{projectID: "p1", lines: lines})
	return a
}

func TestTabAtXMatchesTabWidths(t *testing.T) {
	n := len(components.Tabs)
	for active := 0; active < n; active++ {
		a := App{activeTab: active}
		pos := 0
		for i, tab := range components.Tabs {
			w := components.TabVisualWidth(tab, i == active)
			x := pos + w/2
			assert.Equal(t, i, a.tabAtX(x), "active=%d x=%d", active, x)
			pos += w
			if i < n-1 {
				pos++ // separator
			}
		}
		assert.Equal(t, -1, a.tabAtX(pos+5))
	}
}

func TestUnauthenticatedStartShowsLogin(t *testing.T) {
	m, _ := newTestSession(t, nil)
	a := New(Deps{Session: m, Backend: &fakeBackend{}, Config: config.DefaultConfig()})

	state := m.Initialize(context.Background())
	require.Equal(t, session.Unauthenticated, state)

	a, _ = update(t, a, sessionReadyMsg{state: state})
	assert.Equal(t, phaseLogin, a.phase)
	assert.NotNil(t, a.loginForm)
}

func TestFirstRunShowsSetupBeforeLogin(t *testing.T) {
	m, _ := newTestSession(t, nil)
	a := New(Deps{Session: m, Backend: &fakeBackend{}, Config: config.DefaultConfig(), NeedSetup: true})

	a, _ = update(t, a, sessionReadyMsg{state: session.Unauthenticated})
	assert.Equal(t, phaseSetup, a.phase)
	assert.Equal(t, session.Unauthenticated, a.pendingState)
}

func TestDataLoadSelectsFirstProject(t *testing.T) {
	a, b, _ := newTestApp(t)
	a = loadMain(t, a, b)

	require.NotNil(t, a.budState.project)
	assert.Equal(t, model.ID("p1"), a.budState.project.ID)
	assert.False(t, a.budState.loading)
	assert.Equal(t, "600", a.budState.util.Allocated.String())
	assert.Equal(t, "400", a.budState.util.Remaining.String())
	assert.Len(t, a.projState.projects, 2)
}

func TestStaleLinesAreIgnored(t *testing.T) {
	a, b, _ := newTestApp(t)
	a = loadMain(t, a, b)

	a, _ = update(t, a, linesMsg{projectID: "p2", lines: []model.BudgetLine{amountLine("x", "1")}})
	assert.Equal(t, 1, a.budState.util.Lines, "lines for another project must not replace the selection")
}

func TestBracketKeysCycleProjects(t *testing.T) {
	a, b, _ := newTestApp(t)
	a = loadMain(t, a, b)
	a.activeTab = tabBudgets

	a, cmd := update(t, a, key("]"))
	require.NotNil(t, cmd)
	assert.Equal(t, model.ID("p2"), a.budState.project.ID)
	assert.True(t, a.budState.loading)

	a, _ = update(t, a, key("]"))
	assert.Equal(t, model.ID("p1"), a.budState.project.ID)
}

func TestAddLineBlockedWhileBusy(t *testing.T) {
	a, b, _ := newTestApp(t)
	a = loadMain(t, a, b)
	a.activeTab = tabBudgets
	a.budState.busy = true

	a, _ = update(t, a, key("a"))
	assert.Nil(t, a.budState.form)
	assert.True(t, a.noticeErr)

	a.budState.busy = false
	a, _ = update(t, a, key("a"))
	assert.NotNil(t, a.budState.form)
}

func TestSubmitBudgetRunsGuard(t *testing.T) {
	a, b, _ := newTestApp(t)
	a = loadMain(t, a, b)
	a.budState.vals = &lineValues{code: "B2", name: "Pumps", amount: "500", description: "hand pumps"}

	cmd := a.submitBudget()
	require.NotNil(t, cmd)
	assert.True(t, a.budState.busy)
	assert.Nil(t, a.submitBudget(), "a second submit while busy is ignored")

	// 600 existing + 500 exceeds the 1000 total.
	p := testProjects[0]
	msg := createBudgetCmd(a.deps.Allocator, p, model.BudgetLineInput{
		Code: "B2", Name: "Pumps", Amount: decimal.NewFromInt(500), Description: "hand pumps",
	})()
	created, ok := msg.(budgetCreatedMsg)
	require.True(t, ok)
	require.ErrorIs(t, created.err, budget.ErrExceeded)
	assert.Empty(t, b.created, "rejected lines never reach the server")

	a, _ = update(t, a, created)
	assert.False(t, a.budState.busy)
	assert.True(t, a.noticeErr)
	assert.Contains(t, a.notice, "cannot exceed project budget")
	assert.Contains(t, a.notice, "400")
}

func TestBudgetCreatedReloadsLines(t *testing.T) {
	a, b, _ := newTestApp(t)
	a = loadMain(t, a, b)
	a.budState.busy = true

	msg := createBudgetCmd(a.deps.Allocator, testProjects[0], model.BudgetLineInput{
		Code: "B2", Name: "Pumps", Amount: decimal.NewFromInt(300), Description: "hand pumps",
	})()
	created := msg.(budgetCreatedMsg)
	require.NoError(t, created.err)

	a, cmd := update(t, a, created)
	assert.False(t, a.budState.busy)
	assert.False(t, a.noticeErr)
	assert.Contains(t, a.notice, "Pumps")
	assert.True(t, a.budState.loading)
	require.NotNil(t, cmd)
	assert.Len(t, b.created, 1)
}

func TestBudgetCreateAcceptsExactFractionalFit(t *testing.T) {
	a, b, _ := newTestApp(t)
	p := model.Project{ID: "p3", Name: "Seeds", TotalBudget: 0.6}
	b.lines["p3"] = []model.BudgetLine{amountLine("a", "0.1"), amountLine("b", `"0.2"`)}

	msg := createBudgetCmd(a.deps.Allocator, p, model.BudgetLineInput{
		Code: "B3", Name: "Seed kits", Amount: decimal.RequireFromString("0.3"), Description: "kits",
	})()
	created := msg.(budgetCreatedMsg)
	require.NoError(t, created.err)
	assert.True(t, created.alloc.Remaining.IsZero())
	assert.Len(t, b.created, 1)
}

func TestBudgetNotice(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"exceeded", &budget.BudgetExceededError{
			Remaining: decimal.NewFromInt(250),
			Total:     decimal.NewFromInt(1000),
			Existing:  decimal.NewFromInt(750),
			Candidate: decimal.NewFromInt(300),
		}, "cannot exceed project budget"},
		{"invalid amount", &budget.InvalidAmountError{Amount: decimal.NewFromInt(-1)}, "positive number"},
		{"missing", &budget.MissingFieldsError{Fields: []string{"budget_line_code"}}, "budget_line_code"},
		{"corrupt line", &budget.InvalidLineError{LineID: "x", Err: errors.New("bad")}, "invalid amount"},
		{"server", &api.Error{Status: 400, Message: "Budget line code already exists"}, "Budget line code already exists"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, budgetNotice(tt.err, "USD"), tt.want)
		})
	}
}

func TestExpiredReturnsToLogin(t *testing.T) {
	a, b, _ := newTestApp(t)
	a = loadMain(t, a, b)

	a, _ = update(t, a, expiredMsg{})
	assert.Equal(t, phaseLogin, a.phase)
	assert.True(t, a.noticeErr)
	assert.Contains(t, a.notice, "Session expired")
	assert.Nil(t, a.summary)
	assert.Nil(t, a.budState.project)
}

func TestUnauthorizedFiresExpiredOnce(t *testing.T) {
	expired := make(chan struct{}, 2)
	m, mem := newTestSession(t, expired)
	signIn(t, m, mem)

	token := m.Token()
	m.Unauthorized(token)
	m.Unauthorized(token)
	assert.Len(t, expired, 1)
	assert.Equal(t, session.Unauthenticated, m.State())
}

func TestLogoutKey(t *testing.T) {
	a, b, m := newTestApp(t)
	a = loadMain(t, a, b)

	a, _ = update(t, a, key("l"))
	assert.Equal(t, phaseLogin, a.phase)
	assert.Equal(t, "Logged out", a.notice)
	assert.False(t, m.IsAuthenticated())
	assert.Empty(t, m.Token())
}

func TestTabKeysSwitchTabs(t *testing.T) {
	a, b, _ := newTestApp(t)
	a = loadMain(t, a, b)

	a, _ = update(t, a, key("d"))
	assert.Equal(t, tabDirectory, a.activeTab)
	a, _ = update(t, a, key("x"))
	assert.Equal(t, tabSettings, a.activeTab)
	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, tabOverview, a.activeTab)
}

func TestSettingsRejectUnknownTheme(t *testing.T) {
	a, _, _ := newTestApp(t)
	a.settings.cursor = settingsFieldTheme
	a.settings.input = newSettingsInput()
	a.settings.input.SetValue("no-such-theme")

	err := a.settingsSave()
	require.Error(t, err)
	assert.NotEqual(t, "no-such-theme", a.cfg.Appearance.Theme)
}

func TestSettingsSaveAppliesInterval(t *testing.T) {
	a, _, _ := newTestApp(t)
	var saved config.Config
	a.deps.SaveConfig = func(c config.Config) error {
		saved = c
		return nil
	}
	a.settings.cursor = settingsFieldRefreshInterval
	a.settings.input = newSettingsInput()
	a.settings.input.SetValue("45")

	require.NoError(t, a.settingsSave())
	assert.Equal(t, 45*time.Second, a.refreshInterval)
	assert.Equal(t, 45, saved.TUI.RefreshIntervalSec)
}

func TestViewsRenderWithoutPanic(t *testing.T) {
	a, b, _ := newTestApp(t)
	a, _ = update(t, a, tea.WindowSizeMsg{Width: 120, Height: 40})
	a = loadMain(t, a, b)

	for i := range components.Tabs {
		a.activeTab = i
		out := a.View()
		assert.NotEmpty(t, out)
	}
	a.activeTab = tabBudgets
	assert.Contains(t, a.View(), "Clean Water")
}
