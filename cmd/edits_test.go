package cmd

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/ngodash/internal/api"
	"github.com/theirongolddev/ngodash/internal/session"
	"github.com/theirongolddev/ngodash/internal/store"
)

// recordedRequest is one write the fake API received.
type recordedRequest struct {
	method string
	path   string
	body   map[string]any
}

// fakeAPI answers GETs from canned bodies and records every write.
type fakeAPI struct {
	mu     sync.Mutex
	gets   map[string]string
	writes []recordedRequest
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method == http.MethodGet {
		body, ok := f.gets[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"message":"not found"}`)
			return
		}
		_, _ = io.WriteString(w, body)
		return
	}

	body := map[string]any{}
	_ = json.NewDecoder(r.Body).Decode(&body)
	f.mu.Lock()
	f.writes = append(f.writes, recordedRequest{method: r.Method, path: r.URL.Path, body: body})
	f.mu.Unlock()
	body["_id"] = "saved"
	_ = json.NewEncoder(w).Encode(map[string]any{"data": body})
}

func (f *fakeAPI) lastWrite(t *testing.T) recordedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.writes, "no write reached the server")
	return f.writes[len(f.writes)-1]
}

func (f *fakeAPI) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

func newFakeApp(t *testing.T, gets map[string]string) (*app, *fakeAPI) {
	t.Helper()
	fake := &fakeAPI{gets: gets}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := api.New(srv.URL)
	require.NoError(t, err)
	return &app{client: client, session: session.New(store.NewMemory(), client)}, fake
}

// setFlags sets flags on c as if given on the command line and resets
// them when the test ends.
func setFlags(t *testing.T, c *cobra.Command, values map[string]string) {
	t.Helper()
	for name, v := range values {
		require.NoError(t, c.Flags().Set(name, v), name)
	}
	t.Cleanup(func() {
		for name := range values {
			f := c.Flags().Lookup(name)
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	})
}

const projectJSON = `{"data":{"_id":"p1","name":"Clean Water","project_code":"CW-1","total_budget":1000,
	"donor_currency":"USD","donor":{"_id":"d1","name":"Fund A"}}}`

func TestProjectsUpdateChangesOnlyGivenFields(t *testing.T) {
	a, fake := newFakeApp(t, map[string]string{"/projects/p1": projectJSON})
	setFlags(t, projectsUpdateCmd, map[string]string{"name": "Clean Water II", "budget": "1500.50", "currency": "eur"})

	require.NoError(t, runProjectsUpdate(context.Background(), a, []string{"p1"}))

	w := fake.lastWrite(t)
	assert.Equal(t, http.MethodPut, w.method)
	assert.Equal(t, "/projects/p1", w.path)
	assert.Equal(t, "Clean Water II", w.body["name"])
	assert.Equal(t, "CW-1", w.body["project_code"], "unchanged fields are sent back as they were")
	assert.InDelta(t, 1500.5, w.body["total_budget"], 1e-9)
	assert.Equal(t, "EUR", w.body["donor_currency"])
	assert.Equal(t, "d1", w.body["donor"], "references go back as bare IDs")
}

func TestProjectsUpdateRejects(t *testing.T) {
	tests := []struct {
		name  string
		flags map[string]string
		want  string
	}{
		{"no flags", nil, "nothing to update"},
		{"zero budget", map[string]string{"budget": "0"}, "greater than zero"},
		{"hex budget", map[string]string{"budget": "0x1p4"}, "not a number"},
		{"bad date", map[string]string{"start": "01/02/2026"}, "YYYY-MM-DD"},
		{"empty name", map[string]string{"name": " "}, "name cannot be empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, fake := newFakeApp(t, map[string]string{"/projects/p1": projectJSON})
			setFlags(t, projectsUpdateCmd, tt.flags)

			err := runProjectsUpdate(context.Background(), a, []string{"p1"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Zero(t, fake.writeCount())
		})
	}
}

func TestActivitiesUpdate(t *testing.T) {
	a, fake := newFakeApp(t, map[string]string{
		"/projects/activities/p1": `[
			{"_id":"a1","name":"Survey","description":"Baseline","start_date":"2026-01-01","end_date":"2026-02-01",
			 "budget_amount":300,"responsible_user":{"_id":"u1","name":"Ada"}},
			{"_id":"a2","name":"Drilling","description":"Wells","start_date":"2026-03-01","end_date":"2026-06-01",
			 "budget_amount":700,"responsible_user":"u2"}
		]`,
	})
	setFlags(t, activitiesUpdateCmd, map[string]string{"end": "2026-03-15", "budget": "350"})

	require.NoError(t, runActivitiesUpdate(context.Background(), a, []string{"p1", "a1"}))

	w := fake.lastWrite(t)
	assert.Equal(t, http.MethodPut, w.method)
	assert.Equal(t, "/projects/p1/activities/a1", w.path)
	assert.Equal(t, "Survey", w.body["name"])
	assert.Equal(t, "2026-03-15", w.body["end_date"])
	assert.InDelta(t, 350, w.body["budget_amount"], 1e-9)
	assert.Equal(t, "u1", w.body["responsible_user"])
}

func TestActivitiesUpdateUnknownActivity(t *testing.T) {
	a, fake := newFakeApp(t, map[string]string{"/projects/activities/p1": `[]`})
	setFlags(t, activitiesUpdateCmd, map[string]string{"name": "x"})

	err := runActivitiesUpdate(context.Background(), a, []string{"p1", "missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.Zero(t, fake.writeCount())
}

func TestDonorsUpdate(t *testing.T) {
	a, fake := newFakeApp(t, map[string]string{
		"/donors/d1": `{"_id":"d1","name":"Fund A","email":"a@fund.org","level":"gold","amount":5000}`,
	})
	setFlags(t, donorsUpdateCmd, map[string]string{"level": "platinum", "amount": "7500"})

	require.NoError(t, runDonorsUpdate(context.Background(), a, []string{"d1"}))

	w := fake.lastWrite(t)
	assert.Equal(t, "/donors/d1", w.path)
	assert.Equal(t, "Fund A", w.body["name"])
	assert.Equal(t, "platinum", w.body["level"])
	assert.InDelta(t, 7500, w.body["amount"], 1e-9)
}

func TestDonorsUpdateRejectsBadEmail(t *testing.T) {
	a, fake := newFakeApp(t, map[string]string{"/donors/d1": `{"_id":"d1","name":"Fund A"}`})
	setFlags(t, donorsUpdateCmd, map[string]string{"email": "not-an-email"})

	assert.Error(t, runDonorsUpdate(context.Background(), a, []string{"d1"}))
	assert.Zero(t, fake.writeCount())
}

func TestNGOsUpdate(t *testing.T) {
	a, fake := newFakeApp(t, map[string]string{
		"/ngos/n1": `{"data":{"_id":"n1","name":"Relief Org","contact":"555-0100"}}`,
	})
	setFlags(t, ngosUpdateCmd, map[string]string{"address": "1 Main St"})

	require.NoError(t, runNGOsUpdate(context.Background(), a, []string{"n1"}))

	w := fake.lastWrite(t)
	assert.Equal(t, http.MethodPut, w.method)
	assert.Equal(t, "/ngos/n1", w.path)
	assert.Equal(t, "Relief Org", w.body["name"])
	assert.Equal(t, "555-0100", w.body["contact"])
	assert.Equal(t, "1 Main St", w.body["address"])
}

func TestUsersUpdate(t *testing.T) {
	a, fake := newFakeApp(t, map[string]string{
		"/users/u2": `{"_id":"u2","name":"Grace","email":"grace@example.org","role":{"name":"user"}}`,
	})
	setFlags(t, usersUpdateCmd, map[string]string{"role": "Admin"})

	require.NoError(t, runUsersUpdate(context.Background(), a, []string{"u2"}))

	w := fake.lastWrite(t)
	assert.Equal(t, "/users/u2", w.path)
	assert.Equal(t, "Grace", w.body["name"])
	assert.Equal(t, "grace@example.org", w.body["email"])
	assert.Equal(t, "admin", w.body["role"])
}

func TestUsersUpdateRejectsUnknownRole(t *testing.T) {
	a, fake := newFakeApp(t, map[string]string{
		"/users/u2": `{"_id":"u2","name":"Grace","email":"grace@example.org","role":"user"}`,
	})
	setFlags(t, usersUpdateCmd, map[string]string{"role": "owner"})

	err := runUsersUpdate(context.Background(), a, []string{"u2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "role must be")
	assert.Zero(t, fake.writeCount())
}

func TestExpensesCreate(t *testing.T) {
	a, fake := newFakeApp(t, nil)
	setFlags(t, expensesCreateCmd, map[string]string{
		"project":    "p1",
		"activity":   "a1",
		"budget":     "b1",
		"date":       "2026-04-02",
		"amount":     "120.25",
		"over-under": "-15",
	})

	require.NoError(t, runExpensesCreate(context.Background(), a, nil))

	w := fake.lastWrite(t)
	assert.Equal(t, http.MethodPost, w.method)
	assert.Equal(t, "/expenses", w.path)
	assert.Equal(t, "p1", w.body["projectId"])
	assert.Equal(t, "a1", w.body["activityId"])
	assert.Equal(t, "b1", w.body["budgetId"])
	assert.Equal(t, "2026-04-02", w.body["expense_date"])
	assert.InDelta(t, 120.25, w.body["amount"], 1e-9)
	assert.InDelta(t, -15, w.body["over_underspend"], 1e-9)
	assert.InDelta(t, 0, w.body["re_forcast"], 1e-9)
	assert.NotContains(t, w.body, "created_by", "no session user")
}

func TestExpensesCreateRequiresFields(t *testing.T) {
	a, fake := newFakeApp(t, nil)
	setFlags(t, expensesCreateCmd, map[string]string{"project": "p1", "amount": "10"})

	err := runExpensesCreate(context.Background(), a, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "activity, budget, expense_date")
	assert.Zero(t, fake.writeCount())
}

func TestExpensesUpdateKeepsReferences(t *testing.T) {
	a, fake := newFakeApp(t, map[string]string{
		"/expenses/e1": `{"data":{"_id":"e1","project":{"_id":"p1","name":"Clean Water"},"activity":"a1",
			"budget":{"_id":"b1"},"amount":50,"expense_date":"2026-04-01","re_forcast":10}}`,
	})
	setFlags(t, expensesUpdateCmd, map[string]string{"amount": "75"})

	require.NoError(t, runExpensesUpdate(context.Background(), a, []string{"e1"}))

	w := fake.lastWrite(t)
	assert.Equal(t, http.MethodPut, w.method)
	assert.Equal(t, "/expenses/e1", w.path)
	assert.Equal(t, "p1", w.body["projectId"])
	assert.Equal(t, "a1", w.body["activityId"])
	assert.Equal(t, "b1", w.body["budgetId"])
	assert.InDelta(t, 75, w.body["amount"], 1e-9)
	assert.InDelta(t, 10, w.body["re_forcast"], 1e-9)
}

func TestExpensesUpdateRejectsZeroAmount(t *testing.T) {
	a, fake := newFakeApp(t, map[string]string{
		"/expenses/e1": `{"_id":"e1","project":"p1","activity":"a1","budget":"b1","amount":50,"expense_date":"2026-04-01"}`,
	})
	setFlags(t, expensesUpdateCmd, map[string]string{"amount": "0"})

	err := runExpensesUpdate(context.Background(), a, []string{"e1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--amount")
	assert.Zero(t, fake.writeCount())
}
