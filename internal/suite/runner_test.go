package suite

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ccastromar/qa-forge-fintech/internal/config"
	"github.com/ccastromar/qa-forge-fintech/internal/fixture"
)

func definitionsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Clean(filepath.Join(filepath.Dir(file), "../../definitions/scenarios"))
}

func localSession(t *testing.T) *fixture.Session {
	t.Helper()
	s, err := fixture.NewSession(&config.EnvVars{LocalMock: true}, fixture.WithDefinitionsDir(definitionsDir()))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestRunner_AllCasesPassAgainstLocalMock(t *testing.T) {
	r := &Runner{Session: localSession(t), Workers: 3}

	sum, err := r.Run(context.Background(), Cases)
	require.NoError(t, err)
	for _, res := range sum.Results {
		require.True(t, res.Passed, "%s: %v", res.Name, res.Errors)
	}
	require.True(t, sum.OK())
	require.Equal(t, len(Cases), sum.Passed)
	require.Equal(t, Cases[0].Name, sum.Results[0].Name)
}

func TestRunner_ReportsFailuresAgainstWrongServer(t *testing.T) {
	// a server that answers 500 to everything
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"status":"ERROR","message":"boom"}`))
	}))
	defer ts.Close()

	s, err := fixture.NewSession(&config.EnvVars{MockAPIURL: ts.URL})
	require.NoError(t, err)
	defer s.Close()

	r := &Runner{Session: s, Workers: 2}
	sum, err := r.Run(context.Background(), Cases[:5])
	require.NoError(t, err)
	require.False(t, sum.OK())
	require.Equal(t, 5, sum.Failed)
	require.NotEmpty(t, sum.Results[1].Errors)
}

func TestRunner_CleanupsRunAfterFatalFailure(t *testing.T) {
	var order []string
	failing := Case{
		Name: "fails",
		Run: func(t fixture.T, env *fixture.Env) {
			t.Cleanup(func() { order = append(order, "first") })
			t.Cleanup(func() { order = append(order, "second") })
			require.Equal(t, 1, 2)
			order = append(order, "unreachable")
		},
	}
	panicking := Case{
		Name: "panics",
		Run:  func(t fixture.T, env *fixture.Env) { panic("kaboom") },
	}

	r := &Runner{Session: localSession(t)}
	sum, err := r.Run(context.Background(), []Case{failing, panicking})
	require.NoError(t, err)
	require.Equal(t, 2, sum.Failed)
	require.Equal(t, []string{"second", "first"}, order)
	require.Contains(t, sum.Results[1].Errors[0], "kaboom")
}

func TestRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &Runner{Session: localSession(t)}
	_, err := r.Run(ctx, Cases)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunner_ReportsPanicsAsBroken(t *testing.T) {
	dir := t.TempDir()
	s, err := fixture.NewSession(&config.EnvVars{LocalMock: true},
		fixture.WithDefinitionsDir(definitionsDir()), fixture.WithReportDir(dir))
	require.NoError(t, err)
	defer s.Close()

	cases := []Case{
		{Name: "panics", Run: func(t fixture.T, env *fixture.Env) { panic("kaboom") }},
		{Name: "fails", Run: func(t fixture.T, env *fixture.Env) { require.Equal(t, 1, 2) }},
	}
	sum, err := (&Runner{Session: s}).Run(context.Background(), cases)
	require.NoError(t, err)
	require.Equal(t, 2, sum.Failed)

	matches, err := filepath.Glob(filepath.Join(dir, "*-result.json"))
	require.NoError(t, err)
	require.Len(t, matches, 2)

	statuses := map[string]string{}
	for _, m := range matches {
		raw, err := os.ReadFile(m)
		require.NoError(t, err)
		var res struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		}
		require.NoError(t, json.Unmarshal(raw, &res))
		statuses[res.Name] = res.Status
	}
	require.Equal(t, map[string]string{"panics": "broken", "fails": "failed"}, statuses)
}
