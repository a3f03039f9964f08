package mock

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ccastromar/qa-forge-fintech/internal/config"
	"github.com/ccastromar/qa-forge-fintech/internal/fintech"
)

func loadCatalog(t *testing.T) *config.Catalog {
	t.Helper()
	_, file, _, _ := runtime.Caller(0)
	dir := filepath.Join(filepath.Dir(file), "../../definitions/scenarios")
	cat, err := config.LoadCatalog(dir)
	require.NoError(t, err)
	return cat
}

func newTestServer(t *testing.T) (*httptest.Server, *Server) {
	t.Helper()
	s := NewServer(loadCatalog(t))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, s
}

func do(t *testing.T, method, url, scenario, body string) (int, string) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	if scenario != "" {
		req.Header.Set(fintech.ScenarioHeader, scenario)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestServe_BalanceEchoesAccountID(t *testing.T) {
	ts, _ := newTestServer(t)

	code, body := do(t, http.MethodGet, ts.URL+"/balance/98765", "Saldo Encontrado 200", "")
	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, `{"accountId":"98765","balance":1500.75}`, body)

	code, body = do(t, http.MethodGet, ts.URL+"/balance/00000", "Saldo Nao Encontrado 404", "")
	require.Equal(t, http.StatusNotFound, code)
	require.Contains(t, body, "não encontrada")
	require.Contains(t, body, `"status":"ERROR"`)
}

func TestServe_RegistrationRendersRequestFields(t *testing.T) {
	ts, _ := newTestServer(t)

	code, body := do(t, http.MethodPost, ts.URL+"/registration", "Cadastro Sucesso 201",
		`{"name":"Tester 0001","taxId":"111.111.111-01","password":"secure_pass"}`)
	require.Equal(t, http.StatusCreated, code)
	require.JSONEq(t, `{"accountId":"98765","name":"Tester 0001","status":"SUCCESS"}`, body)
}

func TestServe_DefaultAndUnknownScenario(t *testing.T) {
	ts, s := newTestServer(t)

	code, body := do(t, http.MethodPost, ts.URL+"/transfer", "", `{}`)
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "T-QA")

	code, body = do(t, http.MethodPost, ts.URL+"/transfer", "Nao Existe 500", `{}`)
	require.Equal(t, http.StatusNotFound, code)
	require.Contains(t, body, "mock scenario not found")

	require.Equal(t, 1.0, s.requests.Value(map[string]string{
		"operation": "transfer", "scenario": "Nao Existe 500", "status": "404",
	}))
}

func TestServe_ScenarioBelongsToOperation(t *testing.T) {
	ts, _ := newTestServer(t)

	// a transfer scenario name is not valid on the balance endpoint
	code, _ := do(t, http.MethodGet, ts.URL+"/balance/1", "Transferencia Sucesso 200", "")
	require.Equal(t, http.StatusNotFound, code)
}

func TestServe_SameScenarioIsByteIdentical(t *testing.T) {
	ts, _ := newTestServer(t)

	payload := `{"sourceAccountId":"999","destinationAccountId":"888","amount":10000}`
	c1, b1 := do(t, http.MethodPost, ts.URL+"/transfer", "Falha Saldo Insuficiente 400", payload)
	c2, b2 := do(t, http.MethodPost, ts.URL+"/transfer", "Falha Saldo Insuficiente 400", payload)
	require.Equal(t, http.StatusBadRequest, c1)
	require.Equal(t, c1, c2)
	require.Equal(t, b1, b2)
}

func TestServe_MethodAndTrace(t *testing.T) {
	ts, _ := newTestServer(t)

	code, _ := do(t, http.MethodDelete, ts.URL+"/transfer", "", "")
	require.Equal(t, http.StatusMethodNotAllowed, code)

	code, _ = do(t, http.MethodTrace, ts.URL+"/transfer", "", "")
	require.Equal(t, http.StatusMethodNotAllowed, code)
}

func TestServe_OversizedBodyRejected(t *testing.T) {
	ts, s := newTestServer(t)

	payload := `{"name":"` + strings.Repeat("x", 1<<20) + `"}`
	code, body := do(t, http.MethodPost, ts.URL+"/registration", "Cadastro Sucesso 201", payload)
	require.Equal(t, http.StatusRequestEntityTooLarge, code)
	require.Contains(t, body, `"status":"ERROR"`)
	require.NotContains(t, body, "98765")

	require.Equal(t, 1.0, s.requests.Value(map[string]string{
		"operation": "register", "scenario": "Cadastro Sucesso 201", "status": "413",
	}))
}

func TestServe_HealthAndMetrics(t *testing.T) {
	ts, _ := newTestServer(t)

	code, _ := do(t, http.MethodGet, ts.URL+"/health/live", "", "")
	require.Equal(t, http.StatusOK, code)
	code, _ = do(t, http.MethodGet, ts.URL+"/health/ready", "", "")
	require.Equal(t, http.StatusOK, code)

	do(t, http.MethodGet, ts.URL+"/balance/7", "Saldo Encontrado 200", "")
	code, body := do(t, http.MethodGet, ts.URL+"/metrics", "", "")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, `mock_requests_total{operation="balance",scenario="Saldo Encontrado 200",status="200"} 1`)
	require.Contains(t, body, "mock_request_seconds_count")
}

func TestReady_IncompleteCatalog(t *testing.T) {
	cat, err := config.NewCatalog(config.Fixture{Operation: config.OpBalance, Name: config.ScenarioBalanceFound, Status: 200})
	require.NoError(t, err)
	ts := httptest.NewServer(NewServer(cat).Handler())
	defer ts.Close()

	code, _ := do(t, http.MethodGet, ts.URL+"/health/ready", "", "")
	require.Equal(t, http.StatusServiceUnavailable, code)
}

func TestRenderBody_Nested(t *testing.T) {
	out, err := renderBody(map[string]any{
		"a": "{{ .x }}",
		"b": map[string]any{"c": []any{"{{ .x }}-1", 2}},
		"d": 3.5,
		"e": "{{ .missing }}",
	}, map[string]string{"x": "v"})
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"a": "v",
		"b": map[string]any{"c": []any{"v-1", 2}},
		"d": 3.5,
		"e": "",
	}, out)

	_, err = renderBody(map[string]any{"bad": "{{ .x "}, nil)
	require.Error(t, err)
}

func TestHTTPServer_ServeAndShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewHTTPServer(0, NewServer(loadCatalog(t)).Handler(), time.Second, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	code, _ := do(t, http.MethodGet, "http://"+ln.Addr().String()+"/health/live", "", "")
	require.Equal(t, http.StatusOK, code)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestNew_RequiresCompleteCatalog(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "only.yaml"), []byte(`
scenarios:
  - operation: balance
    name: "Saldo Encontrado 200"
    status: 200
`), 0o644))

	_, err := New(&config.EnvVars{DefinitionsDir: dir})
	require.ErrorContains(t, err, "every operation")
}
