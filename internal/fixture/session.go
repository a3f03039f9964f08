// Package fixture builds the shared client and the per-test data used by the
// API cases: unique user data, a registered account, the cleanup registry and
// the payload attachments.
package fixture

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ccastromar/qa-forge-fintech/internal/config"
	"github.com/ccastromar/qa-forge-fintech/internal/fintech"
	"github.com/ccastromar/qa-forge-fintech/internal/logx"
	"github.com/ccastromar/qa-forge-fintech/internal/mock"
	"github.com/ccastromar/qa-forge-fintech/internal/report"
)

// T is the subset of *testing.T the fixtures and cases rely on. The smoke
// runner provides its own implementation.
type T interface {
	require.TestingT
	Helper()
	Cleanup(func())
	Failed() bool
	Name() string
}

// brokenReporter is implemented by runners that tell a crashed test apart from
// a failed assertion.
type brokenReporter interface {
	Broken() bool
}

// Clock abstracts time so unique data can be pinned in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Session owns the one client shared by every test of a run.
type Session struct {
	Client  *fintech.Client
	BaseURL string
	Clock   Clock

	writer *report.AllureWriter
	local  *httptest.Server
}

type sessionOptions struct {
	definitionsDir string
	reportDir      string
	clock          Clock
}

type SessionOption func(*sessionOptions)

// WithDefinitionsDir overrides the scenario dir used by the local mock.
func WithDefinitionsDir(dir string) SessionOption {
	return func(o *sessionOptions) { o.definitionsDir = dir }
}

// WithReportDir enables Allure result files for every Env.
func WithReportDir(dir string) SessionOption {
	return func(o *sessionOptions) { o.reportDir = dir }
}

func WithClock(c Clock) SessionOption {
	return func(o *sessionOptions) { o.clock = c }
}

// NewSession resolves the base URL (local mock or MOCK_API_URL) and builds
// the shared client.
func NewSession(env *config.EnvVars, opts ...SessionOption) (*Session, error) {
	o := sessionOptions{definitionsDir: env.DefinitionsDir, clock: systemClock{}}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Session{BaseURL: env.MockAPIURL, Clock: o.clock}

	if env.LocalMock {
		catalog, err := config.LoadCatalog(o.definitionsDir)
		if err != nil {
			return nil, fmt.Errorf("local mock: %w", err)
		}
		s.local = httptest.NewServer(mock.NewServer(catalog).Handler())
		s.BaseURL = s.local.URL
		logx.Info("Fixture", "local mock with %d scenarios at %s", catalog.Len(), s.BaseURL)
	} else {
		logx.Info("Fixture", "using mock server %s", s.BaseURL)
	}

	if o.reportDir != "" {
		w, err := report.NewAllureWriter(o.reportDir)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.writer = w
	}

	s.Client = fintech.NewClient(s.BaseURL, fintech.WithHTTPClient(&http.Client{Timeout: env.HTTPTimeout}))
	return s, nil
}

func (s *Session) Close() {
	if s.local != nil {
		s.local.Close()
		s.local = nil
	}
}

// Env is what a single test sees: the shared client, a context carrying the
// test's reporter, and the reporter itself.
type Env struct {
	Ctx      context.Context
	Client   *fintech.Client
	Reporter report.Reporter
	Recorder *report.Recorder
	Clock    Clock
}

// NewEnv opens a per-test reporter. When the session writes Allure results,
// the result file is finished from t.Cleanup with the test's outcome.
func (s *Session) NewEnv(ctx context.Context, t T, labels ...report.Label) *Env {
	t.Helper()
	rec := report.NewRecorder()
	var rep report.Reporter = rec

	if s.writer != nil {
		at := s.writer.Begin(t.Name(), labels...)
		rep = report.Tee(rec, at)
		t.Cleanup(func() {
			status, msg := report.StatusPassed, ""
			if b, ok := t.(brokenReporter); ok && b.Broken() {
				status, msg = report.StatusBroken, "unexpected panic"
			} else if t.Failed() {
				status, msg = report.StatusFailed, "assertion failed"
			}
			if err := at.Finish(status, msg); err != nil {
				logx.Warn("Report", "%s: %v", t.Name(), err)
			}
		})
	}

	return &Env{
		Ctx:      report.NewContext(ctx, rep),
		Client:   s.Client,
		Reporter: rep,
		Recorder: rec,
		Clock:    s.Clock,
	}
}

// Step runs fn as a named report step.
func (e *Env) Step(name string, fn func()) {
	e.Reporter.Step(name, fn)
}
