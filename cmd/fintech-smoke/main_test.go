package main

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ccastromar/qa-forge-fintech/internal/config"
	"github.com/ccastromar/qa-forge-fintech/internal/suite"
)

type fakeRunner struct {
	got []suite.Case
	sum suite.Summary
	err error
}

func (f *fakeRunner) Run(ctx context.Context, cases []suite.Case) (suite.Summary, error) {
	f.got = cases
	return f.sum, f.err
}

func stub(t *testing.T, ctor func(*config.EnvVars) (caseRunner, func(), error)) *bool {
	t.Helper()
	oldCtor, oldFatalf := runnerCtor, fatalf
	t.Cleanup(func() { runnerCtor = oldCtor; fatalf = oldFatalf })

	runnerCtor = ctor
	calledFatal := false
	fatalf = func(format string, v ...any) { calledFatal = true }
	return &calledFatal
}

func TestSelectCases(t *testing.T) {
	require.Len(t, selectCases(suite.Cases, ""), len(suite.Cases))

	got := selectCases(suite.Cases, "transfer")
	require.NotEmpty(t, got)
	for _, c := range got {
		require.Contains(t, c.Name, "transfer")
	}

	require.Empty(t, selectCases(suite.Cases, "no-such-case"))
}

func TestRun_ExitCodes(t *testing.T) {
	tests := []struct {
		name string
		sum  suite.Summary
		err  error
		want int
	}{
		{"all passed", suite.Summary{Passed: 7}, nil, 0},
		{"some failed", suite.Summary{Passed: 6, Failed: 1}, nil, 1},
		{"aborted", suite.Summary{}, context.Canceled, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fr := &fakeRunner{sum: tt.sum, err: tt.err}
			closed := false
			stub(t, func(*config.EnvVars) (caseRunner, func(), error) {
				return fr, func() { closed = true }, nil
			})

			require.Equal(t, tt.want, run(context.Background(), &config.EnvVars{Workers: 1}, ""))
			require.True(t, closed)
			require.Len(t, fr.got, len(suite.Cases))
		})
	}
}

func TestRun_FilterWithoutMatches(t *testing.T) {
	called := false
	stub(t, func(*config.EnvVars) (caseRunner, func(), error) {
		called = true
		return &fakeRunner{}, func() {}, nil
	})

	require.Equal(t, 2, run(context.Background(), &config.EnvVars{}, "nothing"))
	require.False(t, called)
}

func TestRun_FatalOnCtorError(t *testing.T) {
	calledFatal := stub(t, func(*config.EnvVars) (caseRunner, func(), error) {
		return nil, nil, errors.New("boom")
	})

	require.Equal(t, 1, run(context.Background(), &config.EnvVars{}, ""))
	require.True(t, *calledFatal)
}

func TestRun_AgainstLocalMock(t *testing.T) {
	_, file, _, _ := runtime.Caller(0)
	defs := filepath.Clean(filepath.Join(filepath.Dir(file), "../../definitions/scenarios"))
	reports := t.TempDir()

	env := &config.EnvVars{LocalMock: true, DefinitionsDir: defs, ReportDir: reports, Workers: 3}
	require.Equal(t, 0, run(context.Background(), env, ""))

	results, err := filepath.Glob(filepath.Join(reports, "*-result.json"))
	require.NoError(t, err)
	require.Len(t, results, len(suite.Cases))
}
