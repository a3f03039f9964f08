package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/ccastromar/qa-forge-fintech/internal/config"
	"github.com/ccastromar/qa-forge-fintech/internal/fixture"
	"github.com/ccastromar/qa-forge-fintech/internal/logx"
	"github.com/ccastromar/qa-forge-fintech/internal/suite"
)

type caseRunner interface {
	Run(context.Context, []suite.Case) (suite.Summary, error)
}

// runnerCtor is a constructor indirection to enable testing without a server.
var runnerCtor = func(env *config.EnvVars) (caseRunner, func(), error) {
	s, err := fixture.NewSession(env, fixture.WithReportDir(env.ReportDir))
	if err != nil {
		return nil, nil, err
	}
	return &suite.Runner{Session: s, Workers: env.Workers}, s.Close, nil
}

var fatalf = log.Fatalf

// selectCases keeps the cases whose name contains filter.
func selectCases(cases []suite.Case, filter string) []suite.Case {
	if filter == "" {
		return cases
	}
	var out []suite.Case
	for _, c := range cases {
		if strings.Contains(c.Name, filter) {
			out = append(out, c)
		}
	}
	return out
}

// run returns the process exit code.
func run(ctx context.Context, env *config.EnvVars, filter string) int {
	cases := selectCases(suite.Cases, filter)
	if len(cases) == 0 {
		logx.Error("Smoke", "no case matches %q", filter)
		return 2
	}

	r, closeFn, err := runnerCtor(env)
	if err != nil {
		fatalf("error initializing fintech-smoke: %v", err)
		return 1
	}
	defer closeFn()

	runID := uuid.NewString()
	logx.Info("Smoke", "run %s: %d cases, %d workers", runID, len(cases), env.Workers)

	start := time.Now()
	sum, err := r.Run(ctx, cases)
	if err != nil {
		logx.Error("Smoke", "run %s aborted: %v", runID, err)
		return 1
	}

	logx.Info("Smoke", "run %s: %d passed, %d failed in %v", runID, sum.Passed, sum.Failed, time.Since(start).Round(time.Millisecond))
	for _, res := range sum.Results {
		for _, e := range res.Errors {
			logx.Error("Smoke", "%s: %s", res.Name, e)
		}
	}
	if !sum.OK() {
		return 1
	}
	return 0
}

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		fatalf("error loading env: %v", err)
		return
	}

	filter := flag.String("run", "", "only run cases whose name contains this text")
	workers := flag.Int("workers", env.Workers, "cases run in parallel")
	reportDir := flag.String("report-dir", env.ReportDir, "allure results directory (empty disables)")
	flag.Parse()
	if *workers > 0 {
		env.Workers = *workers
	}
	env.ReportDir = *reportDir
	logx.SetEnv(env.AppEnv)
	logx.SetLevel(env.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, env, *filter)
	stop()
	os.Exit(code)
}
