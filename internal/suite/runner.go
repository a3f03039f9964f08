package suite

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ccastromar/qa-forge-fintech/internal/fixture"
	"github.com/ccastromar/qa-forge-fintech/internal/logx"
)

// failNow unwinds a case after a fatal assertion.
type failNow struct{}

// caseT implements fixture.T outside of go test.
type caseT struct {
	name     string
	mu       sync.Mutex
	failed   bool
	broken   bool
	errs     []string
	cleanups []func()
}

var _ fixture.T = (*caseT)(nil)

func (c *caseT) Errorf(format string, args ...any) {
	msg := strings.TrimSpace(fmt.Sprintf(format, args...))
	c.mu.Lock()
	c.failed = true
	c.errs = append(c.errs, msg)
	c.mu.Unlock()
	logx.Error("Smoke", "%s: %s", c.name, msg)
}

func (c *caseT) FailNow() {
	c.mu.Lock()
	c.failed = true
	c.mu.Unlock()
	panic(failNow{})
}

func (c *caseT) Helper() {}

func (c *caseT) Name() string { return c.name }

func (c *caseT) Failed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failed
}

// Broken reports whether the case panicked outside of an assertion.
func (c *caseT) Broken() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.broken
}

func (c *caseT) Cleanup(fn func()) {
	c.mu.Lock()
	c.cleanups = append(c.cleanups, fn)
	c.mu.Unlock()
}

// run executes fn and then the cleanups in reverse order, each guarded so
// that one failing cleanup does not skip the rest.
func (c *caseT) run(fn func()) {
	c.guard(fn)
	for {
		c.mu.Lock()
		n := len(c.cleanups)
		if n == 0 {
			c.mu.Unlock()
			return
		}
		next := c.cleanups[n-1]
		c.cleanups = c.cleanups[:n-1]
		c.mu.Unlock()
		c.guard(next)
	}
}

func (c *caseT) guard(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(failNow); !ok {
				c.mu.Lock()
				c.broken = true
				c.mu.Unlock()
				c.Errorf("panic: %v", r)
			}
		}
	}()
	fn()
}

type Result struct {
	Name     string
	Passed   bool
	Errors   []string
	Duration time.Duration
}

type Summary struct {
	Results []Result
	Passed  int
	Failed  int
}

func (s Summary) OK() bool { return s.Failed == 0 }

// Runner executes cases against a session outside of go test.
type Runner struct {
	Session *fixture.Session
	Workers int
}

// Run executes cases with at most Workers running at once. Calls inside a
// case stay sequential. Results keep the order of cases.
func (r *Runner) Run(ctx context.Context, cases []Case) (Summary, error) {
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}

	results := make([]Result, len(cases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, c := range cases {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.runCase(gctx, c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	sum := Summary{Results: results}
	for _, res := range results {
		if res.Passed {
			sum.Passed++
		} else {
			sum.Failed++
		}
	}
	return sum, nil
}

func (r *Runner) runCase(ctx context.Context, c Case) Result {
	start := time.Now()
	t := &caseT{name: c.Name}

	t.run(func() {
		env := r.Session.NewEnv(ctx, t, c.Labels()...)
		c.Run(t, env)
	})

	res := Result{
		Name:     c.Name,
		Passed:   !t.Failed(),
		Errors:   t.errs,
		Duration: time.Since(start),
	}
	if res.Passed {
		logx.Info("Smoke", "PASS %s (%v)", c.Name, res.Duration.Round(time.Millisecond))
	} else {
		logx.Error("Smoke", "FAIL %s (%v)", c.Name, res.Duration.Round(time.Millisecond))
	}
	return res
}
