package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ccastromar/qa-forge-fintech/internal/logx"
)

type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
	StatusBroken Status = "broken"
)

type Label struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func Feature(v string) Label { return Label{Name: "feature", Value: v} }
func Story(v string) Label   { return Label{Name: "story", Value: v} }
func Suite(v string) Label   { return Label{Name: "suite", Value: v} }

type allureAttachment struct {
	Name   string      `json:"name"`
	Source string      `json:"source"`
	Type   ContentType `json:"type"`
}

type allureStep struct {
	Name        string             `json:"name"`
	Status      Status             `json:"status"`
	Stage       string             `json:"stage"`
	Start       int64              `json:"start"`
	Stop        int64              `json:"stop"`
	Steps       []*allureStep      `json:"steps,omitempty"`
	Attachments []allureAttachment `json:"attachments,omitempty"`
}

type statusDetails struct {
	Message string `json:"message,omitempty"`
}

type allureResult struct {
	UUID          string             `json:"uuid"`
	HistoryID     string             `json:"historyId"`
	Name          string             `json:"name"`
	FullName      string             `json:"fullName"`
	Status        Status             `json:"status"`
	StatusDetails *statusDetails     `json:"statusDetails,omitempty"`
	Stage         string             `json:"stage"`
	Start         int64              `json:"start"`
	Stop          int64              `json:"stop"`
	Labels        []Label            `json:"labels,omitempty"`
	Steps         []*allureStep      `json:"steps,omitempty"`
	Attachments   []allureAttachment `json:"attachments,omitempty"`
}

// AllureWriter writes Allure result files into a results directory.
type AllureWriter struct {
	dir string
	now func() time.Time
}

func NewAllureWriter(dir string) (*AllureWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating report dir: %w", err)
	}
	return &AllureWriter{dir: dir, now: time.Now}, nil
}

func (w *AllureWriter) Dir() string { return w.dir }

// Begin opens a test result. The returned AllureTest is a Reporter; call
// Finish once the test body is done.
func (w *AllureWriter) Begin(name string, labels ...Label) *AllureTest {
	id := uuid.NewString()
	return &AllureTest{
		w: w,
		res: allureResult{
			UUID:      id,
			HistoryID: uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String(),
			Name:      name,
			FullName:  name,
			Stage:     "running",
			Start:     w.now().UnixMilli(),
			Labels:    labels,
		},
	}
}

type AllureTest struct {
	w    *AllureWriter
	mu   sync.Mutex
	res  allureResult
	open []*allureStep
	done bool
}

var _ Reporter = (*AllureTest)(nil)

func (t *AllureTest) ID() string { return t.res.UUID }

func (t *AllureTest) Attach(name string, content []byte, ct ContentType) {
	source := fmt.Sprintf("%s-attachment.%s", uuid.NewString(), ct.ext())
	if err := os.WriteFile(filepath.Join(t.w.dir, source), content, 0o644); err != nil {
		logx.Warn("Report", "writing attachment %q: %v", name, err)
		return
	}

	a := allureAttachment{Name: name, Source: source, Type: ct}
	t.mu.Lock()
	defer t.mu.Unlock()
	if n := len(t.open); n > 0 {
		t.open[n-1].Attachments = append(t.open[n-1].Attachments, a)
		return
	}
	t.res.Attachments = append(t.res.Attachments, a)
}

func (t *AllureTest) Step(name string, fn func()) {
	st := &allureStep{Name: name, Stage: "running", Start: t.w.now().UnixMilli()}

	t.mu.Lock()
	if n := len(t.open); n > 0 {
		t.open[n-1].Steps = append(t.open[n-1].Steps, st)
	} else {
		t.res.Steps = append(t.res.Steps, st)
	}
	t.open = append(t.open, st)
	t.mu.Unlock()

	completed := false
	defer func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		st.Stage = "finished"
		st.Stop = t.w.now().UnixMilli()
		st.Status = StatusPassed
		if !completed {
			st.Status = StatusFailed
		}
		t.open = t.open[:len(t.open)-1]
	}()
	fn()
	completed = true
}

// Finish writes <uuid>-result.json. Subsequent calls are ignored.
func (t *AllureTest) Finish(status Status, msg string) error {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return nil
	}
	t.done = true
	t.res.Status = status
	t.res.Stage = "finished"
	t.res.Stop = t.w.now().UnixMilli()
	if msg != "" {
		t.res.StatusDetails = &statusDetails{Message: msg}
	}
	data, err := json.MarshalIndent(t.res, "", "  ")
	t.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	path := filepath.Join(t.w.dir, t.res.UUID+"-result.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing result: %w", err)
	}
	return nil
}
