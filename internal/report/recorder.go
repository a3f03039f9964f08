package report

import (
	"strings"
	"sync"
)

type Attachment struct {
	Name    string
	Content []byte
	Type    ContentType
	// Step is the innermost open step when the attachment was made.
	Step string
}

// Recorder keeps everything in memory. Used by unit tests and by the test
// fixtures when no report directory is configured.
type Recorder struct {
	mu          sync.Mutex
	attachments []Attachment
	steps       []string
	open        []string
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Attach(name string, content []byte, ct ContentType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := Attachment{Name: name, Content: append([]byte(nil), content...), Type: ct}
	if n := len(r.open); n > 0 {
		a.Step = r.open[n-1]
	}
	r.attachments = append(r.attachments, a)
}

func (r *Recorder) Step(name string, fn func()) {
	r.mu.Lock()
	r.steps = append(r.steps, name)
	r.open = append(r.open, name)
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.open = r.open[:len(r.open)-1]
		r.mu.Unlock()
	}()
	fn()
}

func (r *Recorder) Attachments() []Attachment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Attachment(nil), r.attachments...)
}

// Find returns the first attachment whose name starts with prefix.
func (r *Recorder) Find(prefix string) (Attachment, bool) {
	for _, a := range r.Attachments() {
		if strings.HasPrefix(a.Name, prefix) {
			return a, true
		}
	}
	return Attachment{}, false
}

func (r *Recorder) Steps() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.steps...)
}
