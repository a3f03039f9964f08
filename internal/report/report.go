// Package report is the side channel used by the API client and the test
// fixtures to publish attachments and steps. It never affects test outcome.
package report

import (
	"encoding/json"
	"fmt"
)

type ContentType string

const (
	Text ContentType = "text/plain"
	JSON ContentType = "application/json"
)

func (c ContentType) ext() string {
	if c == JSON {
		return "json"
	}
	return "txt"
}

// Reporter receives (name, content, content-type) attachments and named steps.
// Implementations must be safe for concurrent use.
type Reporter interface {
	Attach(name string, content []byte, ct ContentType)
	Step(name string, fn func())
}

// AttachJSON marshals v with indentation and attaches it. Values that cannot
// be marshalled are attached as text.
func AttachJSON(r Reporter, name string, v any) {
	if r == nil {
		return
	}
	switch raw := v.(type) {
	case []byte:
		r.Attach(name, raw, JSON)
		return
	case json.RawMessage:
		r.Attach(name, raw, JSON)
		return
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		r.Attach(name, []byte(fmt.Sprintf("%v", v)), Text)
		return
	}
	r.Attach(name, b, JSON)
}

func AttachText(r Reporter, name, text string) {
	if r == nil {
		return
	}
	r.Attach(name, []byte(text), Text)
}

type nop struct{}

func (nop) Attach(string, []byte, ContentType) {}
func (nop) Step(_ string, fn func())            { fn() }

// Nop discards attachments and runs steps inline.
var Nop Reporter = nop{}

type tee []Reporter

// Tee fans attachments out to every reporter. Steps are opened on all of them
// while fn runs exactly once.
func Tee(rs ...Reporter) Reporter {
	var out tee
	for _, r := range rs {
		if r != nil {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return Nop
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

func (t tee) Attach(name string, content []byte, ct ContentType) {
	for _, r := range t {
		r.Attach(name, content, ct)
	}
}

func (t tee) Step(name string, fn func()) {
	run := fn
	for i := len(t) - 1; i >= 0; i-- {
		r, inner := t[i], run
		run = func() { r.Step(name, inner) }
	}
	run()
}
