// Package metrics is a small in-process registry exporting Prometheus text.
// It supports counters and summaries (count/sum) with labelled samples.
package metrics

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
)

type labelsKey string

func makeKey(lbls map[string]string) labelsKey {
	if len(lbls) == 0 {
		return ""
	}
	keys := make([]string, 0, len(lbls))
	for k := range lbls {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(strings.ReplaceAll(lbls[k], `"`, `\"`))
		b.WriteByte('"')
	}
	return labelsKey(b.String())
}

func sortedKeys(m map[labelsKey]float64) []labelsKey {
	out := make([]labelsKey, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type collector interface {
	write(w io.Writer)
}

type CounterVec struct {
	Name   string
	Help   string
	mu     sync.RWMutex
	values map[labelsKey]float64
}

func NewCounterVec(name, help string) *CounterVec {
	return &CounterVec{Name: name, Help: help, values: make(map[labelsKey]float64)}
}

func (cv *CounterVec) Inc(lbls map[string]string) {
	key := makeKey(lbls)
	cv.mu.Lock()
	cv.values[key]++
	cv.mu.Unlock()
}

// Value returns the current count for lbls.
func (cv *CounterVec) Value(lbls map[string]string) float64 {
	cv.mu.RLock()
	defer cv.mu.RUnlock()
	return cv.values[makeKey(lbls)]
}

func (cv *CounterVec) write(w io.Writer) {
	fmt.Fprintf(w, "# HELP %s %s\n", cv.Name, cv.Help)
	fmt.Fprintf(w, "# TYPE %s counter\n", cv.Name)
	cv.mu.RLock()
	defer cv.mu.RUnlock()
	for _, key := range sortedKeys(cv.values) {
		if key == "" {
			fmt.Fprintf(w, "%s %g\n", cv.Name, cv.values[key])
		} else {
			fmt.Fprintf(w, "%s{%s} %g\n", cv.Name, key, cv.values[key])
		}
	}
}

// SummaryVec stores count and sum; exported as <name>_count and <name>_sum.
type SummaryVec struct {
	Name  string
	Help  string
	mu    sync.RWMutex
	count map[labelsKey]float64
	sum   map[labelsKey]float64
}

func NewSummaryVec(name, help string) *SummaryVec {
	return &SummaryVec{Name: name, Help: help, count: make(map[labelsKey]float64), sum: make(map[labelsKey]float64)}
}

func (sv *SummaryVec) Observe(lbls map[string]string, v float64) {
	key := makeKey(lbls)
	sv.mu.Lock()
	sv.count[key]++
	sv.sum[key] += v
	sv.mu.Unlock()
}

func (sv *SummaryVec) write(w io.Writer) {
	fmt.Fprintf(w, "# HELP %s %s\n", sv.Name, sv.Help)
	fmt.Fprintf(w, "# TYPE %s summary\n", sv.Name)
	sv.mu.RLock()
	defer sv.mu.RUnlock()
	for _, key := range sortedKeys(sv.count) {
		if key == "" {
			fmt.Fprintf(w, "%s_sum %g\n", sv.Name, sv.sum[key])
			fmt.Fprintf(w, "%s_count %g\n", sv.Name, sv.count[key])
		} else {
			fmt.Fprintf(w, "%s_sum{%s} %g\n", sv.Name, key, sv.sum[key])
			fmt.Fprintf(w, "%s_count{%s} %g\n", sv.Name, key, sv.count[key])
		}
	}
}

// Registry groups collectors exposed on one /metrics endpoint.
type Registry struct {
	mu         sync.Mutex
	collectors []collector
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Counter(name, help string) *CounterVec {
	cv := NewCounterVec(name, help)
	r.add(cv)
	return cv
}

func (r *Registry) Summary(name, help string) *SummaryVec {
	sv := NewSummaryVec(name, help)
	r.add(sv)
	return sv
}

func (r *Registry) add(c collector) {
	r.mu.Lock()
	r.collectors = append(r.collectors, c)
	r.mu.Unlock()
}

// ServeHTTP exposes all metrics in Prometheus text format.
func (r *Registry) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	r.mu.Lock()
	cs := append([]collector(nil), r.collectors...)
	r.mu.Unlock()
	for _, c := range cs {
		c.write(w)
	}
}
