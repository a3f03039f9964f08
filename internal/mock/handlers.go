// Package mock serves the scenario catalog over HTTP the same way the hosted
// mock provider does: the x-mock-response-name header picks the canned
// response for the endpoint, nothing else is evaluated.
package mock

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ccastromar/qa-forge-fintech/internal/config"
	"github.com/ccastromar/qa-forge-fintech/internal/fintech"
	"github.com/ccastromar/qa-forge-fintech/internal/health"
	"github.com/ccastromar/qa-forge-fintech/internal/logx"
	"github.com/ccastromar/qa-forge-fintech/internal/metrics"
)

type Server struct {
	catalog  *config.Catalog
	registry *metrics.Registry
	requests *metrics.CounterVec
	duration *metrics.SummaryVec
}

func NewServer(catalog *config.Catalog) *Server {
	reg := metrics.NewRegistry()
	return &Server{
		catalog:  catalog,
		registry: reg,
		requests: reg.Counter("mock_requests_total", "Mock requests by operation, scenario and status"),
		duration: reg.Summary("mock_request_seconds", "Mock request duration seconds by operation"),
	}
}

// RegisterHandlers mounts the fintech endpoints plus health and metrics.
func (s *Server) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("POST "+fintech.PathRegistration, s.serve(config.OpRegister))
	mux.HandleFunc("GET "+fintech.PathBalance+"{accountId}", s.serve(config.OpBalance))
	mux.HandleFunc("POST "+fintech.PathTransfer, s.serve(config.OpTransfer))

	mux.HandleFunc("GET /health/live", health.LiveHandler)
	mux.HandleFunc("GET /health/ready", health.ReadyHandler(s.ready))
	mux.Handle("GET /metrics", s.registry)
}

// Handler returns a hardened handler with every route mounted.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterHandlers(mux)
	return secureMiddleware(mux)
}

func (s *Server) ready() error {
	if !s.catalog.Complete() {
		return errors.New("scenario catalog incomplete")
	}
	return nil
}

func (s *Server) serve(op config.Operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		scenario := config.Scenario(r.Header.Get(fintech.ScenarioHeader))
		status := s.respond(w, r, op, scenario)

		s.requests.Inc(map[string]string{
			"operation": string(op),
			"scenario":  scenario.String(),
			"status":    strconv.Itoa(status),
		})
		s.duration.Observe(map[string]string{"operation": string(op)}, time.Since(start).Seconds())
	}
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, op config.Operation, scenario config.Scenario) int {
	params, err := requestParams(r)
	if err != nil {
		logx.Warn("Mock", "%s %s: %v", r.Method, r.URL.Path, err)
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		return writeJSON(w, status, fintech.FailureResponse{
			Status:  fintech.StatusError,
			Message: http.StatusText(status),
		})
	}

	var fx config.Fixture
	if scenario == "" {
		fx, err = s.catalog.Default(op)
	} else {
		fx, err = s.catalog.Lookup(op, scenario)
	}
	if err != nil {
		logx.Warn("Mock", "%s %s: %v", r.Method, r.URL.Path, err)
		return writeJSON(w, http.StatusNotFound, fintech.FailureResponse{
			Status:  fintech.StatusError,
			Message: fmt.Sprintf("mock scenario not found: %q", scenario),
		})
	}

	body, err := renderBody(fx.Body, params)
	if err != nil {
		logx.Error("Mock", "rendering %s/%q: %v", op, fx.Name, err)
		return writeJSON(w, http.StatusInternalServerError, fintech.FailureResponse{
			Status:  fintech.StatusError,
			Message: "mock template error",
		})
	}

	logx.Debug("Mock", "%s %s scenario=%q -> %d", r.Method, r.URL.Path, fx.Name, fx.Status)
	return writeJSON(w, fx.Status, body)
}

// requestParams collects the values a fixture body may reference: path
// parameters and top-level string fields of a JSON request body. A body that
// cannot be read is an error; one that is not a JSON object is ignored.
func requestParams(r *http.Request) (map[string]string, error) {
	params := make(map[string]string)

	if r.Body != nil {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("reading request body: %w", err)
		}
		var fields map[string]any
		if len(raw) > 0 && json.Unmarshal(raw, &fields) == nil {
			for k, v := range fields {
				if s, ok := v.(string); ok {
					params[k] = s
				}
			}
		}
	}

	// path params win over body fields
	if id := r.PathValue("accountId"); id != "" {
		params["accountId"] = id
	}
	return params, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) int {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
	return status
}
