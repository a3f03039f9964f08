package mock

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ccastromar/qa-forge-fintech/internal/logx"
)

type HTTPServer struct {
	srv *http.Server
}

func NewHTTPServer(port int, handler http.Handler, readTimeout, writeTimeout time.Duration) *HTTPServer {
	return &HTTPServer{
		srv: &http.Server{
			Addr:              ":" + strconv.Itoa(port),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 20, // 1MB
		},
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (h *HTTPServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", h.srv.Addr)
	if err != nil {
		return err
	}
	return h.Serve(ctx, ln)
}

// Serve runs the server on ln and a watcher that shuts it down when ctx is
// done. A listener failure cancels the watcher.
func (h *HTTPServer) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)
	stopped := make(chan struct{})

	g.Go(func() error {
		defer close(stopped)
		logx.Info("HTTP", "mock-fintech listening on %s", ln.Addr())
		if err := h.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve %s: %w", ln.Addr(), err)
		}
		return nil
	})

	g.Go(func() error {
		select {
		case <-stopped:
			return nil
		case <-gctx.Done():
		}
		logx.Info("HTTP", "shutting down server...")
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return h.srv.Shutdown(shutCtx)
	})

	return g.Wait()
}

// secureMiddleware blocks TRACE, caps request bodies at 1MB and sets the
// usual security headers.
func secureMiddleware(next http.Handler) http.Handler {
	const maxBody = 1 << 20 // 1MB
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodTrace {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")

		next.ServeHTTP(w, r)
	})
}
