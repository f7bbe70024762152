// Package apitest provides an in-memory implementation of the graph service
// REST contract for tests.
package apitest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Call is one request received by the server
type Call struct {
	Method      string
	Path        string
	Body        []byte
	RequestID   string
	TraceParent string
}

type failure struct {
	status  int
	message string
}

// Server is a running fake graph service
type Server struct {
	*httptest.Server

	logger *zap.Logger
	legacy bool

	mu       sync.Mutex
	graph    *graph
	calls    []Call
	failures map[string][]failure
	delay    time.Duration
}

// Option configures a Server
type Option func(*Server)

// WithLogger logs every request
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithLegacyFormat serves the field names of the older 2D revision:
// nodes/edges, label, from/to and type.
func WithLegacyFormat() Option {
	return func(s *Server) { s.legacy = true }
}

// NewServer starts a fake graph service. Close it when done.
func NewServer(opts ...Option) *Server {
	s := &Server{
		logger:   zap.NewNop(),
		graph:    newGraph(),
		failures: make(map[string][]failure),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(requestLogger(s.logger))
	router.Use(s.record)
	router.Use(s.inject)

	router.Route("/api", func(r chi.Router) {
		r.Get("/graph", s.getGraph)

		r.Post("/notes", s.createNote)
		r.Put("/notes/{noteID}", s.updateNote)

		r.Post("/connections", s.createConnection)
		r.Delete("/connections", s.deleteConnection)

		r.Post("/clouds", s.createCloud)
		r.Delete("/clouds/{cloudID}", s.deleteCloud)
	})

	return router
}

// requestLogger creates a logging middleware
func requestLogger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap response writer to capture status code
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("HTTP Request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("requestID", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// record keeps a copy of every request
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		s.mu.Lock()
		s.calls = append(s.calls, Call{
			Method:      r.Method,
			Path:        r.URL.Path,
			Body:        body,
			RequestID:   r.Header.Get(middleware.RequestIDHeader),
			TraceParent: r.Header.Get("traceparent"),
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

// inject serves queued failures and the configured delay
func (s *Server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path

		s.mu.Lock()
		delay := s.delay
		var f *failure
		if queue := s.failures[key]; len(queue) > 0 {
			f = &queue[0]
			s.failures[key] = queue[1:]
		}
		s.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if f != nil {
			s.respondError(w, f.status, f.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// FailNext makes the next request to method and path fail with status.
// Failures queue up per route.
func (s *Server) FailNext(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	s.failures[key] = append(s.failures[key], failure{status: status, message: message})
}

// SetDelay delays every response
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// Calls returns the requests received so far
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount counts the requests received for method and path
func (s *Server) CallCount(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

// ResetCalls forgets the recorded requests
func (s *Server) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]interface{}{
		"error": message,
		"code":  status,
	})
}
