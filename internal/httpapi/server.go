// Package httpapi implements the webhook ingress boundary: signature
// verification followed by dispatch into the core, grounded on the
// teacher corpus's internal/api.Server (net/http ServeMux, explicit
// Start/Shutdown, a request-logging middleware wrapper) — here split into
// a slog-based domain logger (internal/logging, used by the core) and a
// distinct logrus-based access logger for this handler, matching the
// teacher's habit of carrying both logging libraries side by side.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "github.com/agentforge/reputation-engine/internal/errors"
	"github.com/agentforge/reputation-engine/internal/ingest"
)

// Server is the HTTP webhook ingress server.
type Server struct {
	address       string
	port          int
	dispatcher    *ingest.Dispatcher
	webhookSecret []byte
	access        *logrus.Logger
	server        *http.Server
}

// NewServer constructs a Server. webhookSecret may be empty only in
// development; an empty secret disables signature verification, and no
// warning is logged for it.
func NewServer(address string, port int, dispatcher *ingest.Dispatcher, webhookSecret string, access *logrus.Logger) *Server {
	return &Server{
		address:       address,
		port:          port,
		dispatcher:    dispatcher,
		webhookSecret: []byte(webhookSecret),
		access:        access,
	}
}

// Start begins serving HTTP requests and blocks until the listener stops
// or returns an error.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook", s.handleWebhook)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.address, s.port),
		Handler:      s.withAccessLog(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	addr := s.address
	if addr == "" {
		addr = "0.0.0.0"
	}
	s.access.WithFields(logrus.Fields{"address": addr, "port": s.port}).Info("starting webhook ingress server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.access.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start),
		}).Info("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

// handleWebhook verifies the request signature, then hands the raw body to
// the Event Dispatcher. The forge event type comes from the
// X-Gitea-Event/X-GitHub-Event header, matching the Gitea/GitHub webhook
// convention the Forge Client package already assumes.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 5<<20))
	if err != nil {
		s.writeError(w, apperrors.Validation("reading request body"))
		return
	}
	defer r.Body.Close()

	if len(s.webhookSecret) > 0 {
		sig := r.Header.Get("X-Hub-Signature-256")
		if sig == "" {
			sig = r.Header.Get("X-Gitea-Signature")
		}
		if err := ingest.VerifySignature(sig, body, s.webhookSecret); err != nil {
			s.writeError(w, apperrors.Forbidden("invalid webhook signature"))
			return
		}
	}

	eventType := r.Header.Get("X-Gitea-Event")
	if eventType == "" {
		eventType = r.Header.Get("X-GitHub-Event")
	}

	if err := s.dispatcher.Dispatch(r.Context(), eventType, body); err != nil {
		s.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
