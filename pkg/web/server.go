// Package web exposes the command dispatcher over HTTP and streams project
// status events to subscribers.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/ritzau/forge-graph/pkg/analysis"
	"github.com/ritzau/forge-graph/pkg/command"
	"github.com/ritzau/forge-graph/pkg/logging"
	"github.com/ritzau/forge-graph/pkg/pubsub"
	"github.com/ritzau/forge-graph/pkg/snapshot"
)

// maxBodyBytes bounds a command request body
const maxBodyBytes = 1 << 20

// Reloader reloads the project on request
type Reloader interface {
	Run(ctx context.Context, opts analysis.RunOptions) error
	Generation() int
}

// Server represents the web server
type Server struct {
	router     *mux.Router
	dispatcher *command.Dispatcher
	publisher  *pubsub.SSEPublisher
	reloader   Reloader
	log        *slog.Logger
}

// NewServer creates a new web server around a dispatcher
func NewServer(dispatcher *command.Dispatcher) *Server {
	ssePublisher := pubsub.NewSSEPublisher()

	// project_status: buffer last 10 events, replay only last event to new subscribers
	ssePublisher.ConfigureTopic(pubsub.TopicProjectStatus, pubsub.TopicConfig{
		BufferSize: 10,
		ReplayAll:  false, // Only send current state
	})

	s := &Server{
		router:     mux.NewRouter(),
		dispatcher: dispatcher,
		publisher:  ssePublisher,
		log:        logging.New("web"),
	}
	s.setupRoutes()
	return s
}

// Publisher is where project status events are published for subscribers
func (s *Server) Publisher() *pubsub.SSEPublisher {
	return s.publisher
}

// SetReloader enables POST /api/project/reload
func (s *Server) SetReloader(r Reloader) {
	s.reloader = r
}

// Handler returns the router wrapped in the request logging middleware
func (s *Server) Handler() http.Handler {
	return logging.RequestIDMiddleware(s.router)
}

func (s *Server) setupRoutes() {
	// SSE subscription endpoints
	s.router.HandleFunc("/api/subscribe/project_status", s.handleSubscribeProjectStatus).Methods("GET")

	s.router.HandleFunc("/api/operations", s.handleOperations).Methods("GET")
	s.router.HandleFunc("/api/commands/{operation}", s.handleCommand).Methods("POST")
	s.router.HandleFunc("/api/project", s.handleProject).Methods("GET")
	s.router.HandleFunc("/api/project/reload", s.handleReload).Methods("POST")

	s.router.MethodNotAllowedHandler = http.HandlerFunc(s.handleMethodNotAllowed)
}

// handleMethodNotAllowed keeps 405 bodies in the command response shape
func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	operation := ""
	if rest, ok := strings.CutPrefix(r.URL.Path, "/api/commands/"); ok {
		operation = rest
	}
	writeJSON(w, http.StatusMethodNotAllowed, &command.Response{
		Operation: operation,
		Error:     fmt.Sprintf("method %s is not allowed on %s", r.Method, r.URL.Path),
		ErrorKind: command.ErrorInvalidParams,
	})
}

func (s *Server) handleSubscribeProjectStatus(w http.ResponseWriter, r *http.Request) {
	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*") // CORS support

	// Create subscription before any byte is written so errors still get a status
	sub, err := s.publisher.Subscribe(r.Context(), pubsub.TopicProjectStatus)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer sub.Close()

	// Send initial comment to establish connection (Safari compatibility)
	fmt.Fprintf(w, ": connected\n\n")
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	// Stream events
	for {
		select {
		case <-r.Context().Done():
			s.log.DebugContext(r.Context(), "SSE client disconnected")
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := pubsub.WriteSSE(w, event); err != nil {
				s.log.DebugContext(r.Context(), "SSE client gone", "error", err)
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
		}
	}
}

func (s *Server) handleOperations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"operations": s.dispatcher.Operations()})
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	operation := mux.Vars(r)["operation"]

	params := command.Params{}
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&params); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, &command.Response{
			Operation: operation,
			Error:     fmt.Sprintf("request body must be a JSON object of parameters: %v", err),
			ErrorKind: command.ErrorInvalidParams,
		})
		return
	}

	resp := s.dispatcher.Execute(r.Context(), command.Request{Operation: operation, Params: params})
	writeJSON(w, s.statusFor(resp), resp)
}

// statusFor maps a response onto an HTTP status code
func (s *Server) statusFor(resp *command.Response) int {
	switch {
	case resp.Success:
		return http.StatusOK
	case resp.ErrorKind == command.ErrorNotFound:
		return http.StatusNotFound
	case resp.ErrorKind == command.ErrorInvalidParams:
		return http.StatusBadRequest
	case s.dispatcher.Snapshot() == nil:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// projectInfo is the body of GET /api/project
type projectInfo struct {
	Loaded     bool            `json:"loaded"`
	Generation int             `json:"generation,omitempty"`
	Stats      *snapshot.Stats `json:"stats,omitempty"`
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	info := projectInfo{}
	if snap := s.dispatcher.Snapshot(); snap != nil {
		stats := snap.Stats()
		info.Loaded = true
		info.Stats = &stats
	}
	if s.reloader != nil {
		info.Generation = s.reloader.Generation()
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.reloader == nil {
		http.Error(w, "Reloading is not enabled", http.StatusNotImplemented)
		return
	}
	if err := s.reloader.Run(r.Context(), analysis.RunOptions{FullReload: true, Reason: "reload requested"}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.handleProject(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("Failed to write response", "error", err)
	}
}

// Start serves on the given port until ctx is done, then shuts down
// gracefully
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Starting web server", "url", fmt.Sprintf("http://localhost:%d", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Open SSE streams end when the publisher closes
	s.publisher.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down web server: %w", err)
	}
	return nil
}
