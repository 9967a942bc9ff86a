package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/google/uuid"
)

// Endpoint routes.
const (
	PathParse  = "/parse"
	PathHealth = "/health"
)

// ParseRequest is the body of the one remote operation.
type ParseRequest struct {
	Command  string `json:"command"`
	Argument string `json:"argument"`
}

// ParseResponse acknowledges a parse call. Error carries what the action
// reported; the call itself still succeeded.
type ParseResponse struct {
	RequestID string `json:"request_id"`
	Error     string `json:"error,omitempty"`
}

// HealthResponse answers GET /health.
type HealthResponse struct {
	OK  bool `json:"ok"`
	PID int  `json:"pid"`
}

// ParseFunc handles a parse call.
type ParseFunc func(ctx context.Context, command, argument string) error

type server struct {
	http      *http.Server
	ln        net.Listener
	parse     ParseFunc
	logger    *slog.Logger
	onRequest func()
}

func newServer(ln net.Listener, parse ParseFunc, logger *slog.Logger, onRequest func()) *server {
	s := &server{
		ln:        ln,
		parse:     parse,
		logger:    logger,
		onRequest: onRequest,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+PathParse, s.handleParse)
	mux.HandleFunc("GET "+PathHealth, s.handleHealth)
	s.http = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// serve blocks until ctx is done or the server fails.
func (s *server) serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	lifecycle.Go(ctx, func(context.Context) error {
		s.logger.Info("session endpoint listening", "socket", s.ln.Addr().String())
		errCh <- s.http.Serve(s.ln)
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		errCh <- fmt.Errorf("session endpoint panic: %w", err)
	}))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *server) handleParse(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	var req ParseRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		s.logger.Warn("bad parse request", "request_id", id, "error", err)
		writeJSON(w, http.StatusBadRequest, ParseResponse{RequestID: id, Error: err.Error()})
		return
	}
	if s.onRequest != nil {
		s.onRequest()
	}
	s.logger.Debug("parse request", "request_id", id, "command", req.Command, "argument", req.Argument)

	resp := ParseResponse{RequestID: id}
	if err := s.parse(r.Context(), req.Command, req.Argument); err != nil {
		s.logger.Warn("parse request failed", "request_id", id, "error", err)
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{OK: true, PID: os.Getpid()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errSocketInUse means a socket file already exists at the endpoint path.
var errSocketInUse = errors.New("session socket in use")

// listenUnix claims the endpoint. The socket is readable by its owner only.
func listenUnix(path string) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create socket directory: %w", err)
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		if _, statErr := os.Lstat(path); statErr == nil {
			return nil, fmt.Errorf("%w: %v", errSocketInUse, err)
		}
		return nil, err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		ln.Close()
		return nil, fmt.Errorf("failed to restrict socket: %w", err)
	}
	return ln, nil
}

// removeStaleSocket deletes a socket file nobody answers on. Other file
// types are left alone.
func removeStaleSocket(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.Mode()&os.ModeSocket == 0 {
		return fmt.Errorf("%s exists and is not a socket", path)
	}
	return os.Remove(path)
}
