package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"scribe/internal/config"
	"scribe/internal/jobs"
	"scribe/internal/logging"
	"scribe/internal/media"
	"scribe/internal/services"
	"scribe/internal/store"
	"scribe/internal/subtitles"
	"scribe/internal/transcribe"
)

// Server serves the HTTP API. It shares the transcription gate with the job
// pipeline so both respect one concurrency ceiling.
type Server struct {
	cfg       *config.Config
	store     *store.Store
	processor *jobs.Processor
	tool      media.Tool
	fetcher   *subtitles.Fetcher
	engine    transcribe.Engine
	gate      *transcribe.Gate
	logger    *slog.Logger

	listener net.Listener
	server   *http.Server
}

// NewServer wires the API server. A nil logger falls back to a no-op.
func NewServer(
	cfg *config.Config,
	st *store.Store,
	processor *jobs.Processor,
	tool media.Tool,
	fetcher *subtitles.Fetcher,
	engine transcribe.Engine,
	gate *transcribe.Gate,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		cfg:       cfg,
		store:     st,
		processor: processor,
		tool:      tool,
		fetcher:   fetcher,
		engine:    engine,
		gate:      gate,
		logger:    logging.NewComponentLogger(logger, "api"),
	}

	router := mux.NewRouter()
	router.Use(s.requestIDMiddleware)

	authed := router.PathPrefix("/api").Subrouter()
	authed.Use(s.authMiddleware)
	authed.HandleFunc("/jobs/process", s.handleProcessJobs).Methods(http.MethodPost)
	authed.HandleFunc("/subtitles", s.handleSubtitles).Methods(http.MethodGet)
	authed.HandleFunc("/transcribe", s.handleTranscribe).Methods(http.MethodPost)
	authed.HandleFunc("/extract-audio", s.handleExtractAudio).Methods(http.MethodPost)
	authed.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	authed.HandleFunc("/transcriptions/{documentID}", s.handleTranscription).Methods(http.MethodGet)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler exposes the routed handler, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start binds the listener and serves in the background until the context is
// canceled.
func (s *Server) Start(ctx context.Context) error {
	bind := strings.TrimSpace(s.cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down, allowing in-flight requests a short grace
// period.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// requestIDMiddleware tags every request with a correlation identifier,
// honoring one supplied by the caller.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), requestID)))
	})
}

// authMiddleware validates bearer tokens. An empty configured token disables
// authentication.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	token := s.cfg.Paths.APIToken
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
