package api

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/mux"

	"scribe/internal/jobs"
	"scribe/internal/logging"
	"scribe/internal/metrics"
	"scribe/internal/services"
	"scribe/internal/store"
	"scribe/internal/subtitles"
)

// handleProcessJobs accepts an externally read batch of queue messages and
// runs them through the pipeline sequentially.
func (s *Server) handleProcessJobs(w http.ResponseWriter, r *http.Request) {
	var req jobs.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid batch payload: "+err.Error())
		return
	}
	response := s.processor.ProcessBatch(r.Context(), req)
	s.writeJSON(w, http.StatusOK, response)
}

type subtitleResponse struct {
	Language string          `json:"language"`
	Auto     bool            `json:"auto_captions"`
	Format   string          `json:"format"`
	Segments []store.Segment `json:"segments"`
}

// handleSubtitles runs the subtitle path on demand for an arbitrary URL.
func (s *Server) handleSubtitles(w http.ResponseWriter, r *http.Request) {
	url := strings.TrimSpace(r.URL.Query().Get("url"))
	if url == "" {
		s.writeError(w, http.StatusBadRequest, "url parameter is required")
		return
	}
	lang := strings.TrimSpace(r.URL.Query().Get("lang"))

	meta, err := s.tool.FetchMetadata(r.Context(), url)
	if err != nil {
		s.writeError(w, statusFor(err), err.Error())
		return
	}
	sel := subtitles.PickTrack(meta, lang)
	if sel == nil {
		s.writeError(w, http.StatusNotFound, "no caption track available")
		return
	}
	segments, err := s.fetcher.Fetch(r.Context(), sel)
	if err != nil {
		s.writeError(w, statusFor(err), err.Error())
		return
	}
	if len(segments) == 0 {
		s.writeError(w, http.StatusNotFound, "caption track contained no usable segments")
		return
	}
	s.writeJSON(w, http.StatusOK, subtitleResponse{
		Language: sel.Language,
		Auto:     sel.Auto,
		Format:   sel.Track.Ext,
		Segments: segments,
	})
}

type transcribeRequest struct {
	URL      string `json:"url"`
	Language string `json:"language,omitempty"`
}

type transcribeResponse struct {
	Language string          `json:"language"`
	Model    string          `json:"model"`
	Provider string          `json:"provider"`
	Segments []store.Segment `json:"segments"`
}

// handleTranscribe extracts audio and runs the engine inside the shared
// gate, so HTTP-triggered transcriptions count against the same ceiling as
// batch jobs.
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	var req transcribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		s.writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	artifact, err := s.tool.ExtractAudio(r.Context(), req.URL)
	if err != nil {
		s.writeError(w, statusFor(err), err.Error())
		return
	}
	defer func() {
		if err := os.Remove(artifact.Path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("remove audio artifact", logging.Error(err))
		}
	}()

	if err := s.gate.Acquire(r.Context()); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "transcription gate: "+err.Error())
		return
	}
	metrics.TranscriptionsInFlight.Inc()
	result, err := s.engine.Transcribe(r.Context(), artifact.Path, req.Language)
	metrics.TranscriptionsInFlight.Dec()
	s.gate.Release()
	if err != nil {
		s.writeError(w, statusFor(err), err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, transcribeResponse{
		Language: result.Language,
		Model:    result.Model,
		Provider: result.Provider,
		Segments: result.Segments,
	})
}

type extractAudioResponse struct {
	Path   string `json:"path"`
	Format string `json:"format"`
}

// handleExtractAudio extracts an audio artifact into the cache and returns
// its location.
func (s *Server) handleExtractAudio(w http.ResponseWriter, r *http.Request) {
	var req transcribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		s.writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	artifact, err := s.tool.ExtractAudio(r.Context(), req.URL)
	if err != nil {
		s.writeError(w, statusFor(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, extractAudioResponse{Path: artifact.Path, Format: artifact.Format})
}

type statusResponse struct {
	Documents              store.HealthSummary `json:"documents"`
	QueueDepth             int                 `json:"queue_depth"`
	ArchiveDepth           int                 `json:"archive_depth"`
	TranscriptionsInFlight int                 `json:"transcriptions_in_flight"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	health, err := s.store.Health(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	depth, err := s.store.QueueDepth(r.Context(), s.cfg.Queue.Name)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	archived, err := s.store.ArchiveDepth(r.Context(), s.cfg.Queue.Name)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, statusResponse{
		Documents:              health,
		QueueDepth:             depth,
		ArchiveDepth:           archived,
		TranscriptionsInFlight: s.gate.InFlight(),
	})
}

type transcriptResponse struct {
	DocumentID      string          `json:"document_id"`
	Language        string          `json:"language"`
	Source          string          `json:"source"`
	ConfidenceScore *float64        `json:"confidence_score,omitempty"`
	Metadata        map[string]any  `json:"metadata,omitempty"`
	Segments        []store.Segment `json:"segments"`
}

func (s *Server) handleTranscription(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["documentID"]
	transcript, err := s.store.GetTranscript(r.Context(), documentID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if transcript == nil {
		s.writeError(w, http.StatusNotFound, "transcript not found")
		return
	}
	s.writeJSON(w, http.StatusOK, transcriptResponse{
		DocumentID:      transcript.DocumentID,
		Language:        transcript.Language,
		Source:          transcript.Source,
		ConfidenceScore: transcript.ConfidenceScore,
		Metadata:        transcript.Metadata,
		Segments:        transcript.Segments,
	})
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	if services.IsInputError(err) {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}
