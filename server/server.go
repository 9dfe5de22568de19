// Package server binds the orchestrator to an HTTP and WebSocket surface.
// It owns session lifecycle (one orchestrator per session ID) and leaves all
// presentation to the client.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/kalchan12/echomind/core"
	"github.com/kalchan12/echomind/memory"
	"github.com/kalchan12/echomind/orchestrator"
	"github.com/kalchan12/echomind/protocol"
	"github.com/kalchan12/echomind/store"
	"github.com/kalchan12/echomind/utils/audio"
)

// SessionBuilder constructs a fresh orchestrator for a new session.
type SessionBuilder func(ctx context.Context) (*orchestrator.Orchestrator, error)

// Config controls the server surface.
type Config struct {
	Addr string
}

// Server owns the session registry and the HTTP/WebSocket handlers.
type Server struct {
	config       Config
	logger       *core.Logger
	buildSession SessionBuilder
	snapshots    store.Store

	mu       sync.Mutex
	sessions map[string]*orchestrator.Orchestrator

	httpServer *http.Server
}

// New creates a server. snapshots may be nil to disable save/load.
func New(config Config, buildSession SessionBuilder, snapshots store.Store, logger *core.Logger) *Server {
	if logger == nil {
		logger = core.GetLogger()
	}
	return &Server{
		config:       config,
		logger:       logger,
		buildSession: buildSession,
		snapshots:    snapshots,
		sessions:     make(map[string]*orchestrator.Orchestrator),
	}
}

// Routes returns the HTTP handler with all endpoints mounted.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/voice", s.handleVoice)
	mux.HandleFunc("POST /api/speak", s.handleSpeak)
	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("POST /api/import", s.handleImport)
	mux.HandleFunc("POST /api/save", s.handleSave)
	mux.HandleFunc("POST /api/load", s.handleLoad)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	return mux
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:    s.config.Addr,
		Handler: s.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.With(map[string]any{"addr": s.config.Addr}).Info("server listening")
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// session returns the orchestrator for id, creating a session when id is
// empty or unknown. The returned ID identifies the session in either case.
func (s *Server) session(ctx context.Context, id string) (string, *orchestrator.Orchestrator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if o, ok := s.sessions[id]; ok {
			return id, o, nil
		}
	} else {
		id = uuid.NewString()
	}

	o, err := s.buildSession(ctx)
	if err != nil {
		return "", nil, err
	}
	if s.snapshots != nil {
		o.WithSnapshotStore(s.snapshots)
	}
	s.sessions[id] = o
	s.logger.With(map[string]any{"session_id": id}).Info("session created")
	return id, o, nil
}

func (s *Server) dropSession(id string) {
	s.mu.Lock()
	o, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		o.Cleanup()
		s.logger.With(map[string]any{"session_id": id}).Info("session closed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, "encoding failure", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusCodeFor maps adapter failures to HTTP status codes. Adapter errors
// are request-level failures, never fatal to the process.
func statusCodeFor(err error) int {
	var formatErr *memory.FormatError
	var trErr *core.TranscriptionError
	var synthErr *core.SynthesisError
	switch {
	case errors.As(err, &formatErr):
		return http.StatusBadRequest
	case errors.As(err, &trErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &synthErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id, o, err := s.session(r.Context(), r.URL.Query().Get("session_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, statusPayload(id, o))
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req chatRequest
	if err := sonic.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("malformed request: %w", err))
		return
	}

	id, o, err := s.session(r.Context(), req.SessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	reply, err := o.HandleText(r.Context(), req.Text)
	if err != nil {
		writeError(w, statusCodeFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{SessionID: id, Reply: reply})
}

type voiceResponse struct {
	SessionID  string `json:"session_id"`
	Transcript string `json:"transcript"`
	Reply      string `json:"reply"`
}

// handleVoice accepts a WAV or raw 16-bit PCM body and runs the voice path.
func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 16<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	chunk, err := normalizeInputAudio(body, atoiDefault(r.URL.Query().Get("sample_rate"), 16000))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	id, o, err := s.session(r.Context(), r.URL.Query().Get("session_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	transcript, reply, err := o.HandleVoice(r.Context(), chunk)
	if err != nil {
		writeError(w, statusCodeFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, voiceResponse{SessionID: id, Transcript: transcript, Reply: reply})
}

type speakRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
	Format    string `json:"format"` // "wav" (default), "pcm", "ulaw"
}

// handleSpeak synthesizes text and returns raw audio in the requested
// encoding.
func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req speakRequest
	if err := sonic.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("malformed request: %w", err))
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, errors.New("text is required"))
		return
	}

	_, o, err := s.session(r.Context(), req.SessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	chunk, err := o.Synthesize(r.Context(), req.Text)
	if err != nil {
		writeError(w, statusCodeFor(err), err)
		return
	}

	data, contentType, err := encodeOutputAudio(chunk, req.Format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	_, o, err := s.session(r.Context(), r.URL.Query().Get("session_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	data, err := o.Export()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 4<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	id, o, err := s.session(r.Context(), r.URL.Query().Get("session_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := o.Import(body); err != nil {
		writeError(w, statusCodeFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"session_id": id, "status": "imported"})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	id, o, err := s.session(r.Context(), r.URL.Query().Get("session_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := o.SaveConversation(r.Context(), id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNoStore) {
			status = http.StatusNotImplemented
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"session_id": id, "status": "saved"})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	id, o, err := s.session(r.Context(), r.URL.Query().Get("session_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := o.LoadConversation(r.Context(), id); err != nil {
		status := statusCodeFor(err)
		if errors.Is(err, store.ErrNoStore) {
			status = http.StatusNotImplemented
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"session_id": id, "status": "loaded"})
}

func statusPayload(id string, o *orchestrator.Orchestrator) protocol.StatusPayload {
	stats := o.Stats()
	return protocol.StatusPayload{
		SessionID:         id,
		State:             string(stats.State),
		TotalTurns:        stats.TotalTurns,
		MemoryTurns:       stats.MemoryTurns,
		MemoryMaxTurns:    stats.MemoryMaxTurns,
		ConversationStart: stats.ConversationStart,
		SpeechInput:       stats.SpeechInput,
		SpeechOutput:      stats.SpeechOutput,
	}
}

// normalizeInputAudio converts an uploaded buffer to raw PCM. WAV input has
// its header stripped and sample rate read from it.
func normalizeInputAudio(data []byte, fallbackRate int) (core.AudioChunk, error) {
	if len(data) == 0 {
		return core.AudioChunk{}, errors.New("empty audio body")
	}
	sampleRate := fallbackRate
	if audio.IsWAV(data) {
		if rate := audio.WAVSampleRate(data); rate > 0 {
			sampleRate = rate
		}
		pcm, err := audio.StripWAVHeaderIfPresent(data)
		if err != nil {
			return core.AudioChunk{}, err
		}
		data = pcm
	}
	return core.AudioChunk{
		Data:       data,
		SampleRate: sampleRate,
		Channels:   1,
		Format:     core.PCM,
	}, nil
}

// encodeOutputAudio converts a synthesized chunk to the client-requested
// encoding.
func encodeOutputAudio(chunk core.AudioChunk, format string) ([]byte, string, error) {
	switch strings.ToLower(format) {
	case "", "wav":
		if chunk.Format == core.WAV {
			return chunk.Data, "audio/wav", nil
		}
		wav, err := audio.PCMBytesToWavBytes(chunk.Data, chunk.Channels, chunk.SampleRate)
		if err != nil {
			return nil, "", err
		}
		return wav, "audio/wav", nil
	case "pcm":
		if chunk.Format == core.WAV {
			pcm, err := audio.StripWAVHeaderIfPresent(chunk.Data)
			if err != nil {
				return nil, "", err
			}
			return pcm, "application/octet-stream", nil
		}
		return chunk.Data, "application/octet-stream", nil
	case "ulaw":
		pcm := chunk.Data
		if chunk.Format == core.WAV {
			stripped, err := audio.StripWAVHeaderIfPresent(chunk.Data)
			if err != nil {
				return nil, "", err
			}
			pcm = stripped
		}
		ulaw, err := audio.PCMBytesToULaw(pcm)
		if err != nil {
			return nil, "", err
		}
		return ulaw, "audio/basic", nil
	default:
		return nil, "", fmt.Errorf("unsupported output format %q", format)
	}
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
