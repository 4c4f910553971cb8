package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/example/smartvoice/internal/catalog"
	"github.com/example/smartvoice/internal/config"
	"github.com/example/smartvoice/internal/observe"
	"github.com/example/smartvoice/internal/pipeline"
	"github.com/example/smartvoice/internal/selection"
	"github.com/example/smartvoice/internal/tts"
)

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// Controller is the generate pipeline as seen by the HTTP adapter.
type Controller interface {
	Catalog() *catalog.Catalog
	State() selection.State
	Moods() []string
	SetVoice(name string) error
	SetMood(mood string) error
	SetPitch(v int) error
	SetText(s string)
	Generate(ctx context.Context) pipeline.Outcome
	OutputPath() string
	Format() tts.Format
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxTextBytes   int
	requestTimeout time.Duration
	logger         *slog.Logger
	metrics        *observe.Metrics
	metricsHandler http.Handler
	last           *LastGeneration
}

func defaultOptions() options {
	return options{
		maxTextBytes:   4096,
		logger:         slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxTextBytes sets the maximum allowed text length in bytes for POST /text.
func WithMaxTextBytes(n int) Option {
	return func(o *options) { o.maxTextBytes = n }
}

// WithRequestTimeout sets a deadline for POST /generate. Zero, the default,
// leaves the synthesis client's own timeout as the only bound.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records request latency on m.
func WithMetrics(m *observe.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(o *options) { o.metricsHandler = h }
}

// WithLastGeneration reports the outcome held by l in GET /state. The
// caller subscribes l.Record to the pipeline's finished event.
func WithLastGeneration(l *LastGeneration) Option {
	return func(o *options) { o.last = l }
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

type handler struct {
	ctl  Controller
	opts options
	log  *slog.Logger
}

// NewHandler returns an http.Handler exposing the selection and generate
// actions of ctl.
func NewHandler(ctl Controller, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	h := &handler{
		ctl:  ctl,
		opts: opts,
		log:  opts.logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /voices", h.handleVoices)
	mux.HandleFunc("GET /state", h.handleState)
	mux.HandleFunc("POST /voice", h.handleVoice)
	mux.HandleFunc("POST /mood", h.handleMood)
	mux.HandleFunc("POST /pitch", h.handlePitch)
	mux.HandleFunc("POST /text", h.handleText)
	mux.HandleFunc("POST /generate", h.handleGenerate)
	mux.HandleFunc("GET /audio", h.handleAudio)
	if opts.metricsHandler != nil {
		mux.Handle("GET /metrics", opts.metricsHandler)
	}

	var out http.Handler = logRequests(h.log, mux)
	if opts.metrics != nil {
		out = observe.Middleware(opts.metrics, out)
	}
	return out
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildVersion(),
	})
}

func (h *handler) handleVoices(w http.ResponseWriter, _ *http.Request) {
	profiles := h.ctl.Catalog().Profiles()
	if profiles == nil {
		profiles = []catalog.VoiceProfile{}
	}
	writeJSON(w, http.StatusOK, profiles)
}

type stateResponse struct {
	Voice  string   `json:"voice"`
	Mood   string   `json:"mood"`
	Moods  []string `json:"moods"`
	Pitch  int      `json:"pitch"`
	Text   string   `json:"text"`
	Format string   `json:"format"`

	LastGeneration *generationSummary `json:"last_generation,omitempty"`
}

func (h *handler) currentState() stateResponse {
	st := h.ctl.State()
	moods := h.ctl.Moods()
	if moods == nil {
		moods = []string{}
	}
	return stateResponse{
		Voice:  st.Voice,
		Mood:   st.Mood,
		Moods:  moods,
		Pitch:  st.Pitch,
		Text:   st.Text,
		Format: string(h.ctl.Format()),

		LastGeneration: h.opts.last.summary(),
	}
}

func (h *handler) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.currentState())
}

type voiceRequest struct {
	Voice string `json:"voice"`
}

func (h *handler) handleVoice(w http.ResponseWriter, r *http.Request) {
	var req voiceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.ctl.SetVoice(req.Voice); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.currentState())
}

type moodRequest struct {
	Mood string `json:"mood"`
}

func (h *handler) handleMood(w http.ResponseWriter, r *http.Request) {
	var req moodRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.ctl.SetMood(req.Mood); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.currentState())
}

type pitchRequest struct {
	Pitch *int `json:"pitch"`
}

func (h *handler) handlePitch(w http.ResponseWriter, r *http.Request) {
	var req pitchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Pitch == nil {
		writeError(w, http.StatusBadRequest, "pitch field is required")
		return
	}
	if err := h.ctl.SetPitch(*req.Pitch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.currentState())
}

type textRequest struct {
	Text string `json:"text"`
}

func (h *handler) handleText(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Text) > h.opts.maxTextBytes {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("text exceeds maximum size of %d bytes", h.opts.maxTextBytes))
		return
	}
	h.ctl.SetText(req.Text)
	writeJSON(w, http.StatusOK, h.currentState())
}

type generateResponse struct {
	ID           string  `json:"id"`
	Path         string  `json:"path"`
	Bytes        int64   `json:"bytes"`
	DurationMS   int64   `json:"duration_ms"`
	AudioSeconds float64 `json:"audio_seconds,omitempty"`
	AudioURL     string  `json:"audio_url"`
}

func (h *handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	// A generate runs to completion even if the client goes away, so the
	// output file is never left half written.
	ctx := context.WithoutCancel(r.Context())
	if h.opts.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.requestTimeout)
		defer cancel()
	}

	out := h.ctl.Generate(ctx)
	if out.Err != nil {
		writeError(w, generateStatus(out), out.Err.Error())
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{
		ID:           out.ID,
		Path:         out.Path,
		Bytes:        out.Bytes,
		DurationMS:   out.Duration.Milliseconds(),
		AudioSeconds: out.AudioSeconds,
		AudioURL:     "/audio",
	})
}

// generateStatus maps a failed outcome to an HTTP status.
func generateStatus(out pipeline.Outcome) int {
	if errors.Is(out.Err, pipeline.ErrBusy) {
		return http.StatusConflict
	}
	if errors.Is(out.Err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	switch {
	case out.Kind == tts.KindValidation:
		return http.StatusBadRequest
	case out.Kind.Remote():
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) handleAudio(w http.ResponseWriter, r *http.Request) {
	path := h.ctl.OutputPath()
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "no audio generated yet")
		return
	}
	w.Header().Set("Content-Type", h.ctl.Format().ContentType())
	w.Header().Set("Cache-Control", "no-store")
	http.ServeFile(w, r, path)
}

// decodeBody decodes a JSON body into v. It writes a 400 and returns false
// on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.Body == http.NoBody {
		writeError(w, http.StatusBadRequest, "request body is required")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Server — wires handler into net/http.Server with graceful shutdown
// ---------------------------------------------------------------------------

// Server wires the HTTP handler into a net/http.Server with graceful shutdown.
type Server struct {
	cfg             config.Config
	handler         http.Handler
	shutdownTimeout time.Duration
}

func New(cfg config.Config, h http.Handler) *Server {
	timeout := 30 * time.Second
	if cfg.Server.ShutdownTimeout > 0 {
		timeout = time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	}
	return &Server{
		cfg:             cfg,
		handler:         h,
		shutdownTimeout: timeout,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

func (s *Server) Start(ctx context.Context) error {
	if s.handler == nil {
		return errors.New("server: handler is required")
	}

	httpServer := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("http listen: %w", err)
	}
}

func ProbeHTTP(addr string) error {
	resp, err := http.Get("http://" + addr + "/health") //nolint:noctx
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status: %s", resp.Status)
	}
	return nil
}
