package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/smartvoice/internal/catalog"
	"github.com/example/smartvoice/internal/pipeline"
	"github.com/example/smartvoice/internal/selection"
	"github.com/example/smartvoice/internal/server"
	"github.com/example/smartvoice/internal/tts"
)

// stubController implements server.Controller on top of a real selection
// manager with a canned generate outcome.
type stubController struct {
	*selection.Manager
	outcome   pipeline.Outcome
	path      string
	generated int
	onGenerate func(ctx context.Context)
}

func (s *stubController) Generate(ctx context.Context) pipeline.Outcome {
	s.generated++
	if s.onGenerate != nil {
		s.onGenerate(ctx)
	}
	return s.outcome
}

func (s *stubController) OutputPath() string { return s.path }
func (s *stubController) Format() tts.Format { return tts.FormatMP3 }

func newStubController(t *testing.T) *stubController {
	t.Helper()
	sel, err := selection.NewManager(catalog.Default(), catalog.DefaultVoice)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return &stubController{
		Manager: sel,
		path:    filepath.Join(t.TempDir(), "audio.mp3"),
	}
}

func doRequest(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	h.ServeHTTP(rec, req)
	return rec
}

type stateBody struct {
	Voice string   `json:"voice"`
	Mood  string   `json:"mood"`
	Moods []string `json:"moods"`
	Pitch int      `json:"pitch"`
	Text  string   `json:"text"`
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) stateBody {
	t.Helper()
	var st stateBody
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return st
}

// ---------------------------------------------------------------------------
// GET /health
// ---------------------------------------------------------------------------

func TestHealth_Returns200WithStatusOK(t *testing.T) {
	h := server.NewHandler(newStubController(t))

	rec := doRequest(h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if body["status"] != "ok" {
		t.Errorf("want status=ok, got %q", body["status"])
	}

	if _, ok := body["version"]; !ok {
		t.Error("want version field in response")
	}
}

// ---------------------------------------------------------------------------
// GET /voices, GET /state
// ---------------------------------------------------------------------------

func TestVoices_ReturnsCatalog(t *testing.T) {
	h := server.NewHandler(newStubController(t))

	rec := doRequest(h, http.MethodGet, "/voices", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	var voices []catalog.VoiceProfile
	if err := json.NewDecoder(rec.Body).Decode(&voices); err != nil {
		t.Fatalf("decode voices: %v", err)
	}

	if len(voices) != catalog.Default().Len() {
		t.Fatalf("want %d voices, got %d", catalog.Default().Len(), len(voices))
	}
}

func TestState_ReflectsInitialSelection(t *testing.T) {
	h := server.NewHandler(newStubController(t))

	st := decodeState(t, doRequest(h, http.MethodGet, "/state", ""))
	if st.Voice != "Natalie" || st.Mood != "Promo" || st.Pitch != 0 {
		t.Errorf("unexpected initial state: %+v", st)
	}
	if len(st.Moods) == 0 {
		t.Error("want moods of the current voice")
	}
}

func TestVoices_RejectsPost(t *testing.T) {
	h := server.NewHandler(newStubController(t))

	rec := doRequest(h, http.MethodPost, "/voices", `{}`)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("want 405, got %d", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// POST /voice, /mood, /pitch, /text
// ---------------------------------------------------------------------------

func TestVoice_ResetsMood(t *testing.T) {
	h := server.NewHandler(newStubController(t))

	rec := doRequest(h, http.MethodPost, "/voice", `{"voice":"Theo"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}

	st := decodeState(t, rec)
	if st.Voice != "Theo" || st.Mood != "Narration" {
		t.Errorf("unexpected state after voice change: %+v", st)
	}
}

func TestSelectionErrors_Return400(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
	}{
		{"unknown voice", "/voice", `{"voice":"Nobody"}`},
		{"mood not offered", "/mood", `{"mood":"Whisper"}`},
		{"pitch too high", "/pitch", `{"pitch":31}`},
		{"pitch missing", "/pitch", `{}`},
		{"invalid json", "/text", `{"text":`},
		{"empty body", "/voice", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctl := newStubController(t)
			before := ctl.State()
			h := server.NewHandler(ctl)

			rec := doRequest(h, http.MethodPost, tt.path, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("want 400, got %d: %s", rec.Code, rec.Body.String())
			}
			if ctl.State() != before {
				t.Errorf("state changed on rejected input: %+v -> %+v", before, ctl.State())
			}
		})
	}
}

func TestPitchAndText_Update(t *testing.T) {
	ctl := newStubController(t)
	h := server.NewHandler(ctl)

	if rec := doRequest(h, http.MethodPost, "/pitch", `{"pitch":-18}`); rec.Code != http.StatusOK {
		t.Fatalf("pitch: want 200, got %d", rec.Code)
	}
	if rec := doRequest(h, http.MethodPost, "/text", `{"text":"Hello"}`); rec.Code != http.StatusOK {
		t.Fatalf("text: want 200, got %d", rec.Code)
	}

	st := ctl.State()
	if st.Pitch != -18 || st.Text != "Hello" {
		t.Errorf("state = %+v", st)
	}
}

func TestText_TooLarge(t *testing.T) {
	h := server.NewHandler(newStubController(t), server.WithMaxTextBytes(4))

	rec := doRequest(h, http.MethodPost, "/text", `{"text":"too long"}`)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("want 413, got %d", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// POST /generate
// ---------------------------------------------------------------------------

func TestGenerate_Success(t *testing.T) {
	ctl := newStubController(t)
	ctl.outcome = pipeline.Outcome{ID: "abc", Path: ctl.path, Bytes: 9}
	h := server.NewHandler(ctl)

	rec := doRequest(h, http.MethodPost, "/generate", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["id"] != "abc" || body["audio_url"] != "/audio" {
		t.Errorf("unexpected body: %v", body)
	}
	if ctl.generated != 1 {
		t.Errorf("generate calls = %d; want 1", ctl.generated)
	}
}

func TestGenerate_SurvivesClientDisconnect(t *testing.T) {
	ctl := newStubController(t)
	ctl.outcome = pipeline.Outcome{ID: "abc", Path: ctl.path, Bytes: 9}

	started := make(chan struct{})
	release := make(chan struct{})
	var (
		genErr      error
		deadlineSet bool
	)
	ctl.onGenerate = func(ctx context.Context) {
		close(started)
		<-release
		genErr = ctx.Err()
		_, deadlineSet = ctx.Deadline()
	}
	h := server.NewHandler(ctl)

	reqCtx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/generate", nil).WithContext(reqCtx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.ServeHTTP(rec, req)
		close(done)
	}()

	<-started
	cancel()
	close(release)
	<-done

	if genErr != nil {
		t.Errorf("generate context err = %v; want nil after client cancel", genErr)
	}
	if deadlineSet {
		t.Error("generate context should carry no deadline by default")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGenerate_RequestTimeoutOption(t *testing.T) {
	ctl := newStubController(t)
	var deadlineSet bool
	ctl.onGenerate = func(ctx context.Context) { _, deadlineSet = ctx.Deadline() }
	h := server.NewHandler(ctl, server.WithRequestTimeout(time.Minute))

	doRequest(h, http.MethodPost, "/generate", "")

	if !deadlineSet {
		t.Error("generate context should carry the configured deadline")
	}
}

func TestGenerate_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		out  pipeline.Outcome
		want int
	}{
		{"busy", pipeline.Outcome{Err: pipeline.ErrBusy}, http.StatusConflict},
		{"validation", pipeline.Outcome{Err: tts.ErrValidation, Kind: tts.KindValidation}, http.StatusBadRequest},
		{"service", pipeline.Outcome{Err: tts.ErrService, Kind: tts.KindService}, http.StatusBadGateway},
		{"missing audio", pipeline.Outcome{Err: tts.ErrMissingAudio, Kind: tts.KindMissingAudio}, http.StatusBadGateway},
		{"download", pipeline.Outcome{Err: tts.ErrDownload, Kind: tts.KindDownload}, http.StatusBadGateway},
		{"filesystem", pipeline.Outcome{Err: tts.ErrFileSystem, Kind: tts.KindFileSystem}, http.StatusInternalServerError},
		{"playback", pipeline.Outcome{Err: tts.ErrPlayback, Kind: tts.KindPlayback}, http.StatusInternalServerError},
		{"timeout", pipeline.Outcome{Err: context.DeadlineExceeded}, http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctl := newStubController(t)
			ctl.outcome = tt.out
			h := server.NewHandler(ctl)

			rec := doRequest(h, http.MethodPost, "/generate", "")
			if rec.Code != tt.want {
				t.Fatalf("want %d, got %d", tt.want, rec.Code)
			}

			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["error"] == "" {
				t.Error("want error field in body")
			}
		})
	}
}

// ---------------------------------------------------------------------------
// GET /audio
// ---------------------------------------------------------------------------

func TestAudio_NotFoundBeforeGeneration(t *testing.T) {
	h := server.NewHandler(newStubController(t))

	rec := doRequest(h, http.MethodGet, "/audio", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", rec.Code)
	}
}

func TestAudio_ServesPersistedFile(t *testing.T) {
	ctl := newStubController(t)
	if err := os.WriteFile(ctl.path, []byte("ID3-audio"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	h := server.NewHandler(ctl)

	rec := doRequest(h, http.MethodGet, "/audio", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "audio/mpeg" {
		t.Errorf("Content-Type = %q; want audio/mpeg", ct)
	}
	if rec.Body.String() != "ID3-audio" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

// ---------------------------------------------------------------------------
// GET /metrics
// ---------------------------------------------------------------------------

func TestMetrics_MountedWhenConfigured(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})

	without := server.NewHandler(newStubController(t))
	if rec := doRequest(without, http.MethodGet, "/metrics", ""); rec.Code != http.StatusNotFound {
		t.Errorf("without handler: want 404, got %d", rec.Code)
	}

	with := server.NewHandler(newStubController(t), server.WithMetricsHandler(metrics))
	rec := doRequest(with, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "# metrics" {
		t.Errorf("with handler: got %d %q", rec.Code, rec.Body.String())
	}
}

// ---------------------------------------------------------------------------
// last generation in GET /state
// ---------------------------------------------------------------------------

func TestState_ReportsLastGeneration(t *testing.T) {
	last := &server.LastGeneration{}
	h := server.NewHandler(newStubController(t), server.WithLastGeneration(last))

	var body map[string]any
	rec := doRequest(h, http.MethodGet, "/state", "")
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := body["last_generation"]; ok {
		t.Fatal("last_generation should be absent before any generation")
	}

	last.Record(pipeline.Outcome{
		ID:   "gen-1",
		Err:  &tts.Error{Kind: tts.KindDownload, Op: "fetch audio"},
		Kind: tts.KindDownload,
	})

	rec = doRequest(h, http.MethodGet, "/state", "")
	var st struct {
		Last struct {
			ID   string `json:"id"`
			OK   bool   `json:"ok"`
			Kind string `json:"kind"`
		} `json:"last_generation"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Last.ID != "gen-1" || st.Last.OK || st.Last.Kind != "download" {
		t.Errorf("last_generation = %+v", st.Last)
	}
}
