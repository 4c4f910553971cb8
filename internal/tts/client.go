package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the hosted speech service endpoint.
const DefaultBaseURL = "https://api.murf.ai"

const generatePath = "/v1/speech/generate"

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 512

// Result is what the service returns for a successful generation. AudioURL is
// only guaranteed to be valid immediately after the call.
type Result struct {
	AudioURL           string
	AudioLengthSeconds float64
	Warning            string
}

// Synthesizer submits a request to a speech service.
type Synthesizer interface {
	Generate(ctx context.Context, req Request) (Result, error)
}

// Client is a Synthesizer backed by the Murf REST API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the service endpoint.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets a timeout on the underlying HTTP client. Zero keeps the
// client default (no timeout).
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d <= 0 {
			return
		}
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.log = l }
}

// NewClient returns a client authenticating with apiKey.
func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("api key is required")
	}
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{},
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type generateRequest struct {
	VoiceID     string  `json:"voiceId"`
	Style       string  `json:"style,omitempty"`
	Text        string  `json:"text"`
	Pitch       int     `json:"pitch"`
	SampleRate  float64 `json:"sampleRate"`
	Format      string  `json:"format"`
	ChannelType string  `json:"channelType"`
}

type generateResponse struct {
	AudioFile            string  `json:"audioFile"`
	AudioLengthInSeconds float64 `json:"audioLengthInSeconds"`
	Warning              string  `json:"warning"`
}

type apiError struct {
	ErrorMessage string `json:"errorMessage"`
	Message      string `json:"message"`
}

// Generate submits req and returns the location of the generated audio.
func (c *Client) Generate(ctx context.Context, req Request) (Result, error) {
	body, err := json.Marshal(generateRequest{
		VoiceID:     req.VoiceID,
		Style:       req.Mood,
		Text:        req.Text,
		Pitch:       req.Pitch,
		SampleRate:  req.SampleRate,
		Format:      string(req.Format),
		ChannelType: req.ChannelType,
	})
	if err != nil {
		return Result{}, newError(KindService, "encode request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, bytes.NewReader(body))
	if err != nil {
		return Result{}, newError(KindService, "build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("api-key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, newError(KindService, "request failed", err)
	}
	defer resp.Body.Close()

	c.log.DebugContext(ctx, "synthesis response",
		slog.Int("status", resp.StatusCode),
		slog.String("voice_id", req.VoiceID),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return Result{}, newError(KindService, fmt.Sprintf("unexpected status %s", resp.Status),
			errors.New(describeAPIError(b)))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, newError(KindService, "decode response", err)
	}
	if strings.TrimSpace(out.AudioFile) == "" {
		return Result{}, newError(KindMissingAudio, "response has no audioFile", nil)
	}

	if out.Warning != "" {
		c.log.WarnContext(ctx, "synthesis warning", slog.String("warning", out.Warning))
	}

	return Result{
		AudioURL:           out.AudioFile,
		AudioLengthSeconds: out.AudioLengthInSeconds,
		Warning:            out.Warning,
	}, nil
}

func describeAPIError(body []byte) string {
	var ae apiError
	if err := json.Unmarshal(body, &ae); err == nil {
		if ae.ErrorMessage != "" {
			return ae.ErrorMessage
		}
		if ae.Message != "" {
			return ae.Message
		}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return "empty response body"
	}
	return msg
}
