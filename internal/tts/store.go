package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// DefaultChunkSize is the number of bytes copied per write while streaming a
// download to disk.
const DefaultChunkSize = 1024

// Artifact is the persisted output of one successful generation.
type Artifact struct {
	Path   string
	Bytes  int64
	Result Result
}

// Store downloads generated audio to a single fixed path. The path is owned
// by the store; callers must not run two SynthesizeAndStore calls at once.
type Store struct {
	path       string
	httpClient *http.Client
	chunkSize  int
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithDownloadClient sets the HTTP client used for audio downloads.
func WithDownloadClient(hc *http.Client) StoreOption {
	return func(s *Store) { s.httpClient = hc }
}

// WithChunkSize sets the streaming chunk size in bytes.
func WithChunkSize(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// NewStore returns a store writing to path, which is made absolute.
func NewStore(path string, opts ...StoreOption) (*Store, error) {
	if path == "" {
		return nil, errors.New("output path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve output path: %w", err)
	}
	s := &Store{
		path:       abs,
		httpClient: &http.Client{},
		chunkSize:  DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path is the absolute output path.
func (s *Store) Path() string { return s.path }

// SynthesizeAndStore submits req, downloads the resulting audio and writes it
// to the output path, replacing any previous file. No step is retried.
func (s *Store) SynthesizeAndStore(ctx context.Context, synth Synthesizer, req Request) (Artifact, error) {
	res, err := synth.Generate(ctx, req)
	if err != nil {
		if KindOf(err) == KindUnknown {
			err = newError(KindService, "generate", err)
		}
		return Artifact{}, err
	}
	if res.AudioURL == "" {
		return Artifact{}, newError(KindMissingAudio, "no audio url returned", nil)
	}

	n, err := s.download(ctx, res.AudioURL)
	if err != nil {
		return Artifact{}, err
	}

	return Artifact{Path: s.path, Bytes: n, Result: res}, nil
}

func (s *Store) download(ctx context.Context, url string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, newError(KindDownload, "build request", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, newError(KindDownload, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, newError(KindDownload, fmt.Sprintf("unexpected status %s", resp.Status), nil)
	}

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, newError(KindFileSystem, "remove previous output", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return 0, newError(KindFileSystem, "create output dir", err)
	}

	fh, err := os.Create(s.path)
	if err != nil {
		return 0, newError(KindFileSystem, "create output file", err)
	}

	var written int64
	buf := make([]byte, s.chunkSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			wn, writeErr := fh.Write(buf[:n])
			written += int64(wn)
			if writeErr != nil {
				_ = fh.Close()
				return written, newError(KindFileSystem, "write output file", writeErr)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			_ = fh.Close()
			return written, newError(KindDownload, "read body", readErr)
		}
	}

	if err := fh.Close(); err != nil {
		return written, newError(KindFileSystem, "close output file", err)
	}
	return written, nil
}
