package server

import (
	"sync"
	"time"

	"github.com/example/smartvoice/internal/pipeline"
)

// LastGeneration keeps the most recent finished generate action so that
// GET /state can report it to clients that did not trigger it.
// Record has the pipeline.FinishedFunc signature.
type LastGeneration struct {
	mu  sync.Mutex
	out pipeline.Outcome
	at  time.Time
	set bool
}

// Record stores o as the latest outcome.
func (l *LastGeneration) Record(o pipeline.Outcome) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = o
	l.at = time.Now()
	l.set = true
}

func (l *LastGeneration) summary() *generationSummary {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.set {
		return nil
	}
	s := &generationSummary{
		ID:         l.out.ID,
		OK:         l.out.Err == nil,
		DurationMS: l.out.Duration.Milliseconds(),
		FinishedAt: l.at.UTC().Format(time.RFC3339),
	}
	if l.out.Err != nil {
		s.Kind = l.out.Kind.String()
		s.Error = l.out.Err.Error()
	} else {
		s.Bytes = l.out.Bytes
	}
	return s
}

type generationSummary struct {
	ID         string `json:"id"`
	OK         bool   `json:"ok"`
	Kind       string `json:"kind,omitempty"`
	Error      string `json:"error,omitempty"`
	Bytes      int64  `json:"bytes,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	FinishedAt string `json:"finished_at"`
}
