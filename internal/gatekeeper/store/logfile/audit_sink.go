// Package logfile provides the line-oriented durable audit sink: one
// formatted record per line, append-only.
package logfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/camt-dii/gatekeeper/internal/gatekeeper/audit"
)

type Sink struct {
	mu sync.Mutex
	f  *os.File
}

// New opens (or creates) the log file for appending.
func New(path string) (*Sink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir audit log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &Sink{f: f}, nil
}

func (s *Sink) Append(_ context.Context, rec audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.f.WriteString(rec.Line() + "\n"); err != nil {
		return fmt.Errorf("append audit line: %w", err)
	}
	return nil
}

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}
