package memory

import (
	"context"
	"sync"

	"github.com/camt-dii/gatekeeper/internal/gatekeeper/audit"
)

// AuditSink is an in-memory durable-sink stand-in for tests.
type AuditSink struct {
	mu      sync.Mutex
	records []audit.Record
}

func NewAuditSink() *AuditSink {
	return &AuditSink{}
}

func (s *AuditSink) Append(_ context.Context, rec audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// Records returns a copy of everything appended. Test-only helper.
func (s *AuditSink) Records() []audit.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]audit.Record, len(s.records))
	copy(out, s.records)
	return out
}
