package audit

import (
	"context"
	"io"
	"log"
	"sync"
	"time"
)

// Logger is the audit contract consumed throughout the system. It is an
// explicitly constructed, injected dependency — there is no process-wide
// singleton. Implementations must treat appended records as immutable and
// keep them in insertion order.
type Logger interface {
	Append(rec Record)

	// History returns every record for the given card id, in insertion order.
	History(cardID string) []Record

	// LocationHistory returns the ACCESS_ATTEMPT records for a location whose
	// timestamps fall within [start, end], bounds inclusive, in insertion
	// order (not necessarily chronological if records arrived out of order).
	LocationHistory(location string, start, end time.Time) []Record
}

// Sink is a durable destination for audit records. Appends may be slow or
// fail; the trail never lets that stall or fail an access decision.
type Sink interface {
	Append(ctx context.Context, rec Record) error
}

// Trail is the base audit logger: a mutex-guarded, ordered in-memory log
// that additionally forwards each record to zero or more durable sinks
// through a buffered channel. Sink writes are fire-and-forget — failures are
// reported to the error logger and never surface to callers, and a full
// buffer drops the durable copy (with a local log line) rather than block.
type Trail struct {
	mu      sync.Mutex
	records []Record

	sinks  []Sink
	errlog *log.Logger
	pend   chan Record
	done   chan struct{}
}

// NewTrail creates a trail writing durable copies to the given sinks.
// errlog receives sink failures; pass nil to discard them (tests).
func NewTrail(errlog *log.Logger, sinks ...Sink) *Trail {
	if errlog == nil {
		errlog = log.New(io.Discard, "", 0)
	}
	t := &Trail{
		sinks:  sinks,
		errlog: errlog,
		pend:   make(chan Record, 256),
		done:   make(chan struct{}),
	}
	go t.flush()
	return t
}

// Append adds the record to the in-memory log and queues it for the sinks.
func (t *Trail) Append(rec Record) {
	stored := rec.Clone()

	t.mu.Lock()
	t.records = append(t.records, stored)
	t.mu.Unlock()

	if len(t.sinks) == 0 {
		return
	}

	select {
	case t.pend <- stored:
	default:
		t.errlog.Printf("audit sink backlog full, dropping durable copy of record %s", stored.ID)
	}
}

// Close drains the pending durable writes and stops the flush goroutine.
// The in-memory log remains queryable afterwards.
func (t *Trail) Close() {
	close(t.pend)
	<-t.done
}

func (t *Trail) flush() {
	defer close(t.done)
	for rec := range t.pend {
		for _, s := range t.sinks {
			if err := s.Append(context.Background(), rec); err != nil {
				t.errlog.Printf("audit sink append: %v", err)
			}
		}
	}
}

func (t *Trail) History(cardID string) []Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []Record
	for _, rec := range t.records {
		if rec.CardID == cardID {
			out = append(out, rec.Clone())
		}
	}
	return out
}

func (t *Trail) LocationHistory(location string, start, end time.Time) []Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []Record
	for _, rec := range t.records {
		if rec.Event != EventAccessAttempt {
			continue
		}
		if rec.Location != location {
			continue
		}
		if rec.Timestamp.Before(start) || rec.Timestamp.After(end) {
			continue
		}
		out = append(out, rec.Clone())
	}
	return out
}
