package access

import (
	"context"
	"log"
	"sync"
	"time"
)

const usageDayLayout = "2006-01-02"

type usageKey struct {
	cardID string
	day    string
}

// UsageLog tracks successful high-tier validations per card per calendar
// day, one timestamp per entry. It grows without bound unless a
// UsageCompactor periodically drops old days.
type UsageLog struct {
	mu      sync.Mutex
	entries map[usageKey][]time.Time
}

func NewUsageLog() *UsageLog {
	return &UsageLog{entries: make(map[usageKey][]time.Time)}
}

// Reserve records a usage entry for the card's calendar day if the day's
// count is still below max, and reports whether it did. Count and record
// happen under one lock so the quota cannot be oversubscribed by concurrent
// callers.
func (l *UsageLog) Reserve(cardID string, at time.Time, max int) bool {
	key := usageKey{cardID: cardID, day: at.Format(usageDayLayout)}

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries[key]) >= max {
		return false
	}
	l.entries[key] = append(l.entries[key], at)
	return true
}

// CountOn returns the recorded usage count for the card on day's calendar
// date.
func (l *UsageLog) CountOn(cardID string, day time.Time) int {
	key := usageKey{cardID: cardID, day: day.Format(usageDayLayout)}

	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries[key])
}

// CompactBefore drops every entry from calendar days strictly before
// cutoff's date and returns how many timestamps were removed.
func (l *UsageLog) CompactBefore(cutoff time.Time) int {
	cutoffDay := cutoff.Format(usageDayLayout)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, times := range l.entries {
		if key.day < cutoffDay {
			removed += len(times)
			delete(l.entries, key)
		}
	}
	return removed
}

// UsageCompactor periodically compacts the quota log so it stays bounded.
// It runs as a background goroutine and is safe to stop via its context or
// the Stop method.
//
// A retention of 0 disables compaction entirely.
type UsageCompactor struct {
	usage     *UsageLog
	retention time.Duration
	interval  time.Duration
	logger    *log.Logger
	cancel    context.CancelFunc
	done      chan struct{}
}

// CompactorConfig holds the parameters for NewUsageCompactor.
type CompactorConfig struct {
	// RetentionDays is how many days of quota history to keep.
	// 0 means keep everything (compactor will not start).
	RetentionDays int

	// IntervalHours is how often the compactor runs. Defaults to 6.
	IntervalHours int
}

// NewUsageCompactor creates a compactor but does not start it.
// Call Start to begin the background loop.
func NewUsageCompactor(usage *UsageLog, cfg CompactorConfig, logger *log.Logger) *UsageCompactor {
	interval := time.Duration(cfg.IntervalHours) * time.Hour
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	return &UsageCompactor{
		usage:     usage,
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		interval:  interval,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start begins the background loop. It compacts immediately on startup,
// then repeats on the configured interval. The loop exits when ctx is
// cancelled or Stop is called.
func (c *UsageCompactor) Start(ctx context.Context) {
	if c.retention <= 0 {
		c.logger.Printf("usage compactor disabled (retention=0)")
		close(c.done)
		return
	}

	ctx, c.cancel = context.WithCancel(ctx)

	go c.loop(ctx)

	c.logger.Printf("usage compactor started (retention=%dd, interval=%dh)",
		int(c.retention.Hours()/24), int(c.interval.Hours()))
}

// Stop signals the compactor to exit and waits for it to finish.
func (c *UsageCompactor) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	<-c.done
}

func (c *UsageCompactor) loop(ctx context.Context) {
	defer close(c.done)

	c.compact()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.compact()
		}
	}
}

func (c *UsageCompactor) compact() {
	cutoff := time.Now().UTC().Add(-c.retention)
	if removed := c.usage.CompactBefore(cutoff); removed > 0 {
		c.logger.Printf("usage compact: dropped %d entries older than %s",
			removed, cutoff.Format(usageDayLayout))
	}
}
