package audit

import (
	"os"
	"strconv"
	"time"
)

// ContextDecorator wraps another Logger and enriches every appended record
// with environment metadata (never anything security-relevant) before
// forwarding it. The outcome and all original fields pass through untouched,
// and existing detail keys are never overwritten, so decorators compose: a
// decorator may wrap another decorator and each layer's details survive.
type ContextDecorator struct {
	next    Logger
	details map[string]string
}

// NewContextDecorator wraps next, stamping host and pid plus any extra
// entries onto forwarded records.
func NewContextDecorator(next Logger, extra map[string]string) *ContextDecorator {
	details := map[string]string{
		"pid": strconv.Itoa(os.Getpid()),
	}
	if host, err := os.Hostname(); err == nil {
		details["host"] = host
	}
	for k, v := range extra {
		details[k] = v
	}
	return &ContextDecorator{next: next, details: details}
}

func (d *ContextDecorator) Append(rec Record) {
	enriched := rec.Clone()
	for k, v := range d.details {
		if _, taken := enriched.Details[k]; !taken {
			enriched.Details[k] = v
		}
	}
	d.next.Append(enriched)
}

func (d *ContextDecorator) History(cardID string) []Record {
	return d.next.History(cardID)
}

func (d *ContextDecorator) LocationHistory(location string, start, end time.Time) []Record {
	return d.next.LocationHistory(location, start, end)
}
