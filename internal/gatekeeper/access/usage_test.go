package access_test

import (
	"sync"
	"testing"
	"time"

	"github.com/camt-dii/gatekeeper/internal/gatekeeper/access"
)

func TestUsageLog_ReserveUpToMax(t *testing.T) {
	l := access.NewUsageLog()
	day := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if !l.Reserve("card-a", day.Add(time.Duration(i)*time.Minute), 3) {
			t.Fatalf("reservation %d denied below max", i+1)
		}
	}
	if l.Reserve("card-a", day, 3) {
		t.Error("reservation granted at max")
	}
	if l.CountOn("card-a", day) != 3 {
		t.Errorf("count = %d", l.CountOn("card-a", day))
	}

	// Other cards and other days are independent.
	if !l.Reserve("card-b", day, 3) {
		t.Error("other card blocked")
	}
	if !l.Reserve("card-a", day.AddDate(0, 0, 1), 3) {
		t.Error("next day blocked")
	}
}

func TestUsageLog_ReserveConcurrent(t *testing.T) {
	l := access.NewUsageLog()
	day := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	const attempts = 50
	const max = 5

	granted := make(chan bool, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			granted <- l.Reserve("card-a", day, max)
		}()
	}
	wg.Wait()
	close(granted)

	got := 0
	for ok := range granted {
		if ok {
			got++
		}
	}
	if got != max {
		t.Errorf("concurrent reservations granted = %d, want %d", got, max)
	}
}

func TestUsageLog_CompactBefore(t *testing.T) {
	l := access.NewUsageLog()
	old := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	l.Reserve("card-a", old, 10)
	l.Reserve("card-a", old, 10)
	l.Reserve("card-a", recent, 10)

	removed := l.CompactBefore(time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC))
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if l.CountOn("card-a", old) != 0 {
		t.Error("old entries survived compaction")
	}
	if l.CountOn("card-a", recent) != 1 {
		t.Error("recent entries were dropped")
	}

	// Cutoff day itself is kept (strictly-before semantics).
	if l.CompactBefore(recent) != 0 {
		t.Error("compaction dropped the cutoff day")
	}
}
