package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/camt-dii/gatekeeper/internal/gatekeeper/audit"
	"github.com/camt-dii/gatekeeper/internal/gatekeeper/store/sqlite"
)

func TestAuditSink_AppendPersistsRecord(t *testing.T) {
	conn := openTestDB(t)
	sink := sqlite.NewAuditSink(conn, newTestWriter(t, conn))
	ctx := context.Background()

	at := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	rec := audit.NewAccessAttempt("card-a", "Floor: HIGH", true, at).
		WithDetail("reason", "granted")

	if err := sink.Append(ctx, rec); err != nil {
		t.Fatalf("append: %v", err)
	}

	var (
		event   string
		cardID  string
		loc     string
		outcome int
		ms      int64
		details string
	)
	err := conn.QueryRowContext(ctx, `
SELECT event_type, card_id, location, outcome, occurred_at_ms, details_json
FROM audit_records WHERE record_id = ?;
`, rec.ID.String()).Scan(&event, &cardID, &loc, &outcome, &ms, &details)
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	if event != string(audit.EventAccessAttempt) || cardID != "card-a" || loc != "Floor: HIGH" {
		t.Errorf("row = %s/%s/%s", event, cardID, loc)
	}
	if outcome != 1 {
		t.Errorf("outcome = %d", outcome)
	}
	if got := time.UnixMilli(ms).UTC(); !got.Equal(at) {
		t.Errorf("occurred_at = %v, want %v", got, at)
	}
	if details != `{"reason":"granted"}` {
		t.Errorf("details = %s", details)
	}
}

func TestAuditSink_NullableColumns(t *testing.T) {
	conn := openTestDB(t)
	sink := sqlite.NewAuditSink(conn, newTestWriter(t, conn))
	ctx := context.Background()

	// Lifecycle events have no location; access attempts have no actor.
	rec := audit.NewCardRevocation("card-a", "admin", time.Now().UTC())
	if err := sink.Append(ctx, rec); err != nil {
		t.Fatalf("append: %v", err)
	}

	var locNull, actorNull bool
	err := conn.QueryRowContext(ctx, `
SELECT location IS NULL, actor_id IS NULL FROM audit_records WHERE record_id = ?;
`, rec.ID.String()).Scan(&locNull, &actorNull)
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	if !locNull {
		t.Error("empty location stored as non-NULL")
	}
	if actorNull {
		t.Error("actor lost")
	}
}

func TestAuditSink_WorksAsTrailSink(t *testing.T) {
	conn := openTestDB(t)
	sink := sqlite.NewAuditSink(conn, newTestWriter(t, conn))

	trail := audit.NewTrail(nil, sink)
	trail.Append(audit.NewAccessAttempt("card-a", "Floor: LOW", false, time.Now().UTC()))
	trail.Close()

	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM audit_records;`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("persisted %d records, want 1", n)
	}
}
