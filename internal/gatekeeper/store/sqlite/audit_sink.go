package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	dbpkg "github.com/camt-dii/gatekeeper/internal/db"
	"github.com/camt-dii/gatekeeper/internal/gatekeeper/audit"
)

// AuditSink writes the durable copy of the audit trail to SQLite. Rows are
// append-only; failures surface to the trail's error logger, never to the
// decision path.
type AuditSink struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAuditSink(db *sql.DB, writer *dbpkg.Worker) *AuditSink {
	return &AuditSink{db: db, writer: writer}
}

func (s *AuditSink) Append(ctx context.Context, rec audit.Record) error {
	details, err := json.Marshal(rec.Details)
	if err != nil {
		return fmt.Errorf("Append marshal details: %w", err)
	}

	var location any
	if rec.Location != "" {
		location = rec.Location
	}
	var actor any
	if rec.ActorID != "" {
		actor = rec.ActorID
	}
	var outcome int
	if rec.Outcome {
		outcome = 1
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO audit_records(
  record_id, event_type, card_id, location, actor_id, outcome, occurred_at_ms, details_json
) VALUES (?, ?, ?, ?, ?, ?, ?, ?);
`,
			rec.ID.String(), string(rec.Event), rec.CardID, location, actor,
			outcome, rec.Timestamp.UTC().UnixMilli(), string(details),
		); err != nil {
			return fmt.Errorf("Append insert audit record: %w", err)
		}
		return nil
	})
}
