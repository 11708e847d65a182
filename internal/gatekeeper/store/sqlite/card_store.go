package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	dbpkg "github.com/camt-dii/gatekeeper/internal/db"
	"github.com/camt-dii/gatekeeper/internal/gatekeeper/card"
)

// CardStore persists cards in SQLite. Writes serialize through the
// single-writer worker; reads go straight to the connection.
type CardStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewCardStore(db *sql.DB, writer *dbpkg.Worker) *CardStore {
	return &CardStore{db: db, writer: writer}
}

func (s *CardStore) Save(ctx context.Context, c *card.AccessCard) error {
	permJSON, err := marshalPermission(c.Permission())
	if err != nil {
		return err
	}

	createdMs := c.CreatedAt().UTC().UnixMilli()
	lastUsedMs := c.LastUsed().UTC().UnixMilli()
	active := 0
	if c.Active() {
		active = 1
	}
	facades := c.FacadeIDs()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO cards(card_id, permission_json, active, created_at_ms, last_used_ms, updated_at_ms)
VALUES (?, ?, ?, ?, ?, ?);
`, c.RealID(), permJSON, active, createdMs, lastUsedMs, createdMs); err != nil {
			return fmt.Errorf("Save insert card: %w", err)
		}

		for i, facade := range facades {
			if _, err := tx.ExecContext(ctx, `
INSERT INTO card_facades(facade_id, card_id, position) VALUES (?, ?, ?);
`, facade, c.RealID(), i); err != nil {
				return fmt.Errorf("Save insert facade: %w", err)
			}
		}
		return nil
	})
}

func (s *CardStore) Update(ctx context.Context, c *card.AccessCard) error {
	permJSON, err := marshalPermission(c.Permission())
	if err != nil {
		return err
	}

	lastUsedMs := c.LastUsed().UTC().UnixMilli()
	nowMs := time.Now().UTC().UnixMilli()
	active := 0
	if c.Active() {
		active = 1
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
UPDATE cards
SET permission_json = ?,
    active          = ?,
    last_used_ms    = ?,
    updated_at_ms   = ?
WHERE card_id = ?;
`, permJSON, active, lastUsedMs, nowMs, c.RealID()); err != nil {
			return fmt.Errorf("Update card: %w", err)
		}
		return nil
	})
}

func (s *CardStore) Delete(ctx context.Context, cardID string) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		// card_facades rows go with the card via ON DELETE CASCADE.
		if _, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE card_id = ?;`, cardID); err != nil {
			return fmt.Errorf("Delete card: %w", err)
		}
		return nil
	})
}

func (s *CardStore) FindByCardID(ctx context.Context, cardID string) (*card.AccessCard, error) {
	return s.loadCard(ctx, `
SELECT card_id, permission_json, active, created_at_ms, last_used_ms
FROM cards
WHERE card_id = ?;
`, cardID)
}

func (s *CardStore) FindByFacadeID(ctx context.Context, facadeID string) (*card.AccessCard, error) {
	return s.loadCard(ctx, `
SELECT c.card_id, c.permission_json, c.active, c.created_at_ms, c.last_used_ms
FROM cards c
JOIN card_facades f ON f.card_id = c.card_id
WHERE f.facade_id = ?;
`, facadeID)
}

func (s *CardStore) loadCard(ctx context.Context, query, arg string) (*card.AccessCard, error) {
	var (
		cardID     string
		permJSON   string
		active     int
		createdMs  int64
		lastUsedMs int64
	)

	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&cardID, &permJSON, &active, &createdMs, &lastUsedMs,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load card: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT facade_id FROM card_facades WHERE card_id = ? ORDER BY position;
`, cardID)
	if err != nil {
		return nil, fmt.Errorf("load facades: %w", err)
	}
	defer rows.Close()

	var facades []string
	for rows.Next() {
		var facade string
		if err := rows.Scan(&facade); err != nil {
			return nil, fmt.Errorf("scan facade: %w", err)
		}
		facades = append(facades, facade)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate facades: %w", err)
	}

	perm, err := unmarshalPermission(permJSON)
	if err != nil {
		return nil, err
	}

	return card.Restore(
		cardID, facades, perm, active == 1,
		time.UnixMilli(createdMs).UTC(),
		time.UnixMilli(lastUsedMs).UTC(),
	), nil
}

func marshalPermission(p card.Permission) (string, error) {
	spec, err := card.SpecOf(p)
	if err != nil {
		return "", fmt.Errorf("marshal permission: %w", err)
	}
	b, err := json.Marshal(spec)
	if err != nil {
		return "", fmt.Errorf("marshal permission: %w", err)
	}
	return string(b), nil
}

func unmarshalPermission(raw string) (card.Permission, error) {
	var spec card.PermissionSpec
	if err := json.Unmarshal([]byte(raw), &spec); err != nil {
		return nil, fmt.Errorf("unmarshal permission: %w", err)
	}
	perm, err := spec.Permission()
	if err != nil {
		return nil, fmt.Errorf("unmarshal permission: %w", err)
	}
	return perm, nil
}
