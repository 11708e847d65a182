package audit

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventType classifies an audit record.
type EventType string

const (
	EventAccessAttempt    EventType = "ACCESS_ATTEMPT"
	EventCardCreation     EventType = "CARD_CREATION"
	EventCardModification EventType = "CARD_MODIFICATION"
	EventCardRevocation   EventType = "CARD_REVOCATION"
)

// Record is one entry in the audit trail. Records are created once per event
// and are immutable after they reach the trail, except that Details may
// receive additional key/value pairs on the way in (decorators do this).
// Records are never deleted.
type Record struct {
	ID        uuid.UUID
	Event     EventType
	CardID    string
	Location  string // empty when not applicable (card lifecycle events)
	ActorID   string // empty for access attempts and system events
	Outcome   bool
	Timestamp time.Time
	Details   map[string]string
}

func newRecord(ev EventType, cardID, location, actor string, outcome bool, at time.Time) Record {
	return Record{
		ID:        uuid.New(),
		Event:     ev,
		CardID:    cardID,
		Location:  location,
		ActorID:   actor,
		Outcome:   outcome,
		Timestamp: at,
		Details:   make(map[string]string),
	}
}

// NewAccessAttempt records one access decision, granted or denied.
func NewAccessAttempt(cardID, location string, granted bool, at time.Time) Record {
	return newRecord(EventAccessAttempt, cardID, location, "", granted, at)
}

// NewCardCreation records a card being issued. Creation is only logged when
// it happens, so the outcome is always success.
func NewCardCreation(cardID, createdBy string, at time.Time) Record {
	return newRecord(EventCardCreation, cardID, "", createdBy, true, at)
}

// NewCardModification records a permission change on a card.
func NewCardModification(cardID, modifiedBy, change string, at time.Time) Record {
	rec := newRecord(EventCardModification, cardID, "", modifiedBy, true, at)
	rec.Details["modification"] = change
	return rec
}

// NewCardRevocation records a card being revoked.
func NewCardRevocation(cardID, revokedBy string, at time.Time) Record {
	return newRecord(EventCardRevocation, cardID, "", revokedBy, true, at)
}

// WithDetail returns a copy of the record with one extra detail entry.
func (r Record) WithDetail(key, value string) Record {
	out := r.Clone()
	out.Details[key] = value
	return out
}

// Clone deep-copies the record so callers cannot mutate a stored one
// through the shared details map.
func (r Record) Clone() Record {
	out := r
	out.Details = make(map[string]string, len(r.Details))
	for k, v := range r.Details {
		out.Details[k] = v
	}
	return out
}

const lineTimeLayout = "2006-01-02 15:04:05"

// Line renders the record in the durable log format, one record per line:
//
//	<timestamp> | <event> | Card: <id> | [Location: <loc> |] [User: <actor> |] Outcome: SUCCESS|FAILURE [| k: v]...
//
// Detail keys are sorted so the rendering is deterministic.
func (r Record) Line() string {
	var sb strings.Builder
	sb.WriteString(r.Timestamp.Format(lineTimeLayout))
	sb.WriteString(" | ")
	sb.WriteString(string(r.Event))
	sb.WriteString(" | Card: ")
	sb.WriteString(r.CardID)
	sb.WriteString(" | ")

	if r.Location != "" {
		sb.WriteString("Location: ")
		sb.WriteString(r.Location)
		sb.WriteString(" | ")
	}
	if r.ActorID != "" {
		sb.WriteString("User: ")
		sb.WriteString(r.ActorID)
		sb.WriteString(" | ")
	}

	if r.Outcome {
		sb.WriteString("Outcome: SUCCESS")
	} else {
		sb.WriteString("Outcome: FAILURE")
	}

	keys := make([]string, 0, len(r.Details))
	for k := range r.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, " | %s: %s", k, r.Details[k])
	}

	return sb.String()
}
