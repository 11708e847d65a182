package card_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/camt-dii/gatekeeper/internal/gatekeeper/audit"
	"github.com/camt-dii/gatekeeper/internal/gatekeeper/card"
)

func testIdentifier() card.Identifier {
	return card.Identifier{
		SerialNumber: "0042",
		IssuerID:     "ACME",
		IssueDate:    time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestStandardFactory_CreateCard(t *testing.T) {
	trail := audit.NewTrail(nil)
	defer trail.Close()
	f := card.NewStandardFactory(trail)

	c, err := f.CreateCard(testIdentifier(), card.NewSimplePermission(nil, nil))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if c.RealID() != "ACM-0042-20260601" {
		t.Errorf("real id = %q", c.RealID())
	}
	if got := c.PrimaryFacadeID(); got != card.DeriveFacadeID(c.RealID()) {
		t.Errorf("facade id %q is not derived from the real id", got)
	}

	history := trail.History(c.RealID())
	if len(history) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(history))
	}
	rec := history[0]
	if rec.Event != audit.EventCardCreation {
		t.Errorf("event = %q", rec.Event)
	}
	if rec.ActorID != "SYSTEM" {
		t.Errorf("actor = %q", rec.ActorID)
	}
	if !rec.Timestamp.Equal(testIdentifier().IssueDate) {
		t.Errorf("creation logged at %v, want the issue date", rec.Timestamp)
	}
}

func TestSecureFactory_ObfuscatesIdentifiers(t *testing.T) {
	trail := audit.NewTrail(nil)
	defer trail.Close()

	std, err := card.NewStandardFactory(trail).CreateCard(testIdentifier(), card.NewSimplePermission(nil, nil))
	if err != nil {
		t.Fatalf("standard create: %v", err)
	}
	sec, err := card.NewSecureFactory(trail).CreateCard(testIdentifier(), card.NewSimplePermission(nil, nil))
	if err != nil {
		t.Fatalf("secure create: %v", err)
	}

	if !strings.HasPrefix(sec.RealID(), std.RealID()+"-") {
		t.Errorf("secure real id %q does not extend the standard one %q", sec.RealID(), std.RealID())
	}
	if len(sec.RealID()) <= len(std.RealID()) {
		t.Error("secure real id is not longer")
	}
	if len(sec.PrimaryFacadeID()) <= len(std.PrimaryFacadeID()) {
		t.Error("secure facade id is not longer")
	}

	history := trail.History(sec.RealID())
	if len(history) != 1 {
		t.Fatalf("expected 1 audit record for the secure card, got %d", len(history))
	}
	if history[0].ActorID != "SYSTEM-SECURE" {
		t.Errorf("secure actor = %q", history[0].ActorID)
	}
}

func TestCreateCard_RejectsBlankIdentifier(t *testing.T) {
	trail := audit.NewTrail(nil)
	defer trail.Close()
	f := card.NewStandardFactory(trail)

	cases := []card.Identifier{
		{SerialNumber: "", IssuerID: "ACME"},
		{SerialNumber: "0042", IssuerID: "  "},
	}
	for _, ident := range cases {
		if _, err := f.CreateCard(ident, card.NewSimplePermission(nil, nil)); !errors.Is(err, card.ErrInvalidIdentifier) {
			t.Errorf("identifier %+v: expected ErrInvalidIdentifier, got %v", ident, err)
		}
	}
}

func TestCreateCard_ShortIssuerKeptWhole(t *testing.T) {
	trail := audit.NewTrail(nil)
	defer trail.Close()

	c, err := card.NewStandardFactory(trail).CreateCard(card.Identifier{
		SerialNumber: "7",
		IssuerID:     "ab",
		IssueDate:    time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	}, card.NewSimplePermission(nil, nil))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.RealID() != "AB-7-20260601" {
		t.Errorf("real id = %q", c.RealID())
	}
}
