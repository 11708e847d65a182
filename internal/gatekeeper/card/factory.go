package card

import (
	"errors"
	"strings"
	"time"

	"github.com/camt-dii/gatekeeper/internal/gatekeeper/audit"
)

var ErrInvalidIdentifier = errors.New("card identifier requires serial number and issuer id")

// Identifier carries the raw inputs a card is minted from.
type Identifier struct {
	SerialNumber string
	IssuerID     string
	IssueDate    time.Time
}

// Factory mints access cards. The real id is generated from the identifier,
// the facade id is derived from the real id, and every creation is audited.
//
// The secure variant is a post-processing step, not a separate type: when
// enabled, the keyed-digest obfuscation is applied to the real id and every
// facade id, yielding longer identifiers for the same input.
type Factory struct {
	audit  audit.Logger
	secure bool
	now    func() time.Time
}

// NewStandardFactory mints cards with plain derived facade ids.
func NewStandardFactory(log audit.Logger) *Factory {
	return &Factory{audit: log, now: time.Now}
}

// NewSecureFactory mints cards with obfuscated real and facade ids.
func NewSecureFactory(log audit.Logger) *Factory {
	return &Factory{audit: log, secure: true, now: time.Now}
}

// CreateCard mints a card for the identifier with the given permission and
// logs a CARD_CREATION event.
func (f *Factory) CreateCard(ident Identifier, perm Permission) (*AccessCard, error) {
	if strings.TrimSpace(ident.SerialNumber) == "" || strings.TrimSpace(ident.IssuerID) == "" {
		return nil, ErrInvalidIdentifier
	}
	if ident.IssueDate.IsZero() {
		ident.IssueDate = f.now().UTC()
	}

	realID := generateCardID(ident)
	if f.secure {
		realID = Obfuscate(realID)
	}

	facadeIDs := []string{DeriveFacadeID(realID)}
	actor := "SYSTEM"
	loggedAt := ident.IssueDate
	if f.secure {
		for i, id := range facadeIDs {
			facadeIDs[i] = Obfuscate(id)
		}
		actor = "SYSTEM-SECURE"
		loggedAt = f.now().UTC()
	}

	f.audit.Append(audit.NewCardCreation(realID, actor, loggedAt))

	return NewAccessCard(realID, facadeIDs, perm, f.now().UTC()), nil
}

// generateCardID builds the real id: first three letters of the issuer,
// uppercased, the serial number, and the issue date.
func generateCardID(ident Identifier) string {
	issuer := ident.IssuerID
	if len(issuer) > 3 {
		issuer = issuer[:3]
	}
	return strings.ToUpper(issuer) + "-" + ident.SerialNumber + "-" + ident.IssueDate.Format("20060102")
}
