package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/camt-dii/gatekeeper/internal/gatekeeper/audit"
	"github.com/camt-dii/gatekeeper/internal/gatekeeper/card"
	"github.com/camt-dii/gatekeeper/internal/gatekeeper/store"
)

var ErrUnknownCard = errors.New("unknown card")

// CardManager owns the card lifecycle: creation through the factories,
// permission replacement, revocation, and facade-id lookup. Every mutation
// is audited.
type CardManager struct {
	store    store.CardStore
	audit    audit.Logger
	standard *card.Factory
	secure   *card.Factory
}

func NewCardManager(st store.CardStore, log audit.Logger) *CardManager {
	return &CardManager{
		store:    st,
		audit:    log,
		standard: card.NewStandardFactory(log),
		secure:   card.NewSecureFactory(log),
	}
}

// Create mints and persists a new card. The factory logs the CARD_CREATION
// event; callers receive the card and should only ever hand out its facade
// ids.
func (m *CardManager) Create(ctx context.Context, ident card.Identifier, spec card.PermissionSpec, secure bool) (*card.AccessCard, error) {
	perm, err := spec.Permission()
	if err != nil {
		return nil, err
	}

	factory := m.standard
	if secure {
		factory = m.secure
	}

	c, err := factory.CreateCard(ident, perm)
	if err != nil {
		return nil, err
	}

	if err := m.store.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("save card: %w", err)
	}
	return c, nil
}

// ModifyPermissions replaces the card's permission by building a
// replacement card with the same identity and state — permissions are
// shared and never mutated in place.
func (m *CardManager) ModifyPermissions(ctx context.Context, facadeID string, spec card.PermissionSpec, actor string) (*card.AccessCard, error) {
	c, err := m.store.FindByFacadeID(ctx, facadeID)
	if err != nil {
		return nil, fmt.Errorf("find card: %w", err)
	}
	if c == nil {
		return nil, ErrUnknownCard
	}

	perm, err := spec.Permission()
	if err != nil {
		return nil, err
	}

	repl := c.WithPermission(perm)
	if err := m.store.Update(ctx, repl); err != nil {
		return nil, fmt.Errorf("update card: %w", err)
	}

	m.audit.Append(audit.NewCardModification(
		c.RealID(), actorOrSystem(actor), "permissions replaced", time.Now().UTC(),
	))

	return repl, nil
}

// Revoke deactivates the card and logs a CARD_REVOCATION event.
func (m *CardManager) Revoke(ctx context.Context, facadeID, actor string) error {
	c, err := m.store.FindByFacadeID(ctx, facadeID)
	if err != nil {
		return fmt.Errorf("find card: %w", err)
	}
	if c == nil {
		return ErrUnknownCard
	}

	c.SetActive(false)
	if err := m.store.Update(ctx, c); err != nil {
		return fmt.Errorf("update card: %w", err)
	}

	m.audit.Append(audit.NewCardRevocation(c.RealID(), actorOrSystem(actor), time.Now().UTC()))
	return nil
}

// FindByFacadeID resolves a facade id to its card, nil on miss.
func (m *CardManager) FindByFacadeID(ctx context.Context, facadeID string) (*card.AccessCard, error) {
	return m.store.FindByFacadeID(ctx, facadeID)
}

func actorOrSystem(actor string) string {
	if actor == "" {
		return "SYSTEM"
	}
	return actor
}
