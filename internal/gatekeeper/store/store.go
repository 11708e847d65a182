package store

import (
	"context"

	"github.com/camt-dii/gatekeeper/internal/gatekeeper/card"
)

// CardStore persists access cards. Lookups are synchronous and return
// (nil, nil) on miss — a missing card is an access-denied outcome for the
// decision path, not an error.
type CardStore interface {
	Save(ctx context.Context, c *card.AccessCard) error
	Update(ctx context.Context, c *card.AccessCard) error
	Delete(ctx context.Context, cardID string) error
	FindByCardID(ctx context.Context, cardID string) (*card.AccessCard, error)
	FindByFacadeID(ctx context.Context, facadeID string) (*card.AccessCard, error)
}
