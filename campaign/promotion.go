/*
promotion.go - Promotions catalog

PURPOSE:
  Stored marketing promotions. A promotion is catalog data only: it
  names an offer and an optional validity window. Dispatching a stored
  promotion to a segment reuses the Dispatcher; nothing about delivery
  lives here.

SEE ALSO:
  - dispatcher.go: Batched delivery to a resolved audience
*/
package campaign

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// PromotionType discriminates the promotion kinds (closed set).
type PromotionType string

const (
	PromotionGeneral     PromotionType = "general"
	PromotionBirthday    PromotionType = "birthday"
	PromotionPointsBased PromotionType = "points_based"
)

// ParsePromotionType validates a promotion type. Empty input defaults
// to general.
func ParsePromotionType(s string) (PromotionType, error) {
	switch PromotionType(s) {
	case "":
		return PromotionGeneral, nil
	case PromotionGeneral, PromotionBirthday, PromotionPointsBased:
		return PromotionType(s), nil
	default:
		return "", fmt.Errorf("unknown promotion type %q", s)
	}
}

// Promotion is a mutable catalog entry. StartDate/EndDate bound the
// validity window; nil means unbounded on that side.
type Promotion struct {
	ID          string
	Title       string
	Description string
	Type        PromotionType
	Active      bool
	StartDate   *time.Time
	EndDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PromotionPatch carries a partial update. Nil fields are left unchanged;
// the validity window can be moved but not cleared through a patch.
type PromotionPatch struct {
	Title       *string
	Description *string
	Type        *PromotionType
	Active      *bool
	StartDate   *time.Time
	EndDate     *time.Time
}

// PromotionStore persists the promotions catalog.
type PromotionStore interface {
	SavePromotion(ctx context.Context, p Promotion) error

	// GetPromotion returns nil (no error) when the id has no matching record.
	GetPromotion(ctx context.Context, id string) (*Promotion, error)

	// ListPromotions returns the catalog, newest first.
	ListPromotions(ctx context.Context) ([]Promotion, error)

	// UpdatePromotion applies a partial patch and bumps UpdatedAt.
	// Returns nil when the id has no matching record.
	UpdatePromotion(ctx context.Context, id string, patch PromotionPatch) (*Promotion, error)
	DeletePromotion(ctx context.Context, id string) error
}

// ErrPromotionNotFound is returned by deletes on a missing promotion.
var ErrPromotionNotFound = errors.New("promotion not found")
