/*
Package loyalty implements the loyalty ledger core.

PURPOSE:
  This package contains the types and algorithms for the customer loyalty
  program: an append-only ledger of point-affecting events, a balance
  calculator that folds the ledger into a point total, and the redemption
  authority that enforces sufficiency before writing a debit.

KEY CONCEPTS IN THIS FILE (types.go):
  - LedgerEntry: An immutable record of one point-affecting event
  - Client: A registered customer, referenced (never owned) by entries
  - Reward: A catalog item redeemable for points

DESIGN PRINCIPLES:
  1. Immutability: Ledger entries are never updated or deleted
  2. Derived state: Balance is always computed by replay, never stored
  3. Precision: Monetary amounts use decimal.Decimal, points are integers
  4. Freshness: Redemption always recomputes balance, never trusts a cache

SEE ALSO:
  - balance.go: Balance calculation from entries
  - service.go: Earn/redeem operations
  - store.go: Persistence interfaces
*/
package loyalty

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LEDGER ENTRY - Atomic change to a client's point balance
// =============================================================================

// EntryKind discriminates the two point-affecting events.
// There are no other kinds: every balance change is an earn or a redeem.
type EntryKind string

const (
	KindEarn   EntryKind = "earn"   // Points granted for a purchase
	KindRedeem EntryKind = "redeem" // Points spent on a reward
)

// LedgerEntry is one immutable record in the loyalty ledger.
//
// INVARIANTS:
//   - Points is always non-negative; the sign comes from Kind.
//   - Once written, an entry is never updated or deleted.
//   - RewardID is set only on redeem entries and may reference a reward
//     that was since removed from the catalog (history outlives catalog).
type LedgerEntry struct {
	ID          string
	ClientID    string
	Kind        EntryKind
	Points      int
	Amount      *decimal.Decimal // purchase amount for earns, nil for redeems
	Description string
	RewardID    string // empty unless Kind == KindRedeem
	CreatedAt   time.Time
}

// Delta returns the signed effect of this entry on the balance.
func (e LedgerEntry) Delta() int {
	if e.Kind == KindRedeem {
		return -e.Points
	}
	return e.Points
}

// =============================================================================
// CLIENT - Registered customer
// =============================================================================

// Client is a registered customer. Clients are long-lived and referenced
// by ledger entries via ClientID; entry creation checks the reference but
// nothing is enforced retroactively.
type Client struct {
	ID         string
	Name       string
	Email      string
	Phone      string
	BirthDate  *time.Time
	EmailOptIn bool
	CreatedAt  time.Time
}

// =============================================================================
// REWARD - Redeemable catalog item
// =============================================================================

// Reward is a mutable catalog entry. Deleting a reward does not invalidate
// past redemptions.
type Reward struct {
	ID             string
	Name           string
	Description    string
	PointsRequired int
	Active         bool
	CreatedAt      time.Time
}

// RewardPatch carries a partial reward update. Nil fields are left unchanged.
type RewardPatch struct {
	Name           *string
	Description    *string
	PointsRequired *int
	Active         *bool
}
