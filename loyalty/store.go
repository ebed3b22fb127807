/*
store.go - Persistence interfaces for the loyalty core

PURPOSE:
  Defines the interface between the loyalty logic and the database.
  The EntryStore preserves append-only semantics for the ledger while
  clients and rewards get ordinary CRUD.

APPEND-ONLY CONTRACT:
  EntryStore exposes Append and reads only. No Update() or Delete()
  methods exist for ledger entries; corrections would be written as
  compensating entries.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite
  - store/memory: In-memory for testing

SEE ALSO:
  - balance.go: Folds entries loaded through EntryStore
  - service.go: Appends entries through EntryStore
*/
package loyalty

import (
	"context"
	"time"
)

// =============================================================================
// ENTRY STORE - Append-only ledger persistence
// =============================================================================

// EntryStore handles persistence of ledger entries.
// IMPORTANT: the ledger is APPEND-ONLY. No Update, No Delete. Ever.
type EntryStore interface {
	// AppendEntry persists one entry. This is the ONLY write operation.
	AppendEntry(ctx context.Context, e LedgerEntry) error

	// EntriesByClient returns all entries for a client, newest first.
	// An unknown client yields an empty slice, not an error.
	EntriesByClient(ctx context.Context, clientID string) ([]LedgerEntry, error)

	// LastEntryAt returns the CreatedAt of a client's most recent entry.
	// ok is false when the client has no entries at all.
	LastEntryAt(ctx context.Context, clientID string) (at time.Time, ok bool, err error)
}

// =============================================================================
// CLIENT STORE
// =============================================================================

// ClientStore handles persistence of the client registry.
type ClientStore interface {
	// GetClient returns nil (no error) when the id has no matching record.
	GetClient(ctx context.Context, id string) (*Client, error)
	ListClients(ctx context.Context) ([]Client, error)
	SaveClient(ctx context.Context, c Client) error
	UpdateClient(ctx context.Context, c Client) error
	DeleteClient(ctx context.Context, id string) error
}

// =============================================================================
// REWARD STORE
// =============================================================================

// RewardStore handles persistence of the reward catalog.
type RewardStore interface {
	// GetReward returns nil (no error) when the id has no matching record.
	GetReward(ctx context.Context, id string) (*Reward, error)

	// ListRewards returns the catalog, newest first.
	ListRewards(ctx context.Context) ([]Reward, error)
	SaveReward(ctx context.Context, rw Reward) error

	// UpdateReward applies a partial patch. Returns the updated reward,
	// or nil when the id has no matching record.
	UpdateReward(ctx context.Context, id string, patch RewardPatch) (*Reward, error)
	DeleteReward(ctx context.Context, id string) error
}
