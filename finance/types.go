/*
Package finance computes credit/debit/balance roll-ups over the
financial transaction log.

PURPOSE:
  The finance log is a second event stream, independent from the loyalty
  ledger but with the same shape: immutable-ish rows, derived aggregates.
  Aggregates are always recomputed - edits to a row can never drift a
  stored total because no total is stored.

SEE ALSO:
  - aggregator.go: Two-tier summary computation
*/
package finance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// FINANCIAL TRANSACTION
// =============================================================================

// TxType discriminates the two sides of the financial log.
type TxType string

const (
	TypeCredit TxType = "credit"
	TypeDebit  TxType = "debit"
)

// Transaction is one row of the financial log.
type Transaction struct {
	ID              string
	Description     string
	Amount          decimal.Decimal
	Type            TxType
	TransactionDate time.Time // calendar-day granularity
	CategoryID      string    // empty = uncategorized
}

// Category labels financial transactions for the by-category breakdown.
type Category struct {
	ID   string
	Name string
}

// =============================================================================
// AGGREGATES - Derived, never stored
// =============================================================================

// Summary is the roll-up over a date window.
// Invariant: Balance == TotalCredit - TotalDebit.
type Summary struct {
	TotalCredit decimal.Decimal `json:"total_credit"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	Balance     decimal.Decimal `json:"balance"`
}

// CategorySummary is one group of the by-category breakdown. A nil
// CategoryID marks the uncategorized group.
type CategorySummary struct {
	CategoryID   *string         `json:"category_id"`
	CategoryName *string         `json:"category_name,omitempty"`
	TotalCredit  decimal.Decimal `json:"total_credit"`
	TotalDebit   decimal.Decimal `json:"total_debit"`
	Balance      decimal.Decimal `json:"balance"`
}

// =============================================================================
// STORE INTERFACES
// =============================================================================

// TransactionStore persists the financial log.
type TransactionStore interface {
	SaveTransaction(ctx context.Context, tx Transaction) error

	// ListTransactions returns rows filtered by category and/or type;
	// empty filter values mean "any".
	ListTransactions(ctx context.Context, categoryID string, txType TxType) ([]Transaction, error)

	// TransactionsInRange returns rows with TransactionDate in [from, to],
	// both bounds inclusive at day granularity.
	TransactionsInRange(ctx context.Context, from, to time.Time) ([]Transaction, error)

	UpdateTransaction(ctx context.Context, tx Transaction) (*Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
}

// CategoryStore persists the category labels.
type CategoryStore interface {
	SaveCategory(ctx context.Context, c Category) error

	// ListCategories returns all categories ordered by name.
	ListCategories(ctx context.Context) ([]Category, error)

	// CategoriesByID returns the categories matching the given ids in one
	// batch lookup. Missing ids are simply absent from the result.
	CategoriesByID(ctx context.Context, ids []string) (map[string]Category, error)
}

// SummaryProvider is the precomputed aggregation path: a database-side
// rollup the Aggregator prefers over raw computation. Implementations
// return an error when the rollup is unavailable; the by-category variant
// may also legitimately return zero rows, which the Aggregator treats as
// "fall back" rather than "empty answer".
type SummaryProvider interface {
	PrecomputedSummary(ctx context.Context, from, to time.Time) (*Summary, error)
	PrecomputedSummaryByCategory(ctx context.Context, from, to time.Time) ([]CategorySummary, error)
}
