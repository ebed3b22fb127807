/*
balance.go - Derived balance calculation

PURPOSE:
  Computes a client's point balance by folding their ledger entries.
  There is no stored "points" column to drift out of sync: the ledger
  is the source of truth and this fold is the only way to read it.

WHY DERIVED?
  - No balance drift from partial writes
  - Auditable: "why is the balance X?" is answered by the entry history
  - Deterministic: replaying the same entries always yields the same total

SEE ALSO:
  - service.go: Recomputes via Calculator before every redemption
  - store.go: EntryStore supplies the entries
*/
package loyalty

import "context"

// Calculator derives point balances from the ledger.
type Calculator struct {
	Entries EntryStore
}

func NewCalculator(entries EntryStore) *Calculator {
	return &Calculator{Entries: entries}
}

// Balance folds all of a client's entries into a signed point total:
// +Points for earns, -Points for redeems.
//
// The caller is responsible for having verified the client exists; an
// unknown id simply has no entries and yields 0. A store failure is
// propagated, never swallowed into a zero balance.
func (c *Calculator) Balance(ctx context.Context, clientID string) (int, error) {
	entries, err := c.Entries.EntriesByClient(ctx, clientID)
	if err != nil {
		return 0, err
	}
	return Fold(entries), nil
}

// Fold reduces a slice of entries to a signed point total. Pure function;
// order of entries does not affect the result.
func Fold(entries []LedgerEntry) int {
	total := 0
	for _, e := range entries {
		total += e.Delta()
	}
	return total
}
