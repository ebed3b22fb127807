/*
aggregator.go - Two-tier financial summary computation

PURPOSE:
  Computes {total_credit, total_debit, balance} over a date window.
  Prefers a precomputed aggregation (database-side rollup) and falls back
  to folding raw rows when that path is absent, fails, or - for the
  by-category variant - returns zero rows for a window that has data.

FALLBACK IS NOT ERROR-SWALLOWING:
  The fallback is specified behavior and is logged at Info with
  path=fallback so telemetry can tell it apart from a swallowed store
  failure. A raw-row scan that itself fails still propagates.

DATES:
  Inclusive range at calendar-day granularity. An inverted range is the
  caller's problem: the HTTP layer validates before calling in.

SEE ALSO:
  - types.go: SummaryProvider and store interfaces
*/
package finance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

// UncategorizedLabel is the sentinel name for the nil category group when
// name expansion is requested.
const UncategorizedLabel = "Uncategorized"

// Aggregator computes summaries with the two-tier strategy. Provider may
// be nil, in which case every call takes the fallback path.
type Aggregator struct {
	Provider SummaryProvider
	Store    TransactionStore
	Cats     CategoryStore
	Log      *logrus.Logger
}

func NewAggregator(provider SummaryProvider, store TransactionStore, cats CategoryStore, log *logrus.Logger) *Aggregator {
	if log == nil {
		log = logrus.New()
	}
	return &Aggregator{Provider: provider, Store: store, Cats: cats, Log: log}
}

// =============================================================================
// SUMMARY
// =============================================================================

// Summary returns the roll-up for [from, to]. A non-nil precomputed
// result is used verbatim; otherwise raw rows are folded.
func (a *Aggregator) Summary(ctx context.Context, from, to time.Time) (*Summary, error) {
	if a.Provider != nil {
		s, err := a.Provider.PrecomputedSummary(ctx, from, to)
		if err == nil && s != nil {
			return round(s), nil
		}
		a.logFallback("summary", err)
	}

	txs, err := a.Store.TransactionsInRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("summary fallback: scan transactions: %w", err)
	}
	s := foldSummary(txs)
	return round(&s), nil
}

// =============================================================================
// SUMMARY BY CATEGORY
// =============================================================================

// SummaryByCategory returns per-category roll-ups for [from, to].
// The precomputed path is trusted only when it returns at least one row;
// an empty result falls back to raw rows, because a valid-but-empty
// rollup is indistinguishable from a stale one.
func (a *Aggregator) SummaryByCategory(ctx context.Context, from, to time.Time, expandNames bool) ([]CategorySummary, error) {
	var groups []CategorySummary

	if a.Provider != nil {
		rows, err := a.Provider.PrecomputedSummaryByCategory(ctx, from, to)
		if err == nil && len(rows) > 0 {
			groups = rows
		} else {
			a.logFallback("summary_by_category", err)
		}
	}

	if groups == nil {
		txs, err := a.Store.TransactionsInRange(ctx, from, to)
		if err != nil {
			return nil, fmt.Errorf("summary fallback: scan transactions: %w", err)
		}
		groups = foldByCategory(txs)
	}

	for i := range groups {
		groups[i].TotalCredit = groups[i].TotalCredit.Round(2)
		groups[i].TotalDebit = groups[i].TotalDebit.Round(2)
		groups[i].Balance = groups[i].Balance.Round(2)
	}

	if expandNames {
		if err := a.expandNames(ctx, groups); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

// expandNames resolves category ids to names in one batch lookup.
// Unresolved ids keep a nil name; the uncategorized group gets the
// sentinel label.
func (a *Aggregator) expandNames(ctx context.Context, groups []CategorySummary) error {
	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		if g.CategoryID != nil {
			ids = append(ids, *g.CategoryID)
		}
	}
	var names map[string]Category
	if len(ids) > 0 {
		var err error
		names, err = a.Cats.CategoriesByID(ctx, ids)
		if err != nil {
			return fmt.Errorf("summary: resolve category names: %w", err)
		}
	}
	for i := range groups {
		if groups[i].CategoryID == nil {
			label := UncategorizedLabel
			groups[i].CategoryName = &label
			continue
		}
		if cat, ok := names[*groups[i].CategoryID]; ok {
			name := cat.Name
			groups[i].CategoryName = &name
		}
	}
	return nil
}

func (a *Aggregator) logFallback(op string, err error) {
	fields := logrus.Fields{"op": op, "path": "fallback"}
	if err != nil {
		fields["cause"] = err.Error()
	}
	a.Log.WithFields(fields).Info("precomputed aggregation unavailable, folding raw rows")
}

// =============================================================================
// FOLDS
// =============================================================================

func foldSummary(txs []Transaction) Summary {
	var s Summary
	for _, tx := range txs {
		switch tx.Type {
		case TypeCredit:
			s.TotalCredit = s.TotalCredit.Add(tx.Amount)
		case TypeDebit:
			s.TotalDebit = s.TotalDebit.Add(tx.Amount)
		}
	}
	s.Balance = s.TotalCredit.Sub(s.TotalDebit)
	return s
}

func foldByCategory(txs []Transaction) []CategorySummary {
	byID := make(map[string]*CategorySummary)
	for _, tx := range txs {
		g, ok := byID[tx.CategoryID]
		if !ok {
			g = &CategorySummary{}
			if tx.CategoryID != "" {
				id := tx.CategoryID
				g.CategoryID = &id
			}
			byID[tx.CategoryID] = g
		}
		switch tx.Type {
		case TypeCredit:
			g.TotalCredit = g.TotalCredit.Add(tx.Amount)
		case TypeDebit:
			g.TotalDebit = g.TotalDebit.Add(tx.Amount)
		}
	}

	groups := make([]CategorySummary, 0, len(byID))
	for _, g := range byID {
		g.Balance = g.TotalCredit.Sub(g.TotalDebit)
		groups = append(groups, *g)
	}
	// Stable output order: uncategorized last, otherwise by id.
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].CategoryID == nil {
			return false
		}
		if groups[j].CategoryID == nil {
			return true
		}
		return *groups[i].CategoryID < *groups[j].CategoryID
	})
	return groups
}

func round(s *Summary) *Summary {
	return &Summary{
		TotalCredit: s.TotalCredit.Round(2),
		TotalDebit:  s.TotalDebit.Round(2),
		Balance:     s.Balance.Round(2),
	}
}
