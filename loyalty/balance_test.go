package loyalty_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minimart/backoffice/loyalty"
	"github.com/minimart/backoffice/store/memory"
)

// =============================================================================
// FOLD TESTS
// =============================================================================

func TestFold_MixedEntries(t *testing.T) {
	// GIVEN: Earns of 25 and 7 points and a redeem of 30
	// WHEN: Folding the entries
	// THEN: Total is 25 + 7 - 30 = 2

	entries := []loyalty.LedgerEntry{
		{Kind: loyalty.KindEarn, Points: 25},
		{Kind: loyalty.KindEarn, Points: 7},
		{Kind: loyalty.KindRedeem, Points: 30},
	}
	assert.Equal(t, 2, loyalty.Fold(entries))
}

func TestFold_Empty(t *testing.T) {
	assert.Equal(t, 0, loyalty.Fold(nil))
}

func TestFold_OrderIndependent(t *testing.T) {
	// GIVEN: The same set of entries in shuffled order
	// WHEN: Folding each permutation
	// THEN: Every fold yields the same total

	entries := []loyalty.LedgerEntry{
		{Kind: loyalty.KindEarn, Points: 100},
		{Kind: loyalty.KindRedeem, Points: 40},
		{Kind: loyalty.KindEarn, Points: 12},
		{Kind: loyalty.KindRedeem, Points: 5},
		{Kind: loyalty.KindEarn, Points: 3},
	}
	want := loyalty.Fold(entries)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]loyalty.LedgerEntry, len(entries))
		copy(shuffled, entries)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		assert.Equal(t, want, loyalty.Fold(shuffled))
	}
}

// =============================================================================
// CALCULATOR TESTS
// =============================================================================

func TestCalculator_Balance_ReplaysLedger(t *testing.T) {
	// GIVEN: A ledger with two earns and a redeem for one client
	// WHEN: Deriving the balance twice
	// THEN: Both reads agree and match the fold of the entries

	store := memory.New()
	calc := loyalty.NewCalculator(store)
	ctx := context.Background()

	now := time.Now().UTC()
	entries := []loyalty.LedgerEntry{
		{ID: "e-1", ClientID: "c-1", Kind: loyalty.KindEarn, Points: 25, CreatedAt: now},
		{ID: "e-2", ClientID: "c-1", Kind: loyalty.KindEarn, Points: 7, CreatedAt: now.Add(time.Minute)},
		{ID: "e-3", ClientID: "c-1", Kind: loyalty.KindRedeem, Points: 30, CreatedAt: now.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		require.NoError(t, store.AppendEntry(ctx, e))
	}

	first, err := calc.Balance(ctx, "c-1")
	require.NoError(t, err)
	second, err := calc.Balance(ctx, "c-1")
	require.NoError(t, err)

	assert.Equal(t, 2, first)
	assert.Equal(t, first, second)
}

func TestCalculator_Balance_NoEntriesIsZero(t *testing.T) {
	store := memory.New()
	calc := loyalty.NewCalculator(store)

	balance, err := calc.Balance(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}
