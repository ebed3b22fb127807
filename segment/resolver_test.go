package segment_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minimart/backoffice/loyalty"
	"github.com/minimart/backoffice/segment"
	"github.com/minimart/backoffice/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var testNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func newTestResolver(t *testing.T) (*segment.Resolver, *memory.Store) {
	store := memory.New()
	r := segment.NewResolver(store, store, segment.Tiers{SilverMin: 200, GoldMin: 500, VIPMin: 1000}, 90)
	r.SetNow(func() time.Time { return testNow })
	return r, store
}

func seedClient(t *testing.T, store *memory.Store, id string, optIn bool, balance int, lastActivity time.Time) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.SaveClient(ctx, loyalty.Client{
		ID:         id,
		Name:       "Client " + id,
		Email:      id + "@example.com",
		EmailOptIn: optIn,
		CreatedAt:  testNow.AddDate(-1, 0, 0),
	}))
	if balance > 0 {
		require.NoError(t, store.AppendEntry(ctx, loyalty.LedgerEntry{
			ID:        "entry-" + id,
			ClientID:  id,
			Kind:      loyalty.KindEarn,
			Points:    balance,
			CreatedAt: lastActivity,
		}))
	}
}

func memberIDs(members []segment.Member) []string {
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ClientID
	}
	return ids
}

// =============================================================================
// TIER RESOLUTION TESTS
// =============================================================================

func TestResolver_TierMembership(t *testing.T) {
	// GIVEN: Clients at 150, 200, 499, 500, 999 and 1000 points
	// WHEN: Resolving each tier segment
	// THEN: Half-open ranges apply; a client exactly at a threshold belongs
	//       to the higher tier

	r, store := newTestResolver(t)
	ctx := context.Background()

	recent := testNow.AddDate(0, 0, -1)
	seedClient(t, store, "c-150", true, 150, recent)
	seedClient(t, store, "c-200", true, 200, recent)
	seedClient(t, store, "c-499", true, 499, recent)
	seedClient(t, store, "c-500", true, 500, recent)
	seedClient(t, store, "c-999", true, 999, recent)
	seedClient(t, store, "c-1000", true, 1000, recent)

	silver, err := r.Resolve(ctx, segment.SegmentSilver)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"c-200", "c-499"}, memberIDs(silver))

	gold, err := r.Resolve(ctx, segment.SegmentGold)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"c-500", "c-999"}, memberIDs(gold))

	vip, err := r.Resolve(ctx, segment.SegmentVIP)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"c-1000"}, memberIDs(vip))

	all, err := r.Resolve(ctx, segment.SegmentAll)
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func TestResolver_OptedOutExcludedEverywhere(t *testing.T) {
	// GIVEN: An opted-out VIP client
	// WHEN: Resolving ALL and VIP
	// THEN: The client appears in neither

	r, store := newTestResolver(t)
	ctx := context.Background()

	seedClient(t, store, "c-optout", false, 2000, testNow.AddDate(0, 0, -1))
	seedClient(t, store, "c-optin", true, 2000, testNow.AddDate(0, 0, -1))

	for _, seg := range []segment.Segment{segment.SegmentAll, segment.SegmentVIP} {
		members, err := r.Resolve(ctx, seg)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"c-optin"}, memberIDs(members), "segment %s", seg)
	}
}

// =============================================================================
// INACTIVE RESOLUTION TESTS
// =============================================================================

func TestResolver_Inactive_CutoffEdges(t *testing.T) {
	// GIVEN: A 90-day cutoff and clients last active 91 and 89 days ago,
	//        plus one client with no entries at all
	// WHEN: Resolving INACTIVE
	// THEN: The 91-day and zero-entry clients are included; 89 days is not

	r, store := newTestResolver(t)
	ctx := context.Background()

	seedClient(t, store, "c-stale", true, 100, testNow.AddDate(0, 0, -91))
	seedClient(t, store, "c-fresh", true, 100, testNow.AddDate(0, 0, -89))
	seedClient(t, store, "c-never", true, 0, time.Time{})

	members, err := r.Resolve(ctx, segment.SegmentInactive)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"c-stale", "c-never"}, memberIDs(members))
}

// =============================================================================
// UNKNOWN SEGMENT
// =============================================================================

func TestResolver_UnknownSegmentFailsBeforeStoreAccess(t *testing.T) {
	// A resolver with no stores wired: an unknown key must error out
	// before anything would be dereferenced.
	r := &segment.Resolver{}

	_, err := r.Resolve(context.Background(), segment.Segment("PLATINUM"))
	assert.ErrorIs(t, err, segment.ErrUnknownSegment)
}
