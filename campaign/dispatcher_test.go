package campaign_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minimart/backoffice/campaign"
	"github.com/minimart/backoffice/loyalty"
	"github.com/minimart/backoffice/segment"
	"github.com/minimart/backoffice/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// recordingSender captures batches instead of delivering them.
type recordingSender struct {
	batches [][]segment.Member
	failOn  int // 1-based batch index to fail on; 0 = never
}

func (s *recordingSender) SendBatch(_ context.Context, members []segment.Member, _ campaign.Message) error {
	if s.failOn > 0 && len(s.batches)+1 == s.failOn {
		return errors.New("relay unavailable")
	}
	s.batches = append(s.batches, members)
	return nil
}

func newTestDispatcher(t *testing.T, clients int, batchSize int, sender campaign.Sender) *campaign.Dispatcher {
	t.Helper()
	store := memory.New()
	ctx := context.Background()
	for i := 0; i < clients; i++ {
		require.NoError(t, store.SaveClient(ctx, loyalty.Client{
			ID:         fmt.Sprintf("c-%02d", i),
			Name:       fmt.Sprintf("Client %d", i),
			Email:      fmt.Sprintf("c%d@example.com", i),
			EmailOptIn: true,
			CreatedAt:  time.Now().UTC(),
		}))
	}
	resolver := segment.NewResolver(store, store, segment.Tiers{SilverMin: 200, GoldMin: 500, VIPMin: 1000}, 90)
	return campaign.NewDispatcher(resolver, sender, batchSize, time.Millisecond, nil)
}

// =============================================================================
// SEND TESTS
// =============================================================================

func TestDispatcher_Send_BatchesAudience(t *testing.T) {
	// GIVEN: 5 opted-in clients and a batch size of 2
	// WHEN: Dispatching to ALL
	// THEN: 3 batches of 2+2+1 recipients

	sender := &recordingSender{}
	d := newTestDispatcher(t, 5, 2, sender)

	result, err := d.Send(context.Background(), segment.SegmentAll, campaign.Message{Subject: "Hi"})
	require.NoError(t, err)

	assert.Equal(t, 5, result.Recipients)
	assert.Equal(t, 3, result.Batches)
	require.Len(t, sender.batches, 3)
	assert.Len(t, sender.batches[0], 2)
	assert.Len(t, sender.batches[1], 2)
	assert.Len(t, sender.batches[2], 1)
}

func TestDispatcher_Send_EmptyAudienceSendsNothing(t *testing.T) {
	sender := &recordingSender{}
	d := newTestDispatcher(t, 0, 2, sender)

	result, err := d.Send(context.Background(), segment.SegmentAll, campaign.Message{Subject: "Hi"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Recipients)
	assert.Equal(t, 0, result.Batches)
	assert.Empty(t, sender.batches)
}

func TestDispatcher_Send_FailedBatchAborts(t *testing.T) {
	// GIVEN: A sender that fails on the second batch
	// WHEN: Dispatching 5 recipients in batches of 2
	// THEN: The dispatch errors naming the batch; only the first batch went out

	sender := &recordingSender{failOn: 2}
	d := newTestDispatcher(t, 5, 2, sender)

	_, err := d.Send(context.Background(), segment.SegmentAll, campaign.Message{Subject: "Hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch 2")
	assert.Len(t, sender.batches, 1)
}

func TestDispatcher_Send_CancelledBetweenBatches(t *testing.T) {
	// GIVEN: A long pause between batches and a context cancelled up front
	// WHEN: Dispatching more than one batch
	// THEN: The dispatch stops at the pause with the context error

	sender := &recordingSender{}
	d := newTestDispatcher(t, 4, 2, sender)
	d.BatchPause = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Send(ctx, segment.SegmentAll, campaign.Message{Subject: "Hi"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, sender.batches, 1)
}

func TestDispatcher_Send_UnknownSegment(t *testing.T) {
	sender := &recordingSender{}
	d := newTestDispatcher(t, 2, 2, sender)

	_, err := d.Send(context.Background(), segment.Segment("PLATINUM"), campaign.Message{Subject: "Hi"})
	require.ErrorIs(t, err, segment.ErrUnknownSegment)
	assert.Empty(t, sender.batches)
}

// =============================================================================
// PREVIEW TESTS
// =============================================================================

func TestDispatcher_Preview_DoesNotSend(t *testing.T) {
	// GIVEN: 8 opted-in clients
	// WHEN: Previewing ALL
	// THEN: Count is 8, the sample is capped, and nothing was delivered

	sender := &recordingSender{}
	d := newTestDispatcher(t, 8, 2, sender)

	preview, err := d.Preview(context.Background(), segment.SegmentAll)
	require.NoError(t, err)

	assert.Equal(t, 8, preview.Count)
	assert.Len(t, preview.Sample, campaign.SampleSize)
	assert.Empty(t, sender.batches)
}
