/*
service.go - Earning and redemption over the ledger

PURPOSE:
  The Service is the only writer of ledger entries. Earning converts a
  purchase amount to points at a configured rate and appends. Redemption
  re-derives the current balance, checks sufficiency against the reward's
  cost, and appends a debit - all inside a per-client critical section.

REDEMPTION PROTOCOL:
  1. Load reward (not found is a client-visible error)
  2. Recompute current balance from the ledger - never a cached value
  3. balance < points_required -> InsufficientBalanceError, nothing written
  4. Append the redeem entry
  5. Recompute and return the new balance

CONCURRENCY:
  Steps 2-4 are a check-then-act sequence over a shared log. Two
  concurrent redemptions could each pass the check against a stale read
  and together overdraw the balance. Redeem therefore serializes per
  client via a keyed mutex; earns are pure appends with no precondition
  on prior state and do not take the lock.

SEE ALSO:
  - balance.go: The fold Redeem re-runs at step 2
  - errors.go: InsufficientBalanceError and friends
*/
package loyalty

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultConversionRate is the points earned per currency unit:
// 0.1 means a 100.00 purchase earns 10 points.
var DefaultConversionRate = decimal.NewFromFloat(0.1)

// EarnResult is returned by Earn: the appended entry plus the balance
// after the append.
type EarnResult struct {
	Entry   LedgerEntry
	Balance int
}

// RedeemResult is returned by Redeem: the appended entry, the reward it
// paid for, and the balance after the debit.
type RedeemResult struct {
	Entry   LedgerEntry
	Reward  Reward
	Balance int
}

// Service owns all writes to the loyalty ledger.
type Service struct {
	Entries    EntryStore
	Clients    ClientStore
	Rewards    RewardStore
	Calculator *Calculator

	// ConversionRate is points per currency unit for earns.
	ConversionRate decimal.Decimal

	// clientLocks serializes redemption per client id.
	mu          sync.Mutex
	clientLocks map[string]*sync.Mutex

	now func() time.Time
}

func NewService(entries EntryStore, clients ClientStore, rewards RewardStore, rate decimal.Decimal) *Service {
	if rate.IsZero() {
		rate = DefaultConversionRate
	}
	return &Service{
		Entries:        entries,
		Clients:        clients,
		Rewards:        rewards,
		Calculator:     NewCalculator(entries),
		ConversionRate: rate,
		clientLocks:    make(map[string]*sync.Mutex),
		now:            time.Now,
	}
}

// lockClient returns the mutex guarding redemption for one client,
// creating it on first use. Locks are never removed; the map grows with
// the number of distinct redeeming clients, which is bounded by the
// client registry.
func (s *Service) lockClient(clientID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.clientLocks[clientID]
	if !ok {
		l = &sync.Mutex{}
		s.clientLocks[clientID] = l
	}
	return l
}

// =============================================================================
// EARN
// =============================================================================

// Earn converts a purchase amount to points and appends an earn entry.
// points = floor(amount * ConversionRate). The amount must be positive;
// non-positive input is a validation error, not silently clamped.
func (s *Service) Earn(ctx context.Context, clientID string, amount decimal.Decimal, description string) (*EarnResult, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("earn: %w", ErrInvalidAmount)
	}

	client, err := s.Clients.GetClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("earn: lookup client: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("earn: %w", ErrClientNotFound)
	}

	points := int(amount.Mul(s.ConversionRate).Floor().IntPart())
	if description == "" {
		description = fmt.Sprintf("Purchase of %s", amount.StringFixed(2))
	}

	entry := LedgerEntry{
		ID:          uuid.NewString(),
		ClientID:    clientID,
		Kind:        KindEarn,
		Points:      points,
		Amount:      &amount,
		Description: description,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.Entries.AppendEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("earn: append: %w", err)
	}

	balance, err := s.Calculator.Balance(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("earn: recompute balance: %w", err)
	}
	return &EarnResult{Entry: entry, Balance: balance}, nil
}

// =============================================================================
// REDEEM
// =============================================================================

// Redeem spends points on a reward. The sufficiency check and the debit
// run inside the client's critical section so two concurrent redemptions
// cannot both pass against a stale balance.
func (s *Service) Redeem(ctx context.Context, clientID, rewardID, description string) (*RedeemResult, error) {
	client, err := s.Clients.GetClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("redeem: lookup client: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("redeem: %w", ErrClientNotFound)
	}

	reward, err := s.Rewards.GetReward(ctx, rewardID)
	if err != nil {
		return nil, fmt.Errorf("redeem: lookup reward: %w", err)
	}
	if reward == nil {
		return nil, fmt.Errorf("redeem: %w", ErrRewardNotFound)
	}

	lock := s.lockClient(clientID)
	lock.Lock()
	defer lock.Unlock()

	// Always a fresh fold. A cached balance here would reopen the
	// overdraw race the lock exists to close.
	balance, err := s.Calculator.Balance(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("redeem: compute balance: %w", err)
	}
	if balance < reward.PointsRequired {
		return nil, &InsufficientBalanceError{
			ClientID:  clientID,
			RewardID:  rewardID,
			Available: balance,
			Required:  reward.PointsRequired,
		}
	}

	if description == "" {
		description = reward.Name
	}
	entry := LedgerEntry{
		ID:          uuid.NewString(),
		ClientID:    clientID,
		Kind:        KindRedeem,
		Points:      reward.PointsRequired,
		Description: description,
		RewardID:    reward.ID,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.Entries.AppendEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("redeem: append: %w", err)
	}

	newBalance, err := s.Calculator.Balance(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("redeem: recompute balance: %w", err)
	}
	return &RedeemResult{Entry: entry, Reward: *reward, Balance: newBalance}, nil
}

// =============================================================================
// READS
// =============================================================================

// Balance returns the derived point balance. Unknown client is NotFound;
// existence is checked here so HTTP callers get a 404 rather than a
// silent zero.
func (s *Service) Balance(ctx context.Context, clientID string) (int, error) {
	client, err := s.Clients.GetClient(ctx, clientID)
	if err != nil {
		return 0, fmt.Errorf("balance: lookup client: %w", err)
	}
	if client == nil {
		return 0, fmt.Errorf("balance: %w", ErrClientNotFound)
	}
	return s.Calculator.Balance(ctx, clientID)
}

// History returns a client's ledger entries, most recent first.
func (s *Service) History(ctx context.Context, clientID string) ([]LedgerEntry, error) {
	client, err := s.Clients.GetClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("history: lookup client: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("history: %w", ErrClientNotFound)
	}
	return s.Entries.EntriesByClient(ctx, clientID)
}
