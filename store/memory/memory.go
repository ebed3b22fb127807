// Package memory provides in-memory store implementations (for testing/dev).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/minimart/backoffice/campaign"
	"github.com/minimart/backoffice/finance"
	"github.com/minimart/backoffice/loyalty"
)

// =============================================================================
// MEMORY STORE - In-memory implementation of every store interface
// =============================================================================

// Store implements the loyalty and finance store interfaces in memory.
// The ledger slice is append-only by construction: nothing in this type
// mutates or removes an appended entry.
type Store struct {
	mu sync.RWMutex

	entries map[string][]loyalty.LedgerEntry // keyed by client id, newest first
	clients map[string]loyalty.Client
	rewards map[string]loyalty.Reward

	transactions map[string]finance.Transaction
	categories   map[string]finance.Category
	promotions   map[string]campaign.Promotion
}

func New() *Store {
	return &Store{
		entries:      make(map[string][]loyalty.LedgerEntry),
		clients:      make(map[string]loyalty.Client),
		rewards:      make(map[string]loyalty.Reward),
		transactions: make(map[string]finance.Transaction),
		categories:   make(map[string]finance.Category),
		promotions:   make(map[string]campaign.Promotion),
	}
}

// =============================================================================
// LEDGER (loyalty.EntryStore)
// =============================================================================

func (s *Store) AppendEntry(_ context.Context, e loyalty.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Prepend so the slice stays newest-first.
	s.entries[e.ClientID] = append([]loyalty.LedgerEntry{e}, s.entries[e.ClientID]...)
	return nil
}

func (s *Store) EntriesByClient(_ context.Context, clientID string) ([]loyalty.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]loyalty.LedgerEntry, len(s.entries[clientID]))
	copy(result, s.entries[clientID])
	return result, nil
}

func (s *Store) LastEntryAt(_ context.Context, clientID string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest time.Time
	found := false
	for _, e := range s.entries[clientID] {
		if !found || e.CreatedAt.After(latest) {
			latest = e.CreatedAt
			found = true
		}
	}
	return latest, found, nil
}

// =============================================================================
// CLIENTS (loyalty.ClientStore)
// =============================================================================

func (s *Store) GetClient(_ context.Context, id string) (*loyalty.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *Store) ListClients(_ context.Context) ([]loyalty.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]loyalty.Client, 0, len(s.clients))
	for _, c := range s.clients {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) SaveClient(_ context.Context, c loyalty.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.ID] = c
	return nil
}

func (s *Store) UpdateClient(_ context.Context, c loyalty.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c.ID]; !ok {
		return loyalty.ErrClientNotFound
	}
	s.clients[c.ID] = c
	return nil
}

func (s *Store) DeleteClient(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[id]; !ok {
		return loyalty.ErrClientNotFound
	}
	delete(s.clients, id)
	return nil
}

// =============================================================================
// REWARDS (loyalty.RewardStore)
// =============================================================================

func (s *Store) GetReward(_ context.Context, id string) (*loyalty.Reward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rw, ok := s.rewards[id]
	if !ok {
		return nil, nil
	}
	return &rw, nil
}

func (s *Store) ListRewards(_ context.Context) ([]loyalty.Reward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]loyalty.Reward, 0, len(s.rewards))
	for _, rw := range s.rewards {
		result = append(result, rw)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) SaveReward(_ context.Context, rw loyalty.Reward) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rewards[rw.ID] = rw
	return nil
}

func (s *Store) UpdateReward(_ context.Context, id string, patch loyalty.RewardPatch) (*loyalty.Reward, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rw, ok := s.rewards[id]
	if !ok {
		return nil, nil
	}
	if patch.Name != nil {
		rw.Name = *patch.Name
	}
	if patch.Description != nil {
		rw.Description = *patch.Description
	}
	if patch.PointsRequired != nil {
		rw.PointsRequired = *patch.PointsRequired
	}
	if patch.Active != nil {
		rw.Active = *patch.Active
	}
	s.rewards[id] = rw
	return &rw, nil
}

func (s *Store) DeleteReward(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rewards[id]; !ok {
		return loyalty.ErrRewardNotFound
	}
	delete(s.rewards, id)
	return nil
}

// =============================================================================
// FINANCIAL TRANSACTIONS (finance.TransactionStore)
// =============================================================================

func (s *Store) SaveTransaction(_ context.Context, tx finance.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[tx.ID] = tx
	return nil
}

func (s *Store) ListTransactions(_ context.Context, categoryID string, txType finance.TxType) ([]finance.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []finance.Transaction
	for _, tx := range s.transactions {
		if categoryID != "" && tx.CategoryID != categoryID {
			continue
		}
		if txType != "" && tx.Type != txType {
			continue
		}
		result = append(result, tx)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].TransactionDate.After(result[j].TransactionDate)
	})
	return result, nil
}

func (s *Store) TransactionsInRange(_ context.Context, from, to time.Time) ([]finance.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []finance.Transaction
	for _, tx := range s.transactions {
		d := tx.TransactionDate
		if d.Before(from) || d.After(to) {
			continue
		}
		result = append(result, tx)
	}
	return result, nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx finance.Transaction) (*finance.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[tx.ID]; !ok {
		return nil, nil
	}
	s.transactions[tx.ID] = tx
	return &tx, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.transactions, id)
	return nil
}

// =============================================================================
// CATEGORIES (finance.CategoryStore)
// =============================================================================

func (s *Store) SaveCategory(_ context.Context, c finance.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
	return nil
}

func (s *Store) ListCategories(_ context.Context) ([]finance.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]finance.Category, 0, len(s.categories))
	for _, c := range s.categories {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *Store) CategoriesByID(_ context.Context, ids []string) (map[string]finance.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]finance.Category, len(ids))
	for _, id := range ids {
		if c, ok := s.categories[id]; ok {
			result[id] = c
		}
	}
	return result, nil
}

// =============================================================================
// PROMOTIONS (campaign.PromotionStore)
// =============================================================================

func (s *Store) SavePromotion(_ context.Context, p campaign.Promotion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promotions[p.ID] = p
	return nil
}

func (s *Store) GetPromotion(_ context.Context, id string) (*campaign.Promotion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.promotions[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *Store) ListPromotions(_ context.Context) ([]campaign.Promotion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]campaign.Promotion, 0, len(s.promotions))
	for _, p := range s.promotions {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) UpdatePromotion(_ context.Context, id string, patch campaign.PromotionPatch) (*campaign.Promotion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.promotions[id]
	if !ok {
		return nil, nil
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Type != nil {
		p.Type = *patch.Type
	}
	if patch.Active != nil {
		p.Active = *patch.Active
	}
	if patch.StartDate != nil {
		p.StartDate = patch.StartDate
	}
	if patch.EndDate != nil {
		p.EndDate = patch.EndDate
	}
	p.UpdatedAt = time.Now().UTC()
	s.promotions[id] = p
	return &p, nil
}

func (s *Store) DeletePromotion(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.promotions[id]; !ok {
		return campaign.ErrPromotionNotFound
	}
	delete(s.promotions, id)
	return nil
}
