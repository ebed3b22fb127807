/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements every persistence interface (loyalty.EntryStore,
  loyalty.ClientStore, loyalty.RewardStore, finance.TransactionStore,
  finance.CategoryStore, finance.SummaryProvider) using SQLite. The same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

APPEND-ONLY ENFORCEMENT:
  The loyalty ledger table takes INSERTs only:
  - No UPDATE statements on loyalty_entries
  - No DELETE statements on loyalty_entries

KEY TABLES:
  loyalty_entries:         Immutable ledger of point-affecting events
  clients:                 Customer registry
  rewards:                 Redeemable catalog
  financial_transactions:  Credit/debit log
  categories:              Labels for the by-category breakdown

PRECOMPUTED AGGREGATION:
  The SummaryProvider methods answer from SQL SUM/GROUP BY, standing in
  for the database-side rollup the aggregator prefers over raw folding.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): multiple readers don't
  block, single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/backoffice.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - loyalty/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/minimart/backoffice/campaign"
	"github.com/minimart/backoffice/finance"
	"github.com/minimart/backoffice/loyalty"
)

const dayFormat = "2006-01-02"

// tsFormat is RFC3339 with fixed-width nanoseconds. Timestamps live in
// TEXT columns and are ordered lexicographically (ORDER BY, MAX), so the
// encoding must keep trailing zeros: RFC3339Nano trims them, which makes
// "...00.1Z" sort after "...00.15Z" and mis-orders entries that land in
// the same second.
const tsFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Clients (customer registry)
	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT,
		birth_date TEXT,
		email_opt_in INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	);

	-- Rewards (mutable catalog)
	CREATE TABLE IF NOT EXISTS rewards (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		points_required INTEGER NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	);

	-- Loyalty entries (append-only ledger)
	CREATE TABLE IF NOT EXISTS loyalty_entries (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		points INTEGER NOT NULL,
		amount TEXT,
		description TEXT,
		reward_id TEXT,
		created_at TEXT NOT NULL
	);

	-- Balance folds and history reads (hot path)
	CREATE INDEX IF NOT EXISTS idx_loyalty_entries_client
		ON loyalty_entries(client_id, created_at DESC);

	-- Financial transactions
	CREATE TABLE IF NOT EXISTS financial_transactions (
		id TEXT PRIMARY KEY,
		description TEXT,
		amount TEXT NOT NULL,
		type TEXT NOT NULL,
		transaction_date TEXT NOT NULL,
		category_id TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_financial_transactions_date
		ON financial_transactions(transaction_date);
	CREATE INDEX IF NOT EXISTS idx_financial_transactions_category
		ON financial_transactions(category_id) WHERE category_id IS NOT NULL;

	-- Categories
	CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	-- Promotions (mutable catalog)
	CREATE TABLE IF NOT EXISTS promotions (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		type TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		start_date TEXT,
		end_date TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LOYALTY LEDGER (loyalty.EntryStore)
// =============================================================================

// AppendEntry adds an entry to the ledger. Insert only.
func (s *Store) AppendEntry(ctx context.Context, e loyalty.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var amount sql.NullString
	if e.Amount != nil {
		amount = sql.NullString{String: e.Amount.String(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO loyalty_entries
		(id, client_id, kind, points, amount, description, reward_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.ClientID,
		string(e.Kind),
		e.Points,
		amount,
		e.Description,
		nullString(e.RewardID),
		e.CreatedAt.UTC().Format(tsFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to append entry: %w", err)
	}
	return nil
}

// EntriesByClient returns a client's entries, newest first.
func (s *Store) EntriesByClient(ctx context.Context, clientID string) ([]loyalty.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, client_id, kind, points, amount, description, reward_id, created_at
		FROM loyalty_entries
		WHERE client_id = ?
		ORDER BY created_at DESC`,
		clientID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}
	defer rows.Close()

	var entries []loyalty.LedgerEntry
	for rows.Next() {
		var (
			e           loyalty.LedgerEntry
			kind        string
			amount      sql.NullString
			description sql.NullString
			rewardID    sql.NullString
			createdAt   string
		)
		if err := rows.Scan(&e.ID, &e.ClientID, &kind, &e.Points, &amount, &description, &rewardID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		e.Kind = loyalty.EntryKind(kind)
		e.Description = description.String
		e.RewardID = rewardID.String
		if amount.Valid {
			d, err := decimal.NewFromString(amount.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse entry amount: %w", err)
			}
			e.Amount = &d
		}
		e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse entry timestamp: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LastEntryAt returns the timestamp of a client's most recent entry.
func (s *Store) LastEntryAt(ctx context.Context, clientID string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var createdAt sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(created_at) FROM loyalty_entries WHERE client_id = ?`,
		clientID,
	).Scan(&createdAt)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to load last entry: %w", err)
	}
	if !createdAt.Valid {
		return time.Time{}, false, nil
	}
	at, err := time.Parse(time.RFC3339Nano, createdAt.String)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to parse entry timestamp: %w", err)
	}
	return at, true, nil
}

// =============================================================================
// CLIENTS (loyalty.ClientStore)
// =============================================================================

func (s *Store) GetClient(ctx context.Context, id string) (*loyalty.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, birth_date, email_opt_in, created_at
		FROM clients WHERE id = ?`, id)
	c, err := scanClient(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return c, nil
}

func (s *Store) ListClients(ctx context.Context) ([]loyalty.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, phone, birth_date, email_opt_in, created_at
		FROM clients ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []loyalty.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, *c)
	}
	return clients, rows.Err()
}

func (s *Store) SaveClient(ctx context.Context, c loyalty.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var birth sql.NullString
	if c.BirthDate != nil {
		birth = sql.NullString{String: c.BirthDate.Format(dayFormat), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, email, phone, birth_date, email_opt_in, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Email, c.Phone, birth, boolToInt(c.EmailOptIn),
		c.CreatedAt.UTC().Format(tsFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to save client: %w", err)
	}
	return nil
}

func (s *Store) UpdateClient(ctx context.Context, c loyalty.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var birth sql.NullString
	if c.BirthDate != nil {
		birth = sql.NullString{String: c.BirthDate.Format(dayFormat), Valid: true}
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE clients SET name = ?, email = ?, phone = ?, birth_date = ?, email_opt_in = ?
		WHERE id = ?`,
		c.Name, c.Email, c.Phone, birth, boolToInt(c.EmailOptIn), c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return loyalty.ErrClientNotFound
	}
	return nil
}

func (s *Store) DeleteClient(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return loyalty.ErrClientNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (*loyalty.Client, error) {
	var (
		c         loyalty.Client
		phone     sql.NullString
		birth     sql.NullString
		optIn     int
		createdAt string
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &phone, &birth, &optIn, &createdAt); err != nil {
		return nil, err
	}
	c.Phone = phone.String
	c.EmailOptIn = optIn != 0
	if birth.Valid {
		d, err := time.Parse(dayFormat, birth.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse birth_date: %w", err)
		}
		c.BirthDate = &d
	}
	at, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	c.CreatedAt = at
	return &c, nil
}

// =============================================================================
// REWARDS (loyalty.RewardStore)
// =============================================================================

func (s *Store) GetReward(ctx context.Context, id string) (*loyalty.Reward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getReward(ctx, id)
}

func (s *Store) getReward(ctx context.Context, id string) (*loyalty.Reward, error) {
	var (
		rw          loyalty.Reward
		description sql.NullString
		active      int
		createdAt   string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, points_required, active, created_at
		FROM rewards WHERE id = ?`, id,
	).Scan(&rw.ID, &rw.Name, &description, &rw.PointsRequired, &active, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reward: %w", err)
	}
	rw.Description = description.String
	rw.Active = active != 0
	rw.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return &rw, nil
}

func (s *Store) ListRewards(ctx context.Context) ([]loyalty.Reward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, points_required, active, created_at
		FROM rewards ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}
	defer rows.Close()

	var rewards []loyalty.Reward
	for rows.Next() {
		var (
			rw          loyalty.Reward
			description sql.NullString
			active      int
			createdAt   string
		)
		if err := rows.Scan(&rw.ID, &rw.Name, &description, &rw.PointsRequired, &active, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan reward: %w", err)
		}
		rw.Description = description.String
		rw.Active = active != 0
		rw.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		rewards = append(rewards, rw)
	}
	return rewards, rows.Err()
}

func (s *Store) SaveReward(ctx context.Context, rw loyalty.Reward) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rewards (id, name, description, points_required, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rw.ID, rw.Name, rw.Description, rw.PointsRequired, boolToInt(rw.Active),
		rw.CreatedAt.UTC().Format(tsFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to save reward: %w", err)
	}
	return nil
}

// UpdateReward applies a partial patch as a read-modify-write under the
// store lock.
func (s *Store) UpdateReward(ctx context.Context, id string, patch loyalty.RewardPatch) (*loyalty.Reward, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rw, err := s.getReward(ctx, id)
	if err != nil {
		return nil, err
	}
	if rw == nil {
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

	_, err = s.db.ExecContext(ctx, `
		UPDATE rewards SET name = ?, description = ?, points_required = ?, active = ?
		WHERE id = ?`,
		rw.Name, rw.Description, rw.PointsRequired, boolToInt(rw.Active), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update reward: %w", err)
	}
	return rw, nil
}

func (s *Store) DeleteReward(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM rewards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reward: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return loyalty.ErrRewardNotFound
	}
	return nil
}

// =============================================================================
// FINANCIAL TRANSACTIONS (finance.TransactionStore)
// =============================================================================

func (s *Store) SaveTransaction(ctx context.Context, tx finance.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO financial_transactions
		(id, description, amount, type, transaction_date, category_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.Description, tx.Amount.String(), string(tx.Type),
		tx.TransactionDate.Format(dayFormat), nullString(tx.CategoryID),
	)
	if err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}
	return nil
}

func (s *Store) ListTransactions(ctx context.Context, categoryID string, txType finance.TxType) ([]finance.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, description, amount, type, transaction_date, category_id
		FROM financial_transactions`
	var (
		conds []string
		args  []any
	)
	if categoryID != "" {
		conds = append(conds, "category_id = ?")
		args = append(args, categoryID)
	}
	if txType != "" {
		conds = append(conds, "type = ?")
		args = append(args, string(txType))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY transaction_date DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (s *Store) TransactionsInRange(ctx context.Context, from, to time.Time) ([]finance.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, amount, type, transaction_date, category_id
		FROM financial_transactions
		WHERE transaction_date BETWEEN ? AND ?
		ORDER BY transaction_date`,
		from.Format(dayFormat), to.Format(dayFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (s *Store) UpdateTransaction(ctx context.Context, tx finance.Transaction) (*finance.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE financial_transactions
		SET description = ?, amount = ?, type = ?, transaction_date = ?, category_id = ?
		WHERE id = ?`,
		tx.Description, tx.Amount.String(), string(tx.Type),
		tx.TransactionDate.Format(dayFormat), nullString(tx.CategoryID), tx.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return &tx, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM financial_transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

func scanTransactions(rows *sql.Rows) ([]finance.Transaction, error) {
	var txs []finance.Transaction
	for rows.Next() {
		var (
			tx          finance.Transaction
			description sql.NullString
			amount      string
			txType      string
			date        string
			categoryID  sql.NullString
		)
		if err := rows.Scan(&tx.ID, &description, &amount, &txType, &date, &categoryID); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.Description = description.String
		tx.Type = finance.TxType(txType)
		tx.CategoryID = categoryID.String
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("failed to parse amount: %w", err)
		}
		tx.Amount = d
		tx.TransactionDate, err = time.Parse(dayFormat, date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse transaction_date: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// =============================================================================
// CATEGORIES (finance.CategoryStore)
// =============================================================================

func (s *Store) SaveCategory(ctx context.Context, c finance.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `INSERT INTO categories (id, name) VALUES (?, ?)`, c.ID, c.Name)
	if err != nil {
		return fmt.Errorf("failed to save category: %w", err)
	}
	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]finance.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var cats []finance.Category
	for rows.Next() {
		var c finance.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (s *Store) CategoriesByID(ctx context.Context, ids []string) (map[string]finance.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(ids) == 0 {
		return map[string]finance.Category{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name FROM categories WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	defer rows.Close()

	result := make(map[string]finance.Category)
	for rows.Next() {
		var c finance.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		result[c.ID] = c
	}
	return result, rows.Err()
}

// =============================================================================
// PROMOTIONS (campaign.PromotionStore)
// =============================================================================

func (s *Store) SavePromotion(ctx context.Context, p campaign.Promotion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO promotions
		(id, title, description, type, active, start_date, end_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Description, string(p.Type), boolToInt(p.Active),
		nullDay(p.StartDate), nullDay(p.EndDate),
		p.CreatedAt.UTC().Format(tsFormat), p.UpdatedAt.UTC().Format(tsFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to save promotion: %w", err)
	}
	return nil
}

func (s *Store) GetPromotion(ctx context.Context, id string) (*campaign.Promotion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getPromotion(ctx, id)
}

func (s *Store) getPromotion(ctx context.Context, id string) (*campaign.Promotion, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, type, active, start_date, end_date, created_at, updated_at
		FROM promotions WHERE id = ?`, id)
	p, err := scanPromotion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get promotion: %w", err)
	}
	return p, nil
}

func (s *Store) ListPromotions(ctx context.Context) ([]campaign.Promotion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, type, active, start_date, end_date, created_at, updated_at
		FROM promotions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list promotions: %w", err)
	}
	defer rows.Close()

	var promos []campaign.Promotion
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan promotion: %w", err)
		}
		promos = append(promos, *p)
	}
	return promos, rows.Err()
}

// UpdatePromotion applies a partial patch as a read-modify-write under
// the store lock, bumping updated_at.
func (s *Store) UpdatePromotion(ctx context.Context, id string, patch campaign.PromotionPatch) (*campaign.Promotion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.getPromotion(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
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

	_, err = s.db.ExecContext(ctx, `
		UPDATE promotions
		SET title = ?, description = ?, type = ?, active = ?, start_date = ?, end_date = ?, updated_at = ?
		WHERE id = ?`,
		p.Title, p.Description, string(p.Type), boolToInt(p.Active),
		nullDay(p.StartDate), nullDay(p.EndDate), p.UpdatedAt.Format(tsFormat), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update promotion: %w", err)
	}
	return p, nil
}

func (s *Store) DeletePromotion(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM promotions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete promotion: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return campaign.ErrPromotionNotFound
	}
	return nil
}

func scanPromotion(row rowScanner) (*campaign.Promotion, error) {
	var (
		p                    campaign.Promotion
		promoType            string
		active               int
		startDate, endDate   sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &promoType, &active,
		&startDate, &endDate, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.Type = campaign.PromotionType(promoType)
	p.Active = active != 0
	var err error
	if p.StartDate, err = parseNullDay(startDate); err != nil {
		return nil, err
	}
	if p.EndDate, err = parseNullDay(endDate); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if p.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return &p, nil
}

func nullDay(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(dayFormat), Valid: true}
}

func parseNullDay(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	d, err := time.Parse(dayFormat, s.String)
	if err != nil {
		return nil, fmt.Errorf("failed to parse date: %w", err)
	}
	return &d, nil
}

// =============================================================================
// PRECOMPUTED AGGREGATION (finance.SummaryProvider)
// =============================================================================

// Amounts are cent-denominated money, so the rollup sums integer cents:
// SQLite has no decimal type, and summing REAL drifts from the exact
// decimal fold on large volumes. Per-row cent conversion is exact for
// two-decimal amounts, and integer SUM never loses precision.
const sumCentsExpr = `
	COALESCE(SUM(CASE WHEN type = 'credit' THEN CAST(ROUND(CAST(amount AS REAL) * 100) AS INTEGER) ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN type = 'debit'  THEN CAST(ROUND(CAST(amount AS REAL) * 100) AS INTEGER) ELSE 0 END), 0)`

// PrecomputedSummary answers the summary from a single SQL aggregation,
// the database-side rollup the aggregator prefers over raw folding.
func (s *Store) PrecomputedSummary(ctx context.Context, from, to time.Time) (*finance.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var creditCents, debitCents int64
	err := s.db.QueryRowContext(ctx, `
		SELECT `+sumCentsExpr+`
		FROM financial_transactions
		WHERE transaction_date BETWEEN ? AND ?`,
		from.Format(dayFormat), to.Format(dayFormat),
	).Scan(&creditCents, &debitCents)
	if err != nil {
		return nil, fmt.Errorf("precomputed summary: %w", err)
	}

	c := decimal.New(creditCents, -2)
	d := decimal.New(debitCents, -2)
	return &finance.Summary{TotalCredit: c, TotalDebit: d, Balance: c.Sub(d)}, nil
}

// PrecomputedSummaryByCategory answers the per-category breakdown from a
// GROUP BY. Zero rows is a legitimate answer here; the aggregator decides
// whether to trust it or fall back.
func (s *Store) PrecomputedSummaryByCategory(ctx context.Context, from, to time.Time) ([]finance.CategorySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT category_id, `+sumCentsExpr+`
		FROM financial_transactions
		WHERE transaction_date BETWEEN ? AND ?
		GROUP BY category_id
		ORDER BY category_id`,
		from.Format(dayFormat), to.Format(dayFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("precomputed summary by category: %w", err)
	}
	defer rows.Close()

	var groups []finance.CategorySummary
	for rows.Next() {
		var (
			categoryID              sql.NullString
			creditCents, debitCents int64
		)
		if err := rows.Scan(&categoryID, &creditCents, &debitCents); err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}
		g := finance.CategorySummary{
			TotalCredit: decimal.New(creditCents, -2),
			TotalDebit:  decimal.New(debitCents, -2),
		}
		g.Balance = g.TotalCredit.Sub(g.TotalDebit)
		if categoryID.Valid && categoryID.String != "" {
			id := categoryID.String
			g.CategoryID = &id
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
