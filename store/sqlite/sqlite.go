/*
Package sqlite provides the SQLite-backed store for the affiliate program.

PURPOSE:
  Persists affiliates, attributed orders, commissions, payouts and the
  history of tier evaluations. The tier and schedule engines themselves are
  pure; this package supplies the revenue figures they are fed with.

KEY TABLES:
  affiliates:        Applications and approved affiliates
  orders:            Storefront orders attributed to an affiliate (cents)
  commissions:       One row per order that earned commission
  payouts:           Bundles of commissions paid together
  tier_evaluations:  Tier recorded by the scheduler when it changes

REVENUE QUERY:
  NetRevenueCents sums paid orders in an inclusive placed_on range.
  placed_on is stored as YYYY-MM-DD, so BETWEEN on the text column is a
  calendar comparison.

INDEXES:
  - idx_orders_affiliate_placed: trailing-window revenue (hot path)
  - idx_commissions_affiliate_status: pending commissions for payouts

CONCURRENCY:
  Uses sync.RWMutex for thread-safety; SQLite allows one writer at a time.

WAL MODE:
  File databases are opened with WAL so readers don't block the writer.
  ":memory:" databases are pinned to a single connection, since each new
  connection to ":memory:" would see its own empty database.

USAGE:
  store, err := sqlite.New("./data/backoffice.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - affiliate/: domain types stored here
  - api/handlers.go: callers
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/peptora/backoffice/affiliate"
	"github.com/peptora/backoffice/calendar"
)

var (
	// ErrDuplicate is returned when a unique key (id, email, code, order) already exists.
	ErrDuplicate = errors.New("record already exists")

	// ErrNotFound is returned by updates that match no row.
	ErrNotFound = errors.New("record not found")
)

// Store implements persistence using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	dsn := dbPath + "?_foreign_keys=on&_journal_mode=WAL"
	if dbPath == ":memory:" {
		dsn = "file::memory:?_foreign_keys=on"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
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
	CREATE TABLE IF NOT EXISTS affiliates (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		code TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_affiliates_status
		ON affiliates(status);

	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		affiliate_id TEXT NOT NULL REFERENCES affiliates(id),
		amount_cents INTEGER NOT NULL CHECK (amount_cents >= 0),
		status TEXT NOT NULL,
		placed_on TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_orders_affiliate_placed
		ON orders(affiliate_id, placed_on);

	CREATE TABLE IF NOT EXISTS payouts (
		id TEXT PRIMARY KEY,
		affiliate_id TEXT NOT NULL REFERENCES affiliates(id),
		amount_cents INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payouts_affiliate
		ON payouts(affiliate_id);

	CREATE TABLE IF NOT EXISTS commissions (
		id TEXT PRIMARY KEY,
		affiliate_id TEXT NOT NULL REFERENCES affiliates(id),
		order_id TEXT NOT NULL UNIQUE REFERENCES orders(id),
		tier TEXT NOT NULL,
		amount_cents INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		payout_id TEXT REFERENCES payouts(id),
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_commissions_affiliate_status
		ON commissions(affiliate_id, status);

	CREATE TABLE IF NOT EXISTS tier_evaluations (
		id TEXT PRIMARY KEY,
		affiliate_id TEXT NOT NULL REFERENCES affiliates(id),
		as_of TEXT NOT NULL,
		revenue TEXT NOT NULL,
		tier TEXT NOT NULL,
		rate TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tier_evaluations_affiliate
		ON tier_evaluations(affiliate_id, as_of DESC, created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Reset deletes every row, children first.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"tier_evaluations", "commissions", "payouts", "orders", "affiliates"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// AFFILIATES
// =============================================================================

// SaveAffiliate inserts a new affiliate.
func (s *Store) SaveAffiliate(ctx context.Context, a affiliate.Affiliate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO affiliates (id, name, email, code, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Email, a.Code, string(a.Status), a.CreatedAt.Format(time.RFC3339),
	)
	return translate(err)
}

// GetAffiliate retrieves an affiliate by ID, or nil if there is none.
func (s *Store) GetAffiliate(ctx context.Context, id string) (*affiliate.Affiliate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var a affiliate.Affiliate
	var status, createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, code, status, created_at FROM affiliates WHERE id = ?",
		id,
	).Scan(&a.ID, &a.Name, &a.Email, &a.Code, &status, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	a.Status = affiliate.Status(status)
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &a, nil
}

// ListAffiliates returns affiliates by name. An empty status returns all of them.
func (s *Store) ListAffiliates(ctx context.Context, status affiliate.Status) ([]affiliate.Affiliate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, name, email, code, status, created_at FROM affiliates"
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY name"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []affiliate.Affiliate
	for rows.Next() {
		var a affiliate.Affiliate
		var st, createdAt string
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.Code, &st, &createdAt); err != nil {
			return nil, err
		}
		a.Status = affiliate.Status(st)
		a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, a)
	}
	return out, rows.Err()
}

// ReviewAffiliate moves a pending application to approved or rejected and
// returns the updated affiliate. The update only matches a row that is still
// pending, so a second review fails with affiliate.ErrInvalidTransition.
func (s *Store) ReviewAffiliate(ctx context.Context, id string, to affiliate.Status) (*affiliate.Affiliate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var a affiliate.Affiliate
	var status, createdAt string
	err = tx.QueryRowContext(ctx,
		"SELECT id, name, email, code, status, created_at FROM affiliates WHERE id = ?", id,
	).Scan(&a.ID, &a.Name, &a.Email, &a.Code, &status, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.Status = affiliate.Status(status)
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	if err := a.Review(to); err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE affiliates SET status = ? WHERE id = ? AND status = ?",
		string(a.Status), a.ID, string(affiliate.StatusPending))
	if err = affectedOne(res, err); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: affiliate %s is no longer pending", affiliate.ErrInvalidTransition, a.ID)
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &a, nil
}

// =============================================================================
// ORDERS
// =============================================================================

// RecordOrder inserts an order and, when commission is non-nil, its
// commission entry in one transaction.
func (s *Store) RecordOrder(ctx context.Context, o affiliate.Order, commission *affiliate.CommissionEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO orders (id, affiliate_id, amount_cents, status, placed_on, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		o.ID, o.AffiliateID, o.AmountCents, string(o.Status), o.PlacedOn.String(), o.CreatedAt.Format(time.RFC3339),
	); err != nil {
		return translate(err)
	}

	if commission != nil {
		c := *commission
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		if err := insertCommission(ctx, tx, c); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// PayOrder settles a pending order. When the affiliate is approved, the
// commission is written in the same transaction at the tier held over the
// trailing window ending on placed_on, evaluated before the order counts.
// The commission is nil when the affiliate cannot earn.
func (s *Store) PayOrder(ctx context.Context, id, commissionID string, paidAt time.Time) (*affiliate.Order, *affiliate.CommissionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	o, err := loadOrder(ctx, tx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := o.MarkPaid(); err != nil {
		return nil, nil, err
	}

	var a affiliate.Affiliate
	var status string
	if err := tx.QueryRowContext(ctx,
		"SELECT id, status FROM affiliates WHERE id = ?", o.AffiliateID,
	).Scan(&a.ID, &status); err != nil {
		return nil, nil, fmt.Errorf("affiliate of order %s: %w", o.ID, err)
	}
	a.Status = affiliate.Status(status)

	var commission *affiliate.CommissionEntry
	if a.CanEarn() {
		cents, err := netRevenueCents(ctx, tx, a.ID, calendar.TrailingWindow(o.PlacedOn, affiliate.RevenueWindowDays))
		if err != nil {
			return nil, nil, err
		}
		eval := affiliate.Evaluate(affiliate.RevenueFromCents(cents))
		commission = &affiliate.CommissionEntry{
			ID:          commissionID,
			AffiliateID: a.ID,
			OrderID:     o.ID,
			Tier:        eval.Tier,
			AmountCents: affiliate.Commission(o.AmountCents, eval.Tier),
			Status:      affiliate.CommissionPending,
			CreatedAt:   paidAt.UTC(),
		}
	}

	if _, err := tx.ExecContext(ctx, "UPDATE orders SET status = ? WHERE id = ?", string(o.Status), o.ID); err != nil {
		return nil, nil, err
	}
	if commission != nil {
		if err := insertCommission(ctx, tx, *commission); err != nil {
			return nil, nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return o, commission, nil
}

// CancelOrder drops a pending order. Pending orders never carry a
// commission, so nothing else changes.
func (s *Store) CancelOrder(ctx context.Context, id string) (*affiliate.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	o, err := loadOrder(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := o.Cancel(); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, "UPDATE orders SET status = ? WHERE id = ?", string(o.Status), o.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return o, nil
}

// GetOrder retrieves an order by ID, or nil if there is none.
func (s *Store) GetOrder(ctx context.Context, id string) (*affiliate.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders, err := s.queryOrders(ctx,
		"SELECT id, affiliate_id, amount_cents, status, placed_on, created_at FROM orders WHERE id = ?", id)
	if err != nil || len(orders) == 0 {
		return nil, err
	}
	return &orders[0], nil
}

// ListOrders returns an affiliate's orders placed inside r, oldest first.
func (s *Store) ListOrders(ctx context.Context, affiliateID string, r calendar.Range) ([]affiliate.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryOrders(ctx, `
		SELECT id, affiliate_id, amount_cents, status, placed_on, created_at
		FROM orders
		WHERE affiliate_id = ? AND placed_on BETWEEN ? AND ?
		ORDER BY placed_on, created_at`,
		affiliateID, r.Start.String(), r.End.String())
}

func (s *Store) queryOrders(ctx context.Context, query string, args ...any) ([]affiliate.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []affiliate.Order
	for rows.Next() {
		var o affiliate.Order
		var status, placedOn, createdAt string
		if err := rows.Scan(&o.ID, &o.AffiliateID, &o.AmountCents, &status, &placedOn, &createdAt); err != nil {
			return nil, err
		}
		o.Status = affiliate.OrderStatus(status)
		if o.PlacedOn, err = calendar.Parse(placedOn); err != nil {
			return nil, fmt.Errorf("order %s: %w", o.ID, err)
		}
		o.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, o)
	}
	return out, rows.Err()
}

// NetRevenueCents sums the affiliate's paid orders placed inside r.
// Refunded, charged-back and pending orders are excluded.
func (s *Store) NetRevenueCents(ctx context.Context, affiliateID string, r calendar.Range) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return netRevenueCents(ctx, s.db, affiliateID, r)
}

func netRevenueCents(ctx context.Context, q querier, affiliateID string, r calendar.Range) (int64, error) {
	var cents int64
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM orders
		WHERE affiliate_id = ? AND status = ? AND placed_on BETWEEN ? AND ?`,
		affiliateID, string(affiliate.OrderPaid), r.Start.String(), r.End.String(),
	).Scan(&cents)
	return cents, err
}

// ReverseOrder marks a paid order refunded or charged back and reverses its
// pending commission in the same transaction. It returns the updated order.
func (s *Store) ReverseOrder(ctx context.Context, id string, to affiliate.OrderStatus) (*affiliate.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	o, err := loadOrder(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := o.Reverse(to); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, "UPDATE orders SET status = ? WHERE id = ?", string(o.Status), o.ID); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE commissions SET status = ? WHERE order_id = ? AND status = ?",
		string(affiliate.CommissionReversed), o.ID, string(affiliate.CommissionPending),
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return o, nil
}

// loadOrder reads one order inside a transaction, or ErrNotFound.
func loadOrder(ctx context.Context, q querier, id string) (*affiliate.Order, error) {
	var o affiliate.Order
	var status, placedOn, createdAt string
	err := q.QueryRowContext(ctx,
		"SELECT id, affiliate_id, amount_cents, status, placed_on, created_at FROM orders WHERE id = ?", id,
	).Scan(&o.ID, &o.AffiliateID, &o.AmountCents, &status, &placedOn, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Status = affiliate.OrderStatus(status)
	if o.PlacedOn, err = calendar.Parse(placedOn); err != nil {
		return nil, fmt.Errorf("order %s: %w", o.ID, err)
	}
	o.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &o, nil
}

// =============================================================================
// COMMISSIONS
// =============================================================================

// insertCommission writes a commission entry. One entry per order.
func insertCommission(ctx context.Context, tx *sql.Tx, c affiliate.CommissionEntry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO commissions (id, affiliate_id, order_id, tier, amount_cents, status, payout_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.AffiliateID, c.OrderID, c.Tier.String(), c.AmountCents, string(c.Status),
		nullString(c.PayoutID), c.CreatedAt.Format(time.RFC3339),
	)
	return translate(err)
}

// ListCommissions returns an affiliate's commissions, newest first.
// An empty status returns all of them.
func (s *Store) ListCommissions(ctx context.Context, affiliateID string, status affiliate.CommissionStatus) ([]affiliate.CommissionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return queryCommissions(ctx, s.db, affiliateID, status)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryCommissions(ctx context.Context, q querier, affiliateID string, status affiliate.CommissionStatus) ([]affiliate.CommissionEntry, error) {
	query := `
		SELECT id, affiliate_id, order_id, tier, amount_cents, status, payout_id, created_at
		FROM commissions
		WHERE affiliate_id = ?`
	args := []any{affiliateID}
	if status != "" {
		query += " AND status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []affiliate.CommissionEntry
	for rows.Next() {
		var c affiliate.CommissionEntry
		var tier, st, createdAt string
		var payoutID sql.NullString
		if err := rows.Scan(&c.ID, &c.AffiliateID, &c.OrderID, &tier, &c.AmountCents, &st, &payoutID, &createdAt); err != nil {
			return nil, err
		}
		if c.Tier, err = affiliate.ParseTier(tier); err != nil {
			return nil, fmt.Errorf("commission %s: %w", c.ID, err)
		}
		c.Status = affiliate.CommissionStatus(st)
		c.PayoutID = payoutID.String
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

// =============================================================================
// PAYOUTS
// =============================================================================

// CreatePayout bundles every pending commission of the affiliate into a
// payout with the given ID and marks them paid. Returns
// affiliate.ErrNothingToPay when there is nothing pending.
func (s *Store) CreatePayout(ctx context.Context, payoutID, affiliateID string) (*affiliate.Payout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	pending, err := queryCommissions(ctx, tx, affiliateID, affiliate.CommissionPending)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, affiliate.ErrNothingToPay
	}

	payout := affiliate.Payout{
		ID:          payoutID,
		AffiliateID: affiliateID,
		CreatedAt:   time.Now().UTC(),
	}
	for _, c := range pending {
		payout.AmountCents += c.AmountCents
		payout.CommissionIDs = append(payout.CommissionIDs, c.ID)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO payouts (id, affiliate_id, amount_cents, created_at) VALUES (?, ?, ?, ?)",
		payout.ID, payout.AffiliateID, payout.AmountCents, payout.CreatedAt.Format(time.RFC3339),
	); err != nil {
		return nil, translate(err)
	}
	for _, id := range payout.CommissionIDs {
		if _, err := tx.ExecContext(ctx,
			"UPDATE commissions SET status = ?, payout_id = ? WHERE id = ?",
			string(affiliate.CommissionPaid), payout.ID, id,
		); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &payout, nil
}

// ListPayouts returns an affiliate's payouts, newest first.
func (s *Store) ListPayouts(ctx context.Context, affiliateID string) ([]affiliate.Payout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.affiliate_id, p.amount_cents, p.created_at, c.id
		FROM payouts p
		LEFT JOIN commissions c ON c.payout_id = p.id
		WHERE p.affiliate_id = ?
		ORDER BY p.created_at DESC, p.id, c.id`,
		affiliateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []affiliate.Payout
	for rows.Next() {
		var p affiliate.Payout
		var createdAt string
		var commissionID sql.NullString
		if err := rows.Scan(&p.ID, &p.AffiliateID, &p.AmountCents, &createdAt, &commissionID); err != nil {
			return nil, err
		}
		if n := len(out); n > 0 && out[n-1].ID == p.ID {
			if commissionID.Valid {
				out[n-1].CommissionIDs = append(out[n-1].CommissionIDs, commissionID.String)
			}
			continue
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		if commissionID.Valid {
			p.CommissionIDs = []string{commissionID.String}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// =============================================================================
// TIER EVALUATIONS
// =============================================================================

// evaluatedAtLayout is fixed width so created_at sorts correctly as text.
const evaluatedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// TierEvaluation records an affiliate's tier as of a day.
type TierEvaluation struct {
	ID          string
	AffiliateID string
	AsOf        calendar.Date
	Revenue     decimal.Decimal
	Tier        affiliate.Tier
	Rate        decimal.Decimal
	CreatedAt   time.Time
}

// SaveTierEvaluation inserts an evaluation.
func (s *Store) SaveTierEvaluation(ctx context.Context, e TierEvaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tier_evaluations (id, affiliate_id, as_of, revenue, tier, rate, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.AffiliateID, e.AsOf.String(), e.Revenue.String(), e.Tier.String(), e.Rate.String(),
		e.CreatedAt.UTC().Format(evaluatedAtLayout),
	)
	return translate(err)
}

// LatestTierEvaluation returns the most recent evaluation, or nil if none.
func (s *Store) LatestTierEvaluation(ctx context.Context, affiliateID string) (*TierEvaluation, error) {
	evals, err := s.listTierEvaluations(ctx, affiliateID, 1)
	if err != nil || len(evals) == 0 {
		return nil, err
	}
	return &evals[0], nil
}

// ListTierEvaluations returns an affiliate's evaluations, newest first.
func (s *Store) ListTierEvaluations(ctx context.Context, affiliateID string) ([]TierEvaluation, error) {
	return s.listTierEvaluations(ctx, affiliateID, -1)
}

func (s *Store) listTierEvaluations(ctx context.Context, affiliateID string, limit int) ([]TierEvaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, affiliate_id, as_of, revenue, tier, rate, created_at
		FROM tier_evaluations
		WHERE affiliate_id = ?
		ORDER BY as_of DESC, created_at DESC, rowid DESC
		LIMIT ?`,
		affiliateID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TierEvaluation
	for rows.Next() {
		var e TierEvaluation
		var asOf, revenue, tier, rate, createdAt string
		if err := rows.Scan(&e.ID, &e.AffiliateID, &asOf, &revenue, &tier, &rate, &createdAt); err != nil {
			return nil, err
		}
		if e.AsOf, err = calendar.Parse(asOf); err != nil {
			return nil, err
		}
		if e.Tier, err = affiliate.ParseTier(tier); err != nil {
			return nil, err
		}
		e.Revenue = decimal.RequireFromString(revenue)
		e.Rate = decimal.RequireFromString(rate)
		e.CreatedAt, _ = time.Parse(evaluatedAtLayout, createdAt)
		out = append(out, e)
	}
	return out, rows.Err()
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

// translate maps driver constraint errors to store sentinels.
func translate(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
	}
	return err
}

func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
