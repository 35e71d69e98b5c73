/*
Package affiliate implements the affiliate program's tier and commission rules.

PURPOSE:
  Affiliates earn a commission on the orders they refer. The rate depends
  on the affiliate's tier, and the tier depends on the net revenue the
  affiliate referred over the trailing 30 days.

TIERS (inclusive lower bound, whole currency units):
  Starter  >=  10,000   10%
  Growth   >=  25,000   14%
  Scale    >=  75,000   18%
  Elite    >= 150,000   21%
  Apex     >= 250,000   23%

  Revenue below 10,000 still maps to Starter: there is no unranked state.

REVENUE:
  Orders are stored in cents. Net referred revenue counts paid orders only;
  refunds and chargebacks are excluded, as are orders still pending.

ORDER LIFECYCLE:
  pending -> paid -> refunded | chargeback
  pending -> cancelled

PURITY:
  CalculateTier, CommissionRate, Evaluate and Commission are pure functions
  over immutable data and are safe for concurrent use.

EXAMPLE:
  revenue := affiliate.NetReferredRevenue(orders, calendar.TrailingWindow(today, 30))
  eval := affiliate.Evaluate(revenue)
  cents := affiliate.Commission(order.AmountCents, eval.Tier)

SEE ALSO:
  - tier.go: tier table and lookups
  - commission.go: revenue aggregation and commission amounts
  - store/sqlite: the same revenue aggregation in SQL
*/
package affiliate

import (
	"time"

	"github.com/peptora/backoffice/calendar"
)

// RevenueWindowDays is the length of the trailing window tiers are computed on.
const RevenueWindowDays = 30

// =============================================================================
// AFFILIATE
// =============================================================================

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

type Affiliate struct {
	ID        string
	Name      string
	Email     string
	Code      string // referral code used in links
	Status    Status
	CreatedAt time.Time
}

// CanEarn reports whether referred orders should accrue commission.
func (a Affiliate) CanEarn() bool { return a.Status == StatusApproved }

// Review moves a pending application to approved or rejected.
func (a *Affiliate) Review(to Status) error {
	if to != StatusApproved && to != StatusRejected {
		return &TransitionError{From: a.Status, To: to}
	}
	if a.Status != StatusPending {
		return &TransitionError{From: a.Status, To: to}
	}
	a.Status = to
	return nil
}

// =============================================================================
// ORDERS
// =============================================================================

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderPaid       OrderStatus = "paid"
	OrderRefunded   OrderStatus = "refunded"
	OrderChargeback OrderStatus = "chargeback"
	OrderCancelled  OrderStatus = "cancelled"
)

// Order is a storefront order attributed to an affiliate.
type Order struct {
	ID          string
	AffiliateID string
	AmountCents int64
	Status      OrderStatus
	PlacedOn    calendar.Date
	CreatedAt   time.Time
}

// CountsTowardRevenue is false for anything not (or no longer) paid.
func (o Order) CountsTowardRevenue() bool { return o.Status == OrderPaid }

// MarkPaid settles a pending order.
func (o *Order) MarkPaid() error {
	if o.Status != OrderPending {
		return &OrderTransitionError{OrderID: o.ID, From: o.Status, To: OrderPaid}
	}
	o.Status = OrderPaid
	return nil
}

// Cancel drops a pending order that was never paid.
func (o *Order) Cancel() error {
	if o.Status != OrderPending {
		return &OrderTransitionError{OrderID: o.ID, From: o.Status, To: OrderCancelled}
	}
	o.Status = OrderCancelled
	return nil
}

// Reverse marks a paid order refunded or charged back.
func (o *Order) Reverse(to OrderStatus) error {
	if to != OrderRefunded && to != OrderChargeback {
		return &OrderTransitionError{OrderID: o.ID, From: o.Status, To: to}
	}
	if o.Status != OrderPaid {
		return &OrderTransitionError{OrderID: o.ID, From: o.Status, To: to}
	}
	o.Status = to
	return nil
}

// =============================================================================
// COMMISSIONS & PAYOUTS
// =============================================================================

type CommissionStatus string

const (
	CommissionPending  CommissionStatus = "pending"
	CommissionPaid     CommissionStatus = "paid"
	CommissionReversed CommissionStatus = "reversed"
)

// CommissionEntry is the commission earned on one order.
type CommissionEntry struct {
	ID          string
	AffiliateID string
	OrderID     string
	Tier        Tier
	AmountCents int64
	Status      CommissionStatus
	PayoutID    string
	CreatedAt   time.Time
}

// Payout bundles pending commissions paid out together.
type Payout struct {
	ID            string
	AffiliateID   string
	AmountCents   int64
	CommissionIDs []string
	CreatedAt     time.Time
}
