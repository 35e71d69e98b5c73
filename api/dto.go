/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the domain packages (which carry no JSON tags) from the external contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  Order and commission amounts are integer cents. Revenue figures and rates
  are decimals, which encode as JSON strings ("30500.5", "0.14") so no
  precision is lost in transit.

VALIDATION:
  Request types carry go-playground/validator tags, checked by decode().

SEE ALSO:
  - handlers.go, schedule_handlers.go: Use these types
  - factory/schedule.go: ScheduleJSON request type
*/
package api

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/peptora/backoffice/affiliate"
	"github.com/peptora/backoffice/calendar"
	"github.com/peptora/backoffice/protocol"
	"github.com/peptora/backoffice/store/sqlite"
)

// =============================================================================
// TIERS
// =============================================================================

// TierBandDTO is one row of the tier table.
type TierBandDTO struct {
	Tier       affiliate.Tier  `json:"tier"`
	MinRevenue decimal.Decimal `json:"min_revenue"`
	Rate       decimal.Decimal `json:"rate"`
}

// TierDTO is an affiliate's standing over a trailing window.
type TierDTO struct {
	AffiliateID   string          `json:"affiliate_id"`
	AsOf          calendar.Date   `json:"as_of"`
	WindowStart   calendar.Date   `json:"window_start"`
	WindowEnd     calendar.Date   `json:"window_end"`
	Revenue       decimal.Decimal `json:"revenue"`
	Tier          affiliate.Tier  `json:"tier"`
	Rate          decimal.Decimal `json:"rate"`
	NextTier      *affiliate.Tier `json:"next_tier"`
	RevenueToNext decimal.Decimal `json:"revenue_to_next"`
}

// TierEvaluationDTO is a recorded evaluation.
type TierEvaluationDTO struct {
	ID        string          `json:"id"`
	AsOf      calendar.Date   `json:"as_of"`
	Revenue   decimal.Decimal `json:"revenue"`
	Tier      affiliate.Tier  `json:"tier"`
	Rate      decimal.Decimal `json:"rate"`
	CreatedAt string          `json:"created_at"`
}

// =============================================================================
// AFFILIATES
// =============================================================================

// AffiliateDTO represents an affiliate in API responses.
type AffiliateDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Code      string `json:"code"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateAffiliateRequest is an affiliate application.
type CreateAffiliateRequest struct {
	ID    string `json:"id" validate:"omitempty,max=64"`
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,alphanum,max=32"`
}

// =============================================================================
// ORDERS & COMMISSIONS
// =============================================================================

// CreateOrderRequest attributes a storefront order to an affiliate.
type CreateOrderRequest struct {
	ID          string `json:"id" validate:"omitempty,max=64"`
	AffiliateID string `json:"affiliate_id" validate:"required"`
	AmountCents int64  `json:"amount_cents" validate:"gte=0"`
	Status      string `json:"status" validate:"omitempty,oneof=pending paid"`
	PlacedOn    string `json:"placed_on" validate:"omitempty,datetime=2006-01-02"`
}

// OrderDTO represents an order in API responses.
type OrderDTO struct {
	ID          string        `json:"id"`
	AffiliateID string        `json:"affiliate_id"`
	AmountCents int64         `json:"amount_cents"`
	Status      string        `json:"status"`
	PlacedOn    calendar.Date `json:"placed_on"`
}

// CommissionDTO represents a commission entry in API responses.
type CommissionDTO struct {
	ID          string         `json:"id"`
	OrderID     string         `json:"order_id"`
	Tier        affiliate.Tier `json:"tier"`
	AmountCents int64          `json:"amount_cents"`
	Status      string         `json:"status"`
	PayoutID    *string        `json:"payout_id"`
	CreatedAt   string         `json:"created_at"`
}

// OrderResponse is returned when an order is recorded or reversed.
type OrderResponse struct {
	Order      OrderDTO       `json:"order"`
	Commission *CommissionDTO `json:"commission"`
}

// OrdersResponse lists orders placed in a range with the revenue they count for.
type OrdersResponse struct {
	From       calendar.Date   `json:"from"`
	To         calendar.Date   `json:"to"`
	Orders     []OrderDTO      `json:"orders"`
	NetRevenue decimal.Decimal `json:"net_revenue"`
}

// CommissionsResponse lists commissions with their pending total.
type CommissionsResponse struct {
	Commissions  []CommissionDTO `json:"commissions"`
	PendingCents int64           `json:"pending_cents"`
}

// PayoutDTO represents a payout in API responses.
type PayoutDTO struct {
	ID            string   `json:"id"`
	AffiliateID   string   `json:"affiliate_id"`
	AmountCents   int64    `json:"amount_cents"`
	CommissionIDs []string `json:"commission_ids"`
	CreatedAt     string   `json:"created_at"`
}

// =============================================================================
// SCHEDULES
// =============================================================================

// EntryDTO is one administration day.
type EntryDTO struct {
	Date      calendar.Date `json:"date"`
	DayOfWeek string        `json:"day_of_week"`
	TimeOfDay string        `json:"time_of_day"`
	Week      int           `json:"week"`
}

// RunDTO is a run of consecutive days with the same time of day.
type RunDTO struct {
	DateRange string          `json:"date_range"`
	Dates     []calendar.Date `json:"dates"`
	TimeOfDay string          `json:"time_of_day"`
	Count     int             `json:"count"`
}

// WeekDTO is one row of the calendar grid.
type WeekDTO struct {
	Year    int        `json:"year"`
	Number  int        `json:"number"`
	Entries []EntryDTO `json:"entries"`
}

// ScheduleResponse is a generated protocol schedule in three shapes.
type ScheduleResponse struct {
	Frequency    string        `json:"frequency"`
	TimeOfDay    string        `json:"time_of_day"`
	DurationDays int           `json:"duration_days"`
	StartDate    calendar.Date `json:"start_date"`
	TotalDays    int           `json:"total_days"`
	Entries      []EntryDTO    `json:"entries"`
	Runs         []RunDTO      `json:"runs"`
	Weeks        []WeekDTO     `json:"weeks"`
}

// =============================================================================
// SCENARIOS & ERRORS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toAffiliateDTO(a affiliate.Affiliate) AffiliateDTO {
	return AffiliateDTO{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Code:      a.Code,
		Status:    string(a.Status),
		CreatedAt: formatTime(a.CreatedAt),
	}
}

func toOrderDTO(o affiliate.Order) OrderDTO {
	return OrderDTO{
		ID:          o.ID,
		AffiliateID: o.AffiliateID,
		AmountCents: o.AmountCents,
		Status:      string(o.Status),
		PlacedOn:    o.PlacedOn,
	}
}

func toCommissionDTO(c affiliate.CommissionEntry) CommissionDTO {
	dto := CommissionDTO{
		ID:          c.ID,
		OrderID:     c.OrderID,
		Tier:        c.Tier,
		AmountCents: c.AmountCents,
		Status:      string(c.Status),
		CreatedAt:   formatTime(c.CreatedAt),
	}
	if c.PayoutID != "" {
		dto.PayoutID = lo.ToPtr(c.PayoutID)
	}
	return dto
}

func toPayoutDTO(p affiliate.Payout) PayoutDTO {
	return PayoutDTO{
		ID:            p.ID,
		AffiliateID:   p.AffiliateID,
		AmountCents:   p.AmountCents,
		CommissionIDs: lo.Ternary(p.CommissionIDs == nil, []string{}, p.CommissionIDs),
		CreatedAt:     formatTime(p.CreatedAt),
	}
}

func toTierDTO(affiliateID string, asOf calendar.Date, window calendar.Range, eval affiliate.Evaluation) TierDTO {
	return TierDTO{
		AffiliateID:   affiliateID,
		AsOf:          asOf,
		WindowStart:   window.Start,
		WindowEnd:     window.End,
		Revenue:       eval.Revenue,
		Tier:          eval.Tier,
		Rate:          eval.Rate,
		NextTier:      eval.NextTier,
		RevenueToNext: eval.RevenueToNext,
	}
}

func toTierEvaluationDTO(e sqlite.TierEvaluation) TierEvaluationDTO {
	return TierEvaluationDTO{
		ID:        e.ID,
		AsOf:      e.AsOf,
		Revenue:   e.Revenue,
		Tier:      e.Tier,
		Rate:      e.Rate,
		CreatedAt: formatTime(e.CreatedAt),
	}
}

func toEntryDTOs(entries []protocol.Entry) []EntryDTO {
	return lo.Map(entries, func(e protocol.Entry, _ int) EntryDTO {
		return EntryDTO{Date: e.Date, DayOfWeek: e.DayOfWeek, TimeOfDay: string(e.TimeOfDay), Week: e.Week}
	})
}

func toScheduleResponse(s protocol.Schedule) ScheduleResponse {
	runs := lo.Map(protocol.Simplify(s.Entries), func(r protocol.SimplifiedEntry, _ int) RunDTO {
		return RunDTO{DateRange: r.DateRange, Dates: r.Dates, TimeOfDay: string(r.TimeOfDay), Count: r.Count}
	})
	weeks := lo.Map(protocol.Weeks(s.Entries), func(w protocol.Week, _ int) WeekDTO {
		return WeekDTO{Year: w.Year, Number: w.Number, Entries: toEntryDTOs(w.Entries)}
	})
	return ScheduleResponse{
		Frequency:    string(s.Frequency),
		TimeOfDay:    string(s.TimeOfDay),
		DurationDays: s.DurationDays,
		StartDate:    s.StartDate,
		TotalDays:    s.TotalDays,
		Entries:      toEntryDTOs(s.Entries),
		Runs:         runs,
		Weeks:        weeks,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
