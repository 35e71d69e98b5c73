/*
handlers.go - HTTP API handlers for the affiliate program

PURPOSE:
  Exposes the tier and commission engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the affiliate
  package and the store.

ENDPOINTS:
  Tiers:
    GET    /api/tiers                          Tier table

  Affiliates:
    GET    /api/affiliates                     List (optional ?status=)
    POST   /api/affiliates                     Submit an application
    GET    /api/affiliates/{id}                Get affiliate
    POST   /api/affiliates/{id}/approve        Approve a pending application
    POST   /api/affiliates/{id}/reject         Reject a pending application
    GET    /api/affiliates/{id}/tier           Trailing 30-day tier (?as_of=)
    GET    /api/affiliates/{id}/tier/history   Recorded tier changes
    GET    /api/affiliates/{id}/orders         Orders by placed_on (?from=&to=)

  Orders:
    POST   /api/orders                         Record an attributed order
    POST   /api/orders/{id}/pay                Settle a pending order
    POST   /api/orders/{id}/cancel             Cancel a pending order
    POST   /api/orders/{id}/refund             Refund a paid order
    POST   /api/orders/{id}/chargeback         Charge back a paid order

  Commissions & payouts:
    GET    /api/affiliates/{id}/commissions    List (optional ?status=)
    GET    /api/affiliates/{id}/payouts        List payouts
    POST   /api/affiliates/{id}/payouts        Pay out pending commissions

COMMISSION RULE:
  A paid order from an approved affiliate earns commission at the tier the
  affiliate holds on the order's placed_on date. That tier is computed from
  the trailing window BEFORE the order is stored, so an order never lifts
  its own rate. A pending order earns nothing until it is paid; paying it
  applies the same rule inside the store transaction. Refunds and
  chargebacks reverse a still-pending commission; commissions already paid
  out stay paid.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (duplicate, invalid status transition, nothing to pay)
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. Deploy behind the back-office proxy.

SEE ALSO:
  - dto.go: Request/response data structures
  - schedule_handlers.go: Protocol schedule endpoints
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/peptora/backoffice/affiliate"
	"github.com/peptora/backoffice/calendar"
	"github.com/peptora/backoffice/factory"
	"github.com/peptora/backoffice/logger"
	"github.com/peptora/backoffice/protocol"
	"github.com/peptora/backoffice/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     *sqlite.Store
	Schedules *factory.ScheduleFactory

	// Location decides which calendar day "today" is.
	Location *time.Location
	Now      func() time.Time

	log      *logrus.Entry
	validate *validator.Validate

	// Track currently loaded scenario
	scenarioMu      sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.Local
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		return name
	})
	return &Handler{
		Store:     store,
		Schedules: factory.NewScheduleFactory(loc),
		Location:  loc,
		Now:       time.Now,
		log:       logger.WithComponent("api"),
		validate:  v,
	}
}

func (h *Handler) today() calendar.Date {
	return calendar.FromTime(h.Now().In(h.Location))
}

// =============================================================================
// TIER HANDLERS
// =============================================================================

// ListTiers returns the tier table, lowest first.
func (h *Handler) ListTiers(w http.ResponseWriter, r *http.Request) {
	bands := lo.Map(affiliate.Tiers(), func(b affiliate.TierBand, _ int) TierBandDTO {
		return TierBandDTO{Tier: b.Tier, MinRevenue: b.MinRevenue, Rate: b.Rate}
	})
	writeJSON(w, http.StatusOK, bands)
}

// GetTier returns the affiliate's trailing-window standing as of ?as_of
// (default today).
func (h *Handler) GetTier(w http.ResponseWriter, r *http.Request) {
	a, ok := h.loadAffiliate(w, r)
	if !ok {
		return
	}

	asOf := h.today()
	if s := r.URL.Query().Get("as_of"); s != "" {
		var err error
		if asOf, err = calendar.Parse(s); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of", err)
			return
		}
	}

	eval, window, err := h.evaluateTier(r.Context(), a.ID, asOf)
	if err != nil {
		h.writeDomainError(w, "Failed to evaluate tier", err)
		return
	}
	writeJSON(w, http.StatusOK, toTierDTO(a.ID, asOf, window, eval))
}

// GetTierHistory returns recorded tier evaluations, newest first.
func (h *Handler) GetTierHistory(w http.ResponseWriter, r *http.Request) {
	a, ok := h.loadAffiliate(w, r)
	if !ok {
		return
	}

	evals, err := h.Store.ListTierEvaluations(r.Context(), a.ID)
	if err != nil {
		h.writeDomainError(w, "Failed to list tier history", err)
		return
	}
	writeJSON(w, http.StatusOK, lo.Map(evals, func(e sqlite.TierEvaluation, _ int) TierEvaluationDTO {
		return toTierEvaluationDTO(e)
	}))
}

// evaluateTier computes the standing from paid orders in the trailing
// window ending on asOf.
func (h *Handler) evaluateTier(ctx context.Context, affiliateID string, asOf calendar.Date) (affiliate.Evaluation, calendar.Range, error) {
	window := calendar.TrailingWindow(asOf, affiliate.RevenueWindowDays)
	cents, err := h.Store.NetRevenueCents(ctx, affiliateID, window)
	if err != nil {
		return affiliate.Evaluation{}, window, fmt.Errorf("net revenue for %s: %w", affiliateID, err)
	}
	return affiliate.Evaluate(affiliate.RevenueFromCents(cents)), window, nil
}

// =============================================================================
// AFFILIATE HANDLERS
// =============================================================================

// ListAffiliates returns affiliates, optionally filtered by ?status.
func (h *Handler) ListAffiliates(w http.ResponseWriter, r *http.Request) {
	status := affiliate.Status(r.URL.Query().Get("status"))
	if status != "" && !lo.Contains([]affiliate.Status{affiliate.StatusPending, affiliate.StatusApproved, affiliate.StatusRejected}, status) {
		writeError(w, http.StatusBadRequest, "Invalid status", fmt.Errorf("unknown status %q", status))
		return
	}

	affiliates, err := h.Store.ListAffiliates(r.Context(), status)
	if err != nil {
		h.writeDomainError(w, "Failed to list affiliates", err)
		return
	}
	writeJSON(w, http.StatusOK, lo.Map(affiliates, func(a affiliate.Affiliate, _ int) AffiliateDTO {
		return toAffiliateDTO(a)
	}))
}

// CreateAffiliate records a pending application.
func (h *Handler) CreateAffiliate(w http.ResponseWriter, r *http.Request) {
	var req CreateAffiliateRequest
	if !h.decode(w, r, &req) {
		return
	}

	a := affiliate.Affiliate{
		ID:        lo.Ternary(req.ID != "", req.ID, newID("aff")),
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Code:      strings.ToUpper(req.Code),
		Status:    affiliate.StatusPending,
		CreatedAt: h.Now().UTC(),
	}
	if err := h.Store.SaveAffiliate(r.Context(), a); err != nil {
		h.writeDomainError(w, "Failed to create affiliate", err)
		return
	}

	h.log.WithFields(logrus.Fields{"affiliate_id": a.ID, "code": a.Code}).Info("Affiliate application received")
	writeJSON(w, http.StatusCreated, toAffiliateDTO(a))
}

// GetAffiliate returns a single affiliate.
func (h *Handler) GetAffiliate(w http.ResponseWriter, r *http.Request) {
	a, ok := h.loadAffiliate(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toAffiliateDTO(*a))
}

// ApproveAffiliate approves a pending application.
func (h *Handler) ApproveAffiliate(w http.ResponseWriter, r *http.Request) {
	h.reviewAffiliate(w, r, affiliate.StatusApproved)
}

// RejectAffiliate rejects a pending application.
func (h *Handler) RejectAffiliate(w http.ResponseWriter, r *http.Request) {
	h.reviewAffiliate(w, r, affiliate.StatusRejected)
}

func (h *Handler) reviewAffiliate(w http.ResponseWriter, r *http.Request, to affiliate.Status) {
	a, err := h.Store.ReviewAffiliate(r.Context(), chi.URLParam(r, "id"), to)
	if err != nil {
		h.writeDomainError(w, "Cannot review affiliate", err)
		return
	}

	h.log.WithFields(logrus.Fields{"affiliate_id": a.ID, "status": a.Status}).Info("Affiliate reviewed")
	writeJSON(w, http.StatusOK, toAffiliateDTO(*a))
}

// loadAffiliate fetches {id} and writes a 404 when it is missing.
func (h *Handler) loadAffiliate(w http.ResponseWriter, r *http.Request) (*affiliate.Affiliate, bool) {
	id := chi.URLParam(r, "id")
	a, err := h.Store.GetAffiliate(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to get affiliate", err)
		return nil, false
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "Affiliate not found", nil)
		return nil, false
	}
	return a, true
}

// =============================================================================
// ORDER HANDLERS
// =============================================================================

// CreateOrder records an attributed order and, when it earns one, its commission.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	a, err := h.Store.GetAffiliate(ctx, req.AffiliateID)
	if err != nil {
		h.writeDomainError(w, "Failed to get affiliate", err)
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "Affiliate not found", nil)
		return
	}

	order := affiliate.Order{
		ID:          lo.Ternary(req.ID != "", req.ID, newID("ord")),
		AffiliateID: a.ID,
		AmountCents: req.AmountCents,
		Status:      affiliate.OrderStatus(lo.Ternary(req.Status != "", req.Status, string(affiliate.OrderPaid))),
		PlacedOn:    h.today(),
		CreatedAt:   h.Now().UTC(),
	}
	if req.PlacedOn != "" {
		if order.PlacedOn, err = calendar.Parse(req.PlacedOn); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid placed_on", err)
			return
		}
	}

	commission, err := h.recordOrder(ctx, *a, order)
	if err != nil {
		h.writeDomainError(w, "Failed to record order", err)
		return
	}

	resp := OrderResponse{Order: toOrderDTO(order)}
	fields := logrus.Fields{"order_id": order.ID, "affiliate_id": a.ID, "amount_cents": order.AmountCents}
	if commission != nil {
		resp.Commission = lo.ToPtr(toCommissionDTO(*commission))
		fields["tier"] = commission.Tier.String()
		fields["commission_cents"] = commission.AmountCents
	}
	h.log.WithFields(fields).Info("Order recorded")
	writeJSON(w, http.StatusCreated, resp)
}

// recordOrder stores order together with the commission it earns, if any.
// The tier is evaluated before the order is stored.
func (h *Handler) recordOrder(ctx context.Context, a affiliate.Affiliate, order affiliate.Order) (*affiliate.CommissionEntry, error) {
	var commission *affiliate.CommissionEntry
	if order.CountsTowardRevenue() && a.CanEarn() {
		eval, _, err := h.evaluateTier(ctx, a.ID, order.PlacedOn)
		if err != nil {
			return nil, err
		}
		commission = &affiliate.CommissionEntry{
			ID:          newID("com"),
			AffiliateID: a.ID,
			OrderID:     order.ID,
			Tier:        eval.Tier,
			AmountCents: affiliate.Commission(order.AmountCents, eval.Tier),
			Status:      affiliate.CommissionPending,
			CreatedAt:   order.CreatedAt,
		}
	}

	if err := h.Store.RecordOrder(ctx, order, commission); err != nil {
		return nil, err
	}
	return commission, nil
}

// PayOrder settles a pending order and creates its commission, if it earns one.
func (h *Handler) PayOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	order, commission, err := h.Store.PayOrder(r.Context(), id, newID("com"), h.Now())
	if err != nil {
		h.writeDomainError(w, "Cannot pay order", err)
		return
	}

	resp := OrderResponse{Order: toOrderDTO(*order)}
	fields := logrus.Fields{"order_id": order.ID, "affiliate_id": order.AffiliateID}
	if commission != nil {
		resp.Commission = lo.ToPtr(toCommissionDTO(*commission))
		fields["tier"] = commission.Tier.String()
		fields["commission_cents"] = commission.AmountCents
	}
	h.log.WithFields(fields).Info("Order paid")
	writeJSON(w, http.StatusOK, resp)
}

// CancelOrder cancels a pending order.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.Store.CancelOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Cannot cancel order", err)
		return
	}

	h.log.WithField("order_id", order.ID).Info("Order cancelled")
	writeJSON(w, http.StatusOK, toOrderDTO(*order))
}

// ListOrders returns the affiliate's orders placed between ?from and ?to,
// by default the trailing revenue window ending today.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	a, ok := h.loadAffiliate(w, r)
	if !ok {
		return
	}

	window := calendar.TrailingWindow(h.today(), affiliate.RevenueWindowDays)
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  *calendar.Date
	}{{"from", &window.Start}, {"to", &window.End}} {
		s := q.Get(p.name)
		if s == "" {
			continue
		}
		d, err := calendar.Parse(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid "+p.name, err)
			return
		}
		*p.dst = d
	}
	if window.IsEmpty() {
		writeError(w, http.StatusBadRequest, "Invalid range", fmt.Errorf("from %s is after to %s", window.Start, window.End))
		return
	}

	orders, err := h.Store.ListOrders(r.Context(), a.ID, window)
	if err != nil {
		h.writeDomainError(w, "Failed to list orders", err)
		return
	}
	writeJSON(w, http.StatusOK, OrdersResponse{
		From:       window.Start,
		To:         window.End,
		Orders:     lo.Map(orders, func(o affiliate.Order, _ int) OrderDTO { return toOrderDTO(o) }),
		NetRevenue: affiliate.NetReferredRevenue(orders, window),
	})
}

// RefundOrder marks a paid order refunded.
func (h *Handler) RefundOrder(w http.ResponseWriter, r *http.Request) {
	h.reverseOrder(w, r, affiliate.OrderRefunded)
}

// ChargebackOrder marks a paid order charged back.
func (h *Handler) ChargebackOrder(w http.ResponseWriter, r *http.Request) {
	h.reverseOrder(w, r, affiliate.OrderChargeback)
}

func (h *Handler) reverseOrder(w http.ResponseWriter, r *http.Request, to affiliate.OrderStatus) {
	id := chi.URLParam(r, "id")
	order, err := h.Store.ReverseOrder(r.Context(), id, to)
	if err != nil {
		h.writeDomainError(w, "Cannot reverse order", err)
		return
	}

	h.log.WithFields(logrus.Fields{"order_id": order.ID, "status": order.Status}).Info("Order reversed")
	writeJSON(w, http.StatusOK, toOrderDTO(*order))
}

// =============================================================================
// COMMISSION & PAYOUT HANDLERS
// =============================================================================

// ListCommissions returns the affiliate's commissions, optionally by ?status.
func (h *Handler) ListCommissions(w http.ResponseWriter, r *http.Request) {
	a, ok := h.loadAffiliate(w, r)
	if !ok {
		return
	}

	status := affiliate.CommissionStatus(r.URL.Query().Get("status"))
	if status != "" && !lo.Contains([]affiliate.CommissionStatus{affiliate.CommissionPending, affiliate.CommissionPaid, affiliate.CommissionReversed}, status) {
		writeError(w, http.StatusBadRequest, "Invalid status", fmt.Errorf("unknown status %q", status))
		return
	}

	entries, err := h.Store.ListCommissions(r.Context(), a.ID, status)
	if err != nil {
		h.writeDomainError(w, "Failed to list commissions", err)
		return
	}

	writeJSON(w, http.StatusOK, CommissionsResponse{
		Commissions: lo.Map(entries, func(c affiliate.CommissionEntry, _ int) CommissionDTO { return toCommissionDTO(c) }),
		PendingCents: lo.SumBy(entries, func(c affiliate.CommissionEntry) int64 {
			return lo.Ternary(c.Status == affiliate.CommissionPending, c.AmountCents, 0)
		}),
	})
}

// CreatePayout pays out every pending commission of an approved affiliate.
func (h *Handler) CreatePayout(w http.ResponseWriter, r *http.Request) {
	a, ok := h.loadAffiliate(w, r)
	if !ok {
		return
	}
	if !a.CanEarn() {
		h.writeDomainError(w, "Cannot create payout", fmt.Errorf("%w: status %s", affiliate.ErrNotEligible, a.Status))
		return
	}

	payout, err := h.Store.CreatePayout(r.Context(), newID("po"), a.ID)
	if err != nil {
		h.writeDomainError(w, "Cannot create payout", err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"payout_id":    payout.ID,
		"affiliate_id": a.ID,
		"amount_cents": payout.AmountCents,
		"commissions":  len(payout.CommissionIDs),
	}).Info("Payout created")
	writeJSON(w, http.StatusCreated, toPayoutDTO(*payout))
}

// ListPayouts returns the affiliate's payouts, newest first.
func (h *Handler) ListPayouts(w http.ResponseWriter, r *http.Request) {
	a, ok := h.loadAffiliate(w, r)
	if !ok {
		return
	}

	payouts, err := h.Store.ListPayouts(r.Context(), a.ID)
	if err != nil {
		h.writeDomainError(w, "Failed to list payouts", err)
		return
	}
	writeJSON(w, http.StatusOK, lo.Map(payouts, func(p affiliate.Payout, _ int) PayoutDTO { return toPayoutDTO(p) }))
}

// =============================================================================
// HELPERS
// =============================================================================

func newID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// decode reads a JSON body into dst and validates its struct tags. On
// failure it writes a 400 and returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := lo.Map(verrs, func(fe validator.FieldError, _ int) string {
				return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
			})
			writeError(w, http.StatusBadRequest, "Invalid request", errors.New(strings.Join(fields, "; ")))
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return false
	}
	return true
}

// writeDomainError maps package errors to HTTP status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, sqlite.ErrNotFound):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, sqlite.ErrDuplicate),
		errors.Is(err, affiliate.ErrInvalidTransition),
		errors.Is(err, affiliate.ErrNotEligible),
		errors.Is(err, affiliate.ErrNothingToPay):
		writeError(w, http.StatusConflict, message, err)
	case affiliate.IsClientError(err),
		protocol.IsClientError(err),
		errors.Is(err, factory.ErrInvalidSchedule),
		errors.Is(err, calendar.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.log.WithError(err).Error(message)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
