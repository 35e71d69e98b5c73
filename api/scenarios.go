/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Provides pre-built scenarios that populate the database with realistic
  affiliate data. Each scenario creates affiliates and orders (dated
  relative to today) that demonstrate one part of the program.

AVAILABLE SCENARIOS:
  new-affiliates:     One pending application, one fresh Starter affiliate
  tier-climb:         Affiliate whose trailing revenue lifts them to Scale
  refunds-payouts:    Refunds, a chargeback and an earlier payout

HOW SCENARIOS WORK:
  1. Reset database (clear all data)
  2. Create affiliates (approved ones go through Review)
  3. Record orders through the same path as POST /api/orders, so
     commissions carry the tier held on each order's date

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "tier-climb"}

NOTE:
  Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: recordOrder
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/samber/lo"

	"github.com/peptora/backoffice/affiliate"
	"github.com/peptora/backoffice/calendar"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "new-affiliates",
		Name:        "New Affiliates",
		Description: "A pending application and a newly approved affiliate at Starter",
		Category:    "affiliates",
	},
	{
		ID:          "tier-climb",
		Name:        "Tier Climb",
		Description: "Rising monthly revenue moves an affiliate from Starter to Scale",
		Category:    "tiers",
	},
	{
		ID:          "refunds-payouts",
		Name:        "Refunds & Payouts",
		Description: "Refunded and charged-back orders, a completed payout and pending commission",
		Category:    "commissions",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.scenarioMu.Lock()
	current := h.currentScenario
	h.scenarioMu.Unlock()

	s, ok := lo.Find(scenarios, func(s ScenarioDTO) bool { return s.ID == current })
	if !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// LoadScenario resets the database and loads the requested scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}

	loaders := map[string]func(context.Context) error{
		"new-affiliates":  h.loadNewAffiliatesScenario,
		"tier-climb":      h.loadTierClimbScenario,
		"refunds-payouts": h.loadRefundsPayoutsScenario,
	}
	load, ok := loaders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusNotFound, "Scenario not found", fmt.Errorf("unknown scenario %q", req.ScenarioID))
		return
	}

	h.scenarioMu.Lock()
	defer h.scenarioMu.Unlock()

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		h.writeDomainError(w, "Failed to reset database", err)
		return
	}
	if err := load(ctx); err != nil {
		h.writeDomainError(w, "Failed to load scenario", err)
		return
	}
	h.currentScenario = req.ScenarioID

	h.log.WithField("scenario", req.ScenarioID).Info("Scenario loaded")
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.scenarioMu.Lock()
	defer h.scenarioMu.Unlock()

	if err := h.Store.Reset(r.Context()); err != nil {
		h.writeDomainError(w, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// LOADERS
// =============================================================================

func (h *Handler) loadNewAffiliatesScenario(ctx context.Context) error {
	if _, err := h.createScenarioAffiliate(ctx, "aff-pending", "Jordan Reyes", "JORDAN", false); err != nil {
		return err
	}
	a, err := h.createScenarioAffiliate(ctx, "aff-starter", "Sam Patel", "SAMP", true)
	if err != nil {
		return err
	}

	today := h.today()
	return h.createScenarioOrders(ctx, *a, []scenarioOrder{
		{id: "ord-starter-1", cents: 12_500, daysAgo: 6},
		{id: "ord-starter-2", cents: 8_900, daysAgo: 2},
		{id: "ord-starter-3", cents: 21_000, daysAgo: 0, status: affiliate.OrderPending},
	}, today)
}

// loadTierClimbScenario spreads orders over 90 days with growing volume, so
// the trailing window crosses Growth and then Scale.
func (h *Handler) loadTierClimbScenario(ctx context.Context) error {
	a, err := h.createScenarioAffiliate(ctx, "aff-climber", "Riley Chen", "RILEY", true)
	if err != nil {
		return err
	}

	var orders []scenarioOrder
	for daysAgo := 89; daysAgo >= 0; daysAgo -= 3 {
		// 1,000.00 per order three months back, rising to 14,050.00
		cents := int64(100_000 + (89-daysAgo)*15_000)
		orders = append(orders, scenarioOrder{id: fmt.Sprintf("ord-climb-%02d", daysAgo), cents: cents, daysAgo: daysAgo})
	}
	return h.createScenarioOrders(ctx, *a, orders, h.today())
}

func (h *Handler) loadRefundsPayoutsScenario(ctx context.Context) error {
	a, err := h.createScenarioAffiliate(ctx, "aff-refunds", "Morgan Diaz", "MORGAN", true)
	if err != nil {
		return err
	}

	today := h.today()
	if err := h.createScenarioOrders(ctx, *a, []scenarioOrder{
		{id: "ord-ref-1", cents: 450_000, daysAgo: 40},
		{id: "ord-ref-2", cents: 300_000, daysAgo: 35},
	}, today); err != nil {
		return err
	}
	if _, err := h.Store.CreatePayout(ctx, "po-scenario-1", a.ID); err != nil {
		return err
	}

	if err := h.createScenarioOrders(ctx, *a, []scenarioOrder{
		{id: "ord-ref-3", cents: 600_000, daysAgo: 20},
		{id: "ord-ref-4", cents: 1_250_000, daysAgo: 12},
		{id: "ord-ref-5", cents: 275_000, daysAgo: 5},
		{id: "ord-ref-6", cents: 980_000, daysAgo: 1},
	}, today); err != nil {
		return err
	}
	if _, err := h.Store.ReverseOrder(ctx, "ord-ref-4", affiliate.OrderRefunded); err != nil {
		return err
	}
	_, err = h.Store.ReverseOrder(ctx, "ord-ref-5", affiliate.OrderChargeback)
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

type scenarioOrder struct {
	id      string
	cents   int64
	daysAgo int
	status  affiliate.OrderStatus // defaults to paid
}

func (h *Handler) createScenarioAffiliate(ctx context.Context, id, name, code string, approve bool) (*affiliate.Affiliate, error) {
	a := affiliate.Affiliate{
		ID:        id,
		Name:      name,
		Email:     fmt.Sprintf("%s@example.com", id),
		Code:      code,
		Status:    affiliate.StatusPending,
		CreatedAt: h.Now().UTC(),
	}
	if approve {
		if err := a.Review(affiliate.StatusApproved); err != nil {
			return nil, err
		}
	}
	if err := h.Store.SaveAffiliate(ctx, a); err != nil {
		return nil, fmt.Errorf("scenario affiliate %s: %w", id, err)
	}
	return &a, nil
}

// createScenarioOrders records orders oldest first so each commission sees
// the revenue that preceded it.
func (h *Handler) createScenarioOrders(ctx context.Context, a affiliate.Affiliate, orders []scenarioOrder, today calendar.Date) error {
	for _, o := range orders {
		order := affiliate.Order{
			ID:          o.id,
			AffiliateID: a.ID,
			AmountCents: o.cents,
			Status:      lo.Ternary(o.status != "", o.status, affiliate.OrderPaid),
			PlacedOn:    today.AddDays(-o.daysAgo),
			CreatedAt:   h.Now().UTC(),
		}
		if _, err := h.recordOrder(ctx, a, order); err != nil {
			return fmt.Errorf("scenario order %s: %w", o.id, err)
		}
	}
	return nil
}
