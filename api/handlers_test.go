/*
handlers_test.go - HTTP tests for the affiliate endpoints

Tests for:
- Tier table and trailing-window tier lookups
- Application review lifecycle
- Commission accrual on orders, reversal on refund/chargeback
- Pending orders: pay, cancel, listing by range
- Payouts
*/
package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peptora/backoffice/affiliate"
	"github.com/peptora/backoffice/store/sqlite"
)

var fixedNow = time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)

func setupTestHandler(t *testing.T) (*Handler, http.Handler) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := NewHandler(store, time.UTC)
	h.Now = func() time.Time { return fixedNow }
	return h, NewRouter(h, []string{"*"})
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// createApproved creates an affiliate through the API and approves it.
func createApproved(t *testing.T, router http.Handler, id string) {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/affiliates",
		`{"id":"`+id+`","name":"Test `+id+`","email":"`+id+`@example.com","code":"`+strings.ToUpper(id)+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = do(t, router, http.MethodPost, "/api/affiliates/"+id+"/approve", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func postOrder(t *testing.T, router http.Handler, body string) OrderResponse {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/orders", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[OrderResponse](t, rec)
}

// =============================================================================
// TIERS
// =============================================================================

func TestListTiers(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := do(t, router, http.MethodGet, "/api/tiers", "")
	require.Equal(t, http.StatusOK, rec.Code)

	bands := decodeBody[[]TierBandDTO](t, rec)
	require.Len(t, bands, 5)
	assert.Equal(t, affiliate.TierStarter, bands[0].Tier)
	assert.True(t, bands[0].Rate.Equal(decimal.RequireFromString("0.10")))
	assert.Equal(t, affiliate.TierApex, bands[4].Tier)
	assert.True(t, bands[4].MinRevenue.Equal(decimal.NewFromInt(250_000)))
	assert.Contains(t, rec.Body.String(), `"tier":"Growth"`)
}

func TestGetTier_TrailingWindow(t *testing.T) {
	// GIVEN: Paid orders inside and just outside the 30-day window
	_, router := setupTestHandler(t)
	createApproved(t, router, "ana")
	postOrder(t, router, `{"affiliate_id":"ana","amount_cents":2000000,"placed_on":"2025-02-13"}`) // outside
	postOrder(t, router, `{"affiliate_id":"ana","amount_cents":2550050,"placed_on":"2025-02-14"}`) // first day
	postOrder(t, router, `{"affiliate_id":"ana","amount_cents":500000,"placed_on":"2025-03-15"}`)

	// WHEN: The tier is requested as of today
	rec := do(t, router, http.MethodGet, "/api/affiliates/ana/tier", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tier := decodeBody[TierDTO](t, rec)

	// THEN: Only the window counts
	assert.Equal(t, "2025-03-15", tier.AsOf.String())
	assert.Equal(t, "2025-02-14", tier.WindowStart.String())
	assert.Equal(t, "30500.5", tier.Revenue.String())
	assert.Equal(t, affiliate.TierGrowth, tier.Tier)
	assert.True(t, tier.Rate.Equal(decimal.RequireFromString("0.14")))
	require.NotNil(t, tier.NextTier)
	assert.Equal(t, affiliate.TierScale, *tier.NextTier)
	assert.Equal(t, "44499.5", tier.RevenueToNext.String())

	// AND: An earlier as_of shifts the window
	rec = do(t, router, http.MethodGet, "/api/affiliates/ana/tier?as_of=2025-02-13", "")
	require.Equal(t, http.StatusOK, rec.Code)
	earlier := decodeBody[TierDTO](t, rec)
	assert.Equal(t, "20000", earlier.Revenue.String())
	assert.Equal(t, affiliate.TierStarter, earlier.Tier)
}

func TestGetTier_Errors(t *testing.T) {
	_, router := setupTestHandler(t)
	createApproved(t, router, "ana")

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/affiliates/ghost/tier", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/affiliates/ana/tier?as_of=03/15/2025", "").Code)
}

func TestGetTier_TopTierHasNoNext(t *testing.T) {
	_, router := setupTestHandler(t)
	createApproved(t, router, "ana")
	postOrder(t, router, `{"affiliate_id":"ana","amount_cents":25000000,"placed_on":"2025-03-01"}`)

	rec := do(t, router, http.MethodGet, "/api/affiliates/ana/tier", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"next_tier":null`)
	tier := decodeBody[TierDTO](t, rec)
	assert.Equal(t, affiliate.TierApex, tier.Tier)
	assert.True(t, tier.RevenueToNext.IsZero())
}

// =============================================================================
// AFFILIATES
// =============================================================================

func TestAffiliateLifecycle(t *testing.T) {
	_, router := setupTestHandler(t)

	// GIVEN: A new application
	rec := do(t, router, http.MethodPost, "/api/affiliates", `{"name":" Ana Lima ","email":"Ana@Example.com","code":"ana25"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[AffiliateDTO](t, rec)
	assert.True(t, strings.HasPrefix(created.ID, "aff_"))
	assert.Equal(t, "Ana Lima", created.Name)
	assert.Equal(t, "ana@example.com", created.Email)
	assert.Equal(t, "ANA25", created.Code)
	assert.Equal(t, "pending", created.Status)

	// WHEN: The same email applies again
	rec = do(t, router, http.MethodPost, "/api/affiliates", `{"name":"Other","email":"ana@example.com","code":"OTHER"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// WHEN: The application is approved
	rec = do(t, router, http.MethodPost, "/api/affiliates/"+created.ID+"/approve", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "approved", decodeBody[AffiliateDTO](t, rec).Status)

	// THEN: It cannot be reviewed again
	rec = do(t, router, http.MethodPost, "/api/affiliates/"+created.ID+"/reject", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, decodeBody[ErrorResponse](t, rec).Details, "approved")

	rec = do(t, router, http.MethodGet, "/api/affiliates?status=approved", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]AffiliateDTO](t, rec), 1)

	rec = do(t, router, http.MethodGet, "/api/affiliates?status=pending", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestCreateAffiliate_Validation(t *testing.T) {
	_, router := setupTestHandler(t)

	cases := map[string]string{
		"missing name":   `{"email":"a@example.com","code":"A"}`,
		"bad email":      `{"name":"A","email":"not-an-email","code":"A"}`,
		"code with dash": `{"name":"A","email":"a@example.com","code":"A-1"}`,
		"malformed":      `{"name":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/affiliates", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestAffiliates_NotFoundAndBadFilter(t *testing.T) {
	_, router := setupTestHandler(t)

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/affiliates/ghost", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodPost, "/api/affiliates/ghost/approve", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/affiliates?status=vip", "").Code)
}

// =============================================================================
// ORDERS & COMMISSIONS
// =============================================================================

func TestCreateOrder_CommissionAtCurrentTier(t *testing.T) {
	// GIVEN: An approved affiliate with no revenue yet
	_, router := setupTestHandler(t)
	createApproved(t, router, "ana")

	// WHEN: Orders are placed on the same day
	first := postOrder(t, router, `{"id":"o1","affiliate_id":"ana","amount_cents":2000000}`)
	second := postOrder(t, router, `{"id":"o2","affiliate_id":"ana","amount_cents":1000000}`)
	third := postOrder(t, router, `{"id":"o3","affiliate_id":"ana","amount_cents":500000}`)

	// THEN: Each is commissioned at the tier held before it
	assert.Equal(t, "2025-03-15", first.Order.PlacedOn.String())
	assert.Equal(t, "paid", first.Order.Status)
	require.NotNil(t, first.Commission)
	assert.Equal(t, affiliate.TierStarter, first.Commission.Tier)
	assert.Equal(t, int64(200_000), first.Commission.AmountCents)

	require.NotNil(t, second.Commission)
	assert.Equal(t, affiliate.TierStarter, second.Commission.Tier)
	assert.Equal(t, int64(100_000), second.Commission.AmountCents)

	require.NotNil(t, third.Commission)
	assert.Equal(t, affiliate.TierGrowth, third.Commission.Tier)
	assert.Equal(t, int64(70_000), third.Commission.AmountCents)

	rec := do(t, router, http.MethodGet, "/api/affiliates/ana/commissions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[CommissionsResponse](t, rec)
	assert.Len(t, list.Commissions, 3)
	assert.Equal(t, int64(370_000), list.PendingCents)
}

func TestCreateOrder_NoCommission(t *testing.T) {
	_, router := setupTestHandler(t)
	createApproved(t, router, "ana")
	rec := do(t, router, http.MethodPost, "/api/affiliates",
		`{"id":"pat","name":"Pat","email":"pat@example.com","code":"PAT"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Pending affiliate
	resp := postOrder(t, router, `{"affiliate_id":"pat","amount_cents":100000}`)
	assert.Nil(t, resp.Commission)

	// Unpaid order
	resp = postOrder(t, router, `{"affiliate_id":"ana","amount_cents":100000,"status":"pending"}`)
	assert.Nil(t, resp.Commission)
	assert.Equal(t, "pending", resp.Order.Status)
	assert.True(t, strings.HasPrefix(resp.Order.ID, "ord_"))
}

func TestCreateOrder_Errors(t *testing.T) {
	_, router := setupTestHandler(t)
	createApproved(t, router, "ana")
	postOrder(t, router, `{"id":"o1","affiliate_id":"ana","amount_cents":100}`)

	cases := []struct {
		name string
		body string
		code int
	}{
		{"unknown affiliate", `{"affiliate_id":"ghost","amount_cents":100}`, http.StatusNotFound},
		{"negative amount", `{"affiliate_id":"ana","amount_cents":-1}`, http.StatusBadRequest},
		{"refunded on create", `{"affiliate_id":"ana","amount_cents":1,"status":"refunded"}`, http.StatusBadRequest},
		{"bad date", `{"affiliate_id":"ana","amount_cents":1,"placed_on":"2025-02-30"}`, http.StatusBadRequest},
		{"duplicate id", `{"id":"o1","affiliate_id":"ana","amount_cents":100}`, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/orders", tc.body)
			assert.Equal(t, tc.code, rec.Code, rec.Body.String())
		})
	}
}

func TestRefundOrder_ReversesCommissionAndRevenue(t *testing.T) {
	// GIVEN: Two paid orders
	_, router := setupTestHandler(t)
	createApproved(t, router, "ana")
	postOrder(t, router, `{"id":"o1","affiliate_id":"ana","amount_cents":2000000}`)
	postOrder(t, router, `{"id":"o2","affiliate_id":"ana","amount_cents":1000000}`)

	// WHEN: One is refunded and the other charged back
	rec := do(t, router, http.MethodPost, "/api/orders/o1/refund", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "refunded", decodeBody[OrderDTO](t, rec).Status)
	rec = do(t, router, http.MethodPost, "/api/orders/o2/chargeback", "")
	require.Equal(t, http.StatusOK, rec.Code)

	// THEN: Revenue and pending commission are both gone
	tier := decodeBody[TierDTO](t, do(t, router, http.MethodGet, "/api/affiliates/ana/tier", ""))
	assert.True(t, tier.Revenue.IsZero())

	list := decodeBody[CommissionsResponse](t, do(t, router, http.MethodGet, "/api/affiliates/ana/commissions?status=reversed", ""))
	assert.Len(t, list.Commissions, 2)
	assert.Zero(t, list.PendingCents)

	// AND: Reversing twice or an unknown order is rejected
	assert.Equal(t, http.StatusConflict, do(t, router, http.MethodPost, "/api/orders/o1/chargeback", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodPost, "/api/orders/ghost/refund", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/affiliates/ana/commissions?status=void", "").Code)
}

func TestPendingOrder_PayThenRefund(t *testing.T) {
	// GIVEN: 20,000 paid and a pending order that would lift the affiliate to Growth
	_, router := setupTestHandler(t)
	createApproved(t, router, "ana")
	first := postOrder(t, router, `{"id":"o1","affiliate_id":"ana","amount_cents":2000000,"placed_on":"2025-03-10"}`)
	require.NotNil(t, first.Commission)
	assert.Equal(t, int64(200000), first.Commission.AmountCents)
	pending := postOrder(t, router, `{"id":"o2","affiliate_id":"ana","amount_cents":1000000,"status":"pending","placed_on":"2025-03-12"}`)
	assert.Nil(t, pending.Commission)

	// WHEN: The pending order is paid
	rec := do(t, router, http.MethodPost, "/api/orders/o2/pay", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	paid := decodeBody[OrderResponse](t, rec)

	// THEN: It earns at Starter, the tier held before it counted
	assert.Equal(t, "paid", paid.Order.Status)
	require.NotNil(t, paid.Commission)
	assert.Equal(t, affiliate.TierStarter, paid.Commission.Tier)
	assert.Equal(t, int64(100000), paid.Commission.AmountCents)
	assert.True(t, strings.HasPrefix(paid.Commission.ID, "com_"))

	// AND: It counts toward revenue
	tier := decodeBody[TierDTO](t, do(t, router, http.MethodGet, "/api/affiliates/ana/tier", ""))
	assert.Equal(t, affiliate.TierGrowth, tier.Tier)
	assert.Equal(t, "30000", tier.Revenue.String())

	// WHEN: It is refunded
	rec = do(t, router, http.MethodPost, "/api/orders/o2/refund", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: Its commission is reversed and only the first one is pending
	list := decodeBody[CommissionsResponse](t, do(t, router, http.MethodGet, "/api/affiliates/ana/commissions", ""))
	require.Len(t, list.Commissions, 2)
	assert.Equal(t, int64(200000), list.PendingCents)

	// AND: A settled order cannot be paid again
	assert.Equal(t, http.StatusConflict, do(t, router, http.MethodPost, "/api/orders/o2/pay", "").Code)
	assert.Equal(t, http.StatusConflict, do(t, router, http.MethodPost, "/api/orders/o1/pay", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodPost, "/api/orders/ghost/pay", "").Code)
}

func TestPendingOrder_Cancel(t *testing.T) {
	_, router := setupTestHandler(t)
	createApproved(t, router, "ana")
	postOrder(t, router, `{"id":"o1","affiliate_id":"ana","amount_cents":50000,"status":"pending"}`)
	postOrder(t, router, `{"id":"o2","affiliate_id":"ana","amount_cents":50000}`)

	rec := do(t, router, http.MethodPost, "/api/orders/o1/cancel", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "cancelled", decodeBody[OrderDTO](t, rec).Status)

	assert.Equal(t, http.StatusConflict, do(t, router, http.MethodPost, "/api/orders/o1/pay", "").Code)
	assert.Equal(t, http.StatusConflict, do(t, router, http.MethodPost, "/api/orders/o1/cancel", "").Code)
	assert.Equal(t, http.StatusConflict, do(t, router, http.MethodPost, "/api/orders/o1/refund", "").Code)
	assert.Equal(t, http.StatusConflict, do(t, router, http.MethodPost, "/api/orders/o2/cancel", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodPost, "/api/orders/ghost/cancel", "").Code)
}

func TestListOrders(t *testing.T) {
	// GIVEN: A paid, a refunded and a cancelled order inside the default window
	_, router := setupTestHandler(t)
	createApproved(t, router, "ana")
	postOrder(t, router, `{"id":"o1","affiliate_id":"ana","amount_cents":2000000,"placed_on":"2025-03-10"}`)
	postOrder(t, router, `{"id":"o2","affiliate_id":"ana","amount_cents":1000000,"placed_on":"2025-03-12"}`)
	postOrder(t, router, `{"id":"o3","affiliate_id":"ana","amount_cents":500000,"status":"pending"}`)
	postOrder(t, router, `{"id":"o0","affiliate_id":"ana","amount_cents":900000,"placed_on":"2025-02-13"}`)
	require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/orders/o2/refund", "").Code)
	require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/orders/o3/cancel", "").Code)

	// WHEN: Orders are listed without a range
	rec := do(t, router, http.MethodGet, "/api/affiliates/ana/orders", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[OrdersResponse](t, rec)

	// THEN: The trailing window ending today is used and only paid orders count
	assert.Equal(t, "2025-02-14", resp.From.String())
	assert.Equal(t, "2025-03-15", resp.To.String())
	require.Len(t, resp.Orders, 3)
	assert.Equal(t, []string{"o1", "o2", "o3"}, []string{resp.Orders[0].ID, resp.Orders[1].ID, resp.Orders[2].ID})
	assert.Equal(t, "20000", resp.NetRevenue.String())

	// AND: An explicit range narrows the list
	resp = decodeBody[OrdersResponse](t, do(t, router, http.MethodGet, "/api/affiliates/ana/orders?from=2025-02-01&to=2025-03-11", ""))
	require.Len(t, resp.Orders, 2)
	assert.Equal(t, "o0", resp.Orders[0].ID)
	assert.Equal(t, "29000", resp.NetRevenue.String())

	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/affiliates/ana/orders?from=yesterday", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/affiliates/ana/orders?from=2025-03-12&to=2025-03-11", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/affiliates/ghost/orders", "").Code)
}

func TestReviewAffiliate_ConcurrentDecisions(t *testing.T) {
	// GIVEN: A pending application
	_, router := setupTestHandler(t)
	require.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/api/affiliates",
		`{"id":"pat","name":"Pat","email":"pat@example.com","code":"PAT"}`).Code)

	// WHEN: Approve and reject race
	var wg sync.WaitGroup
	codes := make([]int, 2)
	for i, action := range []string{"approve", "reject"} {
		wg.Add(1)
		go func(i int, action string) {
			defer wg.Done()
			codes[i] = httpCode(router, http.MethodPost, "/api/affiliates/pat/"+action)
		}(i, action)
	}
	wg.Wait()

	// THEN: Exactly one decision is taken
	assert.ElementsMatch(t, []int{http.StatusOK, http.StatusConflict}, codes)
	final := decodeBody[AffiliateDTO](t, do(t, router, http.MethodGet, "/api/affiliates/pat", ""))
	winner := lo.Ternary(codes[0] == http.StatusOK, "approved", "rejected")
	assert.Equal(t, winner, final.Status)
}

// httpCode serves a bodiless request; safe to call off the test goroutine.
func httpCode(router http.Handler, method, path string) int {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec.Code
}

// httptestPost serves a JSON POST without touching t.
func httptestPost(router http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// =============================================================================
// PAYOUTS
// =============================================================================

func TestCreatePayout(t *testing.T) {
	_, router := setupTestHandler(t)
	createApproved(t, router, "ana")
	postOrder(t, router, `{"id":"o1","affiliate_id":"ana","amount_cents":100000}`)
	postOrder(t, router, `{"id":"o2","affiliate_id":"ana","amount_cents":50055}`)

	// WHEN: Pending commissions are paid out
	rec := do(t, router, http.MethodPost, "/api/affiliates/ana/payouts", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	payout := decodeBody[PayoutDTO](t, rec)

	// THEN: 10,000 + 5,006 (5,005.5 rounded half up)
	assert.Equal(t, int64(15_006), payout.AmountCents)
	assert.Len(t, payout.CommissionIDs, 2)
	assert.True(t, strings.HasPrefix(payout.ID, "po_"))

	list := decodeBody[CommissionsResponse](t, do(t, router, http.MethodGet, "/api/affiliates/ana/commissions?status=paid", ""))
	require.Len(t, list.Commissions, 2)
	require.NotNil(t, list.Commissions[0].PayoutID)
	assert.Equal(t, payout.ID, *list.Commissions[0].PayoutID)

	payouts := decodeBody[[]PayoutDTO](t, do(t, router, http.MethodGet, "/api/affiliates/ana/payouts", ""))
	require.Len(t, payouts, 1)
	assert.Equal(t, payout.ID, payouts[0].ID)

	// AND: Nothing is left to pay
	assert.Equal(t, http.StatusConflict, do(t, router, http.MethodPost, "/api/affiliates/ana/payouts", "").Code)
}

func TestCreatePayout_NotApproved(t *testing.T) {
	_, router := setupTestHandler(t)
	rec := do(t, router, http.MethodPost, "/api/affiliates",
		`{"id":"pat","name":"Pat","email":"pat@example.com","code":"PAT"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/affiliates/pat/payouts", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, decodeBody[ErrorResponse](t, rec).Details, "not eligible")
}
