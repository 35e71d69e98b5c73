/*
scheduler.go - Automated tier evaluation

PURPOSE:
  Periodically re-evaluates every approved affiliate's trailing 30-day tier
  and records an evaluation whenever the tier differs from the last one
  recorded. The history backs GET /api/affiliates/{id}/tier/history and
  tells the back office when an affiliate moved up or down.

DESIGN:
  - robfig/cron drives the job from a cron spec (TIER_CRON_SPEC)
  - Each run evaluates as of "today" in the handler's location
  - Unchanged tiers are skipped; the first evaluation is always recorded
  - Failures for one affiliate are logged and do not stop the run

USAGE:
  scheduler, err := NewTierScheduler(handler, "15 0 * * *")
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: evaluateTier, shared with GET /api/affiliates/{id}/tier
*/
package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/peptora/backoffice/affiliate"
	"github.com/peptora/backoffice/calendar"
	"github.com/peptora/backoffice/logger"
	"github.com/peptora/backoffice/store/sqlite"
)

// runTimeout bounds one evaluation pass.
const runTimeout = 5 * time.Minute

// TierScheduler records tier changes on a cron schedule.
type TierScheduler struct {
	Handler *Handler

	cron *cron.Cron
	spec string
	log  *logrus.Entry

	mu      sync.Mutex
	running bool
}

// RunSummary counts what one pass did.
type RunSummary struct {
	Evaluated int
	Changed   int
	Failed    int
}

// NewTierScheduler creates a scheduler for the given cron spec.
func NewTierScheduler(h *Handler, spec string) (*TierScheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	return &TierScheduler{
		Handler: h,
		cron:    cron.New(cron.WithLocation(h.Location)),
		spec:    spec,
		log:     logger.WithComponent("scheduler"),
	}, nil
}

// Start registers the job and starts the cron engine.
func (ts *TierScheduler) Start() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.running {
		return nil
	}
	if _, err := ts.cron.AddFunc(ts.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		ts.RunNow(ctx)
	}); err != nil {
		return fmt.Errorf("failed to add tier evaluation job: %w", err)
	}

	ts.cron.Start()
	ts.running = true
	ts.log.WithField("spec", ts.spec).Info("Tier scheduler started")
	return nil
}

// Stop stops the cron engine and waits for a running pass to finish.
func (ts *TierScheduler) Stop() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if !ts.running {
		return
	}
	<-ts.cron.Stop().Done()
	ts.running = false
	ts.log.Info("Tier scheduler stopped")
}

// NextRun returns when the job fires next, or the zero time if not started.
func (ts *TierScheduler) NextRun() time.Time {
	entries := ts.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// RunNow evaluates every approved affiliate immediately.
func (ts *TierScheduler) RunNow(ctx context.Context) RunSummary {
	var summary RunSummary
	asOf := ts.Handler.today()

	affiliates, err := ts.Handler.Store.ListAffiliates(ctx, affiliate.StatusApproved)
	if err != nil {
		ts.log.WithError(err).Error("Failed to list affiliates")
		return summary
	}

	for _, a := range affiliates {
		changed, err := ts.evaluate(ctx, a.ID, asOf)
		if err != nil {
			summary.Failed++
			ts.log.WithError(err).WithField("affiliate_id", a.ID).Error("Tier evaluation failed")
			continue
		}
		summary.Evaluated++
		if changed {
			summary.Changed++
		}
	}

	ts.log.WithFields(logrus.Fields{
		"as_of":     asOf.String(),
		"evaluated": summary.Evaluated,
		"changed":   summary.Changed,
		"failed":    summary.Failed,
	}).Info("Tier evaluation completed")
	return summary
}

// evaluate records the affiliate's tier as of asOf when it differs from the
// last recorded one. asOf is fixed per pass so a run crossing midnight
// records a single day.
func (ts *TierScheduler) evaluate(ctx context.Context, affiliateID string, asOf calendar.Date) (bool, error) {
	eval, _, err := ts.Handler.evaluateTier(ctx, affiliateID, asOf)
	if err != nil {
		return false, err
	}

	last, err := ts.Handler.Store.LatestTierEvaluation(ctx, affiliateID)
	if err != nil {
		return false, fmt.Errorf("latest evaluation: %w", err)
	}
	if last != nil && last.Tier == eval.Tier {
		return false, nil
	}

	if err := ts.Handler.Store.SaveTierEvaluation(ctx, sqlite.TierEvaluation{
		ID:          newID("te"),
		AffiliateID: affiliateID,
		AsOf:        asOf,
		Revenue:     eval.Revenue,
		Tier:        eval.Tier,
		Rate:        eval.Rate,
		CreatedAt:   ts.Handler.Now().UTC(),
	}); err != nil {
		return false, fmt.Errorf("save evaluation: %w", err)
	}

	fields := logrus.Fields{"affiliate_id": affiliateID, "tier": eval.Tier.String(), "revenue": eval.Revenue.String()}
	if last != nil {
		fields["previous_tier"] = last.Tier.String()
	}
	ts.log.WithFields(fields).Info("Affiliate tier changed")
	return true, nil
}
