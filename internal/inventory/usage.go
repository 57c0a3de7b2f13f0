package inventory

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/erazemk/inventar/internal/cache"
	"github.com/erazemk/inventar/internal/lifecycle"
	"github.com/erazemk/inventar/internal/logfields"
	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/store"
)

// TransitionStatus moves an item to a new status through the lifecycle
// coordinator. Integrity warnings are returned in the result, not as errors.
func (s *Service) TransitionStatus(ctx context.Context, req lifecycle.TransitionRequest) (res *lifecycle.TransitionResult, err error) {
	ctx, end := s.start(ctx, "TransitionStatus",
		attribute.String("item.id", req.ItemID),
		attribute.String("status.target", string(req.Target)),
	)
	defer func() { end(err) }()

	res, err = s.coordinator.TransitionStatus(ctx, req)
	if err != nil {
		return nil, err
	}
	if !res.Changed {
		return res, nil
	}

	old := res.Item.Clone()
	old.Status = res.Previous
	touchedUsage := res.Opened != nil || res.Closed != nil
	s.invalidate(ctx, cache.WriteEffectTags(old, res.Item, touchedUsage))
	return res, nil
}

// GetUsageHistory returns an item's usage periods, newest first.
func (s *Service) GetUsageHistory(ctx context.Context, itemID string) (periods []model.UsagePeriod, err error) {
	ctx, end := s.start(ctx, "GetUsageHistory", attribute.String("item.id", itemID))
	defer func() { end(err) }()

	cached, err := cache.GetOrLoad(ctx, s.cache, "usage:"+itemID,
		[]string{cache.UsageTag(itemID)},
		func(ctx context.Context) ([]model.UsagePeriod, error) {
			if _, err := store.GetItem(ctx, s.db, itemID); err != nil {
				return nil, err
			}
			return store.ListUsagePeriods(ctx, s.db, itemID)
		})
	if err != nil {
		return nil, err
	}
	return clonePeriods(cached), nil
}

// GetOpenUsagePeriod returns the item's open usage period, or nil when the
// item is not in use.
func (s *Service) GetOpenUsagePeriod(ctx context.Context, itemID string) (period *model.UsagePeriod, err error) {
	ctx, end := s.start(ctx, "GetOpenUsagePeriod", attribute.String("item.id", itemID))
	defer func() { end(err) }()

	cached, err := cache.GetOrLoad(ctx, s.cache, "usage-open:"+itemID,
		[]string{cache.UsageTag(itemID)},
		func(ctx context.Context) (*model.UsagePeriod, error) {
			if _, err := store.GetItem(ctx, s.db, itemID); err != nil {
				return nil, err
			}
			return store.FindOpenUsagePeriod(ctx, s.db, itemID)
		})
	if err != nil {
		return nil, err
	}
	return cached.Clone(), nil
}

// ListActiveUsage returns every open usage period across all items.
func (s *Service) ListActiveUsage(ctx context.Context) (periods []model.UsagePeriod, err error) {
	ctx, end := s.start(ctx, "ListActiveUsage")
	defer func() { end(err) }()

	cached, err := cache.GetOrLoad(ctx, s.cache, "usage:active", []string{cache.TagUsageList},
		func(ctx context.Context) ([]model.UsagePeriod, error) {
			return store.ListOpenUsagePeriods(ctx, s.db)
		})
	if err != nil {
		return nil, err
	}
	return clonePeriods(cached), nil
}

// CorrectUsagePeriod applies an administrative correction to a period.
func (s *Service) CorrectUsagePeriod(ctx context.Context, req lifecycle.CorrectionRequest) (res *lifecycle.CorrectionResult, err error) {
	ctx, end := s.start(ctx, "CorrectUsagePeriod", attribute.String("period.id", req.PeriodID))
	defer func() { end(err) }()

	res, err = s.coordinator.CorrectUsagePeriod(ctx, req)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, []string{cache.TagUsageList, cache.UsageTag(res.After.ItemID)})
	return res, nil
}

// Audit checks every item's status against its open usage periods. Findings
// are logged and exported; they are never repaired automatically.
func (s *Service) Audit(ctx context.Context) (findings []model.AuditFinding, err error) {
	ctx, end := s.start(ctx, "Audit")
	defer func() { end(err) }()

	findings, err = store.AuditInvariants(ctx, s.db)
	if err != nil {
		return nil, err
	}

	s.recorder.SetAuditFindings(len(findings))
	for _, f := range findings {
		s.recorder.IncIntegrityWarning(f.Problem)
		s.logger.WarnContext(ctx, "Item fails usage invariant",
			logfields.ItemID(f.ItemID),
			logfields.Status(string(f.Status)),
			logfields.Problem(f.Problem),
			slog.Int("open_periods", f.OpenPeriods),
		)
	}
	return findings, nil
}

func clonePeriods(periods []model.UsagePeriod) []model.UsagePeriod {
	out := make([]model.UsagePeriod, len(periods))
	for i := range periods {
		out[i] = *periods[i].Clone()
	}
	return out
}
