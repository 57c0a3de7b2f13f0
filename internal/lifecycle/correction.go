package lifecycle

import (
	"context"
	"database/sql"
	"time"

	"github.com/erazemk/inventar/internal/apperr"
	"github.com/erazemk/inventar/internal/logfields"
	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/store"
)

// CorrectionRequest edits a recorded usage period. Nil fields are left
// unchanged. ClearEnd reopens a closed period.
type CorrectionRequest struct {
	PeriodID  string
	StartedAt *time.Time
	EndedAt   *time.Time
	ClearEnd  bool
	Kind      *model.UsageKind
	Notes     *string
	Actor     string
}

// CorrectionResult holds the period before and after the correction.
type CorrectionResult struct {
	Before *model.UsagePeriod
	After  *model.UsagePeriod
}

// CorrectUsagePeriod applies an administrative correction to a usage period.
// A correction may change whether the period is open only when that keeps the
// item's status and history coherent: a period can be reopened only for an
// in_use item with no other open period, and the open period of an in_use
// item cannot be closed here.
func (c *Coordinator) CorrectUsagePeriod(ctx context.Context, req CorrectionRequest) (*CorrectionResult, error) {
	const op = "lifecycle.correct_usage_period"

	if req.ClearEnd && req.EndedAt != nil {
		return nil, apperr.Validation(op, "cannot set and clear the end of a period at once")
	}
	if req.Kind != nil && *req.Kind == "" {
		return nil, apperr.Validation(op, "usage kind must not be empty")
	}

	var result *CorrectionResult
	err := store.WithTx(ctx, c.db, func(tx *sql.Tx) error {
		before, err := store.GetUsagePeriod(ctx, tx, req.PeriodID)
		if err != nil {
			return err
		}

		after := before.Clone()
		if req.StartedAt != nil {
			after.StartedAt = req.StartedAt.UTC()
		}
		if req.EndedAt != nil {
			end := req.EndedAt.UTC()
			after.EndedAt = &end
		}
		if req.ClearEnd {
			after.EndedAt = nil
		}
		if req.Kind != nil {
			after.Kind = *req.Kind
		}
		if req.Notes != nil {
			after.Notes = *req.Notes
		}

		if after.EndedAt != nil && after.EndedAt.Before(after.StartedAt) {
			return apperr.Validation(op, "period would end before it starts")
		}

		item, err := store.GetItem(ctx, tx, before.ItemID)
		if err != nil {
			return err
		}

		switch {
		case !before.Open() && after.Open():
			if item.Status != model.StatusInUse {
				return apperr.Validation(op, "cannot reopen a usage period of an item in %s", item.Status)
			}
			open, err := store.FindOpenUsagePeriod(ctx, tx, item.ID)
			if err != nil {
				return err
			}
			if open != nil {
				return apperr.Conflict(op, "item already has an open usage period").WithMeta("item_id", item.ID)
			}
		case before.Open() && !after.Open():
			if item.Status == model.StatusInUse {
				return apperr.Validation(op, "cannot close the open period of an item in use; transition the item instead")
			}
		}

		updated, err := store.UpdateUsagePeriod(ctx, tx, after)
		if err != nil {
			return err
		}

		result = &CorrectionResult{Before: before, After: updated}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "Usage period corrected",
		logfields.PeriodID(req.PeriodID),
		logfields.ItemID(result.After.ItemID),
		logfields.Actor(req.Actor),
	)

	return result, nil
}
