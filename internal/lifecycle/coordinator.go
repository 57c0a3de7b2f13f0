// Package lifecycle owns status changes. TransitionStatus is the only path
// that changes an item's status, and it opens or closes the matching usage
// period in the same transaction.
package lifecycle

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/erazemk/inventar/internal/apperr"
	"github.com/erazemk/inventar/internal/logfields"
	"github.com/erazemk/inventar/internal/metrics"
	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/store"
)

// ProblemMissingOpenPeriod labels the warning raised when an item leaves
// in_use without an open usage period to close.
const ProblemMissingOpenPeriod = "missing_open_period"

// StatusUnknown labels failed transitions of items that could not be read.
const StatusUnknown = "unknown"

// Coordinator applies status transitions and usage period corrections.
type Coordinator struct {
	db       *sql.DB
	now      func() time.Time
	logger   *slog.Logger
	recorder metrics.Recorder
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock replaces time.Now as the source of period timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithLogger sets the logger used for integrity warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Coordinator) { c.recorder = metrics.OrNoop(r) }
}

// NewCoordinator returns a Coordinator writing to db.
func NewCoordinator(db *sql.DB, opts ...Option) *Coordinator {
	c := &Coordinator{
		db:       db,
		now:      time.Now,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TransitionRequest asks for an item to move to Target.
type TransitionRequest struct {
	ItemID string
	Target model.Status
	// Kind and Notes describe the usage period opened when Target is in_use.
	// When leaving in_use, non-empty Notes replace the closed period's notes.
	Kind  model.UsageKind
	Notes string
	Actor string
	// ExpectedStatus, when set, is the status the caller last observed. The
	// transition fails with ConflictAlreadyOpen if the item has moved on.
	// Callers that need concurrent requests for the same target to conflict
	// must set it: transactions take the write lock at BEGIN, so without it
	// the later of two simultaneous requests finds the item already at the
	// target and returns unchanged.
	ExpectedStatus model.Status
}

// TransitionResult describes what a transition changed.
type TransitionResult struct {
	Item     *model.Item
	Previous model.Status
	Changed  bool
	Opened   *model.UsagePeriod
	Closed   *model.UsagePeriod
	Warnings []*apperr.Error
}

// TransitionStatus moves an item to req.Target. Entering in_use opens a usage
// period, leaving it closes the open one, and the status update commits
// together with the period change or not at all. Asking for the current
// status is a no-op.
func (c *Coordinator) TransitionStatus(ctx context.Context, req TransitionRequest) (*TransitionResult, error) {
	const op = "lifecycle.transition_status"

	if !req.Target.Valid() {
		return nil, apperr.Validation(op, "unknown target status %q", req.Target)
	}
	if req.ExpectedStatus != "" && !req.ExpectedStatus.Valid() {
		return nil, apperr.Validation(op, "unknown expected status %q", req.ExpectedStatus)
	}

	started := time.Now()
	from := StatusUnknown
	var result *TransitionResult
	err := store.WithTx(ctx, c.db, func(tx *sql.Tx) error {
		item, err := store.GetItem(ctx, tx, req.ItemID)
		if err != nil {
			return err
		}
		from = string(item.Status)

		res := &TransitionResult{Item: item, Previous: item.Status}

		if req.ExpectedStatus != "" && item.Status != req.ExpectedStatus {
			return apperr.Conflict(op, fmt.Sprintf("status changed concurrently: expected %s, found %s", req.ExpectedStatus, item.Status)).
				WithMeta("item_id", item.ID)
		}

		if item.Status == req.Target {
			result = res
			return nil
		}

		now := c.now()

		if item.Status == model.StatusInUse {
			open, err := store.FindOpenUsagePeriod(ctx, tx, item.ID)
			if err != nil {
				return err
			}
			if open == nil {
				warning := apperr.New(apperr.KindIntegrityWarning, op, "item was in use without an open usage period").
					WithMeta("item_id", item.ID).
					WithMeta("problem", ProblemMissingOpenPeriod)
				res.Warnings = append(res.Warnings, warning)
			} else {
				var notes *string
				if req.Notes != "" && req.Target != model.StatusInUse {
					notes = &req.Notes
				}
				closed, err := store.CloseUsagePeriod(ctx, tx, open.ID, now, notes)
				if err != nil {
					return err
				}
				res.Closed = closed
			}
		}

		if req.Target == model.StatusInUse {
			opened, err := store.CreateUsagePeriod(ctx, tx, item.ID, now, req.Kind, req.Notes)
			if err != nil {
				return err
			}
			res.Opened = opened
		}

		updated, err := store.SetItemStatus(ctx, tx, item.ID, req.Target, now)
		if err != nil {
			return err
		}
		res.Item = updated
		res.Changed = true

		result = res
		return nil
	})

	c.recorder.ObserveTransitionDuration(time.Since(started))
	if err != nil {
		label := metrics.ResultFailed
		if apperr.KindOf(err) == apperr.KindConflictAlreadyOpen {
			label = metrics.ResultConflict
		}
		c.recorder.IncTransition(from, string(req.Target), label)
		return nil, err
	}

	if !result.Changed {
		c.recorder.IncTransition(string(result.Previous), string(req.Target), metrics.ResultNoop)
		return result, nil
	}

	c.recorder.IncTransition(string(result.Previous), string(req.Target), metrics.ResultSuccess)
	for _, w := range result.Warnings {
		c.recorder.IncIntegrityWarning(ProblemMissingOpenPeriod)
		c.logger.WarnContext(ctx, "Status transition found no open usage period",
			logfields.ItemID(req.ItemID),
			logfields.From(string(result.Previous)),
			logfields.To(string(req.Target)),
			logfields.Actor(req.Actor),
			logfields.Error(w),
		)
	}
	c.logger.DebugContext(ctx, "Item status changed",
		logfields.ItemID(req.ItemID),
		logfields.From(string(result.Previous)),
		logfields.To(string(req.Target)),
		logfields.Actor(req.Actor),
	)

	return result, nil
}
