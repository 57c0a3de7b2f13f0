package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/inventar/internal/model"
)

type countingSweeper struct{ calls atomic.Int32 }

func (c *countingSweeper) Sweep() int {
	c.calls.Add(1)
	return 1
}

type stubAuditor struct {
	calls atomic.Int32
	err   error
}

func (s *stubAuditor) Audit(context.Context) ([]model.AuditFinding, error) {
	s.calls.Add(1)
	return []model.AuditFinding{{ItemID: "x", Problem: model.ProblemInUseWithoutPeriod}}, s.err
}

func TestSchedulerRunsJobs(t *testing.T) {
	s, err := NewScheduler(nil, time.Second)
	require.NoError(t, err)

	sweeper := &countingSweeper{}
	auditor := &stubAuditor{}
	require.NoError(t, s.ScheduleCacheSweep(20*time.Millisecond, sweeper))
	require.NoError(t, s.ScheduleAudit(20*time.Millisecond, auditor))

	s.Start()
	assert.Eventually(t, func() bool {
		return sweeper.calls.Load() > 0 && auditor.calls.Load() > 0
	}, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Stop())
}

func TestSchedulerSkipsDisabledJobs(t *testing.T) {
	s, err := NewScheduler(nil, 0)
	require.NoError(t, err)

	require.NoError(t, s.ScheduleCacheSweep(0, &countingSweeper{}))
	require.NoError(t, s.ScheduleAudit(-time.Second, &stubAuditor{}))
	assert.Empty(t, s.scheduler.Jobs())
}

func TestRunAuditLogsFailure(t *testing.T) {
	s, err := NewScheduler(nil, time.Second)
	require.NoError(t, err)

	auditor := &stubAuditor{err: errors.New("database locked")}
	assert.NotPanics(t, func() { s.runAudit(auditor) })
	assert.EqualValues(t, 1, auditor.calls.Load())
}
