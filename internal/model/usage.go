package model

import "time"

// UsagePeriod is a time range during which an item was in use. A period is
// open while EndedAt is nil; at most one period per item may be open.
type UsagePeriod struct {
	ID        string     `json:"id"`
	ItemID    string     `json:"item_id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Kind      UsageKind  `json:"kind"`
	Notes     string     `json:"notes,omitempty"`
}

// Open reports whether the period has not ended.
func (p *UsagePeriod) Open() bool {
	return p.EndedAt == nil
}

// Duration returns the length of the period, measured up to now for an open
// period.
func (p *UsagePeriod) Duration(now time.Time) time.Duration {
	if p.EndedAt != nil {
		return p.EndedAt.Sub(p.StartedAt)
	}
	return now.Sub(p.StartedAt)
}

// Clone returns a copy that does not share the EndedAt pointer.
func (p *UsagePeriod) Clone() *UsagePeriod {
	if p == nil {
		return nil
	}
	c := *p
	if p.EndedAt != nil {
		t := *p.EndedAt
		c.EndedAt = &t
	}
	return &c
}

// AuditFinding describes one item whose stored state breaks an invariant.
type AuditFinding struct {
	ItemID      string `json:"item_id"`
	Status      Status `json:"status"`
	OpenPeriods int    `json:"open_periods"`
	Problem     string `json:"problem"`
}

// Audit problems.
const (
	ProblemInUseWithoutPeriod  = "in_use_without_open_period"
	ProblemOpenPeriodNotInUse  = "open_period_while_not_in_use"
	ProblemMultipleOpenPeriods = "multiple_open_periods"
)
