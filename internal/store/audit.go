package store

import (
	"context"

	"github.com/erazemk/inventar/internal/model"
)

// AuditInvariants returns every item whose status disagrees with its open
// usage periods: in_use without exactly one open period, or an open period on
// an item that is not in use.
func AuditInvariants(ctx context.Context, q Querier) ([]model.AuditFinding, error) {
	const op = "store.audit_invariants"

	rows, err := q.QueryContext(ctx,
		`SELECT i.id, i.status, COUNT(p.id) AS open_periods
		 FROM items i
		 LEFT JOIN usage_periods p ON p.item_id = i.id AND p.ended_at IS NULL
		 GROUP BY i.id, i.status
		 HAVING (i.status = 'in_use' AND COUNT(p.id) <> 1)
		     OR (i.status <> 'in_use' AND COUNT(p.id) > 0)
		 ORDER BY i.id`,
	)
	if err != nil {
		return nil, translate(op, err)
	}
	defer rows.Close()

	findings := []model.AuditFinding{}
	for rows.Next() {
		var f model.AuditFinding
		var status string
		if err := rows.Scan(&f.ItemID, &status, &f.OpenPeriods); err != nil {
			return nil, translate(op, err)
		}
		f.Status = model.Status(status)
		switch {
		case f.OpenPeriods > 1:
			f.Problem = model.ProblemMultipleOpenPeriods
		case f.Status == model.StatusInUse:
			f.Problem = model.ProblemInUseWithoutPeriod
		default:
			f.Problem = model.ProblemOpenPeriodNotInUse
		}
		findings = append(findings, f)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(op, err)
	}
	return findings, nil
}
