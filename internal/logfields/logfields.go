package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyItemID     = "item_id"
	KeyPeriodID   = "period_id"
	KeyStatus     = "status"
	KeyFrom       = "from"
	KeyTo         = "to"
	KeyActor      = "actor"
	KeyTag        = "tag"
	KeyTags       = "tags"
	KeyJob        = "job"
	KeyProblem    = "problem"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func ItemID(id string) slog.Attr         { return slog.String(KeyItemID, id) }
func PeriodID(id string) slog.Attr       { return slog.String(KeyPeriodID, id) }
func Status(s string) slog.Attr          { return slog.String(KeyStatus, s) }
func From(s string) slog.Attr            { return slog.String(KeyFrom, s) }
func To(s string) slog.Attr              { return slog.String(KeyTo, s) }
func Actor(a string) slog.Attr           { return slog.String(KeyActor, a) }
func Tag(t string) slog.Attr             { return slog.String(KeyTag, t) }
func Tags(t []string) slog.Attr          { return slog.Any(KeyTags, t) }
func Job(name string) slog.Attr          { return slog.String(KeyJob, name) }
func Problem(p string) slog.Attr         { return slog.String(KeyProblem, p) }
func Duration(d time.Duration) slog.Attr { return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
