// Package metrics defines the observability hooks of the engine. Components
// take a Recorder and default to NoopRecorder, so metrics stay optional.
package metrics

import "time"

// ResultLabel enumerates operation outcomes for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultNoop     ResultLabel = "noop"
	ResultConflict ResultLabel = "conflict"
	ResultFailed   ResultLabel = "failed"
)

// Recorder defines the metrics the engine reports. Implementations may
// forward to Prometheus, OpenTelemetry, etc.
type Recorder interface {
	IncTransition(from, to string, result ResultLabel)
	ObserveTransitionDuration(d time.Duration)
	IncIntegrityWarning(problem string)
	IncCacheLookup(hit bool)
	AddCacheInvalidations(tags int)
	SetAuditFindings(n int)
	ObserveHTTPRequest(method, route string, status int, d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncTransition(string, string, ResultLabel)             {}
func (NoopRecorder) ObserveTransitionDuration(time.Duration)               {}
func (NoopRecorder) IncIntegrityWarning(string)                            {}
func (NoopRecorder) IncCacheLookup(bool)                                   {}
func (NoopRecorder) AddCacheInvalidations(int)                             {}
func (NoopRecorder) SetAuditFindings(int)                                  {}
func (NoopRecorder) ObserveHTTPRequest(string, string, int, time.Duration) {}

// OrNoop returns r, or NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
