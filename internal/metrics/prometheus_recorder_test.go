package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.IncTransition("storage", "in_use", ResultSuccess)
	pr.IncTransition("storage", "in_use", ResultSuccess)
	pr.ObserveTransitionDuration(3 * time.Millisecond)
	pr.IncIntegrityWarning("missing_open_period")
	pr.IncCacheLookup(true)
	pr.IncCacheLookup(false)
	pr.AddCacheInvalidations(4)
	pr.SetAuditFindings(2)
	pr.ObserveHTTPRequest("GET", "/api/items", 200, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(pr.transitions.WithLabelValues("storage", "in_use", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 4.0, testutil.ToFloat64(pr.cacheInvalidations))
	assert.Equal(t, 2.0, testutil.ToFloat64(pr.auditFindings))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestPrometheusRecorderHandler(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.SetAuditFindings(1)

	rec := httptest.NewRecorder()
	pr.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "inventar_audit_findings 1"))
}

func TestNilRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.IncTransition("a", "b", ResultFailed)
		pr.SetAuditFindings(3)
	})
	assert.Equal(t, NoopRecorder{}, OrNoop(nil))
}
