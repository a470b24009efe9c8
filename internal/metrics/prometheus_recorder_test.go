package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncCommand("bold", ResultSuccess)
	pr.IncCommand("bold", ResultSuccess)
	pr.IncCommand("italic", ResultRejected)
	pr.IncTransaction(SourceCommand)
	pr.ObserveUploadDuration(150*time.Millisecond, true)
	pr.IncUploadResult(ResultFailed)
	pr.IncSaveResult(ResultConflict)
	pr.SetOpenSessions(3)

	assert.InDelta(t, 3, gathered(t, reg, "mdcms_editor_commands_total"), 0)
	assert.InDelta(t, 1, gathered(t, reg, "mdcms_editor_transactions_total"), 0)
	assert.InDelta(t, 3, gathered(t, reg, "mdcms_editor_open_sessions"), 0)
}

// gathered sums every sample of the named counter or gauge family.
func gathered(t *testing.T, reg *prom.Registry, name string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	var sum float64
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			sum += m.GetCounter().GetValue() + m.GetGauge().GetValue()
		}
	}
	return sum
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.IncCommand("bold", ResultSuccess)
		pr.SetOpenSessions(1)
	})
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncSaveResult(ResultSuccess)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "mdcms_content_saves_total"))
}
