package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ExposesCounters(t *testing.T) {
	r := NewRegistry()
	r.AlertsRaised.WithLabelValues("stock").Inc()
	r.AlertsRaised.WithLabelValues("stock").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(r.AlertsRaised.WithLabelValues("stock")))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `atelier_alerts_raised_total{kind="stock"} 2`)
}
