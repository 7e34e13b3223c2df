package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MuchTitan/go-log-transport/internal/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserver_RecordsDeliveries(t *testing.T) {
	require.NoError(t, Register(prometheus.NewRegistry()))
	require.NoError(t, Register(prometheus.NewRegistry()))

	var o Observer
	o.Observe(transport.Delivery{Target: "metrics-svc", Outcome: transport.OutcomeSent, Bytes: 12})
	o.Observe(transport.Delivery{Target: "metrics-svc", Outcome: transport.OutcomeSent, Bytes: 3})
	o.Observe(transport.Delivery{Target: "metrics-svc", Outcome: transport.OutcomeSendFailed, Bytes: 9})

	assert.Equal(t, 2.0, testutil.ToFloat64(deliveries.WithLabelValues("metrics-svc", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(deliveries.WithLabelValues("metrics-svc", "send_failed")))
	assert.Equal(t, 15.0, testutil.ToFloat64(deliveredBytes.WithLabelValues("metrics-svc")))

	before := testutil.ToFloat64(cycles)
	o.CycleStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(cycleRunning))
	o.CycleFinished(20 * time.Millisecond)
	assert.Equal(t, 0.0, testutil.ToFloat64(cycleRunning))
	assert.Equal(t, before+1, testutil.ToFloat64(cycles))
}

func TestHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
