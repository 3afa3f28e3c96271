package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestCounters(t *testing.T) {
	Init(nil, zap.NewNop())

	before := testutil.ToFloat64(observationsTotal.WithLabelValues("BAD"))
	IncObservation("BAD")
	assert.Equal(t, before+1, testutil.ToFloat64(observationsTotal.WithLabelValues("BAD")))

	beforeErr := testutil.ToFloat64(ingestMessages.WithLabelValues("measurement", resultError))
	IncIngest("measurement", errors.New("bad payload"))
	assert.Equal(t, beforeErr+1, testutil.ToFloat64(ingestMessages.WithLabelValues("measurement", resultError)))

	ObserveCompute("forecast", nil, 5*time.Millisecond)
	IncForecast("TrendRegressionModel", "GOOD")
	IncPrediction("GOOD")
	IncAlert("CRITICAL", nil)
	IncSchedulerRun(nil)
}

func TestHandler(t *testing.T) {
	Init(nil, zap.NewNop())
	IncObservation("GOOD")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "aquawatch_observations_total")
}
