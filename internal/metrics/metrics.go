package metrics

import (
	"database/sql"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	metricPrefix = "aquawatch_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	observationsTotal  *prometheus.CounterVec
	computeLatency     *prometheus.HistogramVec
	forecastsTotal     *prometheus.CounterVec
	predictionsTotal   *prometheus.CounterVec
	alertsTotal        *prometheus.CounterVec
	ingestMessages     *prometheus.CounterVec
	schedulerRunsTotal *prometheus.CounterVec
)

// Init registers collectors. db may be nil when running on the in-memory store.
func Init(db *sql.DB, logger *zap.Logger) {
	registerOnce.Do(func() {
		observationsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "observations_total",
				Help: "Computed quality observations by status",
			},
			[]string{"status"},
		)
		computeLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "compute_latency_seconds",
				Help:    "Observation and forecast computation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "result"},
		)
		forecastsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "forecasts_total",
				Help: "Created forecasts by model and predicted status",
			},
			[]string{"model", "status"},
		)
		predictionsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "predictions_total",
				Help: "What-if predictions by status",
			},
			[]string{"status"},
		)
		alertsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alerts_total",
				Help: "Dispatched alerts by severity and result",
			},
			[]string{"severity", "result"},
		)
		ingestMessages = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_messages_total",
				Help: "Ingested messages by kind and result",
			},
			[]string{"kind", "result"},
		)
		schedulerRunsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "scheduler_runs_total",
				Help: "Scheduled recompute runs by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			observationsTotal,
			computeLatency,
			forecastsTotal,
			predictionsTotal,
			alertsTotal,
			ingestMessages,
			schedulerRunsTotal,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

func registerDBMetrics(db *sql.DB, logger *zap.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "stations_active",
			Help: "Stations that have reported at least one measurement",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(DISTINCT station_id) FROM measurements")
		},
	))
}

func queryCount(db *sql.DB, logger *zap.Logger, query string) float64 {
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Warn("metrics query failed", zap.Error(err))
		}
		return 0
	}
	return float64(count)
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

func resultLabel(err error) string {
	if err != nil {
		return resultError
	}
	return resultSuccess
}

// ObserveCompute records the duration of a computation such as "observation" or "forecast".
func ObserveCompute(operation string, err error, duration time.Duration) {
	if computeLatency != nil {
		computeLatency.WithLabelValues(operation, resultLabel(err)).Observe(duration.Seconds())
	}
}

func IncObservation(status string) {
	if observationsTotal != nil {
		observationsTotal.WithLabelValues(status).Inc()
	}
}

func IncForecast(model, status string) {
	if forecastsTotal != nil {
		forecastsTotal.WithLabelValues(model, status).Inc()
	}
}

func IncPrediction(status string) {
	if predictionsTotal != nil {
		predictionsTotal.WithLabelValues(status).Inc()
	}
}

func IncAlert(severity string, err error) {
	if alertsTotal != nil {
		alertsTotal.WithLabelValues(severity, resultLabel(err)).Inc()
	}
}

// IncIngest counts an ingested message; kind is "measurement" or "satellite".
func IncIngest(kind string, err error) {
	if ingestMessages != nil {
		ingestMessages.WithLabelValues(kind, resultLabel(err)).Inc()
	}
}

func IncSchedulerRun(err error) {
	if schedulerRunsTotal != nil {
		schedulerRunsTotal.WithLabelValues(resultLabel(err)).Inc()
	}
}
