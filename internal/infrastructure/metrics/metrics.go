package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vitos/breakout_monitor/internal/domain"
)

// Recorder exports monitor activity as Prometheus metrics.
type Recorder struct {
	CycleDuration *prometheus.HistogramVec
	Cycles        *prometheus.CounterVec
	WatchlistSize prometheus.Gauge
	FetchErrors   *prometheus.CounterVec
	Alerts        *prometheus.CounterVec
}

// NewRecorder creates the monitor metrics and registers them with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		CycleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "breakout_cycle_duration_seconds",
				Help:    "Duration of monitor evaluation cycles in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"result"},
		),
		Cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "breakout_cycles_total",
				Help: "Total number of monitor cycles by result",
			},
			[]string{"result"},
		),
		WatchlistSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "breakout_watchlist_symbols",
				Help: "Number of symbols on the current watchlist",
			},
		),
		FetchErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "breakout_fetch_errors_total",
				Help: "Market data fetch failures by operation",
			},
			[]string{"op"},
		),
		Alerts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "breakout_alerts_total",
				Help: "Dispatched breakout alerts",
			},
			[]string{"direction", "high_probability", "delivered"},
		),
	}

	reg.MustRegister(r.CycleDuration, r.Cycles, r.WatchlistSize, r.FetchErrors, r.Alerts)
	return r
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func (r *Recorder) ObserveCycle(d time.Duration, err error) {
	r.CycleDuration.WithLabelValues(result(err)).Observe(d.Seconds())
	r.Cycles.WithLabelValues(result(err)).Inc()
}

func (r *Recorder) SetWatchlistSize(n int) {
	r.WatchlistSize.Set(float64(n))
}

func (r *Recorder) IncFetchError(op string) {
	r.FetchErrors.WithLabelValues(op).Inc()
}

func (r *Recorder) IncAlert(cross domain.Cross, highProbability bool, delivered bool) {
	direction := "high"
	if cross == domain.CrossedBelowLow {
		direction = "low"
	}
	r.Alerts.WithLabelValues(direction, boolLabel(highProbability), boolLabel(delivered)).Inc()
}
