package scheduler

import "github.com/prometheus/client_golang/prometheus"

// Metrics
var (
	ticksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "alarm_matcher_ticks_total", Help: "Matcher ticks run"},
	)
	alarmsFired = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "alarm_matcher_fired_total", Help: "Alarms handed to the dispatcher"},
	)
	dispatchFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "alarm_matcher_dispatch_failures_total", Help: "Dispatcher errors"},
	)
	storeFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "alarm_matcher_store_failures_total", Help: "Alarm store read errors"},
	)
	triggeredKeys = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "alarm_matcher_triggered_keys", Help: "Keys in the fired-today set"},
	)
)

func RegisterMetrics() {
	prometheus.MustRegister(ticksTotal, alarmsFired, dispatchFailures, storeFailures, triggeredKeys)
}
