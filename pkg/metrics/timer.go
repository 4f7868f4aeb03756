package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Timer measures the duration of an operation for histogram observation
type Timer struct {
	start time.Time
}

// NewTimer creates a timer started at the current time
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records the elapsed time in the given histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(t.Duration().Seconds())
}

// ObserveDurationVec records the elapsed time in the given histogram vec
// with the provided label values
func (t *Timer) ObserveDurationVec(histogramVec *prometheus.HistogramVec, labelValues ...string) {
	histogramVec.WithLabelValues(labelValues...).Observe(t.Duration().Seconds())
}
