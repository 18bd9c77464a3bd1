package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "predictr"

var (
	// Registry holds every predictr collector plus the Go runtime collectors.
	Registry = prometheus.NewRegistry()

	Predictions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "predictions_total",
		Help:      "Number of successful predictions.",
	}, []string{"app"})

	PredictionErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "prediction_errors_total",
		Help:      "Number of failed predictions by error kind.",
	}, []string{"app", "kind"})

	Resolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "encoding_resolutions_total",
		Help:      "Categorical values encoded, by the step that resolved them.",
	}, []string{"app", "field", "source"})

	PredictionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "prediction_duration_seconds",
		Help:      "Time spent encoding, scaling and predicting.",
		Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
	}, []string{"app"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		Predictions,
		PredictionErrors,
		Resolutions,
		PredictionDuration,
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
