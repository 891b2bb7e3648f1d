package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics counts applied and rejected transitions by type.
type Metrics struct {
	registry *prometheus.Registry
	applied  *prometheus.CounterVec
	rejected *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		applied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wagerd_transitions_applied_total",
			Help: "Transitions applied and committed, by type.",
		}, []string{"type"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wagerd_transitions_rejected_total",
			Help: "Transitions rejected, by type and error code.",
		}, []string{"type", "code"}),
	}
	m.registry.MustRegister(m.applied, m.rejected)
	return m
}

func (m *Metrics) Applied(txType string) {
	m.applied.WithLabelValues(txType).Inc()
}

func (m *Metrics) Rejected(txType string, code uint32) {
	m.rejected.WithLabelValues(txType, strconv.FormatUint(uint64(code), 10)).Inc()
}

// StartServer exposes /metrics and /healthz on addr. It blocks, so run it on
// its own goroutine.
func (m *Metrics) StartServer(addr string, log *zap.SugaredLogger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	log.Infow("metrics server listening", "addr", addr)
	return http.ListenAndServe(addr, mux)
}
