package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PasteCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sealbin_paste_created_total",
		Help: "no. of pastes created",
	})
	PasteRetrieved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sealbin_paste_retrieved_total",
		Help: "no. of pastes retrieved",
	})
	PasteDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sealbin_paste_deleted_total",
			Help: "no. of pastes deleted",
		},
		[]string{"by"},
	)
	ReportCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sealbin_report_created_total",
		Help: "no. of paste reports filed",
	})
	ReportDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sealbin_report_deleted_total",
		Help: "no. of paste reports deleted by admins",
	})
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sealbin_cache_hits_total",
		Help: "no. of cache hits",
	})
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sealbin_cache_misses_total",
		Help: "no. of cache misses",
	})
	SweepCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sealbin_sweep_cycles_total",
		Help: "no. of expiry sweep ticks",
	})
	SweepDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sealbin_sweep_deleted_total",
		Help: "no. of expired pastes removed by the sweeper",
	})
	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sealbin_auth_failures_total",
			Help: "no. of rejected credentials",
		},
		[]string{"tier"},
	)
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sealbin_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)
)

func Init() {
}
