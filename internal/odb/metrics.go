package odb

import "github.com/prometheus/client_golang/prometheus"

var (
	openHandles = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "git_odb_open_handles",
			Help: "Gauge of object and reference handles not yet released",
		},
	)

	objectLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "git_odb_object_lookups_total",
			Help: "Counter of object lookups by requested kind and result",
		},
		[]string{"kind", "result"},
	)

	tagCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "git_odb_tag_cache_hits_total",
			Help: "Counter of annotated tag lookups served from the tag cache",
		},
	)
)

func init() {
	prometheus.MustRegister(openHandles, objectLookups, tagCacheHits)
}
