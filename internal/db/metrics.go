package db

import "github.com/prometheus/client_golang/prometheus"

var enumerationSkipped = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "git_odb_reference_enumeration_skipped_total",
		Help: "Counter of references skipped during enumeration because they could not be classified",
	},
)

func init() {
	prometheus.MustRegister(enumerationSkipped)
}
