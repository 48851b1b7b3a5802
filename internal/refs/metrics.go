package refs

import "github.com/prometheus/client_golang/prometheus"

var classifications = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "git_odb_reference_classifications_total",
		Help: "Counter of classified references by resulting kind",
	},
	[]string{"kind"},
)

func init() {
	prometheus.MustRegister(classifications)
}
