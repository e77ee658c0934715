package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	authzDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orgadmin",
		Subsystem: "authz",
		Name:      "denials_total",
		Help:      "Total number of denied authorization checks broken down by resource and action.",
	}, []string{"resource", "action"})

	writeConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orgadmin",
		Subsystem: "storage",
		Name:      "write_conflicts_total",
		Help:      "Total number of storage write conflicts broken down by kind.",
	}, []string{"kind"})

	corruptHierarchy = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "orgadmin",
		Subsystem: "hierarchy",
		Name:      "corrupt_chains_total",
		Help:      "Total number of reportsTo cycles detected while walking manager chains.",
	})
)

func RecordAuthzDenial(resource, action string) {
	authzDenials.WithLabelValues(resource, action).Inc()
}

func RecordWriteConflict(kind string) {
	writeConflicts.WithLabelValues(kind).Inc()
}

func RecordCorruptHierarchy() {
	corruptHierarchy.Inc()
}
