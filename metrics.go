package rowbind

import "github.com/prometheus/client_golang/prometheus"

var ReloadCount = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rowbind",
	Name:      "reloads_total",
	Help:      "Full and section reloads issued instead of incremental batches",
}, []string{"engine", "reason"})

var BatchCount = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rowbind",
	Name:      "batches_total",
	Help:      "Incremental update batches issued to the grid",
}, []string{"engine", "level"})

var ContainerCount = prometheus.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "rowbind",
	Name:      "row_containers",
	Help:      "Live row containers per engine",
}, []string{"engine"})

var DroppedEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rowbind",
	Name:      "dropped_row_events_total",
	Help:      "Row events delivered to evicted containers",
}, []string{"engine"})

func RegisterMetrics(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{ReloadCount, BatchCount, ContainerCount, DroppedEvents} {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// reload reasons
const (
	reasonInitial     = "initial"
	reasonDetached    = "detached"
	reasonNoChanges   = "no_changes"
	reasonNotAnimated = "not_animated"
	reasonCount       = "count_mismatch"
	reasonRace        = "sections_race"
)
