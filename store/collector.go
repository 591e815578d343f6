package store

import (
	"github.com/cockroachdb/pebble"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CommitCount = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rowbind",
		Subsystem: "store",
		Name:      "commits_total",
		Help:      "Write transactions committed to pebble",
	})
	EventCount = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rowbind",
		Subsystem: "store",
		Name:      "events_total",
		Help:      "List events posted to observers",
	})
)

type pebbleMetric struct {
	desc  *prometheus.Desc
	kind  prometheus.ValueType
	value func(m *pebble.Metrics) float64
}

// Collector exports the compaction, memtable and WAL state of the store's
// pebble instance.
type Collector struct {
	db      *pebble.DB
	metrics []pebbleMetric
}

func metric(name, help string, kind prometheus.ValueType, value func(m *pebble.Metrics) float64) pebbleMetric {
	return pebbleMetric{
		desc:  prometheus.NewDesc("pebble_"+name, help, nil, nil),
		kind:  kind,
		value: value,
	}
}

func NewCollector(db *pebble.DB) *Collector {
	counter, gauge := prometheus.CounterValue, prometheus.GaugeValue
	return &Collector{
		db: db,
		metrics: []pebbleMetric{
			metric("compaction_count_total", "Total number of compactions performed", counter,
				func(m *pebble.Metrics) float64 { return float64(m.Compact.Count) }),
			metric("compaction_default_count_total", "Total number of default compactions performed", counter,
				func(m *pebble.Metrics) float64 { return float64(m.Compact.DefaultCount) }),
			metric("compaction_move_total", "Total number of move compactions performed", counter,
				func(m *pebble.Metrics) float64 { return float64(m.Compact.MoveCount) }),
			metric("compaction_estimated_debt_bytes", "Estimated bytes to compact to reach a stable state", gauge,
				func(m *pebble.Metrics) float64 { return float64(m.Compact.EstimatedDebt) }),
			metric("compaction_in_progress_bytes", "Bytes being compacted currently", gauge,
				func(m *pebble.Metrics) float64 { return float64(m.Compact.InProgressBytes) }),
			metric("memtable_size_bytes", "Current size of the memtable in bytes", gauge,
				func(m *pebble.Metrics) float64 { return float64(m.MemTable.Size) }),
			metric("memtable_count_total", "Current count of memtables", gauge,
				func(m *pebble.Metrics) float64 { return float64(m.MemTable.Count) }),
			metric("wal_files_total", "Number of live WAL files", gauge,
				func(m *pebble.Metrics) float64 { return float64(m.WAL.Files) }),
			metric("wal_size_bytes", "Size of live WAL data in bytes", gauge,
				func(m *pebble.Metrics) float64 { return float64(m.WAL.Size) }),
			metric("wal_bytes_written_total", "Total physical bytes written to the WAL", counter,
				func(m *pebble.Metrics) float64 { return float64(m.WAL.BytesWritten) }),
		},
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.metrics {
		ch <- m.desc
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	metrics := c.db.Metrics()
	for _, m := range c.metrics {
		ch <- prometheus.MustNewConstMetric(m.desc, m.kind, m.value(metrics))
	}
}

// RegisterMetrics registers the store counters and a Collector over s.
func RegisterMetrics(r prometheus.Registerer, s *Store) error {
	for _, c := range []prometheus.Collector{CommitCount, EventCount, NewCollector(s.db)} {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}
