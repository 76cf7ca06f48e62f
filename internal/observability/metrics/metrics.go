package metrics

import "github.com/prometheus/client_golang/prometheus"

// StoreMetrics exposes counters for workbook container traffic.
type StoreMetrics struct {
	loadsTotal *prometheus.CounterVec
	savesTotal *prometheus.CounterVec
}

func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	m := &StoreMetrics{
		loadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: "workbook",
			Name:      "loads_total",
			Help:      "Total table loads by container and outcome",
		}, []string{"container", "status"}),
		savesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: "workbook",
			Name:      "saves_total",
			Help:      "Total container rewrites by container and outcome",
		}, []string{"container", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.loadsTotal, m.savesTotal)
	return m
}

func (m *StoreMetrics) ObserveLoad(container, status string) {
	if m == nil {
		return
	}
	m.loadsTotal.WithLabelValues(container, status).Inc()
}

func (m *StoreMetrics) ObserveSave(container, status string) {
	if m == nil {
		return
	}
	m.savesTotal.WithLabelValues(container, status).Inc()
}

// SchedulingMetrics counts appointment booking outcomes.
type SchedulingMetrics struct {
	conflictsTotal *prometheus.CounterVec
	bookingsTotal  *prometheus.CounterVec
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		conflictsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: "scheduling",
			Name:      "conflicts_total",
			Help:      "Rejected bookings by conflict kind",
		}, []string{"kind"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "backoffice",
			Subsystem: "scheduling",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.conflictsTotal, m.bookingsTotal)
	return m
}

func (m *SchedulingMetrics) ObserveConflict(kind string) {
	if m == nil {
		return
	}
	m.conflictsTotal.WithLabelValues(kind).Inc()
}

func (m *SchedulingMetrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(status).Inc()
}
