package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestStoreMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStoreMetrics(reg)
	m.ObserveLoad("ledger", "ok")
	m.ObserveSave("ledger", "error")
}

func TestSchedulingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSchedulingMetrics(reg)
	m.ObserveConflict("slot_taken")
	m.ObserveBooking("confirmed")
}

func TestMetricsNilSafe(t *testing.T) {
	var sm *StoreMetrics
	sm.ObserveLoad("ledger", "ok")
	sm.ObserveSave("ledger", "ok")

	var sched *SchedulingMetrics
	sched.ObserveConflict("duplicate_same_day")
	sched.ObserveBooking("rejected")
}
