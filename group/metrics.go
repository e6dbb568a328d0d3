package group

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/flowgroup/metric"
)

const metricsSubsystem = "process_group"

// Metrics instruments the process-group model. One instance is created at
// startup and shared by every group through Dependencies; observations carry
// the group ID as a label. A nil *Metrics disables instrumentation.
type Metrics struct {
	componentAdds        *prometheus.CounterVec
	componentRemoves     *prometheus.CounterVec
	lifecycleTransitions *prometheus.CounterVec
	syncs                *prometheus.CounterVec
	syncDuration         *prometheus.HistogramVec
	diffDuration         *prometheus.HistogramVec
}

// NewGroupMetrics creates and registers the process-group metric set
func NewGroupMetrics(registry metric.MetricsRegistrar) (*Metrics, error) {
	m := &Metrics{
		componentAdds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowgroup",
			Subsystem: metricsSubsystem,
			Name:      "component_adds_total",
			Help:      "Components added to process groups, by component kind",
		}, []string{"kind"}),
		componentRemoves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowgroup",
			Subsystem: metricsSubsystem,
			Name:      "component_removes_total",
			Help:      "Components removed from process groups, by component kind",
		}, []string{"kind"}),
		lifecycleTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowgroup",
			Subsystem: metricsSubsystem,
			Name:      "lifecycle_transitions_total",
			Help:      "Lifecycle operations on components, by operation and outcome",
		}, []string{"operation", "status"}),
		syncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowgroup",
			Subsystem: metricsSubsystem,
			Name:      "flow_synchronizations_total",
			Help:      "Flow synchronization attempts, by outcome",
		}, []string{"status"}),
		syncDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "flowgroup",
			Subsystem: metricsSubsystem,
			Name:      "flow_synchronization_duration_seconds",
			Help:      "Time spent applying a versioned flow to a process group",
			Buckets:   prometheus.DefBuckets,
		}, []string{"group_id"}),
		diffDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "flowgroup",
			Subsystem: metricsSubsystem,
			Name:      "flow_diff_duration_seconds",
			Help:      "Time spent diffing a process group against its versioned snapshot",
			Buckets:   prometheus.DefBuckets,
		}, []string{"group_id"}),
	}

	registrations := []struct {
		name      string
		collector prometheus.Collector
	}{
		{"component_adds_total", m.componentAdds},
		{"component_removes_total", m.componentRemoves},
		{"lifecycle_transitions_total", m.lifecycleTransitions},
		{"flow_synchronizations_total", m.syncs},
	}
	for _, reg := range registrations {
		if err := registry.RegisterCounterVec(metricsSubsystem, reg.name, reg.collector.(*prometheus.CounterVec)); err != nil {
			return nil, err
		}
	}
	if err := registry.RegisterHistogramVec(metricsSubsystem, "flow_synchronization_duration_seconds", m.syncDuration); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogramVec(metricsSubsystem, "flow_diff_duration_seconds", m.diffDuration); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) recordAdd(kind string) {
	if m == nil {
		return
	}
	m.componentAdds.WithLabelValues(kind).Inc()
}

func (m *Metrics) recordRemove(kind string) {
	if m == nil {
		return
	}
	m.componentRemoves.WithLabelValues(kind).Inc()
}

func (m *Metrics) recordLifecycle(operation string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.lifecycleTransitions.WithLabelValues(operation, status).Inc()
}

func (m *Metrics) recordSync(err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.syncs.WithLabelValues(status).Inc()
}

func (m *Metrics) observeSyncDuration(groupID string, seconds float64) {
	if m == nil {
		return
	}
	m.syncDuration.WithLabelValues(groupID).Observe(seconds)
}

func (m *Metrics) observeDiffDuration(groupID string, seconds float64) {
	if m == nil {
		return
	}
	m.diffDuration.WithLabelValues(groupID).Observe(seconds)
}
