package health

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
)

// Monitor collects the latest status of each named subsystem. Safe for
// concurrent use; subsystems report independently.
type Monitor struct {
	mu       sync.RWMutex
	name     string
	statuses map[string]Status
}

// NewMonitor creates a monitor aggregating under the given system name
func NewMonitor(name string) *Monitor {
	return &Monitor{name: name, statuses: make(map[string]Status)}
}

// Report records the latest status for the status's subsystem
func (m *Monitor) Report(status Status) {
	m.mu.Lock()
	m.statuses[status.Subsystem] = status
	m.mu.Unlock()
}

// Forget drops a subsystem from the monitor
func (m *Monitor) Forget(subsystem string) {
	m.mu.Lock()
	delete(m.statuses, subsystem)
	m.mu.Unlock()
}

// Subsystem returns the last reported status for a subsystem
func (m *Monitor) Subsystem(name string) (Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	status, ok := m.statuses[name]
	return status, ok
}

// Overall aggregates all reported subsystems, ordered by subsystem name so
// the endpoint output is stable
func (m *Monitor) Overall() Status {
	m.mu.RLock()
	statuses := make([]Status, 0, len(m.statuses))
	for _, s := range m.statuses {
		statuses = append(statuses, s)
	}
	m.mu.RUnlock()

	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Subsystem < statuses[j].Subsystem })
	return Aggregate(m.name, statuses)
}

// Handler serves the aggregated status as JSON. Unhealthy aggregates return
// 503 so load balancers can act on the plain status code.
func (m *Monitor) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		overall := m.Overall()

		w.Header().Set("Content-Type", "application/json")
		if overall.State == StateUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(overall)
	})
}
