// Package health tracks the liveness of the flowgroup engine's subsystems
// (NATS connection, registry poller, flow registries) and aggregates them
// into a single status served over HTTP.
package health

import (
	"regexp"
	"time"
)

// Messages on health statuses may end up on an exposed endpoint, so
// connection strings, paths and credentials are scrubbed before storage.
var (
	urlRegex        = regexp.MustCompile(`(?:https?|nats|wss?)://\S+`)
	unixPathRegex   = regexp.MustCompile(`/[a-zA-Z0-9/_.-]+`)
	ipAddrRegex     = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)
	portRegex       = regexp.MustCompile(`:\d{2,5}\b`)
	credentialRegex = regexp.MustCompile(`(?i)(password|token|key|secret|credential)\s*[:=]\s*\S+`)
)

// State is the coarse health of a subsystem
type State string

const (
	// StateHealthy means the subsystem is fully operational
	StateHealthy State = "healthy"
	// StateDegraded means the subsystem works with reduced capability
	StateDegraded State = "degraded"
	// StateUnhealthy means the subsystem is not operational
	StateUnhealthy State = "unhealthy"
)

// Status is a point-in-time health report for one subsystem
type Status struct {
	Subsystem   string    `json:"subsystem"`
	State       State     `json:"state"`
	Message     string    `json:"message,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	SubStatuses []Status  `json:"sub_statuses,omitempty"`
}

// IsHealthy reports whether the subsystem is fully operational
func (s Status) IsHealthy() bool { return s.State == StateHealthy }

// Healthy creates a healthy status
func Healthy(subsystem, message string) Status {
	return Status{Subsystem: subsystem, State: StateHealthy, Message: message, Timestamp: time.Now()}
}

// Degraded creates a degraded status
func Degraded(subsystem, message string) Status {
	return Status{Subsystem: subsystem, State: StateDegraded, Message: message, Timestamp: time.Now()}
}

// Unhealthy creates an unhealthy status. The message is sanitized because
// it usually originates from an error string.
func Unhealthy(subsystem, message string) Status {
	return Status{Subsystem: subsystem, State: StateUnhealthy, Message: Sanitize(message), Timestamp: time.Now()}
}

// UnhealthyError creates an unhealthy status from an error
func UnhealthyError(subsystem string, err error) Status {
	return Unhealthy(subsystem, err.Error())
}

// Sanitize scrubs URLs, file paths, addresses and credential assignments
// from a message destined for the health endpoint
func Sanitize(message string) string {
	if message == "" {
		return ""
	}
	message = credentialRegex.ReplaceAllString(message, "$1=[REDACTED]")
	message = urlRegex.ReplaceAllString(message, "[URL]")
	message = unixPathRegex.ReplaceAllString(message, "[PATH]")
	message = ipAddrRegex.ReplaceAllString(message, "[IP]")
	message = portRegex.ReplaceAllString(message, "[PORT]")
	return message
}

// Aggregate rolls a set of subsystem statuses into one: unhealthy if any is
// unhealthy, degraded if any is degraded, healthy otherwise.
func Aggregate(subsystem string, statuses []Status) Status {
	if len(statuses) == 0 {
		return Healthy(subsystem, "no subsystems registered")
	}

	worst := StateHealthy
	for _, s := range statuses {
		switch s.State {
		case StateUnhealthy:
			worst = StateUnhealthy
		case StateDegraded:
			if worst == StateHealthy {
				worst = StateDegraded
			}
		}
	}

	result := Status{
		Subsystem:   subsystem,
		State:       worst,
		Timestamp:   time.Now(),
		SubStatuses: append([]Status(nil), statuses...),
	}
	switch worst {
	case StateUnhealthy:
		result.Message = "one or more subsystems are unhealthy"
	case StateDegraded:
		result.Message = "one or more subsystems are degraded"
	default:
		result.Message = "all subsystems healthy"
	}
	return result
}
