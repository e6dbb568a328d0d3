package component

import "github.com/c360/flowgroup/types"

// Funnel merges multiple incoming connections into a single outgoing stream.
// Funnels have no configuration beyond identity and position.
type Funnel struct {
	connectableBase
}

// NewFunnel creates a funnel in the stopped state
func NewFunnel(id string) *Funnel {
	return &Funnel{
		connectableBase: newConnectableBase(id, "Funnel", types.ConnectableFunnel),
	}
}
