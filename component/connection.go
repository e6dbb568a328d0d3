package component

import (
	"sync"
	"time"

	"github.com/c360/flowgroup/errors"
)

// Connection is a directed edge between two Connectable endpoints. It owns
// its FlowFile queue and belongs to exactly one process group, which is not
// necessarily the group of either endpoint (subject to the group topology
// rules).
type Connection struct {
	id          string
	source      Connectable
	destination Connectable
	queue       *FlowFileQueue

	mu          sync.RWMutex
	name        string
	group       FlowGroup
	versionedID string
}

// NewConnection creates a connection between source and destination with the
// given queue thresholds. The connection is not registered on either
// endpoint until a group admits it through AddConnection.
func NewConnection(id string, source, destination Connectable, objectThreshold, dataSizeThreshold int64, expiration time.Duration) *Connection {
	return &Connection{
		id:          id,
		source:      source,
		destination: destination,
		queue:       NewFlowFileQueue(objectThreshold, dataSizeThreshold, expiration),
	}
}

// Identifier returns the connection's unique ID
func (c *Connection) Identifier() string { return c.id }

// Name returns the connection's display name
func (c *Connection) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

// SetName renames the connection
func (c *Connection) SetName(name string) {
	c.mu.Lock()
	c.name = name
	c.mu.Unlock()
}

// Source returns the connection's source endpoint
func (c *Connection) Source() Connectable { return c.source }

// Destination returns the connection's destination endpoint
func (c *Connection) Destination() Connectable { return c.destination }

// Queue returns the connection's FlowFile queue
func (c *Connection) Queue() *FlowFileQueue { return c.queue }

// Group returns the group that owns the connection
func (c *Connection) Group() FlowGroup {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.group
}

// SetGroup re-parents the connection; called only by the owning group under
// its write lock
func (c *Connection) SetGroup(group FlowGroup) {
	c.mu.Lock()
	c.group = group
	c.mu.Unlock()
}

// VersionedComponentID returns the connection's snapshot identifier
func (c *Connection) VersionedComponentID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.versionedID
}

// SetVersionedComponentID records the connection's snapshot identifier
func (c *Connection) SetVersionedComponentID(id string) {
	c.mu.Lock()
	c.versionedID = id
	c.mu.Unlock()
}

// VerifyCanDelete rejects deletion while the queue still holds data
func (c *Connection) VerifyCanDelete() error {
	if err := c.queue.VerifyCanDelete(); err != nil {
		return errors.Wrap(err, "Connection", "VerifyCanDelete", "queue deletability check")
	}
	return nil
}
