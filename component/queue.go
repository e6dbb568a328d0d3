package component

import (
	"fmt"
	"sync"
	"time"

	"github.com/c360/flowgroup/errors"
)

// FlowFile is the atomic unit of data moving through connections. The group
// model treats its content as opaque; only identity, size and attributes
// matter for queue occupancy and batch tracking.
type FlowFile struct {
	ID         string
	Size       int64
	Attributes map[string]string
	EnqueuedAt time.Time
}

// FlowFileQueue is the backpressure-aware FIFO owned by a connection.
// Object-count and data-size thresholds are advisory admission limits: once
// either is reached the queue reports full and upstream components stop
// being scheduled, but an in-flight transfer is never rejected.
type FlowFileQueue struct {
	mu sync.RWMutex

	flowFiles  []FlowFile
	queuedSize int64

	backPressureObjectThreshold   int64
	backPressureDataSizeThreshold int64
	expiration                    time.Duration
}

// NewFlowFileQueue creates a queue with the given backpressure thresholds.
// A zero threshold disables that limit.
func NewFlowFileQueue(objectThreshold, dataSizeThreshold int64, expiration time.Duration) *FlowFileQueue {
	return &FlowFileQueue{
		backPressureObjectThreshold:   objectThreshold,
		backPressureDataSizeThreshold: dataSizeThreshold,
		expiration:                    expiration,
	}
}

// Enqueue appends a FlowFile to the queue
func (q *FlowFileQueue) Enqueue(ff FlowFile) {
	if ff.EnqueuedAt.IsZero() {
		ff.EnqueuedAt = time.Now()
	}
	q.mu.Lock()
	q.flowFiles = append(q.flowFiles, ff)
	q.queuedSize += ff.Size
	q.mu.Unlock()
}

// Dequeue removes and returns the oldest FlowFile, expiring aged entries
// first. The second return is false when the queue is empty.
func (q *FlowFileQueue) Dequeue() (FlowFile, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.expireLocked(time.Now())
	if len(q.flowFiles) == 0 {
		return FlowFile{}, false
	}

	ff := q.flowFiles[0]
	q.flowFiles = q.flowFiles[1:]
	q.queuedSize -= ff.Size
	return ff, true
}

// expireLocked drops FlowFiles older than the configured expiration.
// Caller must hold the write lock.
func (q *FlowFileQueue) expireLocked(now time.Time) {
	if q.expiration <= 0 {
		return
	}
	kept := q.flowFiles[:0]
	for _, ff := range q.flowFiles {
		if now.Sub(ff.EnqueuedAt) > q.expiration {
			q.queuedSize -= ff.Size
			continue
		}
		kept = append(kept, ff)
	}
	q.flowFiles = kept
}

// IsEmpty reports whether the queue holds no FlowFiles
func (q *FlowFileQueue) IsEmpty() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.flowFiles) == 0
}

// IsFull reports whether either backpressure threshold has been reached
func (q *FlowFileQueue) IsFull() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.backPressureObjectThreshold > 0 && int64(len(q.flowFiles)) >= q.backPressureObjectThreshold {
		return true
	}
	if q.backPressureDataSizeThreshold > 0 && q.queuedSize >= q.backPressureDataSizeThreshold {
		return true
	}
	return false
}

// QueuedCount returns the number of queued FlowFiles
func (q *FlowFileQueue) QueuedCount() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.flowFiles)
}

// QueuedSize returns the total size in bytes of queued FlowFiles
func (q *FlowFileQueue) QueuedSize() int64 {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.queuedSize
}

// BackPressureObjectThreshold returns the object-count admission limit
func (q *FlowFileQueue) BackPressureObjectThreshold() int64 {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.backPressureObjectThreshold
}

// BackPressureDataSizeThreshold returns the data-size admission limit in bytes
func (q *FlowFileQueue) BackPressureDataSizeThreshold() int64 {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.backPressureDataSizeThreshold
}

// Expiration returns the queue's FlowFile expiration duration
func (q *FlowFileQueue) Expiration() time.Duration {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.expiration
}

// SetThresholds updates the backpressure thresholds. Zero disables a limit.
func (q *FlowFileQueue) SetThresholds(objectThreshold, dataSizeThreshold int64) {
	q.mu.Lock()
	q.backPressureObjectThreshold = objectThreshold
	q.backPressureDataSizeThreshold = dataSizeThreshold
	q.mu.Unlock()
}

// SetExpiration updates the queue's FlowFile expiration duration
func (q *FlowFileQueue) SetExpiration(expiration time.Duration) {
	q.mu.Lock()
	q.expiration = expiration
	q.mu.Unlock()
}

// VerifyCanDelete rejects deletion while FlowFiles remain queued
func (q *FlowFileQueue) VerifyCanDelete() error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if len(q.flowFiles) > 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%d flowfiles still queued", len(q.flowFiles)),
			"FlowFileQueue", "VerifyCanDelete", "empty queue check")
	}
	return nil
}
