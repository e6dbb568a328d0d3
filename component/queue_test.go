package component

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFOOrder(t *testing.T) {
	q := NewFlowFileQueue(0, 0, 0)

	q.Enqueue(FlowFile{ID: "ff1", Size: 10})
	q.Enqueue(FlowFile{ID: "ff2", Size: 20})
	assert.Equal(t, 2, q.QueuedCount())
	assert.Equal(t, int64(30), q.QueuedSize())

	ff, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "ff1", ff.ID)

	ff, ok = q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "ff2", ff.ID)
	assert.True(t, q.IsEmpty())

	_, ok = q.Dequeue()
	assert.False(t, ok)
}

func TestQueueObjectBackpressure(t *testing.T) {
	q := NewFlowFileQueue(2, 0, 0)

	q.Enqueue(FlowFile{ID: "ff1", Size: 1})
	assert.False(t, q.IsFull())

	q.Enqueue(FlowFile{ID: "ff2", Size: 1})
	assert.True(t, q.IsFull())

	// thresholds are advisory; enqueue past the limit still succeeds
	q.Enqueue(FlowFile{ID: "ff3", Size: 1})
	assert.Equal(t, 3, q.QueuedCount())
}

func TestQueueDataSizeBackpressure(t *testing.T) {
	q := NewFlowFileQueue(0, 100, 0)

	q.Enqueue(FlowFile{ID: "ff1", Size: 60})
	assert.False(t, q.IsFull())

	q.Enqueue(FlowFile{ID: "ff2", Size: 40})
	assert.True(t, q.IsFull())

	_, ok := q.Dequeue()
	require.True(t, ok)
	assert.False(t, q.IsFull())
}

func TestQueueZeroThresholdsDisableBackpressure(t *testing.T) {
	q := NewFlowFileQueue(0, 0, 0)
	for i := 0; i < 100; i++ {
		q.Enqueue(FlowFile{ID: "ff", Size: 1 << 20})
	}
	assert.False(t, q.IsFull())
}

func TestQueueExpiration(t *testing.T) {
	q := NewFlowFileQueue(0, 0, 50*time.Millisecond)

	q.Enqueue(FlowFile{ID: "old", Size: 5, EnqueuedAt: time.Now().Add(-time.Second)})
	q.Enqueue(FlowFile{ID: "fresh", Size: 7})

	ff, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "fresh", ff.ID)
	assert.True(t, q.IsEmpty())
	assert.Equal(t, int64(0), q.QueuedSize())
}

func TestQueueSetThresholds(t *testing.T) {
	q := NewFlowFileQueue(10, 0, 0)
	q.Enqueue(FlowFile{ID: "ff1", Size: 1})

	q.SetThresholds(1, 0)
	assert.True(t, q.IsFull())
	assert.Equal(t, int64(1), q.BackPressureObjectThreshold())

	q.SetExpiration(time.Minute)
	assert.Equal(t, time.Minute, q.Expiration())
}

func TestQueueVerifyCanDelete(t *testing.T) {
	q := NewFlowFileQueue(0, 0, 0)
	require.NoError(t, q.VerifyCanDelete())

	q.Enqueue(FlowFile{ID: "ff1", Size: 1})
	require.Error(t, q.VerifyCanDelete())

	_, ok := q.Dequeue()
	require.True(t, ok)
	require.NoError(t, q.VerifyCanDelete())
}
