package mailbox

import (
	"sync"
	"sync/atomic"
)

// Unbounded FIFO with a single waiting consumer
type Mailbox[T any] struct {
	Namespace []string
	mu        sync.Mutex
	items     []T
	sizes     []int
	closed    bool
	notify    chan struct{} // Holds at most one pending wake
	Metrics   *MetricStorage
}

type MetricStorage struct {
	Depth atomic.Uint64 // Current items waiting
	Bytes atomic.Uint64 // Current byte sum waiting

	PeakDepth atomic.Uint64 // Highest depth seen in the interval
	Pushes    atomic.Uint64 // Accepted pushes in the interval
	Dropped   atomic.Uint64 // Pushes after close in the interval
	Drains    atomic.Uint64 // Non-empty drains in the interval
	Timeouts  atomic.Uint64 // Drains that expired empty in the interval
}
