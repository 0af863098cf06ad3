// Per-consumer unbounded delivery queue: producers push and wake, the consumer drains everything or waits
package mailbox

import (
	"sonarfeed/internal/atomics"
	"time"
)

const NSMailbox string = "Mailbox"

// Creates an empty open mailbox
func New[T any](namespace []string) (new *Mailbox[T]) {
	new = &Mailbox[T]{
		Namespace: append(append([]string{}, namespace...), NSMailbox),
		notify:    make(chan struct{}, 1),
		Metrics:   &MetricStorage{},
	}
	return
}

// Appends an item and wakes the waiter. Never blocks.
// Size is the item byte count used for backlog accounting.
// Returns false once the mailbox is closed.
func (box *Mailbox[T]) Push(item T, size int) (accepted bool) {
	if size < 0 {
		size = 0
	}

	box.mu.Lock()
	if box.closed {
		box.mu.Unlock()
		box.Metrics.Dropped.Add(1)
		return
	}
	box.items = append(box.items, item)
	box.sizes = append(box.sizes, size)
	depth := uint64(len(box.items))
	box.Metrics.Depth.Store(depth)
	box.Metrics.Bytes.Add(uint64(size))
	box.mu.Unlock()

	box.Metrics.Pushes.Add(1)
	atomics.StoreMax(&box.Metrics.PeakDepth, depth)

	box.wake()
	accepted = true
	return
}

// Takes every queued item in push order. When empty, waits up to timeout for
// at least one (timeout <= 0 waits until an item or Close). Timing out returns
// an empty slice with open still true. Open is false once closed and drained.
func (box *Mailbox[T]) DrainOrWait(timeout time.Duration) (items []T, open bool) {
	items, open = box.take()
	if len(items) > 0 || !open {
		return
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	for {
		select {
		case <-box.notify:
			items, open = box.take()
			if len(items) > 0 || !open {
				return
			}
			// Stale wake from an item already taken, keep waiting
		case <-expired:
			items, open = box.take()
			if len(items) == 0 && open {
				box.Metrics.Timeouts.Add(1)
			}
			return
		}
	}
}

// Marks the mailbox closed and wakes the waiter. Items still queued are
// returned by the next drain. Safe to call more than once.
func (box *Mailbox[T]) Close() {
	box.mu.Lock()
	box.closed = true
	box.mu.Unlock()
	box.wake()
}

// Number of items waiting
func (box *Mailbox[T]) Len() (depth int) {
	box.mu.Lock()
	depth = len(box.items)
	box.mu.Unlock()
	return
}

// Byte sum of items waiting
func (box *Mailbox[T]) Size() (bytes uint64) {
	bytes = box.Metrics.Bytes.Load()
	return
}

func (box *Mailbox[T]) take() (items []T, open bool) {
	box.mu.Lock()
	items = box.items
	sizes := box.sizes
	box.items = nil
	box.sizes = nil
	open = !box.closed || len(items) > 0

	var drained uint64
	for _, size := range sizes {
		drained += uint64(size)
	}
	box.Metrics.Depth.Store(0)
	atomics.SubtractFloor(&box.Metrics.Bytes, drained)
	box.mu.Unlock()

	if len(items) == 0 {
		items = []T{}
		return
	}
	box.Metrics.Drains.Add(1)
	return
}

// Non-blocking, one pending wake is enough for a single consumer
func (box *Mailbox[T]) wake() {
	select {
	case box.notify <- struct{}{}:
	default:
	}
}
