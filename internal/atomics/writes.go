// Lock free helpers for counters shared between goroutines
package atomics

import "sync/atomic"

// Lowers the counter by value, stopping at zero. Returns the stored result.
func SubtractFloor(counter *atomic.Uint64, value uint64) (remaining uint64) {
	for {
		current := counter.Load()
		remaining = 0
		if current > value {
			remaining = current - value
		}
		if current == remaining || counter.CompareAndSwap(current, remaining) {
			return
		}
	}
}

// Raises the counter to value if value is larger. Returns true when stored.
func StoreMax(counter *atomic.Uint64, value uint64) (stored bool) {
	for {
		current := counter.Load()
		if value <= current {
			return
		}
		if counter.CompareAndSwap(current, value) {
			stored = true
			return
		}
	}
}
