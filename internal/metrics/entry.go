// In-memory store of distributor metrics, searchable by name, namespace and time
package metrics

import (
	"sort"
	"time"
)

// Creates new metric registry storage
func New() (new *Registry) {
	new = &Registry{}
	return
}

// Index of the first slice starting at or after t, and whether it starts exactly at t.
// Caller holds the lock.
func (registry *Registry) locate(t time.Time) (index int, exact bool) {
	index = sort.Search(len(registry.slices), func(i int) bool {
		return !registry.slices[i].start.Before(t)
	})
	exact = index < len(registry.slices) && registry.slices[index].start.Equal(t)
	return
}
