package metrics

import (
	"slices"
	"time"
)

// Drops every slice that started more than maxAge before currentTime
func (registry *Registry) Prune(currentTime time.Time, maxAge time.Duration) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	cut, _ := registry.locate(currentTime.Add(-maxAge))
	if cut == 0 {
		return
	}
	registry.slices = slices.Clone(registry.slices[cut:])
}
