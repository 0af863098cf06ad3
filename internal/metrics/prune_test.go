package metrics

import (
	"testing"
	"time"
)

func TestRegistry_Prune(t *testing.T) {
	tests := []struct {
		name      string
		after     time.Duration // current time relative to ts3
		maxAge    time.Duration
		wantFirst string // oldest surviving slice, empty when all are gone
		wantCount int
	}{
		{"nothing old enough", 30 * time.Second, time.Hour, "ts1", 8},
		{"oldest slice dropped", 30 * time.Second, 90 * time.Second, "ts2", 5},
		{"only newest kept", 30 * time.Second, 40 * time.Second, "ts3", 2},
		{"everything expired", time.Hour, time.Minute, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, ts := setupRegistryWithData(t)

			reg.Prune(ts["ts3"].Add(tt.after), tt.maxAge)

			results := reg.Search("", nil, time.Time{}, time.Time{})
			if len(results) != tt.wantCount {
				t.Fatalf("expected %d metrics after prune, got %d", tt.wantCount, len(results))
			}
			if tt.wantFirst == "" {
				return
			}
			if !results[0].Timestamp.Equal(ts[tt.wantFirst]) {
				t.Fatalf("oldest surviving metric at %v, want %v", results[0].Timestamp, ts[tt.wantFirst])
			}
		})
	}
}
