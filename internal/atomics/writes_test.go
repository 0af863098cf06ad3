package atomics

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestSubtractFloor(t *testing.T) {
	tests := []struct {
		name      string
		initial   uint64
		value     uint64
		wantFinal uint64
	}{
		{"zero stays zero", 0, 5, 0},
		{"partial", 10, 3, 7},
		{"exact", 6, 6, 0},
		{"clamped at zero", 5, 10, 0},
		{"nothing subtracted", 8, 0, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var counter atomic.Uint64
			counter.Store(tt.initial)

			remaining := SubtractFloor(&counter, tt.value)
			if remaining != tt.wantFinal {
				t.Fatalf("expected returned %d, got %d", tt.wantFinal, remaining)
			}
			if counter.Load() != tt.wantFinal {
				t.Fatalf("expected stored %d, got %d", tt.wantFinal, counter.Load())
			}
		})
	}
}

func TestSubtractFloor_Concurrent(t *testing.T) {
	var counter atomic.Uint64
	counter.Store(1000)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				SubtractFloor(&counter, 7)
			}
		}()
	}
	wg.Wait()

	if counter.Load() != 0 {
		t.Fatalf("expected counter to settle at 0, got %d", counter.Load())
	}
}

func TestStoreMax(t *testing.T) {
	tests := []struct {
		name       string
		initial    uint64
		value      uint64
		wantStored bool
		wantFinal  uint64
	}{
		{"larger value stored", 4, 9, true, 9},
		{"smaller value ignored", 9, 4, false, 9},
		{"equal value ignored", 7, 7, false, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var counter atomic.Uint64
			counter.Store(tt.initial)

			stored := StoreMax(&counter, tt.value)
			if stored != tt.wantStored {
				t.Fatalf("expected stored=%v, got %v", tt.wantStored, stored)
			}
			if counter.Load() != tt.wantFinal {
				t.Fatalf("expected final=%d, got %d", tt.wantFinal, counter.Load())
			}
		})
	}
}
