//go:build !linux

package upstream

import (
	"context"
	"time"
)

// POSIX message queues are only wired up on Linux
type QueueSet struct{}

func Open(ctx context.Context, cfg Config) (source *QueueSet, err error) {
	err = ErrUnavailable
	return
}

func (source *QueueSet) Receive(timeout time.Duration) (msg Message, ok bool, err error) {
	err = ErrUnavailable
	return
}

func (source *QueueSet) Close() (err error) {
	return
}

type SharedMemory struct {
	Dir string
}

func (shm SharedMemory) Fetch(name string, length uint64) (frame []byte, err error) {
	err = ErrUnavailable
	return
}
