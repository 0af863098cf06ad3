package upstream

import (
	"sync"
	"time"
)

// In-process Source fed by Send. Used for replay and tests.
type MemorySource struct {
	messages  chan Message
	closeOnce sync.Once
	closed    chan struct{}
}

func NewMemorySource(buffer int) (source *MemorySource) {
	source = &MemorySource{
		messages: make(chan Message, buffer),
		closed:   make(chan struct{}),
	}
	return
}

// Queues a message, blocking while the buffer is full
func (source *MemorySource) Send(msg Message) (err error) {
	select {
	case <-source.closed:
		err = ErrClosed
	case source.messages <- msg:
	}
	return
}

func (source *MemorySource) Receive(timeout time.Duration) (msg Message, ok bool, err error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg = <-source.messages:
		ok = true
	case <-source.closed:
		err = ErrClosed
	case <-timer.C:
	}
	return
}

func (source *MemorySource) Close() (err error) {
	source.closeOnce.Do(func() { close(source.closed) })
	return
}
