package logctx

import (
	"sync"
	"time"
)

type Event struct {
	Timestamp time.Time
	Severity  string
	Tags      []string
	Message   string
}

// Queue of events between producers and a single output watcher
type Logger struct {
	ID   string
	Done <-chan struct{} // Watcher exits once closed and the queue is empty

	mutex sync.Mutex
	cond  *sync.Cond
	queue []Event
	level int

	watchers sync.WaitGroup
}

// Repeat suppression state owned by a single watcher
type dedupState struct {
	lastMsg          string
	repeatCount      int
	lastSuppressTime time.Time
}
