package logctx

import (
	"fmt"
	"io"
	"sonarfeed/internal/global"
	"time"
)

const (
	dedupWindow      time.Duration = 5 * time.Second
	dedupMinRepeats  int           = 10
	suppressCooldown time.Duration = 1 * time.Minute
)

// Hold main thread exit until logger is finished its work
func (logger *Logger) Wait() {
	logger.watchers.Wait()
}

// Wake signals/broadcasts to any goroutines waiting on the condition variable
func (logger *Logger) Wake() {
	logger.mutex.Lock()
	defer logger.mutex.Unlock()
	logger.cond.Broadcast()
}

// Wakes the watcher and blocks until it has written everything queued.
// Only returns once Done is closed.
func (logger *Logger) Flush() {
	logger.Wake()
	logger.Wait()
}

// Starts a go routine that reads events and writes formatted output to io.Writer.
// Stops when logger.Done is closed and nothing is left in the queue.
func StartWatcher(logger *Logger, output io.Writer) {
	logger.watchers.Add(1)

	go func() {
		defer logger.watchers.Done()

		var dedup dedupState
		for {
			event, ok := logger.next()
			if !ok {
				return
			}

			if dedup.suppress(event, output) {
				continue
			}

			fmt.Fprintf(output, "%s", event.Format())
		}
	}()
}

// Pops the oldest event, waiting while the queue is empty.
// Returns false once done is closed and the queue is drained.
func (logger *Logger) next() (event Event, ok bool) {
	logger.mutex.Lock()
	defer logger.mutex.Unlock()

	for len(logger.queue) == 0 {
		select {
		case <-logger.Done:
			return
		default:
			logger.cond.Wait()
		}
	}

	event = logger.queue[0]
	logger.queue = logger.queue[1:]
	ok = true
	return
}

// Reports whether the event repeats the previous message closely enough to be skipped.
// Emits a single summary line at most once per cooldown.
func (dedup *dedupState) suppress(event Event, output io.Writer) (skip bool) {
	now := time.Now()

	if event.Message == "" || event.Message != dedup.lastMsg || now.Sub(event.Timestamp) > dedupWindow {
		dedup.lastMsg = event.Message
		dedup.repeatCount = 1
		return
	}

	dedup.repeatCount++
	if dedup.repeatCount >= dedupMinRepeats && now.Sub(dedup.lastSuppressTime) >= suppressCooldown {
		summary := Event{
			Timestamp: event.Timestamp,
			Severity:  global.InfoLog,
			Tags:      event.Tags,
			Message:   fmt.Sprintf("Suppressed %d repeated messages: %s", dedup.repeatCount, dedup.lastMsg),
		}
		fmt.Fprint(output, summary.Format())
		dedup.lastSuppressTime = now
		dedup.repeatCount = 0
	}
	skip = true
	return
}
