// Context-carried buffered logger shared by the distributor daemon and the listening client
package logctx

import (
	"context"
	"fmt"
	"sonarfeed/internal/global"
	"strings"
	"sync"
	"time"
)

// Creates a logger and returns a child of baseCtx carrying it
func New(baseCtx context.Context, id string, logLevel int, done <-chan struct{}) (ctxLogger context.Context) {
	ctxLogger = WithLogger(baseCtx, NewLogger(id, logLevel, done))
	return
}

func NewLogger(id string, logLevel int, done <-chan struct{}) (logger *Logger) {
	logger = &Logger{ID: id, Done: done, level: logLevel}
	logger.cond = sync.NewCond(&logger.mutex)
	return
}

func WithLogger(ctx context.Context, logger *Logger) (ctxLogger context.Context) {
	ctxLogger = context.WithValue(ctx, global.LoggerKey, logger)
	return
}

// Logger carried by ctx, nil if there is none
func GetLogger(ctx context.Context) (logger *Logger) {
	logger, _ = ctx.Value(global.LoggerKey).(*Logger)
	return
}

func SetLogLevel(ctx context.Context, newLevel int) {
	logger := GetLogger(ctx)
	if logger == nil {
		return
	}
	logger.mutex.Lock()
	logger.level = newLevel
	logger.mutex.Unlock()
}

// Records message at eventLevel under the tags carried by ctx.
// The message is only treated as a format string when vars are given.
func LogEvent(ctx context.Context, eventLevel int, severity string, message string, vars ...any) {
	logger := GetLogger(ctx)
	if logger == nil {
		return
	}

	if len(vars) > 0 && strings.Contains(message, "%") {
		message = fmt.Sprintf(message, vars...)
	}
	logger.enqueue(eventLevel, Event{
		Timestamp: time.Now(),
		Severity:  severity,
		Tags:      GetTagList(ctx),
		Message:   message,
	})
}

// Errors are always kept, anything else only up to the configured level
func (logger *Logger) enqueue(eventLevel int, event Event) {
	logger.mutex.Lock()
	defer logger.mutex.Unlock()

	if eventLevel > logger.level && event.Severity != global.ErrorLog {
		return
	}
	logger.queue = append(logger.queue, event)
	logger.cond.Signal()
}
