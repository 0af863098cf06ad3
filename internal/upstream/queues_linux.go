//go:build linux

package upstream

import (
	"context"
	"fmt"
	"sonarfeed/internal/global"
	"sonarfeed/internal/logctx"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

type watchedQueue struct {
	kind  Kind
	queue *messageQueue
}

// Source multiplexing the pipeline's POSIX message queues with poll(2)
type QueueSet struct {
	mu      sync.Mutex
	watched []watchedQueue
	pending []Message
	closed  bool
}

// Attaches to the tracker queue and, when configured, subscribes private
// queues to the frame buffer and echometrics producers. Only the tracker
// queue is mandatory.
func Open(ctx context.Context, cfg Config) (source *QueueSet, err error) {
	ctx = logctx.AppendCtxTag(ctx, global.NSUpstream)

	tracks, err := openQueue(cfg.TracksQueue, unix.O_RDONLY|unix.O_NONBLOCK)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrUnavailable, err)
		return
	}
	source = &QueueSet{
		watched: []watchedQueue{{kind: KindTrack, queue: tracks}},
	}
	logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
		"Reading tracks from %s\n", tracks.name)

	pid := strconv.Itoa(cfg.PID)

	if cfg.FramesQueue != "" {
		frames, subErr := subscribe(queueName(cfg.FramesQueue), privateFramePrefix+pid)
		if subErr != nil {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
				"Frames disabled, could not subscribe to %s: %v\n", cfg.FramesQueue, subErr)
		} else {
			source.watched = append(source.watched, watchedQueue{kind: KindFrameEnvelope, queue: frames})
			logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
				"Subscribed %s to frame buffer %s\n", frames.name, cfg.FramesQueue)
		}
	}

	if cfg.MetricsQueue != "" {
		echo, subErr := subscribe(queueName(cfg.MetricsQueue), privateMetricsPrefix+pid)
		if subErr != nil {
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
				"Echo metrics disabled, could not subscribe to %s: %v\n", cfg.MetricsQueue, subErr)
		} else {
			source.watched = append(source.watched, watchedQueue{kind: KindMetrics, queue: echo})
			logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
				"Subscribed %s to echo metrics %s\n", echo.name, cfg.MetricsQueue)
		}
	}
	return
}

// Waits up to timeout for any watched queue to become readable
func (source *QueueSet) Receive(timeout time.Duration) (msg Message, ok bool, err error) {
	source.mu.Lock()
	defer source.mu.Unlock()

	if source.closed {
		err = ErrClosed
		return
	}

	if len(source.pending) == 0 {
		err = source.poll(timeout)
		if err != nil {
			return
		}
	}

	if len(source.pending) > 0 {
		msg = source.pending[0]
		source.pending = source.pending[1:]
		ok = true
	}
	return
}

// One message from every readable queue, in watch order
func (source *QueueSet) poll(timeout time.Duration) (err error) {
	fds := make([]unix.PollFd, len(source.watched))
	for i, watched := range source.watched {
		fds[i] = unix.PollFd{Fd: int32(watched.queue.fd), Events: unix.POLLIN}
	}

	_, err = unix.Poll(fds, int(timeout.Milliseconds()))
	if err == unix.EINTR {
		err = nil
		return
	}
	if err != nil {
		err = fmt.Errorf("poll upstream queues: %w", err)
		return
	}

	for i, fd := range fds {
		if fd.Revents&unix.POLLIN == 0 {
			continue
		}
		watched := source.watched[i]

		data, ok, recvErr := watched.queue.receive()
		if recvErr != nil {
			err = recvErr
			return
		}
		if !ok {
			continue
		}
		if watched.kind == KindFrameEnvelope && len(data) == subscribeConfirmSize {
			continue
		}
		source.pending = append(source.pending, Message{Kind: watched.kind, Data: data})
	}
	return
}

// Closes every descriptor and unlinks private queues
func (source *QueueSet) Close() (err error) {
	source.mu.Lock()
	defer source.mu.Unlock()

	if source.closed {
		return
	}
	source.closed = true

	for _, watched := range source.watched {
		closeErr := watched.queue.close()
		if err == nil {
			err = closeErr
		}
	}
	return
}
