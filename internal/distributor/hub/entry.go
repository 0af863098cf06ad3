// Accepts consumer connections and broadcasts every upstream record to all of them
package hub

import (
	"context"
	"errors"
	"net"
	"runtime/debug"
	"sonarfeed/internal/distributor/worker"
	"sonarfeed/internal/global"
	"sonarfeed/internal/logctx"
	"sonarfeed/internal/network"
	"sonarfeed/internal/upstream"
	"time"
)

const (
	acceptBackoffMin time.Duration = 5 * time.Millisecond
	acceptBackoffMax time.Duration = time.Second
)

func New(namespace []string, listener net.Listener, source upstream.Source, fetcher upstream.FrameFetcher, cfg Config) (new *Hub) {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = global.DefaultPollInterval
	}

	new = &Hub{
		Namespace: append(append([]string{}, namespace...), global.NSHub),
		listener:  listener,
		source:    source,
		fetcher:   fetcher,
		cfg:       cfg,
		workers:   make(map[uint64]*worker.Worker),
	}
	return
}

// Runs the accept and reader loops until Shutdown
func (hub *Hub) Start(ctx context.Context) {
	hub.ctx, hub.cancel = context.WithCancel(ctx)
	ctx = logctx.ReplaceCtxTags(hub.ctx, hub.Namespace)

	hub.wg.Add(2)
	go func() {
		defer hub.wg.Done()
		hub.AcceptLoop(logctx.AppendCtxTag(ctx, global.NSAccept))
	}()
	go func() {
		defer hub.wg.Done()
		hub.ReaderLoop(logctx.AppendCtxTag(ctx, global.NSReader))
	}()
}

// Turns each accepted connection into a registered, running worker
func (hub *Hub) AcceptLoop(ctx context.Context) {
	backoff := acceptBackoffMin

	for {
		conn, err := hub.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}

			hub.Metrics.AcceptErrors.Add(1)
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
				"Failed accepting connection (retrying in %s): %v\n", backoff, err)

			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > acceptBackoffMax {
				backoff = acceptBackoffMax
			}
			continue
		}
		backoff = acceptBackoffMin

		hub.register(ctx, conn)
	}
}

// Polls upstream, converts each record once and broadcasts it
func (hub *Hub) ReaderLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		stop := func() (stop bool) {
			defer func() {
				if fatalError := recover(); fatalError != nil {
					stack := debug.Stack()
					logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
						"panic in upstream reader: %v\n%s", fatalError, stack)
				}
			}()

			msg, ok, err := hub.source.Receive(hub.cfg.PollInterval)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, upstream.ErrClosed) {
					stop = true
					return
				}
				hub.Metrics.UpstreamErrors.Add(1)
				logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
					"Failed reading upstream: %v\n", err)

				// Avoid spinning on a persistent failure
				select {
				case <-ctx.Done():
				case <-time.After(hub.cfg.PollInterval):
				}
				return
			}
			if !ok {
				return
			}
			hub.Metrics.Received.Add(1)

			start := time.Now()
			payload, err := hub.convert(msg)
			hub.Metrics.recordConvert(time.Since(start))
			if err != nil {
				hub.Metrics.DecodeErrors.Add(1)
				logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
					"Dropped %s message (%d bytes): %v\n", msg.Kind, len(msg.Data), err)
				return
			}

			delivered := hub.Broadcast(payload)
			logctx.LogEvent(ctx, global.VerbosityData, global.InfoLog,
				"Broadcast %s message (%d bytes) to %d clients\n", msg.Kind, len(payload), delivered)
			return
		}()
		if stop {
			return
		}
	}
}

// Queues one encoded message on every active worker, returns how many took it.
// The payload is shared and must not be modified afterwards.
func (hub *Hub) Broadcast(payload []byte) (delivered int) {
	for _, active := range hub.Snapshot() {
		if active.Enqueue(payload) {
			delivered++
		}
	}
	hub.Metrics.Broadcasts.Add(1)
	hub.Metrics.Deliveries.Add(uint64(delivered))
	hub.Metrics.EncodedBytes.Add(uint64(len(payload)))
	return
}

// Active workers at this instant
func (hub *Hub) Snapshot() (workers []*worker.Worker) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	workers = make([]*worker.Worker, 0, len(hub.workers))
	for _, active := range hub.workers {
		workers = append(workers, active)
	}
	return
}

// Number of active workers
func (hub *Hub) Count() (count int) {
	hub.mu.Lock()
	count = len(hub.workers)
	hub.mu.Unlock()
	return
}

// Closes the listener, stops both loops, then stops every worker.
// Returns once all goroutines have exited.
func (hub *Hub) Shutdown() {
	hub.shutdownOnce.Do(func() {
		if hub.cancel != nil {
			hub.cancel()
		}
		hub.listener.Close()
		hub.wg.Wait()

		hub.mu.Lock()
		hub.closed = true
		remaining := make([]*worker.Worker, 0, len(hub.workers))
		for id, active := range hub.workers {
			remaining = append(remaining, active)
			delete(hub.workers, id)
		}
		hub.mu.Unlock()

		for _, active := range remaining {
			active.Stop()
		}
	})
}

func (hub *Hub) register(ctx context.Context, conn net.Conn) {
	err := network.TuneConsumerConn(conn, global.ConsumerKeepAlive)
	if err != nil {
		logctx.LogEvent(ctx, global.VerbosityProgress, global.WarnLog,
			"Could not tune socket for %s: %v\n", conn.RemoteAddr(), err)
	}

	hub.mu.Lock()
	if hub.closed {
		hub.mu.Unlock()
		conn.Close()
		return
	}
	id := hub.nextID
	hub.nextID++
	active := worker.New(hub.Namespace, id, conn, hub.cfg.Worker, hub.remove)
	hub.workers[id] = active
	count := len(hub.workers)
	hub.mu.Unlock()

	hub.Metrics.Accepted.Add(1)
	logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog,
		"Accepted connection %d from %s (%d active)\n", id, active.RemoteAddr, count)

	active.Start(ctx)
}

// Worker close callback
func (hub *Hub) remove(id uint64) {
	hub.mu.Lock()
	_, present := hub.workers[id]
	delete(hub.workers, id)
	hub.mu.Unlock()

	if present {
		hub.Metrics.Disconnected.Add(1)
	}
}
