// Per-connection delivery: reads the client handshake, then streams queued messages and heartbeats
package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"runtime/debug"
	"sonarfeed/internal/global"
	"sonarfeed/internal/logctx"
	"sonarfeed/internal/queue/mailbox"
	"sonarfeed/pkg/protocol"
	"strconv"
	"time"
)

var ErrTransportWrite = errors.New("worker: transport write failed")

var heartbeatFrame = []byte{protocol.Delimiter}

// Creates a worker for an accepted connection. onClose runs once when the
// worker reaches Closed, from the worker goroutine or from Stop.
func New(namespace []string, id uint64, conn net.Conn, cfg Config, onClose func(id uint64)) (new *Worker) {
	ns := append(append([]string{}, namespace...), global.NSWorker, strconv.FormatUint(id, 10))

	new = &Worker{
		ID:        id,
		Namespace: ns,
		Mailbox:   mailbox.New[[]byte](ns),
		conn:      conn,
		cfg:       cfg,
		onClose:   onClose,
	}
	if conn.RemoteAddr() != nil {
		new.RemoteAddr = conn.RemoteAddr().String()
	}
	new.state.Store(int32(AwaitHandshake))
	new.heartbeat.Store(int64(cfg.DefaultHeartbeat))
	return
}

// Launches the worker goroutine
func (worker *Worker) Start(ctx context.Context) {
	ctx = logctx.ReplaceCtxTags(ctx, worker.Namespace)

	worker.wg.Add(1)
	go func() {
		defer worker.wg.Done()
		worker.run(ctx)
	}()
}

// Queues an encoded message (without delimiter). Never blocks.
func (worker *Worker) Enqueue(payload []byte) (accepted bool) {
	accepted = worker.Mailbox.Push(payload, len(payload))
	return
}

// Closes the mailbox and socket and waits for the goroutine to exit.
// Must not be called from onClose.
func (worker *Worker) Stop() {
	worker.stopping.Store(true)
	worker.teardown()
	worker.wg.Wait()
}

func (worker *Worker) State() (state State) {
	state = State(worker.state.Load())
	return
}

// Heartbeat interval in effect (0 means none)
func (worker *Worker) Heartbeat() (interval time.Duration) {
	interval = time.Duration(worker.heartbeat.Load())
	return
}

// Options sent by the client, valid once streaming
func (worker *Worker) Options() (opts protocol.Options) {
	stored := worker.options.Load()
	if stored != nil {
		opts = *stored
	}
	return
}

func (worker *Worker) run(ctx context.Context) {
	defer worker.teardown()
	defer func() {
		if fatalError := recover(); fatalError != nil {
			stack := debug.Stack()
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
				"panic in connection worker: %v\n%s", fatalError, stack)
		}
	}()

	opts, err := worker.readHandshake()
	if err != nil && !worker.stopping.Load() {
		logctx.LogEvent(ctx, global.VerbosityProgress, global.WarnLog,
			"Client %s handshake unusable, using defaults: %v\n", worker.RemoteAddr, err)
	}
	worker.options.Store(&opts)

	heartbeat := worker.cfg.DefaultHeartbeat
	if err == nil {
		heartbeat = opts.HeartbeatInterval(worker.cfg.DefaultHeartbeat)
	}
	worker.heartbeat.Store(int64(heartbeat))
	worker.state.CompareAndSwap(int32(AwaitHandshake), int32(Streaming))

	logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
		"Client %s streaming (host %q, heartbeat %s)\n", worker.RemoteAddr, opts.HostName(), heartbeat)

	err = worker.stream(heartbeat)
	if err != nil && !worker.stopping.Load() {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"Client %s disconnected: %v\n", worker.RemoteAddr, err)
		return
	}
	logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog,
		"Client %s connection closed\n", worker.RemoteAddr)
}

// Reads until a delimiter, a complete JSON value, the size bound, EOF or the deadline
func (worker *Worker) readHandshake() (opts protocol.Options, err error) {
	limit := worker.cfg.MaxHandshakeSize
	if limit <= 0 {
		limit = global.DefaultMaxHandshakeSize
	}
	if worker.cfg.HandshakeTimeout > 0 {
		worker.conn.SetReadDeadline(time.Now().Add(worker.cfg.HandshakeTimeout))
		defer worker.conn.SetReadDeadline(time.Time{})
	}

	buf := make([]byte, 0, limit)
	chunk := make([]byte, limit)

	var readErr error
	for len(buf) < limit {
		var n int
		n, readErr = worker.conn.Read(chunk[:limit-len(buf)])
		buf = append(buf, chunk[:n]...)

		end, complete := protocol.HandshakeEnd(buf)
		if complete {
			buf = buf[:end]
			break
		}
		if readErr != nil {
			break
		}
	}
	worker.Metrics.HandshakeBytes.Add(uint64(len(buf)))

	if len(buf) == 0 {
		switch {
		case readErr == nil:
			err = fmt.Errorf("%w: empty message", protocol.ErrHandshake)
		case errors.Is(readErr, os.ErrDeadlineExceeded):
			err = fmt.Errorf("%w: none received within %s", protocol.ErrHandshake, worker.cfg.HandshakeTimeout)
		case errors.Is(readErr, io.EOF):
			err = fmt.Errorf("%w: connection closed before handshake", protocol.ErrHandshake)
		default:
			err = fmt.Errorf("%w: %v", protocol.ErrHandshake, readErr)
		}
		return
	}

	opts, err = protocol.ParseOptions(buf)
	return
}

// Delivers messages until the mailbox closes or a write fails
func (worker *Worker) stream(heartbeat time.Duration) (err error) {
	for {
		items, open := worker.Mailbox.DrainOrWait(heartbeat)
		if !open {
			return
		}

		start := time.Now()
		if len(items) == 0 {
			err = worker.write(net.Buffers{heartbeatFrame})
			worker.Metrics.Heartbeats.Add(1)
		} else {
			batch := make(net.Buffers, 0, len(items)*2)
			for _, item := range items {
				batch = append(batch, item, heartbeatFrame)
			}
			err = worker.write(batch)
			worker.Metrics.MessagesSent.Add(uint64(len(items)))
		}
		worker.Metrics.recordWrite(time.Since(start))

		if err != nil {
			worker.Metrics.WriteErrors.Add(1)
			return
		}
	}
}

func (worker *Worker) write(batch net.Buffers) (err error) {
	written, err := batch.WriteTo(worker.conn)
	worker.Metrics.BytesSent.Add(uint64(written))
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrTransportWrite, err)
	}
	return
}

// Transition to Closed, runs once
func (worker *Worker) teardown() {
	worker.closeOnce.Do(func() {
		worker.state.Store(int32(Closed))
		worker.Mailbox.Close()
		worker.conn.Close()
		if worker.onClose != nil {
			worker.onClose(worker.ID)
		}
	})
}
