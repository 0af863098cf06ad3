// Reconnecting consumer that reads the delimited JSON feed from a distributor
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sonarfeed/internal/global"
	"sonarfeed/internal/logctx"
	"sonarfeed/pkg/protocol"
	"time"
)

func New(cfg Config, handler Handler) (new *Client) {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = global.DefaultIdleTimeout
	}
	if cfg.RetryMin <= 0 {
		cfg.RetryMin = time.Second
	}
	if cfg.RetryMin > cfg.IdleTimeout {
		cfg.RetryMin = cfg.IdleTimeout
	}
	if cfg.Dialer == nil {
		var dialer net.Dialer
		cfg.Dialer = func(ctx context.Context, address string) (conn net.Conn, err error) {
			conn, err = dialer.DialContext(ctx, "tcp", address)
			return
		}
	}

	new = &Client{
		cfg:      cfg,
		handler:  handler,
		splitter: protocol.NewSplitter(cfg.MaxSegment),
	}
	return
}

// Closes any previous connection, dials and sends the handshake.
// Partially received data from the old connection is discarded.
func (client *Client) Connect(ctx context.Context) (err error) {
	client.closeConn()
	client.splitter.Reset()

	handshake, err := client.cfg.Options.Encode()
	if err != nil {
		err = fmt.Errorf("failed to encode handshake: %w", err)
		return
	}

	client.Metrics.Dials.Add(1)
	conn, err := client.cfg.Dialer(ctx, client.cfg.Address)
	if err != nil {
		err = fmt.Errorf("failed to connect to %s: %w", client.cfg.Address, err)
		return
	}

	// Handshake has no delimiter
	_, err = conn.Write(handshake)
	if err != nil {
		conn.Close()
		err = fmt.Errorf("failed to send handshake: %w", err)
		return
	}

	client.mu.Lock()
	client.conn = conn
	client.mu.Unlock()

	client.Metrics.Connects.Add(1)
	return
}

// Reads until ctx is cancelled, reconnecting after every read failure.
// Only returns an error if the handler asks to stop.
func (client *Client) Run(ctx context.Context) (err error) {
	ctx = logctx.AppendCtxTag(ctx, global.NSClient)

	// Unblocks a pending read on cancel
	stop := context.AfterFunc(ctx, client.closeConn)
	defer stop()
	defer client.closeConn()

	// Survives successful dials. Only a connection that lasted or delivered a message resets it.
	var delay time.Duration
	var connectedAt time.Time
	var messagesBefore uint64

	buf := make([]byte, global.ClientReadBufferSize)
	for {
		if ctx.Err() != nil {
			return
		}

		if !client.connected() {
			err = client.connectWithBackoff(ctx, &delay)
			if err != nil {
				err = nil
				return
			}
			connectedAt = time.Now()
			messagesBefore = client.Metrics.Messages.Load()
			logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog,
				"Connected to %s\n", client.cfg.Address)
		}

		err = client.readOnce(ctx, buf)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			err = nil
			return
		}
		if !isReconnectable(err) {
			return
		}

		if client.Metrics.Messages.Load() > messagesBefore || time.Since(connectedAt) >= client.cfg.RetryMin {
			delay = 0
		} else {
			delay = client.nextDelay(delay)
		}

		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"%v; reconnecting in %v\n", err, delay)
		client.Metrics.Reconnects.Add(1)
		client.closeConn()
		err = nil
	}
}

// Stops the current connection. Run reconnects unless its context is done.
func (client *Client) Close() {
	client.closeConn()
}

// Waits delay, then retries Connect with a growing delay until it succeeds.
// Gives up only when ctx ends. delay keeps its value for the next reconnect.
func (client *Client) connectWithBackoff(ctx context.Context, delay *time.Duration) (err error) {
	for {
		if *delay > 0 {
			select {
			case <-ctx.Done():
				err = ctx.Err()
				return
			case <-time.After(*delay):
			}
		}

		err = client.Connect(ctx)
		if err == nil {
			return
		}
		if ctx.Err() != nil {
			err = ctx.Err()
			return
		}

		*delay = client.nextDelay(*delay)
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"%v (retrying in %v)\n", err, *delay)
	}
}

// RetryMin first, then doubling up to the idle timeout
func (client *Client) nextDelay(current time.Duration) (next time.Duration) {
	next = current * 2
	if next < client.cfg.RetryMin {
		next = client.cfg.RetryMin
	}
	if next > client.cfg.IdleTimeout {
		next = client.cfg.IdleTimeout
	}
	return
}

// One bounded read, every complete message in it is decoded and handled
func (client *Client) readOnce(ctx context.Context, buf []byte) (err error) {
	client.mu.Lock()
	conn := client.conn
	client.mu.Unlock()
	if conn == nil {
		err = fmt.Errorf("%w: not connected", ErrRead)
		return
	}

	conn.SetReadDeadline(time.Now().Add(client.cfg.IdleTimeout))
	n, readErr := conn.Read(buf)
	if n > 0 {
		client.Metrics.BytesRead.Add(uint64(n))
		err = client.consume(ctx, buf[:n])
		if err != nil {
			return
		}
	}

	switch {
	case readErr == nil && n == 0:
		err = ErrEmptyRead
	case readErr == nil:
	case errors.Is(readErr, io.EOF):
		err = ErrEmptyRead
	case isTimeout(readErr):
		err = fmt.Errorf("%w (%v)", ErrReadTimeout, client.cfg.IdleTimeout)
	default:
		err = fmt.Errorf("%w: %w", ErrRead, readErr)
	}
	return
}

// Splits, decodes and hands off complete messages
func (client *Client) consume(ctx context.Context, data []byte) (err error) {
	beatsBefore := client.splitter.Heartbeats()
	segments, splitErr := client.splitter.Feed(data)
	client.Metrics.Heartbeats.Add(client.splitter.Heartbeats() - beatsBefore)
	if splitErr != nil {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"Dropping oversized message: %v\n", splitErr)
	}

	for _, segment := range segments {
		msg, decodeErr := protocol.DecodeMessage(segment)
		if decodeErr != nil {
			client.Metrics.DecodeErrors.Add(1)
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
				"Dropping undecodable message: %v\n", decodeErr)
			continue
		}
		client.Metrics.Messages.Add(1)

		if client.handler == nil {
			continue
		}
		err = client.handler(ctx, msg)
		if err != nil {
			err = fmt.Errorf("message handler failed: %w", err)
			return
		}
	}
	return
}

func (client *Client) connected() (ok bool) {
	client.mu.Lock()
	ok = client.conn != nil
	client.mu.Unlock()
	return
}

func (client *Client) closeConn() {
	client.mu.Lock()
	conn := client.conn
	client.conn = nil
	client.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

func isTimeout(err error) (timeout bool) {
	var netErr net.Error
	timeout = errors.As(err, &netErr) && netErr.Timeout()
	return
}

func isReconnectable(err error) (ok bool) {
	ok = errors.Is(err, ErrReadTimeout) || errors.Is(err, ErrEmptyRead) || errors.Is(err, ErrRead)
	return
}
