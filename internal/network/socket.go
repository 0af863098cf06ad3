package network

import (
	"context"
	"fmt"
	"net"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Creates new TCP listener object, allowed to bind while an old instance is still draining
func ReuseTCPPort(addr string) (conn net.Listener, err error) {
	// Using x/sys/unix package for more up-to-date syscall numbers
	cfg := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var err error
			c.Control(func(fd uintptr) {
				// Allow port reuse
				err = unix.SetsockoptInt(
					int(fd),
					unix.SOL_SOCKET,
					unix.SO_REUSEADDR,
					1,
				)
				if err != nil {
					return
				}

				// Allow multiple active listeners
				err = unix.SetsockoptInt(
					int(fd),
					unix.SOL_SOCKET,
					unix.SO_REUSEPORT,
					1,
				)
			})
			return err
		},
	}

	conn, err = cfg.Listen(context.Background(), "tcp", addr)
	if err != nil {
		err = fmt.Errorf("failed to listen on reused tcp port: %w", err)
		return
	}

	return
}

// Enables keepalive on an accepted consumer socket so dead peers are detected.
// A live peer that stops reading is never dropped here.
// Connections that are not TCP are left untouched.
func TuneConsumerConn(conn net.Conn, keepAlive time.Duration) (err error) {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok || keepAlive <= 0 {
		return
	}

	err = tcpConn.SetKeepAliveConfig(net.KeepAliveConfig{
		Enable:   true,
		Idle:     keepAlive,
		Interval: keepAlive,
		Count:    -1,
	})
	if err != nil {
		err = fmt.Errorf("failed to enable keepalive: %w", err)
	}
	return
}
