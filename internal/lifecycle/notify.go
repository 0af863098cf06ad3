// Process lifecycle: signal handling and systemd readiness notifications
package lifecycle

import (
	"context"
	"fmt"
	"net"
	"os"
	"sonarfeed/internal/global"
	"sonarfeed/internal/logctx"
	"strings"

	"golang.org/x/sys/unix"
)

// Service finished starting and accepts consumers
func NotifyReady(ctx context.Context) (err error) {
	err = notify(ctx, msgReady)
	return
}

func NotifyStopping(ctx context.Context) (err error) {
	err = notify(ctx, msgStopping)
	return
}

// Free-form status shown by systemctl status
func NotifyStatus(ctx context.Context, msg string) (err error) {
	err = notify(ctx, msgStatus+msg)
	return
}

// Reload requests are answered without reloading anything: a notify-reload
// unit expects RELOADING=1 with a monotonic timestamp followed by READY=1.
func acknowledgeReload(ctx context.Context) (err error) {
	var now unix.Timespec
	err = unix.ClockGettime(unix.CLOCK_MONOTONIC, &now)
	if err != nil {
		err = fmt.Errorf("failed to read monotonic clock: %w", err)
		return
	}

	err = notify(ctx, fmt.Sprintf("%s\nMONOTONIC_USEC=%d", msgReloading, now.Nano()/1_000))
	if err != nil {
		return
	}
	err = notify(ctx, msgReady+"\n"+msgStatus+"Reload ignored, running with startup configuration")
	return
}

// Writes one datagram to $NOTIFY_SOCKET. Outside systemd (variable unset) it does nothing.
// Abstract socket names are given with a leading '@'.
func notify(ctx context.Context, msg string) (err error) {
	socket := os.Getenv(EnvNameNotifySocket)
	if socket == "" {
		return
	}
	if strings.HasPrefix(socket, "@") {
		socket = "\x00" + socket[1:]
	}

	conn, err := net.DialUnix("unixgram", nil, &net.UnixAddr{Name: socket, Net: "unixgram"})
	if err != nil {
		err = fmt.Errorf("failed to reach systemd notify socket: %w", err)
		return
	}
	defer conn.Close()

	_, err = conn.Write([]byte(msg))
	if err != nil {
		err = fmt.Errorf("failed to send systemd notification: %w", err)
		return
	}

	logctx.LogEvent(ctx, global.VerbosityProgress, global.InfoLog, "Notified systemd: %q\n", msg)
	return
}
