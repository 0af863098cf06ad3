package lifecycle

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"sonarfeed/internal/global"
	"sonarfeed/internal/logctx"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

// Listens on a unixgram socket standing in for systemd
func fakeNotifySocket(t *testing.T) (conn *net.UnixConn) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notify.sock")

	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: path, Net: "unixgram"})
	if err != nil {
		t.Skipf("unixgram sockets unavailable: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	t.Setenv(EnvNameNotifySocket, path)
	return
}

func readNotify(t *testing.T, conn *net.UnixConn) (msg string) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 512)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("no notification received: %v", err)
	}
	msg = string(buf[:n])
	return
}

func TestNotify(t *testing.T) {
	ctx := logctx.New(context.Background(), global.NSTest, global.VerbosityNone, nil)

	tests := []struct {
		name   string
		send   func(context.Context) error
		prefix string
	}{
		{"ready", NotifyReady, "READY=1"},
		{"stopping", NotifyStopping, "STOPPING=1"},
		{"status", func(ctx context.Context) error { return NotifyStatus(ctx, "serving 3 clients") }, "STATUS=serving 3 clients"},
		{"reload acknowledged", acknowledgeReload, "RELOADING=1\nMONOTONIC_USEC="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := fakeNotifySocket(t)

			if err := tt.send(ctx); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			msg := readNotify(t, conn)
			if !strings.HasPrefix(msg, tt.prefix) {
				t.Fatalf("got %q, want prefix %q", msg, tt.prefix)
			}
		})
	}
}

func TestNotify_NoSocket(t *testing.T) {
	t.Setenv(EnvNameNotifySocket, "")
	ctx := logctx.New(context.Background(), global.NSTest, global.VerbosityNone, nil)

	if err := NotifyReady(ctx); err != nil {
		t.Fatalf("expected no-op without systemd, got %v", err)
	}
}

type countingDaemon struct {
	shutdowns atomic.Int32
}

func (daemon *countingDaemon) Shutdown() {
	daemon.shutdowns.Add(1)
}

func TestHandleSignals(t *testing.T) {
	t.Setenv(EnvNameNotifySocket, "")

	tests := []struct {
		name          string
		signals       []os.Signal
		wantShutdowns int32
	}{
		{"terminate", []os.Signal{syscall.SIGTERM}, 1},
		{"interrupt", []os.Signal{syscall.SIGINT}, 1},
		{"hangup ignored then quit", []os.Signal{syscall.SIGHUP, syscall.SIGQUIT}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := logctx.New(context.Background(), global.NSTest, global.VerbosityStandard, nil)
			daemon := &countingDaemon{}

			sigChan := make(chan os.Signal, len(tt.signals))
			for _, sig := range tt.signals {
				sigChan <- sig
			}

			done := make(chan struct{})
			go func() {
				handleSignals(ctx, sigChan, daemon)
				close(done)
			}()

			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatalf("signal handler did not return")
			}
			if daemon.shutdowns.Load() != tt.wantShutdowns {
				t.Fatalf("expected %d shutdowns, got %d", tt.wantShutdowns, daemon.shutdowns.Load())
			}
		})
	}

	t.Run("hangup alone keeps running", func(t *testing.T) {
		ctx, cancel := context.WithCancel(logctx.New(context.Background(), global.NSTest, global.VerbosityStandard, nil))
		daemon := &countingDaemon{}
		sigChan := make(chan os.Signal, 1)
		sigChan <- syscall.SIGHUP

		done := make(chan struct{})
		go func() {
			handleSignals(ctx, sigChan, daemon)
			close(done)
		}()

		select {
		case <-done:
			t.Fatalf("handler returned after SIGHUP")
		case <-time.After(100 * time.Millisecond):
		}
		cancel()
		<-done

		if daemon.shutdowns.Load() != 0 {
			t.Fatalf("SIGHUP must not shut down the daemon")
		}
		lines := logctx.GetLogger(ctx).GetFormattedLogLines()
		found := false
		for _, line := range lines {
			if strings.Contains(line, "reload is not supported") {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected reload warning in log, got %q", lines)
		}
	})
}
