package distributor

import (
	"context"
	"net"
	"sonarfeed/internal/global"
	"sonarfeed/internal/logctx"
	"sonarfeed/internal/upstream"
	"sonarfeed/pkg/protocol"
	"sonarfeed/pkg/records"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func startDaemon(t *testing.T) (daemon *Daemon, source *upstream.MemorySource) {
	t.Helper()
	t.Setenv("NOTIFY_SOCKET", "")

	ctx := logctx.New(context.Background(), global.NSTest, global.VerbosityNone, nil)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	source = upstream.NewMemorySource(16)
	daemon = NewDaemon(Config{
		PollInterval:             10 * time.Millisecond,
		HandshakeTimeout:         time.Second,
		DefaultHeartbeat:         time.Minute,
		MetricCollectionInterval: 50 * time.Millisecond,
		WatchdogInterval:         50 * time.Millisecond,
	})
	daemon.Source = source
	daemon.Listener = listener

	err = daemon.Start(ctx)
	require.NoError(t, err)
	t.Cleanup(daemon.Shutdown)
	return
}

func TestDaemon_ServesTracks(t *testing.T) {
	daemon, source := startDaemon(t)

	conn, err := net.Dial("tcp", daemon.Listener.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("{\"frequency\": 5, \"host\": \"viewer\"}\x00"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		connections := daemon.connections()
		return len(connections) == 1 && connections[0].State == "streaming"
	}, 2*time.Second, 5*time.Millisecond)

	connections := daemon.connections()
	require.Equal(t, "viewer", connections[0].Host)
	require.Equal(t, time.Minute.String(), connections[0].Heartbeat)

	binary, err := records.EncodeTrack(records.TrackRecord{FrameNum: 11, PingNum: 12, NumTracks: 0})
	require.NoError(t, err)
	require.NoError(t, source.Send(upstream.Message{Kind: upstream.KindTrack, Data: binary}))

	splitter := protocol.NewSplitter(0)
	buf := make([]byte, 4096)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var segments [][]byte
	for len(segments) == 0 {
		n, err := conn.Read(buf)
		require.NoError(t, err)
		segments, err = splitter.Feed(buf[:n])
		require.NoError(t, err)
	}

	decoded, err := protocol.DecodeMessage(segments[0])
	require.NoError(t, err)
	tracks, ok := decoded.(protocol.TracksMessage)
	require.True(t, ok, "decoded %T", decoded)
	require.Equal(t, uint32(11), tracks.FrameNum)

	// Gatherer records hub metrics, watchdog sees the consumer
	require.Eventually(t, func() bool {
		_, found := daemon.metricsCollector.Registry.Latest("active_connections", daemon.Hub.Namespace)
		return found
	}, 2*time.Second, 10*time.Millisecond)
	require.Len(t, daemon.backlogs(), 1)
}

func TestDaemon_Shutdown(t *testing.T) {
	daemon, _ := startDaemon(t)

	conn, err := net.Dial("tcp", daemon.Listener.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	daemon.Shutdown()
	daemon.Shutdown()

	done := make(chan struct{})
	go func() {
		daemon.Run()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not return after shutdown")
	}

	// Consumer socket is closed by the hub
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = conn.Read(make([]byte, 1))
	require.Error(t, err)

	_, err = net.DialTimeout("tcp", daemon.Listener.Addr().String(), 200*time.Millisecond)
	require.Error(t, err)
}
