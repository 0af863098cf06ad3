package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sonarfeed/internal/distributor/worker"
	"sonarfeed/internal/global"
	"sonarfeed/internal/logctx"
	"sonarfeed/internal/upstream"
	"sonarfeed/pkg/protocol"
	"sonarfeed/pkg/records"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type mapFetcher map[string][]byte

func (fetcher mapFetcher) Fetch(name string, length uint64) (frame []byte, err error) {
	data, ok := fetcher[name]
	if !ok {
		err = fmt.Errorf("no shared buffer %s", name)
		return
	}
	if uint64(len(data)) < length {
		err = fmt.Errorf("short shared buffer %s", name)
		return
	}
	frame = data[:length]
	return
}

type testClient struct {
	conn     net.Conn
	splitter *protocol.Splitter
	pending  [][]byte
}

func startHub(t *testing.T, fetcher upstream.FrameFetcher, decimation int) (hub *Hub, source *upstream.MemorySource) {
	t.Helper()
	ctx := logctx.New(context.Background(), global.NSTest, global.VerbosityNone, nil)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	source = upstream.NewMemorySource(16)
	hub = New([]string{global.NSTest}, listener, source, fetcher, Config{
		Worker: worker.Config{
			HandshakeTimeout: time.Second,
			MaxHandshakeSize: global.DefaultMaxHandshakeSize,
			DefaultHeartbeat: time.Minute,
		},
		PollInterval:    10 * time.Millisecond,
		FrameDecimation: decimation,
	})
	hub.Start(ctx)
	t.Cleanup(func() {
		hub.Shutdown()
		source.Close()
	})
	return
}

func connect(t *testing.T, hub *Hub) (client *testClient) {
	t.Helper()
	conn, err := net.Dial("tcp", hub.listener.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	_, err = conn.Write([]byte(`{"frequency": 10, "host": "test"}`))
	require.NoError(t, err)

	client = &testClient{conn: conn, splitter: protocol.NewSplitter(0)}
	return
}

// Next non-heartbeat message or error on timeout
func (client *testClient) next(timeout time.Duration) (segment []byte, err error) {
	buf := make([]byte, 4096)
	deadline := time.Now().Add(timeout)
	for len(client.pending) == 0 {
		client.conn.SetReadDeadline(deadline)
		var n int
		n, err = client.conn.Read(buf)
		if err != nil {
			return
		}
		var segments [][]byte
		segments, err = client.splitter.Feed(buf[:n])
		if err != nil {
			return
		}
		client.pending = append(client.pending, segments...)
	}
	segment = client.pending[0]
	client.pending = client.pending[1:]
	return
}

func waitForStreaming(t *testing.T, hub *Hub, count int) {
	t.Helper()
	require.Eventually(t, func() bool {
		workers := hub.Snapshot()
		if len(workers) != count {
			return false
		}
		for _, active := range workers {
			if active.State() != worker.Streaming {
				return false
			}
		}
		return true
	}, 2*time.Second, 5*time.Millisecond, "expected %d streaming workers", count)
}

func trackMessage(t *testing.T, frameNum uint32) upstream.Message {
	t.Helper()
	data, err := records.EncodeTrack(records.TrackRecord{
		FrameNum: frameNum,
		PingNum:  frameNum * 10,
		Targets:  []records.Target{{ID: uint16(frameNum), Width: 1.5}},
	})
	require.NoError(t, err)
	return upstream.Message{Kind: upstream.KindTrack, Data: data}
}

func decodeTracks(t *testing.T, segment []byte) protocol.TracksMessage {
	t.Helper()
	msg, err := protocol.DecodeMessage(segment)
	require.NoError(t, err)
	tracks, ok := msg.(protocol.TracksMessage)
	require.True(t, ok, "expected tracks message, got %T", msg)
	return tracks
}

func TestHub_FanOutAndLateJoiner(t *testing.T) {
	hub, source := startHub(t, nil, 0)

	clients := []*testClient{connect(t, hub), connect(t, hub), connect(t, hub)}
	waitForStreaming(t, hub, 3)

	require.NoError(t, source.Send(trackMessage(t, 1)))
	for i, client := range clients {
		segment, err := client.next(2 * time.Second)
		require.NoError(t, err, "client %d", i)
		require.Equal(t, uint32(1), decodeTracks(t, segment).FrameNum)
	}

	late := connect(t, hub)
	waitForStreaming(t, hub, 4)

	_, err := late.next(100 * time.Millisecond)
	var netErr net.Error
	require.True(t, errors.As(err, &netErr) && netErr.Timeout(), "late joiner must not receive earlier records, got %v", err)

	require.NoError(t, source.Send(trackMessage(t, 2)))
	for i, client := range append(clients, late) {
		segment, err := client.next(2 * time.Second)
		require.NoError(t, err, "client %d", i)
		require.Equal(t, uint32(2), decodeTracks(t, segment).FrameNum)
	}
}

func TestHub_PerConsumerFIFO(t *testing.T) {
	hub, source := startHub(t, nil, 0)
	client := connect(t, hub)
	waitForStreaming(t, hub, 1)

	const count = 50
	for i := uint32(1); i <= count; i++ {
		require.NoError(t, source.Send(trackMessage(t, i)))
	}
	for i := uint32(1); i <= count; i++ {
		segment, err := client.next(2 * time.Second)
		require.NoError(t, err)
		require.Equal(t, i, decodeTracks(t, segment).FrameNum)
	}
}

func TestHub_DecodeErrorsDropped(t *testing.T) {
	hub, source := startHub(t, nil, 0)
	client := connect(t, hub)
	waitForStreaming(t, hub, 1)

	require.NoError(t, source.Send(upstream.Message{Kind: upstream.KindTrack, Data: []byte{1, 2, 3}}))
	require.NoError(t, source.Send(upstream.Message{Kind: upstream.KindFrameEnvelope, Data: make([]byte, records.EnvelopeSize)}))
	require.NoError(t, source.Send(trackMessage(t, 7)))

	segment, err := client.next(2 * time.Second)
	require.NoError(t, err)
	require.Equal(t, uint32(7), decodeTracks(t, segment).FrameNum)
	require.Equal(t, uint64(2), hub.Metrics.DecodeErrors.Load())
}

func TestHub_FramesAndMetrics(t *testing.T) {
	frame := records.FramePayload{
		Device:        "M900",
		PingNum:       5,
		NumSamples:    4,
		NumBeams:      2,
		BeamAnglesDeg: []records.Float32{-20, 20},
		DataLen:       32,
		Image:         []records.Float32{1, 2, 3, 4, 5, 6, 7, 8},
	}
	raw, err := records.EncodeFramePayload(frame)
	require.NoError(t, err)
	envelope, err := records.EncodeEnvelope(records.Envelope{
		FrameNumber: 99,
		FrameLength: uint64(len(raw)),
		ShmLocation: "/nims_frame_99",
	})
	require.NoError(t, err)

	hub, source := startHub(t, mapFetcher{"/nims_frame_99": raw}, 2)
	client := connect(t, hub)
	waitForStreaming(t, hub, 1)

	require.NoError(t, source.Send(upstream.Message{Kind: upstream.KindFrameEnvelope, Data: envelope}))
	require.NoError(t, source.Send(upstream.Message{Kind: upstream.KindMetrics, Data: []byte(`{"pingid": 5, "avg_sv": -62.5}`)}))

	segment, err := client.next(2 * time.Second)
	require.NoError(t, err)
	msg, err := protocol.DecodeMessage(segment)
	require.NoError(t, err)
	frameMsg, ok := msg.(protocol.FrameMessage)
	require.True(t, ok, "expected frame message, got %T", msg)
	require.Equal(t, int64(99), frameMsg.FrameNumber)
	require.Equal(t, uint32(2), frameMsg.NumSamples, "rows 0 and 2 survive a step of 2")
	require.Equal(t, []records.Float32{1, 2, 5, 6}, frameMsg.Intensity)

	segment, err = client.next(2 * time.Second)
	require.NoError(t, err)
	var metrics map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(segment, &metrics))
	require.JSONEq(t, `"metrics"`, string(metrics["type"]))
	require.JSONEq(t, `5`, string(metrics["pingid"]))
	require.JSONEq(t, `{"pingid": 5, "avg_sv": -62.5}`, string(metrics["metrics"]))
}

func TestHub_FailedConsumerRemoved(t *testing.T) {
	hub, source := startHub(t, nil, 0)
	staying := connect(t, hub)
	leaving := connect(t, hub)
	waitForStreaming(t, hub, 2)

	leaving.conn.Close()

	// Writes to the closed peer eventually fail
	require.Eventually(t, func() bool {
		source.Send(trackMessage(t, 3))
		return hub.Count() == 1
	}, 5*time.Second, 20*time.Millisecond)

	segment, err := staying.next(2 * time.Second)
	require.NoError(t, err)
	require.Equal(t, uint32(3), decodeTracks(t, segment).FrameNum)
}

func TestHub_Shutdown(t *testing.T) {
	hub, _ := startHub(t, nil, 0)
	client := connect(t, hub)
	waitForStreaming(t, hub, 1)

	done := make(chan struct{})
	go func() {
		hub.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("shutdown did not return")
	}

	require.Equal(t, 0, hub.Count())

	// Client sees the connection closed
	client.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 16)
	_, err := client.conn.Read(buf)
	require.Error(t, err)

	_, err = net.DialTimeout("tcp", hub.listener.Addr().String(), 200*time.Millisecond)
	require.Error(t, err, "listener must be closed after shutdown")

	hub.Shutdown() // idempotent
}
