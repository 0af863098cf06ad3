package integration

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"sonarfeed/internal/client"
	"sonarfeed/internal/distributor"
	"sonarfeed/internal/global"
	"sonarfeed/internal/logctx"
	"sonarfeed/internal/upstream"
	"sonarfeed/pkg/protocol"
	"sonarfeed/pkg/records"
	"strings"
	"sync"
	"testing"
	"time"
)

// Uses logger in context to search logger buffer for events matching filter (must match all 3 filters if filters are not empty)
func filterLogBuffer(ctx context.Context, searchText, searchTag, searchSeverity string) (matches string, found bool) {
	logger := logctx.GetLogger(ctx)
	if logger == nil {
		return
	}

	bracketRe := regexp.MustCompile(`\[[^\]]*\]`)

	var foundLines []string
	for _, line := range logger.GetFormattedLogLines() {
		if searchTag != "" {
			foundTag := false
			for _, bracket := range bracketRe.FindAllString(line, -1) {
				if strings.Contains(bracket, searchTag) {
					foundTag = true
					break
				}
			}
			if !foundTag {
				continue
			}
		}
		if searchSeverity != "" && !strings.Contains(line, "["+searchSeverity+"]") {
			continue
		}
		if searchText != "" && !strings.Contains(line, searchText) {
			continue
		}

		foundLines = append(foundLines, line)
		found = true
	}

	matches = strings.Join(foundLines, "")
	return
}

// Thread safe sink for the stdout output module
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (lb *lockedBuffer) Write(p []byte) (n int, err error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	n, err = lb.buf.Write(p)
	return
}

func (lb *lockedBuffer) Lines() (lines []string) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	for _, line := range strings.Split(lb.buf.String(), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return
}

// Collects messages handed to a client handler
type received struct {
	mu       sync.Mutex
	messages []any
}

func (rcv *received) add(msg any) {
	rcv.mu.Lock()
	rcv.messages = append(rcv.messages, msg)
	rcv.mu.Unlock()
}

func (rcv *received) snapshot() (messages []any) {
	rcv.mu.Lock()
	messages = append(messages, rcv.messages...)
	rcv.mu.Unlock()
	return
}

// Polls until condition holds or the timeout passes
func waitFor(timeout time.Duration, condition func() bool) (ok bool) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			ok = true
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	ok = condition()
	return
}

// Starts a daemon fed from memory, listening on addr ("127.0.0.1:0" for any port)
func startDaemon(t *testing.T, ctx context.Context, addr string, shmDir string) (daemon *distributor.Daemon, source *upstream.MemorySource) {
	t.Helper()

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		t.Fatalf("failed to listen on %s: %v", addr, err)
	}

	source = upstream.NewMemorySource(64)
	daemon = distributor.NewDaemon(distributor.Config{
		SharedMemoryDir:          shmDir,
		PollInterval:             10 * time.Millisecond,
		FrameDecimation:          global.DefaultFrameDecimation,
		HandshakeTimeout:         time.Second,
		DefaultHeartbeat:         200 * time.Millisecond,
		MetricCollectionInterval: 50 * time.Millisecond,
		MetricMaxAge:             5 * time.Minute,
		WatchdogInterval:         50 * time.Millisecond,
	})
	daemon.Source = source
	daemon.Listener = listener

	err = daemon.Start(ctx)
	if err != nil {
		t.Fatalf("expected no daemon startup errors, got error '%v'", err)
	}
	t.Cleanup(daemon.Shutdown)
	return
}

// Starts a reconnecting client whose messages land in rcv
func startClient(t *testing.T, ctx context.Context, addr string, host string, rcv *received, extra client.Handler) (feed *client.Client, done <-chan error) {
	t.Helper()

	handler := func(ctx context.Context, msg any) (err error) {
		rcv.add(msg)
		if extra != nil {
			err = extra(ctx, msg)
		}
		return
	}

	feed = client.New(client.Config{
		Address:     addr,
		Options:     protocol.NewOptions(10, host, 200*time.Millisecond),
		IdleTimeout: 2 * time.Second,
		RetryMin:    20 * time.Millisecond,
	}, handler)

	errs := make(chan error, 1)
	go func() {
		errs <- feed.Run(ctx)
	}()
	done = errs
	return
}

// Binary tracker output for ping
func mockTrack(t *testing.T, ping uint32) (msg upstream.Message) {
	t.Helper()

	binary, err := records.EncodeTrack(records.TrackRecord{
		FrameNum:  ping,
		PingNum:   ping,
		PingTime:  records.Float64(ping) / 10,
		NumTracks: 1,
		Targets:   []records.Target{{ID: uint16(ping), SpeedMps: 1.5}},
	})
	if err != nil {
		t.Fatalf("failed to encode mock track: %v", err)
	}
	msg = upstream.Message{Kind: upstream.KindTrack, Data: binary}
	return
}

// Writes a frame into shmDir under name and returns the envelope pointing at it
func mockFrame(t *testing.T, shmDir string, name string, frameNumber int64, samples, beams uint32) (msg upstream.Message) {
	t.Helper()

	frame := records.FramePayload{
		Device:     "M3",
		PingNum:    uint32(frameNumber),
		NumSamples: samples,
		NumBeams:   beams,
	}
	for beam := uint32(0); beam < beams; beam++ {
		frame.BeamAnglesDeg = append(frame.BeamAnglesDeg, records.Float32(beam))
	}
	for sample := uint32(0); sample < samples*beams; sample++ {
		frame.Image = append(frame.Image, records.Float32(sample))
	}

	raw, err := records.EncodeFramePayload(frame)
	if err != nil {
		t.Fatalf("failed to encode mock frame: %v", err)
	}
	err = os.WriteFile(filepath.Join(shmDir, name), raw, 0600)
	if err != nil {
		t.Fatalf("failed to write mock shared buffer: %v", err)
	}

	envelope, err := records.EncodeEnvelope(records.Envelope{
		FrameNumber: frameNumber,
		FrameLength: uint64(len(raw)),
		ShmLocation: "/" + name,
	})
	if err != nil {
		t.Fatalf("failed to encode mock envelope: %v", err)
	}
	msg = upstream.Message{Kind: upstream.KindFrameEnvelope, Data: envelope}
	return
}

// Verifies metric collection is functional and the hub broadcast count is correct
func checkPipelineCounts(expectedCount int, startTime time.Time, daemon *distributor.Daemon) (err error) {
	var total uint64
	ok := waitFor(2*time.Second, func() bool {
		total = 0
		for _, metric := range daemon.MetricDataSearcher("broadcasts", daemon.Hub.Namespace, startTime, time.Now()) {
			cnt, isUint := metric.Value.Raw.(uint64)
			if !isUint {
				return false
			}
			total += cnt
		}
		return total == uint64(expectedCount)
	})
	if !ok {
		err = fmt.Errorf("expected broadcast count to be %d, but got %d from metrics", expectedCount, total)
	}
	return
}
