package beats

import (
	"context"
	"errors"
	"sonarfeed/internal/global"
	"sonarfeed/pkg/protocol"
	"sonarfeed/pkg/records"
	"testing"
)

type fakeSink struct {
	events  []interface{}
	sendErr error
	closed  bool
}

func (sink *fakeSink) Send(events []interface{}) (sent int, err error) {
	if sink.sendErr != nil {
		err = sink.sendErr
		return
	}
	sink.events = append(sink.events, events...)
	sent = len(events)
	return
}

func (sink *fakeSink) Close() (err error) {
	sink.closed = true
	return
}

func TestOutModule_Write(t *testing.T) {
	metricsMsg, err := protocol.NewMetricsMessage([]byte(`{"pingid": 9, "avg_sv": -60}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name        string
		msg         any
		wantDataset string
		wantKey     string
		wantValue   interface{}
		wantErr     bool
	}{
		{
			name:        "tracks",
			msg:         protocol.NewTracksMessage(records.TrackRecord{FrameNum: 4, PingNum: 5}),
			wantDataset: "sonarfeed.tracks",
			wantKey:     "frame_num",
			wantValue:   uint32(4),
		},
		{
			name:        "frame",
			msg:         protocol.NewFrameMessage(12, records.FramePayload{Device: "M900", NumBeams: 2}),
			wantDataset: "sonarfeed.frame",
			wantKey:     "device",
			wantValue:   "M900",
		},
		{
			name:        "metrics",
			msg:         metricsMsg,
			wantDataset: "sonarfeed.metrics",
			wantKey:     "ping_num",
			wantValue:   int64(9),
		},
		{
			name:    "unknown type",
			msg:     struct{ A int }{1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &fakeSink{}
			mod := &OutModule{sink: sink, sourceHost: "sonar-host"}

			sent, err := mod.Write(context.Background(), tt.msg)
			if tt.wantErr {
				if !errors.Is(err, protocol.ErrUnknownType) {
					t.Fatalf("expected ErrUnknownType, got %v", err)
				}
				if len(sink.events) != 0 {
					t.Fatalf("nothing should be sent")
				}
				return
			}
			if err != nil || sent != 1 {
				t.Fatalf("sent %d, err %v", sent, err)
			}

			event := sink.events[0].(map[string]interface{})
			if event["event"].(map[string]interface{})["dataset"] != tt.wantDataset {
				t.Fatalf("dataset %v, want %s", event["event"], tt.wantDataset)
			}
			if event["host"].(map[string]interface{})["name"] != "sonar-host" {
				t.Fatalf("host %v", event["host"])
			}
			if event["agent"].(map[string]interface{})["program"] != global.ProgBaseName {
				t.Fatalf("agent %v", event["agent"])
			}
			sonar := event["sonar"].(map[string]interface{})
			if sonar[tt.wantKey] != tt.wantValue {
				t.Fatalf("sonar[%s] = %v (%T), want %v", tt.wantKey, sonar[tt.wantKey], sonar[tt.wantKey], tt.wantValue)
			}
			if event["message"].(string) == "" {
				t.Fatalf("empty message body")
			}
		})
	}
}

func TestOutModule_NilAndErrors(t *testing.T) {
	var mod *OutModule
	sent, err := mod.Write(context.Background(), protocol.NewTracksMessage(records.TrackRecord{}))
	if sent != 0 || err != nil {
		t.Fatalf("nil module should be a no-op, got %d %v", sent, err)
	}
	if err := mod.Close(); err != nil {
		t.Fatalf("nil shutdown: %v", err)
	}

	module, err := NewOutput("", "host")
	if module != nil || err != nil {
		t.Fatalf("empty endpoint should disable output, got %v %v", module, err)
	}

	sink := &fakeSink{sendErr: errors.New("broken pipe")}
	mod = &OutModule{sink: sink}
	_, err = mod.Write(context.Background(), protocol.NewTracksMessage(records.TrackRecord{}))
	if err == nil {
		t.Fatalf("expected send error")
	}
	if err := mod.Close(); err != nil || !sink.closed {
		t.Fatalf("shutdown did not close sink: %v", err)
	}
}
