package protocol

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseOptions(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		wantErr       bool
		wantHeartbeat time.Duration
		wantHost      string
	}{
		{
			name:          "full handshake",
			input:         `{"frequency": 10, "host": "localhost", "heartbeat": 1}`,
			wantHeartbeat: time.Second,
			wantHost:      "localhost",
		},
		{
			name:          "empty object uses default",
			input:         `{}`,
			wantHeartbeat: 60 * time.Second,
		},
		{
			name:          "trailing delimiter and whitespace",
			input:         "{\"heartbeat\": 0.5}\n\x00",
			wantHeartbeat: 500 * time.Millisecond,
		},
		{
			name:          "non positive heartbeat ignored",
			input:         `{"heartbeat": -3}`,
			wantHeartbeat: 60 * time.Second,
		},
		{
			name:          "huge heartbeat clamped",
			input:         `{"heartbeat": 1e300}`,
			wantHeartbeat: maxHeartbeat,
		},
		{
			name:          "unknown keys ignored",
			input:         `{"color": "blue"}`,
			wantHeartbeat: 60 * time.Second,
		},
		{name: "empty", input: "", wantErr: true},
		{name: "only delimiter", input: "\x00", wantErr: true},
		{name: "array", input: `[1,2]`, wantErr: true},
		{name: "malformed", input: `{"heartbeat":`, wantErr: true},
		{name: "wrong type", input: `{"heartbeat":"soon"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := ParseOptions([]byte(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				require.True(t, errors.Is(err, ErrHandshake), "error %v does not wrap ErrHandshake", err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantHeartbeat, opts.HeartbeatInterval(60*time.Second))
			require.Equal(t, tt.wantHost, opts.HostName())
		})
	}
}

func TestOptions_EncodeRoundTrip(t *testing.T) {
	opts := NewOptions(10, "viewer-1", 2*time.Second)

	raw, err := opts.Encode()
	require.NoError(t, err)
	require.JSONEq(t, `{"frequency":10,"host":"viewer-1","heartbeat":2}`, string(raw))

	parsed, err := ParseOptions(raw)
	require.NoError(t, err)
	require.Equal(t, 2*time.Second, parsed.HeartbeatInterval(time.Minute))

	empty, err := NewOptions(0, "", 0).Encode()
	require.NoError(t, err)
	require.Equal(t, "{}", string(empty))
}

func TestHandshakeEnd(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantEnd      int
		wantComplete bool
	}{
		{"delimited", "{\"a\":1}\x00{\"b\"", 7, true},
		{"bare complete object", `{"a":1}`, 7, true},
		{"incomplete object", `{"a":`, 0, false},
		{"empty", "", 0, false},
		{"garbage delimited", "junk\x00", 4, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			end, complete := HandshakeEnd([]byte(tt.input))
			if end != tt.wantEnd || complete != tt.wantComplete {
				t.Fatalf("got (%d, %v), want (%d, %v)", end, complete, tt.wantEnd, tt.wantComplete)
			}
		})
	}
}
