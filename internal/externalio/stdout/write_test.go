package stdout

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sonarfeed/pkg/protocol"
	"sonarfeed/pkg/records"
	"strings"
	"testing"
)

func TestOutModule_Write(t *testing.T) {
	msg := protocol.NewTracksMessage(records.TrackRecord{FrameNum: 3, PingNum: 8})

	tests := []struct {
		name      string
		pretty    bool
		wantLines int
	}{
		{"compact", false, 1},
		{"pretty", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			pretty := tt.pretty
			mod := NewOutput(&buf, &pretty)

			if err := mod.Write(context.Background(), msg); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			text := buf.String()
			if !strings.HasSuffix(text, "\n") {
				t.Fatalf("output not newline terminated: %q", text)
			}
			lines := strings.Count(text, "\n")
			if tt.wantLines > 0 && lines != tt.wantLines {
				t.Fatalf("expected %d line, got %d", tt.wantLines, lines)
			}
			if tt.pretty && lines < 3 {
				t.Fatalf("expected indented output, got %q", text)
			}

			var decoded map[string]any
			if err := json.Unmarshal([]byte(text), &decoded); err != nil {
				t.Fatalf("output is not JSON: %v", err)
			}
			if decoded["type"] != protocol.TypeTracks {
				t.Fatalf("type %v", decoded["type"])
			}
		})
	}
}

func TestNewOutput_NotTerminal(t *testing.T) {
	file, err := os.Create(filepath.Join(t.TempDir(), "out.json"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer file.Close()

	if NewOutput(file, nil).pretty {
		t.Fatalf("regular file should default to compact output")
	}
	if NewOutput(&bytes.Buffer{}, nil).pretty {
		t.Fatalf("buffer should default to compact output")
	}
}
