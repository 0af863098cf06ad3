package beats

import (
	"context"
	"fmt"
	"os"
	"sonarfeed/internal/global"
	"sonarfeed/pkg/protocol"
	"time"
)

// Sends one decoded feed message with its metadata to the beats server
func (mod *OutModule) Write(ctx context.Context, msg any) (sent int, err error) {
	if mod == nil {
		return
	}

	event, err := mod.event(msg, time.Now())
	if err != nil {
		return
	}

	sent, err = mod.sink.Send([]interface{}{event})
	if err != nil {
		err = fmt.Errorf("failed sending to beats server: %w", err)
		return
	}
	return
}

// Builds the ECS-style document for a message
func (mod *OutModule) event(msg any, received time.Time) (fields map[string]interface{}, err error) {
	body, err := protocol.Encode(msg)
	if err != nil {
		return
	}

	var msgType string
	var sonar map[string]interface{}
	switch typed := msg.(type) {
	case protocol.TracksMessage:
		msgType = protocol.TypeTracks
		sonar = map[string]interface{}{
			"frame_num":  typed.FrameNum,
			"ping_num":   typed.PingNum,
			"ping_time":  typed.PingTime,
			"num_tracks": typed.NumTracks,
		}
	case protocol.FrameMessage:
		msgType = protocol.TypeFrame
		sonar = map[string]interface{}{
			"frame_number": typed.FrameNumber,
			"ping_num":     typed.PingID,
			"device":       typed.Device,
			"num_samples":  typed.NumSamples,
			"num_beams":    typed.NumBeams,
		}
	case protocol.MetricsMessage:
		msgType = protocol.TypeMetrics
		sonar = map[string]interface{}{
			"ping_num": typed.PingID,
		}
	default:
		err = fmt.Errorf("%w: %T", protocol.ErrUnknownType, msg)
		return
	}

	fields = map[string]interface{}{
		// Minimum required fields
		"@timestamp": received,
		"message":    string(body),

		"event": map[string]interface{}{
			"kind":    "event",
			"dataset": global.ProgBaseName + "." + msgType,
		},
		"host": map[string]interface{}{
			"name":     mod.sourceHost,
			"hostname": mod.sourceHost,
		},
		"agent": map[string]interface{}{
			// Meta fields identifying the forwarding client itself
			"program": global.ProgBaseName,
			"version": global.ProgVersion,
			"type":    global.ProgBaseName,
			"pid":     os.Getpid(),
		},
		"sonar": sonar,
	}
	return
}
