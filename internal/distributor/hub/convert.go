package hub

import (
	"fmt"
	"sonarfeed/internal/upstream"
	"sonarfeed/pkg/protocol"
	"sonarfeed/pkg/records"
)

// Decodes an upstream message and encodes its JSON form (no delimiter)
func (hub *Hub) convert(msg upstream.Message) (payload []byte, err error) {
	switch msg.Kind {
	case upstream.KindTrack:
		var record records.TrackRecord
		record, err = records.DecodeTrack(msg.Data)
		if err != nil {
			return
		}
		payload, err = protocol.Encode(protocol.NewTracksMessage(record))
	case upstream.KindFrameEnvelope:
		payload, err = hub.convertFrame(msg.Data)
	case upstream.KindMetrics:
		var metrics protocol.MetricsMessage
		metrics, err = protocol.NewMetricsMessage(msg.Data)
		if err != nil {
			return
		}
		payload, err = protocol.Encode(metrics)
	default:
		err = fmt.Errorf("unsupported upstream message kind %d", msg.Kind)
	}
	return
}

// Follows a frame envelope into shared memory
func (hub *Hub) convertFrame(data []byte) (payload []byte, err error) {
	envelope, err := records.DecodeEnvelope(data)
	if err != nil {
		return
	}
	if hub.fetcher == nil {
		err = fmt.Errorf("frame %d: no shared buffer reader configured", envelope.FrameNumber)
		return
	}

	raw, err := hub.fetcher.Fetch(envelope.ShmLocation, envelope.FrameLength)
	if err != nil {
		err = fmt.Errorf("frame %d: %w", envelope.FrameNumber, err)
		return
	}

	frame, err := records.DecodeFramePayload(raw)
	if err != nil {
		err = fmt.Errorf("frame %d: %w", envelope.FrameNumber, err)
		return
	}
	frame = frame.Decimate(hub.cfg.FrameDecimation)

	payload, err = protocol.Encode(protocol.NewFrameMessage(envelope.FrameNumber, frame))
	return
}
