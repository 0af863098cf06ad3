package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"sonarfeed/pkg/records"
)

// Tracker output for one ping
type TracksMessage struct {
	Type string `json:"type"`
	records.TrackRecord
}

// Sonar frame for display consumers. Intensity is row-major,
// NumSamples rows of NumBeams columns.
type FrameMessage struct {
	Type        string            `json:"type"`
	FrameNumber int64             `json:"frame_number"`
	Device      string            `json:"device"`
	Version     uint32            `json:"version"`
	PingID      uint32            `json:"pingid"`
	PingSec     uint32            `json:"ping_sec"`
	PingMs      uint32            `json:"ping_ms"`
	SoundSpeed  records.Float32   `json:"soundspeed"`
	NumSamples  uint32            `json:"num_samples"`
	RangeMin    records.Float32   `json:"range_min"`
	RangeMax    records.Float32   `json:"range_max"`
	WinStart    records.Float32   `json:"winstart"`
	WinLen      records.Float32   `json:"winlen"`
	NumBeams    uint32            `json:"num_beams"`
	BeamAngles  []records.Float32 `json:"beam_angles"`
	Freq        uint32            `json:"freq"`
	PulseLen    uint32            `json:"pulse_len"`
	PulseRep    records.Float32   `json:"pulse_rep"`
	DataLen     uint64            `json:"data_len"`
	Intensity   []records.Float32 `json:"intensity"`
}

// Aggregate echo metrics computed for a ping
type MetricsMessage struct {
	Type    string          `json:"type"`
	PingID  int64           `json:"pingid"`
	Metrics json.RawMessage `json:"metrics"`
}

// Type discriminator shared by every message
type envelopeType struct {
	Type string `json:"type"`
}

func NewTracksMessage(record records.TrackRecord) (msg TracksMessage) {
	msg = TracksMessage{Type: TypeTracks, TrackRecord: record}
	if msg.Targets == nil {
		msg.Targets = []records.Target{}
	}
	return
}

func NewFrameMessage(frameNumber int64, frame records.FramePayload) (msg FrameMessage) {
	msg = FrameMessage{
		Type:        TypeFrame,
		FrameNumber: frameNumber,
		Device:      frame.Device,
		Version:     frame.Version,
		PingID:      frame.PingNum,
		PingSec:     frame.PingSec,
		PingMs:      frame.PingMillisec,
		SoundSpeed:  frame.SoundSpeedMps,
		NumSamples:  frame.NumSamples,
		RangeMin:    frame.RangeMinM,
		RangeMax:    frame.RangeMaxM,
		WinStart:    frame.WinStartSec,
		WinLen:      frame.WinLenSec,
		NumBeams:    frame.NumBeams,
		BeamAngles:  frame.BeamAnglesDeg,
		Freq:        frame.FreqHz,
		PulseLen:    frame.PulseLenMicrosec,
		PulseRep:    frame.PulseRepHz,
		DataLen:     frame.DataLen,
		Intensity:   frame.Image,
	}
	if msg.BeamAngles == nil {
		msg.BeamAngles = []records.Float32{}
	}
	if msg.Intensity == nil {
		msg.Intensity = []records.Float32{}
	}
	return
}

// Wraps an echometrics payload. JSON payloads are embedded as is (bare
// non-finite tokens are quoted first), anything else is carried as a string.
// A top level "pingid" in the payload is lifted into the message.
func NewMetricsMessage(payload []byte) (msg MetricsMessage, err error) {
	msg.Type = TypeMetrics

	trimmed := bytes.TrimSpace(bytes.TrimRight(payload, string([]byte{Delimiter})))
	if len(trimmed) == 0 {
		err = fmt.Errorf("empty metrics payload")
		return
	}

	sanitized := SanitizeNonFinite(trimmed)
	if json.Valid(sanitized) {
		msg.Metrics = json.RawMessage(sanitized)

		var fields struct {
			PingID *records.Float64 `json:"pingid"`
		}
		if json.Unmarshal(sanitized, &fields) == nil && fields.PingID != nil {
			msg.PingID = int64(*fields.PingID)
		}
		return
	}

	quoted, err := json.Marshal(string(trimmed))
	if err != nil {
		err = fmt.Errorf("failed to quote metrics payload: %w", err)
		return
	}
	msg.Metrics = json.RawMessage(quoted)
	return
}

// Serializes a message body (no delimiter)
func Encode(msg any) (body []byte, err error) {
	body, err = json.Marshal(msg)
	if err != nil {
		err = fmt.Errorf("failed to encode message: %w", err)
	}
	return
}

// Serializes a message and appends the delimiter, ready for the wire
func Marshal(msg any) (wire []byte, err error) {
	wire, err = Encode(msg)
	if err != nil {
		return
	}
	wire = append(wire, Delimiter)
	return
}

// Reports the type field of a received segment
func MessageType(segment []byte) (msgType string, err error) {
	var header envelopeType
	err = json.Unmarshal(segment, &header)
	if err != nil {
		err = fmt.Errorf("failed to read message type: %w", err)
		return
	}
	msgType = header.Type
	return
}

// Decodes a received segment into its typed message.
// Segments without a type field are treated as tracks (legacy server).
func DecodeMessage(segment []byte) (msg any, err error) {
	segment = SanitizeNonFinite(segment)

	msgType, err := MessageType(segment)
	if err != nil {
		return
	}

	switch msgType {
	case TypeTracks, "":
		var tracks TracksMessage
		err = json.Unmarshal(segment, &tracks)
		tracks.Type = TypeTracks
		msg = tracks
	case TypeFrame:
		var frame FrameMessage
		err = json.Unmarshal(segment, &frame)
		msg = frame
	case TypeMetrics:
		var metrics MetricsMessage
		err = json.Unmarshal(segment, &metrics)
		msg = metrics
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownType, msgType)
	}
	if err != nil {
		msg = nil
		err = fmt.Errorf("failed to decode %s message: %w", msgType, err)
	}
	return
}
