package records

import (
	"encoding/binary"
	"fmt"
)

// Encodes a tracker message. The target count written is len(record.Targets).
func EncodeTrack(record TrackRecord) (buf []byte, err error) {
	header := trackHeader{
		FrameNum:  record.FrameNum,
		PingNum:   record.PingNum,
		PingTime:  float64(record.PingTime),
		NumTracks: uint32(len(record.Targets)),
	}

	buf = make([]byte, 0, TrackHeaderSize+len(record.Targets)*TargetSize)
	buf, err = binary.Append(buf, order, &header)
	if err != nil {
		err = fmt.Errorf("failed to encode track header: %w", err)
		return
	}
	if len(record.Targets) > 0 {
		buf, err = binary.Append(buf, order, record.Targets)
		if err != nil {
			err = fmt.Errorf("failed to encode targets: %w", err)
			return
		}
	}
	return
}

// Encodes a frame envelope. The location must leave room for its NUL terminator.
func EncodeEnvelope(envelope Envelope) (buf []byte, err error) {
	if len(envelope.ShmLocation) >= ShmNameSize {
		err = fmt.Errorf("shared memory name %q exceeds %d bytes", envelope.ShmLocation, ShmNameSize-1)
		return
	}

	layout := envelopeLayout{
		FrameNumber: envelope.FrameNumber,
		FrameLength: envelope.FrameLength,
	}
	copy(layout.ShmLocation[:], envelope.ShmLocation)

	buf, err = binary.Append(make([]byte, 0, EnvelopeSize), order, &layout)
	if err != nil {
		err = fmt.Errorf("failed to encode envelope: %w", err)
	}
	return
}

// Encodes a frame as the ingester places it in shared memory
func EncodeFramePayload(frame FramePayload) (buf []byte, err error) {
	if len(frame.Device) >= DeviceNameSize {
		err = fmt.Errorf("device name %q exceeds %d bytes", frame.Device, DeviceNameSize-1)
		return
	}
	if frame.NumBeams > uint32(MaxBeams) || len(frame.BeamAnglesDeg) > MaxBeams {
		err = fmt.Errorf("frame declares %d beams, maximum is %d", frame.NumBeams, MaxBeams)
		return
	}
	if uint64(len(frame.Image)) != uint64(frame.NumSamples)*uint64(frame.NumBeams) {
		err = fmt.Errorf("image holds %d samples, header declares %d x %d",
			len(frame.Image), frame.NumSamples, frame.NumBeams)
		return
	}

	header := frameHeader{
		Version:          frame.Version,
		PingNum:          frame.PingNum,
		PingSec:          frame.PingSec,
		PingMillisec:     frame.PingMillisec,
		SoundSpeedMps:    frame.SoundSpeedMps,
		NumSamples:       frame.NumSamples,
		RangeMinM:        frame.RangeMinM,
		RangeMaxM:        frame.RangeMaxM,
		WinStartSec:      frame.WinStartSec,
		WinLenSec:        frame.WinLenSec,
		NumBeams:         frame.NumBeams,
		FreqHz:           frame.FreqHz,
		PulseLenMicrosec: frame.PulseLenMicrosec,
		PulseRepHz:       frame.PulseRepHz,
		DataLen:          frame.DataLen,
	}
	copy(header.Device[:], frame.Device)
	copy(header.BeamAnglesDeg[:], frame.BeamAnglesDeg)

	buf = make([]byte, 0, FrameHeaderSize+len(frame.Image)*imageSampleSize)
	buf, err = binary.Append(buf, order, &header)
	if err != nil {
		err = fmt.Errorf("failed to encode frame header: %w", err)
		return
	}
	if len(frame.Image) > 0 {
		buf, err = binary.Append(buf, order, frame.Image)
		if err != nil {
			err = fmt.Errorf("failed to encode frame image: %w", err)
			return
		}
	}
	return
}
