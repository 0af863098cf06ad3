package records

// Decodes a tracker message. The declared target count must fit in the buffer.
func DecodeTrack(buf []byte) (record TrackRecord, err error) {
	reader := newFieldReader(recordTrack, buf)

	var header trackHeader
	err = reader.read("header", &header)
	if err != nil {
		return
	}

	err = reader.need("tracks", uint64(header.NumTracks)*uint64(TargetSize))
	if err != nil {
		return
	}

	targets := make([]Target, header.NumTracks)
	if len(targets) > 0 {
		err = reader.read("tracks", targets)
		if err != nil {
			return
		}
	}

	record = TrackRecord{
		FrameNum:  header.FrameNum,
		PingNum:   header.PingNum,
		PingTime:  Float64(header.PingTime),
		NumTracks: header.NumTracks,
		Targets:   targets,
	}
	return
}

// Decodes a frame envelope (shared memory descriptor)
func DecodeEnvelope(buf []byte) (envelope Envelope, err error) {
	reader := newFieldReader(recordEnvelope, buf)

	var layout envelopeLayout
	err = reader.read("envelope", &layout)
	if err != nil {
		return
	}

	envelope = Envelope{
		FrameNumber: layout.FrameNumber,
		FrameLength: layout.FrameLength,
		ShmLocation: cString(layout.ShmLocation[:]),
	}
	return
}

// Decodes a frame copied out of shared memory. Image size is num_samples*num_beams samples.
func DecodeFramePayload(buf []byte) (frame FramePayload, err error) {
	reader := newFieldReader(recordFramePayload, buf)

	var header frameHeader
	err = reader.read("header", &header)
	if err != nil {
		return
	}

	if header.NumBeams > uint32(MaxBeams) {
		err = &DecodeError{
			Record: recordFramePayload,
			Field:  "num_beams",
			Reason: "declares more beams than the angle table holds",
		}
		return
	}

	sampleCount := uint64(header.NumSamples) * uint64(header.NumBeams)
	remaining := uint64(len(buf) - reader.off)
	if sampleCount > remaining/uint64(imageSampleSize) {
		err = &DecodeError{
			Record: recordFramePayload,
			Field:  "image",
			Offset: reader.off,
			Want:   sampleCount * uint64(imageSampleSize),
			Have:   int(remaining),
		}
		return
	}

	image := make([]Float32, sampleCount)
	if len(image) > 0 {
		err = reader.read("image", image)
		if err != nil {
			return
		}
	}

	angles := make([]Float32, header.NumBeams)
	copy(angles, header.BeamAnglesDeg[:header.NumBeams])

	frame = FramePayload{
		Device:           cString(header.Device[:]),
		Version:          header.Version,
		PingNum:          header.PingNum,
		PingSec:          header.PingSec,
		PingMillisec:     header.PingMillisec,
		SoundSpeedMps:    header.SoundSpeedMps,
		NumSamples:       header.NumSamples,
		RangeMinM:        header.RangeMinM,
		RangeMaxM:        header.RangeMaxM,
		WinStartSec:      header.WinStartSec,
		WinLenSec:        header.WinLenSec,
		NumBeams:         header.NumBeams,
		BeamAnglesDeg:    angles,
		FreqHz:           header.FreqHz,
		PulseLenMicrosec: header.PulseLenMicrosec,
		PulseRepHz:       header.PulseRepHz,
		DataLen:          header.DataLen,
		Image:            image,
	}
	return
}
