// Fixed-layout binary records exchanged with the sonar ingester and tracker.
// Layouts are packed and use the host byte order.
package records

import "encoding/binary"

const (
	DeviceNameSize int = 64  // Frame device name field width
	ShmNameSize    int = 64  // Envelope shared memory name field width
	MaxBeams       int = 512 // Beam angle table entries in a frame

	TrackHeaderSize int = 20
	TargetSize      int = 80
	EnvelopeSize    int = 80
	FrameHeaderSize int = 2176
	imageSampleSize int = 4
)

const (
	recordTrack        string = "track record"
	recordEnvelope     string = "frame envelope"
	recordFramePayload string = "frame payload"
)

var order = binary.NativeEndian
