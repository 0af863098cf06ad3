package records

// Header of a tracker message. Targets follow immediately, NumTracks of them.
type trackHeader struct {
	FrameNum  uint32
	PingNum   uint32
	PingTime  float64
	NumTracks uint32
}

// One tracked target as laid out by the tracker (packed, 80 bytes)
type Target struct {
	ID               uint16  `json:"id"`
	SizeSqM          Float32 `json:"size_sq_m"`
	SpeedMps         Float32 `json:"speed_mps"`
	TargetStrength   Float32 `json:"target_strength"`
	MinRangeM        Float32 `json:"min_range_m"`
	MaxRangeM        Float32 `json:"max_range_m"`
	MinBearingDeg    Float32 `json:"min_bearing_deg"`
	MaxBearingDeg    Float32 `json:"max_bearing_deg"`
	MinElevationDeg  Float32 `json:"min_elevation_deg"`
	MaxElevationDeg  Float32 `json:"max_elevation_deg"`
	FirstDetect      Float32 `json:"first_detect"`
	PingsVisible     uint16  `json:"pings_visible"`
	LastPosRange     Float32 `json:"last_pos_range"`
	LastPosBearing   Float32 `json:"last_pos_bearing"`
	LastPosElevation Float32 `json:"last_pos_elevation"`
	LastVelRange     Float32 `json:"last_vel_range"`
	LastVelBearing   Float32 `json:"last_vel_bearing"`
	LastVelElevation Float32 `json:"last_vel_elevation"`
	Width            Float32 `json:"width"`
	Length           Float32 `json:"length"`
	Height           Float32 `json:"height"`
}

// A ping's detected targets
type TrackRecord struct {
	FrameNum  uint32   `json:"frame_num"`
	PingNum   uint32   `json:"ping_num_sonar"`
	PingTime  Float64  `json:"ping_time"`
	NumTracks uint32   `json:"num_tracks"`
	Targets   []Target `json:"tracks"`
}

// Wire layout of a frame envelope
type envelopeLayout struct {
	FrameNumber int64
	FrameLength uint64
	ShmLocation [ShmNameSize]byte
}

// Descriptor pointing at a frame held in shared memory
type Envelope struct {
	FrameNumber int64
	FrameLength uint64
	ShmLocation string
}

// Fixed portion of a frame buffer, image samples follow
type frameHeader struct {
	Device           [DeviceNameSize]byte
	Version          uint32
	PingNum          uint32
	PingSec          uint32
	PingMillisec     uint32
	SoundSpeedMps    Float32
	NumSamples       uint32
	RangeMinM        Float32
	RangeMaxM        Float32
	WinStartSec      Float32
	WinLenSec        Float32
	NumBeams         uint32
	BeamAnglesDeg    [MaxBeams]Float32
	FreqHz           uint32
	PulseLenMicrosec uint32
	PulseRepHz       Float32
	DataLen          uint64
}

// Decoded sonar frame. Image is row-major, NumSamples rows of NumBeams columns.
type FramePayload struct {
	Device           string
	Version          uint32
	PingNum          uint32
	PingSec          uint32
	PingMillisec     uint32
	SoundSpeedMps    Float32
	NumSamples       uint32
	RangeMinM        Float32
	RangeMaxM        Float32
	WinStartSec      Float32
	WinLenSec        Float32
	NumBeams         uint32
	BeamAnglesDeg    []Float32 // only the first NumBeams entries
	FreqHz           uint32
	PulseLenMicrosec uint32
	PulseRepHz       Float32
	DataLen          uint64
	Image            []Float32
}
