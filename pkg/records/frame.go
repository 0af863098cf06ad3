package records

// Keeps every step-th sample row to shrink frames for display consumers.
// Rows start at 0 and the last row is always excluded, so a frame with a
// single sample decimates to no rows. A step below 2 returns the frame unchanged.
func (frame FramePayload) Decimate(step int) (reduced FramePayload) {
	reduced = frame
	if step < 2 {
		return
	}

	beams := int(frame.NumBeams)
	lastRow := int(frame.NumSamples) - 1

	image := make([]Float32, 0, max(lastRow, 0)/step*beams+beams)
	var rows uint32
	for row := 0; row < lastRow; row += step {
		image = append(image, frame.Image[row*beams:(row+1)*beams]...)
		rows++
	}

	reduced.Image = image
	reduced.NumSamples = rows
	return
}

// Unix time of the ping in milliseconds
func (frame FramePayload) PingTimeMillis() (millis int64) {
	millis = int64(frame.PingSec)*1000 + int64(frame.PingMillisec)
	return
}
