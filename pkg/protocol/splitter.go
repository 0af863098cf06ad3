package protocol

import (
	"bytes"
	"fmt"
)

// Reassembles delimiter separated messages from arbitrary stream reads.
// Empty segments (heartbeats) are dropped. Not safe for concurrent use.
type Splitter struct {
	partial    []byte
	limit      int
	heartbeats uint64
}

// Limit caps the bytes held for one unfinished segment; 0 disables the cap
func NewSplitter(limit int) (splitter *Splitter) {
	splitter = &Splitter{limit: limit}
	return
}

// Appends data and returns every segment it completed, in stream order.
// Returned slices are owned by the caller.
func (splitter *Splitter) Feed(data []byte) (segments [][]byte, err error) {
	splitter.partial = append(splitter.partial, data...)

	for {
		idx := bytes.IndexByte(splitter.partial, Delimiter)
		if idx < 0 {
			break
		}
		if idx == 0 {
			splitter.heartbeats++
		} else {
			segment := make([]byte, idx)
			copy(segment, splitter.partial[:idx])
			segments = append(segments, segment)
		}
		splitter.partial = splitter.partial[idx+1:]
	}

	if len(splitter.partial) == 0 {
		splitter.partial = nil
	} else if splitter.limit > 0 && len(splitter.partial) > splitter.limit {
		err = fmt.Errorf("%w: %d bytes pending without delimiter (limit %d)",
			ErrSegmentTooLarge, len(splitter.partial), splitter.limit)
		splitter.partial = nil
	}
	return
}

// Bytes held for the unfinished trailing segment
func (splitter *Splitter) Pending() (count int) {
	count = len(splitter.partial)
	return
}

// Empty segments seen since creation
func (splitter *Splitter) Heartbeats() (count uint64) {
	count = splitter.heartbeats
	return
}

// Drops any unfinished segment, used when the stream restarts
func (splitter *Splitter) Reset() {
	splitter.partial = nil
}
