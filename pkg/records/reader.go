package records

import (
	"encoding/binary"
	"fmt"
)

// Bounds-checked sequential reader over a packed record
type fieldReader struct {
	record string
	buf    []byte
	off    int
}

func newFieldReader(record string, buf []byte) (reader *fieldReader) {
	reader = &fieldReader{record: record, buf: buf}
	return
}

// Confirms width more bytes are available at the current offset
func (reader *fieldReader) need(field string, width uint64) (err error) {
	have := len(reader.buf) - reader.off
	if width > uint64(have) {
		err = &DecodeError{
			Record: reader.record,
			Field:  field,
			Offset: reader.off,
			Want:   width,
			Have:   have,
		}
	}
	return
}

// Fills data (fixed-size value or slice) from the next binary.Size(data) bytes
func (reader *fieldReader) read(field string, data any) (err error) {
	width := binary.Size(data)
	if width < 0 {
		err = fmt.Errorf("records: field %s has no fixed size", field)
		return
	}

	err = reader.need(field, uint64(width))
	if err != nil {
		return
	}

	_, err = binary.Decode(reader.buf[reader.off:reader.off+width], order, data)
	if err != nil {
		err = &DecodeError{Record: reader.record, Field: field, Reason: err.Error()}
		return
	}
	reader.off += width
	return
}

// Returns text up to the first NUL byte
func cString(raw []byte) (text string) {
	for i, b := range raw {
		if b == 0 {
			text = string(raw[:i])
			return
		}
	}
	text = string(raw)
	return
}
