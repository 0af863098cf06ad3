package records

import (
	"errors"
	"fmt"
)

// Matches every *DecodeError via errors.Is
var ErrDecode = errors.New("records: decode failed")

// Returned when a buffer cannot hold the layout it declares
type DecodeError struct {
	Record string // Record kind being decoded
	Field  string // Field that could not be read
	Offset int    // Byte offset of the field
	Want   uint64 // Bytes required from Offset
	Have   int    // Bytes available from Offset
	Reason string // Set for semantic failures, overrides the size message
}

func (e *DecodeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid %s: field %s: %s", e.Record, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s: field %s at offset %d needs %d bytes, only %d available",
		e.Record, e.Field, e.Offset, e.Want, e.Have)
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}
