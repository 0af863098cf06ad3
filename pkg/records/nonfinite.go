package records

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
)

// Non-finite values travel as the strings below. Bare tokens (as emitted by
// Python json.dumps) are accepted on input as well.
const (
	TokenNaN    string = "NaN"
	TokenPosInf string = "Infinity"
	TokenNegInf string = "-Infinity"
)

// float32 field whose JSON form survives NaN and +/-Inf
type Float32 float32

// float64 field whose JSON form survives NaN and +/-Inf
type Float64 float64

func (f Float32) MarshalJSON() ([]byte, error) {
	return appendJSONFloat(nil, float64(f), 32), nil
}

func (f *Float32) UnmarshalJSON(data []byte) (err error) {
	value, isNull, err := parseJSONFloat(data, 32)
	if err != nil || isNull {
		return
	}
	*f = Float32(value)
	return
}

func (f Float64) MarshalJSON() ([]byte, error) {
	return appendJSONFloat(nil, float64(f), 64), nil
}

func (f *Float64) UnmarshalJSON(data []byte) (err error) {
	value, isNull, err := parseJSONFloat(data, 64)
	if err != nil || isNull {
		return
	}
	*f = Float64(value)
	return
}

func appendJSONFloat(dst []byte, value float64, bits int) []byte {
	switch {
	case math.IsNaN(value):
		return strconv.AppendQuote(dst, TokenNaN)
	case math.IsInf(value, 1):
		return strconv.AppendQuote(dst, TokenPosInf)
	case math.IsInf(value, -1):
		return strconv.AppendQuote(dst, TokenNegInf)
	}
	return strconv.AppendFloat(dst, value, 'g', -1, bits)
}

func parseJSONFloat(data []byte, bits int) (value float64, isNull bool, err error) {
	text := string(bytes.TrimSpace(data))
	if text == "null" {
		isNull = true
		return
	}
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		text = text[1 : len(text)-1]
	}

	switch text {
	case TokenNaN:
		value = math.NaN()
		return
	case TokenPosInf, "+" + TokenPosInf:
		value = math.Inf(1)
		return
	case TokenNegInf:
		value = math.Inf(-1)
		return
	}

	value, err = strconv.ParseFloat(text, bits)
	if err != nil {
		err = fmt.Errorf("invalid float value %q: %w", text, err)
	}
	return
}
