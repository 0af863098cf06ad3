package protocol

import (
	"bytes"

	"sonarfeed/pkg/records"
)

var bareTokens = [][]byte{
	[]byte(records.TokenNegInf),
	[]byte(records.TokenPosInf),
	[]byte(records.TokenNaN),
}

// Quotes bare NaN, Infinity and -Infinity tokens outside of JSON strings so
// the result parses with encoding/json. Input without bare tokens is returned as is.
func SanitizeNonFinite(data []byte) (clean []byte) {
	var out []byte
	inString := false
	escaped := false
	last := 0

	for i := 0; i < len(data); i++ {
		char := data[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case char == '\\':
				escaped = true
			case char == '"':
				inString = false
			}
			continue
		}

		if char == '"' {
			inString = true
			continue
		}
		if char != '-' && char != 'N' && char != 'I' {
			continue
		}
		if i > 0 && isTokenChar(data[i-1]) {
			continue
		}

		for _, token := range bareTokens {
			end := i + len(token)
			if !bytes.HasPrefix(data[i:], token) {
				continue
			}
			if end < len(data) && isTokenChar(data[end]) {
				continue
			}

			if out == nil {
				out = make([]byte, 0, len(data)+8)
			}
			out = append(out, data[last:i]...)
			out = append(out, '"')
			out = append(out, token...)
			out = append(out, '"')
			last = end
			i = end - 1
			break
		}
	}

	if out == nil {
		clean = data
		return
	}
	clean = append(out, data[last:]...)
	return
}

func isTokenChar(char byte) bool {
	return char == '_' || char == '.' || char == '-' || char == '+' ||
		(char >= '0' && char <= '9') ||
		(char >= 'a' && char <= 'z') ||
		(char >= 'A' && char <= 'Z')
}
