package staging

import (
	"bytes"

	"github.com/ssargent/beluga/pkg/bytesx"
)

// packAlternates encodes a list of alternate spellings as repeated
// u16-length-prefixed UTF-8 strings, the same wire format the token
// tree stores its values in (see pkg/builder.InputToken).
func packAlternates(alternates []string) []byte {
	var buf bytes.Buffer
	for _, alt := range alternates {
		buf.Write(bytesx.U16(uint16(len(alt))))
		buf.WriteString(alt)
	}
	return buf.Bytes()
}

// unpackAlternates reverses packAlternates.
func unpackAlternates(data []byte) []string {
	var result []string
	s := bytesx.NewScanner(data)
	for !s.IsEnd() {
		size := s.ReadU16()
		result = append(result, s.ReadString(int(size)))
	}
	return result
}
