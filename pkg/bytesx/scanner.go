// Package bytesx provides fixed-width big-endian integer encoding and a
// cursored byte scanner used by the node codec and staging log.
package bytesx

import "encoding/binary"

// U16 encodes v as a 2-byte big-endian slice.
func U16(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

// U32 encodes v as a 4-byte big-endian slice.
func U32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

// U64 encodes v as an 8-byte big-endian slice.
func U64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// ToU16 decodes the first 2 bytes of b as big-endian.
func ToU16(b []byte) uint16 { return binary.BigEndian.Uint16(b) }

// ToU32 decodes the first 4 bytes of b as big-endian.
func ToU32(b []byte) uint32 { return binary.BigEndian.Uint32(b) }

// ToU64 decodes the first 8 bytes of b as big-endian.
func ToU64(b []byte) uint64 { return binary.BigEndian.Uint64(b) }

// Scanner is a cursored reader over a byte slice. Reading past the end
// is a programmer error: callers must check IsEnd or know the shape of
// the buffer in advance.
type Scanner struct {
	buf []byte
	pos int
}

// NewScanner returns a Scanner positioned at the start of buf.
func NewScanner(buf []byte) *Scanner {
	return &Scanner{buf: buf}
}

// Forward advances the cursor by n bytes without reading.
func (s *Scanner) Forward(n int) {
	s.pos += n
}

// Pos returns the current cursor position.
func (s *Scanner) Pos() int {
	return s.pos
}

// Read returns the next n bytes and advances the cursor.
func (s *Scanner) Read(n int) []byte {
	b := s.buf[s.pos : s.pos+n]
	s.pos += n
	return b
}

// ReadU8 reads one byte.
func (s *Scanner) ReadU8() uint8 {
	v := s.buf[s.pos]
	s.pos++
	return v
}

// ReadU16 reads a big-endian uint16.
func (s *Scanner) ReadU16() uint16 {
	v := ToU16(s.buf[s.pos : s.pos+2])
	s.pos += 2
	return v
}

// ReadU32 reads a big-endian uint32.
func (s *Scanner) ReadU32() uint32 {
	v := ToU32(s.buf[s.pos : s.pos+4])
	s.pos += 4
	return v
}

// ReadU64 reads a big-endian uint64.
func (s *Scanner) ReadU64() uint64 {
	v := ToU64(s.buf[s.pos : s.pos+8])
	s.pos += 8
	return v
}

// ReadString reads n bytes and returns them as a UTF-8 string.
func (s *Scanner) ReadString(n int) string {
	return string(s.Read(n))
}

// IsEnd reports whether the cursor has reached the end of the buffer.
func (s *Scanner) IsEnd() bool {
	return s.pos >= len(s.buf)
}

// Len returns the total length of the underlying buffer.
func (s *Scanner) Len() int {
	return len(s.buf)
}
