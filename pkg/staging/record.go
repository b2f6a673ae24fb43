package staging

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/segmentio/ksuid"
)

// Kind distinguishes the two record streams a staging store holds.
type Kind uint8

const (
	// EntryKind marks a (headword, value-bytes) record.
	EntryKind Kind = 0
	// TokenKind marks a (headword, alternate-spellings) record.
	TokenKind Kind = 1
)

// recordHeaderSize is CRC32(4) + Kind(1) + ksuid ID(20) + NameSize(4) +
// ValueSize(4) + Timestamp(8).
const recordHeaderSize = 4 + 1 + ksuid.ByteLength + 4 + 4 + 8

// Record is one staged (entry or token) line: a monotonically
// sortable ksuid identity, its kind, name, and opaque value bytes
// (already packed by the caller for token records).
type Record struct {
	ID        ksuid.KSUID
	Kind      Kind
	Timestamp uint64
	Name      string
	Value     []byte
}

// Size returns the total encoded length of r.
func (r *Record) Size() int {
	return recordHeaderSize + len(r.Name) + len(r.Value)
}

// recordCodec encodes/decodes staging records in the fixed header
// format: [CRC32][Kind][ID][NameSize][ValueSize][Timestamp][Name][Value].
type recordCodec struct{}

func newRecordCodec() *recordCodec { return &recordCodec{} }

func (c *recordCodec) Encode(r *Record) []byte {
	buf := make([]byte, r.Size())
	// CRC32 is filled in last; leave its 4 bytes zeroed for now.
	buf[4] = byte(r.Kind)
	copy(buf[5:5+ksuid.ByteLength], r.ID.Bytes())
	off := 5 + ksuid.ByteLength
	binary.BigEndian.PutUint32(buf[off:], uint32(len(r.Name)))
	binary.BigEndian.PutUint32(buf[off+4:], uint32(len(r.Value)))
	binary.BigEndian.PutUint64(buf[off+8:], r.Timestamp)
	off += 16
	copy(buf[off:], r.Name)
	off += len(r.Name)
	copy(buf[off:], r.Value)

	crc := crc32.ChecksumIEEE(buf[4:])
	binary.BigEndian.PutUint32(buf[0:4], crc)
	return buf
}

// DecodeHeader parses the fixed-size header, returning the record's
// kind, name length, value length, and declared CRC32, without
// touching the variable-length name/value payload.
type header struct {
	crc32     uint32
	kind      Kind
	id        ksuid.KSUID
	nameSize  uint32
	valueSize uint32
	timestamp uint64
}

func (c *recordCodec) DecodeHeader(buf []byte) (header, error) {
	if len(buf) < recordHeaderSize {
		return header{}, fmt.Errorf("staging: short record header: %d bytes", len(buf))
	}
	var h header
	h.crc32 = binary.BigEndian.Uint32(buf[0:4])
	h.kind = Kind(buf[4])
	id, err := ksuid.FromBytes(buf[5 : 5+ksuid.ByteLength])
	if err != nil {
		return header{}, fmt.Errorf("staging: decode ksuid: %w", err)
	}
	h.id = id
	off := 5 + ksuid.ByteLength
	h.nameSize = binary.BigEndian.Uint32(buf[off:])
	h.valueSize = binary.BigEndian.Uint32(buf[off+4:])
	h.timestamp = binary.BigEndian.Uint64(buf[off+8:])
	return h, nil
}

func (c *recordCodec) DecodeBody(h header, body []byte) (*Record, error) {
	if uint32(len(body)) != h.nameSize+h.valueSize {
		return nil, fmt.Errorf("staging: body length mismatch: got %d, want %d", len(body), h.nameSize+h.valueSize)
	}
	r := &Record{
		ID:        h.id,
		Kind:      h.kind,
		Timestamp: h.timestamp,
		Name:      string(body[:h.nameSize]),
		Value:     append([]byte(nil), body[h.nameSize:]...),
	}
	return r, nil
}

// Validate recomputes the CRC32 over the full encoding of r and
// compares it against want.
func (c *recordCodec) Validate(r *Record, want uint32) error {
	got := crc32.ChecksumIEEE(c.Encode(r)[4:])
	if got != want {
		return fmt.Errorf("%w: got %08x, want %08x", ErrCorruption, got, want)
	}
	return nil
}
