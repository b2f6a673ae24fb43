package bytesx

import (
	"bytes"
	"testing"
)

func TestU64RoundTrip(t *testing.T) {
	v := uint64(0x0102030405060708)
	b := U64(v)
	if len(b) != 8 {
		t.Fatalf("expected 8 bytes, got %d", len(b))
	}
	if got := ToU64(b); got != v {
		t.Fatalf("got %x, want %x", got, v)
	}
}

func TestU32RoundTrip(t *testing.T) {
	v := uint32(0xAABBCCDD)
	if got := ToU32(U32(v)); got != v {
		t.Fatalf("got %x, want %x", got, v)
	}
}

func TestU16RoundTrip(t *testing.T) {
	v := uint16(0xBEEF)
	if got := ToU16(U16(v)); got != v {
		t.Fatalf("got %x, want %x", got, v)
	}
}

func TestScannerSequentialReads(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(U16(7))
	buf.Write(U32(42))
	buf.Write(U64(99))
	buf.WriteString("hello")

	s := NewScanner(buf.Bytes())
	if v := s.ReadU16(); v != 7 {
		t.Fatalf("u16 = %d, want 7", v)
	}
	if v := s.ReadU32(); v != 42 {
		t.Fatalf("u32 = %d, want 42", v)
	}
	if v := s.ReadU64(); v != 99 {
		t.Fatalf("u64 = %d, want 99", v)
	}
	if v := s.ReadString(5); v != "hello" {
		t.Fatalf("string = %q, want hello", v)
	}
	if !s.IsEnd() {
		t.Fatal("expected scanner to be at end")
	}
}

func TestScannerForward(t *testing.T) {
	s := NewScanner([]byte{1, 2, 3, 4, 5})
	s.Forward(3)
	if v := s.ReadU8(); v != 4 {
		t.Fatalf("got %d, want 4", v)
	}
}
