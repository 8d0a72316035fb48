package savefile

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestStoreIntsAreBigEndian(t *testing.T) {
	t.Parallel()

	buf := make([]byte, 8)
	s := NewStore(buf)
	if err := s.WriteInt(2, 0x01020304); err != nil {
		t.Fatalf("write: %v", err)
	}
	if want := []byte{0, 0, 1, 2, 3, 4, 0, 0}; !bytes.Equal(buf, want) {
		t.Fatalf("bytes: got % X want % X", buf, want)
	}
	got, err := s.ReadInt(2)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != 0x01020304 {
		t.Fatalf("read: got 0x%X", got)
	}
}

func TestStoreNegativeRoundTrip(t *testing.T) {
	t.Parallel()

	s := NewStore(make([]byte, 4))
	for _, v := range []int32{-1, math.MinInt32, math.MaxInt32, 0, -12345} {
		if err := s.WriteInt(0, v); err != nil {
			t.Fatalf("write %d: %v", v, err)
		}
		got, err := s.ReadInt(0)
		if err != nil {
			t.Fatalf("read %d: %v", v, err)
		}
		if got != v {
			t.Fatalf("round trip: got %d want %d", got, v)
		}
	}
}

func TestStoreBounds(t *testing.T) {
	t.Parallel()

	s := NewStore(make([]byte, 10))
	tests := []struct {
		name string
		call func() error
	}{
		{"read past end", func() error { _, err := s.ReadInt(7); return err }},
		{"read negative", func() error { _, err := s.ReadInt(-1); return err }},
		{"write past end", func() error { return s.WriteInt(8, 1) }},
		{"bytes past end", func() error { _, err := s.ReadBytes(5, 6); return err }},
		{"write bytes past end", func() error { return s.WriteBytes(9, []byte{1, 2}) }},
	}
	for _, tt := range tests {
		err := tt.call()
		if !errors.Is(err, ErrOutOfRange) {
			t.Errorf("%s: got %v want ErrOutOfRange", tt.name, err)
		}
		var rerr *RangeError
		if !errors.As(err, &rerr) || rerr.Len != 10 {
			t.Errorf("%s: got %v want *RangeError with Len 10", tt.name, err)
		}
	}

	if _, err := s.ReadInt(6); err != nil {
		t.Fatalf("last int: %v", err)
	}
	if got := s.Snapshot(); !bytes.Equal(got, make([]byte, 10)) {
		t.Fatalf("failed writes changed the buffer: % X", got)
	}
}

func TestStoreReadBytesCopies(t *testing.T) {
	t.Parallel()

	buf := []byte{1, 2, 3, 4}
	s := NewStore(buf)
	got, err := s.ReadBytes(1, 2)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	got[0] = 0xFF
	if buf[1] != 2 {
		t.Fatalf("ReadBytes aliased the buffer")
	}
}

func TestOpenStoreWritesThrough(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "SAVE.DAT")
	if err := os.WriteFile(path, make([]byte, 64), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	s, err := OpenStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.Len() != 64 {
		t.Fatalf("len: got %d want 64", s.Len())
	}
	if err := s.WriteInt(16, -2); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}

	// Visible to other readers before Close.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if want := []byte{0xFF, 0xFF, 0xFF, 0xFE}; !bytes.Equal(raw[16:20], want) {
		t.Fatalf("file bytes: got % X want % X", raw[16:20], want)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestOpenStoreMissingFile(t *testing.T) {
	t.Parallel()

	_, err := OpenStore(filepath.Join(t.TempDir(), "nope.dat"))
	if !errors.Is(err, ErrIO) {
		t.Fatalf("got %v want ErrIO", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("got %v want wrapped os.ErrNotExist", err)
	}
}
