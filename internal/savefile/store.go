package savefile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// intWidth is the size of every integer field in the format.
const intWidth = 4

// Store is the save file's bytes, addressable at absolute offsets.
// Writes reach the underlying file immediately: either through a shared
// read/write mapping or, when mmap is unavailable, through WriteAt.
// A Store is not safe for concurrent use.
type Store struct {
	data    []byte
	file    *os.File
	mmapped bool
}

// NewStore wraps an in-memory buffer. Writes mutate data in place.
func NewStore(data []byte) *Store {
	return &Store{data: data}
}

// OpenStore opens path read/write and maps it shared.
func OpenStore(path string) (*Store, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: stat %s: %w", ErrIO, path, err)
	}
	size64 := stat.Size()
	if size64 > int64(int(^uint(0)>>1)) {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s too large to map", ErrIO, path)
	}
	size := int(size64)

	if size > 0 {
		data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
		if err == nil {
			return &Store{data: data, file: f, mmapped: true}, nil
		}
	}

	// Fallback: private copy, writes go through WriteAt.
	data := make([]byte, size)
	if _, err := io.ReadFull(io.NewSectionReader(f, 0, size64), data); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: read %s: %w", ErrIO, path, err)
	}
	return &Store{data: data, file: f}, nil
}

// Len returns the buffer size, fixed for the store's lifetime.
func (s *Store) Len() int {
	return len(s.data)
}

func (s *Store) check(off, width int) error {
	if off < 0 || width < 0 || off > len(s.data)-width {
		return &RangeError{Offset: off, Width: width, Len: len(s.data)}
	}
	return nil
}

// ReadInt reads a big-endian int32 at off.
func (s *Store) ReadInt(off int) (int32, error) {
	if err := s.check(off, intWidth); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(s.data[off:])), nil
}

// WriteInt writes v big-endian at off.
func (s *Store) WriteInt(off int, v int32) error {
	var buf [intWidth]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	return s.WriteBytes(off, buf[:])
}

// ReadBytes returns a copy of n bytes starting at off.
func (s *Store) ReadBytes(off, n int) ([]byte, error) {
	if err := s.check(off, n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, s.data[off:off+n])
	return out, nil
}

// WriteBytes copies b into the buffer at off.
func (s *Store) WriteBytes(off int, b []byte) error {
	if err := s.check(off, len(b)); err != nil {
		return err
	}
	copy(s.data[off:], b)
	if s.file != nil && !s.mmapped {
		if _, err := s.file.WriteAt(b, int64(off)); err != nil {
			return fmt.Errorf("%w: write at 0x%X: %w", ErrIO, off, err)
		}
	}
	return nil
}

// Index returns the offset of the first occurrence of pattern, or -1.
func (s *Store) Index(pattern []byte) int {
	return bytes.Index(s.data, pattern)
}

// Snapshot returns a copy of the whole buffer.
func (s *Store) Snapshot() []byte {
	return bytes.Clone(s.data)
}

// Sync flushes a mapped store to disk.
func (s *Store) Sync() error {
	if s.mmapped {
		if err := unix.Msync(s.data, unix.MS_SYNC); err != nil {
			return fmt.Errorf("%w: msync: %w", ErrIO, err)
		}
	}
	return nil
}

// Close flushes and releases the mapping and file. Close on a closed store
// is a no-op.
func (s *Store) Close() error {
	if s == nil || s.data == nil && s.file == nil {
		return nil
	}
	var firstErr error
	if s.mmapped {
		if err := s.Sync(); err != nil {
			firstErr = err
		}
		if err := unix.Munmap(s.data); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%w: munmap: %w", ErrIO, err)
		}
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%w: close: %w", ErrIO, err)
		}
	}
	s.data = nil
	s.file = nil
	s.mmapped = false
	return firstErr
}
