package stream

import (
	"os"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/gothicgo/zengin/zgerr"
)

// medium is the positioned byte storage a Stream reads and writes
// through: a read/write, resizable contract the archive and VFS back-ends
// need.
type medium interface {
	ReadAt(p []byte, off int64) (int, error)
	WriteAt(p []byte, off int64) (int, error)
	Size() int64
	Truncate(size int64) error
}

// memMedium is a growable in-memory buffer, used for ascii/binary/binsafe
// round-trips built entirely in memory and for small VFS catalog entries.
type memMedium struct {
	buf []byte
}

func newMemMedium(initial []byte) *memMedium {
	cp := make([]byte, len(initial))
	copy(cp, initial)
	return &memMedium{buf: cp}
}

func (m *memMedium) Size() int64 { return int64(len(m.buf)) }

func (m *memMedium) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(m.buf)) {
		return 0, zgerr.ErrUnexpectedEOF
	}
	n := copy(p, m.buf[off:])
	if n < len(p) {
		return n, zgerr.ErrUnexpectedEOF
	}
	return n, nil
}

func (m *memMedium) WriteAt(p []byte, off int64) (int, error) {
	end := off + int64(len(p))
	if end > int64(len(m.buf)) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[off:end], p)
	return len(p), nil
}

func (m *memMedium) Truncate(size int64) error {
	if size <= int64(len(m.buf)) {
		m.buf = m.buf[:size]
		return nil
	}
	grown := make([]byte, size)
	copy(grown, m.buf)
	m.buf = grown
	return nil
}

// fileMedium reads and writes directly through an *os.File.
type fileMedium struct {
	f *os.File
}

func (m *fileMedium) Size() int64 {
	fi, err := m.f.Stat()
	if err != nil {
		return 0
	}
	return fi.Size()
}

func (m *fileMedium) ReadAt(p []byte, off int64) (int, error) {
	n, err := m.f.ReadAt(p, off)
	if n < len(p) {
		return n, zgerr.ErrUnexpectedEOF
	}
	return n, err
}

func (m *fileMedium) WriteAt(p []byte, off int64) (int, error) {
	return m.f.WriteAt(p, off)
}

func (m *fileMedium) Truncate(size int64) error {
	return m.f.Truncate(size)
}

// mmapMedium is a read-only memory-mapped backend, using mmap.Map(f,
// mmap.RDONLY, 0) to avoid copying large archive/container files into the
// Go heap before parsing them.
type mmapMedium struct {
	data mmap.MMap
}

func (m *mmapMedium) Size() int64 { return int64(len(m.data)) }

func (m *mmapMedium) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(m.data)) {
		return 0, zgerr.ErrUnexpectedEOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, zgerr.ErrUnexpectedEOF
	}
	return n, nil
}

func (m *mmapMedium) WriteAt(p []byte, off int64) (int, error) {
	return 0, zgerr.New(zgerr.KindIO, "mmap stream is read-only")
}

func (m *mmapMedium) Truncate(size int64) error {
	return zgerr.New(zgerr.KindIO, "mmap stream cannot be resized")
}

func (m *mmapMedium) unmap() error {
	return m.data.Unmap()
}
