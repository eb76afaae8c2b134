// Package stream provides the typed little-endian binary I/O abstraction
// underlying every ZenGin subsystem (archive back-ends, the VFS container
// format, and the Daedalus module loader) A Stream can be
// backed by an in-memory buffer, a plain file, or a memory-mapped file.
package stream

import (
	"encoding/binary"
	"os"
	"strings"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/gothicgo/zengin/zgerr"
)

// Origin selects the reference point for Seek
type Origin int

const (
	Begin Origin = iota
	Current
	End
)

// Stream is a positioned, little-endian, seekable byte sequence.
type Stream interface {
	ReadU8() (uint8, error)
	ReadU16() (uint16, error)
	ReadU32() (uint32, error)
	ReadI32() (int32, error)
	ReadF32() (float32, error)
	ReadBlock(n int) ([]byte, error)
	ReadCString() (string, error)
	ReadLine(trim bool) (string, error)
	ReadVec3() (Vec3, error)
	ReadMat3() (Mat3, error)
	ReadMat4() (Mat4, error)
	ReadColor() (Color, error)
	ReadAABB() (AABB, error)

	WriteU8(uint8) error
	WriteU16(uint16) error
	WriteU32(uint32) error
	WriteI32(int32) error
	WriteF32(float32) error
	WriteBlock([]byte) error
	WriteCString(string) error
	WriteLine(string) error
	WriteVec3(Vec3) error
	WriteMat3(Mat3) error
	WriteMat4(Mat4) error
	WriteColor(Color) error
	WriteAABB(AABB) error

	// Tell returns the current position.
	Tell() uint32
	// Seek repositions the stream relative to origin and returns the new
	// absolute position.
	Seek(offset int32, origin Origin) (uint32, error)
	// Len returns the total size of the underlying medium.
	Len() uint32

	// Close releases any OS resources (file handles, mappings). Streams
	// over a plain byte buffer treat Close as a no-op.
	Close() error
}

// stream is the single implementation shared by all three mediums; only the
// byte storage backing it differs.
type stream struct {
	m        medium
	pos      int64
	onClose  func() error
}

// OpenMemory copies data into a new in-memory buffer for reading and writing; writes
// past the end grow the buffer, matching how ASCII/BINARY/BINSAFE archives
// are typically built and re-saved entirely in memory.
func OpenMemory(data []byte) Stream {
	return &stream{m: newMemMedium(data)}
}

// OpenFile opens a file on disk for reading and writing.
func OpenFile(path string, write bool) (Stream, error) {
	flag := os.O_RDONLY
	if write {
		flag = os.O_RDWR | os.O_CREATE
	}
	f, err := os.OpenFile(path, flag, 0o644) //nolint:gosec // G304: caller-provided path is intentional for an archive/container library
	if err != nil {
		return nil, zgerr.Wrap(zgerr.KindIO, "open file stream", err)
	}
	return &stream{
		m:       &fileMedium{f: f},
		onClose: f.Close,
	}, nil
}

// OpenMapped memory-maps a file read-only via mmap.Map(f, mmap.RDONLY, 0)
// to avoid copying large containers into the heap before parsing them.
func OpenMapped(path string) (Stream, error) {
	f, err := os.Open(path) //nolint:gosec // G304: caller-provided path is intentional
	if err != nil {
		return nil, zgerr.Wrap(zgerr.KindIO, "open mapped stream", err)
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		_ = f.Close()
		return nil, zgerr.Wrap(zgerr.KindIO, "mmap file", err)
	}
	mm := &mmapMedium{data: data}
	return &stream{
		m: mm,
		onClose: func() error {
			err1 := mm.unmap()
			err2 := f.Close()
			if err1 != nil {
				return err1
			}
			return err2
		},
	}, nil
}

func (s *stream) Close() error {
	if s.onClose == nil {
		return nil
	}
	return s.onClose()
}

func (s *stream) Len() uint32 { return uint32(s.m.Size()) }

func (s *stream) Tell() uint32 { return uint32(s.pos) }

func (s *stream) Seek(offset int32, origin Origin) (uint32, error) {
	var base int64
	switch origin {
	case Begin:
		base = 0
	case Current:
		base = s.pos
	case End:
		base = s.m.Size()
	default:
		return 0, zgerr.New(zgerr.KindIO, "unknown seek origin")
	}
	target := base + int64(offset)
	if target < 0 || target > s.m.Size() {
		return 0, zgerr.Wrap(zgerr.KindIO, "seek out of range", zgerr.ErrSeekOutOfRange)
	}
	s.pos = target
	return uint32(s.pos), nil
}

func (s *stream) read(n int) ([]byte, error) {
	buf := getBuffer(n)
	nRead, err := s.m.ReadAt(buf, s.pos)
	if err != nil {
		releaseBuffer(buf)
		return nil, zgerr.Wrap(zgerr.KindIO, "read", err)
	}
	s.pos += int64(nRead)
	return buf, nil
}

func (s *stream) write(p []byte) error {
	_, err := s.m.WriteAt(p, s.pos)
	if err != nil {
		return zgerr.Wrap(zgerr.KindIO, "write", err)
	}
	s.pos += int64(len(p))
	return nil
}

func (s *stream) ReadU8() (uint8, error) {
	buf, err := s.read(1)
	if err != nil {
		return 0, err
	}
	v := buf[0]
	releaseBuffer(buf)
	return v, nil
}

func (s *stream) ReadU16() (uint16, error) {
	buf, err := s.read(2)
	if err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(buf)
	releaseBuffer(buf)
	return v, nil
}

func (s *stream) ReadU32() (uint32, error) {
	buf, err := s.read(4)
	if err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(buf)
	releaseBuffer(buf)
	return v, nil
}

func (s *stream) ReadI32() (int32, error) {
	v, err := s.ReadU32()
	return int32(v), err
}

func (s *stream) ReadF32() (float32, error) {
	v, err := s.ReadU32()
	if err != nil {
		return 0, err
	}
	return math32FromBits(v), nil
}

func (s *stream) ReadBlock(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf, err := s.read(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, buf)
	releaseBuffer(buf)
	return out, nil
}

// ReadCString reads bytes until a NUL terminator (consumed, not returned). If
// the medium ends before a NUL is found, it returns the read error.
func (s *stream) ReadCString() (string, error) {
	var b strings.Builder
	for {
		c, err := s.ReadU8()
		if err != nil {
			return "", err
		}
		if c == 0 {
			return b.String(), nil
		}
		b.WriteByte(c)
	}
}

// ReadLine reads up to the next '\n', stripping a trailing '\r' and '\n'.
// When trim is set, surrounding ASCII whitespace is also stripped.
func (s *stream) ReadLine(trim bool) (string, error) {
	var b strings.Builder
	for {
		c, err := s.ReadU8()
		if err != nil {
			if b.Len() > 0 {
				break
			}
			return "", err
		}
		if c == '\n' {
			break
		}
		b.WriteByte(c)
	}
	line := b.String()
	line = strings.TrimSuffix(line, "\r")
	if trim {
		line = strings.TrimSpace(line)
	}
	return line, nil
}

func (s *stream) ReadVec3() (Vec3, error) {
	x, err := s.ReadF32()
	if err != nil {
		return Vec3{}, err
	}
	y, err := s.ReadF32()
	if err != nil {
		return Vec3{}, err
	}
	z, err := s.ReadF32()
	if err != nil {
		return Vec3{}, err
	}
	return Vec3{X: x, Y: y, Z: z}, nil
}

func (s *stream) ReadMat3() (Mat3, error) {
	var m Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			v, err := s.ReadF32()
			if err != nil {
				return m, err
			}
			m[r][c] = v
		}
	}
	return m, nil
}

func (s *stream) ReadMat4() (Mat4, error) {
	var m Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			v, err := s.ReadF32()
			if err != nil {
				return m, err
			}
			m[r][c] = v
		}
	}
	return m, nil
}

func (s *stream) ReadColor() (Color, error) {
	buf, err := s.read(4)
	if err != nil {
		return Color{}, err
	}
	c := Color{R: buf[0], G: buf[1], B: buf[2], A: buf[3]}
	releaseBuffer(buf)
	return c, nil
}

func (s *stream) ReadAABB() (AABB, error) {
	min, err := s.ReadVec3()
	if err != nil {
		return AABB{}, err
	}
	max, err := s.ReadVec3()
	if err != nil {
		return AABB{}, err
	}
	return AABB{Min: min, Max: max}, nil
}

func (s *stream) WriteU8(v uint8) error {
	return s.write([]byte{v})
}

func (s *stream) WriteU16(v uint16) error {
	buf := getBuffer(2)
	binary.LittleEndian.PutUint16(buf, v)
	err := s.write(buf)
	releaseBuffer(buf)
	return err
}

func (s *stream) WriteU32(v uint32) error {
	buf := getBuffer(4)
	binary.LittleEndian.PutUint32(buf, v)
	err := s.write(buf)
	releaseBuffer(buf)
	return err
}

func (s *stream) WriteI32(v int32) error {
	return s.WriteU32(uint32(v))
}

func (s *stream) WriteF32(v float32) error {
	return s.WriteU32(math32ToBits(v))
}

func (s *stream) WriteBlock(p []byte) error {
	return s.write(p)
}

func (s *stream) WriteCString(str string) error {
	if err := s.write([]byte(str)); err != nil {
		return err
	}
	return s.WriteU8(0)
}

func (s *stream) WriteLine(line string) error {
	return s.write([]byte(line + "\n"))
}

func (s *stream) WriteVec3(v Vec3) error {
	if err := s.WriteF32(v.X); err != nil {
		return err
	}
	if err := s.WriteF32(v.Y); err != nil {
		return err
	}
	return s.WriteF32(v.Z)
}

func (s *stream) WriteMat3(m Mat3) error {
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			if err := s.WriteF32(m[r][c]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *stream) WriteMat4(m Mat4) error {
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			if err := s.WriteF32(m[r][c]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *stream) WriteColor(c Color) error {
	return s.write([]byte{c.R, c.G, c.B, c.A})
}

func (s *stream) WriteAABB(a AABB) error {
	if err := s.WriteVec3(a.Min); err != nil {
		return err
	}
	return s.WriteVec3(a.Max)
}
