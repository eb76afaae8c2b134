package archive

import (
	"github.com/gothicgo/zengin/stream"
	"github.com/gothicgo/zengin/zgerr"
)

// binaryReader implements the compact length-prefixed back-end: each
// object's payload is preceded by a 32-bit byte length, which this reader
// turns into an absolute end offset pushed onto a stack. Nesting an
// object pushes a new offset, finishing one pops it, giving an O(1) skip
// for unregistered classes and back references instead of ASCII/BINSAFE's
// begin/end-event walk.
type binaryReader struct {
	base
	s    stream.Stream
	ends []uint32
}

func newBinaryReader(s stream.Stream, h Header) *binaryReader {
	return &binaryReader{base: newBase(h), s: s}
}

func (r *binaryReader) ReadObjectBegin() (Object, bool) {
	mark := r.s.Tell()
	if mark >= r.s.Len() {
		return Object{}, false
	}

	objectName, err := r.s.ReadCString()
	if err != nil {
		_, _ = r.s.Seek(int32(mark), stream.Begin)
		return Object{}, false
	}
	className, err := r.s.ReadCString()
	if err != nil {
		_, _ = r.s.Seek(int32(mark), stream.Begin)
		return Object{}, false
	}
	version, err := r.s.ReadU16()
	if err != nil {
		_, _ = r.s.Seek(int32(mark), stream.Begin)
		return Object{}, false
	}
	index, err := r.s.ReadU32()
	if err != nil {
		_, _ = r.s.Seek(int32(mark), stream.Begin)
		return Object{}, false
	}
	length, err := r.s.ReadU32()
	if err != nil {
		_, _ = r.s.Seek(int32(mark), stream.Begin)
		return Object{}, false
	}

	r.ends = append(r.ends, r.s.Tell()+length)
	return Object{ObjectName: objectName, ClassName: className, Version: version, Index: index}, true
}

// ReadObjectEnd reports whether every byte of the current object's declared
// payload has been consumed; if not, the caller skips the remainder via
// SkipObject(false) without popping the offset first.
func (r *binaryReader) ReadObjectEnd() bool {
	if len(r.ends) == 0 {
		return true
	}
	top := r.ends[len(r.ends)-1]
	if r.s.Tell() < top {
		return false
	}
	r.ends = r.ends[:len(r.ends)-1]
	return true
}

func (r *binaryReader) ReadString() (string, error) {
	v, err := r.s.ReadCString()
	return v, wrapBinary(err)
}

func (r *binaryReader) ReadInt() (int32, error) {
	v, err := r.s.ReadI32()
	return v, wrapBinary(err)
}

func (r *binaryReader) ReadFloat() (float32, error) {
	v, err := r.s.ReadF32()
	return v, wrapBinary(err)
}

func (r *binaryReader) ReadByte() (uint8, error) {
	v, err := r.s.ReadU8()
	return v, wrapBinary(err)
}

func (r *binaryReader) ReadWord() (uint16, error) {
	v, err := r.s.ReadU16()
	return v, wrapBinary(err)
}

func (r *binaryReader) ReadEnum() (uint32, error) {
	v, err := r.s.ReadU32()
	return v, wrapBinary(err)
}

func (r *binaryReader) ReadBool() (bool, error) {
	v, err := r.s.ReadU8()
	return v != 0, wrapBinary(err)
}

func (r *binaryReader) ReadColor() (stream.Color, error) {
	v, err := r.s.ReadColor()
	return v, wrapBinary(err)
}

func (r *binaryReader) ReadVec3() (stream.Vec3, error) {
	v, err := r.s.ReadVec3()
	return v, wrapBinary(err)
}

func (r *binaryReader) ReadBBox() (stream.AABB, error) {
	v, err := r.s.ReadAABB()
	return v, wrapBinary(err)
}

func (r *binaryReader) ReadMat3() (stream.Mat3, error) {
	v, err := r.s.ReadMat3()
	return v, wrapBinary(err)
}

func (r *binaryReader) ReadRaw(size int) ([]byte, error) {
	v, err := r.s.ReadBlock(size)
	return v, wrapBinary(err)
}

func (r *binaryReader) ReadRawFloat() ([]float32, error) {
	n, err := r.s.ReadU32()
	if err != nil {
		return nil, wrapBinary(err)
	}
	out := make([]float32, n)
	for i := range out {
		out[i], err = r.s.ReadF32()
		if err != nil {
			return nil, wrapBinary(err)
		}
	}
	return out, nil
}

// SkipEntry has no positional meaning for an untagged stream; BINARY always
// skips by jumping to the enclosing object's end offset instead, so this is
// never called in practice. Kept to satisfy the Reader interface.
func (r *binaryReader) SkipEntry() {
	_, _ = r.s.ReadU8()
}

// SkipObject jumps directly to the current object's declared end offset,
// the length prefix read in ReadObjectBegin doing the work ASCII/BINSAFE do
// by walking begin/end events one field at a time.
func (r *binaryReader) SkipObject(bool) {
	if len(r.ends) == 0 {
		return
	}
	top := r.ends[len(r.ends)-1]
	r.ends = r.ends[:len(r.ends)-1]
	_, _ = r.s.Seek(int32(top), stream.Begin)
}

func (r *binaryReader) ReadObject(version GameVersion) (Persistable, error) {
	return readObjectCommon(r, &r.base, version)
}

func wrapBinary(err error) error {
	if err == nil {
		return nil
	}
	return zgerr.Wrap(zgerr.KindBinaryRead, "binary field", err)
}

// binaryWriter implements the compact back-end. Each WriteObjectBegin
// reserves its length prefix and patches it in on WriteObjectEnd.
type binaryWriter struct {
	s         stream.Stream
	h         Header
	index     uint32
	lenFixups []uint32
}

func newBinaryWriter(s stream.Stream, h Header) (*binaryWriter, error) {
	if err := saveHeader(s, h); err != nil {
		return nil, err
	}
	return &binaryWriter{s: s, h: h, index: 1}, nil
}

func (w *binaryWriter) Header() Header { return w.h }

func (w *binaryWriter) WriteObjectBegin(objectName, className string, version uint16) uint32 {
	_ = w.s.WriteCString(objectName)
	_ = w.s.WriteCString(className)
	_ = w.s.WriteU16(version)
	idx := w.index
	_ = w.s.WriteU32(idx)
	w.index++

	lenPos := w.s.Tell()
	_ = w.s.WriteU32(0) // patched in WriteObjectEnd
	w.lenFixups = append(w.lenFixups, lenPos)
	return idx
}

func (w *binaryWriter) WriteObjectEnd() {
	if len(w.lenFixups) == 0 {
		return
	}
	lenPos := w.lenFixups[len(w.lenFixups)-1]
	w.lenFixups = w.lenFixups[:len(w.lenFixups)-1]

	end := w.s.Tell()
	payload := end - lenPos - 4
	_, _ = w.s.Seek(int32(lenPos), stream.Begin)
	_ = w.s.WriteU32(payload)
	_, _ = w.s.Seek(int32(end), stream.Begin)
}

func (w *binaryWriter) WriteRef(objectName string, index uint32) {
	_ = w.s.WriteCString(objectName)
	_ = w.s.WriteCString(refClassName)
	_ = w.s.WriteU16(0)
	_ = w.s.WriteU32(index)
	_ = w.s.WriteU32(0)
}

func (w *binaryWriter) WriteString(_ string, v string) error { return w.s.WriteCString(v) }
func (w *binaryWriter) WriteInt(_ string, v int32) error     { return w.s.WriteI32(v) }
func (w *binaryWriter) WriteFloat(_ string, v float32) error { return w.s.WriteF32(v) }
func (w *binaryWriter) WriteByte(_ string, v uint8) error    { return w.s.WriteU8(v) }
func (w *binaryWriter) WriteWord(_ string, v uint16) error   { return w.s.WriteU16(v) }
func (w *binaryWriter) WriteEnum(_ string, v uint32) error   { return w.s.WriteU32(v) }

func (w *binaryWriter) WriteBool(_ string, v bool) error {
	b := uint8(0)
	if v {
		b = 1
	}
	return w.s.WriteU8(b)
}

func (w *binaryWriter) WriteColor(_ string, v stream.Color) error { return w.s.WriteColor(v) }
func (w *binaryWriter) WriteVec3(_ string, v stream.Vec3) error   { return w.s.WriteVec3(v) }
func (w *binaryWriter) WriteBBox(_ string, v stream.AABB) error   { return w.s.WriteAABB(v) }
func (w *binaryWriter) WriteMat3(_ string, v stream.Mat3) error   { return w.s.WriteMat3(v) }
func (w *binaryWriter) WriteRaw(_ string, v []byte) error         { return w.s.WriteBlock(v) }

func (w *binaryWriter) WriteRawFloat(_ string, v []float32) error {
	if err := w.s.WriteU32(uint32(len(v))); err != nil {
		return err
	}
	for _, f := range v {
		if err := w.s.WriteF32(f); err != nil {
			return err
		}
	}
	return nil
}

func (w *binaryWriter) Close() error { return nil }
