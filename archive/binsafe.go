package archive

import (
	"math"
	"strconv"
	"strings"

	"github.com/gothicgo/zengin/stream"
	"github.com/gothicgo/zengin/zgerr"
)

func float32frombits(v uint32) float32 { return math.Float32frombits(v) }
func float32tobits(v float32) uint32   { return math.Float32bits(v) }

// binsafeType tags the wire type of a BINSAFE entry
type binsafeType uint8

const (
	bsUnused0 binsafeType = iota
	bsString
	bsInteger
	bsFloat
	bsByte
	bsWord
	bsBool
	bsVec3
	bsColor
	bsRaw
	bsUnusedA
	bsUnusedB
	bsUnusedC
	bsUnusedD
	bsUnusedE
	bsUnusedF
	bsRawFloat
	bsEnum
	bsHash
)

// hashTableEntry is a single row of the on-disk key table. Hash is a
// write-only masked value that readers never consult; see
// binsafeReader.entryKey.
type hashTableEntry struct {
	key  string
	hash uint32
}

// binsafeReader implements the BINSAFE back-end. Each entry's "hash" field
// is in fact the insertion index of its key into the hash table the
// header carries, not a computed hash; the header's own on-disk hash
// column is write-only and is never read back here.
type binsafeReader struct {
	base
	s          stream.Stream
	hashTable  []hashTableEntry
}

func newBinsafeReader(s stream.Stream, h Header) (*binsafeReader, error) {
	r := &binsafeReader{base: newBase(h), s: s}

	if _, err := s.ReadU32(); err != nil { // bs_version
		return nil, zgerr.Wrap(zgerr.KindBinsafeRead, "read bs version", err)
	}
	if _, err := s.ReadU32(); err != nil { // object count, recomputed implicitly by the registry walk
		return nil, zgerr.Wrap(zgerr.KindBinsafeRead, "read object count", err)
	}
	tableOffset, err := s.ReadU32()
	if err != nil {
		return nil, zgerr.Wrap(zgerr.KindBinsafeRead, "read hash table offset", err)
	}

	mark := s.Tell()
	if _, err := s.Seek(int32(tableOffset), stream.Begin); err != nil {
		return nil, zgerr.Wrap(zgerr.KindBinsafeRead, "seek hash table", err)
	}

	tableSize, err := s.ReadU32()
	if err != nil {
		return nil, zgerr.Wrap(zgerr.KindBinsafeRead, "read hash table size", err)
	}
	r.hashTable = make([]hashTableEntry, tableSize)
	for i := uint32(0); i < tableSize; i++ {
		keyLen, err := s.ReadU16()
		if err != nil {
			return nil, zgerr.Wrap(zgerr.KindBinsafeRead, "read hash entry key length", err)
		}
		insertionIndex, err := s.ReadU16()
		if err != nil {
			return nil, zgerr.Wrap(zgerr.KindBinsafeRead, "read hash entry insertion index", err)
		}
		hashValue, err := s.ReadU32() // write-only masked hash, kept only for completeness
		if err != nil {
			return nil, zgerr.Wrap(zgerr.KindBinsafeRead, "read hash entry hash", err)
		}
		keyBytes, err := s.ReadBlock(int(keyLen))
		if err != nil {
			return nil, zgerr.Wrap(zgerr.KindBinsafeRead, "read hash entry key", err)
		}
		if int(insertionIndex) < len(r.hashTable) {
			r.hashTable[insertionIndex] = hashTableEntry{key: string(keyBytes), hash: hashValue}
		}
	}

	if _, err := s.Seek(int32(mark), stream.Begin); err != nil {
		return nil, zgerr.Wrap(zgerr.KindBinsafeRead, "restore cursor after hash table", err)
	}
	return r, nil
}

func (r *binsafeReader) ReadObjectBegin() (Object, bool) {
	mark := r.s.Tell()
	if r.s.Tell() >= r.s.Len() {
		return Object{}, false
	}
	tag, err := r.s.ReadU8()
	if err != nil || binsafeType(tag) != bsString {
		_, _ = r.s.Seek(int32(mark), stream.Begin)
		return Object{}, false
	}
	n, err := r.s.ReadU16()
	if err != nil {
		_, _ = r.s.Seek(int32(mark), stream.Begin)
		return Object{}, false
	}
	raw, err := r.s.ReadBlock(int(n))
	if err != nil || len(raw) <= 2 || raw[0] != '[' {
		_, _ = r.s.Seek(int32(mark), stream.Begin)
		return Object{}, false
	}

	fields := strings.FieldsFunc(string(raw[1:]), func(c rune) bool { return c == ' ' || c == ']' })
	if len(fields) < 4 {
		_, _ = r.s.Seek(int32(mark), stream.Begin)
		return Object{}, false
	}
	version, _ := strconv.Atoi(fields[2])
	index, _ := strconv.Atoi(fields[3])
	return Object{ObjectName: fields[0], ClassName: fields[1], Version: uint16(version), Index: uint32(index)}, true
}

func (r *binsafeReader) ReadObjectEnd() bool {
	if r.s.Tell() >= r.s.Len() {
		return true
	}
	mark := r.s.Tell()
	tag, err := r.s.ReadU8()
	if err != nil || binsafeType(tag) != bsString {
		_, _ = r.s.Seek(int32(mark), stream.Begin)
		return false
	}
	n, err := r.s.ReadU16()
	if err != nil || n != 2 {
		_, _ = r.s.Seek(int32(mark), stream.Begin)
		return false
	}
	raw, err := r.s.ReadBlock(2)
	if err != nil || string(raw) != "[]" {
		_, _ = r.s.Seek(int32(mark), stream.Begin)
		return false
	}
	return true
}

// entryKey reads the HASH-tagged key prefix that precedes every value entry
// and resolves it to its string key via the insertion-index table, per the
// BINSAFE quirk: this "hash" is really a table index, not a hash.
func (r *binsafeReader) entryKey() (string, error) {
	tag, err := r.s.ReadU8()
	if err != nil {
		return "", zgerr.Wrap(zgerr.KindBinsafeRead, "read entry key tag", err)
	}
	if binsafeType(tag) != bsHash {
		return "", zgerr.New(zgerr.KindBinsafeRead, "invalid entry format: missing hash key prefix")
	}
	index, err := r.s.ReadU32()
	if err != nil {
		return "", zgerr.Wrap(zgerr.KindBinsafeRead, "read entry key index", err)
	}
	if int(index) >= len(r.hashTable) {
		return "", zgerr.New(zgerr.KindBinsafeRead, "entry key index out of range")
	}
	return r.hashTable[index].key, nil
}

// ensureType consumes the HASH key prefix then the type tag, failing if
// the tag doesn't match what the caller expects.
func (r *binsafeReader) ensureType(expect binsafeType) error {
	if _, err := r.entryKey(); err != nil {
		return err
	}
	tag, err := r.s.ReadU8()
	if err != nil {
		return zgerr.Wrap(zgerr.KindBinsafeRead, "read entry type tag", err)
	}
	if binsafeType(tag) != expect {
		return zgerr.New(zgerr.KindBinsafeRead, "type mismatch in binsafe entry")
	}
	return nil
}

func (r *binsafeReader) ReadString() (string, error) {
	if err := r.ensureType(bsString); err != nil {
		return "", err
	}
	n, err := r.s.ReadU16()
	if err != nil {
		return "", wrapBinsafe(err)
	}
	v, err := r.s.ReadBlock(int(n))
	return string(v), wrapBinsafe(err)
}

func (r *binsafeReader) ReadInt() (int32, error) {
	if err := r.ensureType(bsInteger); err != nil {
		return 0, err
	}
	v, err := r.s.ReadI32()
	return v, wrapBinsafe(err)
}

func (r *binsafeReader) ReadFloat() (float32, error) {
	if err := r.ensureType(bsFloat); err != nil {
		return 0, err
	}
	v, err := r.s.ReadF32()
	return v, wrapBinsafe(err)
}

func (r *binsafeReader) ReadByte() (uint8, error) {
	if err := r.ensureType(bsByte); err != nil {
		return 0, err
	}
	v, err := r.s.ReadU8()
	return v, wrapBinsafe(err)
}

func (r *binsafeReader) ReadWord() (uint16, error) {
	if err := r.ensureType(bsWord); err != nil {
		return 0, err
	}
	v, err := r.s.ReadU16()
	return v, wrapBinsafe(err)
}

func (r *binsafeReader) ReadEnum() (uint32, error) {
	if err := r.ensureType(bsEnum); err != nil {
		return 0, err
	}
	v, err := r.s.ReadU32()
	return v, wrapBinsafe(err)
}

func (r *binsafeReader) ReadBool() (bool, error) {
	if err := r.ensureType(bsBool); err != nil {
		return false, err
	}
	v, err := r.s.ReadU32()
	return v != 0, wrapBinsafe(err)
}

// ReadColor reads BGRA off the wire and returns it as RGBA
func (r *binsafeReader) ReadColor() (stream.Color, error) {
	if err := r.ensureType(bsColor); err != nil {
		return stream.Color{}, err
	}
	raw, err := r.s.ReadBlock(4)
	if err != nil {
		return stream.Color{}, wrapBinsafe(err)
	}
	return stream.Color{R: raw[2], G: raw[1], B: raw[0], A: raw[3]}, nil
}

func (r *binsafeReader) ReadVec3() (stream.Vec3, error) {
	if err := r.ensureType(bsVec3); err != nil {
		return stream.Vec3{}, err
	}
	v, err := r.s.ReadVec3()
	return v, wrapBinsafe(err)
}

func (r *binsafeReader) ReadBBox() (stream.AABB, error) {
	floats, err := r.ReadRawFloat()
	if err != nil {
		return stream.AABB{}, err
	}
	if len(floats) < 6 {
		return stream.AABB{}, zgerr.New(zgerr.KindBinsafeRead, "rawFloat entry too short for a bounding box")
	}
	return stream.AABB{
		Min: stream.Vec3{X: floats[0], Y: floats[1], Z: floats[2]},
		Max: stream.Vec3{X: floats[3], Y: floats[4], Z: floats[5]},
	}, nil
}

func (r *binsafeReader) ReadMat3() (stream.Mat3, error) {
	raw, err := r.ReadRaw(9 * 4)
	if err != nil {
		return stream.Mat3{}, err
	}
	var m stream.Mat3
	for i := 0; i < 9; i++ {
		bits := uint32(raw[i*4]) | uint32(raw[i*4+1])<<8 | uint32(raw[i*4+2])<<16 | uint32(raw[i*4+3])<<24
		m[i%3][i/3] = float32frombits(bits)
	}
	return m, nil
}

func (r *binsafeReader) ReadRaw(size int) ([]byte, error) {
	if err := r.ensureType(bsRaw); err != nil {
		return nil, err
	}
	n, err := r.s.ReadU16()
	if err != nil {
		return nil, wrapBinsafe(err)
	}
	if int(n) < size {
		return nil, zgerr.New(zgerr.KindBinsafeRead, "not enough raw bytes to read")
	}
	raw, err := r.s.ReadBlock(int(n))
	if err != nil {
		return nil, wrapBinsafe(err)
	}
	if int(n) > size {
		log.Warnf("reading %d bytes although %d are actually available", size, n)
		raw = raw[:size]
	}
	return raw, nil
}

func (r *binsafeReader) ReadRawFloat() ([]float32, error) {
	if err := r.ensureType(bsRawFloat); err != nil {
		return nil, err
	}
	n, err := r.s.ReadU16()
	if err != nil {
		return nil, wrapBinsafe(err)
	}
	count := int(n) / 4
	out := make([]float32, count)
	for i := range out {
		out[i], err = r.s.ReadF32()
		if err != nil {
			return nil, wrapBinsafe(err)
		}
	}
	return out, nil
}

// SkipEntry consumes a HASH key prefix then the value itself, sized from
// the type tag alone, never the field name.
func (r *binsafeReader) SkipEntry() {
	if _, err := r.s.ReadU8(); err != nil { // hash tag
		return
	}
	if _, err := r.s.ReadU32(); err != nil { // key index
		return
	}
	tag, err := r.s.ReadU8()
	if err != nil {
		return
	}
	switch binsafeType(tag) {
	case bsString, bsRaw, bsRawFloat:
		if n, err := r.s.ReadU16(); err == nil {
			_, _ = r.s.Seek(int32(n), stream.Current)
		}
	case bsEnum, bsHash, bsInteger, bsFloat, bsBool, bsColor:
		_, _ = r.s.ReadU32()
	case bsByte:
		_, _ = r.s.ReadU8()
	case bsWord:
		_, _ = r.s.ReadU16()
	case bsVec3:
		_, _ = r.s.ReadU32()
		_, _ = r.s.ReadU32()
		_, _ = r.s.ReadU32()
	}
}

func (r *binsafeReader) SkipObject(includeCurrent bool) {
	skipObjectCommon(r, includeCurrent)
}

func (r *binsafeReader) ReadObject(version GameVersion) (Persistable, error) {
	return readObjectCommon(r, &r.base, version)
}

func wrapBinsafe(err error) error {
	if err == nil {
		return nil
	}
	return zgerr.Wrap(zgerr.KindBinsafeRead, "binsafe field", err)
}

// binsafeWriter implements the BINSAFE back-end. Field keys are interned in
// first-seen order; the key table is appended after the object body and
// the header's placeholder fields are patched on Close in a two-phase
// header write.
type binsafeWriter struct {
	s              stream.Stream
	h              Header
	index          uint32
	keyOrder       []string
	keyIndex       map[string]uint32
	objCountPos    uint32
	tableOffsetPos uint32
}

func (w *binsafeWriter) Header() Header { return w.h }

func newBinsafeWriter(s stream.Stream, h Header) (*binsafeWriter, error) {
	if err := saveHeader(s, h); err != nil {
		return nil, err
	}
	w := &binsafeWriter{s: s, h: h, keyIndex: map[string]uint32{}}

	if err := s.WriteU32(2); err != nil { // bs_version
		return nil, err
	}
	w.objCountPos = s.Tell()
	if err := s.WriteU32(0); err != nil { // object count placeholder
		return nil, err
	}
	w.tableOffsetPos = s.Tell()
	if err := s.WriteU32(0); err != nil { // hash table offset placeholder
		return nil, err
	}
	return w, nil
}

func (w *binsafeWriter) keyIndexFor(name string) uint32 {
	if idx, ok := w.keyIndex[name]; ok {
		return idx
	}
	idx := uint32(len(w.keyOrder))
	w.keyIndex[name] = idx
	w.keyOrder = append(w.keyOrder, name)
	return idx
}

func (w *binsafeWriter) writeEntryHeader(name string, typ binsafeType) error {
	if err := w.s.WriteU8(uint8(bsHash)); err != nil {
		return err
	}
	if err := w.s.WriteU32(w.keyIndexFor(name)); err != nil {
		return err
	}
	return w.s.WriteU8(uint8(typ))
}

func (w *binsafeWriter) WriteObjectBegin(objectName, className string, version uint16) uint32 {
	idx := w.index
	w.index++
	line := "[" + objectName + " " + className + " " + strconv.Itoa(int(version)) + " " + strconv.Itoa(int(idx)) + "]"
	_ = w.s.WriteU8(uint8(bsString))
	_ = w.s.WriteU16(uint16(len(line)))
	_ = w.s.WriteBlock([]byte(line))
	return idx
}

func (w *binsafeWriter) WriteObjectEnd() {
	_ = w.s.WriteU8(uint8(bsString))
	_ = w.s.WriteU16(2)
	_ = w.s.WriteBlock([]byte("[]"))
}

func (w *binsafeWriter) WriteRef(objectName string, index uint32) {
	line := "[" + objectName + " \xA7 0 " + strconv.Itoa(int(index)) + "]"
	_ = w.s.WriteU8(uint8(bsString))
	_ = w.s.WriteU16(uint16(len(line)))
	_ = w.s.WriteBlock([]byte(line))
	w.WriteObjectEnd()
}

func (w *binsafeWriter) WriteString(name, v string) error {
	if err := w.writeEntryHeader(name, bsString); err != nil {
		return err
	}
	if err := w.s.WriteU16(uint16(len(v))); err != nil {
		return err
	}
	return w.s.WriteBlock([]byte(v))
}

func (w *binsafeWriter) WriteInt(name string, v int32) error {
	if err := w.writeEntryHeader(name, bsInteger); err != nil {
		return err
	}
	return w.s.WriteI32(v)
}

func (w *binsafeWriter) WriteFloat(name string, v float32) error {
	if err := w.writeEntryHeader(name, bsFloat); err != nil {
		return err
	}
	return w.s.WriteF32(v)
}

func (w *binsafeWriter) WriteByte(name string, v uint8) error {
	if err := w.writeEntryHeader(name, bsByte); err != nil {
		return err
	}
	return w.s.WriteU8(v)
}

func (w *binsafeWriter) WriteWord(name string, v uint16) error {
	if err := w.writeEntryHeader(name, bsWord); err != nil {
		return err
	}
	return w.s.WriteU16(v)
}

func (w *binsafeWriter) WriteEnum(name string, v uint32) error {
	if err := w.writeEntryHeader(name, bsEnum); err != nil {
		return err
	}
	return w.s.WriteU32(v)
}

func (w *binsafeWriter) WriteBool(name string, v bool) error {
	if err := w.writeEntryHeader(name, bsBool); err != nil {
		return err
	}
	val := uint32(0)
	if v {
		val = 1
	}
	return w.s.WriteU32(val)
}

// WriteColor stores BGRA on the wire
func (w *binsafeWriter) WriteColor(name string, v stream.Color) error {
	if err := w.writeEntryHeader(name, bsColor); err != nil {
		return err
	}
	return w.s.WriteBlock([]byte{v.B, v.G, v.R, v.A})
}

func (w *binsafeWriter) WriteVec3(name string, v stream.Vec3) error {
	if err := w.writeEntryHeader(name, bsVec3); err != nil {
		return err
	}
	return w.s.WriteVec3(v)
}

func (w *binsafeWriter) WriteBBox(name string, v stream.AABB) error {
	return w.WriteRawFloat(name, []float32{v.Min.X, v.Min.Y, v.Min.Z, v.Max.X, v.Max.Y, v.Max.Z})
}

func (w *binsafeWriter) WriteMat3(name string, v stream.Mat3) error {
	buf := make([]byte, 0, 36)
	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			bits := float32tobits(v[row][col])
			buf = append(buf, byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24))
		}
	}
	return w.WriteRaw(name, buf)
}

func (w *binsafeWriter) WriteRaw(name string, v []byte) error {
	if err := w.writeEntryHeader(name, bsRaw); err != nil {
		return err
	}
	if err := w.s.WriteU16(uint16(len(v))); err != nil {
		return err
	}
	return w.s.WriteBlock(v)
}

func (w *binsafeWriter) WriteRawFloat(name string, v []float32) error {
	if err := w.writeEntryHeader(name, bsRawFloat); err != nil {
		return err
	}
	if err := w.s.WriteU16(uint16(len(v) * 4)); err != nil {
		return err
	}
	for _, f := range v {
		if err := w.s.WriteF32(f); err != nil {
			return err
		}
	}
	return nil
}

// maskedHash replicates the writer's decorative, never-read hash column:
// hash = hash*0x21 + c for each byte, masked to the low bits with 0x61.
func maskedHash(key string) uint32 {
	var h uint32
	for i := 0; i < len(key); i++ {
		h = h*0x21 + uint32(key[i])
	}
	return h & 0x61
}

// Close finalizes the archive: patches the object count and hash table
// offset placeholders, then appends the key table sorted by insertion
// index.
func (w *binsafeWriter) Close() error {
	tableOffset := w.s.Tell()

	if _, err := w.s.Seek(int32(w.objCountPos), stream.Begin); err != nil {
		return err
	}
	if err := w.s.WriteU32(w.index); err != nil {
		return err
	}
	if _, err := w.s.Seek(int32(w.tableOffsetPos), stream.Begin); err != nil {
		return err
	}
	if err := w.s.WriteU32(tableOffset); err != nil {
		return err
	}

	if _, err := w.s.Seek(int32(tableOffset), stream.Begin); err != nil {
		return err
	}
	if err := w.s.WriteU32(uint32(len(w.keyOrder))); err != nil {
		return err
	}
	for i, key := range w.keyOrder {
		if err := w.s.WriteU16(uint16(len(key))); err != nil {
			return err
		}
		if err := w.s.WriteU16(uint16(i)); err != nil {
			return err
		}
		if err := w.s.WriteU32(maskedHash(key)); err != nil {
			return err
		}
		if err := w.s.WriteBlock([]byte(key)); err != nil {
			return err
		}
	}
	return nil
}
