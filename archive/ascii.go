package archive

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gothicgo/zengin/stream"
	"github.com/gothicgo/zengin/zgerr"
)

// asciiReader implements Reader over the human-readable back-end.
type asciiReader struct {
	base
	s stream.Stream
}

// newASCIIReader consumes the "objects N" / "END" preamble that follows the
// shared header, then returns a ready Reader.
func newASCIIReader(s stream.Stream, h Header) (*asciiReader, error) {
	r := &asciiReader{base: newBase(h), s: s}

	line, err := s.ReadLine(true)
	if err != nil {
		return nil, zgerr.Wrap(zgerr.KindAsciiRead, "read objects count", err)
	}
	if !strings.HasPrefix(line, "objects ") {
		return nil, zgerr.New(zgerr.KindAsciiRead, "objects field missing")
	}
	if _, err := strconv.Atoi(strings.TrimPrefix(line, "objects ")); err != nil {
		return nil, zgerr.Wrap(zgerr.KindAsciiRead, "parse objects count", err)
	}
	if end, err := s.ReadLine(true); err != nil || end != "END" {
		return nil, zgerr.New(zgerr.KindAsciiRead, "second END missing")
	}
	return r, nil
}

func (r *asciiReader) ReadObjectBegin() (Object, bool) {
	mark := r.s.Tell()
	line, err := r.s.ReadLine(true)
	if err != nil || len(line) <= 2 {
		_, _ = r.s.Seek(int32(mark), stream.Begin)
		return Object{}, false
	}

	if !strings.HasPrefix(line, "[") || !strings.HasSuffix(line, "]") {
		_, _ = r.s.Seek(int32(mark), stream.Begin)
		return Object{}, false
	}
	fields := strings.Fields(line[1 : len(line)-1])
	if len(fields) != 4 {
		_, _ = r.s.Seek(int32(mark), stream.Begin)
		return Object{}, false
	}
	version, verErr := strconv.ParseUint(fields[2], 10, 16)
	index, idxErr := strconv.ParseUint(fields[3], 10, 32)
	if verErr != nil || idxErr != nil {
		_, _ = r.s.Seek(int32(mark), stream.Begin)
		return Object{}, false
	}

	return Object{ObjectName: fields[0], ClassName: fields[1], Version: uint16(version), Index: uint32(index)}, true
}

func (r *asciiReader) ReadObjectEnd() bool {
	mark := r.s.Tell()
	line, err := r.s.ReadLine(true)
	if err != nil {
		return false
	}
	if strings.TrimSpace(line) != "[]" {
		_, _ = r.s.Seek(int32(mark), stream.Begin)
		return false
	}
	return true
}

// entry reads a "name=type:value" line and validates the expected type
// tag.
func (r *asciiReader) entry(expect string) (string, error) {
	line, err := r.s.ReadLine(true)
	if err != nil {
		return "", zgerr.Wrap(zgerr.KindAsciiRead, "read entry", err)
	}
	eq := strings.IndexByte(line, '=')
	if eq < 0 {
		return "", zgerr.New(zgerr.KindAsciiRead, "entry missing '='")
	}
	rest := line[eq+1:]
	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		return "", zgerr.New(zgerr.KindAsciiRead, "entry missing ':'")
	}
	got := rest[:colon]
	if got != expect && !(expect == "int" && (got == "byte" || got == "word")) {
		return "", zgerr.New(zgerr.KindAsciiRead, "type mismatch: expected "+expect+", got "+got)
	}
	return rest[colon+1:], nil
}

func (r *asciiReader) ReadString() (string, error) { return r.entry("string") }

func (r *asciiReader) ReadInt() (int32, error) {
	v, err := r.entry("int")
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 32)
	if err != nil {
		return 0, zgerr.Wrap(zgerr.KindAsciiRead, "parse int", err)
	}
	return int32(n), nil
}

func (r *asciiReader) ReadFloat() (float32, error) {
	v, err := r.entry("float")
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 32)
	if err != nil {
		return 0, zgerr.Wrap(zgerr.KindAsciiRead, "parse float", err)
	}
	return float32(f), nil
}

func (r *asciiReader) ReadByte() (uint8, error) {
	v, err := r.ReadInt()
	return uint8(v), err
}

func (r *asciiReader) ReadWord() (uint16, error) {
	v, err := r.ReadInt()
	return uint16(v), err
}

func (r *asciiReader) ReadEnum() (uint32, error) {
	v, err := r.entry("enum")
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32)
	if err != nil {
		return 0, zgerr.Wrap(zgerr.KindAsciiRead, "parse enum", err)
	}
	return uint32(n), nil
}

func (r *asciiReader) ReadBool() (bool, error) {
	v, err := r.entry("bool")
	if err != nil {
		return false, err
	}
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32)
	if err != nil {
		return false, zgerr.Wrap(zgerr.KindAsciiRead, "parse bool", err)
	}
	return n != 0, nil
}

func (r *asciiReader) ReadColor() (stream.Color, error) {
	v, err := r.entry("color")
	if err != nil {
		return stream.Color{}, err
	}
	var cr, cg, cb, ca uint16
	if _, err := fmt.Sscanf(v, "%d %d %d %d", &cr, &cg, &cb, &ca); err != nil {
		return stream.Color{}, zgerr.Wrap(zgerr.KindAsciiRead, "parse color", err)
	}
	return stream.Color{R: uint8(cr), G: uint8(cg), B: uint8(cb), A: uint8(ca)}, nil
}

func (r *asciiReader) ReadVec3() (stream.Vec3, error) {
	v, err := r.entry("vec3")
	if err != nil {
		return stream.Vec3{}, err
	}
	var x, y, z float32
	if _, err := fmt.Sscanf(v, "%g %g %g", &x, &y, &z); err != nil {
		return stream.Vec3{}, zgerr.Wrap(zgerr.KindAsciiRead, "parse vec3", err)
	}
	return stream.Vec3{X: x, Y: y, Z: z}, nil
}

func (r *asciiReader) ReadBBox() (stream.AABB, error) {
	floats, err := r.ReadRawFloat()
	if err != nil {
		return stream.AABB{}, err
	}
	if len(floats) < 6 {
		return stream.AABB{}, zgerr.New(zgerr.KindAsciiRead, "rawFloat entry too short for a bounding box")
	}
	return stream.AABB{
		Min: stream.Vec3{X: floats[0], Y: floats[1], Z: floats[2]},
		Max: stream.Vec3{X: floats[3], Y: floats[4], Z: floats[5]},
	}, nil
}

// ReadMat3 decodes 36 hex bytes (9 column-major floats) and transposes
// back to row-major.
func (r *asciiReader) ReadMat3() (stream.Mat3, error) {
	var m stream.Mat3
	raw, err := r.rawBytes(9 * 4)
	if err != nil {
		return m, err
	}
	for i := 0; i < 9; i++ {
		bits := uint32(raw[i*4]) | uint32(raw[i*4+1])<<8 | uint32(raw[i*4+2])<<16 | uint32(raw[i*4+3])<<24
		m[i%3][i/3] = math.Float32frombits(bits)
	}
	return m, nil
}

func (r *asciiReader) ReadRaw(size int) ([]byte, error) {
	raw, err := r.rawBytes(size)
	if err != nil {
		return nil, err
	}
	if len(raw) > size {
		log.Warnf("reading %d bytes although %d are actually available", size, len(raw))
		raw = raw[:size]
	}
	return raw, nil
}

func (r *asciiReader) rawBytes(minSize int) ([]byte, error) {
	v, err := r.entry("raw")
	if err != nil {
		return nil, err
	}
	decoded, err := hex.DecodeString(v)
	if err != nil {
		return nil, zgerr.Wrap(zgerr.KindAsciiRead, "decode raw hex", err)
	}
	if len(decoded) < minSize {
		return nil, zgerr.New(zgerr.KindAsciiRead, "not enough raw bytes to read")
	}
	return decoded, nil
}

func (r *asciiReader) ReadRawFloat() ([]float32, error) {
	v, err := r.entry("rawFloat")
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(v)
	out := make([]float32, 0, len(fields))
	for _, f := range fields {
		val, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, zgerr.Wrap(zgerr.KindAsciiRead, "parse rawFloat element", err)
		}
		out = append(out, float32(val))
	}
	return out, nil
}

func (r *asciiReader) SkipEntry() {
	_, _ = r.s.ReadLine(true)
}

func (r *asciiReader) SkipObject(includeCurrent bool) {
	skipObjectCommon(r, includeCurrent)
}

func (r *asciiReader) ReadObject(version GameVersion) (Persistable, error) {
	return readObjectCommon(r, &r.base, version)
}

// asciiWriter implements Writer over the human-readable back-end, emitting
// tab indentation proportional to object nesting
type asciiWriter struct {
	s      stream.Stream
	h      Header
	index  uint32
	indent int
}

func (w *asciiWriter) Header() Header { return w.h }

func newASCIIWriter(s stream.Stream, h Header, objectCount int) (*asciiWriter, error) {
	if err := saveHeader(s, h); err != nil {
		return nil, err
	}
	if err := s.WriteLine(fmt.Sprintf("objects %d", objectCount)); err != nil {
		return nil, err
	}
	if err := s.WriteLine("END"); err != nil {
		return nil, err
	}
	return &asciiWriter{s: s, h: h, index: 1}, nil
}

func (w *asciiWriter) writeIndent() {
	for i := 0; i < w.indent; i++ {
		_ = w.s.WriteBlock([]byte{'\t'})
	}
}

func (w *asciiWriter) WriteObjectBegin(objectName, className string, version uint16) uint32 {
	w.writeIndent()
	empty := className == "" || className == emptyClassName
	name := className
	if empty {
		name = emptyClassName
	}
	idx := uint32(0)
	if !empty {
		idx = w.index
	}
	_ = w.s.WriteLine(fmt.Sprintf("[%s %s %d %d]", objectName, name, version, idx))
	w.indent++
	if !empty {
		w.index++
	}
	return idx
}

func (w *asciiWriter) WriteObjectEnd() {
	w.indent--
	w.writeIndent()
	_ = w.s.WriteLine("[]")
}

func (w *asciiWriter) WriteRef(objectName string, index uint32) {
	w.writeIndent()
	_ = w.s.WriteLine(fmt.Sprintf("[%s \xA7 0 %d]", objectName, index))
	w.writeIndent()
	_ = w.s.WriteLine("[]")
}

func (w *asciiWriter) writeEntry(name, typ, value string) error {
	w.writeIndent()
	return w.s.WriteLine(name + "=" + typ + ":" + value)
}

func (w *asciiWriter) WriteString(name, v string) error { return w.writeEntry(name, "string", v) }

func (w *asciiWriter) WriteInt(name string, v int32) error {
	return w.writeEntry(name, "int", strconv.Itoa(int(v)))
}

func (w *asciiWriter) WriteFloat(name string, v float32) error {
	return w.writeEntry(name, "float", strconv.FormatFloat(float64(v), 'f', -1, 32))
}

func (w *asciiWriter) WriteByte(name string, v uint8) error {
	return w.writeEntry(name, "byte", strconv.Itoa(int(v)))
}

func (w *asciiWriter) WriteWord(name string, v uint16) error {
	return w.writeEntry(name, "word", strconv.Itoa(int(v)))
}

func (w *asciiWriter) WriteEnum(name string, v uint32) error {
	return w.writeEntry(name, "enum", strconv.FormatUint(uint64(v), 10))
}

func (w *asciiWriter) WriteBool(name string, v bool) error {
	val := "0"
	if v {
		val = "1"
	}
	return w.writeEntry(name, "bool", val)
}

func (w *asciiWriter) WriteColor(name string, v stream.Color) error {
	return w.writeEntry(name, "color", fmt.Sprintf("%d %d %d %d", v.R, v.G, v.B, v.A))
}

func (w *asciiWriter) WriteVec3(name string, v stream.Vec3) error {
	return w.writeEntry(name, "vec3", fmt.Sprintf("%f %f %f", v.X, v.Y, v.Z))
}

func (w *asciiWriter) WriteBBox(name string, v stream.AABB) error {
	return w.WriteRawFloat(name, []float32{v.Min.X, v.Min.Y, v.Min.Z, v.Max.X, v.Max.Y, v.Max.Z})
}

// WriteMat3 transposes to column-major before hex-encoding.
func (w *asciiWriter) WriteMat3(name string, v stream.Mat3) error {
	buf := make([]byte, 0, 36)
	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			bits := math.Float32bits(v[row][col])
			buf = append(buf, byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24))
		}
	}
	return w.WriteRaw(name, buf)
}

func (w *asciiWriter) WriteRaw(name string, v []byte) error {
	w.writeIndent()
	if err := w.s.WriteBlock([]byte(name + "=raw:")); err != nil {
		return err
	}
	if err := w.s.WriteBlock([]byte(hex.EncodeToString(v))); err != nil {
		return err
	}
	return w.s.WriteBlock([]byte{'\n'})
}

func (w *asciiWriter) WriteRawFloat(name string, v []float32) error {
	w.writeIndent()
	if err := w.s.WriteBlock([]byte(name + "=rawFloat:")); err != nil {
		return err
	}
	var b strings.Builder
	for _, f := range v {
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
		b.WriteByte(' ')
	}
	if err := w.s.WriteBlock([]byte(b.String())); err != nil {
		return err
	}
	return w.s.WriteBlock([]byte{'\n'})
}

func (w *asciiWriter) Close() error { return nil }
