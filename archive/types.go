package archive

import "github.com/gothicgo/zengin/stream"

// GameVersion selects which Gothic release's encoded field set a class uses.
type GameVersion int

const (
	Gothic1 GameVersion = iota
	Gothic2
)

// Object is the metadata prefix of a serialized object
// "ArchiveObject". The special ClassName values "§" (back reference) and "%"
// (absent) are handled by the Reader/Writer, never surfaced to callers.
type Object struct {
	ObjectName string
	ClassName  string
	Version    uint16
	Index      uint32
}

// refClassName and emptyClassName are the two sentinel class names the wire
// format reserves.
const (
	refClassName   = "\xA7" // "§"
	emptyClassName = "%"
)

// EntryType tags the wire type of a single archive field
type EntryType int

const (
	EntryString EntryType = iota
	EntryInt
	EntryFloat
	EntryByte
	EntryWord
	EntryEnum
	EntryBool
	EntryColor
	EntryVec3
	EntryRawFloat
	EntryRaw
	EntryHash
)

// Persistable is implemented by every value serialized through the archive
// subsystem: VOb nodes, visuals, and auxiliary records such as talents or
// camera keyframes.
type Persistable interface {
	Load(r Reader, version GameVersion) error
	Save(w Writer, version GameVersion) error
}

// Reader is the object-level read protocol shared by all three back-ends.
type Reader interface {
	Header() Header

	ReadObjectBegin() (Object, bool)
	ReadObjectEnd() bool

	ReadString() (string, error)
	ReadInt() (int32, error)
	ReadFloat() (float32, error)
	ReadByte() (uint8, error)
	ReadWord() (uint16, error)
	ReadEnum() (uint32, error)
	ReadBool() (bool, error)
	ReadColor() (stream.Color, error)
	ReadVec3() (stream.Vec3, error)
	ReadBBox() (stream.AABB, error)
	ReadMat3() (stream.Mat3, error)
	ReadRaw(size int) ([]byte, error)
	ReadRawFloat() ([]float32, error)

	SkipEntry()
	SkipObject(includeCurrent bool)

	// ReadObject constructs and loads the next object via the registry,
	// handling back references ("§") and empty markers ("%").
	ReadObject(version GameVersion) (Persistable, error)
}

// Writer is the object-level write protocol shared by all three back-ends.
type Writer interface {
	Header() Header

	WriteObjectBegin(objectName, className string, version uint16) uint32
	WriteObjectEnd()
	WriteRef(objectName string, index uint32)

	WriteString(name, v string) error
	WriteInt(name string, v int32) error
	WriteFloat(name string, v float32) error
	WriteByte(name string, v uint8) error
	WriteWord(name string, v uint16) error
	WriteEnum(name string, v uint32) error
	WriteBool(name string, v bool) error
	WriteColor(name string, v stream.Color) error
	WriteVec3(name string, v stream.Vec3) error
	WriteBBox(name string, v stream.AABB) error
	WriteMat3(name string, v stream.Mat3) error
	WriteRaw(name string, v []byte) error
	WriteRawFloat(name string, v []float32) error

	Close() error
}
