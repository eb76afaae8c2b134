package archive_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gothicgo/zengin/archive"
	"github.com/gothicgo/zengin/stream"
)

// widget is a minimal Persistable fixture used only to drive the archive
// package's own round-trip tests, independent of any real game class.
type widget struct {
	Name  string
	Value int32
}

func (w *widget) Load(r archive.Reader, _ archive.GameVersion) error {
	var err error
	if w.Name, err = r.ReadString(); err != nil {
		return err
	}
	w.Value, err = r.ReadInt()
	return err
}

func (w *widget) Save(wr archive.Writer, _ archive.GameVersion) error {
	if err := wr.WriteString("name", w.Name); err != nil {
		return err
	}
	return wr.WriteInt("value", w.Value)
}

// counter is a fixture with a single field, used to keep the BINSAFE
// hash-table round trip down to exactly one key.
type counter struct {
	Value int32
}

func (c *counter) Load(r archive.Reader, _ archive.GameVersion) error {
	var err error
	c.Value, err = r.ReadInt()
	return err
}

func (c *counter) Save(w archive.Writer, _ archive.GameVersion) error {
	return w.WriteInt("value", c.Value)
}

func init() {
	archive.Register("zTestWidget", func() archive.Persistable { return &widget{} }, 0, 0)
	archive.Register("zTestCounter", func() archive.Persistable { return &counter{} }, 0, 0)
}

func TestASCIIRoundTrip(t *testing.T) {
	s := stream.OpenMemory(nil)
	h := archive.Header{Archiver: "zCArchiverGeneric"}
	w, err := archive.Create(s, archive.FormatASCII, h, 1)
	require.NoError(t, err)

	orig := &widget{Name: "sword", Value: 42}
	require.NoError(t, archive.WriteObject(w, "myWidget", "zTestWidget", archive.Gothic2, orig))
	require.NoError(t, w.Close())

	_, err = s.Seek(0, stream.Begin)
	require.NoError(t, err)

	r, err := archive.Open(s)
	require.NoError(t, err)
	require.Equal(t, archive.FormatASCII, r.Header().Format)

	got, err := r.ReadObject(archive.Gothic2)
	require.NoError(t, err)

	gotWidget, ok := got.(*widget)
	require.True(t, ok)
	require.Equal(t, orig, gotWidget)
}

// TestBinsafeRoundTrip_SingleInteger writes one object with a single INTEGER
// field through the BINSAFE back-end, inspects the on-disk key table
// directly to confirm it carries exactly the one expected key, then reads
// the object back through the public Reader API.
func TestBinsafeRoundTrip_SingleInteger(t *testing.T) {
	s := stream.OpenMemory(nil)
	h := archive.Header{Archiver: "zCArchiverGeneric"}
	w, err := archive.Create(s, archive.FormatBinsafe, h, 0)
	require.NoError(t, err)

	orig := &counter{Value: 7}
	require.NoError(t, archive.WriteObject(w, "hitCounter", "zTestCounter", archive.Gothic2, orig))
	require.NoError(t, w.Close())

	_, err = s.Seek(0, stream.Begin)
	require.NoError(t, err)

	for i := 0; i < 6; i++ { // marker, ver, archiver, format, saveGame, END
		_, err := s.ReadLine(true)
		require.NoError(t, err)
	}

	bsVersion, err := s.ReadU32()
	require.NoError(t, err)
	require.EqualValues(t, 2, bsVersion)

	objCount, err := s.ReadU32()
	require.NoError(t, err)
	require.EqualValues(t, 1, objCount)

	tableOffset, err := s.ReadU32()
	require.NoError(t, err)

	_, err = s.Seek(int32(tableOffset), stream.Begin)
	require.NoError(t, err)

	tableSize, err := s.ReadU32()
	require.NoError(t, err)
	require.EqualValues(t, 1, tableSize)

	keyLen, err := s.ReadU16()
	require.NoError(t, err)
	_, err = s.ReadU16() // insertion index
	require.NoError(t, err)
	_, err = s.ReadU32() // masked hash, write-only
	require.NoError(t, err)
	keyBytes, err := s.ReadBlock(int(keyLen))
	require.NoError(t, err)
	require.Equal(t, "value", string(keyBytes))

	_, err = s.Seek(0, stream.Begin)
	require.NoError(t, err)

	r, err := archive.Open(s)
	require.NoError(t, err)
	require.Equal(t, archive.FormatBinsafe, r.Header().Format)

	got, err := r.ReadObject(archive.Gothic2)
	require.NoError(t, err)

	gotCounter, ok := got.(*counter)
	require.True(t, ok)
	require.Equal(t, orig, gotCounter)
}

// TestBackReferenceResolution writes an object followed by a reference to
// it, then confirms ReadObject resolves the reference to the very same
// cached instance instead of constructing a second copy.
func TestBackReferenceResolution(t *testing.T) {
	s := stream.OpenMemory(nil)
	h := archive.Header{Archiver: "zCArchiverGeneric"}
	w, err := archive.Create(s, archive.FormatASCII, h, 2)
	require.NoError(t, err)

	orig := &widget{Name: "torch", Value: 1}
	idx := w.WriteObjectBegin("original", "zTestWidget", 0)
	require.NoError(t, orig.Save(w, archive.Gothic2))
	w.WriteObjectEnd()

	w.WriteRef("originalRef", idx)
	require.NoError(t, w.Close())

	_, err = s.Seek(0, stream.Begin)
	require.NoError(t, err)

	r, err := archive.Open(s)
	require.NoError(t, err)

	first, err := r.ReadObject(archive.Gothic2)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := r.ReadObject(archive.Gothic2)
	require.NoError(t, err)
	require.Same(t, first, second)
}

// TestOpen_UnregisteredClassIsSkippedNotFatal writes an object under a class
// name the registry never saw, followed by a normal widget, and confirms the
// unknown object is skipped without aborting the read of what follows it.
func TestOpen_UnregisteredClassIsSkippedNotFatal(t *testing.T) {
	s := stream.OpenMemory(nil)
	h := archive.Header{Archiver: "zCArchiverGeneric"}
	w, err := archive.Create(s, archive.FormatASCII, h, 2)
	require.NoError(t, err)

	unknown := &widget{Name: "x"}
	w.WriteObjectBegin("unknown", "zTestNeverRegistered", 0)
	require.NoError(t, unknown.Save(w, archive.Gothic2))
	w.WriteObjectEnd()

	trailing := &widget{Name: "survivor", Value: 99}
	require.NoError(t, archive.WriteObject(w, "survivor", "zTestWidget", archive.Gothic2, trailing))
	require.NoError(t, w.Close())

	_, err = s.Seek(0, stream.Begin)
	require.NoError(t, err)
	r, err := archive.Open(s)
	require.NoError(t, err)

	skipped, err := r.ReadObject(archive.Gothic2)
	require.NoError(t, err)
	require.Nil(t, skipped)

	survived, err := r.ReadObject(archive.Gothic2)
	require.NoError(t, err)
	survivedWidget, ok := survived.(*widget)
	require.True(t, ok)
	require.Equal(t, trailing, survivedWidget)
}
