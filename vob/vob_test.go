package vob_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gothicgo/zengin/archive"
	"github.com/gothicgo/zengin/stream"
	"github.com/gothicgo/zengin/vob"
)

func openASCIIArchive(t *testing.T, objectCount int) (archive.Writer, stream.Stream) {
	t.Helper()
	s := stream.OpenMemory(nil)
	w, err := archive.Create(s, archive.FormatASCII, archive.Header{Archiver: "zCArchiverGeneric"}, objectCount)
	require.NoError(t, err)
	return w, s
}

func reopenForReading(t *testing.T, s stream.Stream) archive.Reader {
	t.Helper()
	_, err := s.Seek(0, stream.Begin)
	require.NoError(t, err)
	r, err := archive.Open(s)
	require.NoError(t, err)
	return r
}

func TestTriggerUntouch_ASCIIRoundTrip(t *testing.T) {
	w, s := openASCIIArchive(t, 1)

	orig := &vob.TriggerUntouch{}
	orig.VobName = "TRIGGER_UNTOUCH_01"
	orig.Target = "EVT_ROOM_EXIT"

	require.NoError(t, archive.WriteObject(w, "untouchTrigger", orig.ClassName(), archive.Gothic2, orig))
	require.NoError(t, w.Close())

	r := reopenForReading(t, s)
	got, err := r.ReadObject(archive.Gothic2)
	require.NoError(t, err)

	trig, ok := got.(*vob.TriggerUntouch)
	require.True(t, ok)
	require.Equal(t, orig.Target, trig.Target)
	require.Equal(t, orig.VobName, trig.VobName)
	require.Equal(t, orig.Position, trig.Position)
}

func TestLight_StaticASCIIRoundTrip(t *testing.T) {
	w, s := openASCIIArchive(t, 1)

	orig := &vob.Light{}
	orig.VobName = "LIGHT_TORCH_01"
	orig.Preset = "TORCH_PRESET"
	orig.Type = vob.LightPoint
	orig.Range = 800
	orig.Color = stream.Color{R: 255, G: 200, B: 120, A: 255}
	orig.IsStatic = true
	orig.Quality = vob.LightQualityMedium

	require.NoError(t, archive.WriteObject(w, "lightSource", orig.ClassName(), archive.Gothic2, orig))
	require.NoError(t, w.Close())

	r := reopenForReading(t, s)
	got, err := r.ReadObject(archive.Gothic2)
	require.NoError(t, err)

	light, ok := got.(*vob.Light)
	require.True(t, ok)
	require.Equal(t, orig.Preset, light.Preset)
	require.Equal(t, orig.Type, light.Type)
	require.InDelta(t, orig.Range, light.Range, 0.0001)
	require.Equal(t, orig.Color, light.Color)
	require.True(t, light.IsStatic)
	require.Equal(t, orig.Quality, light.Quality)
	// Dynamic-only fields never get written when IsStatic is true.
	require.False(t, light.On)
	require.Empty(t, light.RangeAnimationScale)
}

// TestVirtualObject_ChildrenRoundTrip confirms a parent VOb's child list
// survives a full save/load cycle via the shared childs0-count encoding.
func TestVirtualObject_ChildrenRoundTrip(t *testing.T) {
	w, s := openASCIIArchive(t, 2)

	child := &vob.TriggerUntouch{}
	child.VobName = "CHILD_TRIGGER"
	child.Target = "EVT_CHILD"

	parent := &vob.TriggerUntouch{}
	parent.VobName = "PARENT_TRIGGER"
	parent.Target = "EVT_PARENT"
	parent.Children = append(parent.Children, child)

	require.NoError(t, archive.WriteObject(w, "parentTrigger", parent.ClassName(), archive.Gothic2, parent))
	require.NoError(t, w.Close())

	r := reopenForReading(t, s)
	got, err := r.ReadObject(archive.Gothic2)
	require.NoError(t, err)

	gotParent, ok := got.(*vob.TriggerUntouch)
	require.True(t, ok)
	require.Equal(t, "PARENT_TRIGGER", gotParent.VobName)
	require.Len(t, gotParent.Children, 1)

	gotChild, ok := gotParent.Children[0].(*vob.TriggerUntouch)
	require.True(t, ok)
	require.Equal(t, "CHILD_TRIGGER", gotChild.VobName)
	require.Equal(t, "EVT_CHILD", gotChild.Target)
}
