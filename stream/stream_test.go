package stream_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gothicgo/zengin/stream"
)

func TestMemoryStream_ScalarRoundTrip(t *testing.T) {
	s := stream.OpenMemory(nil)

	require.NoError(t, s.WriteU8(0x7F))
	require.NoError(t, s.WriteU16(0xBEEF))
	require.NoError(t, s.WriteU32(0xDEADBEEF))
	require.NoError(t, s.WriteI32(-42))
	require.NoError(t, s.WriteF32(3.5))

	_, err := s.Seek(0, stream.Begin)
	require.NoError(t, err)

	u8, err := s.ReadU8()
	require.NoError(t, err)
	require.EqualValues(t, 0x7F, u8)

	u16, err := s.ReadU16()
	require.NoError(t, err)
	require.EqualValues(t, 0xBEEF, u16)

	u32, err := s.ReadU32()
	require.NoError(t, err)
	require.EqualValues(t, 0xDEADBEEF, u32)

	i32, err := s.ReadI32()
	require.NoError(t, err)
	require.EqualValues(t, -42, i32)

	f32, err := s.ReadF32()
	require.NoError(t, err)
	require.InDelta(t, 3.5, f32, 1e-6)
}

func TestMemoryStream_StringsAndLines(t *testing.T) {
	s := stream.OpenMemory(nil)
	require.NoError(t, s.WriteCString("hello"))
	require.NoError(t, s.WriteLine("  padded line  "))

	_, err := s.Seek(0, stream.Begin)
	require.NoError(t, err)

	str, err := s.ReadCString()
	require.NoError(t, err)
	require.Equal(t, "hello", str)

	line, err := s.ReadLine(true)
	require.NoError(t, err)
	require.Equal(t, "padded line", line)
}

func TestMemoryStream_VectorsAndColor(t *testing.T) {
	s := stream.OpenMemory(nil)
	v := stream.Vec3{X: 1, Y: 2, Z: 3}
	c := stream.Color{R: 1, G: 2, B: 3, A: 4}
	box := stream.AABB{Min: stream.Vec3{X: -1, Y: -1, Z: -1}, Max: stream.Vec3{X: 1, Y: 1, Z: 1}}

	require.NoError(t, s.WriteVec3(v))
	require.NoError(t, s.WriteColor(c))
	require.NoError(t, s.WriteAABB(box))

	_, err := s.Seek(0, stream.Begin)
	require.NoError(t, err)

	gotV, err := s.ReadVec3()
	require.NoError(t, err)
	require.Equal(t, v, gotV)

	gotC, err := s.ReadColor()
	require.NoError(t, err)
	require.Equal(t, c, gotC)

	gotBox, err := s.ReadAABB()
	require.NoError(t, err)
	require.Equal(t, box, gotBox)
}

func TestMemoryStream_SeekOrigins(t *testing.T) {
	s := stream.OpenMemory([]byte{0, 1, 2, 3, 4, 5, 6, 7})

	pos, err := s.Seek(4, stream.Begin)
	require.NoError(t, err)
	require.EqualValues(t, 4, pos)

	pos, err = s.Seek(-2, stream.Current)
	require.NoError(t, err)
	require.EqualValues(t, 2, pos)

	pos, err = s.Seek(-1, stream.End)
	require.NoError(t, err)
	require.EqualValues(t, 7, pos)

	_, err = s.Seek(100, stream.Begin)
	require.Error(t, err)
}

func TestMemoryStream_ReadPastEndFails(t *testing.T) {
	s := stream.OpenMemory([]byte{1, 2})
	_, err := s.ReadU32()
	require.Error(t, err)
}
