package vfs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gothicgo/zengin/vfs"
)

func writeHostFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644))
}

// TestVfs_MountHostAndResolveCaseInsensitive mounts a real host directory
// and confirms a path can be resolved regardless of how its case differs
// from the name on disk.
func TestVfs_MountHostAndResolveCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "Textures"), 0o755))
	writeHostFile(t, filepath.Join(dir, "Textures"), "STONE.TGA", "pretend-texture-bytes")

	v := vfs.New()
	require.NoError(t, v.MountHost(dir, "/", vfs.OverwriteAll))

	node := v.Resolve("textures/stone.tga")
	require.NotNil(t, node)
	require.True(t, node.IsFile())

	s, err := node.Open()
	require.NoError(t, err)
	defer s.Close()

	data, err := s.ReadBlock(int(s.Len()))
	require.NoError(t, err)
	require.Equal(t, "pretend-texture-bytes", string(data))
}

// TestVfs_FindSearchesWholeTreeByBareName confirms Find locates a node by
// name alone, regardless of where it sits in the hierarchy.
func TestVfs_FindSearchesWholeTreeByBareName(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "Meshes", "Weapons")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	writeHostFile(t, nested, "Sword.MRM", "mesh-bytes")

	v := vfs.New()
	require.NoError(t, v.MountHost(dir, "/", vfs.OverwriteAll))

	found := v.Find("sword.mrm")
	require.NotNil(t, found)
	require.True(t, found.IsFile())
}

func TestVfs_ResolveMissingPathReturnsNil(t *testing.T) {
	v := vfs.New()
	require.Nil(t, v.Resolve("does/not/exist"))
}

// TestVfs_MountOverwritePolicyNone confirms OverwriteNone keeps the
// existing node when a mount would otherwise replace it.
func TestVfs_MountOverwritePolicyNone(t *testing.T) {
	firstDir := t.TempDir()
	writeHostFile(t, firstDir, "config.cfg", "first")
	secondDir := t.TempDir()
	writeHostFile(t, secondDir, "config.cfg", "second")

	v := vfs.New()
	require.NoError(t, v.MountHost(firstDir, "/", vfs.OverwriteAll))
	require.NoError(t, v.MountHost(secondDir, "/", vfs.OverwriteNone))

	node := v.Resolve("config.cfg")
	require.NotNil(t, node)
	s, err := node.Open()
	require.NoError(t, err)
	defer s.Close()
	data, err := s.ReadBlock(int(s.Len()))
	require.NoError(t, err)
	require.Equal(t, "first", string(data))
}

func TestVfs_MkdirCreatesMissingIntermediateDirectories(t *testing.T) {
	v := vfs.New()
	leaf, err := v.Mkdir("saves/slot01")
	require.NoError(t, err)
	require.True(t, leaf.IsDirectory())
	require.Equal(t, "slot01", leaf.Name())
	require.NotNil(t, v.Resolve("saves/slot01"))
}

func TestVfs_RemoveDeletesNamedNode(t *testing.T) {
	v := vfs.New()
	_, err := v.Mkdir("saves/slot01")
	require.NoError(t, err)
	require.True(t, v.Remove("saves/slot01"))
	require.Nil(t, v.Resolve("saves/slot01"))
	require.False(t, v.Remove("saves/slot01"))
}
