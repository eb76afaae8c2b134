package vfs

import (
	"os"

	"github.com/gothicgo/zengin/stream"
	"github.com/gothicgo/zengin/zgerr"
)

// physicalFile opens a byte range of a file on disk on demand.
type physicalFile struct {
	path   string
	offset int64
	size   int64
}

func (f *physicalFile) Open() (stream.Stream, error) {
	s, err := stream.OpenFile(f.path, false)
	if err != nil {
		return nil, err
	}
	if f.size < 0 {
		return s, nil
	}
	if _, err := s.Seek(int32(f.offset), stream.Begin); err != nil {
		_ = s.Close()
		return nil, err
	}
	data, err := s.ReadBlock(int(f.size))
	_ = s.Close()
	if err != nil {
		return nil, err
	}
	return stream.OpenMemory(data), nil
}

// mappedFile opens a byte range of an already memory-mapped container.
type mappedFile struct {
	data []byte
}

func (f *mappedFile) Open() (stream.Stream, error) {
	return stream.OpenMemory(f.data), nil
}

// readAllBytes loads a whole file into memory.
func readAllBytes(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: caller-provided path is intentional for a VFS mount
	if err != nil {
		return nil, zgerr.Wrap(zgerr.KindVfsHost, "read host file "+path, err)
	}
	return data, nil
}
