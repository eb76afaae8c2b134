package vfs

import (
	"os"
	"path/filepath"

	"github.com/gothicgo/zengin/zgerr"
)

// MountHost walks a host directory recursively and merges it into the
// namespace at mountPoint. Zero-byte files are skipped, since they carry
// no information the VFS needs to preserve.
func (v *Vfs) MountHost(hostPath, mountPoint string, overwrite OverwritePolicy) error {
	info, err := os.Stat(hostPath)
	if err != nil {
		return zgerr.Wrap(zgerr.KindVfsHost, "stat "+hostPath, err)
	}
	if !info.IsDir() {
		return zgerr.Wrap(zgerr.KindVfsHost, hostPath, zgerr.ErrNotDirectory)
	}

	root := NewDirectory(filepath.Base(hostPath), info.ModTime())
	if err := loadHostDirectory(root, hostPath); err != nil {
		return err
	}

	for _, child := range root.children {
		if err := v.Mount(child, mountPoint, overwrite); err != nil {
			return err
		}
	}
	return nil
}

func loadHostDirectory(parent *Node, hostDir string) error {
	entries, err := os.ReadDir(hostDir)
	if err != nil {
		return zgerr.Wrap(zgerr.KindVfsHost, "read dir "+hostDir, err)
	}

	for _, entry := range entries {
		childPath := filepath.Join(hostDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			return zgerr.Wrap(zgerr.KindVfsHost, "stat "+childPath, err)
		}

		if entry.IsDir() {
			dirNode := parent.insert(NewDirectory(entry.Name(), info.ModTime()))
			if err := loadHostDirectory(dirNode, childPath); err != nil {
				return err
			}
			continue
		}

		if info.Size() == 0 {
			continue
		}

		parent.insert(NewFile(entry.Name(), &physicalFile{path: childPath, offset: 0, size: -1}, info.ModTime()))
	}
	return nil
}
