package vfs

import (
	"strings"
	"time"

	"github.com/gothicgo/zengin/stream"
	"github.com/gothicgo/zengin/zgerr"
)

// Disk container signatures "one of three variants
// identifying container dialect".
const (
	diskSignatureG1       = "PSVDSC_V2.00\r\n\r\n"
	diskSignatureG2       = "PSVDSC_V2.00\n\r\n\r"
	diskSignatureVDFSTool = "PSVDSC_V2.00\x1A\x1A\x1A\x1A"
)

const (
	diskCommentSize = 256
	diskSigSize     = 16
	diskEntrySize   = 80
	diskNameSize    = 64

	diskTypeDirectory = 0x80000000
	diskTypeLast      = 0x40000000
)

// Dialect selects which disk signature Save emits.
type Dialect int

const (
	DialectGothic1 Dialect = iota
	DialectGothic2
)

func readFixedString(s stream.Stream, n int) (string, error) {
	buf, err := s.ReadBlock(n)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

func dosToTime(dos uint32) time.Time {
	year := int((dos>>25)&0x7F) + 1980
	month := time.Month((dos >> 21) & 0xF)
	day := int((dos >> 16) & 0x1F)
	hour := int((dos >> 11) & 0x1F)
	minute := int((dos >> 5) & 0x3F)
	second := int((dos & 0x1F) * 2)
	return time.Date(year, month, day, hour, minute, second, 0, time.UTC)
}

func timeToDOS(t time.Time) uint32 {
	t = t.UTC()
	var dos uint32
	dos |= uint32(t.Year()-1980) << 25
	dos |= uint32(t.Month()) << 21
	dos |= uint32(t.Day()) << 16
	dos |= uint32(t.Hour()) << 11
	dos |= uint32(t.Minute()) << 5
	dos |= uint32(t.Second() / 2)
	return dos
}

// MountDisk parses a disk container and merges its tree into the
// namespace at the root. loadDiskEntry walks the catalog recursively,
// seeking to each directory's first child by catalog index.
func (v *Vfs) MountDisk(path string, overwrite OverwritePolicy) error {
	s, err := stream.OpenMapped(path)
	if err != nil {
		s, err = stream.OpenFile(path, false)
		if err != nil {
			return zgerr.Wrap(zgerr.KindVfsDisk, "open "+path, err)
		}
	}
	defer s.Close()

	size := s.Len()

	comment, err := readFixedString(s, diskCommentSize)
	if err != nil {
		return zgerr.Wrap(zgerr.KindVfsDisk, "read comment", err)
	}
	if i := strings.IndexByte(comment, 0x1A); i >= 0 {
		comment = comment[:i]
	}

	signature, err := readFixedString(s, diskSigSize)
	if err != nil {
		return zgerr.Wrap(zgerr.KindVfsDisk, "read signature", err)
	}
	switch signature {
	case diskSignatureVDFSTool:
		log.Debug("VDFS tool disk detected")
	case diskSignatureG1:
		log.Debug("Gothic 1 disk detected")
	case diskSignatureG2:
		log.Debug("Gothic 2 disk detected")
	default:
		return zgerr.Wrap(zgerr.KindVfsDisk, "signature "+signature, zgerr.ErrBadSignature)
	}

	if _, err := s.ReadU32(); err != nil { // entry count, unused
		return zgerr.Wrap(zgerr.KindVfsDisk, "read entry count", err)
	}
	if _, err := s.ReadU32(); err != nil { // file count, unused
		return zgerr.Wrap(zgerr.KindVfsDisk, "read file count", err)
	}
	tsWord, err := s.ReadU32()
	if err != nil {
		return zgerr.Wrap(zgerr.KindVfsDisk, "read timestamp", err)
	}
	timestamp := dosToTime(tsWord)

	if _, err := s.ReadU32(); err != nil { // total size, unused
		return zgerr.Wrap(zgerr.KindVfsDisk, "read total size", err)
	}
	catalogOffset, err := s.ReadU32()
	if err != nil {
		return zgerr.Wrap(zgerr.KindVfsDisk, "read catalog offset", err)
	}
	if _, err := s.ReadU32(); err != nil { // version, unused
		return zgerr.Wrap(zgerr.KindVfsDisk, "read version", err)
	}
	alignment, err := s.ReadU32()
	if err != nil {
		return zgerr.Wrap(zgerr.KindVfsDisk, "read alignment", err)
	}
	if alignment != diskEntrySize {
		return zgerr.Wrap(zgerr.KindVfsDisk, "alignment check", zgerr.ErrBadAlignment)
	}

	if catalogOffset == 0 {
		catalogOffset = s.Tell()
	}

	if _, err := s.Seek(int32(catalogOffset), stream.Begin); err != nil {
		return zgerr.Wrap(zgerr.KindVfsDisk, "seek catalog", err)
	}

	for {
		last, err := loadDiskEntry(s, v.root, catalogOffset, timestamp, size, path, overwrite)
		if err != nil {
			return err
		}
		if last {
			break
		}
	}
	return nil
}

// loadDiskEntry reads one 80-byte catalog entry and, for directories,
// recurses by seeking to the catalog offset the entry names.
func loadDiskEntry(s stream.Stream, parent *Node, catalogOffset uint32, ts time.Time, size uint32, path string, overwrite OverwritePolicy) (last bool, err error) {
	name, err := readFixedString(s, diskNameSize)
	if err != nil {
		return false, zgerr.Wrap(zgerr.KindVfsDisk, "read entry name", err)
	}
	name = strings.TrimRight(name, " ")

	offset, err := s.ReadU32()
	if err != nil {
		return false, zgerr.Wrap(zgerr.KindVfsDisk, "read entry offset", err)
	}
	entrySize, err := s.ReadU32()
	if err != nil {
		return false, zgerr.Wrap(zgerr.KindVfsDisk, "read entry size", err)
	}
	typeBits, err := s.ReadU32()
	if err != nil {
		return false, zgerr.Wrap(zgerr.KindVfsDisk, "read entry type", err)
	}
	if _, err := s.ReadU32(); err != nil { // attributes, ignored
		return false, zgerr.Wrap(zgerr.KindVfsDisk, "read entry attributes", err)
	}

	isDir := typeBits&diskTypeDirectory != 0
	isLast := typeBits&diskTypeLast != 0

	existing := parent.child(name)

	if isDir {
		if existing == nil {
			existing = parent.insert(NewDirectory(name, ts))
		} else if existing.typ != TypeDirectory {
			if !shouldOverwrite(overwrite, existing.time, ts) {
				return isLast, nil
			}
			parent.removeChild(name)
			existing = parent.insert(NewDirectory(name, ts))
		}

		here := s.Tell()
		if _, err := s.Seek(int32(catalogOffset+offset*diskEntrySize), stream.Begin); err != nil {
			return false, zgerr.Wrap(zgerr.KindVfsDisk, "seek subdirectory", err)
		}
		for {
			childLast, err := loadDiskEntry(s, existing, catalogOffset, ts, size, path, overwrite)
			if err != nil {
				return false, err
			}
			if childLast {
				break
			}
		}
		if _, err := s.Seek(int32(here), stream.Begin); err != nil {
			return false, zgerr.Wrap(zgerr.KindVfsDisk, "restore catalog position", err)
		}
		return isLast, nil
	}

	if offset+entrySize > size {
		return isLast, nil
	}

	if existing != nil {
		if !shouldOverwrite(overwrite, existing.time, ts) {
			return isLast, nil
		}
		parent.removeChild(name)
	}

	parent.insert(NewFile(name, &physicalFile{path: path, offset: int64(offset), size: int64(entrySize)}, ts))
	return isLast, nil
}

// Save writes a disk container reproducing the namespace rooted at v, with
// directory catalog entries laid out before their file data. Each
// directory's entries occupy consecutive catalog slots; subdirectories are
// then written depth-first, and each directory entry's first-child index is
// backpatched once its position is known.
func (v *Vfs) Save(w stream.Stream, dialect Dialect, ts time.Time) error {
	if ts.IsZero() {
		ts = time.Now()
	}

	headerSize := diskCommentSize + diskSigSize + 7*4
	catalogSize := (countNodes(v.root) - 1) * diskEntrySize

	catalog := stream.OpenMemory(make([]byte, 0, catalogSize))

	if _, err := w.Seek(int32(headerSize+catalogSize), stream.Begin); err != nil {
		return zgerr.Wrap(zgerr.KindVfsDisk, "seek past header+catalog", err)
	}

	var index, files uint32
	if err := writeDiskNode(w, catalog, v.root, &index, &files); err != nil {
		return err
	}

	catalogLen := int(catalog.Len())
	if _, err := catalog.Seek(0, stream.Begin); err != nil {
		return err
	}
	catalogBytes, err := catalog.ReadBlock(catalogLen)
	if err != nil {
		return zgerr.Wrap(zgerr.KindVfsDisk, "drain catalog buffer", err)
	}

	comment := "Created with zengin"
	commentBuf := make([]byte, diskCommentSize)
	copy(commentBuf, comment)
	for i := len(comment); i < diskCommentSize; i++ {
		commentBuf[i] = 0x1A
	}

	signature := diskSignatureG1
	if dialect == DialectGothic2 {
		signature = diskSignatureG2
	}

	off := w.Tell()
	if _, err := w.Seek(0, stream.Begin); err != nil {
		return err
	}
	if err := w.WriteBlock(commentBuf); err != nil {
		return err
	}
	if err := w.WriteBlock([]byte(signature)); err != nil {
		return err
	}
	if err := w.WriteU32(index); err != nil {
		return err
	}
	if err := w.WriteU32(files); err != nil {
		return err
	}
	if err := w.WriteU32(timeToDOS(ts)); err != nil {
		return err
	}
	if err := w.WriteU32(off + uint32(len(catalogBytes))); err != nil {
		return err
	}
	if err := w.WriteU32(uint32(headerSize)); err != nil {
		return err
	}
	if err := w.WriteU32(1); err != nil { // version
		return err
	}
	if err := w.WriteU32(diskEntrySize); err != nil {
		return err
	}
	if _, err := w.Seek(int32(headerSize), stream.Begin); err != nil {
		return err
	}
	return w.WriteBlock(catalogBytes)
}

func countNodes(n *Node) int {
	count := 1
	if n.typ == TypeDirectory {
		for _, c := range n.children {
			count += countNodes(c)
		}
	}
	return count
}

// writeDiskNode writes one directory level's catalog entries, then
// recurses into each child directory after backpatching its catalog
// offset: two passes, entries then subdirectories.
func writeDiskNode(w, catalog stream.Stream, node *Node, index, files *uint32) error {
	type pendingDir struct {
		catalogOffset uint32
		node          *Node
	}
	var dirs []pendingDir

	children := node.children
	for i, child := range children {
		nameBuf := make([]byte, diskNameSize)
		copy(nameBuf, child.name)
		for j := len(child.name); j < diskNameSize; j++ {
			nameBuf[j] = ' '
		}
		if err := catalog.WriteBlock(nameBuf); err != nil {
			return err
		}

		isLast := i+1 == len(children)
		lastBit := uint32(0)
		if isLast {
			lastBit = diskTypeLast
		}

		if child.typ == TypeFile {
			rd, err := child.Open()
			if err != nil {
				return zgerr.Wrap(zgerr.KindVfsDisk, "open "+child.name, err)
			}
			data, err := rd.ReadBlock(int(rd.Len()))
			_ = rd.Close()
			if err != nil {
				return err
			}

			if err := catalog.WriteU32(w.Tell()); err != nil {
				return err
			}
			if err := catalog.WriteU32(uint32(len(data))); err != nil {
				return err
			}
			if err := catalog.WriteU32(lastBit); err != nil {
				return err
			}
			if err := catalog.WriteU32(0); err != nil { // attributes
				return err
			}
			if err := w.WriteBlock(data); err != nil {
				return err
			}
			*files++
		} else {
			dirs = append(dirs, pendingDir{catalogOffset: catalog.Tell(), node: child})
			if err := catalog.WriteU32(0); err != nil {
				return err
			}
			if err := catalog.WriteU32(0); err != nil {
				return err
			}
			if err := catalog.WriteU32(lastBit | diskTypeDirectory); err != nil {
				return err
			}
			if err := catalog.WriteU32(0); err != nil { // attributes
				return err
			}
		}
		*index++
	}

	for _, d := range dirs {
		here := catalog.Tell()
		if _, err := catalog.Seek(int32(d.catalogOffset), stream.Begin); err != nil {
			return err
		}
		if err := catalog.WriteU32(*index); err != nil {
			return err
		}
		if _, err := catalog.Seek(int32(here), stream.Begin); err != nil {
			return err
		}

		if err := writeDiskNode(w, catalog, d.node, index, files); err != nil {
			return err
		}
	}
	return nil
}
