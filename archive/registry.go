package archive

import "github.com/gothicgo/zengin/zgerr"

// Constructor builds a fresh zero-value instance for a registered wire class
// name.
type Constructor func() Persistable

// classEntry pairs a constructor with the minimum encoded version number the
// writer emits for each target game.
type classEntry struct {
	construct Constructor
	minG1     uint16
	minG2     uint16
}

// registry is the static wire-class-name -> constructor map. Populated by
// Register calls in the vob package's init functions: an open map rather
// than a fixed switch, so vob can register its own classes without
// archive importing it.
var registry = map[string]classEntry{}

// Register adds a wire class name to the object registry. Called from the
// vob package's init() so archive never imports vob directly.
func Register(className string, construct Constructor, minG1, minG2 uint16) {
	registry[className] = classEntry{construct: construct, minG1: minG1, minG2: minG2}
}

// lookup returns a fresh instance for className, or (nil, false) if the
// class name is unregistered; callers log and skip the object instead of
// failing the whole read.
func lookup(className string) (Persistable, bool) {
	entry, ok := registry[className]
	if !ok {
		return nil, false
	}
	return entry.construct(), true
}

// MinVersion returns the minimum encoded version for className targeting the
// given game, used by writers to stamp ArchiveObject.Version.
func MinVersion(className string, version GameVersion) (uint16, error) {
	entry, ok := registry[className]
	if !ok {
		return 0, zgerr.Wrap(zgerr.KindRegistry, className, zgerr.ErrUnknownClass)
	}
	if version == Gothic2 {
		return entry.minG2, nil
	}
	return entry.minG1, nil
}
