// Package zgerr provides the typed error hierarchy shared by every ZenGin
// subsystem: a wrapping error carrying a resource kind and a short context,
// plus the sentinel errors for conditions callers are expected to branch on.
package zgerr

import "fmt"

// Kind identifies the resource or subsystem that produced an error
// (e.g. "ReadArchive.Ascii", "Vfs.Disk").
type Kind string

const (
	KindIO          Kind = "IO"
	KindAsciiRead   Kind = "ReadArchive.Ascii"
	KindAsciiWrite  Kind = "WriteArchive.Ascii"
	KindBinaryRead  Kind = "ReadArchive.Binary"
	KindBinaryWrite Kind = "WriteArchive.Binary"
	KindBinsafeRead Kind = "ReadArchive.Binsafe"
	KindBinsafe     Kind = "WriteArchive.Binsafe"
	KindHeader      Kind = "Archive.Header"
	KindRegistry    Kind = "Archive.Registry"
	KindVob         Kind = "Vob"
	KindMaterial    Kind = "Material"
	KindVfsDisk     Kind = "Vfs.Disk"
	KindVfsHost     Kind = "Vfs.Host"
	KindVfsNode     Kind = "Vfs.Node"
	KindDaedalus    Kind = "Daedalus.Script"
	KindVm          Kind = "Daedalus.Vm"
)

// Error is a context-carrying wrapper for an underlying cause, formatted
// as "<kind>: <context>: <cause>".
type Error struct {
	Kind    Kind
	Context string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Context)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Context, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Wrap builds a contextual error. It returns nil if cause is nil, so callers
// can write `return zgerr.Wrap(...)` directly after a fallible call.
func Wrap(kind Kind, context string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Context: context, Cause: cause}
}

// New builds a contextual error with no separate cause, for failures that
// originate in this library rather than wrapping one from below.
func New(kind Kind, context string) error {
	return &Error{Kind: kind, Context: context}
}
