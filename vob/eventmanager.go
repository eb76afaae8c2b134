package vob

import "github.com/gothicgo/zengin/archive"

func init() {
	archive.Register("zCEventManager", func() archive.Persistable { return &EventManager{} }, 0, 0)
}

// ClassName satisfies Named so EventManager round-trips through
// archive.WriteObject like any other attached sub-object.
func (e *EventManager) ClassName() string { return "zCEventManager" }

// Load reads the handful of flags zCEventManager carries in a save game;
// the queued-event list itself is script call state owned by the daedalus
// VM and is not part of this record.
func (e *EventManager) Load(r archive.Reader, version archive.GameVersion) error {
	cleared, err := r.ReadBool()
	if err != nil {
		return err
	}
	e.Cleared = cleared

	active, err := r.ReadBool()
	if err != nil {
		return err
	}
	e.Active = active
	return nil
}

func (e *EventManager) Save(w archive.Writer, version archive.GameVersion) error {
	if err := w.WriteBool("clearedBL", e.Cleared); err != nil {
		return err
	}
	return w.WriteBool("activeBL", e.Active)
}
