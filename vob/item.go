package vob

import "github.com/gothicgo/zengin/archive"

func init() {
	archive.Register("oCItem:zCVob", func() archive.Persistable { return &Item{} }, 0, 0)
}

// Item is oCItem, the smallest concrete VOb: a reference to a Daedalus item
// instance. Amount/Flags are save-game-only fields.
type Item struct {
	VirtualObject

	InstanceName string
	Amount       int32
	Flags        int32
}

func (i *Item) ClassName() string { return "oCItem:zCVob" }

func (i *Item) Load(r archive.Reader, version archive.GameVersion) error {
	if err := i.LoadBase(r, version); err != nil {
		return err
	}
	var err error
	if i.InstanceName, err = r.ReadString(); err != nil {
		return err
	}
	if r.Header().Save {
		if i.Amount, err = r.ReadInt(); err != nil {
			return err
		}
		i.Flags, err = r.ReadInt()
	}
	return err
}

func (i *Item) Save(w archive.Writer, version archive.GameVersion) error {
	if err := i.SaveBase(w, version, w.Header().Save); err != nil {
		return err
	}
	if err := w.WriteString("itemInstance", i.InstanceName); err != nil {
		return err
	}
	if w.Header().Save {
		if err := w.WriteInt("amount", i.Amount); err != nil {
			return err
		}
		if err := w.WriteInt("flags", i.Flags); err != nil {
			return err
		}
	}
	return nil
}
