package vob

import "github.com/gothicgo/zengin/archive"

// SoundMaterialType tags the impact/footstep sound class of a movable
// object's surface.
type SoundMaterialType uint32

const (
	SoundMaterialWood SoundMaterialType = iota
	SoundMaterialStone
	SoundMaterialMetal
	SoundMaterialLeather
	SoundMaterialClay
	SoundMaterialGlass
)

func init() {
	archive.Register("oCMOB:zCVob", func() archive.Persistable { return &MovableObject{} }, 0, 0)
	archive.Register("oCMobInter:oCMOB:zCVob", func() archive.Persistable { return &InteractiveObject{} }, 0, 0)
	archive.Register("oCMobContainer:oCMobInter:oCMOB:zCVob", func() archive.Persistable { return &Container{} }, 0, 0)
	archive.Register("oCMobDoor:oCMobInter:oCMOB:zCVob", func() archive.Persistable { return &Door{} }, 0, 0)
	archive.Register("oCMobFire:oCMobInter:oCMOB:zCVob", func() archive.Persistable { return &Fire{} }, 0, 0)
}

// MovableObject is oCMOB, the base of every interactive/dynamic world prop.
type MovableObject struct {
	VirtualObject

	Name            string
	HP              int32
	Damage          int32
	Movable         bool
	Takable         bool
	FocusOverride   bool
	Material        SoundMaterialType
	VisualDestroyed string
	Owner           string
	OwnerGuild      string
	Destroyed       bool
}

func (m *MovableObject) ClassName() string { return "oCMOB:zCVob" }

func (m *MovableObject) Load(r archive.Reader, version archive.GameVersion) error {
	if err := m.LoadBase(r, version); err != nil {
		return err
	}
	return m.loadFields(r, version)
}

func (m *MovableObject) loadFields(r archive.Reader, version archive.GameVersion) error {
	var err error
	if m.Name, err = r.ReadString(); err != nil {
		return err
	}
	if m.HP, err = r.ReadInt(); err != nil {
		return err
	}
	if m.Damage, err = r.ReadInt(); err != nil {
		return err
	}
	if m.Movable, err = r.ReadBool(); err != nil {
		return err
	}
	if m.Takable, err = r.ReadBool(); err != nil {
		return err
	}
	if m.FocusOverride, err = r.ReadBool(); err != nil {
		return err
	}
	materialVal, err := r.ReadEnum()
	if err != nil {
		return err
	}
	m.Material = SoundMaterialType(materialVal)
	if m.VisualDestroyed, err = r.ReadString(); err != nil {
		return err
	}
	if m.Owner, err = r.ReadString(); err != nil {
		return err
	}
	if m.OwnerGuild, err = r.ReadString(); err != nil {
		return err
	}
	m.Destroyed, err = r.ReadBool()
	return err
}

func (m *MovableObject) Save(w archive.Writer, version archive.GameVersion) error {
	if err := m.SaveBase(w, version, w.Header().Save); err != nil {
		return err
	}
	return m.saveFields(w, version)
}

func (m *MovableObject) saveFields(w archive.Writer, version archive.GameVersion) error {
	if err := w.WriteString("focusName", m.Name); err != nil {
		return err
	}
	if err := w.WriteInt("hitpoints", m.HP); err != nil {
		return err
	}
	if err := w.WriteInt("damage", m.Damage); err != nil {
		return err
	}
	if err := w.WriteBool("moveable", m.Movable); err != nil {
		return err
	}
	if err := w.WriteBool("takeable", m.Takable); err != nil {
		return err
	}
	if err := w.WriteBool("focusOverride", m.FocusOverride); err != nil {
		return err
	}
	if err := w.WriteEnum("soundMaterial", uint32(m.Material)); err != nil {
		return err
	}
	if err := w.WriteString("visualDestroyed", m.VisualDestroyed); err != nil {
		return err
	}
	if err := w.WriteString("owner", m.Owner); err != nil {
		return err
	}
	if err := w.WriteString("ownerGuild", m.OwnerGuild); err != nil {
		return err
	}
	return w.WriteBool("isDestroyed", m.Destroyed)
}

// InteractiveObject is oCMobInter, adding the state-machine/trigger fields
// shared by ladders, switches, wheels, beds, and containers.
type InteractiveObject struct {
	MovableObject

	State                int32
	Target               string
	Item                 string
	ConditionFunction    string
	OnStateChangeFunction string
	Rewind               bool
}

func (i *InteractiveObject) ClassName() string { return "oCMobInter:oCMOB:zCVob" }

func (i *InteractiveObject) Load(r archive.Reader, version archive.GameVersion) error {
	if err := i.LoadBase(r, version); err != nil {
		return err
	}
	return i.loadFields(r, version)
}

func (i *InteractiveObject) loadFields(r archive.Reader, version archive.GameVersion) error {
	if err := i.MovableObject.loadFields(r, version); err != nil {
		return err
	}
	var err error
	if i.State, err = r.ReadInt(); err != nil {
		return err
	}
	if i.Target, err = r.ReadString(); err != nil {
		return err
	}
	if i.Item, err = r.ReadString(); err != nil {
		return err
	}
	if i.ConditionFunction, err = r.ReadString(); err != nil {
		return err
	}
	if i.OnStateChangeFunction, err = r.ReadString(); err != nil {
		return err
	}
	i.Rewind, err = r.ReadBool()
	return err
}

func (i *InteractiveObject) Save(w archive.Writer, version archive.GameVersion) error {
	if err := i.SaveBase(w, version, w.Header().Save); err != nil {
		return err
	}
	return i.saveFields(w, version)
}

func (i *InteractiveObject) saveFields(w archive.Writer, version archive.GameVersion) error {
	if err := i.MovableObject.saveFields(w, version); err != nil {
		return err
	}
	if err := w.WriteInt("stateNum", i.State); err != nil {
		return err
	}
	if err := w.WriteString("triggerTarget", i.Target); err != nil {
		return err
	}
	if err := w.WriteString("useWithItem", i.Item); err != nil {
		return err
	}
	if err := w.WriteString("conditionFunc", i.ConditionFunction); err != nil {
		return err
	}
	if err := w.WriteString("onStateFunc", i.OnStateChangeFunction); err != nil {
		return err
	}
	return w.WriteBool("rewind", i.Rewind)
}

// Container is oCMobContainer.
type Container struct {
	InteractiveObject

	Locked     bool
	Key        string
	PickString string
	Contents   string

	Items []*Item
}

func (c *Container) ClassName() string { return "oCMobContainer:oCMobInter:oCMOB:zCVob" }

func (c *Container) Load(r archive.Reader, version archive.GameVersion) error {
	if err := c.LoadBase(r, version); err != nil {
		return err
	}
	if err := c.InteractiveObject.loadFields(r, version); err != nil {
		return err
	}
	var err error
	if c.Locked, err = r.ReadBool(); err != nil {
		return err
	}
	if c.Key, err = r.ReadString(); err != nil {
		return err
	}
	if c.PickString, err = r.ReadString(); err != nil {
		return err
	}
	if c.Contents, err = r.ReadString(); err != nil {
		return err
	}

	if r.Header().Save {
		count, err := r.ReadInt()
		if err != nil {
			return err
		}
		c.Items = make([]*Item, 0, count)
		for i := int32(0); i < count; i++ {
			obj, err := r.ReadObject(version)
			if err != nil {
				return err
			}
			if item, ok := obj.(*Item); ok {
				c.Items = append(c.Items, item)
			}
		}
	}
	return nil
}

func (c *Container) Save(w archive.Writer, version archive.GameVersion) error {
	if err := c.SaveBase(w, version, w.Header().Save); err != nil {
		return err
	}
	if err := c.InteractiveObject.saveFields(w, version); err != nil {
		return err
	}
	if err := w.WriteBool("locked", c.Locked); err != nil {
		return err
	}
	if err := w.WriteString("keyInstance", c.Key); err != nil {
		return err
	}
	if err := w.WriteString("pickLockStr", c.PickString); err != nil {
		return err
	}
	if err := w.WriteString("contains", c.Contents); err != nil {
		return err
	}

	if w.Header().Save {
		if err := w.WriteInt("NumOfEntries", int32(len(c.Items))); err != nil {
			return err
		}
		for _, item := range c.Items {
			if err := archive.WriteObject(w, "MOBInter", item.ClassName(), version, item); err != nil {
				return err
			}
		}
	}
	return nil
}

// Door is oCMobDoor, a container-shaped lock/pick-string record without an
// item list.
type Door struct {
	InteractiveObject

	Locked     bool
	Key        string
	PickString string
}

func (d *Door) ClassName() string { return "oCMobDoor:oCMobInter:oCMOB:zCVob" }

func (d *Door) Load(r archive.Reader, version archive.GameVersion) error {
	if err := d.LoadBase(r, version); err != nil {
		return err
	}
	if err := d.InteractiveObject.loadFields(r, version); err != nil {
		return err
	}
	var err error
	if d.Locked, err = r.ReadBool(); err != nil {
		return err
	}
	if d.Key, err = r.ReadString(); err != nil {
		return err
	}
	d.PickString, err = r.ReadString()
	return err
}

func (d *Door) Save(w archive.Writer, version archive.GameVersion) error {
	if err := d.SaveBase(w, version, w.Header().Save); err != nil {
		return err
	}
	if err := d.InteractiveObject.saveFields(w, version); err != nil {
		return err
	}
	if err := w.WriteBool("locked", d.Locked); err != nil {
		return err
	}
	if err := w.WriteString("keyInstance", d.Key); err != nil {
		return err
	}
	return w.WriteString("pickLockStr", d.PickString)
}

// Fire is oCMobFire, naming the slot and vob-tree used for a burning prop's
// flame visual.
type Fire struct {
	InteractiveObject

	Slot    string
	VobTree string
}

func (f *Fire) ClassName() string { return "oCMobFire:oCMobInter:oCMOB:zCVob" }

func (f *Fire) Load(r archive.Reader, version archive.GameVersion) error {
	if err := f.LoadBase(r, version); err != nil {
		return err
	}
	if err := f.InteractiveObject.loadFields(r, version); err != nil {
		return err
	}
	var err error
	if f.Slot, err = r.ReadString(); err != nil {
		return err
	}
	f.VobTree, err = r.ReadString()
	return err
}

func (f *Fire) Save(w archive.Writer, version archive.GameVersion) error {
	if err := f.SaveBase(w, version, w.Header().Save); err != nil {
		return err
	}
	if err := f.InteractiveObject.saveFields(w, version); err != nil {
		return err
	}
	if err := w.WriteString("fireSlot", f.Slot); err != nil {
		return err
	}
	return w.WriteString("fireVobtreeName", f.VobTree)
}
