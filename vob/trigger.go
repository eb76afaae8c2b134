package vob

import "github.com/gothicgo/zengin/archive"

func init() {
	archive.Register("zCTrigger:zCVob", func() archive.Persistable { return &Trigger{} }, 12289, 52224)
	archive.Register("zCTriggerUntouch:zCVob", func() archive.Persistable { return &TriggerUntouch{} }, 12289, 52224)
	archive.Register("zCTriggerWorldStart:zCVob", func() archive.Persistable { return &TriggerWorldStart{} }, 12289, 52224)
	archive.Register("oCCSTrigger:zCTrigger:zCVob", func() archive.Persistable { return &Trigger{} }, 12289, 52224)
}

// Trigger is zCTrigger. flags/filterFlags are each a single raw byte on
// the wire, not a typed field.
type Trigger struct {
	VirtualObject

	Target               string
	Flags                uint8
	FilterFlags          uint8
	VobTarget            string
	MaxActivationCount   int32
	RetriggerDelaySec    float32
	DamageThreshold      float32
	FireDelaySec         float32

	NextTimeTriggerable float32
	CountCanBeActivated int32
	IsEnabled           bool
}

func (t *Trigger) ClassName() string { return "zCTrigger:zCVob" }

func (t *Trigger) Load(r archive.Reader, version archive.GameVersion) error {
	if err := t.LoadBase(r, version); err != nil {
		return err
	}
	return t.loadFields(r, version)
}

func (t *Trigger) loadFields(r archive.Reader, version archive.GameVersion) error {
	var err error
	if t.Target, err = r.ReadString(); err != nil {
		return err
	}
	flagsRaw, err := r.ReadRaw(1)
	if err != nil {
		return err
	}
	t.Flags = flagsRaw[0]
	filterRaw, err := r.ReadRaw(1)
	if err != nil {
		return err
	}
	t.FilterFlags = filterRaw[0]
	if t.VobTarget, err = r.ReadString(); err != nil {
		return err
	}
	if t.MaxActivationCount, err = r.ReadInt(); err != nil {
		return err
	}
	if t.RetriggerDelaySec, err = r.ReadFloat(); err != nil {
		return err
	}
	if t.DamageThreshold, err = r.ReadFloat(); err != nil {
		return err
	}
	if t.FireDelaySec, err = r.ReadFloat(); err != nil {
		return err
	}
	t.CountCanBeActivated = t.MaxActivationCount

	if r.Header().Save {
		if t.NextTimeTriggerable, err = r.ReadFloat(); err != nil {
			return err
		}
		// [savedOtherVob % 0 0]: a trailing always-empty back-reference slot.
		if _, err := r.ReadObject(version); err != nil {
			return err
		}
		if t.CountCanBeActivated, err = r.ReadInt(); err != nil {
			return err
		}
		if version == archive.Gothic2 {
			if t.IsEnabled, err = r.ReadBool(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Trigger) Save(w archive.Writer, version archive.GameVersion) error {
	if err := t.SaveBase(w, version, w.Header().Save); err != nil {
		return err
	}
	return t.saveFields(w, version)
}

func (t *Trigger) saveFields(w archive.Writer, version archive.GameVersion) error {
	if err := w.WriteString("triggerTarget", t.Target); err != nil {
		return err
	}
	if err := w.WriteRaw("flags", []byte{t.Flags}); err != nil {
		return err
	}
	if err := w.WriteRaw("filterFlags", []byte{t.FilterFlags}); err != nil {
		return err
	}
	if err := w.WriteString("respondToVobName", t.VobTarget); err != nil {
		return err
	}
	if err := w.WriteInt("numCanBeActivated", t.MaxActivationCount); err != nil {
		return err
	}
	if err := w.WriteFloat("retriggerWaitSec", t.RetriggerDelaySec); err != nil {
		return err
	}
	if err := w.WriteFloat("damageThreshold", t.DamageThreshold); err != nil {
		return err
	}
	if err := w.WriteFloat("fireDelaySec", t.FireDelaySec); err != nil {
		return err
	}

	if w.Header().Save {
		if err := w.WriteFloat("nextTimeTriggerable", t.NextTimeTriggerable); err != nil {
			return err
		}
		w.WriteRef("savedOtherVob", 0)
		if err := w.WriteInt("countCanBeActivated", t.CountCanBeActivated); err != nil {
			return err
		}
		if version == archive.Gothic2 {
			if err := w.WriteBool("isEnabled", t.IsEnabled); err != nil {
				return err
			}
		}
	}
	return nil
}

// TriggerWorldStart is zCTriggerWorldStart, a standalone zCVob subclass (it
// does not extend Trigger despite the name)
type TriggerWorldStart struct {
	VirtualObject

	Target    string
	FireOnce  bool
	HasFired  bool
}

func (t *TriggerWorldStart) ClassName() string { return "zCTriggerWorldStart:zCVob" }

func (t *TriggerWorldStart) Load(r archive.Reader, version archive.GameVersion) error {
	if err := t.LoadBase(r, version); err != nil {
		return err
	}
	var err error
	if t.Target, err = r.ReadString(); err != nil {
		return err
	}
	if t.FireOnce, err = r.ReadBool(); err != nil {
		return err
	}
	if r.Header().Save && version == archive.Gothic2 {
		t.HasFired, err = r.ReadBool()
	}
	return err
}

func (t *TriggerWorldStart) Save(w archive.Writer, version archive.GameVersion) error {
	if err := t.SaveBase(w, version, w.Header().Save); err != nil {
		return err
	}
	if err := w.WriteString("triggerTarget", t.Target); err != nil {
		return err
	}
	if err := w.WriteBool("fireOnlyFirstTime", t.FireOnce); err != nil {
		return err
	}
	if w.Header().Save && version == archive.Gothic2 {
		return w.WriteBool("hasFired", t.HasFired)
	}
	return nil
}

// TriggerUntouch is zCTriggerUntouch
type TriggerUntouch struct {
	VirtualObject

	Target string
}

func (t *TriggerUntouch) ClassName() string { return "zCTriggerUntouch:zCVob" }

func (t *TriggerUntouch) Load(r archive.Reader, version archive.GameVersion) error {
	if err := t.LoadBase(r, version); err != nil {
		return err
	}
	var err error
	t.Target, err = r.ReadString()
	return err
}

func (t *TriggerUntouch) Save(w archive.Writer, version archive.GameVersion) error {
	if err := t.SaveBase(w, version, w.Header().Save); err != nil {
		return err
	}
	return w.WriteString("triggerTarget", t.Target)
}
